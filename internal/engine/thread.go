package engine

import (
	"sort"

	"github.com/figsync/pkg/models"
)

// FindRoot walks the parent chain from target up to its thread root. A
// parent id that is absent from comments ends the walk at the last comment
// reached, and a repeated ancestor id (malformed, cyclic input) does the
// same, so the walk always terminates.
func FindRoot(comments []models.Comment, target models.Comment) models.Comment {
	byID := make(map[string]models.Comment, len(comments))
	for _, c := range comments {
		byID[c.ID] = c
	}

	visited := map[string]bool{target.ID: true}
	current := target
	for !current.IsRoot() {
		parent, ok := byID[current.ParentID]
		if !ok {
			// Broken or partial reference: treat as having reached the root.
			return current
		}
		if visited[parent.ID] {
			// Cycle guard.
			return current
		}
		visited[parent.ID] = true
		current = parent
	}
	return current
}

// BuildThreadContext reconstructs the conversation leading up to target as
// ordered prior messages, oldest first, excluding target itself.
//
// The thread membership is the transitive closure over parent references:
// starting from the root, comments whose parent is already in the thread are
// added until a full scan adds nothing new. That is correct for arbitrarily
// deep and wide reply trees regardless of fetch order. The collected thread
// is then stably sorted by creation time, so equal timestamps keep their
// fetch order.
//
// Each message's IsGenerated flag is inferred by re-running the trigger
// match on its own text: a message without the trigger is assumed to be one
// of our own generated replies. A human reply that does not repeat the
// trigger is misclassified by this heuristic; the comment source tracks
// authorship no other way.
func BuildThreadContext(comments []models.Comment, target models.Comment, trigger string) []models.ThreadMessage {
	root := FindRoot(comments, target)

	inThread := map[string]bool{root.ID: true}
	for added := true; added; {
		added = false
		for _, c := range comments {
			if inThread[c.ID] || c.ParentID == "" {
				continue
			}
			if inThread[c.ParentID] {
				inThread[c.ID] = true
				added = true
			}
		}
	}

	thread := make([]models.Comment, 0, len(inThread))
	for _, c := range comments {
		if inThread[c.ID] {
			thread = append(thread, c)
		}
	}
	sort.SliceStable(thread, func(i, j int) bool {
		return thread[i].CreatedAt.Before(thread[j].CreatedAt)
	})

	var messages []models.ThreadMessage
	for _, c := range thread {
		if c.ID == target.ID {
			continue
		}
		messages = append(messages, models.ThreadMessage{
			AuthorHandle: c.AuthorHandle,
			Text:         c.Text,
			IsGenerated:  !MatchesTrigger(c.Text, trigger),
		})
	}
	return messages
}
