package engine

import (
	"github.com/figsync/pkg/models"
)

// Ledger is the processed-comment record the engine consults and updates.
// Marking happens only after a reply was successfully posted, so a crash
// mid-processing causes a re-attempt on the next cycle, never a lost
// comment.
type Ledger interface {
	IsProcessed(id string) bool
	MarkProcessed(id string) error
}

// SelectComments filters a document's raw comment list down to the comments
// that need a reply: not yet processed, not resolved, and containing the
// trigger phrase. The input's relative order is preserved and the selection
// itself has no side effects.
func SelectComments(comments []models.Comment, ledger Ledger, trigger string) []models.Comment {
	var selected []models.Comment
	for _, c := range comments {
		if ledger.IsProcessed(c.ID) {
			continue
		}
		if c.IsResolved() {
			continue
		}
		if !MatchesTrigger(c.Text, trigger) {
			continue
		}
		selected = append(selected, c)
	}
	return selected
}
