// Package engine implements the synchronization core: trigger matching,
// thread reconstruction, comment selection, per-comment processing, the
// polling cycle, and the scheduler that drives it.
package engine

import (
	"strings"
)

// MatchesTrigger returns true when the comment text contains the configured
// trigger phrase. Matching is case-insensitive substring containment with no
// word-boundary semantics: a trigger that is a substring of another word
// still matches. An empty trigger never matches.
func MatchesTrigger(text, trigger string) bool {
	trigger = strings.TrimSpace(trigger)
	if trigger == "" {
		return false
	}

	return strings.Contains(strings.ToLower(text), strings.ToLower(trigger))
}
