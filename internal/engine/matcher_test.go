package engine

import (
	"testing"
)

func TestMatchesTrigger(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		trigger string
		want    bool
	}{
		{"exact match", "@ai what do you think?", "@ai", true},
		{"case insensitive text", "Hey @AI, thoughts?", "@ai", true},
		{"case insensitive trigger", "hey @ai", "@AI", true},
		{"substring of another word", "chair design", "ai", true},
		{"no match", "looks good to me", "@ai", false},
		{"empty text", "", "@ai", false},
		{"empty trigger never matches", "anything at all", "", false},
		{"whitespace trigger never matches", "anything at all", "   ", false},
		{"trigger mid-sentence", "can someone ask @ai about this", "@ai", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MatchesTrigger(tt.text, tt.trigger); got != tt.want {
				t.Errorf("MatchesTrigger(%q, %q) = %v, want %v", tt.text, tt.trigger, got, tt.want)
			}
		})
	}
}
