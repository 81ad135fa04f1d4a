package masking

import "testing"

func TestSanitize_RedactsAPIKey(t *testing.T) {
	s := NewSanitizer()
	out := s.Sanitize(`api_key: "sk-abcdefghijklmnopqrstuvwxyz123456"`)
	if out == `api_key: "sk-abcdefghijklmnopqrstuvwxyz123456"` {
		t.Fatal("expected api key to be masked")
	}
}

func TestSanitize_RedactsEmail(t *testing.T) {
	s := NewSanitizer()
	out := s.Sanitize("contact the quest-giver at npc-author@example.com for lore questions")
	if out == "contact the quest-giver at npc-author@example.com for lore questions" {
		t.Fatal("expected email to be masked")
	}
}

func TestSanitize_LeavesPlainNarrativeUntouched(t *testing.T) {
	s := NewSanitizer()
	text := "The old lighthouse keeper warns travelers about the reef at dusk."
	if got := s.Sanitize(text); got != text {
		t.Fatalf("expected narrative text untouched, got %q", got)
	}
}

func TestSanitize_EmptyInput(t *testing.T) {
	s := NewSanitizer()
	if s.Sanitize("") != "" {
		t.Fatal("expected empty input to round-trip")
	}
}
