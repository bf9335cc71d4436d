package translate

import "testing"

func TestTokenizer_Count(t *testing.T) {
	tok, err := NewTokenizer()
	if err != nil {
		t.Fatalf("NewTokenizer: %v", err)
	}

	count := tok.Count("Hello, world!")
	if count <= 0 {
		t.Errorf("expected positive token count, got %d", count)
	}
	if tok.Count("") != 0 {
		t.Error("empty string should count 0 tokens")
	}
}

func TestTokenizer_Truncate(t *testing.T) {
	tok, err := NewTokenizer()
	if err != nil {
		t.Fatalf("NewTokenizer: %v", err)
	}

	long := "This is a fairly long string that should have more than five tokens in total."
	truncated := tok.Truncate(long, 5)
	if len(truncated) >= len(long) {
		t.Error("truncated string should be shorter than original")
	}
	if tok.Count(truncated) > 5 {
		t.Errorf("truncated string has %d tokens, want <= 5", tok.Count(truncated))
	}

	short := "tiny"
	if got := tok.Truncate(short, 100); got != short {
		t.Errorf("string under budget must be unchanged, got %q", got)
	}
}
