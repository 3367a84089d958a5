package mediaid

import (
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := New()
		if !strings.HasPrefix(id, "td_") {
			t.Fatalf("New() = %q, want td_ prefix", id)
		}
		if len(id) != len("td_")+26 {
			t.Fatalf("New() = %q, want 26-char ULID body", id)
		}
		if id != strings.ToLower(id) {
			t.Fatalf("New() = %q, want lowercase", id)
		}
		if seen[id] {
			t.Fatalf("New() produced duplicate %q", id)
		}
		seen[id] = true
	}
}

func TestIsValid(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  bool
	}{
		{name: "generated id", value: New(), want: true},
		{name: "missing prefix", value: "01hq3ymje8b7y0d8b0av2ttxkq", want: false},
		{name: "wrong prefix", value: "jan_01hq3ymje8b7y0d8b0av2ttxkq", want: false},
		{name: "empty", value: "", want: false},
		{name: "prefix only", value: "td_", want: false},
		{name: "garbage body", value: "td_not-a-ulid", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsValid(tt.value); got != tt.want {
				t.Errorf("IsValid(%q) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}

func TestParseRoundTrip(t *testing.T) {
	id := New()
	parsed, err := Parse(id)
	if err != nil {
		t.Fatalf("Parse(%q) error = %v", id, err)
	}
	if got := "td_" + strings.ToLower(parsed.String()); got != id {
		t.Errorf("round trip = %q, want %q", got, id)
	}
}
