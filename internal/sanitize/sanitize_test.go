package sanitize

import (
	"strings"
	"testing"
)

func TestQuery(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "plain text unchanged",
			input: "Main Street 12",
			want:  "Main Street 12",
		},
		{
			name:  "surrounding whitespace trimmed",
			input: "  Springfield  ",
			want:  "Springfield",
		},
		{
			name:  "disallowed characters dropped",
			input: "a @ b",
			want:  "a b",
		},
		{
			name:  "allowed punctuation kept",
			input: "O'Neill & Sons, Unit #3 (rear) - N1.",
			want:  "O'Neill & Sons, Unit #3 (rear) - N1.",
		},
		{
			name:  "internal whitespace collapsed",
			input: "High\t\tStreet\n\nLondon",
			want:  "High Street London",
		},
		{
			name:  "injection characters removed",
			input: "Robert'); DROP TABLE locations;--",
			want:  "Robert') DROP TABLE locations--",
		},
		{
			name:  "emoji and unicode stripped",
			input: "café ☕ 東京",
			want:  "caf",
		},
		{
			name:  "only disallowed characters",
			input: "<>!?*%$",
			want:  "",
		},
		{
			name:  "empty input",
			input: "",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := Query(tt.input)
			if got != tt.want {
				t.Errorf("Query(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestQueryTruncatesToMaxLength(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("a", MaxQueryLength+50)
	got := Query(long)
	if len([]rune(got)) != MaxQueryLength {
		t.Errorf("Query() length = %d, want %d", len([]rune(got)), MaxQueryLength)
	}
}

func TestQueryBounded(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("a", 80)

	t.Run("custom bound applies", func(t *testing.T) {
		t.Parallel()
		got := QueryBounded(long, 20)
		if len([]rune(got)) != 20 {
			t.Errorf("QueryBounded() length = %d, want 20", len([]rune(got)))
		}
	})

	t.Run("zero bound falls back to default", func(t *testing.T) {
		t.Parallel()
		if got := QueryBounded(long, 0); got != long {
			t.Errorf("QueryBounded() = %q, want input unchanged", got)
		}
	})

	t.Run("bound above ceiling is capped", func(t *testing.T) {
		t.Parallel()
		oversized := strings.Repeat("b", MaxQueryLength+50)
		got := QueryBounded(oversized, MaxQueryLength+40)
		if len([]rune(got)) != MaxQueryLength {
			t.Errorf("QueryBounded() length = %d, want %d", len([]rune(got)), MaxQueryLength)
		}
	})
}

func TestQueryIdempotent(t *testing.T) {
	t.Parallel()

	inputs := []string{
		"  Main   Street @ 12  ",
		"O'Neill & Sons",
		strings.Repeat("x y ", 60),
	}
	for _, input := range inputs {
		once := Query(input)
		twice := Query(once)
		if once != twice {
			t.Errorf("Query not idempotent for %q: first %q, second %q", input, once, twice)
		}
	}
}
