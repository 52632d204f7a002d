package budget

import (
	"errors"
	"reflect"
	"testing"
)

func TestFindLastIndex(t *testing.T) {
	tests := []struct {
		name        string
		tokenCounts []int
		maxTokens   int
		want        int
		wantErr     bool
	}{
		{name: "all fit", tokenCounts: []int{3, 3, 3}, maxTokens: 9, want: 0},
		{name: "drop oldest", tokenCounts: []int{3, 3, 3}, maxTokens: 6, want: 1},
		{name: "only newest fits", tokenCounts: []int{3, 3, 3}, maxTokens: 3, want: 2},
		{name: "newest alone too large", tokenCounts: []int{3, 3, 3}, maxTokens: 2, wantErr: true},
		{name: "single oversized segment", tokenCounts: []int{5}, maxTokens: 4, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FindLastIndex(tt.tokenCounts, tt.maxTokens)
			if tt.wantErr {
				if !errors.Is(err, ErrLastMessageTooLarge) {
					t.Fatalf("FindLastIndex() error = %v, want ErrLastMessageTooLarge", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("FindLastIndex() unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("FindLastIndex() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestDropHistoryOverflow(t *testing.T) {
	seg := func(content string, tokens int) Segment {
		return Segment{Role: "user", Content: content, TokenCount: tokens}
	}
	system := Segment{Role: "system", Content: "sys", TokenCount: 2}
	bigSystem := Segment{Role: "system", Content: "sys", TokenCount: 10}

	tests := []struct {
		name      string
		system    *Segment
		history   []Segment
		final     Segment
		maxTokens int
		want      []string
		wantErr   bool
	}{
		{
			name:      "everything fits",
			system:    &system,
			history:   []Segment{seg("h1", 3), seg("h2", 3)},
			final:     seg("final", 3),
			maxTokens: 20,
			want:      []string{"sys", "h1", "h2", "final"},
		},
		{
			name:      "oldest history dropped first",
			system:    &system,
			history:   []Segment{seg("h1", 4), seg("h2", 4)},
			final:     seg("final", 4),
			maxTokens: 11,
			want:      []string{"sys", "h2", "final"},
		},
		{
			name:      "system dropped before final",
			system:    &bigSystem,
			history:   []Segment{seg("h1", 5), seg("h2", 5)},
			final:     seg("final", 5),
			maxTokens: 12,
			want:      []string{"final"},
		},
		{
			name:      "no system segment",
			system:    nil,
			history:   []Segment{seg("h1", 3)},
			final:     seg("final", 3),
			maxTokens: 10,
			want:      []string{"h1", "final"},
		},
		{
			name:      "final alone too large",
			system:    nil,
			history:   nil,
			final:     seg("final", 20),
			maxTokens: 10,
			wantErr:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DropHistoryOverflow(tt.system, tt.history, tt.final, tt.maxTokens)
			if tt.wantErr {
				if !errors.Is(err, ErrLastMessageTooLarge) {
					t.Fatalf("DropHistoryOverflow() error = %v, want ErrLastMessageTooLarge", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("DropHistoryOverflow() unexpected error: %v", err)
			}
			gotContents := make([]string, len(got))
			for i, s := range got {
				gotContents[i] = s.Content
			}
			if !reflect.DeepEqual(gotContents, tt.want) {
				t.Errorf("DropHistoryOverflow() = %v, want %v", gotContents, tt.want)
			}
		})
	}
}
