package citation

import (
	"strings"
	"testing"
)

// run feeds the input split into fixed-size tokens and concatenates all
// emitted output.
func run(t *testing.T, links []string, input string, tokenSize int) string {
	t.Helper()
	r := NewRewriter(links)
	var out strings.Builder
	for i := 0; i < len(input); i += tokenSize {
		end := i + tokenSize
		if end > len(input) {
			end = len(input)
		}
		out.WriteString(r.Feed(input[i:end]))
	}
	out.WriteString(r.Flush())
	return out.String()
}

func TestRewriterSplitIndependence(t *testing.T) {
	links := []string{"urlA", "urlB"}
	input := "See [1] and [2]."
	want := "See [[1]](urlA) and [[2]](urlB)."

	for _, size := range []int{1, 2, 3, 5, len(input)} {
		if got := run(t, links, input, size); got != want {
			t.Errorf("token size %d: got %q, want %q", size, got, want)
		}
	}
}

func TestRewriterEmptyLinks(t *testing.T) {
	input := "No sources here [1] [2]."
	if got := run(t, nil, input, 3); got != input {
		t.Errorf("got %q, want unchanged input", got)
	}
}

func TestRewriterOutOfRange(t *testing.T) {
	links := []string{"urlA", "urlB"}
	input := "Look at [9] please."
	if got := run(t, links, input, 1); got != input {
		t.Errorf("got %q, want unchanged input", got)
	}
}

func TestRewriterBackToBackCitations(t *testing.T) {
	links := []string{"urlA", "urlB"}
	want := "[[1]](urlA)[[2]](urlB)"

	// Token boundary splits the shared bracket edge: "[1][" then "2]".
	r := NewRewriter(links)
	var out strings.Builder
	out.WriteString(r.Feed("[1]["))
	out.WriteString(r.Feed("2]"))
	out.WriteString(r.Flush())
	if got := out.String(); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestRewriterTrailingPartialFlushedVerbatim(t *testing.T) {
	links := []string{"urlA"}
	tests := []struct {
		input string
		want  string
	}{
		{input: "truncated [1", want: "truncated [1"},
		{input: "dangling [", want: "dangling ["},
		{input: "empty [] brackets", want: "empty [] brackets"},
		{input: "zero [0] stays", want: "zero [0] stays"},
	}
	for _, tt := range tests {
		if got := run(t, links, tt.input, 1); got != tt.want {
			t.Errorf("input %q: got %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestRewriterSkipsEmptyLink(t *testing.T) {
	links := []string{"", "urlB"}
	input := "See [1] and [2]."
	want := "See [1] and [[2]](urlB)."
	if got := run(t, links, input, 4); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}
