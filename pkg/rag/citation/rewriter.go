package citation

import "strconv"

// Rewriter is a stateful streaming filter that rewrites bracketed citation
// markers [n] into doubled-bracket markdown links [[n]](link). It must work
// no matter how token boundaries fall relative to bracket and digit
// boundaries, so an in-progress marker is buffered across tokens and never
// flushed until it resolves or the stream ends.
type Rewriter struct {
	links   []string
	segment string
}

// NewRewriter builds a rewriter over an ordered link list: links[i] backs
// citation number i+1. With no links every token passes through unchanged.
func NewRewriter(links []string) *Rewriter {
	return &Rewriter{links: links}
}

// Feed consumes one token and returns whatever output is safe to emit. An
// empty return means the token (or its tail) is buffered as a possible
// citation marker.
func (r *Rewriter) Feed(token string) string {
	if len(r.links) == 0 {
		return token
	}
	r.segment += token
	return r.process()
}

// Flush ends the stream. An unresolved partial marker is emitted verbatim.
func (r *Rewriter) Flush() string {
	out := r.segment
	r.segment = ""
	return out
}

func (r *Rewriter) process() string {
	seg := r.segment
	out := make([]byte, 0, len(seg))
	i := 0
	for i < len(seg) {
		if seg[i] != '[' {
			out = append(out, seg[i])
			i++
			continue
		}
		j := i + 1
		for j < len(seg) && seg[j] >= '0' && seg[j] <= '9' {
			j++
		}
		if j >= len(seg) {
			// "[" or "[12" at the end of the buffer: could still become a
			// citation once more tokens arrive.
			r.segment = seg[i:]
			return string(out)
		}
		if seg[j] == ']' && j > i+1 {
			digits := seg[i+1 : j]
			n, err := strconv.Atoi(digits)
			if err == nil && n >= 1 && n <= len(r.links) && r.links[n-1] != "" {
				out = append(out, "[["+digits+"]]("+r.links[n-1]+")"...)
			} else {
				out = append(out, seg[i:j+1]...)
			}
			i = j + 1
			continue
		}
		// Bracket not opening a citation, e.g. "[]" or "[a".
		out = append(out, '[')
		i++
	}
	r.segment = ""
	return string(out)
}
