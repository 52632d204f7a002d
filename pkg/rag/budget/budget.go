package budget

import "errors"

// ErrLastMessageTooLarge is returned when the newest segment by itself does
// not fit the token ceiling. There is no fallback truncation of a single
// segment's content.
var ErrLastMessageTooLarge = errors.New("last message alone is too large")

// Segment is one prompt unit: content, its role, and a precomputed token
// count. Token counts are always computed before budgeting.
type Segment struct {
	Role       string
	Content    string
	TokenCount int
}

// FindLastIndex scans the token counts from newest to oldest and returns the
// index of the first segment that still fits the ceiling. Everything before
// that index must be dropped.
func FindLastIndex(tokenCounts []int, maxTokens int) (int, error) {
	runningSum := 0
	lastInd := 0
	for i := len(tokenCounts) - 1; i >= 0; i-- {
		runningSum += tokenCounts[i]
		if runningSum > maxTokens {
			lastInd = i + 1
			break
		}
	}
	if lastInd >= len(tokenCounts) {
		return 0, ErrLastMessageTooLarge
	}
	return lastInd, nil
}

// DropHistoryOverflow assembles the prompt segments that fit maxTokens.
// History is dropped oldest-first, then the system segment, and the final
// segment is never dropped. The scan order places the system segment between
// history and final, so the system text survives exactly as long as the cut
// point stays within history.
func DropHistoryOverflow(system *Segment, history []Segment, final Segment, maxTokens int) ([]Segment, error) {
	allTokens := make([]int, 0, len(history)+2)
	for _, h := range history {
		allTokens = append(allTokens, h.TokenCount)
	}
	systemTokens := 0
	if system != nil {
		systemTokens = system.TokenCount
	}
	allTokens = append(allTokens, systemTokens, final.TokenCount)

	ignoredInd, err := FindLastIndex(allTokens, maxTokens)
	if err != nil {
		return nil, err
	}

	segments := make([]Segment, 0, len(history)+2)
	if system != nil && ignoredInd <= len(history) {
		segments = append(segments, *system)
	}
	start := ignoredInd
	if start > len(history) {
		start = len(history)
	}
	segments = append(segments, history[start:]...)
	segments = append(segments, final)
	return segments, nil
}
