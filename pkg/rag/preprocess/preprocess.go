package preprocess

import (
	"context"
	"fmt"
	"strings"
	"time"

	"ai-docchat-be/pkg/llm"
)

// Predicted query handling, announced to the caller before retrieval runs.
const (
	FlowQuestionAnswer = "question-answer"
	FlowSearch         = "search"

	SearchTypeSemantic = "semantic"
	SearchTypeKeyword  = "keyword"
)

// Result is the retrieval-preprocessing outcome for one query.
type Result struct {
	PredictedFlow   string
	PredictedSearch string
	TimeCutoff      *time.Time
	FavorRecent     bool
}

var recencyHints = []string{"latest", "newest", "most recent", "last week", "yesterday", "today"}

// Preprocess classifies the query shape. Short queries without question
// structure are treated as keyword searches; recency wording favors newer
// documents.
func Preprocess(query string) Result {
	trimmed := strings.TrimSpace(query)
	lowered := strings.ToLower(trimmed)

	isQuestion := strings.HasSuffix(trimmed, "?")
	for _, w := range []string{"who", "what", "when", "where", "why", "how", "is ", "are ", "can ", "does ", "do "} {
		if strings.HasPrefix(lowered, w) {
			isQuestion = true
			break
		}
	}

	result := Result{
		PredictedFlow:   FlowSearch,
		PredictedSearch: SearchTypeKeyword,
	}
	if isQuestion || len(strings.Fields(trimmed)) > 3 {
		result.PredictedFlow = FlowQuestionAnswer
		result.PredictedSearch = SearchTypeSemantic
	}
	for _, hint := range recencyHints {
		if strings.Contains(lowered, hint) {
			result.FavorRecent = true
			break
		}
	}
	return result
}

const needSearchPrompt = `Given the conversation history and the final query, determine if the system should call an external document search to answer. Answer strictly "yes" or "no".

Conversation:
%s

Final query:
%s

Answer:`

// NeedSearch asks the model whether retrieval is warranted for this query.
// Errors fall back to running the search, the safer default.
func NeedSearch(ctx context.Context, provider llm.Provider, history []llm.Message, query string) bool {
	out, err := provider.Invoke(ctx, []llm.Message{
		{Role: llm.RoleUser, Content: fmt.Sprintf(needSearchPrompt, renderHistory(history), query)},
	}, llm.WithTemperature(0))
	if err != nil {
		return true
	}
	return !strings.HasPrefix(strings.ToLower(strings.TrimSpace(out)), "no")
}

const rephrasePrompt = `Given the following conversation and a follow up input, rephrase the follow up into a SHORT, standalone query (which captures any relevant context from previous messages) for a vector store. IMPORTANT: EDIT THE QUERY TO BE AS CONCISE AS POSSIBLE. Respond with a short, compressed phrase. If there is a clear change in topic, disregard the previous messages.

Chat History:
%s

Follow Up Input: %s

Standalone question:`

// RephraseQuery rewrites a follow-up message into a standalone search query
// using the conversation history.
func RephraseQuery(ctx context.Context, provider llm.Provider, history []llm.Message, query string) (string, error) {
	if len(history) == 0 {
		return query, nil
	}
	out, err := provider.Invoke(ctx, []llm.Message{
		{Role: llm.RoleUser, Content: fmt.Sprintf(rephrasePrompt, renderHistory(history), query)},
	}, llm.WithTemperature(0))
	if err != nil {
		return "", fmt.Errorf("rephrase query: %w", err)
	}
	rephrased := strings.TrimSpace(out)
	if rephrased == "" {
		return query, nil
	}
	return rephrased, nil
}

func renderHistory(history []llm.Message) string {
	if len(history) == 0 {
		return "(no prior messages)"
	}
	lines := make([]string, len(history))
	for i, m := range history {
		lines[i] = fmt.Sprintf("%s: %s", m.Role, m.Content)
	}
	return strings.Join(lines, "\n")
}
