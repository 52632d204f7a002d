package answer

import (
	"ai-docchat-be/pkg/llm"
	"ai-docchat-be/pkg/tokenizer"
)

// StrategyKind identifies one of the three generation strategies.
type StrategyKind int

const (
	KindContextless StrategyKind = iota
	KindContextual
	KindToolEnabled
)

func (k StrategyKind) String() string {
	switch k {
	case KindContextless:
		return "contextless"
	case KindContextual:
		return "contextual"
	case KindToolEnabled:
		return "tool-enabled"
	default:
		return "unknown"
	}
}

// SelectKind maps persona configuration to a generation strategy, evaluated
// in precedence order: no persona and tool-less non-retrieval personas
// answer contextlessly; retrieval-only personas get the lightweight
// contextual flow unless the structured tool prompt is forced; anything with
// tools runs the full action protocol.
func SelectKind(persona *PersonaConfig, forceToolPrompt bool) StrategyKind {
	if persona == nil {
		return KindContextless
	}
	if !persona.RetrievalEnabled && len(persona.Tools) == 0 {
		return KindContextless
	}
	if persona.RetrievalEnabled && len(persona.Tools) == 0 && !forceToolPrompt {
		return KindContextual
	}
	return KindToolEnabled
}

// Builder holds the collaborators shared by all strategies and instantiates
// the right one per turn.
type Builder struct {
	Provider        llm.Provider
	Tokenizer       tokenizer.Tokenizer
	Retriever       Retriever
	Dispatcher      ToolDispatcher
	MaxInputTokens  int
	DocTokenBudget  int
	ForceToolPrompt bool
}

// ForPersona selects and builds the strategy governing this turn.
func (b *Builder) ForPersona(persona *PersonaConfig) Strategy {
	switch SelectKind(persona, b.ForceToolPrompt) {
	case KindContextual:
		return &contextualStrategy{
			provider:       b.Provider,
			tok:            b.Tokenizer,
			retriever:      b.Retriever,
			maxTokens:      b.MaxInputTokens,
			docTokenBudget: b.DocTokenBudget,
		}
	case KindToolEnabled:
		return &toolEnabledStrategy{
			provider:       b.Provider,
			tok:            b.Tokenizer,
			retriever:      b.Retriever,
			dispatcher:     b.Dispatcher,
			maxTokens:      b.MaxInputTokens,
			docTokenBudget: b.DocTokenBudget,
		}
	default:
		systemText := ""
		if persona != nil {
			systemText = persona.SystemText
		}
		return &contextlessStrategy{
			provider:   b.Provider,
			tok:        b.Tokenizer,
			maxTokens:  b.MaxInputTokens,
			systemText: systemText,
		}
	}
}
