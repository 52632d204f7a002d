package tokenizer

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"
)

const DefaultEncoding = "cl100k_base"

// Tokenizer counts model input tokens. Only the count is used by the
// prompt budgeting code; the token ids themselves are never inspected.
type Tokenizer interface {
	CountTokens(text string) int
}

type TiktokenTokenizer struct {
	encoding *tiktoken.Tiktoken
}

// Ensure TiktokenTokenizer implements Tokenizer
var _ Tokenizer = (*TiktokenTokenizer)(nil)

func NewTiktokenTokenizer(encodingName string) (*TiktokenTokenizer, error) {
	if encodingName == "" {
		encodingName = DefaultEncoding
	}
	enc, err := tiktoken.GetEncoding(encodingName)
	if err != nil {
		return nil, fmt.Errorf("load tiktoken encoding %q: %w", encodingName, err)
	}
	return &TiktokenTokenizer{encoding: enc}, nil
}

func (t *TiktokenTokenizer) CountTokens(text string) int {
	return len(t.encoding.Encode(text, nil, nil))
}
