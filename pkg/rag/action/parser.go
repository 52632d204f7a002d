package action

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// FinalAnswerAction is the reserved action name a tool-calling model emits
// when it answers directly instead of requesting a tool.
const FinalAnswerAction = "Final Answer"

const (
	markerFinalAnswer = `"action":"finalanswer"`
	markerActionInput = `"actioninput":"`
)

// Decision is the parsed action envelope of a model turn that did not stream
// a final answer: the named tool to dispatch and its input.
type Decision struct {
	ModelRaw    string
	Action      string
	ActionInput string
}

type phase int

const (
	phaseSearchingAction phase = iota
	phaseSearchingInput
	phaseStreaming
	phaseDone
)

// Parser watches a token stream for the {action, action_input} envelope.
// Once the final-answer marker and the opening quote of action_input have
// both appeared, subsequent characters stream through verbatim until the
// single unescaped closing quote; everything after it is consumed but never
// emitted. If the pattern never appears, Finish parses the whole output as
// an embedded JSON object.
//
// Marker detection is insensitive to case and whitespace; the action_input
// marker additionally ignores underscores, so "action_input" and
// "actionInput" both match. Detection state is carried across tokens, so the
// envelope may be split at any token boundary.
type Parser struct {
	raw      strings.Builder
	phase    phase
	tail     string
	escaped  bool
	streamed bool
}

func NewParser() *Parser {
	return &Parser{}
}

// Feed consumes one token and returns the answer fragment to emit, if any.
func (p *Parser) Feed(token string) string {
	p.raw.WriteString(token)
	var out []byte
	for i := 0; i < len(token); i++ {
		c := token[i]
		switch p.phase {
		case phaseSearchingAction:
			if p.accumulate(c, false, markerFinalAnswer) {
				p.phase = phaseSearchingInput
				p.tail = ""
			}
		case phaseSearchingInput:
			if p.accumulate(c, true, markerActionInput) {
				p.phase = phaseStreaming
				p.streamed = true
				p.escaped = false
			}
		case phaseStreaming:
			switch {
			case p.escaped:
				out = append(out, c)
				p.escaped = false
			case c == '\\':
				out = append(out, c)
				p.escaped = true
			case c == '"':
				p.phase = phaseDone
			default:
				out = append(out, c)
			}
		case phaseDone:
			// Trailing JSON syntax is discarded.
		}
	}
	return string(out)
}

// accumulate normalizes one character into the marker tail and reports
// whether the tail now ends with the marker.
func (p *Parser) accumulate(c byte, skipUnderscore bool, marker string) bool {
	if c == ' ' || c == '\t' || c == '\n' || c == '\r' {
		return false
	}
	if skipUnderscore && c == '_' {
		return false
	}
	if c >= 'A' && c <= 'Z' {
		c += 'a' - 'A'
	}
	p.tail += string(c)
	if len(p.tail) > len(marker) {
		p.tail = p.tail[len(p.tail)-len(marker):]
	}
	return p.tail == marker
}

// Streamed reports whether a final answer was streamed through Feed.
func (p *Parser) Streamed() bool {
	return p.streamed
}

// Finish ends the stream. When the answer was streamed it returns (nil, nil);
// otherwise it parses the accumulated output into a Decision for dispatch.
func (p *Parser) Finish() (*Decision, error) {
	raw := p.raw.String()
	if p.streamed {
		return nil, nil
	}
	obj, err := ExtractEmbeddedJSON(raw)
	if err != nil {
		return nil, err
	}
	actionName, ok := obj["action"].(string)
	if !ok {
		return nil, errors.New("model output missing action field")
	}
	inputRaw, present := obj["action_input"]
	if !present {
		return nil, errors.New("model output missing action_input field")
	}
	input, ok := inputRaw.(string)
	if !ok {
		encoded, err := json.Marshal(inputRaw)
		if err != nil {
			return nil, fmt.Errorf("encode action_input: %w", err)
		}
		input = string(encoded)
	}
	return &Decision{ModelRaw: raw, Action: actionName, ActionInput: input}, nil
}

// ExtractEmbeddedJSON parses the first-{ to last-} span of text as a JSON
// object, tolerating prose the model wrapped around it.
func ExtractEmbeddedJSON(text string) (map[string]any, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end < start {
		return nil, errors.New("no embedded json object found")
	}
	var obj map[string]any
	if err := json.Unmarshal([]byte(text[start:end+1]), &obj); err != nil {
		return nil, fmt.Errorf("parse embedded json: %w", err)
	}
	return obj, nil
}
