package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// RetrievalToolName is the reserved action name for the built-in document
// search. It is dispatched internally, never through an endpoint.
const RetrievalToolName = "Current Search"

// RetrievalToolDescription is the overview shown to the model for the
// built-in search tool.
const RetrievalToolDescription = "A search tool that can find information on any topic including up to date and proprietary knowledge."

// ToolConfig describes one externally dispatchable tool attached to a
// persona.
type ToolConfig struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Endpoint    string `json:"endpoint"`
}

// Dispatcher executes a named tool with the model-provided input and returns
// the tool's textual output.
type Dispatcher interface {
	Call(ctx context.Context, name, input string) (string, error)
}

type toolRequest struct {
	Input string `json:"input"`
}

// HTTPDispatcher posts the tool input to the tool's configured endpoint and
// returns the response body verbatim.
type HTTPDispatcher struct {
	registry map[string]ToolConfig
	client   *http.Client
}

func NewHTTPDispatcher(configs []ToolConfig) *HTTPDispatcher {
	registry := make(map[string]ToolConfig, len(configs))
	for _, c := range configs {
		registry[c.Name] = c
	}
	return &HTTPDispatcher{
		registry: registry,
		client:   &http.Client{Timeout: 60 * time.Second},
	}
}

func (d *HTTPDispatcher) Call(ctx context.Context, name, input string) (string, error) {
	tool, ok := d.registry[name]
	if !ok {
		return "", fmt.Errorf("unknown tool: %s", name)
	}

	payload, err := json.Marshal(toolRequest{Input: input})
	if err != nil {
		return "", fmt.Errorf("marshal tool request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", tool.Endpoint, bytes.NewBuffer(payload))
	if err != nil {
		return "", fmt.Errorf("create tool request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("tool %s call failed: %w", name, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read tool %s response: %w", name, err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("tool %s error: status %d, body: %s", name, resp.StatusCode, string(body))
	}
	return string(body), nil
}
