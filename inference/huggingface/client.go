package huggingface

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"nutrisyn"
	"nutrisyn/inference"
)

type Client struct {
	endpoint   string
	model      string
	apiKey     string
	httpClient nutrisyn.HTTPClient
	params     inference.Params
}

type ClientOpts struct {
	BaseEndpoint string
	ModelID      string
	APIKey       string
	HTTPClient   nutrisyn.HTTPClient
}

func NewClient(opts ClientOpts) (*Client, error) {
	if opts.APIKey == "" {
		return nil, fmt.Errorf("missing Hugging Face API key")
	}
	if opts.ModelID == "" {
		return nil, fmt.Errorf("missing model id")
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}

	return &Client{
		model:      opts.ModelID,
		apiKey:     opts.APIKey,
		httpClient: opts.HTTPClient,
		endpoint:   strings.TrimRight(opts.BaseEndpoint, "/") + "/models/" + opts.ModelID,
		params:     inference.DefaultParams(),
	}, nil
}

func (c *Client) Model() string { return c.model }

// Generate posts the prompt to the text-generation endpoint. Every failure is
// returned inside the Result; Generate never returns a Go error.
func (c *Client) Generate(ctx context.Context, prompt string) inference.Result {
	slog.Info("LLM_CLIENT: Invoked", "model", c.model, "prompt_len", len(prompt))

	reqBytes, err := json.Marshal(inference.Request{Prompt: prompt, Params: c.params})
	if err != nil {
		return inference.Failed(&inference.TransportError{Err: err})
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewBuffer(reqBytes))
	if err != nil {
		return inference.Failed(&inference.TransportError{Err: err})
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		slog.Warn("LLM_CLIENT: Request failed", "error", err)
		return inference.Failed(&inference.TransportError{Err: err})
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return inference.Failed(&inference.TransportError{Err: err})
	}

	if resp.StatusCode != http.StatusOK {
		slog.Warn("LLM_CLIENT: Non-200 response", "status", resp.StatusCode, "body", string(body))
		return inference.Failed(&inference.StatusError{StatusCode: resp.StatusCode, Body: string(body)})
	}

	text, err := parseGeneration(body)
	if err != nil {
		slog.Warn("LLM_CLIENT: Decode failed", "error", err, "body", string(body))
		return inference.Failed(err)
	}

	out := inference.StripEcho(text, prompt)
	slog.Info("LLM_CLIENT: Generation received", "text_len", len(out))
	return inference.OK(out)
}

// parseGeneration extracts generated_text from the first element of a list response.
func parseGeneration(body []byte) (string, error) {
	var decoded any
	if err := json.Unmarshal(body, &decoded); err != nil {
		return "", &inference.TransportError{Err: err}
	}

	list, ok := decoded.([]any)
	if !ok || len(list) == 0 {
		return "", inference.ErrUnexpectedFormat
	}

	first, ok := list[0].(map[string]any)
	if !ok {
		return "", inference.ErrUnexpectedFormat
	}

	text, _ := first["generated_text"].(string)
	return text, nil
}
