package ollama

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

type options struct {
	Temperature   float64  `json:"temperature,omitempty"`
	RepeatPenalty float64  `json:"repeat_penalty,omitempty"`
	NumPredict    int      `json:"num_predict,omitempty"`
	Stop          []string `json:"stop,omitempty"`
}

// optionsFrom maps the shared generation parameters onto Ollama's option names.
func optionsFrom(p inference.Params) options {
	return options{
		Temperature:   p.Temperature,
		RepeatPenalty: p.RepetitionPenalty,
		NumPredict:    p.MaxNewTokens,
		Stop:          p.Stop,
	}
}

type Client struct {
	endpoint   string
	model      string
	httpClient nutrisyn.HTTPClient
	options    options
}

type ClientOpts struct {
	BaseEndpoint string
	ModelID      string
	HTTPClient   nutrisyn.HTTPClient
}

func NewClient(opts ClientOpts) (*Client, error) {
	if opts.BaseEndpoint == "" {
		return nil, fmt.Errorf("missing Ollama endpoint")
	}
	if opts.ModelID == "" {
		return nil, fmt.Errorf("missing model id")
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}

	return &Client{
		model:      opts.ModelID,
		httpClient: opts.HTTPClient,
		endpoint:   strings.TrimRight(opts.BaseEndpoint, "/") + "/api/chat",
		options:    optionsFrom(inference.DefaultParams()),
	}, nil
}

type wireMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type wireRequest struct {
	Model    string        `json:"model"`
	Messages []wireMessage `json:"messages"`
	Stream   bool          `json:"stream"`
	Options  options       `json:"options,omitempty"`
}

type wireResponse struct {
	Message *wireMessage `json:"message"`
}

func (c *Client) Model() string { return c.model }

// Generate sends the prompt as a single user message to the chat endpoint.
// Every failure is returned inside the Result.
func (c *Client) Generate(ctx context.Context, prompt string) inference.Result {
	slog.Info("LLM_CLIENT: Invoked", "model", c.model, "prompt_len", len(prompt))

	reqBytes, err := json.Marshal(wireRequest{
		Model:    c.model,
		Messages: []wireMessage{{Role: "user", Content: prompt}},
		Stream:   false,
		Options:  c.options,
	})
	if err != nil {
		return inference.Failed(&inference.TransportError{Err: err})
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewBuffer(reqBytes))
	if err != nil {
		return inference.Failed(&inference.TransportError{Err: err})
	}
	req.Header.Set("Content-Type", "application/json")

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

	var wr wireResponse
	if err := json.Unmarshal(body, &wr); err != nil {
		slog.Warn("LLM_CLIENT: Decode failed", "error", err, "body", string(body))
		return inference.Failed(&inference.TransportError{Err: err})
	}
	if wr.Message == nil {
		return inference.Failed(inference.ErrUnexpectedFormat)
	}

	return inference.OK(inference.StripEcho(wr.Message.Content, prompt))
}
