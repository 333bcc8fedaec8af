// Package inference defines the text-generation contract shared by every
// model provider: a fixed generation parameter set and a result type that
// always renders to displayable text.
package inference

import (
	"errors"
	"fmt"
	"strings"
)

// NoResponse is shown when the model returns an empty continuation.
const NoResponse = "No response generated."

// UnexpectedFormat is shown when a 200 response does not have the expected shape.
const UnexpectedFormat = "Unexpected response format."

// ErrUnexpectedFormat is the error descriptor for a 200 response without the expected shape.
var ErrUnexpectedFormat = errors.New(UnexpectedFormat)

// Params are the generation parameters sent with every request.
type Params struct {
	MaxNewTokens      int      `json:"max_new_tokens"`
	Temperature       float64  `json:"temperature"`
	DoSample          bool     `json:"do_sample"`
	ReturnFullText    bool     `json:"return_full_text"`
	Stop              []string `json:"stop"`
	RepetitionPenalty float64  `json:"repetition_penalty"`
}

// DefaultParams is the single parameter set used by all providers.
func DefaultParams() Params {
	return Params{
		MaxNewTokens:      500,
		Temperature:       0.7,
		DoSample:          true,
		ReturnFullText:    false,
		Stop:              []string{"<|user|>", "<|system|>"},
		RepetitionPenalty: 1.1,
	}
}

// Request is one generation call. It is built fresh for every submit.
type Request struct {
	Prompt string `json:"inputs"`
	Params Params `json:"parameters"`
}

func NewRequest(prompt string) Request {
	return Request{Prompt: prompt, Params: DefaultParams()}
}

// Result is either generated text or an error descriptor.
type Result struct {
	Text string
	Err  error
}

func OK(text string) Result { return Result{Text: text} }

func Failed(err error) Result { return Result{Err: err} }

func (r Result) IsErr() bool { return r.Err != nil }

// Display returns the text shown to the user for either outcome.
func (r Result) Display() string {
	if r.Err != nil {
		return r.Err.Error()
	}
	return r.Text
}

// StatusError is returned for a non-200 response.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("Error: %d - %s", e.StatusCode, e.Body)
}

// TransportError wraps connection, timeout and decoding failures.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("Error querying API: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// StripEcho removes the first occurrence of prompt from generated text, trims
// it, and substitutes NoResponse when nothing is left.
func StripEcho(generated, prompt string) string {
	if prompt != "" && strings.Contains(generated, prompt) {
		generated = strings.Replace(generated, prompt, "", 1)
	}
	generated = strings.TrimSpace(generated)
	if generated == "" {
		return NoResponse
	}
	return generated
}
