package bedrock

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"

	"nutrisyn/inference"
)

const (
	// defaultModelID is an inference profile ID, not the foundation model's ID.
	// See https://docs.aws.amazon.com/bedrock/latest/userguide/inference-profiles.html.
	defaultModelID = "us.anthropic.claude-3-7-sonnet-20250219-v1:0"
)

type bedrockRuntimeClient interface {
	Converse(context.Context, *bedrockruntime.ConverseInput, ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error)
}

type Client struct {
	brc     bedrockRuntimeClient
	modelID string
	params  inference.Params
}

func NewClient(brc bedrockRuntimeClient, modelID string) *Client {
	if modelID == "" {
		modelID = defaultModelID
	}
	return &Client{
		brc:     brc,
		modelID: modelID,
		params:  inference.DefaultParams(),
	}
}

func (c *Client) Model() string { return c.modelID }

// Generate sends the prompt as a single user turn through the Converse API.
// Failures are returned inside the Result.
func (c *Client) Generate(ctx context.Context, prompt string) inference.Result {
	slog.Info("LLM_CLIENT: Invoked", "model", c.modelID, "prompt_len", len(prompt))

	in := &bedrockruntime.ConverseInput{
		ModelId: aws.String(c.modelID),
		Messages: []types.Message{
			{
				Role:    types.ConversationRoleUser,
				Content: []types.ContentBlock{&types.ContentBlockMemberText{Value: prompt}},
			},
		},
		InferenceConfig: &types.InferenceConfiguration{
			MaxTokens:     aws.Int32(int32(c.params.MaxNewTokens)),
			Temperature:   aws.Float32(float32(c.params.Temperature)),
			StopSequences: c.params.Stop,
		},
	}

	out, err := c.brc.Converse(ctx, in)
	if err != nil {
		slog.Error("LLM_CLIENT: Bedrock invoke failed", "error", err)
		return inference.Failed(&inference.TransportError{Err: err})
	}

	if out.Usage != nil {
		slog.Info("LLM_CLIENT: Bedrock invoke succeeded",
			"stop_reason", out.StopReason,
			"input_tokens", aws.ToInt32(out.Usage.InputTokens),
			"output_tokens", aws.ToInt32(out.Usage.OutputTokens),
		)
	}

	switch out.StopReason {
	case types.StopReasonGuardrailIntervened, types.StopReasonContentFiltered:
		slog.Warn("LLM_CLIENT: Model response blocked by Bedrock safety filters")
		return inference.Failed(fmt.Errorf("model response blocked by Bedrock safety filters"))
	}

	text, ok := textFromOutput(out)
	if !ok {
		return inference.Failed(inference.ErrUnexpectedFormat)
	}

	return inference.OK(inference.StripEcho(text, prompt))
}

// textFromOutput joins the assistant's text blocks with newlines.
func textFromOutput(out *bedrockruntime.ConverseOutput) (string, bool) {
	if out == nil || out.Output == nil {
		return "", false
	}

	msg, ok := out.Output.(*types.ConverseOutputMemberMessage)
	if !ok || msg == nil {
		return "", false
	}

	texts := make([]string, 0, len(msg.Value.Content))
	for _, cb := range msg.Value.Content {
		if t, ok := cb.(*types.ContentBlockMemberText); ok && t != nil && t.Value != "" {
			texts = append(texts, t.Value)
		}
	}

	return strings.Join(texts, "\n"), true
}
