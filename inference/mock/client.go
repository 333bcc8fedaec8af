package mock

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"nutrisyn/inference"
)

var fallbackCrops = []string{"Lentils", "Sweet Potato", "Spinach"}

type Client struct{}

func NewClient() *Client {
	return &Client{}
}

func (c *Client) Model() string { return "mock" }

// Generate is a deterministic stand-in for a hosted model. It echoes the
// prompt the way text-generation endpoints do, recommends the crops listed
// in the prompt (or a fixed fallback), and never fails.
func (c *Client) Generate(ctx context.Context, prompt string) inference.Result {
	slog.Info("LLM_CLIENT: Invoked", "model", "mock", "prompt_len", len(prompt))

	crops := cropsFromPrompt(prompt)
	for _, f := range fallbackCrops {
		if len(crops) == 3 {
			break
		}
		if !contains(crops, f) {
			crops = append(crops, f)
		}
	}

	var b strings.Builder
	b.WriteString(prompt)
	b.WriteString("\n")
	for i, crop := range crops {
		fmt.Fprintf(&b, "%d. %s: A locally grown source of nutrients suited to this condition.\n", i+1, crop)
	}

	return inference.OK(inference.StripEcho(b.String(), prompt))
}

// cropsFromPrompt collects crop names from "- Name (...)" or "- Name: ..." lines.
func cropsFromPrompt(prompt string) []string {
	var crops []string
	for _, line := range strings.Split(prompt, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "- ") {
			continue
		}
		name := strings.TrimPrefix(line, "- ")
		if i := strings.IndexAny(name, "(:"); i >= 0 {
			name = name[:i]
		}
		name = strings.TrimSpace(name)
		if name != "" && !contains(crops, name) && len(crops) < 3 {
			crops = append(crops, name)
		}
	}
	return crops
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
