// Package slack shares recommendations to a Slack incoming webhook.
package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"nutrisyn"
	"nutrisyn/recommend"
)

type Client struct {
	webhookURL string
	httpClient nutrisyn.HTTPClient
}

func NewClient(webhookURL string, httpClient nutrisyn.HTTPClient) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		webhookURL: webhookURL,
		httpClient: httpClient,
	}
}

func (c *Client) PostMessage(ctx context.Context, channel string, message string) error {
	if c.webhookURL == "" {
		return fmt.Errorf("slack webhook URL is not configured")
	}

	payload, err := json.Marshal(map[string]any{
		"channel": channel,
		"text":    message,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.webhookURL, bytes.NewReader(payload))
	if err != nil {
		return err
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to post message: %s", resp.Status)
	}

	slog.Info("SLACK: Message posted", "channel", channel, "bytes", len(message))
	return nil
}

// FormatRecommendation renders rec as Slack mrkdwn.
func FormatRecommendation(rec recommend.Recommendation) string {
	var b strings.Builder

	fmt.Fprintf(&b, "*NutriSyn recommendation* for *%s* in *%s* (%s)\n\n", rec.Query.Condition, rec.Query.Region, rec.Query.AgeGroup)

	b.WriteString("*Static recommendations from dataset*\n")
	if !rec.HasMatches() {
		b.WriteString(recommend.NoMatchMessage + "\n")
	}
	for _, crop := range rec.Crops {
		fmt.Fprintf(&b, "• %s\n", crop)
	}

	if len(rec.Enrichment) > 0 {
		b.WriteString("\n*Nutrient data (USDA)*\n")
		for _, e := range rec.Enrichment {
			if !e.Found || len(e.Highlights) == 0 {
				fmt.Fprintf(&b, "• %s: no data\n", e.Crop)
				continue
			}
			parts := make([]string, 0, len(e.Highlights))
			for _, n := range e.Highlights {
				parts = append(parts, strings.TrimSpace(n.Name+" "+strconv.FormatFloat(n.Value, 'g', 4, 64)+" "+strings.ToLower(n.Unit)))
			}
			fmt.Fprintf(&b, "• %s: %s\n", e.Crop, strings.Join(parts, ", "))
		}
	}

	b.WriteString("\n*AI agent recommendation*\n")
	b.WriteString(rec.Text())
	b.WriteString("\n\n_" + recommend.Disclaimer + "_")

	return b.String()
}
