package mock

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Generate(t *testing.T) {
	tests := []struct {
		name   string
		prompt string
		want   []string
	}{
		{
			name:   "uses crops listed in prompt",
			prompt: "Intro\n- Lentils (Fiber): Slows glucose.\n- Millet: Steady energy.\nRecommendations:",
			want:   []string{"1. Lentils:", "2. Millet:", "3. Sweet Potato:"},
		},
		{
			name:   "falls back without listed crops",
			prompt: "Recommendations:",
			want:   []string{"1. Lentils:", "2. Sweet Potato:", "3. Spinach:"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := NewClient().Generate(context.Background(), tt.prompt)
			require.False(t, result.IsErr())
			assert.False(t, strings.Contains(result.Text, tt.prompt), "prompt echo should be stripped")

			lines := strings.Split(result.Text, "\n")
			require.Len(t, lines, 3)
			for i, prefix := range tt.want {
				assert.True(t, strings.HasPrefix(lines[i], prefix), "line %d = %q", i, lines[i])
			}
		})
	}
}

func TestClient_Deterministic(t *testing.T) {
	c := NewClient()
	a := c.Generate(context.Background(), "- Okra: fiber")
	b := c.Generate(context.Background(), "- Okra: fiber")
	assert.Equal(t, a, b)
	assert.Equal(t, "mock", c.Model())
}
