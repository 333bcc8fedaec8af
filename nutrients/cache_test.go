package nutrients

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingLookup struct {
	calls    map[string]int
	profiles map[string]Profile
}

func (c *countingLookup) Lookup(ctx context.Context, crop string) (Profile, bool) {
	c.calls[crop]++
	p, ok := c.profiles[crop]
	return p, ok
}

func TestCached(t *testing.T) {
	next := &countingLookup{
		calls:    map[string]int{},
		profiles: map[string]Profile{"Lentils": {Food: "Lentils, raw", Nutrients: map[string]float64{"Protein": 24.6}}},
	}
	c, err := NewCached(next, 2)
	require.NoError(t, err)

	t.Run("hits are cached case-insensitively", func(t *testing.T) {
		p, ok := c.Lookup(context.Background(), "Lentils")
		require.True(t, ok)
		assert.Equal(t, "Lentils, raw", p.Food)

		_, ok = c.Lookup(context.Background(), " lentils ")
		assert.True(t, ok)
		assert.Equal(t, 1, next.calls["Lentils"])
		assert.Equal(t, 0, next.calls[" lentils "])
	})

	t.Run("misses are not cached", func(t *testing.T) {
		_, ok := c.Lookup(context.Background(), "Unobtainium")
		assert.False(t, ok)
		_, ok = c.Lookup(context.Background(), "Unobtainium")
		assert.False(t, ok)
		assert.Equal(t, 2, next.calls["Unobtainium"])
		assert.Equal(t, 1, c.Len())
	})
}

func TestNewCached_InvalidSize(t *testing.T) {
	_, err := NewCached(&countingLookup{}, 0)
	assert.Error(t, err)
}
