package embeddings

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalProviderEmbed(t *testing.T) {
	provider := NewLocalProvider(384)

	vectors, err := provider.Embed(context.Background(), []string{
		"foreign investment regulations in Saudi Arabia",
		"foreign investment regulations in Saudi Arabia",
		"tourism sector growth",
	})
	require.NoError(t, err)
	require.Len(t, vectors, 3)

	t.Run("deterministic", func(t *testing.T) {
		assert.Equal(t, vectors[0], vectors[1])
	})

	t.Run("distinct texts embed differently", func(t *testing.T) {
		assert.NotEqual(t, vectors[0], vectors[2])
	})

	t.Run("unit norm", func(t *testing.T) {
		var norm float64
		for _, v := range vectors[0] {
			norm += float64(v) * float64(v)
		}
		assert.InDelta(t, 1.0, norm, 1e-5)
	})

	t.Run("dimensions", func(t *testing.T) {
		assert.Len(t, vectors[0], 384)
		assert.Equal(t, 384, provider.Dimensions())
	})
}

func TestLocalProviderDefaults(t *testing.T) {
	provider := NewLocalProvider(0)
	assert.Equal(t, 384, provider.Dimensions())
	assert.Equal(t, "local:hashed-bow", provider.Name())
}

func TestLocalProviderCaseAndPunctuation(t *testing.T) {
	provider := NewLocalProvider(128)

	vectors, err := provider.Embed(context.Background(), []string{
		"Labor Law, Compliance!",
		"labor law compliance",
	})
	require.NoError(t, err)
	assert.Equal(t, vectors[0], vectors[1])
}
