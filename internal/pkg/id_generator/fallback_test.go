package id

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerator_FallbackID(t *testing.T) {
	t.Parallel()

	g, err := NewGenerator(7)
	require.NoError(t, err)

	seen := make(map[string]struct{}, 100)
	for i := 0; i < 100; i++ {
		id, err := g.FallbackID("airalo")
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(id, "airalo-"))
		seen[id] = struct{}{}
	}
	assert.Len(t, seen, 100)
}
