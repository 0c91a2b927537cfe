package dedup_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/goharvest/internal/dedup"
)

func TestCache_NilIsDisabled(t *testing.T) {
	t.Parallel()

	var cache *dedup.Cache
	ctx := context.Background()

	seen, err := cache.Seen(ctx, "abc")
	require.NoError(t, err)
	assert.False(t, seen)

	assert.NoError(t, cache.Mark(ctx, "abc"))
}
