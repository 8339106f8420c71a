//go:build integration

package integration

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meigma/srcpack/registry"
)

func TestError_NotFound(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	addr := getRegistry(t)
	client := newTestClient(t)

	_, err := client.Pull(ctx, testRef(addr, "nonexistent-12345", "latest"))
	require.Error(t, err)
	assert.ErrorIs(t, err, registry.ErrNotFound)
}

func TestError_InvalidReference(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	client := newTestClient(t)

	for _, ref := range []string{"not a ref", "://missing-host", ""} {
		t.Run(ref, func(t *testing.T) {
			t.Parallel()
			_, err := client.Fetch(ctx, ref)
			assert.Error(t, err)
		})
	}
}

func TestError_LayerTooLarge(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	addr := getRegistry(t)
	client := newTestClient(t)
	ref := testRef(addr, "toolarge", "v1")

	_, err := client.Push(ctx, ref, packWorkspace(t))
	require.NoError(t, err)

	_, err = client.Pull(ctx, ref, registry.WithMaxLayerSize(16))
	assert.ErrorIs(t, err, registry.ErrTooLarge)
}
