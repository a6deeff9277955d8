package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCredentialStore_Lifecycle(t *testing.T) {
	s := NewCredentialStore(NewSQLiteRepository(setupDB(t)))
	ctx := context.Background()

	raw, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, raw)

	replaced, err := s.Save(ctx, "tok-1")
	require.NoError(t, err)
	assert.False(t, replaced)

	replaced, err = s.Save(ctx, "tok-2")
	require.NoError(t, err)
	assert.True(t, replaced)

	raw, err = s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "tok-2", raw)

	require.NoError(t, s.Clear(ctx))
	require.NoError(t, s.Clear(ctx))

	raw, err = s.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, raw)
}
