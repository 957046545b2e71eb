package pgstore

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testStore connects to the database named by MAU_TEST_POSTGRES_DSN,
// skipping the test when unset. Migrations run on connect.
func testStore(t *testing.T) *Store {
	t.Helper()
	dsn := os.Getenv("MAU_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("MAU_TEST_POSTGRES_DSN not set")
	}
	s, err := Connect(Config{DSN: dsn})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestPostgresPutGetDel(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	key := "mau:test:" + t.Name()
	t.Cleanup(func() { _, _ = s.Del(ctx, key) })

	_, found, err := s.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, s.Put(ctx, key, []byte("value"), 0))
	value, found, err := s.Get(ctx, key)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, []byte("value"), value)

	// Upsert replaces the value in place.
	require.NoError(t, s.Put(ctx, key, []byte("replaced"), 0))
	value, found, err = s.Get(ctx, key)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, []byte("replaced"), value)

	removed, err := s.Del(ctx, key)
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = s.Del(ctx, key)
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestPostgresExpiry(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	key := "mau:test:" + t.Name()
	t.Cleanup(func() { _, _ = s.Del(ctx, key) })

	require.NoError(t, s.Put(ctx, key, []byte("value"), 100*time.Millisecond))
	time.Sleep(200 * time.Millisecond)

	_, found, err := s.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, found, "row visible past its expiry")

	removed, err := s.Del(ctx, key)
	require.NoError(t, err)
	assert.False(t, removed, "expired row counted as live on delete")
}
