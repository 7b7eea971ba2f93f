package cache

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTemp(t *testing.T) *Cache {
	t.Helper()
	c, err := Open(context.Background(), filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestLoadSessionEmpty(t *testing.T) {
	c := openTemp(t)
	s, err := c.LoadSession(context.Background())
	require.NoError(t, err)
	assert.Nil(t, s)
}

func TestSaveAndLoadSession(t *testing.T) {
	ctx := context.Background()
	c := openTemp(t)

	require.NoError(t, c.SaveSession(ctx, "alice", true))
	s, err := c.LoadSession(ctx)
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.Equal(t, "alice", s.Username)
	assert.True(t, s.Remember)
	assert.WithinDuration(t, time.Now(), s.IssuedAt, time.Minute)
}

func TestSessionScopedEntrySurvivesWithinProcess(t *testing.T) {
	ctx := context.Background()
	c := openTemp(t)

	// remember=false is honored only by the process that wrote it,
	// and this is that process
	require.NoError(t, c.SaveSession(ctx, "alice", false))
	s, err := c.LoadSession(ctx)
	require.NoError(t, err)
	require.NotNil(t, s)
}

func TestSessionScopedEntryDroppedAfterRestart(t *testing.T) {
	ctx := context.Background()
	c := openTemp(t)

	// simulate an entry written by a previous run
	buf, err := json.Marshal(Session{
		Username: "alice",
		IssuedAt: time.Now(),
		Remember: false,
		BootID:   "some-other-boot",
	})
	require.NoError(t, err)
	require.NoError(t, c.set(ctx, keySession, buf))

	s, err := c.LoadSession(ctx)
	require.NoError(t, err)
	assert.Nil(t, s)

	// and the lapsed entry is gone for good
	raw, err := c.get(ctx, keySession)
	require.NoError(t, err)
	assert.Nil(t, raw)
}

func TestRememberedEntryExpiresAfterSevenDays(t *testing.T) {
	ctx := context.Background()
	c := openTemp(t)

	buf, err := json.Marshal(Session{
		Username: "alice",
		IssuedAt: time.Now().Add(-RememberTTL - time.Hour),
		Remember: true,
		BootID:   "some-other-boot",
	})
	require.NoError(t, err)
	require.NoError(t, c.set(ctx, keySession, buf))

	s, err := c.LoadSession(ctx)
	require.NoError(t, err)
	assert.Nil(t, s)
}

func TestRememberedEntrySurvivesRestart(t *testing.T) {
	ctx := context.Background()
	c := openTemp(t)

	buf, err := json.Marshal(Session{
		Username: "alice",
		IssuedAt: time.Now().Add(-24 * time.Hour),
		Remember: true,
		BootID:   "some-other-boot",
	})
	require.NoError(t, err)
	require.NoError(t, c.set(ctx, keySession, buf))

	s, err := c.LoadSession(ctx)
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.Equal(t, "alice", s.Username)
}

func TestClearSessionKeepsTheme(t *testing.T) {
	ctx := context.Background()
	c := openTemp(t)

	require.NoError(t, c.SaveSession(ctx, "alice", true))
	require.NoError(t, c.SetTheme(ctx, "dark"))
	require.NoError(t, c.ClearSession(ctx))

	s, err := c.LoadSession(ctx)
	require.NoError(t, err)
	assert.Nil(t, s)

	theme, err := c.Theme(ctx)
	require.NoError(t, err)
	assert.Equal(t, "dark", theme)
}

func TestThemeDefaultsEmpty(t *testing.T) {
	c := openTemp(t)
	theme, err := c.Theme(context.Background())
	require.NoError(t, err)
	assert.Empty(t, theme)
}

func TestCorruptSessionEntryIsDiscarded(t *testing.T) {
	ctx := context.Background()
	c := openTemp(t)

	require.NoError(t, c.set(ctx, keySession, []byte("not json")))
	s, err := c.LoadSession(ctx)
	require.NoError(t, err)
	assert.Nil(t, s)
}
