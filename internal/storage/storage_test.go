package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/vidyasagar/tabroll/internal/host"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	require.Equal(t, DefaultConfig(), cfg)
	require.Equal(t, 2*time.Second, cfg.SuppressDelay())
	require.Equal(t, time.Second, cfg.ReconcileInterval())
}

func TestLoadConfigOverrides(t *testing.T) {
	path := writeConfig(t, `
theme: nord
history:
  max_stack_length: 5
suppress:
  mode: token
  delay_ms: 750
titles:
  fetch: false
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.Equal(t, "nord", cfg.Theme)
	require.Equal(t, 5, cfg.History.MaxStackLength)
	require.Equal(t, "token", cfg.Suppress.Mode)
	require.Equal(t, 750*time.Millisecond, cfg.SuppressDelay())
	require.False(t, cfg.Titles.Fetch)
	// Untouched keys keep their defaults.
	require.Equal(t, 1000, cfg.Reconcile.IntervalMS)
	require.Equal(t, 128, cfg.Titles.CacheSize)
}

func TestLoadConfigRejectsBadValues(t *testing.T) {
	path := writeConfig(t, `
suppress:
  mode: sometimes
`)
	_, err := LoadConfig(path)
	require.ErrorContains(t, err, "suppress.mode")

	path = writeConfig(t, `
history:
  max_stack_length: 0
`)
	_, err = LoadConfig(path)
	require.ErrorContains(t, err, "max_stack_length")
}

func TestWriteDefaultConfigRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	written, err := WriteDefaultConfig(path, false)
	require.NoError(t, err)
	require.Equal(t, path, written)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.Equal(t, DefaultConfig(), cfg)

	_, err = WriteDefaultConfig(path, false)
	require.ErrorContains(t, err, "already exists")
	_, err = WriteDefaultConfig(path, true)
	require.NoError(t, err)
}

func TestSessionRoundTrip(t *testing.T) {
	db, err := OpenDB(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	store := NewSessionStore(db)
	ctx := context.Background()

	empty, err := store.Load(ctx)
	require.NoError(t, err)
	require.Empty(t, empty)

	windows := []host.Window{
		{ID: 2, Type: host.WindowNormal, Focused: true, Tabs: []host.Tab{
			{ID: 5, Title: "Go", URL: "https://go.dev"},
			{ID: 3, Title: "News", URL: "https://news.ycombinator.com", Active: true},
		}},
		{ID: 1, Type: host.WindowPopup, Tabs: []host.Tab{
			{ID: 9, Title: "Login", Active: true},
		}},
	}
	require.NoError(t, store.Save(ctx, windows))

	got, err := store.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, windows, got)

	// Saving again replaces rather than appends.
	require.NoError(t, store.Save(ctx, windows[:1]))
	got, err = store.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, windows[:1], got)
}
