package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vidyasagar/tabroll/internal/storage"
	"pkt.systems/pslog"
)

func TestFlagsOverrideOnlyWhatChanged(t *testing.T) {
	cfg := storage.DefaultConfig()
	flags := runFlags{
		theme:        "nord",
		debug:        true,
		noTitles:     true,
		suppressMode: "token",
		changed: func(name string) bool {
			return name == "theme" || name == "no-titles"
		},
	}
	flags.apply(&cfg)

	require.Equal(t, "nord", cfg.Theme)
	require.False(t, cfg.Titles.Fetch)
	require.Equal(t, storage.DefaultConfig().Log.Level, cfg.Log.Level)
	require.Equal(t, storage.DefaultConfig().Suppress.Mode, cfg.Suppress.Mode)
	require.True(t, cfg.Session.Restore)
}

func TestFlagsWithoutChangedFunc(t *testing.T) {
	cfg := storage.DefaultConfig()
	runFlags{theme: "nord"}.apply(&cfg)
	require.Equal(t, storage.DefaultConfig().Theme, cfg.Theme)
}

func TestLogOptionsLevels(t *testing.T) {
	require.Equal(t, pslog.DebugLevel, logOptions("DEBUG").MinLevel)
	require.Equal(t, pslog.TraceLevel, logOptions("trace").MinLevel)
	require.Equal(t, pslog.ErrorLevel, logOptions("error").MinLevel)
	require.Equal(t, pslog.InfoLevel, logOptions("").MinLevel)
	require.True(t, logOptions("info").NoColor)
}

func TestVersionCommand(t *testing.T) {
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"version"})
	require.NoError(t, cmd.Execute())
	require.Equal(t, "tabroll "+version+"\n", out.String())
}
