package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"pkt.systems/psi"
	"pkt.systems/pslog"
)

var version = "0.1.0"

func main() {
	psi.Run(submain)
}

func submain(ctx context.Context) int {
	// Until the UI takes over the terminal, log to stderr.
	logger := pslog.LoggerFromEnv(
		pslog.WithEnvWriter(os.Stderr),
		pslog.WithEnvOptions(pslog.Options{Mode: pslog.ModeConsole}),
	)
	ctx = pslog.ContextWithLogger(ctx, logger)

	root := newRootCmd()
	if err := root.ExecuteContext(ctx); err != nil {
		pslog.Ctx(ctx).With("err", err).Error("tabroll failed")
		return 1
	}
	return 0
}

func newRootCmd() *cobra.Command {
	var flags runFlags
	root := &cobra.Command{
		Use:   "tabroll [url...]",
		Short: "Roll back and forward through recently used tabs",
		Long: "tabroll is a terminal tab workspace that remembers, per window, the order " +
			"tabs were activated in and lets you step back and forward through it.",
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			flags.changed = cmd.Flags().Changed
			return runUI(cmd.Context(), flags, args)
		},
	}

	f := root.Flags()
	f.StringVarP(&flags.configPath, "config", "c", "", "config file (default: standard config dir)")
	f.StringVar(&flags.theme, "theme", "", "color theme")
	f.BoolVar(&flags.debug, "debug", false, "log at debug level")
	f.BoolVar(&flags.noRestore, "no-restore", false, "start with a fresh workspace")
	f.BoolVar(&flags.noTitles, "no-titles", false, "do not fetch page titles")
	f.StringVar(&flags.suppressMode, "suppress-mode", "", "how rolled-to activations are ignored: debounce or token")

	root.AddCommand(newInitConfigCmd())
	root.AddCommand(newVersionCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "tabroll %s\n", version)
			return err
		},
	}
}
