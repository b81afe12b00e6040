// FILE: lixenwraith/tvconfig/cmd/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/lixenwraith/tvconfig"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	settingsPath string
	libraryDir   string
	jsonLogs     bool
	debugLogs    bool
	bypassChecks bool

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "tvconfig",
	Short: "Validate and edit media server settings",
	Long: `Validate and edit the media server settings file.

The settings file is located in this order:
  1. --config
  2. TVCONFIG_PATH
  3. config.yaml next to the directory holding this binary
  4. config.yaml in the current directory

EXAMPLES:
  # Run every check the server runs at startup
  tvconfig check

  # Print the listen port without validating anything
  tvconfig port

  # Change a value while keeping comments and layout
  tvconfig set general.debug true`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		logger, err = newLogger(jsonLogs, debugLogs)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Load the settings file and run all validation",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		settings := tvconfig.MustLoad(cmd.Context(), newLoader(), bypassChecks)

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "backend:  %s\n", settings.General.Backend)
		fmt.Fprintf(out, "encoder:  %s\n", settings.General.Encoder)
		fmt.Fprintf(out, "port:     %d\n", settings.Server.Port)
		fmt.Fprintf(out, "settings: OK\n")
		return nil
	},
}

var portCmd = &cobra.Command{
	Use:   "port",
	Short: "Print the listen port without validation",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), newLoader().FastReadPortOnly())
	},
}

var setCmd = &cobra.Command{
	Use:   "set <section>.<field> <value>",
	Short: "Change one setting in place",
	Long: `Change one setting in the settings file, keeping comments and formatting.

Values are parsed as null, true, false, integers and floats before falling back
to strings. Quote a value to force a string.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		loader := newLoader()
		settings := tvconfig.MustLoad(cmd.Context(), loader, true)

		updated, err := settings.Set(args[0], tvconfig.ParseValue(args[1]))
		if err != nil {
			return err
		}
		if err := loader.Save(updated); err != nil {
			return err
		}

		logger.Info("Setting saved", zap.String("field", args[0]), zap.String("path", loader.Path()))
		fmt.Fprintln(cmd.OutOrStdout(), "Saved. Restart the server to apply the change.")
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&settingsPath, "config", "", "Path to the settings file")
	rootCmd.PersistentFlags().StringVar(&libraryDir, "library-dir", "thirdparty", "Directory holding the bundled encoders")
	rootCmd.PersistentFlags().BoolVar(&jsonLogs, "json", false, "Emit JSON logs")
	rootCmd.PersistentFlags().BoolVar(&debugLogs, "debug", false, "Enable debug logging")

	checkCmd.Flags().BoolVar(&bypassChecks, "bypass", false, "Skip constraints and live probes")

	rootCmd.AddCommand(checkCmd, portCmd, setCmd)
}

func newLogger(json, debug bool) (*zap.Logger, error) {
	cfg := zap.NewDevelopmentConfig()
	if json {
		cfg = zap.NewProductionConfig()
	}
	if debug {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	} else {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	}
	return cfg.Build()
}

func newLoader() *tvconfig.Loader {
	loader := tvconfig.NewLoader().
		WithLogger(logger).
		WithLibraryDir(libraryDir)
	if settingsPath != "" {
		return loader.WithPath(settingsPath)
	}
	return loader.WithFileDiscovery(tvconfig.DefaultDiscoveryOptions())
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
