package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/subosito/gotenv"

	"github.com/chengyuehsha/langchain-cache-gcs/pkg/config"
	"github.com/chengyuehsha/langchain-cache-gcs/pkg/logging"
	"github.com/chengyuehsha/langchain-cache-gcs/pkg/telemetry"
)

var version = "dev"

const defaultConfigPath = "llmcache.yaml"

// app carries the state shared by every command of one process.
type app struct {
	configPath string
	cfg        *config.Config
	log        zerolog.Logger
	metrics    *telemetry.Metrics
}

func main() {
	// Values already in the environment win over .env.
	_ = gotenv.Load()

	root := newRootCmd(&app{log: zerolog.Nop()})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := root.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:          "llmcache",
		Short:        "Object-store-backed cache for LLM responses",
		Version:      version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd.Flags().Changed("config"))
		},
	}
	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", defaultConfigPath, "path to config file (.yaml or .toml)")

	root.AddCommand(
		newKeyCmd(a),
		newGetCmd(a),
		newPutCmd(a),
		newClearCmd(a),
		newStatsCmd(a),
		newInvokeCmd(a),
		newMCPCmd(a),
	)
	return root
}

// init loads the configuration and builds the logger. Logs go to stderr so
// stdout stays clean for command output and the MCP stream.
func (a *app) init(explicit bool) error {
	cfg, err := loadConfig(a.configPath, explicit)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	a.cfg = cfg

	log, err := logging.New(os.Stderr, cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}
	a.log = log
	return nil
}

// loadConfig reads path. A missing file is only an error when the path was
// given explicitly; otherwise the defaults apply.
func loadConfig(path string, explicit bool) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err == nil {
		return cfg, nil
	}
	if !explicit && errors.Is(err, fs.ErrNotExist) {
		return config.Default(), nil
	}
	return nil, err
}
