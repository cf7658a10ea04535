// Package cmd implements the qrscan command tree.
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/ericlevine/qrcodec/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// app is the state shared by every command of one invocation.
type app struct {
	loader  *config.Loader
	cfg     *config.Config
	cfgFile string
	logger  *slog.Logger
}

// NewRootCommand builds a fresh command tree with its own configuration.
func NewRootCommand() *cobra.Command {
	a := &app{loader: config.NewLoader()}

	root := &cobra.Command{
		Use:   "qrscan",
		Short: "Read and write QR Code symbols",
		Long: `qrscan decodes QR Code symbols found in images and encodes text into
QR Code images.

Settings are read from qrscan.yaml (searched in ., $XDG_CONFIG_HOME/qrscan
or $HOME/.config/qrscan, and /etc/qrscan), QRSCAN_* environment variables
and flags, in increasing order of precedence.

Examples:
  qrscan decode photo.jpg
  qrscan decode --format json --workers 8 scans/*.png
  qrscan encode --level H --output hello.png "Hello world!"`,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.cfgFile, "config", "", "config file (default is qrscan.yaml in the search path)")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
	flags.String("log-format", "text", "log format (text, json)")
	bindFlags(a.loader.Viper(), flags, map[string]string{
		"log.level":  "log-level",
		"log.format": "log-format",
	})

	root.AddCommand(newDecodeCommand(a), newEncodeCommand(a))
	return root
}

// Execute runs the command tree and exits non-zero on failure.
// An interrupt cancels files that have not started decoding.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := NewRootCommand().ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

// setup loads the configuration and installs the logger. Flags bound to
// viper keys take effect here because they are parsed by now.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := a.loader.Load(a.cfgFile)
	if err != nil {
		return err
	}
	a.cfg = cfg

	handlerOpts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	var handler slog.Handler
	if cfg.Log.Format == "json" {
		handler = slog.NewJSONHandler(cmd.ErrOrStderr(), handlerOpts)
	} else {
		handler = slog.NewTextHandler(cmd.ErrOrStderr(), handlerOpts)
	}
	a.logger = slog.New(handler)
	slog.SetDefault(a.logger)

	if used := a.loader.ConfigFileUsed(); used != "" {
		a.logger.Debug("loaded configuration", "file", used)
	}
	return nil
}

// bindFlags binds each viper key to the named flag.
func bindFlags(v *viper.Viper, flags *pflag.FlagSet, keys map[string]string) {
	for key, name := range keys {
		if err := v.BindPFlag(key, flags.Lookup(name)); err != nil {
			panic(fmt.Sprintf("bind flag %s: %v", name, err))
		}
	}
}
