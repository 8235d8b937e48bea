package cmd

import (
	"context"
	"errors"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/helmcode/triage/pkg/client"
	"github.com/helmcode/triage/pkg/config"
	"github.com/helmcode/triage/pkg/logging"
	"github.com/helmcode/triage/pkg/telemetry"
)

// Version is set by main.
var Version = "dev"

var (
	configFile string
	serverURL  string
	verbose    bool
)

// AddGlobalFlags registers the flags shared by every command.
func AddGlobalFlags(root *cobra.Command) {
	root.PersistentFlags().StringVar(&configFile, "config", "", "Config file (default ~/.config/triage/config.yaml)")
	root.PersistentFlags().StringVar(&serverURL, "server", "", "Backend base URL (overrides server.base_url)")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Also print warnings and errors from the log")
}

// reportedError marks an error the user has already been shown.
type reportedError struct {
	err error
}

func (e reportedError) Error() string { return e.err.Error() }
func (e reportedError) Unwrap() error { return e.err }

func reported(err error) error {
	if err == nil {
		return nil
	}
	return reportedError{err: err}
}

// IsReported tells main not to print err again.
func IsReported(err error) bool {
	var r reportedError
	return errors.As(err, &r)
}

type environment struct {
	cfg    *config.Config
	logger *zap.Logger
	client *client.Client
	close  func()
}

func setup(cmd *cobra.Command, format string) (*environment, error) {
	cfg, err := config.Load(config.Overrides{
		ConfigFile: configFile,
		BaseURL:    serverURL,
		Format:     format,
	})
	if err != nil {
		return nil, err
	}

	logger, closeLog, err := logging.New(logging.Options{
		Level:   cfg.Log.Level,
		File:    cfg.Log.File,
		Verbose: verbose,
		Stderr:  cmd.ErrOrStderr(),
	})
	if err != nil {
		return nil, err
	}

	providers, err := telemetry.Setup(cmd.Context(), telemetry.Options{
		Enabled: cfg.Telemetry.Enabled,
		Dir:     cfg.Telemetry.Dir,
		Version: Version,
	})
	if err != nil {
		closeLog()
		return nil, err
	}

	logger = logger.With(zap.String("command", cmd.Name()))
	logger.Debug("configuration loaded",
		zap.String("server", cfg.Server.BaseURL),
		zap.String("format", cfg.Output.Format),
		zap.Bool("telemetry", cfg.Telemetry.Enabled),
	)

	c := client.New(cfg.Server.BaseURL,
		client.WithLogger(logger.Named("client")),
		client.WithTracer(providers.Tracer),
		client.WithMeter(providers.Meter),
	)

	return &environment{
		cfg:    cfg,
		logger: logger,
		client: c,
		close: func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := providers.Shutdown(ctx); err != nil {
				logger.Warn("telemetry shutdown failed", zap.Error(err))
			}
			closeLog()
		},
	}, nil
}
