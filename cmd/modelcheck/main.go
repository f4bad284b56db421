// Command modelcheck loads a model bundle and checks that it predicts a
// reference sample. The exit status tells CI which step failed.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"modelcheck/config"
	"modelcheck/logging"
	"modelcheck/metrics"
	"modelcheck/ml"
	"modelcheck/smoketest"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run holds the whole program so deferred cleanup finishes before os.Exit.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cfg, err := parseConfig(args, stderr)
	if errors.Is(err, flag.ErrHelp) {
		return smoketest.ExitOK
	}
	if err != nil {
		fmt.Fprintf(stderr, "modelcheck: %v\n", err)
		return smoketest.ExitUsage
	}

	logger, err := newLogger(cfg.Log, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "modelcheck: %v\n", err)
		return smoketest.ExitUsage
	}
	defer logger.Sync() //nolint:errcheck

	runner := smoketest.NewRunner(
		smoketest.Config{ModelPath: cfg.ModelPath, Sample: cfg.Sample},
		smoketest.NewReporter(cfg.Format, stdout),
		logger,
	)
	recorder := metrics.NewRecorder(cfg.ModelPath)

	check := func() int {
		start := time.Now()
		result, err := runner.RunRepeat(ctx, cfg.Repeat)
		if cfg.MetricsFile != "" {
			recorder.Observe(result, err, time.Since(start))
			if werr := recorder.WriteTextfile(cfg.MetricsFile); werr != nil {
				logger.Warn("metrics textfile not written", zap.String("path", cfg.MetricsFile), zap.Error(werr))
			}
		}
		return smoketest.ExitCode(err)
	}

	if !cfg.Watch {
		return check()
	}
	return watch(ctx, cfg.ModelPath, check, logger)
}

func newLogger(cfg logging.Config, stderr io.Writer) (*zap.Logger, error) {
	if cfg.File != "" {
		return logging.New(cfg)
	}
	return logging.NewWithWriter(cfg, stderr)
}

func parseConfig(args []string, stderr io.Writer) (*config.Config, error) {
	fs := flag.NewFlagSet("modelcheck", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "path to a YAML config file (default "+config.DefaultPath+" if present)")
	modelPath := fs.String("model", "", "path to the model bundle (.json or .yaml)")
	sample := fs.String("sample", "", "comma-separated feature vector to predict")
	format := fs.String("format", "", "output format: text or json")
	repeat := fs.Int("repeat", 0, "load and predict N times and require identical results")
	watchFlag := fs.Bool("watch", false, "re-run whenever the bundle file changes")
	metricsFile := fs.String("metrics-file", "", "write Prometheus textfile metrics to this path")
	logLevel := fs.String("log-level", "", "log level: debug, info, warn, error")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return nil, err
	}

	// only flags given on the command line override file and environment
	var sampleErr error
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "model":
			cfg.ModelPath = *modelPath
		case "sample":
			cfg.Sample, sampleErr = ml.ParseVector(*sample)
		case "format":
			cfg.Format = *format
		case "repeat":
			cfg.Repeat = *repeat
		case "watch":
			cfg.Watch = *watchFlag
		case "metrics-file":
			cfg.MetricsFile = *metricsFile
		case "log-level":
			cfg.Log.Level = *logLevel
		}
	})
	if sampleErr != nil {
		return nil, fmt.Errorf("-sample: %w", sampleErr)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
