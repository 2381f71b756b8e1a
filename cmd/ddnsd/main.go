package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	ddns "github.com/Travis-Britz/ddnsd"
)

func main() {
	cfg, err := LoadConfig(os.Args[1:], os.Getenv, os.Stderr)
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		os.Exit(2)
	}

	logger, sync, err := newLogger(cfg.Verbose)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	defer sync()

	if err := run(cfg, logger); err != nil {
		sync()
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newLogger(verbose bool) (logr.Logger, func(), error) {
	zl, err := zap.NewProduction()
	if verbose {
		zl, err = zap.NewDevelopment()
	}
	if err != nil {
		return logr.Discard(), func() {}, fmt.Errorf("error creating logger: %w", err)
	}
	return zapr.NewLogger(zl), func() { _ = zl.Sync() }, nil
}

func run(cfg Config, logger logr.Logger) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	params, err := ddns.ParseParams(cfg.Params)
	if err != nil {
		return err
	}
	profiles, err := buildProfiles(cfg.Profiles, params)
	if err != nil {
		return err
	}
	logger.V(1).Info("config is valid", "profiles", len(profiles), "endpoints", cfg.Endpoints)

	provider := selectProvider(cfg.Provider, params)
	if provider == "cloudflare" && cfg.KeyFile != "" && needsKey(profiles) {
		key, err := loadKey(cfg.KeyFile, true, logger)
		if err != nil {
			return err
		}
		for i := range profiles {
			if profiles[i].APIKey == "" {
				profiles[i].APIKey = key
			}
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts, err := daemonOptions(ctx, cfg, params, provider, logger)
	if err != nil {
		return err
	}
	d, err := ddns.New(profiles, opts...)
	if err != nil {
		return fmt.Errorf("error creating daemon: %w", err)
	}

	if cfg.Once {
		return d.RunOnce(ctx)
	}
	logger.Info("starting daemon", "profiles", len(profiles), "provider", provider)
	if err := d.Run(ctx); err != nil {
		return err
	}
	logger.Info("shutting down")
	return nil
}

// buildProfiles merges profile tokens with the profiles described by provider parameters.
func buildProfiles(tokens []string, params ddns.Params) ([]ddns.Profile, error) {
	profiles, err := ddns.ParseProfiles(tokens)
	if err != nil {
		return nil, err
	}
	fromParams, err := params.Profiles()
	if err != nil {
		return nil, err
	}
	return append(profiles, fromParams...), nil
}

func selectProvider(provider string, params ddns.Params) string {
	if provider != "" {
		return provider
	}
	if _, ok := params.URL(); ok {
		return "webhook"
	}
	return "cloudflare"
}

func needsKey(profiles []ddns.Profile) bool {
	for _, p := range profiles {
		if p.APIKey == "" {
			return true
		}
	}
	return false
}

func daemonOptions(ctx context.Context, cfg Config, params ddns.Params, provider string, logger logr.Logger) ([]ddns.Option, error) {
	opts := []ddns.Option{
		ddns.WithLogger(logger),
		ddns.WithTimeout(cfg.Timeout),
	}
	if cfg.Interval < ddns.MinInterval && cfg.Schedule == "" {
		logger.Info("interval is below the minimum and will be raised", "interval", cfg.Interval, "minimum", ddns.MinInterval)
	}

	if cfg.IP != "" {
		r, err := ddns.FromString(cfg.IP)
		if err != nil {
			return nil, err
		}
		opts = append(opts, ddns.UsingResolver(r))
	} else {
		opts = append(opts, ddns.UsingWebResolver(cfg.Endpoints...))
	}

	if cfg.Schedule != "" {
		opts = append(opts, ddns.WithSchedule(cfg.Schedule))
	} else {
		opts = append(opts, ddns.WithInterval(cfg.Interval))
	}
	if cfg.KeepGoing {
		opts = append(opts, ddns.KeepRunningOnDiscoveryFailure())
	}

	switch provider {
	case "cloudflare":
		opts = append(opts, ddns.UsingCloudflare())
	case "webhook":
		u, ok := params.URL()
		if !ok {
			return nil, errors.New("the webhook provider requires a url= parameter")
		}
		opts = append(opts, ddns.UsingWebhook(u))
	}

	if cfg.MetricsAddr != "" {
		reg := prometheus.NewRegistry()
		m, err := ddns.NewMetrics(reg)
		if err != nil {
			return nil, fmt.Errorf("error registering metrics: %w", err)
		}
		serveMetrics(ctx, cfg.MetricsAddr, reg, logger.WithName("metrics"))
		opts = append(opts, ddns.WithMetrics(m))
	}
	return opts, nil
}
