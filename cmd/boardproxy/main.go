// Command boardproxy serves cached read-only summaries of a project
// management workspace.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonwraymond/boardproxy/aggregate"
	"github.com/jonwraymond/boardproxy/cache"
	"github.com/jonwraymond/boardproxy/config"
	"github.com/jonwraymond/boardproxy/fetch"
	"github.com/jonwraymond/boardproxy/health"
	"github.com/jonwraymond/boardproxy/httpapi"
	"github.com/jonwraymond/boardproxy/observe"
	"github.com/jonwraymond/boardproxy/summary"
	"github.com/jonwraymond/boardproxy/upstream"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "boardproxy: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.FromEnv()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	obs, err := observe.NewObserver(ctx, observe.Config{
		ServiceName: "boardproxy",
		Tracing:     observe.TracingConfig{Enabled: true, Exporter: "none"},
		Metrics:     observe.MetricsConfig{Enabled: true, Exporter: "prometheus"},
		Logging:     observe.LoggingConfig{Enabled: true, Level: cfg.LogLevel},
	})
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := obs.Shutdown(shutdownCtx); err != nil {
			fmt.Fprintf(os.Stderr, "boardproxy: telemetry shutdown: %v\n", err)
		}
	}()
	logger := obs.Logger()

	var store cache.Store
	if cfg.Cache.MemcacheAddr != "" {
		store = cache.NewMemcacheStore(cfg.Cache.Namespace, cfg.Cache.MemcacheAddr)
		logger.Info(ctx, "using memcached store",
			observe.Field{Key: "addr", Value: cfg.Cache.MemcacheAddr},
		)
	} else {
		store = cache.NewMemoryStore()
		logger.Info(ctx, "no memcached address configured, using in-memory store")
	}

	client, err := upstream.NewClient(upstream.ClientConfig{
		APIKey:  cfg.APIKey,
		BaseURL: cfg.BaseURL,
		Tracer:  obs.Tracer(),
	})
	if err != nil {
		return err
	}

	fetcher, err := fetch.New(fetch.Config{
		Store:       store,
		Client:      client,
		Policy:      cache.Policy{DefaultTTL: cfg.Cache.TTL},
		Backoff:     cfg.Retry.Backoff,
		MaxAttempts: cfg.Retry.MaxAttempts,
		Logger:      logger,
		Meter:       obs.Meter(),
	})
	if err != nil {
		return err
	}

	aggregator, err := aggregate.New(fetcher, aggregate.Config{
		WorkspaceID:            cfg.WorkspaceID,
		CurrentTeamID:          cfg.Teams.Current,
		PlannedTeamID:          cfg.Teams.Planned,
		BugsAndChoresTeamID:    cfg.Teams.BugsAndChores,
		FeaturesAndIdeasTeamID: cfg.Teams.FeaturesAndIdeas,
		MilestoneTagID:         cfg.Tags.Milestone,
		BugTagID:               cfg.Tags.Bug,
		ChoreTagID:             cfg.Tags.Chore,
		Concurrency:            cfg.Fanout,
	})
	if err != nil {
		return err
	}

	members, err := config.LoadMembers(cfg.MembersFile)
	if err != nil {
		return err
	}

	builder, err := summary.New(aggregator, members)
	if err != nil {
		return err
	}

	checks := health.NewAggregator()
	checks.Register("upstream", health.NewUpstreamChecker(fetcher))
	if pinger, ok := store.(cache.Pinger); ok {
		checks.Register("cache", health.NewCacheChecker(pinger))
	}

	mw, err := observe.MiddlewareFromObserver(obs)
	if err != nil {
		return err
	}

	api, err := httpapi.NewServer(httpapi.Config{
		Summarizer: builder,
		Health:     checks,
		Middleware: mw,
		Logger:     logger,
		Metrics:    true,
	})
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.Listen,
		Handler:           api,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info(ctx, "listening", observe.Field{Key: "addr", Value: cfg.Listen})
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info(ctx, "shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
