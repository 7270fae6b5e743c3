package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/reviewrise/healthscan/config"
	"github.com/reviewrise/healthscan/internal/advisor"
	"github.com/reviewrise/healthscan/internal/analysis"
	"github.com/reviewrise/healthscan/internal/api"
	"github.com/reviewrise/healthscan/internal/fetcher"
	"github.com/reviewrise/healthscan/internal/snapshot"
)

// serveCmd is the cobra command that starts the healthscan API server
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "start the healthscan api server",
	Run: func(cmd *cobra.Command, _ []string) {
		err := serve(cmd.Context())
		cobra.CheckErr(err)
	},
}

// init registers the serve command on the root command
func init() {
	rootCmd.AddCommand(serveCmd)
}

// serve initializes dependencies and starts the healthscan API server
func serve(ctx context.Context) error {
	cfgPath := k.String("config")

	cfg, err := config.Load(&cfgPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	cfg.Server.Debug = k.Bool("debug")
	cfg.Server.Pretty = k.Bool("pretty")

	store, err := setupStore(cfg)
	if err != nil {
		return fmt.Errorf("setting up snapshot store: %w", err)
	}

	if store != nil {
		defer func() { _ = store.Close() }()
	}

	orchestrator := setupOrchestrator(cfg, store)

	var snapshots api.SnapshotReader
	if store != nil {
		snapshots = store
	}

	handler := api.NewRouter(api.RouterConfig{
		Analyzer:       orchestrator,
		Snapshots:      snapshots,
		MaxBodySize:    cfg.Server.MaxBodySize,
		AnalyzeTimeout: cfg.Server.AnalyzeTimeout,
	})

	srv := &http.Server{
		Addr:         cfg.Server.Listen,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownGracePeriod)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("server shutdown error")
		}
	}()

	log.Info().Str("listen", cfg.Server.Listen).Msg("starting healthscan service")

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("listen: %w", err)
	}

	return nil
}

// setupStore opens the snapshot store from config, returning nil when
// persistence is disabled by an empty path
func setupStore(cfg *config.Config) (*snapshot.Store, error) {
	if cfg.Store.Path == "" {
		log.Info().Msg("snapshot persistence not configured, skipping")
		return nil, nil
	}

	store, err := snapshot.Open(cfg.Store.Path)
	if err != nil {
		return nil, err
	}

	log.Info().Str("path", cfg.Store.Path).Bool("strict", cfg.Store.Strict).Msg("snapshot store configured")

	return store, nil
}

// setupOrchestrator wires the analysis pipeline from config
func setupOrchestrator(cfg *config.Config, store *snapshot.Store) *analysis.Orchestrator {
	pageFetcher := fetcher.New(
		fetcher.WithTimeout(cfg.Fetcher.Timeout),
		fetcher.WithUserAgent(cfg.Fetcher.UserAgent),
		fetcher.WithMaxBodySize(cfg.Fetcher.MaxBodySize),
	)

	provider := advisor.FromConfig(advisor.Config{
		Provider: cfg.Advisor.Provider,
		APIKey:   cfg.Advisor.APIKey,
		Model:    cfg.Advisor.Model,
	}, advisor.WithHTTPClient(&http.Client{Timeout: cfg.Advisor.Timeout}))

	log.Info().Str("provider", provider.Name()).Msg("ai advisor configured")

	opts := []analysis.Option{
		analysis.WithFetcher(pageFetcher),
		analysis.WithAdvisor(provider),
		analysis.WithFetchRetry(cfg.Fetcher.Retry),
		analysis.WithStrictPersistence(cfg.Store.Strict),
	}

	if store != nil {
		opts = append(opts, analysis.WithStore(store))
	}

	return analysis.New(opts...)
}
