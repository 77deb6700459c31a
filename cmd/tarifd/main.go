// Command tarifd serves the tariff decision engine's HTTP surface and
// carries its operational CLI: catalogue validation and configuration
// inspection alongside the server itself.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/arzttarif/tarifengine/internal/catalog"
	"github.com/arzttarif/tarifengine/internal/conditions"
	"github.com/arzttarif/tarifengine/internal/config"
	"github.com/arzttarif/tarifengine/internal/feedback"
	"github.com/arzttarif/tarifengine/internal/httpapi"
	"github.com/arzttarif/tarifengine/internal/i18n"
	"github.com/arzttarif/tarifengine/internal/llmgateway"
	"github.com/arzttarif/tarifengine/internal/orchestrator"
	"github.com/arzttarif/tarifengine/internal/platform/auth"
	"github.com/arzttarif/tarifengine/internal/platform/db"
	"github.com/arzttarif/tarifengine/internal/platform/middleware"
	"github.com/arzttarif/tarifengine/internal/retrieval"
	"github.com/arzttarif/tarifengine/internal/rules"
	"github.com/arzttarif/tarifengine/internal/selector"
	"github.com/arzttarif/tarifengine/internal/stage1"
	"github.com/arzttarif/tarifengine/internal/stage2"
)

func main() {
	var configDir string

	rootCmd := &cobra.Command{
		Use:   "tarifd",
		Short: "Swiss medical tariff decision engine",
	}
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", ".", "directory containing config.ini / config.runtime.ini")

	rootCmd.AddCommand(serveCmd(&configDir))
	rootCmd.AddCommand(catalogCmd(&configDir))
	rootCmd.AddCommand(configCmd(&configDir))
	rootCmd.AddCommand(migrateCmd(&configDir))

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd(configDir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configDir)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid config: %w", err)
			}
			return runServer(cfg, *configDir)
		},
	}
}

func catalogCmd(configDir *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Inspect the loaded tariff catalogue",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "reload",
		Short: "Re-read the catalogue directory and report what it contains",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configDir)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			store, err := catalog.Load(cfg.CatalogDir)
			if err != nil {
				return fmt.Errorf("load catalog from %s: %w", cfg.CatalogDir, err)
			}
			fmt.Printf("catalog OK: %d codes, %d packages (source: %s)\n",
				len(store.AllCodes()), len(store.AllPackages()), cfg.CatalogDir)
			return nil
		},
	})
	return cmd
}

func configCmd(configDir *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect effective configuration",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configDir)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			redacted := *cfg
			redacted.APIKey = redactSecret(redacted.APIKey)
			redacted.GitHubFeedbackToken = redactSecret(redacted.GitHubFeedbackToken)
			redacted.DatabaseURL = redactSecret(redacted.DatabaseURL)
			out, err := json.MarshalIndent(redacted, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			return nil
		},
	})
	return cmd
}

func redactSecret(s string) string {
	if s == "" {
		return ""
	}
	return "<redacted>"
}

func migrateCmd(configDir *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run feedback-store database migrations",
	}
	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")
			cfg, err := config.Load(*configDir)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if cfg.DatabaseURL == "" {
				return fmt.Errorf("DATABASE_URL is not configured; migrations only apply to the optional feedback store")
			}
			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, 10, 2)
			if err != nil {
				return fmt.Errorf("connect: %w", err)
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			count, err := migrator.Up(ctx, "public")
			if err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			fmt.Printf("applied %d migration(s)\n", count)
			return nil
		},
	}
	upCmd.Flags().String("dir", "./migrations", "path to the migrations directory")
	cmd.AddCommand(upCmd)
	return cmd
}

// runServer wires C1-C10, the feedback service, and the `/api/*` HTTP
// surface into one echo server and blocks serving it (§1, §4).
func runServer(cfg *config.Config, configDir string) error {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if cfg.IsDev() {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err == nil {
		zerolog.SetGlobalLevel(level)
	}

	store, err := catalog.Load(cfg.CatalogDir)
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}
	logger.Info().Int("codes", len(store.AllCodes())).Int("packages", len(store.AllPackages())).
		Str("dir", cfg.CatalogDir).Msg("tarifd: catalog loaded")

	var synonyms *catalog.SynonymStore
	if cfg.SynonymDBPath != "" {
		synonyms, err = catalog.OpenSynonymStore(cfg.SynonymDBPath)
		if err != nil {
			return fmt.Errorf("open synonym store: %w", err)
		}
		defer synonyms.Close()
	}

	var vectors *retrieval.EmbeddingIndex
	if cfg.EmbeddingIndexPath != "" {
		vectors, err = retrieval.LoadEmbeddingIndex(cfg.EmbeddingIndexPath)
		if err != nil {
			return fmt.Errorf("load embedding index: %w", err)
		}
		logger.Info().Str("path", cfg.EmbeddingIndexPath).Msg("tarifd: embedding index loaded")
	}

	ranker := retrieval.NewRanker(store, store.AllCodes(), []string{"de", "fr", "it"}, vectors, cfg.VectorFusionWeight, synonyms)

	runtimeStore := config.NewRuntimeStore(configDir)
	credentials := config.EnvCredentials{}
	minInterval := time.Duration(cfg.LLMMinCallIntervalSeconds) * time.Second
	gateway := llmgateway.New(logger, credentials, runtimeStore, minInterval, cfg.UserAgentProduct)

	identifier := stage1.NewIdentifier(logger, store, gateway, llmgateway.Provider(cfg.Stage1Provider), cfg.Stage1Model)
	mapper := stage2.NewMapper(logger, store, gateway, llmgateway.Provider(cfg.Stage2Provider), cfg.Stage2Model)
	translator := i18n.New()
	engine := rules.New(translator, cfg.KumulationExplizit, cfg.StrictUnknownRules)
	sel := selector.New(conditions.NewEvaluator(), translator)

	orch := orchestrator.New(logger, store, ranker, identifier, mapper, engine, sel, translator, cfg.RetrievalTopN, cfg.UseICDDefault)

	var pool *pgxpool.Pool
	var fbStore feedback.Store = feedback.NoopStore{}
	if cfg.DatabaseURL != "" {
		ctx := context.Background()
		pool, err = db.NewPool(ctx, cfg.DatabaseURL, 10, 2)
		if err != nil {
			return fmt.Errorf("connect to database: %w", err)
		}
		fbStore = feedback.NewPGStore(pool)
		logger.Info().Msg("tarifd: feedback store connected to database")
	}
	if pool != nil {
		defer pool.Close()
	}

	var reporter feedback.IssueReporter = feedback.NoopReporter{}
	if cfg.GitHubFeedbackRepo != "" && cfg.GitHubFeedbackToken != "" {
		reporter, err = feedback.NewGitHubReporter(cfg.GitHubFeedbackToken, cfg.GitHubFeedbackRepo)
		if err != nil {
			return fmt.Errorf("configure github feedback reporter: %w", err)
		}
	}
	feedbackSvc := feedback.NewService(fbStore, reporter)

	handler := httpapi.NewHandler(logger, orch, store, feedbackSvc, cfg.AppVersion, cfg.TarifVersion)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recovery(logger))
	e.Use(echomw.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.SecurityHeaders())
	e.Use(middleware.RequestTimeout(60 * time.Second))
	e.Use(middleware.BodyLimit(cfg.BodyLimit, cfg.BodyLimit))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-API-Key", "X-Request-ID"},
	}))

	rateLimitCfg := middleware.RateLimitConfig{RequestsPerSecond: cfg.RateLimitRPS, BurstSize: cfg.RateLimitBurst}
	if rateLimitCfg.RequestsPerSecond <= 0 {
		rateLimitCfg = middleware.DefaultRateLimitConfig()
	}
	e.Use(middleware.RateLimit(rateLimitCfg))

	checker := auth.NewStaticChecker(cfg.APIKey)
	e.Use(auth.Middleware(auth.Mode(cfg.AuthMode), checker))

	e.GET("/healthz", func(c echo.Context) error {
		body := map[string]any{"status": "ok", "version": cfg.AppVersion, "tarif_version": cfg.TarifVersion}
		if pool != nil {
			body["db"] = db.GetPoolStats(pool)
		}
		return c.JSON(http.StatusOK, body)
	})

	api := e.Group("/api")
	handler.RegisterRoutes(api)

	logger.Info().Str("port", cfg.Port).Msg("tarifd: listening")
	return e.Start(":" + cfg.Port)
}
