package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/pilladdict/checkup/internal/config"
	"github.com/pilladdict/checkup/internal/domain/recommend"
	"github.com/pilladdict/checkup/internal/domain/reference"
	"github.com/pilladdict/checkup/internal/platform/db"
	"github.com/pilladdict/checkup/internal/platform/middleware"
	"github.com/pilladdict/checkup/internal/platform/narrative"
)

func main() {
	root := &cobra.Command{
		Use:   "checkup-server",
		Short: "Health-checkup classification and supplement recommendation API",
	}
	root.AddCommand(serveCmd())
	root.AddCommand(catalogCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the checkup API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func catalogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Inspect the bundled reference catalog",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Check catalog authoring invariants",
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog, err := reference.Load()
			if err != nil {
				return err
			}
			for _, w := range catalog.Warnings() {
				fmt.Printf("warning: %s\n", w)
			}
			if err := catalog.Validate(); err != nil {
				return err
			}
			fmt.Printf("catalog %s: %d fields, OK\n", catalog.Version, len(catalog.FieldNames()))
			return nil
		},
	})

	return cmd
}

func runServer() error {
	// Logger
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("ENV") == "development" || os.Getenv("ENV") == "" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	// Config
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid config")
	}

	// Reference catalog: load once, frozen for the process lifetime.
	catalog, err := reference.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load reference catalog")
	}
	for _, w := range catalog.Warnings() {
		logger.Warn().Str("warning", w).Msg("reference catalog authoring problem")
	}
	logger.Info().
		Str("version", catalog.Version).
		Int("fields", len(catalog.FieldNames())).
		Msg("reference catalog loaded")

	// Product catalog: Postgres when configured, bundled data otherwise.
	ctx := context.Background()
	var products recommend.ProductRepository
	if cfg.DatabaseURL != "" {
		pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to database")
		}
		defer pool.Close()
		products = recommend.NewProductRepoPG(pool)
		logger.Info().Msg("using database product catalog")
	} else {
		repo, err := recommend.NewBundledProductRepo()
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to load bundled product catalog")
		}
		products = repo
		logger.Info().Msg("using bundled product catalog")
	}

	// Engine
	svc := recommend.NewService(catalog, products, logger)
	svc.SetMatchLimit(cfg.MatchLimit)
	if cfg.GeminiAPIKey != "" {
		narrator, err := narrative.NewGeminiNarrator(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to create narrator")
		}
		svc.SetNarrator(narrator)
		logger.Info().Msg("narrative generation enabled")
	}
	var analyzer recommend.Analyzer = svc
	if cfg.CacheEnabled {
		analyzer = recommend.NewCachedService(svc)
		logger.Info().Msg("result cache enabled")
	}

	// Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost},
		AllowHeaders: []string{"Content-Type", "X-Request-ID"},
	}))

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"catalog": catalog.Version,
		})
	})

	apiV1 := e.Group("/api/v1")
	handler := recommend.NewHandler(analyzer, products, catalog)
	handler.RegisterRoutes(apiV1)

	// Graceful shutdown
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server shutdown failed")
	}
	logger.Info().Msg("server stopped")
	return nil
}
