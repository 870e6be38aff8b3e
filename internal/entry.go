// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"github.com/koukeneko/blogd/internal/api"
	"github.com/koukeneko/blogd/internal/catalogue"
	"github.com/koukeneko/blogd/internal/metrics"
	"github.com/koukeneko/blogd/internal/posts"
	"github.com/koukeneko/blogd/internal/postservice"
	"github.com/koukeneko/blogd/internal/rss"
	"github.com/koukeneko/blogd/internal/scheduler"
	"github.com/koukeneko/blogd/internal/sse"
	"github.com/koukeneko/blogd/internal/storage"
)

// Run starts the application with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}

	cfg := app.config

	// Initialize structured JSON logger.
	logger := app.logger(os.Stdout)
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.String("catalogue_path", cfg.Catalogue.Path),
		slog.String("cache_dir", cfg.Cache.Dir),
		slog.String("auth_mode", cfg.Auth.Mode),
		slog.Bool("metrics", cfg.Metrics.Enabled),
		slog.String("log_level", cfg.App.LogLevel.String()))

	// Metrics.
	var recorder metrics.Recorder = metrics.NoopRecorder{}
	var registry *prometheus.Registry
	if cfg.Metrics.Enabled {
		registry = prometheus.NewRegistry()
		registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		recorder = metrics.NewPrometheusRecorder(registry)
	}

	// Documents: catalogue, cache and HackMD.
	docs, err := newDocuments(cfg, logger, recorder)
	if err != nil {
		return err
	}

	// Posts database.
	db, err := posts.Open(cfg.SQLite.Path)
	if err != nil {
		return fmt.Errorf("init posts db: %w", err)
	}
	defer db.Close()

	report, err := db.EnsureSchema(ctx)
	if err != nil {
		return fmt.Errorf("init posts schema: %w", err)
	}
	logger.Info("Posts schema ready", slog.Bool("initialized", report.Initialized))

	// Cover image storage.
	covers, err := storage.NewFS(cfg.Covers.Dir)
	if err != nil {
		return fmt.Errorf("init covers storage: %w", err)
	}

	// SSE broker.
	broker := sse.NewBroker(sse.WithIndexThrottle(2 * time.Second))
	defer broker.Close()

	postSvc := postservice.New(db,
		postservice.WithPublisher(broker.PublishPost),
		postservice.WithLogger(logger),
		postservice.WithUniqueIDs(cfg.TOC.UniqueIDs),
	)

	author, err := postSvc.EnsureAuthor(ctx, cfg.Auth.Author)
	if err != nil {
		return fmt.Errorf("ensure author: %w", err)
	}
	logger.Info("Author ready", slog.String("id", author.ID), slog.String("role", string(author.Role)))

	auth := api.Auth{
		Enabled: cfg.Auth.AuthEnabled(),
		Token:   cfg.Auth.Token,
		Resolve: func(ctx context.Context) (*posts.User, error) {
			return db.GetUserByID(ctx, author.ID)
		},
	}

	apiRouter := api.NewRouter(api.Deps{
		Documents: docs.service,
		Posts:     postSvc,
		Notes:     docs.hackmd,
		Feeds:     rss.New(&http.Client{Timeout: cfg.RSS.Timeout}, cfg.RSS.Endpoint, cfg.RSS.SourceLabel),
		Schema:    db,
		Renderer:  docs.renderer,
		Covers:    covers,
		Events:    broker,
		UniqueIDs: cfg.TOC.UniqueIDs,
	}, auth)

	// Build chi router.
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := db.Ping(r.Context()); err != nil {
			logger.Warn("readiness check failed", slog.String("error", err.Error()))
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"unavailable"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	if registry != nil {
		r.Handle("/metrics", metrics.HTTPHandler(registry))
	}

	// Uploaded cover images are public.
	r.Get("/covers/{filename}", api.NewCoverHandler(covers).ServeFile)

	// Mount API routes under /api.
	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Background cache refresh.
	sched, err := scheduler.New(logger)
	if err != nil {
		return err
	}
	interval := cfg.Cache.RefreshInterval
	if interval == 0 {
		interval = time.Duration(docs.catalogue.Settings().CacheTime) * time.Minute
	}

	g, gCtx := errgroup.WithContext(ctx)

	if interval > 0 {
		_, err := sched.Every("document-refresh", interval, true, func() {
			_, err := docs.service.Refresh(gCtx, func(id string, err error) {
				if err == nil {
					broker.PublishDocument(id)
				}
			})
			if err != nil && !errors.Is(err, context.Canceled) {
				logger.Warn("document refresh failed", slog.String("error", err.Error()))
			}
		})
		if err != nil {
			return err
		}
		logger.Info("Document refresh scheduled", slog.Duration("interval", interval))
	} else {
		logger.Warn("Document refresh disabled, no interval configured")
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	// Reload the catalogue on change and notify subscribers.
	g.Go(func() error {
		err := catalogue.Watch(gCtx, docs.catalogue, cfg.Catalogue.Path, logger, func(c *catalogue.Catalogue) {
			recorder.SetCatalogueDocuments(len(c.Documents))
			broker.PublishChange(sse.EventCatalogueReloaded, map[string]string{
				"documents": strconv.Itoa(len(c.Documents)),
			})
		})
		if err != nil {
			logger.Warn("catalogue watcher stopped", slog.String("error", err.Error()))
		}
		return nil
	})

	// Start scheduler.
	g.Go(func() error {
		sched.Start()
		<-gCtx.Done()
		if err := sched.Stop(); err != nil {
			logger.Error("Scheduler shutdown error", slog.String("error", err.Error()))
		}
		return nil
	})

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		// Ends open event streams, which Shutdown would otherwise wait on.
		broker.Close()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		// Returning an error cancels gCtx so the watcher and scheduler stop too.
		return errShutdown
	})

	if err := g.Wait(); err != nil && !errors.Is(err, errShutdown) {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

var errShutdown = errors.New("shutdown")
