package internal

import (
	"context"
	"log/slog"
	"os"

	"github.com/koukeneko/blogd/internal/mcpserver"
	"github.com/koukeneko/blogd/internal/metrics"
	"github.com/koukeneko/blogd/internal/posts"
)

// RunMCP serves the MCP tools over stdio. Stdout carries the protocol, so
// logs go to stderr.
func RunMCP(_ context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config

	logger := app.logger(os.Stderr)
	slog.SetDefault(logger)

	docs, err := newDocuments(cfg, logger, metrics.NoopRecorder{})
	if err != nil {
		return err
	}

	logger.Info("MCP server starting", slog.Int("documents", len(docs.catalogue.All())))
	return mcpserver.New(docs.service, cfg.TOC.UniqueIDs).ServeStdio()
}

// InitDB creates any missing posts tables and returns what it found.
func InitDB(ctx context.Context, opts ...Option) (posts.SchemaReport, error) {
	app, err := newApplication(opts)
	if err != nil {
		return posts.SchemaReport{}, err
	}

	db, err := posts.Open(app.config.SQLite.Path)
	if err != nil {
		return posts.SchemaReport{}, err
	}
	defer db.Close()

	return db.EnsureSchema(ctx)
}
