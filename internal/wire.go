package internal

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/koukeneko/blogd/internal/catalogue"
	"github.com/koukeneko/blogd/internal/docservice"
	"github.com/koukeneko/blogd/internal/hackmd"
	"github.com/koukeneko/blogd/internal/metrics"
	"github.com/koukeneko/blogd/internal/render"
	"github.com/koukeneko/blogd/internal/storage"
)

// loadCatalogue reads the catalogue file. A missing file yields an empty
// catalogue with default settings so the watcher can pick it up later.
func loadCatalogue(path string, logger *slog.Logger) (*catalogue.Catalogue, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create catalogue dir: %w", err)
	}
	c, err := catalogue.Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		logger.Warn("catalogue file not found, starting empty", slog.String("path", path))
		return &catalogue.Catalogue{Settings: catalogue.DefaultSettings()}, nil
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

func newHackMDClient(cfg *Config, logger *slog.Logger) *hackmd.Client {
	return hackmd.New(hackmd.Config{
		Token:           cfg.HackMD.APIToken,
		BaseURL:         cfg.HackMD.APIBaseURL,
		DownloadBaseURL: cfg.HackMD.DownloadBaseURL,
		Username:        cfg.HackMD.Username,
		HTTPClient:      &http.Client{Timeout: cfg.HackMD.Timeout},
		Logger:          logger,
	})
}

// documents bundles what the document service needs so the serve and mcp
// commands build it the same way.
type documents struct {
	service   *docservice.Service
	catalogue *catalogue.Store
	hackmd    *hackmd.Client
	renderer  *render.Renderer
}

func newDocuments(cfg *Config, logger *slog.Logger, recorder metrics.Recorder) (*documents, error) {
	cat, err := loadCatalogue(cfg.Catalogue.Path, logger)
	if err != nil {
		return nil, fmt.Errorf("load catalogue: %w", err)
	}
	recorder.SetCatalogueDocuments(len(cat.Documents))

	cache, err := storage.NewFS(cfg.Cache.Dir)
	if err != nil {
		return nil, fmt.Errorf("init cache: %w", err)
	}

	client := newHackMDClient(cfg, logger)
	renderer := render.New(render.WithUniqueIDs(cfg.TOC.UniqueIDs))
	store := catalogue.NewStore(cat)

	svc := docservice.New(client, cache, store,
		docservice.WithRenderer(renderer),
		docservice.WithRecorder(recorder),
		docservice.WithLogger(logger),
		docservice.WithUniqueIDs(cfg.TOC.UniqueIDs),
		docservice.WithNoteURL(client.NoteURL),
	)
	return &documents{service: svc, catalogue: store, hackmd: client, renderer: renderer}, nil
}
