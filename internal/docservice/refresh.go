package docservice

import (
	"context"
	"log/slog"
	"strings"
)

// RefreshCallback is called after each document refresh attempt.
type RefreshCallback func(id string, err error)

// RefreshReport summarises one Refresh run.
type RefreshReport struct {
	Refreshed []string `json:"refreshed"`
	Failed    []string `json:"failed"`
	Pruned    []string `json:"pruned"`
}

// Refresh re-fetches every catalogued document into the cache and removes
// cache entries for documents that are no longer catalogued. Individual fetch
// failures are reported through cb and do not stop the run.
func (s *Service) Refresh(ctx context.Context, cb RefreshCallback) (RefreshReport, error) {
	report := RefreshReport{Refreshed: []string{}, Failed: []string{}, Pruned: []string{}}

	docs := s.catalogue.All()
	s.recorder.SetCatalogueDocuments(len(docs))

	keep := make(map[string]struct{}, len(docs))
	for _, d := range docs {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		keep[cachePath(d.ID)] = struct{}{}

		_, err := s.fetch(ctx, d.ID)
		s.recorder.IncRefresh(err == nil)
		if err != nil {
			s.logger.Warn("refresh: fetch failed", slog.String("id", d.ID), slog.String("error", err.Error()))
			report.Failed = append(report.Failed, d.ID)
		} else {
			report.Refreshed = append(report.Refreshed, d.ID)
		}
		if cb != nil {
			cb(d.ID, err)
		}
	}

	files, err := s.store.List("")
	if err != nil {
		return report, err
	}
	for _, f := range files {
		if _, ok := keep[f.Path]; ok || !strings.HasSuffix(f.Path, ".json") {
			continue
		}
		if err := s.store.Delete(f.Path); err != nil {
			s.logger.Warn("refresh: prune failed", slog.String("path", f.Path), slog.String("error", err.Error()))
			continue
		}
		report.Pruned = append(report.Pruned, strings.TrimSuffix(f.Path, ".json"))
	}

	s.logger.Info("refresh: done",
		slog.Int("refreshed", len(report.Refreshed)),
		slog.Int("failed", len(report.Failed)),
		slog.Int("pruned", len(report.Pruned)))
	return report, nil
}
