// Package metrics records document pipeline metrics. Components hold a
// Recorder and default to NoopRecorder, so metrics stay optional.
package metrics

import "time"

// CacheResult labels a document cache lookup.
type CacheResult string

const (
	CacheHit   CacheResult = "hit"
	CacheMiss  CacheResult = "miss"
	CacheStale CacheResult = "stale"
)

// Recorder defines observability hooks for the document pipeline.
type Recorder interface {
	ObserveFetch(source string, d time.Duration, success bool)
	IncCache(result CacheResult)
	ObserveTranscode(d time.Duration)
	IncRefresh(success bool)
	SetCatalogueDocuments(n int)
}

// NoopRecorder is a Recorder that does nothing (default when metrics are off).
type NoopRecorder struct{}

func (NoopRecorder) ObserveFetch(string, time.Duration, bool) {}
func (NoopRecorder) IncCache(CacheResult)                     {}
func (NoopRecorder) ObserveTranscode(time.Duration)           {}
func (NoopRecorder) IncRefresh(bool)                          {}
func (NoopRecorder) SetCatalogueDocuments(int)                {}
