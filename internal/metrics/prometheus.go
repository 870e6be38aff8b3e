package metrics

import (
	"net/http"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	promhttp "github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "blogd"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	fetchDuration     *prom.HistogramVec
	cacheLookups      *prom.CounterVec
	transcodeDuration prom.Histogram
	refreshes         *prom.CounterVec
	catalogueDocs     prom.Gauge
}

// NewPrometheusRecorder constructs the metrics and registers them with reg.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		fetchDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "hackmd_fetch_duration_seconds",
			Help:      "Duration of HackMD note fetches",
			Buckets:   prom.DefBuckets,
		}, []string{"source", "result"}),
		cacheLookups: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "document_cache_lookups_total",
			Help:      "Document cache lookups by result",
		}, []string{"result"}),
		transcodeDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "transcode_duration_seconds",
			Help:      "Time spent transcoding and outlining a document",
			Buckets:   []float64{.0001, .0005, .001, .005, .01, .05, .1},
		}),
		refreshes: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "document_refreshes_total",
			Help:      "Scheduled document refreshes by result",
		}, []string{"result"}),
		catalogueDocs: prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "catalogue_documents",
			Help:      "Number of documents in the loaded catalogue",
		}),
	}
	reg.MustRegister(pr.fetchDuration, pr.cacheLookups, pr.transcodeDuration, pr.refreshes, pr.catalogueDocs)
	return pr
}

func (p *PrometheusRecorder) ObserveFetch(source string, d time.Duration, success bool) {
	if p == nil {
		return
	}
	p.fetchDuration.WithLabelValues(source, resultLabel(success)).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncCache(result CacheResult) {
	if p == nil {
		return
	}
	p.cacheLookups.WithLabelValues(string(result)).Inc()
}

func (p *PrometheusRecorder) ObserveTranscode(d time.Duration) {
	if p == nil {
		return
	}
	p.transcodeDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncRefresh(success bool) {
	if p == nil {
		return
	}
	p.refreshes.WithLabelValues(resultLabel(success)).Inc()
}

func (p *PrometheusRecorder) SetCatalogueDocuments(n int) {
	if p == nil {
		return
	}
	p.catalogueDocs.Set(float64(n))
}

func resultLabel(success bool) string {
	if success {
		return "success"
	}
	return "failed"
}

// HTTPHandler returns an http.Handler that serves the metrics in reg.
func HTTPHandler(reg *prom.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{EnableOpenMetrics: true})
}
