package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors for the KYC flow.
type Metrics struct {
	Submissions       *prometheus.CounterVec
	UndecodableImages *prometheus.CounterVec
	ProviderLatency   *prometheus.HistogramVec
	ProviderFailures  *prometheus.CounterVec
	StatusLookups     *prometheus.CounterVec

	gatherer prometheus.Gatherer
}

// New registers all collectors on reg. Pass a fresh prometheus.NewRegistry()
// in tests to avoid duplicate registration.
func New(reg *prometheus.Registry) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Submissions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "kyc_submissions_total",
			Help: "Total number of KYC submissions by resulting status",
		}, []string{"provider", "status"}),
		UndecodableImages: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "kyc_undecodable_images_total",
			Help: "Images that could not be decoded, by request field",
		}, []string{"field"}),
		ProviderLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "kyc_provider_latency_seconds",
			Help:    "Latency of verification provider calls in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"provider"}),
		ProviderFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "kyc_provider_failures_total",
			Help: "Verification provider calls that returned an error",
		}, []string{"provider"}),
		StatusLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "kyc_status_lookups_total",
			Help: "Status lookups by whether the reference id was known",
		}, []string{"found"}),
		gatherer: reg,
	}
}

func (m *Metrics) ObserveSubmission(provider, status string) {
	m.Submissions.WithLabelValues(provider, status).Inc()
}

func (m *Metrics) ObserveUndecodable(field string) {
	m.UndecodableImages.WithLabelValues(field).Inc()
}

// ObserveProvider records the duration of one provider call and whether it failed.
func (m *Metrics) ObserveProvider(provider string, started time.Time, err error) {
	m.ProviderLatency.WithLabelValues(provider).Observe(time.Since(started).Seconds())
	if err != nil {
		m.ProviderFailures.WithLabelValues(provider).Inc()
	}
}

func (m *Metrics) ObserveLookup(found bool) {
	m.StatusLookups.WithLabelValues(strconv.FormatBool(found)).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
