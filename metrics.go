package collector

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

var tracer trace.Tracer

func init() {
	tracer = otel.Tracer("github.com/trinity-1686a/collector")
}

// Metrics are the counters a Collector updates as it runs. They are safe
// for concurrent use and may be registered with a prometheus.Registerer by
// the embedding application; this package registers nothing globally.
type Metrics struct {
	FetchRounds   prometheus.Counter
	FetchRetries  prometheus.Counter
	FetchSuccess  prometheus.Counter
	CacheHits     prometheus.Counter
}

// NewMetrics builds a Metrics value with freshly constructed counters.
func NewMetrics() *Metrics {
	return &Metrics{
		FetchRounds: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "collector",
			Name:      "fetch_rounds_total",
			Help:      "Number of download_descriptors retry rounds executed.",
		}),
		FetchRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "collector",
			Name:      "fetch_retries_total",
			Help:      "Number of per-file fetch tasks retried in a later round.",
		}),
		FetchSuccess: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "collector",
			Name:      "fetch_success_total",
			Help:      "Number of files successfully fetched or confirmed cached.",
		}),
		CacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "collector",
			Name:      "fetch_cache_hits_total",
			Help:      "Number of verified fetches short-circuited by a local hash match.",
		}),
	}
}

// Describe and Collect implement prometheus.Collector so a Metrics value can
// be passed directly to a Registerer.
func (m *Metrics) Describe(ch chan<- *prometheus.Desc) {
	prometheus.DescribeByCollect(m, ch)
}

func (m *Metrics) Collect(ch chan<- prometheus.Metric) {
	for _, c := range []prometheus.Counter{m.FetchRounds, m.FetchRetries, m.FetchSuccess, m.CacheHits} {
		ch <- c
	}
}
