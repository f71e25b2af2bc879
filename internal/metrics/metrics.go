package metrics

import (
	"context"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

const namespace = "pdf2webp"

// Registry holds the function's collectors. A Lambda process cannot be
// scraped, so collectors live on a private registry that is pushed after
// each invocation when a Pushgateway is configured.
var Registry = prometheus.NewRegistry()

var (
	invocations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "invocations_total",
			Help:      "Invocations by response status code and error kind",
		},
		[]string{"status", "kind"},
	)

	invocationDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "invocation_duration_seconds",
			Help:      "Wall time of a whole invocation",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300, 900},
		},
	)

	pagesConverted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pages_converted_total",
			Help:      "Pages rendered, by result (uploaded, skipped, failed)",
		},
		[]string{"result"},
	)

	pageRenderDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "page_render_duration_seconds",
			Help:      "Time to rasterize and encode one page",
			Buckets:   prometheus.DefBuckets,
		},
	)

	bytesUploaded = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "uploaded_bytes_total",
			Help:      "Bytes written to the bucket by object kind (page, manifest)",
		},
		[]string{"kind"},
	)
)

func init() {
	Registry.MustRegister(invocations, invocationDuration, pagesConverted, pageRenderDuration, bytesUploaded)
}

func ObserveInvocation(status int, kind string, dur time.Duration) {
	invocations.WithLabelValues(strconv.Itoa(status), kind).Inc()
	invocationDuration.Observe(dur.Seconds())
}

func ObservePageRender(dur time.Duration) { pageRenderDuration.Observe(dur.Seconds()) }

func IncPage(result string) { pagesConverted.WithLabelValues(result).Inc() }

func AddUploaded(kind string, n int) { bytesUploaded.WithLabelValues(kind).Add(float64(n)) }

// Push sends the registry to a Pushgateway. An empty URL disables pushing.
func Push(ctx context.Context, url, job string) error {
	if url == "" {
		return nil
	}
	return push.New(url, job).Gatherer(Registry).PushContext(ctx)
}
