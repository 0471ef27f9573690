// Package prom exposes telemetry state and HTTP traffic as Prometheus metrics.
package prom

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vshulcz/Perfwatch/internal/domain"
)

const (
	namespace  = "perfwatch"
	bytesPerMB = 1 << 20
)

// Source supplies the values read on every scrape. *telemetry.Context satisfies it.
type Source interface {
	Snapshot() domain.MetricsSnapshot
	Score() domain.Score
}

// Collector converts a fresh snapshot into metrics at scrape time.
type Collector struct {
	src Source

	fps, memory, peakMemory, avgFrame *prometheus.Desc
	jankFrames, totalFrames, rebuilds *prometheus.Desc
	setState, depth, nodes, oversized *prometheus.Desc
	undisposed, warnings, janking     *prometheus.Desc
	leaking, score, scoreComponent    *prometheus.Desc
}

var _ prometheus.Collector = (*Collector)(nil)

func desc(name, help string, labels ...string) *prometheus.Desc {
	return prometheus.NewDesc(prometheus.BuildFQName(namespace, "", name), help, labels, nil)
}

func NewCollector(src Source) *Collector {
	return &Collector{
		src:            src,
		fps:            desc("fps", "Frames per second over the trailing second."),
		memory:         desc("memory_bytes", "Last memory sample."),
		peakMemory:     desc("memory_peak_bytes", "Peak memory sample."),
		avgFrame:       desc("frame_avg_seconds", "Average frame phase duration over the trailing two seconds.", "phase"),
		jankFrames:     desc("jank_frames_total", "Frames slower than the warning threshold."),
		totalFrames:    desc("frames_total", "Frames ingested."),
		rebuilds:       desc("rebuilds_total", "Rebuild events recorded."),
		setState:       desc("set_state_total", "State mutation calls recorded."),
		depth:          desc("tree_depth", "Deepest measured tree depth."),
		nodes:          desc("tree_nodes", "Node count of the last tree measurement."),
		oversized:      desc("oversized_widgets", "Widgets measured above the size limit."),
		undisposed:     desc("undisposed_resources", "Tracked resources alive past the max age."),
		warnings:       desc("warnings", "Warnings held in the store.", "kind"),
		janking:        desc("janking", "1 while jank frames cluster in the trailing second."),
		leaking:        desc("memory_leaking", "1 while the leak heuristic holds."),
		score:          desc("score", "Weighted health score."),
		scoreComponent: desc("score_component", "Health sub-score.", "component"),
	}
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	for _, d := range []*prometheus.Desc{
		c.fps, c.memory, c.peakMemory, c.avgFrame, c.jankFrames, c.totalFrames, c.rebuilds,
		c.setState, c.depth, c.nodes, c.oversized, c.undisposed, c.warnings, c.janking,
		c.leaking, c.score, c.scoreComponent,
	} {
		ch <- d
	}
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	snap := c.src.Snapshot()
	sc := c.src.Score()

	gauge := func(d *prometheus.Desc, v float64, labels ...string) {
		ch <- prometheus.MustNewConstMetric(d, prometheus.GaugeValue, v, labels...)
	}
	counter := func(d *prometheus.Desc, v int) {
		ch <- prometheus.MustNewConstMetric(d, prometheus.CounterValue, float64(v))
	}

	gauge(c.fps, snap.FPS)
	gauge(c.memory, snap.MemoryMB*bytesPerMB)
	gauge(c.peakMemory, snap.PeakMemoryMB*bytesPerMB)
	gauge(c.avgFrame, snap.AvgBuildMs/1000, "build")
	gauge(c.avgFrame, snap.AvgRasterMs/1000, "raster")
	gauge(c.avgFrame, snap.AvgFrameMs/1000, "total")
	counter(c.jankFrames, snap.JankFrames)
	counter(c.totalFrames, snap.TotalFrames)
	counter(c.rebuilds, snap.TotalRebuilds)
	counter(c.setState, snap.TotalSetState)
	gauge(c.depth, float64(snap.MaxDepth))
	gauge(c.nodes, float64(snap.NodeCount))
	gauge(c.oversized, float64(snap.OversizedCount))
	gauge(c.undisposed, float64(len(snap.Undisposed)))
	for _, k := range domain.WarningKinds {
		gauge(c.warnings, float64(snap.WarningsByKind[k]), string(k))
	}
	gauge(c.janking, boolFloat(snap.IsJanking))
	gauge(c.leaking, boolFloat(snap.IsLeaking))

	gauge(c.score, float64(sc.Total))
	for _, p := range []struct {
		name string
		v    int
	}{
		{"fps", sc.FPS}, {"memory", sc.Memory}, {"rebuilds", sc.Rebuilds}, {"jank", sc.Jank},
		{"warnings", sc.Warnings}, {"set_state", sc.SetState}, {"depth", sc.Depth},
	} {
		gauge(c.scoreComponent, float64(p.v), p.name)
	}
}

func boolFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// HTTPMetrics counts and times requests by route template.
type HTTPMetrics struct {
	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec
}

func NewHTTPMetrics() *HTTPMetrics {
	return &HTTPMetrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests served.",
		}, []string{"method", "route", "status"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
}

func (m *HTTPMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.requests.Describe(ch)
	m.latency.Describe(ch)
}

func (m *HTTPMetrics) Collect(ch chan<- prometheus.Metric) {
	m.requests.Collect(ch)
	m.latency.Collect(ch)
}

// Middleware records every request. Unmatched routes are labeled "unmatched".
func (m *HTTPMetrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		method := c.Request.Method
		m.requests.WithLabelValues(method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.latency.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
	}
}

// NewRegistry registers the given collectors plus the Go and process collectors.
func NewRegistry(cs ...prometheus.Collector) (*prometheus.Registry, error) {
	reg := prometheus.NewRegistry()
	all := append([]prometheus.Collector{
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	}, cs...)
	for _, c := range all {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

// Handler serves the registry in the text exposition format.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
