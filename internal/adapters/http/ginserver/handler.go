package ginserver

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"

	"github.com/vshulcz/Perfwatch/internal/domain"
	"github.com/vshulcz/Perfwatch/internal/services/reporting"
	"github.com/vshulcz/Perfwatch/internal/services/telemetry"
)

// Handler exposes the telemetry context over HTTP.
type Handler struct {
	tc      *telemetry.Context
	reports *reporting.Service
	metrics http.Handler
}

// HandlerOption customizes a Handler.
type HandlerOption func(*Handler)

// WithMetricsHandler serves h at /metrics.
func WithMetricsHandler(h http.Handler) HandlerOption {
	return func(hd *Handler) { hd.metrics = h }
}

// NewHandler wires a telemetry context and an optional reporting service into gin handlers.
func NewHandler(tc *telemetry.Context, reports *reporting.Service, opts ...HandlerOption) *Handler {
	h := &Handler{tc: tc, reports: reports}
	for _, o := range opts {
		o(h)
	}
	return h
}

var envelopeBatchPool = sync.Pool{
	New: func() any {
		batch := make([]domain.EventEnvelope, 0, 256)
		return &batch
	},
}

func decodeEventBatch(r io.Reader) ([]domain.EventEnvelope, func(), error) {
	buf, ok := envelopeBatchPool.Get().(*[]domain.EventEnvelope)
	if !ok {
		fresh := make([]domain.EventEnvelope, 0, 256)
		buf = &fresh
	}
	items := (*buf)[:0]
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&items); err != nil {
		envelopeBatchPool.Put(buf)
		return nil, func() {}, err
	}
	cleanup := func() {
		clear(items)
		*buf = items[:0]
		envelopeBatchPool.Put(buf)
	}
	return items, cleanup, nil
}

// IngestEvents handles `POST /api/v1/events` with a JSON array of event envelopes.
// Envelopes that fail to decode are counted as rejected; the rest are ingested in order.
func (h *Handler) IngestEvents(c *gin.Context) {
	items, release, err := decodeEventBatch(c.Request.Body)
	if err != nil {
		c.String(http.StatusBadRequest, "bad request")
		return
	}
	defer release()

	accepted, rejected := 0, 0
	for _, env := range items {
		ev, err := env.Decode()
		if err != nil {
			rejected++
			continue
		}
		h.tc.Ingest(ev)
		accepted++
	}
	c.JSON(http.StatusOK, gin.H{"accepted": accepted, "rejected": rejected})
}

// RecordKeyed handles `POST /api/v1/rebuild/:key` and `POST /api/v1/setstate/:key`.
func (h *Handler) RecordKeyed(kind domain.EventKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := strings.TrimSpace(c.Param("key"))
		if key == "" {
			c.String(http.StatusNotFound, "not found")
			return
		}
		h.tc.RecordEvent(kind, key)
		c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte("ok"))
	}
}

type frameDTO struct {
	BuildMs  float64 `json:"buildMs"`
	RasterMs float64 `json:"rasterMs"`
	TotalMs  float64 `json:"totalMs"`
	TS       int64   `json:"ts"`
}

// IngestFrames handles `POST /api/v1/frames`.
func (h *Handler) IngestFrames(c *gin.Context) {
	var in []frameDTO
	if err := c.ShouldBindJSON(&in); err != nil {
		c.String(http.StatusBadRequest, "bad request")
		return
	}
	records := make([]domain.FrameTimingRecord, 0, len(in))
	for _, f := range in {
		env := domain.EventEnvelope{Type: domain.KindFrame, BuildMs: f.BuildMs, RasterMs: f.RasterMs, TotalMs: f.TotalMs, TS: f.TS}
		ev, err := env.Decode()
		if err != nil {
			continue
		}
		if rec, ok := ev.(domain.FrameTimingRecord); ok {
			records = append(records, rec)
		}
	}
	h.tc.IngestFrameTimings(records)
	c.JSON(http.StatusOK, gin.H{"accepted": len(records)})
}

// IngestMemory handles `POST /api/v1/memory`.
func (h *Handler) IngestMemory(c *gin.Context) {
	var in struct {
		UsageMB *float64 `json:"usageMB"`
	}
	if err := c.ShouldBindJSON(&in); err != nil || in.UsageMB == nil {
		c.String(http.StatusBadRequest, "bad request")
		return
	}
	h.tc.IngestMemorySample(*in.UsageMB)
	c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte("ok"))
}

// MeasureDepth handles `POST /api/v1/measure/depth`. An empty body runs the configured tree walker.
func (h *Handler) MeasureDepth(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.String(http.StatusBadRequest, "bad request")
		return
	}
	var m domain.DepthMeasurement
	if len(strings.TrimSpace(string(body))) == 0 {
		if !h.tc.HasTreeWalker() {
			httpError(c, domain.ErrNotConfigured)
			return
		}
		m = h.tc.MeasureDepth()
	} else {
		var in struct {
			Depth     int `json:"depth"`
			NodeCount int `json:"nodeCount"`
		}
		if err := json.Unmarshal(body, &in); err != nil {
			c.String(http.StatusBadRequest, "bad request")
			return
		}
		m = h.tc.RecordDepth(in.Depth, in.NodeCount)
	}
	c.JSON(http.StatusOK, domain.EnvelopeOf(m))
}

// MeasureSize handles `POST /api/v1/measure/size`.
func (h *Handler) MeasureSize(c *gin.Context) {
	var in struct {
		Key    string  `json:"key"`
		Width  float64 `json:"width"`
		Height float64 `json:"height"`
	}
	if err := c.ShouldBindJSON(&in); err != nil || strings.TrimSpace(in.Key) == "" {
		c.String(http.StatusBadRequest, "bad request")
		return
	}
	m := h.tc.MeasureSize(strings.TrimSpace(in.Key), in.Width, in.Height)
	c.JSON(http.StatusOK, domain.EnvelopeOf(m))
}

// Snapshot handles `GET /api/v1/snapshot`.
func (h *Handler) Snapshot(c *gin.Context) {
	c.JSON(http.StatusOK, h.tc.Snapshot())
}

// Score handles `GET /api/v1/score`.
func (h *Handler) Score(c *gin.Context) {
	c.JSON(http.StatusOK, h.tc.Score())
}

// Suggestions handles `GET /api/v1/suggestions`.
func (h *Handler) Suggestions(c *gin.Context) {
	out := h.tc.Suggestions(c.Request.Context())
	if out == nil {
		out = []domain.Suggestion{}
	}
	c.JSON(http.StatusOK, out)
}

// History handles `GET /api/v1/history`. `?record=1` captures a snapshot first.
func (h *Handler) History(c *gin.Context) {
	if c.Query("record") == "1" {
		h.tc.RecordHistory()
	}
	snaps := h.tc.History()
	if snaps == nil {
		snaps = []domain.MetricsSnapshot{}
	}
	c.JSON(http.StatusOK, gin.H{"trend": h.tc.Trend(), "snapshots": snaps})
}

// Warnings handles `GET /api/v1/warnings` with optional `kind` and `severity` filters.
func (h *Handler) Warnings(c *gin.Context) {
	kind := domain.WarningKind(c.Query("kind"))
	sev := domain.Severity(c.Query("severity"))
	out := make([]domain.Warning, 0)
	for _, w := range h.tc.Warnings() {
		if kind != "" && w.Kind != kind {
			continue
		}
		if sev != "" && w.Severity != sev {
			continue
		}
		out = append(out, w)
	}
	c.JSON(http.StatusOK, out)
}

// ReportText handles `GET /api/v1/report`.
func (h *Handler) ReportText(c *gin.Context) {
	c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(h.tc.Report()))
}

// ReportJSON handles `GET /api/v1/report.json`.
func (h *Handler) ReportJSON(c *gin.Context) {
	c.JSON(http.StatusOK, h.tc.JSONReport())
}

// SaveReport handles `POST /api/v1/report.json`: renders and persists a report.
func (h *Handler) SaveReport(c *gin.Context) {
	if h.reports == nil {
		httpError(c, domain.ErrNotConfigured)
		return
	}
	id, r, err := h.reports.Save(c.Request.Context())
	if err != nil {
		httpError(c, err)
		return
	}
	c.JSON(http.StatusCreated, domain.StoredReport{ID: id, Report: r})
}

// ListReports handles `GET /api/v1/reports?limit=n`.
func (h *Handler) ListReports(c *gin.Context) {
	if h.reports == nil {
		httpError(c, domain.ErrNotConfigured)
		return
	}
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			c.String(http.StatusBadRequest, "bad request")
			return
		}
		limit = n
	}
	list, err := h.reports.List(c.Request.Context(), limit)
	if err != nil {
		httpError(c, err)
		return
	}
	if list == nil {
		list = []domain.StoredReport{}
	}
	c.JSON(http.StatusOK, list)
}

// GetReport handles `GET /api/v1/reports/:id`.
func (h *Handler) GetReport(c *gin.Context) {
	if h.reports == nil {
		httpError(c, domain.ErrNotConfigured)
		return
	}
	r, err := h.reports.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		httpError(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

// Ping proxies `GET /ping` to the report store health check.
func (h *Handler) Ping(c *gin.Context) {
	if h.reports == nil {
		httpError(c, domain.ErrNotConfigured)
		return
	}
	if err := h.reports.Ping(c.Request.Context()); err != nil {
		if errors.Is(err, domain.ErrNotConfigured) {
			httpError(c, err)
			return
		}
		c.String(http.StatusInternalServerError, "db ping error: %v", err)
		return
	}
	c.String(http.StatusOK, "ok")
}

func httpError(c *gin.Context, err error) {
	switch {
	case err == nil:
		return
	case errors.Is(err, domain.ErrNotFound):
		c.String(http.StatusNotFound, "not found")
	case errors.Is(err, domain.ErrInvalidEvent):
		c.String(http.StatusBadRequest, "bad request")
	case errors.Is(err, domain.ErrNotConfigured):
		c.String(http.StatusServiceUnavailable, "not configured")
	default:
		c.String(http.StatusInternalServerError, "internal error")
	}
}
