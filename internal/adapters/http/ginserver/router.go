package ginserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/vshulcz/Perfwatch/internal/domain"
)

func NewRouter(h *Handler, _ *zap.Logger, middlewares ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()

	r.Use(gin.Recovery())
	for _, mw := range middlewares {
		r.Use(mw)
	}

	r.RedirectTrailingSlash = false
	r.RemoveExtraSlash = true

	r.HandleMethodNotAllowed = true
	r.NoMethod(func(c *gin.Context) {
		c.String(http.StatusMethodNotAllowed, "method not allowed")
	})

	r.GET("/ping", h.Ping)
	if h.metrics != nil {
		r.GET("/metrics", gin.WrapH(h.metrics))
	}

	api := r.Group("/api/v1")

	// ingestion
	api.POST("/events", h.IngestEvents)
	api.POST("/rebuild/:key", h.RecordKeyed(domain.KindRebuild))
	api.POST("/setstate/:key", h.RecordKeyed(domain.KindSetState))
	api.POST("/frames", h.IngestFrames)
	api.POST("/memory", h.IngestMemory)
	api.POST("/measure/depth", h.MeasureDepth)
	api.POST("/measure/size", h.MeasureSize)

	// pull
	api.GET("/snapshot", h.Snapshot)
	api.GET("/score", h.Score)
	api.GET("/suggestions", h.Suggestions)
	api.GET("/history", h.History)
	api.GET("/warnings", h.Warnings)
	api.GET("/report", h.ReportText)
	api.GET("/report.json", h.ReportJSON)
	api.POST("/report.json", h.SaveReport)
	api.GET("/reports", h.ListReports)
	api.GET("/reports/:id", h.GetReport)

	return r
}
