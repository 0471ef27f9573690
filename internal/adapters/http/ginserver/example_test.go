package ginserver_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/vshulcz/Perfwatch/internal/adapters/http/ginserver"
	"github.com/vshulcz/Perfwatch/internal/adapters/repository/memory"
	"github.com/vshulcz/Perfwatch/internal/clock"
	"github.com/vshulcz/Perfwatch/internal/domain"
	"github.com/vshulcz/Perfwatch/internal/services/reporting"
	"github.com/vshulcz/Perfwatch/internal/services/telemetry"
)

func newExampleRouter() (*gin.Engine, func()) {
	gin.SetMode(gin.TestMode)
	clk := clock.NewManual(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	tc := telemetry.New(telemetry.DefaultOptions(), telemetry.WithClock(clk))
	_ = tc.Start(context.Background())
	handler := ginserver.NewHandler(tc, reporting.New(tc, memory.New(10)))
	return ginserver.NewRouter(handler, zap.NewNop()), tc.Stop
}

func ExampleNewRouter_keyedEvents() {
	router, stop := newExampleRouter()
	defer stop()

	for range 3 {
		resp := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/rebuild/ProductCard", nil)
		router.ServeHTTP(resp, req)
	}

	resp := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/snapshot", nil)
	router.ServeHTTP(resp, req)

	var snap domain.MetricsSnapshot
	_ = json.Unmarshal(resp.Body.Bytes(), &snap)
	fmt.Println(resp.Code, snap.TotalRebuilds, snap.TopRebuilders[0].Key)

	// Output:
	// 200 3 ProductCard
}

func ExampleNewRouter_eventBatch() {
	router, stop := newExampleRouter()
	defer stop()

	body := bytes.NewBufferString(`[
		{"type":"memory","usageMB":450},
		{"type":"setState","key":"Cart"},
		{"type":"rebuild"}
	]`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/events", body)
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	fmt.Println(resp.Code, strings.TrimSpace(resp.Body.String()))

	req = httptest.NewRequest(http.MethodGet, "/api/v1/warnings", nil)
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	var ws []domain.Warning
	_ = json.Unmarshal(resp.Body.Bytes(), &ws)
	for _, w := range ws {
		fmt.Println(w.Kind, w.Severity)
	}

	// Output:
	// 200 {"accepted":2,"rejected":1}
	// highMemory warning
}
