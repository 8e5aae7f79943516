package metrics

import (
	"database/sql"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	_ "modernc.org/sqlite"
)

func TestCountersIncrement(t *testing.T) {
	before := testutil.ToFloat64(generationFailed.WithLabelValues("malformed"))
	IncGenerationFailed("malformed")
	after := testutil.ToFloat64(generationFailed.WithLabelValues("malformed"))
	if after-before != 1 {
		t.Fatalf("expected malformed counter to grow by 1, got %v", after-before)
	}

	SetActiveSessions(4)
	if got := testutil.ToFloat64(activeSessions); got != 4 {
		t.Fatalf("active sessions = %v, want 4", got)
	}
}

func TestHandlerRendersPrometheusText(t *testing.T) {
	gin.SetMode(gin.TestMode)
	IncGenerationStarted()
	ObserveGenerationDurationMs(-5)

	r := gin.New()
	r.GET("/metrics", Handler())

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("status = %d", resp.Code)
	}
	body := resp.Body.String()
	for _, want := range []string{"generation_started_total", "generation_duration_ms_bucket"} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected %q in metrics output", want)
		}
	}
}

func TestRegisterDBExportsPoolStats(t *testing.T) {
	gin.SetMode(gin.TestMode)
	sqlDB, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer sqlDB.Close()

	RegisterDB(sqlDB, "metrics_test")
	RegisterDB(sqlDB, "metrics_test")

	r := gin.New()
	r.GET("/metrics", Handler())
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if !strings.Contains(rec.Body.String(), `go_sql_max_open_connections{db_name="metrics_test"}`) {
		t.Fatalf("pool stats missing from metrics output")
	}
}
