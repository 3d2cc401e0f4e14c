package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics(t *testing.T) {
	r := newEngine()
	r.Use(Metrics("/metrics"))
	r.GET("/sessions/:id", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	r.POST("/sessions/:id/messages", func(c *gin.Context) { c.Status(http.StatusCreated) })
	r.GET("/metrics", func(c *gin.Context) { c.String(http.StatusOK, "scrape") })

	route := httpReqs.WithLabelValues("GET", "/sessions/:id", "200")
	missing := httpReqs.WithLabelValues("GET", "/nope", "404")
	scrape := httpReqs.WithLabelValues("GET", "/metrics", "200")
	baseRoute, baseMissing, baseScrape := testutil.ToFloat64(route), testutil.ToFloat64(missing), testutil.ToFloat64(scrape)

	do(r, http.MethodGet, "/sessions/abc", nil)
	do(r, http.MethodGet, "/sessions/def", nil)
	do(r, http.MethodGet, "/nope", nil)
	do(r, http.MethodGet, "/metrics", nil)

	if got := testutil.ToFloat64(route) - baseRoute; got != 2 {
		t.Fatalf("route counter delta = %v (ids must not become labels)", got)
	}
	if got := testutil.ToFloat64(missing) - baseMissing; got != 1 {
		t.Fatalf("unmatched path counter delta = %v", got)
	}
	if got := testutil.ToFloat64(scrape) - baseScrape; got != 0 {
		t.Fatalf("skipped path was counted: %v", got)
	}
	if got := testutil.ToFloat64(httpInflight); got != 0 {
		t.Fatalf("inflight = %v", got)
	}
	if n := testutil.CollectAndCount(httpLat); n == 0 {
		t.Fatal("latency histogram empty")
	}
}

func TestMetrics_RequestSize(t *testing.T) {
	r := newEngine()
	r.Use(Metrics())
	r.POST("/size/:id", func(c *gin.Context) { c.Status(http.StatusCreated) })

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/size/1", strings.NewReader(`{"content":"bitter"}`)))

	if n := testutil.CollectAndCount(httpReqSize, "http_request_size_bytes"); n == 0 {
		t.Fatal("request size histogram empty")
	}
}
