package middleware

import (
	"net/http"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestRedactingLogger_ScrubsQueryAndHeaders(t *testing.T) {
	buf := captureLogs(t)
	r := newEngine()
	r.Use(RequestID(), RedactingLogger(RedactOptions{MaskHeaders: []string{" X-Api-Key "}}))
	r.GET("/sessions/:id/messages", func(c *gin.Context) { c.Status(http.StatusOK) })

	do(r, http.MethodGet,
		"/sessions/141add05-4415-4938-b5a1-17e0d3171aff/messages?email=ayse@example.com&tel=212-555-1212",
		map[string]string{
			"Authorization": "Bearer secret",
			"X-Api-Key":     "k",
			"X-Note":        "call +90 212 555 1212",
			requestIDHeader: "rid-r",
		})

	lines := logLines(t, buf)
	if len(lines) != 1 {
		t.Fatalf("lines: %s", buf.String())
	}
	ln := lines[0]
	if ln["message"] != "http_request" || ln["level"] != "info" || ln["request_id"] != "rid-r" {
		t.Fatalf("line: %v", ln)
	}
	if ln["path"] != "/sessions/:id/messages" {
		t.Fatalf("path must be the route: %v", ln["path"])
	}
	q := ln["query"].(string)
	if strings.Contains(q, "ayse@") || !strings.Contains(q, "[REDACTED:email]") || !strings.Contains(q, "[REDACTED:phone]") {
		t.Fatalf("query not scrubbed: %q", q)
	}
	h := ln["headers"].(map[string]any)
	if h["Authorization"] != "[REDACTED]" || h["X-Api-Key"] != "[REDACTED]" {
		t.Fatalf("masked headers: %v", h)
	}
	if !strings.Contains(h["X-Note"].(string), "[REDACTED:phone]") {
		t.Fatalf("header values scrubbed: %v", h["X-Note"])
	}
}

func TestRedactingLogger_LevelsAndHeaderRequestID(t *testing.T) {
	buf := captureLogs(t)
	r := newEngine()
	r.Use(func(c *gin.Context) { c.Header(requestIDHeader, "rid-h"); c.Next() })
	r.Use(RedactingLogger(RedactOptions{}))
	r.GET("/bad", func(c *gin.Context) { c.Status(http.StatusBadRequest) })
	r.GET("/fail", func(c *gin.Context) { c.Status(http.StatusServiceUnavailable) })

	do(r, http.MethodGet, "/bad", nil)
	do(r, http.MethodGet, "/fail", nil)

	lines := logLines(t, buf)
	if lines[0]["level"] != "warn" || lines[1]["level"] != "error" {
		t.Fatalf("levels: %v / %v", lines[0]["level"], lines[1]["level"])
	}
	if lines[0]["request_id"] != "rid-h" {
		t.Fatalf("request id from response header: %v", lines[0])
	}
}

func TestRedact_UUIDBeforePhone(t *testing.T) {
	got := redact("id=123e4567-e89b-12d3-a456-426614174000")
	if got != "id=[REDACTED:id]" {
		t.Fatalf("redact = %q", got)
	}
	if redact("") != "" || redact("bitter çikolata") != "bitter çikolata" {
		t.Fatal("plain text must pass")
	}
}
