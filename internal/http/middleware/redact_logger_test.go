package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// captureLogs swaps the global logger for a buffer for the test's duration.
func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	old := log.Logger
	log.Logger = zerolog.New(&buf)
	t.Cleanup(func() { log.Logger = old })
	return &buf
}

func redactRouter() *gin.Engine {
	r := gin.New()
	r.Use(RequestID())
	r.Use(RedactingLogger(RedactOptions{MaskHeaders: []string{"X-API-Key"}}))
	r.GET("/rides", func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func TestRedactingLogger_ScrubsEmailAndPhone(t *testing.T) {
	buf := captureLogs(t)
	r := redactRouter()

	req := httptest.NewRequest(http.MethodGet, "/rides?contact=priya%40campus.edu&phone=%2B91+98765+43210", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	out := buf.String()
	if strings.Contains(out, "priya@campus.edu") {
		t.Fatalf("email leaked into logs: %s", out)
	}
	if strings.Contains(out, "98765") {
		t.Fatalf("phone leaked into logs: %s", out)
	}
	if !strings.Contains(out, "[REDACTED:email]") {
		t.Fatalf("email not redacted: %s", out)
	}
}

func TestRedactingLogger_ScrubsDocumentIDs(t *testing.T) {
	buf := captureLogs(t)
	r := redactRouter()

	req := httptest.NewRequest(http.MethodGet, "/rides?ride=665f1c2ab1e5a3d4c8f90e12", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	out := buf.String()
	if strings.Contains(out, "665f1c2ab1e5a3d4c8f90e12") {
		t.Fatalf("document id leaked into logs: %s", out)
	}
	if !strings.Contains(out, "[REDACTED:id]") {
		t.Fatalf("id not redacted: %s", out)
	}
}

func TestRedactingLogger_MasksSensitiveHeaders(t *testing.T) {
	buf := captureLogs(t)
	r := redactRouter()

	req := httptest.NewRequest(http.MethodGet, "/rides", nil)
	req.Header.Set("Authorization", "Bearer secret-token")
	req.Header.Set("X-API-Key", "super-secret")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	out := buf.String()
	if strings.Contains(out, "secret-token") || strings.Contains(out, "super-secret") {
		t.Fatalf("sensitive header leaked: %s", out)
	}
	if !strings.Contains(out, "[REDACTED]") {
		t.Fatalf("headers not masked: %s", out)
	}
}

func TestRedactingLogger_AttachesRequestLogger(t *testing.T) {
	_ = captureLogs(t)
	r := gin.New()
	r.Use(RequestID())
	r.Use(RedactingLogger(RedactOptions{}))

	var sawLogger bool
	r.GET("/", func(c *gin.Context) {
		_, sawLogger = c.Get(loggerKey)
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	if !sawLogger {
		t.Fatalf("request-scoped logger not attached")
	}
}
