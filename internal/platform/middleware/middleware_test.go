package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

func TestRequestIDGenerated(t *testing.T) {
	e := echo.New()
	e.Use(RequestID())
	e.GET("/", func(c echo.Context) error {
		rid, _ := c.Get("request_id").(string)
		return c.String(http.StatusOK, rid)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	rid := rec.Header().Get(RequestIDHeader)
	if rid == "" {
		t.Fatal("no request ID in response header")
	}
	if _, err := uuid.Parse(rid); err != nil {
		t.Errorf("generated ID %q is not a UUID: %v", rid, err)
	}
	if rec.Body.String() != rid {
		t.Error("context request_id differs from the response header")
	}
}

func TestRequestIDPreserved(t *testing.T) {
	e := echo.New()
	e.Use(RequestID())
	e.GET("/", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "caller-supplied-id")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if got := rec.Header().Get(RequestIDHeader); got != "caller-supplied-id" {
		t.Errorf("request ID = %q, want the caller's", got)
	}
}

func TestLoggerEmitsRequestLine(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	e := echo.New()
	e.Use(RequestID())
	e.Use(Logger(logger))
	e.GET("/ping", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) })

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	var line map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("log line is not JSON: %v\n%s", err, buf.String())
	}
	if line["method"] != "GET" || line["path"] != "/ping" {
		t.Errorf("log line = %v", line)
	}
	if line["status"] != float64(http.StatusNoContent) {
		t.Errorf("status = %v, want 204", line["status"])
	}
	if line["request_id"] == "" {
		t.Error("log line has no request_id")
	}
}

func TestRecoveryConvertsPanic(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	e := echo.New()
	e.Use(Recovery(logger))
	e.GET("/boom", func(c echo.Context) error { panic("kaboom") })

	req := httptest.NewRequest(http.MethodGet, "/boom", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
	if !strings.Contains(buf.String(), "kaboom") {
		t.Error("panic value missing from the log")
	}
	if !strings.Contains(buf.String(), "panic recovered") {
		t.Error("recovery log line missing")
	}
}

func TestRecoveryPassesThrough(t *testing.T) {
	e := echo.New()
	e.Use(Recovery(zerolog.Nop()))
	e.GET("/", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Errorf("status = %d, body = %q", rec.Code, rec.Body.String())
	}
}
