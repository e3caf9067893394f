package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/geocoder89/taskhub/internal/actorctx"
	"github.com/geocoder89/taskhub/internal/domain/user"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func TestClassifyDBErr(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{&pgconn.PgError{Code: "23505"}, "unique_violation"},
		{fmt.Errorf("wrapped: %w", &pgconn.PgError{Code: "40P01"}), "deadlock"},
		{&pgconn.PgError{Code: "42P01"}, "pg_42P01"},
		{errors.New("context deadline exceeded"), "timeout"},
		{errors.New("failed to connect: connection refused"), "connection"},
		{errors.New("boom"), "unknown"},
	}

	for _, tc := range tests {
		if got := classifyDBErr(tc.err); got != tc.want {
			t.Fatalf("classifyDBErr(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
}

func TestObserveDB(t *testing.T) {
	p := NewProm(prometheus.NewRegistry())

	_ = p.ObserveDB("users.find_by_email", func() error { return pgx.ErrNoRows })
	_ = p.ObserveDB("users.insert", func() error { return &pgconn.PgError{Code: "23505"} })
	_ = p.ObserveDB("users.insert", func() error { return nil })

	if got := testutil.ToFloat64(p.DbErrorsTotal.WithLabelValues("users.insert", "unique_violation")); got != 1 {
		t.Fatalf("unique_violation count = %v, want 1", got)
	}
	if got := testutil.CollectAndCount(p.DbErrorsTotal); got != 1 {
		t.Fatalf("not-found must not count as a db error, series=%d", got)
	}
	if got := testutil.CollectAndCount(p.DbQueryDuration); got != 3 {
		t.Fatalf("expected 3 duration series (not_found, error, ok), got %d", got)
	}
}

func TestObserveDB_NilProm(t *testing.T) {
	var p *Prom
	called := false

	if err := p.ObserveDB("op", func() error { called = true; return nil }); err != nil || !called {
		t.Fatalf("nil Prom should still run fn: called=%v err=%v", called, err)
	}
}

func TestAuthOutcome(t *testing.T) {
	p := NewProm(prometheus.NewRegistry())

	p.AuthOutcome("login", "invalid_credentials")
	p.AuthOutcome("login", "invalid_credentials")
	p.AuthOutcome("login", "ok")

	if got := testutil.ToFloat64(p.AuthOutcomes.WithLabelValues("login", "invalid_credentials")); got != 2 {
		t.Fatalf("invalid_credentials = %v, want 2", got)
	}
}

func TestGinHandleMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	p := NewProm(prometheus.NewRegistry())
	r := gin.New()
	r.Use(p.GinHandleMiddleware())
	r.GET("/api/v1/auth/me", func(ctx *gin.Context) { ctx.Status(http.StatusForbidden) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil))

	if got := testutil.ToFloat64(p.RequestsTotal.WithLabelValues("GET", "/api/v1/auth/me", "403")); got != 1 {
		t.Fatalf("requests_total = %v, want 1", got)
	}
}

func TestLogger_StampsTraceIDs(t *testing.T) {
	var buf bytes.Buffer
	log := newLogger(&buf, "prod")

	tp := sdktrace.NewTracerProvider()
	defer func() { _ = tp.Shutdown(context.Background()) }()

	ctx, span := tp.Tracer("test").Start(context.Background(), "op")
	log.InfoContext(ctx, "hello")
	span.End()

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("log line is not JSON: %v (%s)", err, buf.String())
	}

	if rec["trace_id"] != span.SpanContext().TraceID().String() {
		t.Fatalf("trace_id = %v, want %s", rec["trace_id"], span.SpanContext().TraceID())
	}
	if rec["span_id"] == nil {
		t.Fatalf("expected span_id in %v", rec)
	}

	buf.Reset()
	log.Debug("hidden")
	if buf.Len() != 0 {
		t.Fatalf("debug must be filtered outside dev, got %s", buf.String())
	}
}

func TestLogger_StampsUserID(t *testing.T) {
	var buf bytes.Buffer
	log := newLogger(&buf, "prod")

	ctx := actorctx.WithUser(context.Background(), user.User{ID: "u-42"})
	log.InfoContext(ctx, "hello")

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("log line is not JSON: %v (%s)", err, buf.String())
	}
	if rec["user_id"] != "u-42" {
		t.Fatalf("user_id = %v", rec["user_id"])
	}
	if _, ok := rec["trace_id"]; ok {
		t.Fatalf("no span, so no trace_id expected: %v", rec)
	}
}

func TestInitTracer_NoEndpoint(t *testing.T) {
	shutdown, err := InitTracer(context.Background(), "taskhub-test", "test", "")
	if err != nil {
		t.Fatalf("InitTracer: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
}
