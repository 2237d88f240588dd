package middleware

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

func newTracedApp(t *testing.T) (*fiber.App, *tracetest.SpanRecorder) {
	t.Helper()
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	app := fiber.New()
	app.Use(TracingMiddleware(tp))
	app.Get("/api/posts/:id", func(c *fiber.Ctx) error {
		c.Locals("userID", uint(7))
		return c.SendString("ok")
	})
	app.Get("/api/boom", func(c *fiber.Ctx) error { return errors.New("boom") })
	app.Get("/api/missing", func(c *fiber.Ctx) error { return fiber.ErrNotFound })
	app.Get("/health/live", func(c *fiber.Ctx) error { return c.SendString("ok") })
	return app, sr
}

func spanAttr(s sdktrace.ReadOnlySpan, key attribute.Key) attribute.Value {
	for _, kv := range s.Attributes() {
		if kv.Key == key {
			return kv.Value
		}
	}
	return attribute.Value{}
}

func TestTracingMiddleware_NamesSpanByRoute(t *testing.T) {
	app, sr := newTracedApp(t)

	resp, err := app.Test(httptest.NewRequest("GET", "/api/posts/42", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	spans := sr.Ended()
	require.Len(t, spans, 1)
	s := spans[0]
	assert.Equal(t, "GET /api/posts/:id", s.Name())
	assert.Equal(t, trace.SpanKindServer, s.SpanKind())
	assert.Equal(t, "/api/posts/:id", spanAttr(s, "http.route").AsString())
	assert.Equal(t, "/api/posts/42", spanAttr(s, "url.path").AsString())
	assert.Equal(t, "GET", spanAttr(s, "http.request.method").AsString())
	assert.Equal(t, int64(200), spanAttr(s, "http.response.status_code").AsInt64())
	assert.Equal(t, int64(7), spanAttr(s, "enduser.id").AsInt64())
	assert.Equal(t, s.SpanContext().TraceID().String(), resp.Header.Get("X-Trace-ID"))
}

func TestTracingMiddleware_RecordsErrors(t *testing.T) {
	app, sr := newTracedApp(t)

	resp, err := app.Test(httptest.NewRequest("GET", "/api/boom", nil))
	require.NoError(t, err)
	assert.Equal(t, 500, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("GET", "/api/missing", nil))
	require.NoError(t, err)
	assert.Equal(t, 404, resp.StatusCode)

	spans := sr.Ended()
	require.Len(t, spans, 2)

	boom := spans[0]
	assert.Equal(t, int64(500), spanAttr(boom, "http.response.status_code").AsInt64())
	assert.Equal(t, codes.Error, boom.Status().Code)
	require.NotEmpty(t, boom.Events())
	assert.Equal(t, "exception", boom.Events()[0].Name)

	missing := spans[1]
	assert.Equal(t, int64(404), spanAttr(missing, "http.response.status_code").AsInt64())
	assert.Equal(t, codes.Unset, missing.Status().Code)
}

func TestTracingMiddleware_SkipsHealthChecks(t *testing.T) {
	app, sr := newTracedApp(t)

	resp, err := app.Test(httptest.NewRequest("GET", "/health/live", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Empty(t, resp.Header.Get("X-Trace-ID"))
	assert.Empty(t, sr.Ended())
}

func TestTracingMiddleware_ContinuesIncomingTrace(t *testing.T) {
	prev := otel.GetTextMapPropagator()
	otel.SetTextMapPropagator(propagation.TraceContext{})
	t.Cleanup(func() { otel.SetTextMapPropagator(prev) })

	app, sr := newTracedApp(t)
	req := httptest.NewRequest("GET", "/api/posts/1", nil)
	req.Header.Set("traceparent", "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01")

	_, err := app.Test(req)
	require.NoError(t, err)

	spans := sr.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", spans[0].SpanContext().TraceID().String())
	assert.Equal(t, "00f067aa0ba902b7", spans[0].Parent().SpanID().String())
	assert.True(t, spans[0].Parent().IsRemote())
}
