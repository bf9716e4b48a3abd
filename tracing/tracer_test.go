package tracing

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	require.False(t, cfg.Enabled, "tracing should be disabled by default")
	require.Equal(t, ExporterStdout, cfg.Exporter)
	require.Equal(t, DefaultOTLPEndpoint, cfg.OTLPEndpoint)
	require.Equal(t, DefaultSampleRate, cfg.SampleRate)
	require.Equal(t, DefaultServiceName, cfg.ServiceName)
}

func TestConfig_WithDefaults(t *testing.T) {
	got := Config{Exporter: ExporterOTLP, SampleRate: -1}.withDefaults()
	assert.Equal(t, ExporterOTLP, got.Exporter)
	assert.Equal(t, DefaultOTLPEndpoint, got.OTLPEndpoint)
	assert.Equal(t, DefaultSampleRate, got.SampleRate)
	assert.Equal(t, DefaultServiceName, got.ServiceName)

	custom := Config{OTLPEndpoint: "collector:4317", SampleRate: 0.25, ServiceName: "svc"}.withDefaults()
	assert.Equal(t, "collector:4317", custom.OTLPEndpoint)
	assert.Equal(t, 0.25, custom.SampleRate)
	assert.Equal(t, "svc", custom.ServiceName)
	assert.Empty(t, custom.Exporter)
}

func TestNewProvider_Disabled(t *testing.T) {
	provider, err := NewProvider(context.Background(), Config{Enabled: false})
	require.NoError(t, err)
	require.False(t, provider.Enabled())

	tracer := provider.Tracer()
	require.NotNil(t, tracer)

	_, span := tracer.Start(context.Background(), "test-span")
	assert.False(t, span.SpanContext().IsValid(), "no-op spans carry no context")
	span.End()

	require.NoError(t, provider.Shutdown(context.Background()))
}

func TestNewProvider_Exporters(t *testing.T) {
	tests := []struct {
		name     string
		exporter string
		wantErr  bool
	}{
		{name: "none", exporter: ExporterNone},
		{name: "empty", exporter: ""},
		{name: "stdout", exporter: ExporterStdout},
		{name: "otlp", exporter: ExporterOTLP},
		{name: "unknown", exporter: "jaeger", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider, err := NewProvider(context.Background(), Config{
				Enabled:     true,
				Exporter:    tt.exporter,
				ServiceName: "test-service",
			})
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "unsupported exporter type")
				return
			}
			require.NoError(t, err)
			require.True(t, provider.Enabled())

			_, span := provider.Tracer().Start(context.Background(), "test-span")
			assert.True(t, span.SpanContext().IsValid())
			span.End()

			if tt.exporter != ExporterOTLP {
				require.NoError(t, provider.Shutdown(context.Background()))
			}
		})
	}
}

func TestMiddleware(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	mux := http.NewServeMux()
	mux.HandleFunc("GET /dogs/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := Middleware(tp.Tracer("test"), mux)

	for _, path := range []string{"/dogs/abc", "/health"} {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	}

	spans := recorder.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, "http GET /dogs/{id}", spans[0].Name())
	assert.Equal(t, codes.Error, spans[0].Status().Code)
	assert.Equal(t, "http GET /health", spans[1].Name())
	assert.Equal(t, codes.Unset, spans[1].Status().Code)
}

func TestMiddleware_NilTracer(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})
	handler := Middleware(nil, next)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
