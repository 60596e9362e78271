package tracing

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func withRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	rec := tracetest.NewSpanRecorder()
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec)))
	t.Cleanup(func() { otel.SetTracerProvider(prev) })
	return rec
}

func TestRenderSpan(t *testing.T) {
	rec := withRecorder(t)

	_, span := RenderSpan(context.Background(), "lineup-card", "Jabbawaukee")
	span.End()

	spans := rec.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "render.lineup-card", spans[0].Name())

	attrs := map[string]string{}
	for _, kv := range spans[0].Attributes() {
		attrs[string(kv.Key)] = kv.Value.AsString()
	}
	assert.Equal(t, "lineup-card", attrs["render.component"])
	assert.Equal(t, "Jabbawaukee", attrs["render.subject"])
}

func TestStoreSpan_EndWithError(t *testing.T) {
	rec := withRecorder(t)

	_, span := StoreSpan(context.Background(), "bolt", "get", "jabbawaukee")
	EndWithError(span, errors.New("not found"))
	span.End()

	_, ok := StoreSpan(context.Background(), "bolt", "list", "")
	EndWithError(ok, nil)
	ok.End()

	spans := rec.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, "store.get", spans[0].Name())
	assert.Equal(t, codes.Error, spans[0].Status().Code)
	assert.Len(t, spans[0].Events(), 1)
	assert.Equal(t, codes.Unset, spans[1].Status().Code)
}
