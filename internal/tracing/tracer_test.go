package tracing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestMetricsTracer_Spans(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	mt := NewMetricsTracerFrom(tp, "lineboard-test")

	start := time.Date(2024, 3, 4, 6, 0, 0, 0, time.UTC)
	ctx, span := mt.StartComputeSpan(context.Background(), "unit", "L1", start, start.Add(time.Hour), "mode1")
	_, fetch := mt.StartFetchSpan(ctx, "records", "L1")
	mt.RecordFetch(fetch, 3*time.Millisecond, 0, errors.New("down"))
	fetch.End()
	span.End()

	ended := sr.Ended()
	require.Len(t, ended, 2)
	assert.Equal(t, "source.records", ended[0].Name())
	assert.Equal(t, codes.Error, ended[0].Status().Code)
	assert.Equal(t, "metrics.unit", ended[1].Name())
	assert.Equal(t, ended[1].SpanContext().SpanID(), ended[0].Parent().SpanID())
}
