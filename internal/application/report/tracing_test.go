package report

import (
	"context"
	"errors"
	"testing"

	"github.com/janytree/orderdesk/internal/domain/order"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// The package tracer delegates to the first global provider installed, so
// every span assertion in this package lives in this one test.
func TestServiceSpans(t *testing.T) {
	previous := otel.GetTracerProvider()
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		_ = tp.Shutdown(context.Background())
		otel.SetTracerProvider(previous)
	})

	source := new(MockOrderSource)
	f := newServiceFixture(t, WithOrderSource(source))
	r, err := order.DayRange("2024-03-01", "2024-03-01", kst)
	require.NoError(t, err)

	source.On("FetchOrders", mock.Anything, r.Start, r.End).
		Return([]order.RawRecord{rawOrder("A", march1, rawItem("Cream", "50ml", 1, 25000))}, nil).Once()
	source.On("FetchItems", mock.Anything, []string{"A"}).Return(nil, nil).Once()
	f.runs.On("Save", mock.Anything, mock.Anything).Return(nil)
	f.metrics.On("ObserveReconcile", mock.Anything, mock.Anything, mock.Anything).Return()

	summary, err := f.svc.Sync(context.Background(), SyncRequest{Range: r})
	require.NoError(t, err)

	spans := sr.Ended()
	require.Len(t, spans, 2)
	reconcile, sync := spans[0], spans[1]
	assert.Equal(t, "report.Reconcile", reconcile.Name())
	assert.Equal(t, "report.Sync", sync.Name())
	assert.Equal(t, sync.SpanContext().SpanID(), reconcile.Parent().SpanID())

	attrs := make(map[string]string)
	for _, kv := range reconcile.Attributes() {
		attrs[string(kv.Key)] = kv.Value.Emit()
	}
	assert.Equal(t, "SYNC", attrs["source"])
	assert.Equal(t, summary.SessionID.String(), attrs["session_id"])
	assert.Equal(t, "1", attrs["lines"])

	boom := errors.New("upstream 503")
	source.On("FetchOrders", mock.Anything, mock.Anything, mock.Anything).Return(nil, boom).Once()
	_, err = f.svc.Sync(context.Background(), SyncRequest{Range: r})
	require.Error(t, err)

	spans = sr.Ended()
	require.Len(t, spans, 3)
	failed := spans[2]
	assert.Equal(t, "report.Sync", failed.Name())
	assert.Equal(t, codes.Error, failed.Status().Code)
	require.NotEmpty(t, failed.Events())
	assert.Equal(t, "exception", failed.Events()[0].Name)
}
