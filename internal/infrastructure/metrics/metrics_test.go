package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/janytree/orderdesk/internal/domain/order"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder_ObserveReconcile(t *testing.T) {
	r := newRecorder(prometheus.NewRegistry())

	stats := order.ReconcileStats{
		Orders:         3,
		Items:          5,
		Lines:          6,
		OrphanItems:    2,
		ItemlessOrders: 1,
		ExcludedOrders: 1,
	}
	r.ObserveReconcile(order.RunSourceUpload, stats, 250*time.Millisecond)
	r.ObserveReconcile(order.RunSourceUpload, order.ReconcileStats{Lines: 4, OrphanItems: 1}, time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.runsTotal.WithLabelValues("UPLOAD")))
	assert.Equal(t, 0.0, testutil.ToFloat64(r.runsTotal.WithLabelValues("SYNC")))
	assert.Equal(t, 3.0, testutil.ToFloat64(r.recordsTotal.WithLabelValues("orders")))
	assert.Equal(t, 10.0, testutil.ToFloat64(r.recordsTotal.WithLabelValues("lines")))
	assert.Equal(t, 3.0, testutil.ToFloat64(r.joinMissesTotal.WithLabelValues("orphan_items")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.joinMissesTotal.WithLabelValues("itemless_orders")))
	assert.Equal(t, 4.0, testutil.ToFloat64(r.lastRunLines))
	assert.Equal(t, 1, testutil.CollectAndCount(r.runDuration))
}

func TestRecorder_ObserveExport(t *testing.T) {
	r := newRecorder(prometheus.NewRegistry())

	r.ObserveExport("download", 4)
	r.ObserveExport("download", 2)
	r.ObserveExport("publish", 7)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.exportsTotal.WithLabelValues("download")))
	assert.Equal(t, 6.0, testutil.ToFloat64(r.exportedInvoices.WithLabelValues("download")))
	assert.Equal(t, 7.0, testutil.ToFloat64(r.exportedInvoices.WithLabelValues("publish")))
}

func TestRecorder_Handler(t *testing.T) {
	r := NewRecorder()
	r.ObserveExport("download", 1)

	srv := httptest.NewServer(r.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `orderdesk_invoice_exports_total{kind="download"} 1`)
	assert.Contains(t, string(body), "go_goroutines")
}

func TestNewRecorder_IndependentRegistries(t *testing.T) {
	assert.NotPanics(t, func() {
		NewRecorder()
		NewRecorder()
	})
}
