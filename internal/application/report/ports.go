package report

import (
	"context"
	"time"

	"github.com/janytree/orderdesk/internal/domain/order"
	domainreport "github.com/janytree/orderdesk/internal/domain/report"
)

// OrderSource fetches raw payloads from a storefront API.
// It is implemented by the infrastructure layer (imweb).
type OrderSource interface {
	// FetchOrders returns raw orders placed within [start, end].
	FetchOrders(ctx context.Context, start, end time.Time) ([]order.RawRecord, error)
	// FetchItems returns raw items of the given orders from the separate item
	// surface. It returns nil, nil when the source has no item surface.
	FetchItems(ctx context.Context, orderIDs []string) ([]order.RawRecord, error)
}

// InvoiceExporter renders invoices into a downloadable document.
type InvoiceExporter interface {
	Render(invoices []order.InvoiceRecord, summary domainreport.SalesSummary) ([]byte, error)
	ContentType() string
	Extension() string
}

// ObjectStorage stores exported documents and hands out download links.
type ObjectStorage interface {
	PutObject(ctx context.Context, storageKey, contentType string, body []byte) error
	// GenerateDownloadURL returns a presigned URL and its expiration time
	GenerateDownloadURL(ctx context.Context, storageKey string, expiresIn time.Duration) (string, time.Time, error)
}

// MetricsRecorder receives data-quality counters of each reconciliation pass.
type MetricsRecorder interface {
	ObserveReconcile(source order.RunSource, stats order.ReconcileStats, duration time.Duration)
	ObserveExport(kind string, invoices int)
}

type noopMetrics struct{}

func (noopMetrics) ObserveReconcile(order.RunSource, order.ReconcileStats, time.Duration) {}
func (noopMetrics) ObserveExport(string, int)                                             {}
