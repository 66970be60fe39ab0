package report

import (
	"context"
	"errors"
	"fmt"
	"path"
	"time"

	"github.com/google/uuid"
	"github.com/janytree/orderdesk/internal/domain/order"
	domainreport "github.com/janytree/orderdesk/internal/domain/report"
	"github.com/janytree/orderdesk/internal/infrastructure/logger"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("github.com/janytree/orderdesk/internal/application/report")

// endSpan records err on span, if any, and ends it.
func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// ServiceConfig holds configuration for the reconciliation service
type ServiceConfig struct {
	// SessionTTL is how long a session snapshot stays readable
	SessionTTL time.Duration
	// DefaultTopN limits report rankings when the caller gives no limit
	DefaultTopN int
	// DownloadURLExpiry is the lifetime of presigned invoice download URLs
	DownloadURLExpiry time.Duration
	// ExportKeyPrefix is prepended to storage keys of published invoices
	ExportKeyPrefix string
	// MaxRuns caps the history listing
	MaxRuns int
}

// DefaultServiceConfig returns the default configuration
func DefaultServiceConfig() ServiceConfig {
	return ServiceConfig{
		SessionTTL:        2 * time.Hour,
		DefaultTopN:       10,
		DownloadURLExpiry: 15 * time.Minute,
		ExportKeyPrefix:   "invoices/",
		MaxRuns:           100,
	}
}

// Option configures optional collaborators of ReconciliationService.
type Option func(*ReconciliationService)

// WithOrderSource enables Sync.
func WithOrderSource(source OrderSource) Option {
	return func(s *ReconciliationService) { s.source = source }
}

// WithObjectStorage enables PublishInvoices.
func WithObjectStorage(storage ObjectStorage) Option {
	return func(s *ReconciliationService) { s.storage = storage }
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m MetricsRecorder) Option {
	return func(s *ReconciliationService) {
		if m != nil {
			s.metrics = m
		}
	}
}

// WithConfig overrides the default configuration.
func WithConfig(cfg ServiceConfig) Option {
	return func(s *ReconciliationService) { s.config = cfg }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *ReconciliationService) { s.now = now }
}

// ReconciliationService runs reconciliation passes and serves their sessions.
type ReconciliationService struct {
	normalizer *order.Normalizer
	sessions   SessionStore
	runs       order.RunRepository
	exporter   InvoiceExporter
	source     OrderSource
	storage    ObjectStorage
	metrics    MetricsRecorder
	config     ServiceConfig
	now        func() time.Time
}

// NewReconciliationService creates a new ReconciliationService
func NewReconciliationService(
	normalizer *order.Normalizer,
	sessions SessionStore,
	runs order.RunRepository,
	exporter InvoiceExporter,
	opts ...Option,
) *ReconciliationService {
	s := &ReconciliationService{
		normalizer: normalizer,
		sessions:   sessions,
		runs:       runs,
		exporter:   exporter,
		metrics:    noopMetrics{},
		config:     DefaultServiceConfig(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Location returns the time zone order days are rendered in.
func (s *ReconciliationService) Location() *time.Location {
	return s.normalizer.Location()
}

// CanSync reports whether a storefront source is configured.
func (s *ReconciliationService) CanSync() bool {
	return s.source != nil
}

// Reconcile joins the payloads into order lines and stores them as a new session.
func (s *ReconciliationService) Reconcile(ctx context.Context, req ReconcileRequest) (_ *SessionSummary, err error) {
	if req.Source == "" {
		req.Source = order.RunSourceUpload
	}
	ctx, span := tracer.Start(ctx, "report.Reconcile", trace.WithAttributes(
		attribute.String("source", string(req.Source)),
		attribute.Int("orders", len(req.Orders)),
		attribute.Int("items", len(req.Items)),
	))
	defer func() { endSpan(span, err) }()

	started := s.now()
	opts := order.ReconcileOptions{Range: req.Range}
	if req.RangeApplied {
		opts.Range = nil
	}
	result := s.normalizer.Reconcile(req.Orders, req.Items, opts)
	elapsed := s.now().Sub(started)

	session := &Session{
		ID:        uuid.New(),
		Source:    req.Source,
		Range:     req.Range,
		Lines:     result.Lines,
		Stats:     result.Stats,
		CreatedAt: started,
	}
	if s.config.SessionTTL > 0 {
		session.ExpiresAt = started.Add(s.config.SessionTTL)
	}

	ctx = logger.WithSessionID(ctx, session.ID.String())
	log := logger.L(ctx)
	stats := result.Stats
	span.SetAttributes(
		attribute.String("session_id", session.ID.String()),
		attribute.Int("lines", stats.Lines),
		attribute.Int("join_misses", stats.JoinMisses()),
	)
	if stats.JoinMisses() > 0 {
		log.Warn("Reconciliation join misses",
			zap.Int("orphan_items", stats.OrphanItems),
			zap.Int("itemless_orders", stats.ItemlessOrders),
		)
	}
	if stats.MalformedRecords > 0 || stats.DuplicateOrders > 0 {
		log.Warn("Reconciliation skipped records",
			zap.Int("malformed_records", stats.MalformedRecords),
			zap.Int("duplicate_orders", stats.DuplicateOrders),
		)
	}
	if stats.ClampedQuantities > 0 {
		log.Warn("Reconciliation clamped line quantities",
			zap.Int("clamped_quantities", stats.ClampedQuantities),
			zap.Int("max_line_quantity", order.MaxLineQuantity),
		)
	}

	if err := s.sessions.Save(ctx, session, s.config.SessionTTL); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}

	run := order.NewReconciliationRun(session.ID, req.Source, req.Range, stats, elapsed)
	if err := s.runs.Save(ctx, run); err != nil {
		log.Error("Failed to record reconciliation run", zap.Error(err))
	}
	s.metrics.ObserveReconcile(req.Source, stats, elapsed)

	log.Info("Reconciliation completed",
		zap.String("source", string(req.Source)),
		zap.Int("orders", stats.Orders),
		zap.Int("items", stats.Items),
		zap.Int("lines", stats.Lines),
		zap.Int("excluded_orders", stats.ExcludedOrders),
		zap.Duration("duration", elapsed),
	)
	return NewSessionSummary(session), nil
}

// Sync pulls orders paid within req.Range from the storefront and reconciles them.
// The storefront selects by payment date, so fetched orders are not filtered again
// by the resolved order timestamp.
func (s *ReconciliationService) Sync(ctx context.Context, req SyncRequest) (_ *SessionSummary, err error) {
	if s.source == nil {
		return nil, ErrNoOrderSource
	}
	ctx, span := tracer.Start(ctx, "report.Sync")
	defer func() { endSpan(span, err) }()
	log := logger.L(ctx)

	orders, err := s.source.FetchOrders(ctx, req.Range.Start, req.Range.End)
	if err != nil {
		return nil, fmt.Errorf("fetch orders: %w", err)
	}
	ids := make([]string, 0, len(orders))
	for _, o := range orders {
		if id := s.normalizer.Meta(o).OrderID; id != "" {
			ids = append(ids, id)
		}
	}
	items, err := s.source.FetchItems(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("fetch items: %w", err)
	}
	log.Debug("Fetched storefront payloads",
		zap.Int("orders", len(orders)),
		zap.Int("items", len(items)),
	)

	r := req.Range
	return s.Reconcile(ctx, ReconcileRequest{
		Orders:       orders,
		Items:        items,
		Range:        &r,
		RangeApplied: true,
		Source:       order.RunSourceSync,
	})
}

// Session returns the stored session.
func (s *ReconciliationService) Session(ctx context.Context, id uuid.UUID) (*Session, error) {
	session, err := s.sessions.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if session.Expired(s.now()) {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

// DiscardSession drops a session before its TTL runs out.
func (s *ReconciliationService) DiscardSession(ctx context.Context, id uuid.UUID) error {
	if _, err := s.sessions.Get(ctx, id); err != nil {
		return err
	}
	return s.sessions.Delete(ctx, id)
}

// Lines returns the session's lines matching keyword. An empty keyword returns all lines.
func (s *ReconciliationService) Lines(ctx context.Context, id uuid.UUID, keyword string) ([]order.OrderLine, error) {
	session, err := s.Session(ctx, id)
	if err != nil {
		return nil, err
	}
	lines := order.KeywordFilter(keyword).Apply(session.Lines)
	if lines == nil {
		lines = []order.OrderLine{}
	}
	return lines, nil
}

// Invoices builds one invoice record per order from the session's lines matching keyword.
func (s *ReconciliationService) Invoices(ctx context.Context, id uuid.UUID, keyword string) ([]order.InvoiceRecord, error) {
	session, err := s.Session(ctx, id)
	if err != nil {
		return nil, err
	}
	invoices := order.BuildInvoices(session.Lines, order.KeywordFilter(keyword))
	if invoices == nil {
		invoices = []order.InvoiceRecord{}
	}
	return invoices, nil
}

// Report computes the sales aggregates of a session. topN <= 0 uses the configured default.
func (s *ReconciliationService) Report(ctx context.Context, id uuid.UUID, topN int) (*domainreport.SalesReport, error) {
	session, err := s.Session(ctx, id)
	if err != nil {
		return nil, err
	}
	if topN <= 0 {
		topN = s.config.DefaultTopN
	}
	r := domainreport.Build(session.Lines, topN)
	return &r, nil
}

// ExportInvoices renders the invoices of a session into a document.
func (s *ReconciliationService) ExportInvoices(ctx context.Context, id uuid.UUID, keyword string) (*ExportResult, error) {
	session, err := s.Session(ctx, id)
	if err != nil {
		return nil, err
	}
	filter := order.KeywordFilter(keyword)
	invoices := order.BuildInvoices(session.Lines, filter)
	content, err := s.exporter.Render(invoices, domainreport.Summarize(filter.Apply(session.Lines)))
	if err != nil {
		return nil, fmt.Errorf("render invoices: %w", err)
	}
	s.metrics.ObserveExport("download", len(invoices))

	logger.L(logger.WithSessionID(ctx, id.String())).Info("Invoices exported",
		zap.Int("invoices", len(invoices)),
		zap.Int("bytes", len(content)),
	)
	return &ExportResult{
		Filename:    ExportFilename(session, s.exporter.Extension()),
		ContentType: s.exporter.ContentType(),
		Content:     content,
		Invoices:    len(invoices),
	}, nil
}

// PublishInvoices uploads the exported invoices to object storage and returns a download link.
func (s *ReconciliationService) PublishInvoices(ctx context.Context, id uuid.UUID, keyword string) (_ *PublishResult, err error) {
	if s.storage == nil {
		return nil, ErrNoObjectStorage
	}
	ctx, span := tracer.Start(ctx, "report.PublishInvoices", trace.WithAttributes(
		attribute.String("session_id", id.String()),
	))
	defer func() { endSpan(span, err) }()
	export, err := s.ExportInvoices(ctx, id, keyword)
	if err != nil {
		return nil, err
	}

	key := path.Join(s.config.ExportKeyPrefix, id.String(), export.Filename)
	if err := s.storage.PutObject(ctx, key, export.ContentType, export.Content); err != nil {
		return nil, fmt.Errorf("upload invoices: %w", err)
	}
	url, expiresAt, err := s.storage.GenerateDownloadURL(ctx, key, s.config.DownloadURLExpiry)
	if err != nil {
		return nil, fmt.Errorf("presign invoices: %w", err)
	}
	s.metrics.ObserveExport("publish", export.Invoices)

	return &PublishResult{
		StorageKey:  key,
		Filename:    export.Filename,
		DownloadURL: url,
		ExpiresAt:   expiresAt,
		Invoices:    export.Invoices,
	}, nil
}

// Runs lists the most recent reconciliation runs, newest first.
func (s *ReconciliationService) Runs(ctx context.Context, limit int) ([]RunResponse, error) {
	if limit <= 0 || limit > s.config.MaxRuns {
		limit = s.config.MaxRuns
	}
	runs, err := s.runs.FindRecent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	out := make([]RunResponse, 0, len(runs))
	for i := range runs {
		out = append(out, ToRunResponse(&runs[i]))
	}
	return out, nil
}

// Run returns one reconciliation run.
func (s *ReconciliationService) Run(ctx context.Context, id uuid.UUID) (*RunResponse, error) {
	run, err := s.runs.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, order.ErrRunNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("find run: %w", err)
	}
	resp := ToRunResponse(run)
	return &resp, nil
}

// ExportFilename names an export after the session range, e.g.
// invoices_2024-03-01_2024-03-31.xlsx. Sessions without a range use their creation day.
func ExportFilename(s *Session, ext string) string {
	if s.Range != nil {
		return fmt.Sprintf("invoices_%s_%s.%s",
			s.Range.Start.Format(order.DateLayout), s.Range.End.Format(order.DateLayout), ext)
	}
	return fmt.Sprintf("invoices_%s.%s", s.CreatedAt.Format(order.DateLayout), ext)
}
