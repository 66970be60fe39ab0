package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	reportapp "github.com/janytree/orderdesk/internal/application/report"
	"github.com/janytree/orderdesk/internal/domain/order"
	"github.com/janytree/orderdesk/internal/infrastructure/cache"
	"github.com/janytree/orderdesk/internal/infrastructure/ecommerce"
	"github.com/janytree/orderdesk/internal/infrastructure/export"
	"github.com/janytree/orderdesk/internal/infrastructure/persistence"
	"github.com/janytree/orderdesk/internal/infrastructure/storage"
	"github.com/janytree/orderdesk/internal/interfaces/http/dto"
	"github.com/janytree/orderdesk/internal/interfaces/http/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var kst = time.FixedZone("KST", 9*60*60)

// two orders on 2024-03-01 09:00 KST, one with embedded items, one without
const ordersBody = `{
	"orders": [
		{
			"order_no": "202403010001",
			"order_date": 1709251200,
			"status": "PAY_COMPLETE",
			"orderer": {"name": "Kim", "call": "010-1111-2222"},
			"shipping": {"name": "Lee", "call": "010-3333-4444", "address": "Seoul Gangnam-gu", "zipcode": "06000"},
			"items": [
				{"prod_name": "Cream", "options_str": "50ml", "ea": 2, "price_total": 50000},
				{"prod_name": "Toner", "options_str": "200ml", "ea": 1, "price_total": 18000}
			]
		},
		{
			"order_no": "202403010002",
			"order_date": 1709251200,
			"status": "PAY_COMPLETE",
			"shipping": {"name": "Park", "address": "Busan Haeundae-gu"}
		}
	]
}`

type failingSource struct{ err error }

func (s failingSource) FetchOrders(context.Context, time.Time, time.Time) ([]order.RawRecord, error) {
	return nil, s.err
}

func (s failingSource) FetchItems(context.Context, []string) ([]order.RawRecord, error) {
	return nil, nil
}

type handlerFixture struct {
	engine  *gin.Engine
	storage *storage.StubObjectStorage
}

func newHandlerFixture(t *testing.T, opts ...reportapp.Option) *handlerFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)
	middleware.SetupValidator()

	sessions := cache.NewInMemorySessionStore(time.Minute)
	t.Cleanup(func() { _ = sessions.Close() })

	svc := reportapp.NewReconciliationService(
		order.NewNormalizer(order.DefaultSchema(), kst),
		sessions,
		persistence.NewInMemoryRunRepository(10),
		export.NewXLSXExporter(),
		opts...,
	)
	h := NewReconciliationHandler(svc)

	engine := gin.New()
	engine.Use(middleware.RequestID())
	api := engine.Group("/api/v1")
	api.POST("/reconciliations", h.Reconcile)
	api.POST("/reconciliations/sync", h.Sync)
	api.GET("/reconciliations", h.ListRuns)
	api.GET("/reconciliations/:id", h.GetRun)
	api.GET("/sessions/:id", h.GetSession)
	api.DELETE("/sessions/:id", h.DeleteSession)
	api.GET("/sessions/:id/lines", h.ListLines)
	api.GET("/sessions/:id/invoices", h.ListInvoices)
	api.GET("/sessions/:id/invoices/export", h.ExportInvoices)
	api.POST("/sessions/:id/invoices/publish", h.PublishInvoices)
	api.GET("/sessions/:id/report", h.GetReport)

	return &handlerFixture{engine: engine}
}

func (f *handlerFixture) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	f.engine.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) dto.Response {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return resp
}

func (f *handlerFixture) reconcile(t *testing.T, body string) string {
	t.Helper()
	w := f.do(t, http.MethodPost, "/api/v1/reconciliations", body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	data := decode(t, w).Data.(map[string]any)
	return data["session_id"].(string)
}

func TestReconcile_CreatesSession(t *testing.T) {
	f := newHandlerFixture(t)

	w := f.do(t, http.MethodPost, "/api/v1/reconciliations", ordersBody)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	resp := decode(t, w)
	assert.True(t, resp.Success)
	data := resp.Data.(map[string]any)
	_, err := uuid.Parse(data["session_id"].(string))
	require.NoError(t, err)
	assert.Equal(t, "UPLOAD", data["source"])

	stats := data["stats"].(map[string]any)
	assert.Equal(t, 2.0, stats["orders"])
	assert.Equal(t, 3.0, stats["lines"])
	assert.Equal(t, 1.0, stats["itemless_orders"])
}

func TestReconcile_RequestErrors(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantCode   string
	}{
		{"missing orders", `{"items": []}`, http.StatusBadRequest, dto.ErrCodeValidation},
		{"orders not a list", `{"orders": {"order_no": "1"}}`, http.StatusBadRequest, dto.ErrCodeInvalidPayload},
		{"items not a list", `{"orders": [], "items": "x"}`, http.StatusBadRequest, dto.ErrCodeInvalidPayload},
		{"malformed json", `{"orders": [`, http.StatusBadRequest, dto.ErrCodeInvalidJSON},
		{"malformed date", `{"orders": [], "start_date": "2024/03/01", "end_date": "2024-03-02"}`, http.StatusBadRequest, dto.ErrCodeValidation},
		{"half range", `{"orders": [], "start_date": "2024-03-01"}`, http.StatusBadRequest, dto.ErrCodeValidation},
		{"reversed range", `{"orders": [], "start_date": "2024-03-05", "end_date": "2024-03-01"}`, http.StatusBadRequest, dto.ErrCodeInvalidDateRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newHandlerFixture(t)
			w := f.do(t, http.MethodPost, "/api/v1/reconciliations", tt.body)

			assert.Equal(t, tt.wantStatus, w.Code)
			resp := decode(t, w)
			assert.False(t, resp.Success)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.wantCode, resp.Error.Code)
			assert.NotEmpty(t, resp.Error.RequestID)
		})
	}
}

func TestReconcile_RangeExcludesOrders(t *testing.T) {
	f := newHandlerFixture(t)
	body := strings.Replace(ordersBody, `"orders"`, `"start_date": "2024-03-02", "end_date": "2024-03-31", "orders"`, 1)

	w := f.do(t, http.MethodPost, "/api/v1/reconciliations", body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	data := decode(t, w).Data.(map[string]any)
	stats := data["stats"].(map[string]any)
	assert.Equal(t, 2.0, stats["excluded_orders"])
	assert.Equal(t, 0.0, stats["lines"])
	assert.NotNil(t, data["range"])
}

func TestSessionEndpoints(t *testing.T) {
	f := newHandlerFixture(t)
	id := f.reconcile(t, ordersBody)
	base := "/api/v1/sessions/" + id

	t.Run("summary", func(t *testing.T) {
		w := f.do(t, http.MethodGet, base, "")
		require.Equal(t, http.StatusOK, w.Code)
		data := decode(t, w).Data.(map[string]any)
		assert.Equal(t, id, data["session_id"])
	})

	t.Run("lines", func(t *testing.T) {
		w := f.do(t, http.MethodGet, base+"/lines", "")
		require.Equal(t, http.StatusOK, w.Code)
		resp := decode(t, w)
		require.NotNil(t, resp.Meta)
		assert.Equal(t, 3, resp.Meta.Total)
	})

	t.Run("lines by keyword", func(t *testing.T) {
		w := f.do(t, http.MethodGet, base+"/lines?keyword=cream", "")
		require.Equal(t, http.StatusOK, w.Code)
		resp := decode(t, w)
		assert.Equal(t, 1, resp.Meta.Total)
		line := resp.Data.([]any)[0].(map[string]any)
		assert.Equal(t, "Cream", line["product_name"])
	})

	t.Run("invoices", func(t *testing.T) {
		w := f.do(t, http.MethodGet, base+"/invoices", "")
		require.Equal(t, http.StatusOK, w.Code)
		resp := decode(t, w)
		assert.Equal(t, 2, resp.Meta.Total)

		first := resp.Data.([]any)[0].(map[string]any)
		assert.Equal(t, "202403010001", first["order_id"])
		assert.Equal(t, "[Cream] 50ml // [Cream] 50ml // [Toner] 200ml", first["description"])
		assert.Equal(t, 3.0, first["total_units"])
	})

	t.Run("report", func(t *testing.T) {
		w := f.do(t, http.MethodGet, base+"/report?top_n=1", "")
		require.Equal(t, http.StatusOK, w.Code)
		data := decode(t, w).Data.(map[string]any)
		assert.Len(t, data["products"], 1)
		summary := data["summary"].(map[string]any)
		assert.Equal(t, 2.0, summary["distinct_orders"])
	})

	t.Run("report rejects bad top_n", func(t *testing.T) {
		w := f.do(t, http.MethodGet, base+"/report?top_n=0", "")
		assert.Equal(t, http.StatusOK, w.Code)
		w = f.do(t, http.MethodGet, base+"/report?top_n=5000", "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("export", func(t *testing.T) {
		w := f.do(t, http.MethodGet, base+"/invoices/export", "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, export.XLSXContentType, w.Header().Get("Content-Type"))
		assert.Contains(t, w.Header().Get("Content-Disposition"), "invoices_")
		assert.Contains(t, w.Header().Get("Content-Disposition"), ".xlsx")
		assert.NotEmpty(t, w.Body.Bytes())
	})

	t.Run("publish without storage", func(t *testing.T) {
		w := f.do(t, http.MethodPost, base+"/invoices/publish", "")
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Equal(t, dto.ErrCodeStorageDisabled, decode(t, w).Error.Code)
	})

	t.Run("delete", func(t *testing.T) {
		w := f.do(t, http.MethodDelete, base, "")
		assert.Equal(t, http.StatusNoContent, w.Code)

		w = f.do(t, http.MethodGet, base+"/lines", "")
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, dto.ErrCodeSessionNotFound, decode(t, w).Error.Code)
	})
}

func TestSessionEndpoints_BadID(t *testing.T) {
	f := newHandlerFixture(t)

	w := f.do(t, http.MethodGet, "/api/v1/sessions/not-a-uuid/lines", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, dto.ErrCodeValidation, decode(t, w).Error.Code)

	w = f.do(t, http.MethodGet, "/api/v1/sessions/"+uuid.NewString()+"/invoices", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPublishInvoices(t *testing.T) {
	stub := storage.NewStubObjectStorage()
	f := newHandlerFixture(t, reportapp.WithObjectStorage(stub))
	id := f.reconcile(t, ordersBody)

	w := f.do(t, http.MethodPost, "/api/v1/sessions/"+id+"/invoices/publish?keyword=toner", "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	data := decode(t, w).Data.(map[string]any)
	key := data["storage_key"].(string)
	assert.True(t, strings.HasPrefix(key, "invoices/"+id+"/"))
	assert.Contains(t, data["download_url"], "/download/"+key)
	assert.Equal(t, 1.0, data["invoices"])

	obj, ok := stub.Object(key)
	require.True(t, ok)
	assert.Equal(t, export.XLSXContentType, obj.ContentType)
}

func TestSync(t *testing.T) {
	t.Run("source disabled", func(t *testing.T) {
		f := newHandlerFixture(t)
		w := f.do(t, http.MethodPost, "/api/v1/reconciliations/sync", `{"start_date":"2024-03-01","end_date":"2024-03-31"}`)
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Equal(t, dto.ErrCodeSourceDisabled, decode(t, w).Error.Code)
	})

	t.Run("missing dates", func(t *testing.T) {
		f := newHandlerFixture(t)
		w := f.do(t, http.MethodPost, "/api/v1/reconciliations/sync", `{}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		resp := decode(t, w)
		assert.Len(t, resp.Error.Details, 2)
	})

	t.Run("upstream failure", func(t *testing.T) {
		source := failingSource{err: fmt.Errorf("%w: connection refused", ecommerce.ErrPlatformUnavailable)}
		f := newHandlerFixture(t, reportapp.WithOrderSource(source))
		w := f.do(t, http.MethodPost, "/api/v1/reconciliations/sync", `{"start_date":"2024-03-01","end_date":"2024-03-31"}`)
		assert.Equal(t, http.StatusBadGateway, w.Code)
		assert.Equal(t, dto.ErrCodeUpstream, decode(t, w).Error.Code)
	})
}

func TestRuns(t *testing.T) {
	f := newHandlerFixture(t)
	f.reconcile(t, ordersBody)
	f.reconcile(t, `{"orders": []}`)

	w := f.do(t, http.MethodGet, "/api/v1/reconciliations?limit=1", "")
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode(t, w)
	assert.Equal(t, 1, resp.Meta.Total)

	run := resp.Data.([]any)[0].(map[string]any)
	stats := run["stats"].(map[string]any)
	assert.Equal(t, 0.0, stats["orders"])

	w = f.do(t, http.MethodGet, "/api/v1/reconciliations/"+run["id"].(string), "")
	require.Equal(t, http.StatusOK, w.Code)

	w = f.do(t, http.MethodGet, "/api/v1/reconciliations/"+uuid.NewString(), "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, dto.ErrCodeRunNotFound, decode(t, w).Error.Code)
}
