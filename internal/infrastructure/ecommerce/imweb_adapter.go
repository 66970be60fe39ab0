package ecommerce

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/janytree/orderdesk/internal/application/report"
	"github.com/janytree/orderdesk/internal/domain/order"
	"github.com/janytree/orderdesk/internal/infrastructure/logger"
	"go.uber.org/zap"
)

const (
	// maxImwebResponseSize bounds one response body (16MB)
	maxImwebResponseSize = 16 << 20

	imwebOrdersPath     = "/v2/shop/orders"
	imwebProdOrdersPath = "/v2/shop/orders/%s/prod-orders"
	imwebOrderIDKey     = "order_no"
)

// ImwebAdapter fetches raw order payloads from the imweb storefront API.
// It pages and decodes only; tokens are issued elsewhere and failed
// requests are returned to the caller without retry.
type ImwebAdapter struct {
	config     *ImwebConfig
	httpClient *http.Client
}

// NewImwebAdapter creates a new imweb adapter with the given configuration
func NewImwebAdapter(config *ImwebConfig) (*ImwebAdapter, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &ImwebAdapter{
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
	}, nil
}

// ---------------------------------------------------------------------------
// Order Operations
// ---------------------------------------------------------------------------

// FetchOrders reads every page of orders paid within [start, end].
// Paging stops at a short page, at the reported last page or after MaxPages.
func (a *ImwebAdapter) FetchOrders(ctx context.Context, start, end time.Time) ([]order.RawRecord, error) {
	log := logger.L(ctx)
	var all []order.RawRecord
	for page := 1; page <= a.config.MaxPages; page++ {
		params := url.Values{}
		params.Set("payment_date_from", strconv.FormatInt(start.Unix(), 10))
		params.Set("payment_date_to", strconv.FormatInt(end.Unix(), 10))
		params.Set("limit", strconv.Itoa(a.config.PageSize))
		params.Set("offset", strconv.Itoa(page))

		body, err := a.doRequest(ctx, imwebOrdersPath, params)
		if err != nil {
			return nil, err
		}
		records, pagination, err := DecodeRecords(body)
		if err != nil {
			return nil, fmt.Errorf("imweb: orders page %d: %w", page, err)
		}
		all = append(all, records...)
		log.Debug("Fetched imweb orders page",
			zap.Int("page", page),
			zap.Int("records", len(records)),
		)

		if len(records) < a.config.PageSize {
			break
		}
		if total := pagination.TotalPages(); total > 0 && page >= total {
			break
		}
		if page == a.config.MaxPages {
			log.Warn("Stopped fetching imweb orders at page limit", zap.Int("max_pages", a.config.MaxPages))
		}
	}
	if all == nil {
		all = []order.RawRecord{}
	}
	return all, nil
}

// FetchItems reads the item surface of each order. It returns nil when the
// item surface is disabled, in which case items embedded in orders are used.
// Items that carry no order number are stamped with the id they were fetched for.
func (a *ImwebAdapter) FetchItems(ctx context.Context, orderIDs []string) ([]order.RawRecord, error) {
	if !a.config.ItemSurface {
		return nil, nil
	}
	items := make([]order.RawRecord, 0, len(orderIDs))
	for _, id := range orderIDs {
		body, err := a.doRequest(ctx, fmt.Sprintf(imwebProdOrdersPath, url.PathEscape(id)), nil)
		if err != nil {
			return nil, err
		}
		records, _, err := DecodeRecords(body)
		if err != nil {
			return nil, fmt.Errorf("imweb: items of order %s: %w", id, err)
		}
		for _, rec := range records {
			if rec != nil {
				if v, ok := rec[imwebOrderIDKey]; !ok || v == nil || v == "" {
					rec[imwebOrderIDKey] = id
				}
			}
			items = append(items, rec)
		}
	}
	return items, nil
}

// ---------------------------------------------------------------------------
// Internal Helpers
// ---------------------------------------------------------------------------

// doRequest performs a GET request against the imweb API
func (a *ImwebAdapter) doRequest(ctx context.Context, path string, params url.Values) ([]byte, error) {
	u := a.config.APIBaseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("imweb: failed to create request: %w", err)
	}
	req.Header.Set("access-token", a.config.AccessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPlatformUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxImwebResponseSize))
	if err != nil {
		return nil, fmt.Errorf("imweb: failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: HTTP %d", ErrPlatformRequestFailed, resp.StatusCode)
	}
	return body, nil
}

var _ report.OrderSource = (*ImwebAdapter)(nil)
