package ecommerce

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/janytree/orderdesk/internal/domain/order"
)

var (
	// ErrPlatformUnavailable is returned when the storefront API cannot be reached
	ErrPlatformUnavailable = errors.New("ecommerce: platform unavailable")
	// ErrPlatformRequestFailed is returned for non-2xx responses and error envelopes
	ErrPlatformRequestFailed = errors.New("ecommerce: platform request failed")
)

// imwebSuccessCode is the envelope code of a successful call
const imwebSuccessCode = "200"

// ImwebResponse is the envelope wrapping every imweb API response
type ImwebResponse struct {
	Code json.Number     `json:"code,omitempty"`
	Msg  string          `json:"msg,omitempty"`
	Data json.RawMessage `json:"data,omitempty"`
}

// ImwebListData is the paged list payload of list endpoints
type ImwebListData struct {
	List       json.RawMessage  `json:"list"`
	Pagination *ImwebPagination `json:"pagenation,omitempty"`
}

// ImwebPagination describes the page returned by a list endpoint
type ImwebPagination struct {
	DataCount   json.Number `json:"data_count,omitempty"`
	CurrentPage json.Number `json:"current_page,omitempty"`
	TotalPage   json.Number `json:"total_page,omitempty"`
	PageSize    json.Number `json:"pagesize,omitempty"`
}

// TotalPages returns the total page count, or 0 when unknown.
func (p *ImwebPagination) TotalPages() int {
	if p == nil {
		return 0
	}
	n, err := p.TotalPage.Int64()
	if err != nil || n < 0 {
		return 0
	}
	return int(n)
}

// DecodeRecords decodes a list response into raw records. Accepted shapes are
// {"data":{"list":[...]}}, {"data":[...]} and a bare array. Numbers are kept
// as json.Number. Any other shape returns order.ErrInvalidPayload; an envelope
// with a non-200 code returns ErrPlatformRequestFailed.
func DecodeRecords(body []byte) ([]order.RawRecord, *ImwebPagination, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil, nil, fmt.Errorf("%w: empty body", order.ErrInvalidPayload)
	}
	if body[0] == '[' {
		records, err := decodeList(body)
		return records, nil, err
	}
	if body[0] != '{' {
		return nil, nil, fmt.Errorf("%w: expected object or array", order.ErrInvalidPayload)
	}

	var resp ImwebResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", order.ErrInvalidPayload, err)
	}
	if resp.Code != "" && resp.Code.String() != imwebSuccessCode {
		return nil, nil, fmt.Errorf("%w: code %s %s", ErrPlatformRequestFailed, resp.Code, resp.Msg)
	}

	data := bytes.TrimSpace(resp.Data)
	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		if resp.Code != "" {
			return []order.RawRecord{}, nil, nil
		}
		return nil, nil, fmt.Errorf("%w: missing data", order.ErrInvalidPayload)
	case data[0] == '[':
		records, err := decodeList(data)
		return records, nil, err
	case data[0] == '{':
		var list ImwebListData
		if err := json.Unmarshal(data, &list); err != nil {
			return nil, nil, fmt.Errorf("%w: %v", order.ErrInvalidPayload, err)
		}
		if len(list.List) == 0 {
			return nil, nil, fmt.Errorf("%w: missing data.list", order.ErrInvalidPayload)
		}
		records, err := decodeList(list.List)
		return records, list.Pagination, err
	}
	return nil, nil, fmt.Errorf("%w: unexpected data", order.ErrInvalidPayload)
}

func decodeList(raw []byte) ([]order.RawRecord, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("%w: %v", order.ErrInvalidPayload, err)
	}
	if _, ok := v.([]any); !ok && v != nil {
		return nil, fmt.Errorf("%w: expected array", order.ErrInvalidPayload)
	}
	return order.AsRecords(v)
}
