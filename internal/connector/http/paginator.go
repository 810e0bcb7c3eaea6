package http

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"
)

// =============================================================================
// PAGINATION STRATEGIES
// =============================================================================

// Paginator handles API pagination.
type Paginator interface {
	// NextPage returns the request for the next page, or nil if done.
	NextPage(ctx context.Context, resp *Response) (*Request, error)
}

// =============================================================================
// OFFSET PAGINATION
// =============================================================================

// OffsetPaginator uses offset/limit pagination (SBIR.gov style: start/rows).
// APIs that return a bare JSON array signal the end with a short page.
type OffsetPaginator struct {
	Path      string
	Limit     int
	Offset    int
	OffsetKey string // Query param name (default: "start")
	LimitKey  string // Query param name (default: "rows")
	Query     url.Values

	fetched int
}

// NewOffsetPaginator creates a new offset-based paginator.
func NewOffsetPaginator(path string, limit int) *OffsetPaginator {
	return &OffsetPaginator{
		Path:      path,
		Limit:     limit,
		OffsetKey: "start",
		LimitKey:  "rows",
	}
}

// FirstPage returns the first page request.
func (p *OffsetPaginator) FirstPage() *Request {
	query := url.Values{}
	for k, vs := range p.Query {
		for _, v := range vs {
			query.Add(k, v)
		}
	}
	query.Set(p.OffsetKey, strconv.Itoa(p.Offset))
	query.Set(p.LimitKey, strconv.Itoa(p.Limit))
	return &Request{
		Method: "GET",
		Path:   p.Path,
		Query:  query,
	}
}

// NextPage returns the next page request based on response.
// A page shorter than the limit (or an empty array) ends pagination.
func (p *OffsetPaginator) NextPage(ctx context.Context, resp *Response) (*Request, error) {
	var page []json.RawMessage
	if err := json.Unmarshal(resp.Body, &page); err != nil {
		return nil, err
	}

	p.fetched += len(page)
	if len(page) < p.Limit {
		return nil, nil
	}

	p.Offset = p.fetched
	return p.FirstPage(), nil
}

// =============================================================================
// PAGE PAGINATION
// =============================================================================

// PagePaginator uses page/size pagination with a total-count envelope
// (SAM.gov style: page/size + totalRecords).
type PagePaginator struct {
	Path     string
	Size     int
	Page     int
	PageKey  string // Query param name (default: "page")
	SizeKey  string // Query param name (default: "size")
	TotalKey string // JSON key holding total records (default: "totalRecords")
	Query    url.Values

	total   int
	fetched int
}

// NewPagePaginator creates a new page-based paginator.
func NewPagePaginator(path string, size int) *PagePaginator {
	return &PagePaginator{
		Path:     path,
		Size:     size,
		PageKey:  "page",
		SizeKey:  "size",
		TotalKey: "totalRecords",
	}
}

// FirstPage returns the first page request.
func (p *PagePaginator) FirstPage() *Request {
	query := url.Values{}
	for k, vs := range p.Query {
		for _, v := range vs {
			query.Add(k, v)
		}
	}
	query.Set(p.PageKey, strconv.Itoa(p.Page))
	query.Set(p.SizeKey, strconv.Itoa(p.Size))
	return &Request{
		Method: "GET",
		Path:   p.Path,
		Query:  query,
	}
}

// NextPage returns the next page request based on response.
func (p *PagePaginator) NextPage(ctx context.Context, resp *Response) (*Request, error) {
	var data map[string]any
	if err := json.Unmarshal(resp.Body, &data); err != nil {
		return nil, err
	}

	if total, ok := data[p.TotalKey]; ok {
		switch v := total.(type) {
		case float64:
			p.total = int(v)
		case int:
			p.total = v
		}
	}

	p.fetched += p.Size
	if p.fetched >= p.total {
		return nil, nil
	}

	p.Page++
	return p.FirstPage(), nil
}

// =============================================================================
// CURSOR PAGINATION
// =============================================================================

// CursorPaginator tracks the page position for hasNext-style POST search
// endpoints (USAspending style: page_metadata.hasNext).
type CursorPaginator struct {
	Page    int
	HasNext bool
}

// NewCursorPaginator starts cursor pagination at page 1.
func NewCursorPaginator() *CursorPaginator {
	return &CursorPaginator{Page: 1}
}

// Advance records the envelope's hasNext flag and reports whether another
// page should be requested.
func (p *CursorPaginator) Advance(hasNext bool) bool {
	p.HasNext = hasNext
	if hasNext {
		p.Page++
	}
	return hasNext
}
