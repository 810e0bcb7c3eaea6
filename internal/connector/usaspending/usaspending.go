package usaspending

import (
	"context"
	"fmt"

	"github.com/fedlink/enrich-core/internal/connector/http"
	"github.com/fedlink/enrich-core/internal/core/cdm"
	"github.com/fedlink/enrich-core/internal/endpoint"
)

const searchPath = "/api/v2/search/spending_by_award/"

// Ensure interface compliance
var _ endpoint.SourceEndpoint = (*USAspending)(nil)

// USAspending is the USAspending.gov v2 API connector.
type USAspending struct {
	*http.Base
	config *Config
	mapper *CDMMapper
}

// New creates a new USAspending connector with the given configuration.
func New(config *Config) (*USAspending, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	httpConfig := http.DefaultClientConfig()
	httpConfig.BaseURL = config.BaseURL
	httpConfig.Headers["Accept"] = "application/json"
	httpConfig.Headers["Content-Type"] = "application/json"

	return &USAspending{
		Base:   http.NewBase("http.usaspending", "USAspending", "Treasury", httpConfig),
		config: config,
		mapper: NewCDMMapper(),
	}, nil
}

// NewWithClientConfig creates a connector with a caller-supplied client config.
func NewWithClientConfig(config *Config, httpConfig *http.ClientConfig) (*USAspending, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	httpConfig.BaseURL = config.BaseURL
	return &USAspending{
		Base:   http.NewBase("http.usaspending", "USAspending", "Treasury", httpConfig),
		config: config,
		mapper: NewCDMMapper(),
	}, nil
}

// =============================================================================
// ENDPOINT INTERFACE
// =============================================================================

// ValidateConfig tests the connection by issuing a minimal search.
func (u *USAspending) ValidateConfig(ctx context.Context, config map[string]any) (*endpoint.ValidationResult, error) {
	req := &SearchRequest{
		Filters: SearchFilters{
			Keywords:       []string{"SBIR"},
			AwardTypeCodes: u.config.AwardTypeCodes,
		},
		Fields: SearchFields,
		Page:   1,
		Limit:  1,
	}
	resp, err := u.Client.Post(ctx, searchPath, req)
	if err != nil {
		if httpErr, ok := err.(*http.HTTPError); ok {
			return &endpoint.ValidationResult{
				Valid:   false,
				Message: fmt.Sprintf("Connection failed: HTTP %d", httpErr.StatusCode),
			}, nil
		}
		return nil, err
	}

	return &endpoint.ValidationResult{
		Valid:   resp.IsSuccess(),
		Message: "Connection successful",
	}, nil
}

// GetCapabilities returns USAspending source capabilities.
func (u *USAspending) GetCapabilities() *endpoint.Capabilities {
	return &endpoint.Capabilities{
		SupportsFull:     true,
		SupportsPreview:  true,
		SupportsMetadata: true,
		SupportsLookup:   true,
		DefaultFetchSize: u.config.FetchSize,
	}
}

// GetDescriptor returns the USAspending endpoint descriptor.
func (u *USAspending) GetDescriptor() *endpoint.Descriptor {
	return &endpoint.Descriptor{
		ID:          "http.usaspending",
		Family:      "http",
		Title:       "USAspending",
		Vendor:      "Treasury",
		Description: "USAspending.gov v2 API connector for prime award spending records",
		Categories:  []string{"award", "government", "spending"},
		Protocols:   []string{"https"},
		DocsURL:     "https://api.usaspending.gov/docs/endpoints",
		Fields: []*endpoint.FieldDescriptor{
			{Key: "baseUrl", Label: "API URL", ValueType: "string", DefaultValue: DefaultBaseURL},
		},
	}
}

// =============================================================================
// SOURCE ENDPOINT
// =============================================================================

// ListDatasets returns available USAspending datasets.
func (u *USAspending) ListDatasets(ctx context.Context) ([]*endpoint.Dataset, error) {
	return []*endpoint.Dataset{
		{
			ID:         "usaspending.awards",
			Name:       "Prime Award Spending",
			Kind:       "collection",
			CdmModelID: cdm.ModelSpending,
		},
	}, nil
}

// GetSchema returns the award search result schema.
func (u *USAspending) GetSchema(ctx context.Context, datasetID string) (*endpoint.Schema, error) {
	if datasetID != "usaspending.awards" {
		return nil, fmt.Errorf("unknown dataset: %s", datasetID)
	}
	fields := make([]*endpoint.FieldDefinition, 0, len(SearchFields))
	for i, name := range SearchFields {
		fields = append(fields, &endpoint.FieldDefinition{
			Name:     name,
			DataType: "string",
			Nullable: true,
			Position: i + 1,
		})
	}
	return &endpoint.Schema{Fields: fields}, nil
}

// Read streams spending records for the filters in the request.
func (u *USAspending) Read(ctx context.Context, req *endpoint.ReadRequest) (endpoint.Iterator[endpoint.Record], error) {
	if req.DatasetID != "usaspending.awards" {
		return nil, fmt.Errorf("unknown dataset: %s", req.DatasetID)
	}

	filters := SearchFilters{
		AwardTypeCodes: u.config.AwardTypeCodes,
	}
	if req.Filter != nil {
		if uei, ok := req.Filter["uei"].(string); ok && uei != "" {
			filters.RecipientSearchText = []string{uei}
		} else if name, ok := req.Filter["recipient"].(string); ok && name != "" {
			filters.RecipientSearchText = []string{name}
		}
		if agency, ok := req.Filter["agency"].(string); ok && agency != "" {
			filters.AgencyNames = []AgencyFilter{{Type: "awarding", Tier: "toptier", Name: agency}}
		}
	}

	return &spendingIterator{
		conn:    u,
		ctx:     ctx,
		filters: filters,
		limit:   int(req.Limit),
		pager:   http.NewCursorPaginator(),
	}, nil
}

// =============================================================================
// LOOKUP HELPERS
// The enrichment pipeline queries spending per vendor rather than scanning
// the full dataset.
// =============================================================================

// SpendingForVendor returns all prime award spending records for a vendor.
// It searches by UEI first; when the UEI yields nothing it reissues the
// search with the legacy DUNS, matching the registration lookup behavior.
func (u *USAspending) SpendingForVendor(ctx context.Context, uei, duns string) ([]*cdm.FederalSpending, error) {
	if uei != "" {
		records, err := u.spendingForTerm(ctx, uei)
		if err != nil {
			return nil, err
		}
		if len(records) > 0 || duns == "" {
			return records, nil
		}
	}
	if duns == "" {
		return nil, nil
	}
	return u.spendingForTerm(ctx, duns)
}

// spendingForTerm pages through every spending record for one recipient term.
func (u *USAspending) spendingForTerm(ctx context.Context, term string) ([]*cdm.FederalSpending, error) {
	filters := SearchFilters{
		AwardTypeCodes:      u.config.AwardTypeCodes,
		RecipientSearchText: []string{term},
	}

	var out []*cdm.FederalSpending
	pager := http.NewCursorPaginator()
	for {
		resp, err := u.search(ctx, filters, pager.Page)
		if err != nil {
			return nil, err
		}
		for i := range resp.Results {
			out = append(out, u.mapper.MapResult(&resp.Results[i]))
		}
		if !pager.Advance(resp.PageMetadata.HasNext) {
			break
		}
	}
	return out, nil
}

// search issues one spending_by_award page.
func (u *USAspending) search(ctx context.Context, filters SearchFilters, page int) (*SearchResponse, error) {
	body := &SearchRequest{
		Filters: filters,
		Fields:  SearchFields,
		Page:    page,
		Limit:   u.config.FetchSize,
	}
	resp, err := u.Client.Post(ctx, searchPath, body)
	if err != nil {
		return nil, fmt.Errorf("spending_by_award: %w", err)
	}

	var result SearchResponse
	if err := resp.JSON(&result); err != nil {
		return nil, fmt.Errorf("parse spending_by_award: %w", err)
	}
	return &result, nil
}

// =============================================================================
// SPENDING ITERATOR
// =============================================================================

type spendingIterator struct {
	conn    *USAspending
	ctx     context.Context
	filters SearchFilters
	limit   int
	pager   *http.CursorPaginator

	fetched int
	current []SearchResult
	index   int
	done    bool
	err     error
}

func (it *spendingIterator) Next() bool {
	if it.limit > 0 && it.fetched >= it.limit {
		return false
	}

	if it.index < len(it.current) {
		return true
	}

	if it.done {
		return false
	}

	resp, err := it.conn.search(it.ctx, it.filters, it.pager.Page)
	if err != nil {
		it.err = err
		return false
	}

	it.current = resp.Results
	it.index = 0
	if !it.pager.Advance(resp.PageMetadata.HasNext) {
		it.done = true
	}

	return it.index < len(it.current)
}

func (it *spendingIterator) Value() endpoint.Record {
	if it.index < len(it.current) {
		result := &it.current[it.index]
		it.index++
		it.fetched++

		return endpoint.Record{
			"award_id":            result.AwardID,
			"recipient_name":      result.RecipientName,
			"recipient_uei":       result.RecipientUEI,
			"recipient_duns":      result.RecipientDUNS,
			"award_amount":        result.AwardAmount,
			"awarding_agency":     result.AwardingAgency,
			"awarding_sub_agency": result.AwardingSubAgency,
			"funding_agency":      result.FundingAgency,
			"start_date":          result.StartDate,
			"end_date":            result.EndDate,
			"_raw":                result, // Keep raw for CDM mapper
		}
	}
	return nil
}

func (it *spendingIterator) Err() error   { return it.err }
func (it *spendingIterator) Close() error { return nil }
