package sbir

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/fedlink/enrich-core/internal/connector/http"
	"github.com/fedlink/enrich-core/internal/endpoint"
)

// =============================================================================
// SBIR CONNECTOR
// Implements endpoint.SourceEndpoint and endpoint.IncrementalCapable
// =============================================================================

// Ensure interface compliance
var (
	_ endpoint.SourceEndpoint     = (*SBIR)(nil)
	_ endpoint.IncrementalCapable = (*SBIR)(nil)
)

// SBIR is the SBIR.gov public API connector.
type SBIR struct {
	*http.Base
	config *Config
}

// New creates a new SBIR connector with the given configuration.
func New(config *Config) (*SBIR, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	httpConfig := http.DefaultClientConfig()
	httpConfig.BaseURL = config.BaseURL
	httpConfig.Headers["Accept"] = "application/json"

	return &SBIR{
		Base:   http.NewBase("http.sbir", "SBIR.gov", "SBA", httpConfig),
		config: config,
	}, nil
}

// NewWithClientConfig creates a connector with a caller-supplied client
// config (tests inject transports and low rate limits this way).
func NewWithClientConfig(config *Config, httpConfig *http.ClientConfig) (*SBIR, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	httpConfig.BaseURL = config.BaseURL
	return &SBIR{
		Base:   http.NewBase("http.sbir", "SBIR.gov", "SBA", httpConfig),
		config: config,
	}, nil
}

// =============================================================================
// ENDPOINT INTERFACE
// =============================================================================

// ValidateConfig tests the connection by probing a single-row award query.
func (s *SBIR) ValidateConfig(ctx context.Context, config map[string]any) (*endpoint.ValidationResult, error) {
	query := url.Values{}
	query.Set("rows", "1")
	resp, err := s.Client.Get(ctx, APILibrary["award_search"].Path, query)
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

// GetCapabilities returns SBIR source capabilities.
func (s *SBIR) GetCapabilities() *endpoint.Capabilities {
	return &endpoint.Capabilities{
		SupportsFull:        true,
		SupportsIncremental: true, // award_year filtering
		SupportsPreview:     true,
		SupportsMetadata:    true,
		IncrementalLiteral:  "year",
		DefaultFetchSize:    s.config.FetchSize,
	}
}

// GetDescriptor returns the SBIR endpoint descriptor.
func (s *SBIR) GetDescriptor() *endpoint.Descriptor {
	return &endpoint.Descriptor{
		ID:          "http.sbir",
		Family:      "http",
		Title:       "SBIR.gov",
		Vendor:      "SBA",
		Description: "SBIR.gov public award API connector for SBIR/STTR awards and firms",
		Categories:  []string{"award", "government"},
		Protocols:   []string{"https"},
		DocsURL:     "https://www.sbir.gov/api",
		Fields: []*endpoint.FieldDescriptor{
			{Key: "baseUrl", Label: "API URL", ValueType: "string", DefaultValue: DefaultBaseURL},
			{Key: "agency", Label: "Agency", ValueType: "string", Description: "Agency abbreviation filter (DOD, HHS, NASA, ...)"},
			{Key: "year", Label: "Award Year", ValueType: "integer", Description: "Award year filter"},
		},
	}
}

// =============================================================================
// SOURCE ENDPOINT - Catalog-Driven
// =============================================================================

// ListDatasets returns available SBIR datasets from catalog.
func (s *SBIR) ListDatasets(ctx context.Context) ([]*endpoint.Dataset, error) {
	datasets := make([]*endpoint.Dataset, 0, len(DatasetDefinitions))

	for id, def := range DatasetDefinitions {
		datasets = append(datasets, &endpoint.Dataset{
			ID:                  id,
			Name:                def.Name,
			Kind:                "entity",
			SupportsIncremental: def.SupportsIncremental,
			CdmModelID:          def.CdmModelID,
			IncrementalColumn:   def.IncrementalCursor,
			IncrementalLiteral:  "year",
		})
	}

	return datasets, nil
}

// GetSchema returns schema from catalog definitions.
func (s *SBIR) GetSchema(ctx context.Context, datasetID string) (*endpoint.Schema, error) {
	def, ok := DatasetDefinitions[datasetID]
	if !ok {
		return nil, fmt.Errorf("unknown dataset: %s", datasetID)
	}

	fields := make([]*endpoint.FieldDefinition, 0, len(def.StaticFields))
	for i, f := range def.StaticFields {
		fields = append(fields, &endpoint.FieldDefinition{
			Name:     f.Name,
			DataType: f.DataType,
			Nullable: f.Nullable,
			Comment:  f.Comment,
			Position: i + 1,
		})
	}

	return &endpoint.Schema{Fields: fields}, nil
}

// Read routes to the appropriate handler based on dataset.
func (s *SBIR) Read(ctx context.Context, req *endpoint.ReadRequest) (endpoint.Iterator[endpoint.Record], error) {
	def, ok := DatasetDefinitions[req.DatasetID]
	if !ok {
		return nil, fmt.Errorf("unknown dataset: %s", req.DatasetID)
	}

	switch def.Handler {
	case "awards":
		return s.handleAwards(ctx, req)
	case "firms":
		return s.handleFirms(ctx, req)
	default:
		return nil, fmt.Errorf("no handler for dataset: %s", req.DatasetID)
	}
}

// GetCheckpoint returns the current checkpoint for a dataset.
func (s *SBIR) GetCheckpoint(ctx context.Context, datasetID string) (*endpoint.Checkpoint, error) {
	def, ok := DatasetDefinitions[datasetID]
	if !ok || !def.SupportsIncremental {
		return nil, nil
	}

	return &endpoint.Checkpoint{
		Metadata: map[string]any{
			"incrementalColumn": def.IncrementalCursor,
			"incrementalType":   "year",
		},
	}, nil
}

// =============================================================================
// HANDLERS
// =============================================================================

// handleAwards streams awards with start/rows pagination.
func (s *SBIR) handleAwards(ctx context.Context, req *endpoint.ReadRequest) (endpoint.Iterator[endpoint.Record], error) {
	agency := s.config.Agency
	year := s.config.Year
	if req.Filter != nil {
		if a, ok := req.Filter["agency"].(string); ok && a != "" {
			agency = a
		}
		switch y := req.Filter["year"].(type) {
		case int:
			year = y
		case float64:
			year = int(y)
		}
	}

	pager := http.NewOffsetPaginator(APILibrary["award_search"].Path, s.config.FetchSize)
	pager.Query = url.Values{}
	if agency != "" {
		pager.Query.Set("agency", agency)
	}
	if year > 0 {
		pager.Query.Set("year", strconv.Itoa(year))
	}

	return &awardIterator{
		sbir:  s,
		ctx:   ctx,
		limit: int(req.Limit),
		pager: pager,
		next:  pager.FirstPage(),
	}, nil
}

// handleFirms fetches firms matching the configured filters.
func (s *SBIR) handleFirms(ctx context.Context, req *endpoint.ReadRequest) (endpoint.Iterator[endpoint.Record], error) {
	query := url.Values{}
	query.Set("rows", strconv.Itoa(s.config.FetchSize))
	if req.Filter != nil {
		if name, ok := req.Filter["name"].(string); ok && name != "" {
			query.Set("keyword", name)
		}
	}

	resp, err := s.Client.Get(ctx, APILibrary["firm_search"].Path, query)
	if err != nil {
		return nil, fmt.Errorf("fetch firms: %w", err)
	}

	var firms []*Firm
	if err := resp.JSON(&firms); err != nil {
		return nil, fmt.Errorf("parse firms: %w", err)
	}

	records := make([]endpoint.Record, 0, len(firms))
	for _, f := range firms {
		records = append(records, endpoint.Record{
			"firm_name":        f.FirmName,
			"uei":              f.UEI,
			"duns":             f.DUNS,
			"city":             f.City,
			"state":            f.State,
			"number_employees": f.NumberEmployees,
			"number_awards":    f.NumberAwards,
			"_raw":             f, // Keep raw for CDM mapper
		})
	}

	return endpoint.NewSliceIterator(records, req.Limit), nil
}

// =============================================================================
// AWARD ITERATOR
// =============================================================================

type awardIterator struct {
	sbir  *SBIR
	ctx   context.Context
	limit int
	pager *http.OffsetPaginator
	next  *http.Request

	fetched int
	current []*Award
	index   int
	err     error
}

func (it *awardIterator) Next() bool {
	if it.limit > 0 && it.fetched >= it.limit {
		return false
	}

	if it.index < len(it.current) {
		return true
	}

	if it.next == nil {
		return false
	}

	if err := it.fetchPage(); err != nil {
		it.err = err
		return false
	}

	return it.index < len(it.current)
}

func (it *awardIterator) fetchPage() error {
	resp, err := it.sbir.Client.Do(it.ctx, it.next)
	if err != nil {
		return err
	}

	var page []*Award
	if err := resp.JSON(&page); err != nil {
		return err
	}

	it.current = page
	it.index = 0

	// A short page ends pagination; the award API returns no total count.
	it.next, err = it.pager.NextPage(it.ctx, resp)
	return err
}

func (it *awardIterator) Value() endpoint.Record {
	if it.index < len(it.current) {
		award := it.current[it.index]
		it.index++
		it.fetched++

		return endpoint.Record{
			"agency_tracking_number": award.AgencyTrackingNumber,
			"firm":                   award.Firm,
			"award_title":            award.AwardTitle,
			"agency":                 award.Agency,
			"branch":                 award.Branch,
			"program":                award.Program,
			"phase":                  award.Phase,
			"award_year":             award.AwardYear,
			"award_amount":           award.AwardAmount,
			"contract":               award.Contract,
			"uei":                    award.UEI,
			"duns":                   award.DUNS,
			"city":                   award.City,
			"state":                  award.State,
			"_raw":                   award, // Keep raw for CDM mapper
		}
	}
	return nil
}

func (it *awardIterator) Err() error   { return it.err }
func (it *awardIterator) Close() error { return nil }
