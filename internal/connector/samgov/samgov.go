package samgov

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/fedlink/enrich-core/internal/connector/http"
	"github.com/fedlink/enrich-core/internal/core/cdm"
	"github.com/fedlink/enrich-core/internal/endpoint"
)

// Ensure interface compliance
var _ endpoint.SourceEndpoint = (*SAMGov)(nil)

// SAMGov is the SAM.gov Entity Management API connector.
type SAMGov struct {
	*http.Base
	config *Config
	mapper *CDMMapper
}

// New creates a new SAM.gov connector with the given configuration.
func New(config *Config) (*SAMGov, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	httpConfig := http.DefaultClientConfig()
	httpConfig.BaseURL = config.BaseURL
	httpConfig.Auth = &http.QueryKey{Key: config.APIKey}
	httpConfig.Headers["Accept"] = "application/json"

	return &SAMGov{
		Base:   http.NewBase("http.samgov", "SAM.gov", "GSA", httpConfig),
		config: config,
		mapper: NewCDMMapper(),
	}, nil
}

// NewWithClientConfig creates a connector with a caller-supplied client config.
func NewWithClientConfig(config *Config, httpConfig *http.ClientConfig) (*SAMGov, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	httpConfig.BaseURL = config.BaseURL
	if httpConfig.Auth == nil {
		httpConfig.Auth = &http.QueryKey{Key: config.APIKey}
	}
	return &SAMGov{
		Base:   http.NewBase("http.samgov", "SAM.gov", "GSA", httpConfig),
		config: config,
		mapper: NewCDMMapper(),
	}, nil
}

// =============================================================================
// ENDPOINT INTERFACE
// =============================================================================

// ValidateConfig tests the connection with a single-record entity query.
func (s *SAMGov) ValidateConfig(ctx context.Context, config map[string]any) (*endpoint.ValidationResult, error) {
	query := url.Values{}
	query.Set("registrationStatus", "A")
	query.Set("page", "0")
	query.Set("size", "1")

	resp, err := s.Client.Get(ctx, entitiesPath, query)
	if err != nil {
		if httpErr, ok := err.(*http.HTTPError); ok {
			msg := fmt.Sprintf("Connection failed: HTTP %d", httpErr.StatusCode)
			if httpErr.StatusCode == 401 || httpErr.StatusCode == 403 {
				msg = "Connection failed: invalid API key"
			}
			return &endpoint.ValidationResult{Valid: false, Message: msg}, nil
		}
		return nil, err
	}

	return &endpoint.ValidationResult{
		Valid:   resp.IsSuccess(),
		Message: "Connection successful",
	}, nil
}

// GetCapabilities returns SAM.gov source capabilities.
func (s *SAMGov) GetCapabilities() *endpoint.Capabilities {
	return &endpoint.Capabilities{
		SupportsFull:     true,
		SupportsPreview:  true,
		SupportsMetadata: true,
		SupportsLookup:   true,
		DefaultFetchSize: s.config.FetchSize,
	}
}

// GetDescriptor returns the SAM.gov endpoint descriptor.
func (s *SAMGov) GetDescriptor() *endpoint.Descriptor {
	return &endpoint.Descriptor{
		ID:          "http.samgov",
		Family:      "http",
		Title:       "SAM.gov",
		Vendor:      "GSA",
		Description: "SAM.gov Entity Management API connector for federal registrations",
		Categories:  []string{"entity", "government", "registration"},
		Protocols:   []string{"https"},
		DocsURL:     "https://open.gsa.gov/api/entity-api/",
		Fields: []*endpoint.FieldDescriptor{
			{Key: "baseUrl", Label: "API URL", ValueType: "string", DefaultValue: DefaultBaseURL},
			{Key: "apiKey", Label: "API Key", ValueType: "secret", Required: true},
		},
	}
}

// =============================================================================
// SOURCE ENDPOINT
// =============================================================================

// ListDatasets returns available SAM.gov datasets.
func (s *SAMGov) ListDatasets(ctx context.Context) ([]*endpoint.Dataset, error) {
	return []*endpoint.Dataset{
		{
			ID:         "samgov.entities",
			Name:       "Entity Registrations",
			Kind:       "collection",
			CdmModelID: cdm.ModelRegistration,
		},
	}, nil
}

// GetSchema returns the flattened entity registration schema.
func (s *SAMGov) GetSchema(ctx context.Context, datasetID string) (*endpoint.Schema, error) {
	if datasetID != "samgov.entities" {
		return nil, fmt.Errorf("unknown dataset: %s", datasetID)
	}
	names := []string{
		"uei", "cage_code", "legal_business_name", "dba_name",
		"registration_status", "registration_date", "expiration_date",
		"address_line1", "city", "state", "zip", "country",
		"primary_naics", "naics_codes",
	}
	fields := make([]*endpoint.FieldDefinition, 0, len(names))
	for i, name := range names {
		fields = append(fields, &endpoint.FieldDefinition{
			Name:     name,
			DataType: "string",
			Nullable: true,
			Position: i + 1,
		})
	}
	return &endpoint.Schema{Fields: fields}, nil
}

// Read streams entity registrations matching the request filter.
func (s *SAMGov) Read(ctx context.Context, req *endpoint.ReadRequest) (endpoint.Iterator[endpoint.Record], error) {
	if req.DatasetID != "samgov.entities" {
		return nil, fmt.Errorf("unknown dataset: %s", req.DatasetID)
	}

	query := url.Values{}
	if req.Filter != nil {
		if uei, ok := req.Filter["uei"].(string); ok && uei != "" {
			query.Set("ueiSAM", uei)
		}
		if name, ok := req.Filter["legalBusinessName"].(string); ok && name != "" {
			query.Set("legalBusinessName", name)
		}
		if state, ok := req.Filter["state"].(string); ok && state != "" {
			query.Set("physicalAddressProvinceOrStateCode", state)
		}
	}

	pager := http.NewPagePaginator(entitiesPath, s.config.FetchSize)
	pager.Query = query

	return &entityIterator{
		conn:  s,
		ctx:   ctx,
		limit: int(req.Limit),
		pager: pager,
		next:  pager.FirstPage(),
	}, nil
}

// =============================================================================
// LOOKUP HELPERS
// The enrichment pipeline queries registrations per vendor rather than
// scanning the full dataset.
// =============================================================================

// RegistrationByUEI returns the entity registration for a UEI, or nil when
// SAM.gov has no record of it.
func (s *SAMGov) RegistrationByUEI(ctx context.Context, uei string) (*cdm.Registration, error) {
	if strings.TrimSpace(uei) == "" {
		return nil, nil
	}
	query := url.Values{}
	query.Set("ueiSAM", uei)

	resp, err := s.fetchEntities(ctx, query, 0)
	if err != nil {
		return nil, err
	}
	if len(resp.EntityData) == 0 {
		return nil, nil
	}
	return s.mapper.MapEntity(&resp.EntityData[0]), nil
}

// RegistrationByName looks up a registration by legal business name, narrowed
// by state when available. Returns nil when no entity matches.
func (s *SAMGov) RegistrationByName(ctx context.Context, name, state string) (*cdm.Registration, error) {
	if strings.TrimSpace(name) == "" {
		return nil, nil
	}
	query := url.Values{}
	query.Set("legalBusinessName", name)
	if state != "" {
		query.Set("physicalAddressProvinceOrStateCode", state)
	}

	resp, err := s.fetchEntities(ctx, query, 0)
	if err != nil {
		return nil, err
	}
	if len(resp.EntityData) == 0 {
		return nil, nil
	}
	return s.mapper.MapEntity(&resp.EntityData[0]), nil
}

// fetchEntities issues one entities page.
func (s *SAMGov) fetchEntities(ctx context.Context, query url.Values, page int) (*EntityResponse, error) {
	q := url.Values{}
	for k, v := range query {
		q[k] = v
	}
	q.Set("page", strconv.Itoa(page))
	q.Set("size", strconv.Itoa(s.config.FetchSize))

	resp, err := s.Client.Get(ctx, entitiesPath, q)
	if err != nil {
		return nil, fmt.Errorf("entities: %w", err)
	}

	var result EntityResponse
	if err := resp.JSON(&result); err != nil {
		return nil, fmt.Errorf("parse entities: %w", err)
	}
	return &result, nil
}

// =============================================================================
// ENTITY ITERATOR
// =============================================================================

type entityIterator struct {
	conn  *SAMGov
	ctx   context.Context
	limit int
	pager *http.PagePaginator
	next  *http.Request

	fetched int
	current []Entity
	index   int
	err     error
}

func (it *entityIterator) Next() bool {
	if it.limit > 0 && it.fetched >= it.limit {
		return false
	}

	if it.index < len(it.current) {
		return true
	}

	if it.next == nil {
		return false
	}

	resp, err := it.conn.Client.Do(it.ctx, it.next)
	if err != nil {
		it.err = fmt.Errorf("entities: %w", err)
		return false
	}

	var page EntityResponse
	if err := resp.JSON(&page); err != nil {
		it.err = fmt.Errorf("parse entities: %w", err)
		return false
	}

	it.current = page.EntityData
	it.index = 0

	// totalRecords bounds paging once the first page arrives.
	it.next, err = it.pager.NextPage(it.ctx, resp)
	if err != nil {
		it.err = err
		return false
	}

	return it.index < len(it.current)
}

func (it *entityIterator) Value() endpoint.Record {
	if it.index < len(it.current) {
		entity := &it.current[it.index]
		it.index++
		it.fetched++

		reg := entity.EntityRegistration
		addr := entity.CoreData.PhysicalAddress
		return endpoint.Record{
			"uei":                 reg.UeiSAM,
			"cage_code":           reg.CageCode,
			"legal_business_name": reg.LegalBusinessName,
			"dba_name":            reg.DbaName,
			"registration_status": reg.RegistrationStatus,
			"registration_date":   reg.RegistrationDate,
			"expiration_date":     reg.ExpirationDate,
			"address_line1":       addr.AddressLine1,
			"city":                addr.City,
			"state":               addr.StateOrProvinceCode,
			"zip":                 addr.ZipCode,
			"country":             addr.CountryCode,
			"primary_naics":       entity.Assertions.GoodsAndServices.PrimaryNaics,
			"_raw":                entity, // Keep raw for CDM mapper
		}
	}
	return nil
}

func (it *entityIterator) Err() error   { return it.err }
func (it *entityIterator) Close() error { return nil }
