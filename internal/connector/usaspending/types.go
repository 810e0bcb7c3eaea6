package usaspending

// DefaultFetchSize is the page size for award search (API max is 100).
const DefaultFetchSize = 100

// DefaultBaseURL is the USAspending API host.
const DefaultBaseURL = "https://api.usaspending.gov"

// Config holds USAspending connector configuration.
type Config struct {
	BaseURL   string
	FetchSize int

	// AwardTypeCodes restricts the search to given prime award types.
	// Defaults to contracts (A-D), the types SBIR awards are let under.
	AwardTypeCodes []string
}

// Validate checks required configuration.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.FetchSize <= 0 || c.FetchSize > 100 {
		c.FetchSize = DefaultFetchSize
	}
	if len(c.AwardTypeCodes) == 0 {
		c.AwardTypeCodes = []string{"A", "B", "C", "D"}
	}
	return nil
}

// =============================================================================
// API REQUEST/RESPONSE TYPES
// POST /api/v2/search/spending_by_award/ takes a filter body and returns
// result rows keyed by the display names requested in "fields".
// =============================================================================

// SearchRequest is the body for spending_by_award.
type SearchRequest struct {
	Filters SearchFilters `json:"filters"`
	Fields  []string      `json:"fields"`
	Page    int           `json:"page"`
	Limit   int           `json:"limit"`
}

// SearchFilters narrows an award search.
type SearchFilters struct {
	Keywords            []string       `json:"keywords,omitempty"`
	TimePeriod          []TimePeriod   `json:"time_period,omitempty"`
	AwardTypeCodes      []string       `json:"award_type_codes,omitempty"`
	RecipientSearchText []string       `json:"recipient_search_text,omitempty"`
	RecipientID         string         `json:"recipient_id,omitempty"`
	AgencyNames         []AgencyFilter `json:"agencies,omitempty"`
}

// TimePeriod bounds a search by action date.
type TimePeriod struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

// AgencyFilter selects awards by awarding/funding agency.
type AgencyFilter struct {
	Type string `json:"type"` // "awarding" | "funding"
	Tier string `json:"tier"` // "toptier" | "subtier"
	Name string `json:"name"`
}

// SearchFields is the field set this connector requests. The API echoes
// these display names as result keys.
var SearchFields = []string{
	"Award ID",
	"Recipient Name",
	"Recipient UEI",
	"Recipient DUNS Number",
	"Award Amount",
	"Awarding Agency",
	"Awarding Sub Agency",
	"Funding Agency",
	"Start Date",
	"End Date",
	"Description",
	"generated_internal_id",
}

// SearchResponse is the spending_by_award envelope.
type SearchResponse struct {
	Results      []SearchResult `json:"results"`
	PageMetadata PageMetadata   `json:"page_metadata"`
}

// SearchResult is one prime award row. Keys mirror the requested fields.
type SearchResult struct {
	AwardID             string  `json:"Award ID"`
	RecipientName       string  `json:"Recipient Name"`
	RecipientUEI        string  `json:"Recipient UEI"`
	RecipientDUNS       string  `json:"Recipient DUNS Number"`
	AwardAmount         float64 `json:"Award Amount"`
	AwardingAgency      string  `json:"Awarding Agency"`
	AwardingSubAgency   string  `json:"Awarding Sub Agency"`
	FundingAgency       string  `json:"Funding Agency"`
	StartDate           string  `json:"Start Date"`
	EndDate             string  `json:"End Date"`
	Description         string  `json:"Description"`
	GeneratedInternalID string  `json:"generated_internal_id"`
}

// PageMetadata reports pagination state.
type PageMetadata struct {
	Page    int  `json:"page"`
	HasNext bool `json:"hasNext"`
}
