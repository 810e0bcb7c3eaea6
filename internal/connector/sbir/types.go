package sbir

import "fmt"

// DefaultFetchSize is the page size for award listing (API max is 100).
const DefaultFetchSize = 100

// DefaultBaseURL is the public SBIR.gov API host.
const DefaultBaseURL = "https://api.www.sbir.gov"

// Config holds SBIR connector configuration.
type Config struct {
	BaseURL   string
	Agency    string // optional agency filter (e.g., "DOD", "HHS")
	Year      int    // optional award year filter
	FetchSize int
}

// Validate checks required configuration.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.FetchSize <= 0 || c.FetchSize > 100 {
		c.FetchSize = DefaultFetchSize
	}
	return nil
}

// =============================================================================
// API RESPONSE TYPES
// The award API returns a bare JSON array of these objects. Amounts arrive
// as strings and several fields use "Y"/"N" flags.
// =============================================================================

// Award is a raw SBIR.gov award record.
type Award struct {
	Firm                 string `json:"firm"`
	AwardTitle           string `json:"award_title"`
	Agency               string `json:"agency"`
	Branch               string `json:"branch"`
	Phase                string `json:"phase"`
	Program              string `json:"program"`
	AgencyTrackingNumber string `json:"agency_tracking_number"`
	Contract             string `json:"contract"`
	ProposalAwardDate    string `json:"proposal_award_date"`
	ContractEndDate      string `json:"contract_end_date"`
	SolicitationNumber   string `json:"solicitation_number"`
	TopicCode            string `json:"topic_code"`
	AwardYear            int    `json:"award_year"`
	AwardAmount          string `json:"award_amount"`
	UEI                  string `json:"uei"`
	DUNS                 string `json:"duns"`
	HubzoneOwned         string `json:"hubzone_owned"`
	SociallyDisadvantaged string `json:"socially_economically_disadvantaged"`
	WomenOwned           string `json:"women_owned"`
	NumberEmployees      int    `json:"number_employees"`
	CompanyURL           string `json:"company_url"`
	Address1             string `json:"address1"`
	Address2             string `json:"address2"`
	City                 string `json:"city"`
	State                string `json:"state"`
	Zip                  string `json:"zip"`
	POCName              string `json:"poc_name"`
	POCEmail             string `json:"poc_email"`
	PIName               string `json:"pi_name"`
	ResearchKeywords     string `json:"research_area_keywords"`
	Abstract             string `json:"abstract"`
	AwardLink            string `json:"award_link"`
}

// TrackingID returns the stable native identifier for an award. Falls back
// to contract number when the tracking number is absent.
func (a *Award) TrackingID() string {
	if a.AgencyTrackingNumber != "" {
		return a.AgencyTrackingNumber
	}
	if a.Contract != "" {
		return a.Contract
	}
	return fmt.Sprintf("%s-%d-%s", a.Agency, a.AwardYear, a.Firm)
}

// Firm is a raw SBIR.gov firm record.
type Firm struct {
	FirmName        string `json:"firm_name"`
	UEI             string `json:"uei"`
	DUNS            string `json:"duns"`
	Address1        string `json:"address1"`
	City            string `json:"city"`
	State           string `json:"state"`
	Zip             string `json:"zip"`
	Website         string `json:"company_url"`
	NumberAwards    int    `json:"number_awards"`
	HubzoneOwned    string `json:"hubzone_owned"`
	WomenOwned      string `json:"women_owned"`
	NumberEmployees int    `json:"number_employees"`
}
