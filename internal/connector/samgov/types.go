package samgov

import "fmt"

// DefaultFetchSize is the page size for entity listing (API max is 10 for
// the public tier).
const DefaultFetchSize = 10

// DefaultBaseURL is the SAM.gov entity information API host.
const DefaultBaseURL = "https://api.sam.gov"

const entitiesPath = "/entity-information/v3/entities"

// Config holds SAM.gov connector configuration.
type Config struct {
	BaseURL   string
	APIKey    string
	FetchSize int
}

// Validate checks required configuration.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.APIKey == "" {
		return fmt.Errorf("samgov: apiKey is required")
	}
	if c.FetchSize <= 0 {
		c.FetchSize = DefaultFetchSize
	}
	return nil
}

// =============================================================================
// API RESPONSE TYPES
// GET /entity-information/v3/entities returns a totalRecords envelope with
// an entityData array of deeply nested registration objects.
// =============================================================================

// EntityResponse is the entities endpoint envelope.
type EntityResponse struct {
	TotalRecords int      `json:"totalRecords"`
	EntityData   []Entity `json:"entityData"`
}

// Entity is one SAM registration.
type Entity struct {
	EntityRegistration EntityRegistration `json:"entityRegistration"`
	CoreData           CoreData           `json:"coreData"`
	Assertions         Assertions         `json:"assertions"`
}

// EntityRegistration carries identity and registration lifecycle fields.
type EntityRegistration struct {
	UeiSAM            string `json:"ueiSAM"`
	CageCode          string `json:"cageCode"`
	LegalBusinessName string `json:"legalBusinessName"`
	DbaName           string `json:"dbaName"`
	RegistrationStatus string `json:"registrationStatus"`
	RegistrationDate  string `json:"registrationDate"`
	ExpirationDate    string `json:"registrationExpirationDate"`
}

// CoreData carries addresses and general information.
type CoreData struct {
	PhysicalAddress   Address           `json:"physicalAddress"`
	MailingAddress    Address           `json:"mailingAddress"`
	EntityInformation EntityInformation `json:"entityInformation"`
}

// Address is a SAM physical or mailing address.
type Address struct {
	AddressLine1        string `json:"addressLine1"`
	AddressLine2        string `json:"addressLine2"`
	City                string `json:"city"`
	StateOrProvinceCode string `json:"stateOrProvinceCode"`
	ZipCode             string `json:"zipCode"`
	CountryCode         string `json:"countryCode"`
}

// EntityInformation carries descriptive fields.
type EntityInformation struct {
	EntityURL         string `json:"entityURL"`
	EntityStartDate   string `json:"entityStartDate"`
	FiscalYearEndDate string `json:"fiscalYearEndCloseDate"`
}

// Assertions carries goods/services classifications.
type Assertions struct {
	GoodsAndServices GoodsAndServices `json:"goodsAndServices"`
}

// GoodsAndServices lists NAICS classifications.
type GoodsAndServices struct {
	PrimaryNaics string      `json:"primaryNaics"`
	NaicsList    []NaicsCode `json:"naicsList"`
}

// NaicsCode is one NAICS classification entry.
type NaicsCode struct {
	NaicsCode        string `json:"naicsCode"`
	NaicsDescription string `json:"naicsDescription"`
}
