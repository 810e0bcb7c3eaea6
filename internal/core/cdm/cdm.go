// Package cdm provides the canonical data model for the enrichment pipeline.
// CDM defines the shared schemas that SBIR, USAspending, and SAM.gov records
// map into before cross-source matching and merging.
package cdm

import "time"

// CDM Model IDs (constants for referencing)
const (
	ModelAward        = "cdm.award.award"
	ModelVendor       = "cdm.award.vendor"
	ModelRegistration = "cdm.award.registration"
	ModelSpending     = "cdm.award.spending"
	ModelEnriched     = "cdm.award.enriched"
)

// MatchStatus classifies how much cross-source context an award received.
type MatchStatus string

const (
	// MatchStatusFull means both a spending record and a registration matched.
	MatchStatusFull MatchStatus = "full"
	// MatchStatusPartial means exactly one secondary source matched.
	MatchStatusPartial MatchStatus = "partial"
	// MatchStatusUnmatched means the award carries only its original fields.
	MatchStatusUnmatched MatchStatus = "unmatched"
)

// =============================================================================
// AWARD DOMAIN - Awards, Vendors, Registrations, Spending
// Source: SBIR.gov, USAspending, SAM.gov
// =============================================================================

// Award represents a single SBIR/STTR award.
// ID format: cdm:award:award:<source_system>:<tracking_number>
type Award struct {
	CdmID          string
	SourceSystem   string
	SourceAwardID  string
	VendorCdmID    string
	Program        string // "SBIR" | "STTR"
	Phase          string // "Phase I" | "Phase II"
	Agency         string
	Branch         string
	Title          string
	Abstract       string
	AwardAmount    float64
	AwardYear      int
	ContractNumber string
	TopicCode      string
	Solicitation   string
	AwardedAt      *time.Time
	EndsAt         *time.Time
	Properties     map[string]any
}

// Vendor represents a company/recipient observed in any source.
// ID format: cdm:award:vendor:<source_system>:<native_id>
type Vendor struct {
	CdmID         string
	SourceSystem  string
	SourceID      string
	Name          string
	UEI           string
	DUNS          string
	CAGE          string
	Address1      string
	Address2      string
	City          string
	State         string
	Zip           string
	Website       string
	Employees     int
	WomanOwned    bool
	HUBZone       bool
	Disadvantaged bool
	Properties    map[string]any
}

// Registration represents a SAM.gov entity registration.
// ID format: cdm:award:registration:<source_system>:<uei>
type Registration struct {
	CdmID             string
	SourceSystem      string
	UEI               string
	CAGE              string
	LegalBusinessName string
	DBAName           string
	Status            string // "Active" | "Inactive"
	RegisteredAt      *time.Time
	ExpiresAt         *time.Time
	Address1          string
	City              string
	State             string
	Zip               string
	Country           string
	NAICSCodes        []string
	PrimaryNAICS      string
	Properties        map[string]any
}

// FederalSpending represents a USAspending prime award record.
// ID format: cdm:award:spending:<source_system>:<generated_award_id>
type FederalSpending struct {
	CdmID             string
	SourceSystem      string
	GeneratedAwardID  string
	PIID              string
	FAIN              string
	RecipientName     string
	RecipientUEI      string
	RecipientDUNS     string
	ObligatedAmount   float64
	AwardingAgency    string
	AwardingSubAgency string
	FundingAgency     string
	AwardType         string
	StartsAt          *time.Time
	EndsAt            *time.Time
	Description       string
	Properties        map[string]any
}

// Provenance records which source supplied a merged field and under which rule.
type Provenance struct {
	Field  string `json:"field"`
	Source string `json:"source"`
	Rule   string `json:"rule"`
}

// EnrichedAward is the pipeline output: the SBIR award spine plus everything
// the secondary sources contributed, with per-field provenance.
type EnrichedAward struct {
	Award             Award
	VendorCdmID       string
	CanonicalVendorID string // resolved canonical_vendors.id, joins enriched rows back to the registry
	Vendor            *Vendor
	Spending          *FederalSpending
	Registration      *Registration
	Status            MatchStatus
	Provenance        []Provenance
	EnrichedAt        time.Time
}
