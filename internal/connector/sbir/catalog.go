package sbir

import "github.com/fedlink/enrich-core/internal/core/cdm"

// =============================================================================
// API LIBRARY
// Catalog of SBIR.gov API endpoints used by this connector.
// =============================================================================

// APIEndpoint describes an SBIR.gov API endpoint.
type APIEndpoint struct {
	Method      string
	Path        string
	Description string
	DocsURL     string
	Scope       string
}

// APILibrary contains all SBIR.gov API endpoints used by this connector.
var APILibrary = map[string]APIEndpoint{
	"award_search": {
		Method:      "GET",
		Path:        "/public/api/awards",
		Description: "List SBIR/STTR awards with agency/year filters and start/rows pagination",
		DocsURL:     "https://www.sbir.gov/api",
		Scope:       "awards",
	},
	"firm_search": {
		Method:      "GET",
		Path:        "/public/api/firm",
		Description: "Search participating firms by name or UEI",
		DocsURL:     "https://www.sbir.gov/api",
		Scope:       "firms",
	},
	"solicitation_search": {
		Method:      "GET",
		Path:        "/public/api/solicitations",
		Description: "List open and closed solicitations",
		DocsURL:     "https://www.sbir.gov/api",
		Scope:       "solicitations",
	},
}

// =============================================================================
// DATASET DEFINITIONS
// =============================================================================

// FieldDef defines a schema field.
type FieldDef struct {
	Name     string
	DataType string
	Nullable bool
	Comment  string
}

// DatasetDefinition describes a dataset exposed by this connector.
type DatasetDefinition struct {
	Name                string
	Handler             string
	CdmModelID          string
	SupportsIncremental bool
	IncrementalCursor   string
	StaticFields        []FieldDef
}

// DatasetDefinitions catalogs datasets exposed by the SBIR connector.
var DatasetDefinitions = map[string]DatasetDefinition{
	"sbir.awards": {
		Name:                "SBIR Awards",
		Handler:             "awards",
		CdmModelID:          cdm.ModelAward,
		SupportsIncremental: true,
		IncrementalCursor:   "award_year",
		StaticFields: []FieldDef{
			{Name: "agency_tracking_number", DataType: "string", Comment: "Agency tracking number"},
			{Name: "firm", DataType: "string", Comment: "Awardee firm name"},
			{Name: "award_title", DataType: "string", Nullable: true},
			{Name: "agency", DataType: "string"},
			{Name: "branch", DataType: "string", Nullable: true},
			{Name: "program", DataType: "string", Comment: "SBIR or STTR"},
			{Name: "phase", DataType: "string"},
			{Name: "award_year", DataType: "integer"},
			{Name: "award_amount", DataType: "number", Nullable: true},
			{Name: "contract", DataType: "string", Nullable: true},
			{Name: "uei", DataType: "string", Nullable: true},
			{Name: "duns", DataType: "string", Nullable: true},
			{Name: "city", DataType: "string", Nullable: true},
			{Name: "state", DataType: "string", Nullable: true},
		},
	},
	"sbir.firms": {
		Name:       "SBIR Firms",
		Handler:    "firms",
		CdmModelID: cdm.ModelVendor,
		StaticFields: []FieldDef{
			{Name: "firm_name", DataType: "string"},
			{Name: "uei", DataType: "string", Nullable: true},
			{Name: "duns", DataType: "string", Nullable: true},
			{Name: "city", DataType: "string", Nullable: true},
			{Name: "state", DataType: "string", Nullable: true},
			{Name: "number_employees", DataType: "integer", Nullable: true},
			{Name: "number_awards", DataType: "integer", Nullable: true},
		},
	},
}
