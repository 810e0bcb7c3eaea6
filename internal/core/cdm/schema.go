package cdm

import (
	"fmt"
	"strings"
)

// ColumnDef captures a CDM column definition for sink provisioning.
type ColumnDef struct {
	Name     string
	Type     string
	Nullable bool
}

// modelSchemas maps CDM model IDs to column definitions.
var modelSchemas = map[string][]ColumnDef{
	ModelAward: {
		{Name: "id", Type: "TEXT"},
		{Name: "source_system", Type: "TEXT", Nullable: true},
		{Name: "source_award_id", Type: "TEXT", Nullable: true},
		{Name: "vendor_cdm_id", Type: "TEXT", Nullable: true},
		{Name: "program", Type: "TEXT", Nullable: true},
		{Name: "phase", Type: "TEXT", Nullable: true},
		{Name: "agency", Type: "TEXT", Nullable: true},
		{Name: "branch", Type: "TEXT", Nullable: true},
		{Name: "title", Type: "TEXT", Nullable: true},
		{Name: "abstract", Type: "TEXT", Nullable: true},
		{Name: "award_amount", Type: "NUMERIC", Nullable: true},
		{Name: "award_year", Type: "INTEGER", Nullable: true},
		{Name: "contract_number", Type: "TEXT", Nullable: true},
		{Name: "topic_code", Type: "TEXT", Nullable: true},
		{Name: "solicitation", Type: "TEXT", Nullable: true},
		{Name: "awarded_at", Type: "TIMESTAMPTZ", Nullable: true},
		{Name: "ends_at", Type: "TIMESTAMPTZ", Nullable: true},
		{Name: "properties", Type: "JSONB", Nullable: true},
	},
	ModelVendor: {
		{Name: "id", Type: "TEXT"},
		{Name: "source_system", Type: "TEXT", Nullable: true},
		{Name: "source_id", Type: "TEXT", Nullable: true},
		{Name: "name", Type: "TEXT", Nullable: true},
		{Name: "uei", Type: "TEXT", Nullable: true},
		{Name: "duns", Type: "TEXT", Nullable: true},
		{Name: "cage", Type: "TEXT", Nullable: true},
		{Name: "city", Type: "TEXT", Nullable: true},
		{Name: "state", Type: "TEXT", Nullable: true},
		{Name: "zip", Type: "TEXT", Nullable: true},
		{Name: "employees", Type: "INTEGER", Nullable: true},
		{Name: "woman_owned", Type: "BOOLEAN", Nullable: true},
		{Name: "hubzone", Type: "BOOLEAN", Nullable: true},
		{Name: "properties", Type: "JSONB", Nullable: true},
	},
	ModelRegistration: {
		{Name: "id", Type: "TEXT"},
		{Name: "source_system", Type: "TEXT", Nullable: true},
		{Name: "uei", Type: "TEXT", Nullable: true},
		{Name: "cage", Type: "TEXT", Nullable: true},
		{Name: "legal_business_name", Type: "TEXT", Nullable: true},
		{Name: "dba_name", Type: "TEXT", Nullable: true},
		{Name: "status", Type: "TEXT", Nullable: true},
		{Name: "registered_at", Type: "TIMESTAMPTZ", Nullable: true},
		{Name: "expires_at", Type: "TIMESTAMPTZ", Nullable: true},
		{Name: "state", Type: "TEXT", Nullable: true},
		{Name: "primary_naics", Type: "TEXT", Nullable: true},
		{Name: "naics_codes", Type: "JSONB", Nullable: true},
		{Name: "properties", Type: "JSONB", Nullable: true},
	},
	ModelSpending: {
		{Name: "id", Type: "TEXT"},
		{Name: "source_system", Type: "TEXT", Nullable: true},
		{Name: "generated_award_id", Type: "TEXT", Nullable: true},
		{Name: "piid", Type: "TEXT", Nullable: true},
		{Name: "fain", Type: "TEXT", Nullable: true},
		{Name: "recipient_name", Type: "TEXT", Nullable: true},
		{Name: "recipient_uei", Type: "TEXT", Nullable: true},
		{Name: "recipient_duns", Type: "TEXT", Nullable: true},
		{Name: "obligated_amount", Type: "NUMERIC", Nullable: true},
		{Name: "awarding_agency", Type: "TEXT", Nullable: true},
		{Name: "awarding_sub_agency", Type: "TEXT", Nullable: true},
		{Name: "funding_agency", Type: "TEXT", Nullable: true},
		{Name: "award_type", Type: "TEXT", Nullable: true},
		{Name: "starts_at", Type: "TIMESTAMPTZ", Nullable: true},
		{Name: "ends_at", Type: "TIMESTAMPTZ", Nullable: true},
		{Name: "properties", Type: "JSONB", Nullable: true},
	},
	ModelEnriched: {
		{Name: "id", Type: "TEXT"},
		{Name: "award_cdm_id", Type: "TEXT", Nullable: true},
		{Name: "vendor_cdm_id", Type: "TEXT", Nullable: true},
		{Name: "canonical_vendor_id", Type: "TEXT", Nullable: true},
		{Name: "match_status", Type: "TEXT", Nullable: true},
		{Name: "award", Type: "JSONB", Nullable: true},
		{Name: "vendor", Type: "JSONB", Nullable: true},
		{Name: "spending", Type: "JSONB", Nullable: true},
		{Name: "registration", Type: "JSONB", Nullable: true},
		{Name: "provenance", Type: "JSONB", Nullable: true},
		{Name: "enriched_at", Type: "TIMESTAMPTZ", Nullable: true},
	},
}

// ColumnDDLs returns DDL fragments for the given model ID, or nil if unknown.
func ColumnDDLs(modelID string) []string {
	schema, ok := modelSchemas[strings.ToLower(modelID)]
	if !ok {
		return nil
	}
	out := make([]string, 0, len(schema))
	for _, col := range schema {
		ddl := fmt.Sprintf("%s %s", col.Name, col.Type)
		if !col.Nullable {
			ddl += " NOT NULL"
		}
		out = append(out, ddl)
	}
	return out
}

// ModelSchema returns a copy of the column definitions for a CDM model.
func ModelSchema(modelID string) []ColumnDef {
	schema, ok := modelSchemas[strings.ToLower(modelID)]
	if !ok || len(schema) == 0 {
		return nil
	}
	out := make([]ColumnDef, len(schema))
	copy(out, schema)
	return out
}
