package cdm

import (
	"fmt"
	"time"
)

// =============================================================================
// CDM ID HELPERS
// Utility functions for generating standardized CDM IDs.
// =============================================================================

// AwardID generates a CDM ID for an award.
func AwardID(sourceSystem, awardID string) string {
	return fmt.Sprintf("cdm:award:award:%s:%s", sourceSystem, awardID)
}

// VendorID generates a CDM ID for a vendor.
func VendorID(sourceSystem, nativeID string) string {
	return fmt.Sprintf("cdm:award:vendor:%s:%s", sourceSystem, nativeID)
}

// RegistrationID generates a CDM ID for a SAM registration.
func RegistrationID(sourceSystem, uei string) string {
	return fmt.Sprintf("cdm:award:registration:%s:%s", sourceSystem, uei)
}

// SpendingID generates a CDM ID for a federal spending record.
func SpendingID(sourceSystem, generatedAwardID string) string {
	return fmt.Sprintf("cdm:award:spending:%s:%s", sourceSystem, generatedAwardID)
}

// EnrichedID generates a CDM ID for an enriched award.
func EnrichedID(awardCdmID string) string {
	return fmt.Sprintf("cdm:award:enriched:%s", awardCdmID)
}

// =============================================================================
// CDM RECORD CONVERSION
// Helpers for converting CDM entities to generic records.
// =============================================================================

// ToRecord converts an Award to a map for serialization.
func (a *Award) ToRecord() map[string]any {
	rec := map[string]any{
		"cdm_id":          a.CdmID,
		"source_system":   a.SourceSystem,
		"source_award_id": a.SourceAwardID,
		"vendor_cdm_id":   a.VendorCdmID,
		"program":         a.Program,
		"phase":           a.Phase,
		"agency":          a.Agency,
		"branch":          a.Branch,
		"title":           a.Title,
		"abstract":        a.Abstract,
		"award_amount":    a.AwardAmount,
		"award_year":      a.AwardYear,
		"contract_number": a.ContractNumber,
		"topic_code":      a.TopicCode,
		"solicitation":    a.Solicitation,
		"properties":      a.Properties,
	}
	if a.AwardedAt != nil {
		rec["awarded_at"] = a.AwardedAt.Format(time.RFC3339)
	}
	if a.EndsAt != nil {
		rec["ends_at"] = a.EndsAt.Format(time.RFC3339)
	}
	return rec
}

// ToRecord converts a Vendor to a map.
func (v *Vendor) ToRecord() map[string]any {
	return map[string]any{
		"cdm_id":        v.CdmID,
		"source_system": v.SourceSystem,
		"source_id":     v.SourceID,
		"name":          v.Name,
		"uei":           v.UEI,
		"duns":          v.DUNS,
		"cage":          v.CAGE,
		"address1":      v.Address1,
		"address2":      v.Address2,
		"city":          v.City,
		"state":         v.State,
		"zip":           v.Zip,
		"website":       v.Website,
		"employees":     v.Employees,
		"woman_owned":   v.WomanOwned,
		"hubzone":       v.HUBZone,
		"disadvantaged": v.Disadvantaged,
		"properties":    v.Properties,
	}
}

// ToRecord converts a Registration to a map.
func (r *Registration) ToRecord() map[string]any {
	rec := map[string]any{
		"cdm_id":              r.CdmID,
		"source_system":       r.SourceSystem,
		"uei":                 r.UEI,
		"cage":                r.CAGE,
		"legal_business_name": r.LegalBusinessName,
		"dba_name":            r.DBAName,
		"status":              r.Status,
		"address1":            r.Address1,
		"city":                r.City,
		"state":               r.State,
		"zip":                 r.Zip,
		"country":             r.Country,
		"naics_codes":         r.NAICSCodes,
		"primary_naics":       r.PrimaryNAICS,
		"properties":          r.Properties,
	}
	if r.RegisteredAt != nil {
		rec["registered_at"] = r.RegisteredAt.Format(time.RFC3339)
	}
	if r.ExpiresAt != nil {
		rec["expires_at"] = r.ExpiresAt.Format(time.RFC3339)
	}
	return rec
}

// ToRecord converts a FederalSpending record to a map.
func (s *FederalSpending) ToRecord() map[string]any {
	rec := map[string]any{
		"cdm_id":              s.CdmID,
		"source_system":       s.SourceSystem,
		"generated_award_id":  s.GeneratedAwardID,
		"piid":                s.PIID,
		"fain":                s.FAIN,
		"recipient_name":      s.RecipientName,
		"recipient_uei":       s.RecipientUEI,
		"recipient_duns":      s.RecipientDUNS,
		"obligated_amount":    s.ObligatedAmount,
		"awarding_agency":     s.AwardingAgency,
		"awarding_sub_agency": s.AwardingSubAgency,
		"funding_agency":      s.FundingAgency,
		"award_type":          s.AwardType,
		"description":         s.Description,
		"properties":          s.Properties,
	}
	if s.StartsAt != nil {
		rec["starts_at"] = s.StartsAt.Format(time.RFC3339)
	}
	if s.EndsAt != nil {
		rec["ends_at"] = s.EndsAt.Format(time.RFC3339)
	}
	return rec
}

// ToRecord converts an EnrichedAward to a map. Nested source records are
// embedded as sub-maps so the result can be staged or persisted as JSON.
func (e *EnrichedAward) ToRecord() map[string]any {
	rec := map[string]any{
		"cdm_id":              EnrichedID(e.Award.CdmID),
		"award":               e.Award.ToRecord(),
		"vendor_cdm_id":       e.VendorCdmID,
		"canonical_vendor_id": e.CanonicalVendorID,
		"match_status":        string(e.Status),
		"enriched_at":         e.EnrichedAt.Format(time.RFC3339),
	}
	if e.Vendor != nil {
		rec["vendor"] = e.Vendor.ToRecord()
	}
	if e.Spending != nil {
		rec["spending"] = e.Spending.ToRecord()
	}
	if e.Registration != nil {
		rec["registration"] = e.Registration.ToRecord()
	}
	if len(e.Provenance) > 0 {
		prov := make([]map[string]any, 0, len(e.Provenance))
		for _, p := range e.Provenance {
			prov = append(prov, map[string]any{"field": p.Field, "source": p.Source, "rule": p.Rule})
		}
		rec["provenance"] = prov
	}
	return rec
}
