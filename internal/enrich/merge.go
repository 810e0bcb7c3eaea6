package enrich

import (
	"strings"

	"github.com/fedlink/enrich-core/internal/core/cdm"
)

// Merge rules. Each merged field records which source supplied it and why.
const (
	ruleOrigin     = "origin"                // spine fields kept from SBIR
	ruleIdentity   = "identity-precedence"   // SAM.gov wins identity fields
	ruleObligation = "obligation-precedence" // USAspending wins spending fields
)

// mergeSources applies source precedence to an enriched award in place.
// SAM.gov wins vendor identity fields (legal name, CAGE, address),
// USAspending wins obligation and agency fields, SBIR keeps program fields.
// A losing value is never discarded silently: it lands in
// properties["conflicts"] keyed by field name.
func mergeSources(e *cdm.EnrichedAward) int {
	conflicts := 0

	// SBIR origin provenance for the spine fields
	for _, field := range []string{"award.program", "award.phase", "award.agency", "award.title", "award.amount"} {
		e.Provenance = append(e.Provenance, cdm.Provenance{Field: field, Source: "sbir", Rule: ruleOrigin})
	}

	if e.Registration != nil && e.Vendor != nil {
		conflicts += mergeIdentity(e)
	}
	if e.Spending != nil {
		mergeObligation(e)
	}

	return conflicts
}

// mergeIdentity applies SAM.gov identity precedence onto the vendor.
func mergeIdentity(e *cdm.EnrichedAward) int {
	reg := e.Registration
	v := e.Vendor
	conflicts := 0

	type identityField struct {
		name    string
		winner  string
		current *string
	}
	fields := []identityField{
		{"vendor.name", reg.LegalBusinessName, &v.Name},
		{"vendor.cage", reg.CAGE, &v.CAGE},
		{"vendor.address1", reg.Address1, &v.Address1},
		{"vendor.city", reg.City, &v.City},
		{"vendor.state", reg.State, &v.State},
		{"vendor.zip", reg.Zip, &v.Zip},
	}

	for _, f := range fields {
		if f.winner == "" {
			continue
		}
		if *f.current != "" && !strings.EqualFold(*f.current, f.winner) {
			recordConflict(e, f.name, e.Award.SourceSystem, *f.current)
			conflicts++
		}
		*f.current = f.winner
		e.Provenance = append(e.Provenance, cdm.Provenance{Field: f.name, Source: reg.SourceSystem, Rule: ruleIdentity})
	}

	if reg.UEI != "" && v.UEI == "" {
		v.UEI = reg.UEI
		e.Provenance = append(e.Provenance, cdm.Provenance{Field: "vendor.uei", Source: reg.SourceSystem, Rule: ruleIdentity})
	}

	return conflicts
}

// mergeObligation attaches USAspending obligation and agency fields to the
// award's property bag.
func mergeObligation(e *cdm.EnrichedAward) {
	s := e.Spending
	if e.Award.Properties == nil {
		e.Award.Properties = make(map[string]any)
	}

	e.Award.Properties["obligatedAmount"] = s.ObligatedAmount
	e.Provenance = append(e.Provenance, cdm.Provenance{Field: "award.obligatedAmount", Source: s.SourceSystem, Rule: ruleObligation})

	if s.AwardingAgency != "" {
		e.Award.Properties["awardingAgency"] = s.AwardingAgency
		e.Provenance = append(e.Provenance, cdm.Provenance{Field: "award.awardingAgency", Source: s.SourceSystem, Rule: ruleObligation})
	}
	if s.AwardingSubAgency != "" {
		e.Award.Properties["awardingSubAgency"] = s.AwardingSubAgency
		e.Provenance = append(e.Provenance, cdm.Provenance{Field: "award.awardingSubAgency", Source: s.SourceSystem, Rule: ruleObligation})
	}
	if s.FundingAgency != "" {
		e.Award.Properties["fundingAgency"] = s.FundingAgency
		e.Provenance = append(e.Provenance, cdm.Provenance{Field: "award.fundingAgency", Source: s.SourceSystem, Rule: ruleObligation})
	}
}

// recordConflict stores a losing field value under properties["conflicts"].
func recordConflict(e *cdm.EnrichedAward, field, source string, value any) {
	if e.Award.Properties == nil {
		e.Award.Properties = make(map[string]any)
	}
	conflicts, _ := e.Award.Properties["conflicts"].(map[string]any)
	if conflicts == nil {
		conflicts = make(map[string]any)
	}
	conflicts[field] = map[string]any{"source": source, "value": value}
	e.Award.Properties["conflicts"] = conflicts
}

// matchStatus classifies how much cross-source context an award received.
func matchStatus(e *cdm.EnrichedAward) cdm.MatchStatus {
	switch {
	case e.Spending != nil && e.Registration != nil:
		return cdm.MatchStatusFull
	case e.Spending != nil || e.Registration != nil:
		return cdm.MatchStatusPartial
	default:
		return cdm.MatchStatusUnmatched
	}
}
