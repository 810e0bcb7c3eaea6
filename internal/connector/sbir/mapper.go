package sbir

import (
	"strconv"
	"strings"
	"time"

	"github.com/fedlink/enrich-core/internal/core/cdm"
	"github.com/fedlink/enrich-core/internal/endpoint"
)

// =============================================================================
// CDM MAPPER
// Converts raw SBIR.gov records to canonical award-domain entities.
// =============================================================================

// CDMMapper converts SBIR records to CDM award entities.
type CDMMapper struct {
	SourceSystem string
}

// NewCDMMapper creates a new CDM mapper.
func NewCDMMapper() *CDMMapper {
	return &CDMMapper{SourceSystem: "sbir"}
}

// MapRecord converts an SBIR record to a CDM entity.
// Returns the CDM entity or nil if not mappable.
func (m *CDMMapper) MapRecord(datasetID string, record endpoint.Record) any {
	raw := record["_raw"]
	if raw == nil {
		return nil
	}

	switch datasetID {
	case "sbir.awards":
		if a, ok := raw.(*Award); ok {
			return m.MapAward(a)
		}
	case "sbir.firms":
		if f, ok := raw.(*Firm); ok {
			return m.mapFirm(f)
		}
	}
	return nil
}

// MapAward converts a raw award to cdm.Award. The firm facts embedded in the
// award record are exposed via VendorFacts.
func (m *CDMMapper) MapAward(a *Award) *cdm.Award {
	award := &cdm.Award{
		CdmID:          cdm.AwardID(m.SourceSystem, a.TrackingID()),
		SourceSystem:   m.SourceSystem,
		SourceAwardID:  a.TrackingID(),
		Program:        a.Program,
		Phase:          a.Phase,
		Agency:         a.Agency,
		Branch:         a.Branch,
		Title:          a.AwardTitle,
		Abstract:       a.Abstract,
		AwardAmount:    parseAmount(a.AwardAmount),
		AwardYear:      a.AwardYear,
		ContractNumber: a.Contract,
		TopicCode:      a.TopicCode,
		Solicitation:   a.SolicitationNumber,
		AwardedAt:      parseDate(a.ProposalAwardDate),
		EndsAt:         parseDate(a.ContractEndDate),
		Properties: map[string]any{
			"poc_name":   a.POCName,
			"pi_name":    a.PIName,
			"keywords":   a.ResearchKeywords,
			"award_link": a.AwardLink,
		},
	}
	return award
}

// VendorFacts extracts the firm facts embedded in an award record.
func (m *CDMMapper) VendorFacts(a *Award) *cdm.Vendor {
	return &cdm.Vendor{
		CdmID:         cdm.VendorID(m.SourceSystem, firmNativeID(a)),
		SourceSystem:  m.SourceSystem,
		SourceID:      firmNativeID(a),
		Name:          a.Firm,
		UEI:           a.UEI,
		DUNS:          a.DUNS,
		Address1:      a.Address1,
		Address2:      a.Address2,
		City:          a.City,
		State:         a.State,
		Zip:           a.Zip,
		Website:       a.CompanyURL,
		Employees:     a.NumberEmployees,
		WomanOwned:    flag(a.WomenOwned),
		HUBZone:       flag(a.HubzoneOwned),
		Disadvantaged: flag(a.SociallyDisadvantaged),
	}
}

func (m *CDMMapper) mapFirm(f *Firm) *cdm.Vendor {
	nativeID := f.UEI
	if nativeID == "" {
		nativeID = f.FirmName
	}
	return &cdm.Vendor{
		CdmID:        cdm.VendorID(m.SourceSystem, nativeID),
		SourceSystem: m.SourceSystem,
		SourceID:     nativeID,
		Name:         f.FirmName,
		UEI:          f.UEI,
		DUNS:         f.DUNS,
		Address1:     f.Address1,
		City:         f.City,
		State:        f.State,
		Zip:          f.Zip,
		Website:      f.Website,
		Employees:    f.NumberEmployees,
		WomanOwned:   flag(f.WomenOwned),
		HUBZone:      flag(f.HubzoneOwned),
		Properties: map[string]any{
			"number_awards": f.NumberAwards,
		},
	}
}

// =============================================================================
// PARSING HELPERS
// =============================================================================

// parseAmount handles amounts like "$1,234,567.00" and "749999".
func parseAmount(s string) float64 {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "$")
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

// parseDate handles the date layouts SBIR.gov emits.
func parseDate(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range []string{"2006-01-02", "01/02/2006", time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}

// flag converts "Y"/"N" markers to bool.
func flag(s string) bool {
	return strings.EqualFold(strings.TrimSpace(s), "Y")
}

// firmNativeID prefers UEI, then DUNS, then name.
func firmNativeID(a *Award) string {
	if a.UEI != "" {
		return a.UEI
	}
	if a.DUNS != "" {
		return a.DUNS
	}
	return a.Firm
}
