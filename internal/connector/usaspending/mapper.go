package usaspending

import (
	"strings"
	"time"

	"github.com/fedlink/enrich-core/internal/core/cdm"
	"github.com/fedlink/enrich-core/internal/endpoint"
)

// CDMMapper converts USAspending results to canonical spending records.
type CDMMapper struct {
	SourceSystem string
}

// NewCDMMapper creates a new CDM mapper.
func NewCDMMapper() *CDMMapper {
	return &CDMMapper{SourceSystem: "usaspending"}
}

// MapRecord converts a USAspending record to a CDM entity.
func (m *CDMMapper) MapRecord(datasetID string, record endpoint.Record) any {
	raw := record["_raw"]
	if raw == nil {
		return nil
	}
	if r, ok := raw.(*SearchResult); ok && datasetID == "usaspending.awards" {
		return m.MapResult(r)
	}
	return nil
}

// MapResult converts one search result row to cdm.FederalSpending.
func (m *CDMMapper) MapResult(r *SearchResult) *cdm.FederalSpending {
	nativeID := r.GeneratedInternalID
	if nativeID == "" {
		nativeID = r.AwardID
	}
	piid, fain, awardType := awardIdentifiers(r.GeneratedInternalID, r.AwardID)
	return &cdm.FederalSpending{
		CdmID:             cdm.SpendingID(m.SourceSystem, nativeID),
		SourceSystem:      m.SourceSystem,
		GeneratedAwardID:  nativeID,
		PIID:              piid,
		FAIN:              fain,
		RecipientName:     r.RecipientName,
		RecipientUEI:      r.RecipientUEI,
		RecipientDUNS:     r.RecipientDUNS,
		ObligatedAmount:   r.AwardAmount,
		AwardingAgency:    r.AwardingAgency,
		AwardingSubAgency: r.AwardingSubAgency,
		FundingAgency:     r.FundingAgency,
		AwardType:         awardType,
		StartsAt:          parseDate(r.StartDate),
		EndsAt:            parseDate(r.EndDate),
		Description:       r.Description,
	}
}

func parseDate(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return &t
	}
	return nil
}

// awardIdentifiers splits the display Award ID into PIID or FAIN using the
// generated internal ID prefix: CONT_* rows are contracts keyed by PIID,
// ASST_* rows are assistance awards keyed by FAIN. Rows without a generated
// ID default to contract, which is what spending_by_award returns for the
// contract award-type filter this connector issues.
func awardIdentifiers(generatedID, awardID string) (piid, fain, awardType string) {
	if strings.HasPrefix(generatedID, "ASST_") {
		return "", awardID, "assistance"
	}
	return awardID, "", "contract"
}
