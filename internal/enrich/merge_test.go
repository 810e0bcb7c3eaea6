package enrich

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fedlink/enrich-core/internal/core/cdm"
)

func baseEnriched() *cdm.EnrichedAward {
	return &cdm.EnrichedAward{
		Award: cdm.Award{
			CdmID:         cdm.AwardID("sbir", "F2D-0001"),
			SourceSystem:  "sbir",
			SourceAwardID: "F2D-0001",
			Program:       "SBIR",
			Phase:         "Phase II",
			Agency:        "Department of Defense",
			Title:         "Adaptive RF Front End",
			AwardAmount:   749999,
			AwardYear:     2022,
		},
		Vendor: &cdm.Vendor{
			SourceSystem: "sbir",
			Name:         "Acme Robotics Inc",
			UEI:          "UEIACME00001",
			State:        "CA",
		},
		EnrichedAt: time.Now(),
	}
}

func TestMergeIdentityPrecedence(t *testing.T) {
	e := baseEnriched()
	e.Registration = &cdm.Registration{
		SourceSystem:      "samgov",
		UEI:               "UEIACME00001",
		CAGE:              "1ABC2",
		LegalBusinessName: "ACME ROBOTICS, LLC",
		Address1:          "100 Main St",
		City:              "San Jose",
		State:             "CA",
		Zip:               "95113",
	}

	conflicts := mergeSources(e)

	// SAM.gov legal name wins; the SBIR name is a conflict, not lost
	assert.Equal(t, "ACME ROBOTICS, LLC", e.Vendor.Name)
	assert.Equal(t, "1ABC2", e.Vendor.CAGE)
	assert.Equal(t, 1, conflicts)

	stored, ok := e.Award.Properties["conflicts"].(map[string]any)
	require.True(t, ok, "conflicts map missing")
	loser, ok := stored["vendor.name"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "sbir", loser["source"])
	assert.Equal(t, "Acme Robotics Inc", loser["value"])

	// Provenance names SAM.gov for identity fields
	assert.True(t, hasProvenance(e, "vendor.name", "samgov", "identity-precedence"))
	assert.True(t, hasProvenance(e, "vendor.cage", "samgov", "identity-precedence"))
}

func TestMergeObligationPrecedence(t *testing.T) {
	e := baseEnriched()
	e.Spending = &cdm.FederalSpending{
		SourceSystem:      "usaspending",
		ObligatedAmount:   750000,
		AwardingAgency:    "Department of Defense",
		AwardingSubAgency: "Department of the Air Force",
	}

	mergeSources(e)

	assert.Equal(t, 750000.0, e.Award.Properties["obligatedAmount"])
	assert.Equal(t, "Department of the Air Force", e.Award.Properties["awardingSubAgency"])
	assert.True(t, hasProvenance(e, "award.obligatedAmount", "usaspending", "obligation-precedence"))
}

func TestMergeUnmatchedKeepsOrigin(t *testing.T) {
	e := baseEnriched()
	before := e.Award

	conflicts := mergeSources(e)

	assert.Zero(t, conflicts)
	assert.Equal(t, before.Title, e.Award.Title)
	assert.Equal(t, before.AwardAmount, e.Award.AwardAmount)
	assert.Equal(t, "Acme Robotics Inc", e.Vendor.Name)
	assert.True(t, hasProvenance(e, "award.program", "sbir", "origin"))
	assert.Equal(t, cdm.MatchStatusUnmatched, matchStatus(e))
}

func TestMatchStatusClassification(t *testing.T) {
	e := baseEnriched()
	assert.Equal(t, cdm.MatchStatusUnmatched, matchStatus(e))

	e.Spending = &cdm.FederalSpending{}
	assert.Equal(t, cdm.MatchStatusPartial, matchStatus(e))

	e.Registration = &cdm.Registration{}
	assert.Equal(t, cdm.MatchStatusFull, matchStatus(e))
}

func hasProvenance(e *cdm.EnrichedAward, field, source, rule string) bool {
	for _, p := range e.Provenance {
		if p.Field == field && p.Source == source && p.Rule == rule {
			return true
		}
	}
	return false
}
