package enrich

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/fedlink/enrich-core/internal/core/cdm"
)

func datePtr(year, month, day int) *time.Time {
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	return &t
}

func TestScoreSpendingMatch_ContractNumberShortCircuits(t *testing.T) {
	award := &cdm.Award{ContractNumber: "FA8650-22-C-1234"}
	s := &cdm.FederalSpending{PIID: "fa8650-22-c-1234"}
	assert.Equal(t, 1.0, scoreSpendingMatch(award, s))
}

func TestScoreSpendingMatch_Components(t *testing.T) {
	award := &cdm.Award{
		Agency:      "Department of Defense",
		AwardAmount: 750000,
		AwardedAt:   datePtr(2022, 6, 1),
	}
	s := &cdm.FederalSpending{
		AwardingAgency:  "Department of Defense",
		ObligatedAmount: 750000,
		StartsAt:        datePtr(2022, 5, 15),
		EndsAt:          datePtr(2024, 5, 14),
	}

	score := scoreSpendingMatch(award, s)
	assert.InDelta(t, 1.0, score, 0.001, "all components should match")

	// Wrong agency drops the agency weight
	s.AwardingAgency = "Department of Energy"
	s.AwardingSubAgency = ""
	score = scoreSpendingMatch(award, s)
	assert.InDelta(t, 0.6, score, 0.001)
}

func TestBestSpendingMatch_PicksHighestAboveThreshold(t *testing.T) {
	award := &cdm.Award{
		Agency:      "Department of Defense",
		AwardAmount: 750000,
		AwardYear:   2022,
	}
	weak := &cdm.FederalSpending{
		GeneratedAwardID: "WEAK",
		AwardingAgency:   "Department of Agriculture",
		ObligatedAmount:  10000,
	}
	strong := &cdm.FederalSpending{
		GeneratedAwardID: "STRONG",
		AwardingAgency:   "Department of Defense",
		ObligatedAmount:  749999,
		StartsAt:         datePtr(2022, 7, 1),
		EndsAt:           datePtr(2024, 6, 30),
	}

	best, score := BestSpendingMatch(award, []*cdm.FederalSpending{weak, strong}, 0)
	assert.NotNil(t, best)
	assert.Equal(t, "STRONG", best.GeneratedAwardID)
	assert.Greater(t, score, 0.9)
}

func TestBestSpendingMatch_NothingAboveThreshold(t *testing.T) {
	award := &cdm.Award{Agency: "Department of Defense", AwardAmount: 750000}
	candidates := []*cdm.FederalSpending{
		{AwardingAgency: "Department of Agriculture", ObligatedAmount: 100},
	}
	best, _ := BestSpendingMatch(award, candidates, 0)
	assert.Nil(t, best)
}

func TestAmountProximity(t *testing.T) {
	assert.Equal(t, 1.0, amountProximity(100, 100))
	assert.Equal(t, 0.5, amountProximity(50, 100))
	assert.Equal(t, 0.0, amountProximity(0, 100))
}
