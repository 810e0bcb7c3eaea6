package enrich

import (
	"strings"

	"github.com/fedlink/enrich-core/internal/core/cdm"
)

// DefaultSpendingMatchThreshold is the minimum score for attaching a
// spending record to an award.
const DefaultSpendingMatchThreshold = 0.5

// Score weights. Agency agreement dominates because a vendor's spending
// records routinely span several awarding agencies.
const (
	weightAgency = 0.4
	weightAmount = 0.3
	weightPeriod = 0.3
)

// BestSpendingMatch returns the highest-scoring spending record for an award,
// or nil when nothing reaches the threshold.
func BestSpendingMatch(award *cdm.Award, candidates []*cdm.FederalSpending, threshold float64) (*cdm.FederalSpending, float64) {
	if threshold <= 0 {
		threshold = DefaultSpendingMatchThreshold
	}

	var best *cdm.FederalSpending
	bestScore := 0.0
	for _, s := range candidates {
		score := scoreSpendingMatch(award, s)
		if score > bestScore {
			best = s
			bestScore = score
		}
	}
	if bestScore < threshold {
		return nil, bestScore
	}
	return best, bestScore
}

// scoreSpendingMatch rates how well a spending record corresponds to an award.
// An exact contract number match short-circuits to 1.0.
func scoreSpendingMatch(award *cdm.Award, s *cdm.FederalSpending) float64 {
	if award.ContractNumber != "" {
		if strings.EqualFold(award.ContractNumber, s.PIID) || strings.EqualFold(award.ContractNumber, s.FAIN) {
			return 1.0
		}
	}

	score := 0.0
	if agencyAgrees(award.Agency, s) {
		score += weightAgency
	}
	score += weightAmount * amountProximity(award.AwardAmount, s.ObligatedAmount)
	if periodOverlaps(award, s) {
		score += weightPeriod
	}
	return score
}

// agencyAgrees compares the award's agency against the spending record's
// awarding hierarchy. SBIR uses short names ("Department of Defense") that
// appear verbatim in USAspending toptier names.
func agencyAgrees(agency string, s *cdm.FederalSpending) bool {
	agency = strings.ToLower(strings.TrimSpace(agency))
	if agency == "" {
		return false
	}
	for _, candidate := range []string{s.AwardingAgency, s.AwardingSubAgency, s.FundingAgency} {
		candidate = strings.ToLower(strings.TrimSpace(candidate))
		if candidate == "" {
			continue
		}
		if candidate == agency || strings.Contains(candidate, agency) || strings.Contains(agency, candidate) {
			return true
		}
	}
	return false
}

// amountProximity returns min/max of the two amounts, 0 when either is unset.
func amountProximity(a, b float64) float64 {
	if a <= 0 || b <= 0 {
		return 0
	}
	if a > b {
		a, b = b, a
	}
	return a / b
}

// periodOverlaps checks the award year or award date against the spending
// record's period of performance.
func periodOverlaps(award *cdm.Award, s *cdm.FederalSpending) bool {
	if s.StartsAt == nil {
		return false
	}

	start := *s.StartsAt
	if award.AwardedAt != nil {
		awardedAt := *award.AwardedAt
		if s.EndsAt != nil {
			return !awardedAt.Before(start.AddDate(-1, 0, 0)) && !awardedAt.After(s.EndsAt.AddDate(1, 0, 0))
		}
		// Open-ended period: a year's slack on the start side
		return !awardedAt.Before(start.AddDate(-1, 0, 0))
	}

	if award.AwardYear > 0 {
		startYear := start.Year()
		endYear := startYear
		if s.EndsAt != nil {
			endYear = s.EndsAt.Year()
		}
		return award.AwardYear >= startYear-1 && award.AwardYear <= endYear+1
	}

	return false
}
