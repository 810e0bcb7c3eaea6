package enrich

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/fedlink/enrich-core/internal/core/cdm"
	"github.com/fedlink/enrich-core/internal/vendor"
	"github.com/fedlink/enrich-core/pkg/staging"
)

// SpendingSource provides per-vendor spending lookups.
type SpendingSource interface {
	SpendingForVendor(ctx context.Context, uei, duns string) ([]*cdm.FederalSpending, error)
}

// RegistrationSource provides entity registration lookups.
type RegistrationSource interface {
	RegistrationByUEI(ctx context.Context, uei string) (*cdm.Registration, error)
	RegistrationByName(ctx context.Context, name, state string) (*cdm.Registration, error)
}

// SourceAward pairs an award with the vendor facts its source carried.
type SourceAward struct {
	Award  *cdm.Award
	Vendor *cdm.Vendor
}

// PipelineConfig wires the pipeline's collaborators.
type PipelineConfig struct {
	Matcher      vendor.Matcher
	Spending     SpendingSource
	Registration RegistrationSource

	// Stager, when set, receives CDM record batches for each run.
	Stager staging.Provider

	// SpendingThreshold is the minimum match score for attaching a
	// spending record. Zero means DefaultSpendingMatchThreshold.
	SpendingThreshold float64
}

// Pipeline enriches SBIR awards with USAspending and SAM.gov context.
type Pipeline struct {
	matcher      vendor.Matcher
	spending     SpendingSource
	registration RegistrationSource
	stager       staging.Provider
	threshold    float64
}

// NewPipeline creates an enrichment pipeline. The matcher is required;
// spending and registration sources are optional so partial deployments
// (one secondary source down) still run.
func NewPipeline(cfg *PipelineConfig) (*Pipeline, error) {
	if cfg == nil || cfg.Matcher == nil {
		return nil, fmt.Errorf("enrich: matcher is required")
	}
	threshold := cfg.SpendingThreshold
	if threshold <= 0 {
		threshold = DefaultSpendingMatchThreshold
	}
	return &Pipeline{
		matcher:      cfg.Matcher,
		spending:     cfg.Spending,
		registration: cfg.Registration,
		stager:       cfg.Stager,
		threshold:    threshold,
	}, nil
}

// Run enriches a batch of awards and returns the results with a run report.
// Secondary-source failures are non-fatal: the affected award passes through
// with whatever context was gathered, and the failure lands in the report.
func (p *Pipeline) Run(ctx context.Context, runID string, awards []SourceAward) ([]*cdm.EnrichedAward, *RunReport, error) {
	report := &RunReport{
		RunID:     runID,
		StartedAt: time.Now(),
	}

	var fetchErrs *multierror.Error
	results := make([]*cdm.EnrichedAward, 0, len(awards))

	for _, in := range awards {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		if in.Award == nil {
			continue
		}

		enriched, err := p.enrichOne(ctx, in, report, &fetchErrs)
		if err != nil {
			// Registry failures are fatal: continuing would silently
			// fork vendor identities mid-run.
			return nil, nil, fmt.Errorf("enrich award %s: %w", in.Award.CdmID, err)
		}
		results = append(results, enriched)
		report.Processed++
	}

	if p.stager != nil {
		if err := p.stageResults(ctx, runID, results); err != nil {
			fetchErrs = multierror.Append(fetchErrs, fmt.Errorf("stage results: %w", err))
		}
	}

	if merr := fetchErrs.ErrorOrNil(); merr != nil {
		for _, e := range fetchErrs.Errors {
			report.Errors = append(report.Errors, e.Error())
		}
	}
	report.FinishedAt = time.Now()
	return results, report, nil
}

// enrichOne runs the per-award enrichment steps.
func (p *Pipeline) enrichOne(ctx context.Context, in SourceAward, report *RunReport, fetchErrs **multierror.Error) (*cdm.EnrichedAward, error) {
	enriched := &cdm.EnrichedAward{
		Award:      *in.Award,
		Vendor:     in.Vendor,
		EnrichedAt: time.Now(),
	}

	// Step 1: resolve the firm to a canonical vendor
	var canonical *vendor.CanonicalVendor
	if in.Vendor != nil {
		resolved, created, err := p.matcher.ResolveOrCreate(ctx, in.Vendor)
		if err != nil {
			return nil, fmt.Errorf("resolve vendor: %w", err)
		}
		canonical = resolved
		enriched.VendorCdmID = in.Vendor.CdmID
		enriched.CanonicalVendorID = resolved.ID
		enriched.Award.VendorCdmID = in.Vendor.CdmID
		report.VendorResolved++
		if created {
			report.VendorCreated++
		}
	}

	uei, duns := vendorIdentifiers(in.Vendor, canonical)

	// Step 2: spending lookup, UEI first with DUNS fallback
	if p.spending != nil && (uei != "" || duns != "") {
		candidates, err := p.spending.SpendingForVendor(ctx, uei, duns)
		if err != nil {
			*fetchErrs = multierror.Append(*fetchErrs, fmt.Errorf("spending lookup for %s: %w", in.Award.CdmID, err))
		} else if best, _ := BestSpendingMatch(&enriched.Award, candidates, p.threshold); best != nil {
			enriched.Spending = best
			report.SpendingMatched++
		}
	}

	// Step 3: registration lookup, UEI first then legal name + state
	if p.registration != nil {
		reg, err := p.lookupRegistration(ctx, uei, in.Vendor, canonical)
		if err != nil {
			*fetchErrs = multierror.Append(*fetchErrs, fmt.Errorf("registration lookup for %s: %w", in.Award.CdmID, err))
		} else if reg != nil {
			enriched.Registration = reg
			report.RegistrationMatched++
		}
	}

	// Steps 4-5: precedence merge with provenance and conflict retention
	report.Conflicts += mergeSources(enriched)

	// Step 6: classify; unmatched awards pass through untouched
	enriched.Status = matchStatus(enriched)
	if enriched.Status == cdm.MatchStatusUnmatched {
		report.Unmatched++
	}

	return enriched, nil
}

// lookupRegistration tries UEI first and falls back to legal name + state.
func (p *Pipeline) lookupRegistration(ctx context.Context, uei string, source *cdm.Vendor, canonical *vendor.CanonicalVendor) (*cdm.Registration, error) {
	if uei != "" {
		reg, err := p.registration.RegistrationByUEI(ctx, uei)
		if err != nil || reg != nil {
			return reg, err
		}
	}

	name, state := "", ""
	if source != nil {
		name, state = source.Name, source.State
	}
	if name == "" && canonical != nil {
		name, state = canonical.Name, canonical.State
	}
	if name == "" {
		return nil, nil
	}
	return p.registration.RegistrationByName(ctx, name, state)
}

// vendorIdentifiers collects the best-known UEI/DUNS pair, preferring the
// source record and falling back to the canonical vendor's merged view.
func vendorIdentifiers(source *cdm.Vendor, canonical *vendor.CanonicalVendor) (uei, duns string) {
	if source != nil {
		uei, duns = source.UEI, source.DUNS
	}
	if canonical != nil {
		if uei == "" {
			uei = canonical.UEI
		}
		if duns == "" {
			duns = canonical.DUNS
		}
	}
	return uei, duns
}

// stageResults writes the enriched batch through the staging provider.
func (p *Pipeline) stageResults(ctx context.Context, runID string, results []*cdm.EnrichedAward) error {
	if len(results) == 0 {
		return nil
	}

	envelopes := make([]staging.RecordEnvelope, 0, len(results))
	for _, e := range results {
		envelopes = append(envelopes, staging.RecordEnvelope{
			RecordKind: "cdm",
			EntityKind: cdm.ModelEnriched,
			RunID:      runID,
			Source: staging.SourceRef{
				SourceSystem: e.Award.SourceSystem,
				ExternalID:   e.Award.SourceAwardID,
			},
			Payload:    e.ToRecord(),
			ObservedAt: e.EnrichedAt.UTC().Format(time.RFC3339),
		})
	}

	_, err := p.stager.PutBatch(ctx, &staging.PutBatchRequest{
		StageID: runID,
		SliceID: "enriched",
		Records: envelopes,
	})
	return err
}
