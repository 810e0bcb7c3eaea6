package activities

import (
	"context"
	"encoding/json"
	"fmt"

	"go.temporal.io/sdk/activity"

	"github.com/fedlink/enrich-core/internal/connector/sbir"
	"github.com/fedlink/enrich-core/internal/core/cdm"
	"github.com/fedlink/enrich-core/internal/endpoint"
	"github.com/fedlink/enrich-core/internal/enrich"
	"github.com/fedlink/enrich-core/internal/export"
	"github.com/fedlink/enrich-core/internal/store"
	"github.com/fedlink/enrich-core/internal/vendor"
	"github.com/fedlink/enrich-core/pkg/staging"
)

// Deps wires the collaborators every activity shares. Store and Exporter are
// optional so the worker can run fetch/enrich without a database attached.
type Deps struct {
	SBIR         endpoint.SourceEndpoint
	Matcher      vendor.Matcher
	Spending     enrich.SpendingSource
	Registration enrich.RegistrationSource
	Staging      *staging.Registry
	Store        *store.Store
	Exporter     *export.Exporter

	SpendingThreshold float64
}

// Activities holds all enrichment Temporal activities.
type Activities struct {
	deps Deps
}

// NewActivities creates an Activities instance from its dependencies.
func NewActivities(deps Deps) (*Activities, error) {
	if deps.SBIR == nil {
		return nil, fmt.Errorf("activities: sbir endpoint is required")
	}
	if deps.Matcher == nil {
		return nil, fmt.Errorf("activities: vendor matcher is required")
	}
	if deps.Staging == nil {
		return nil, fmt.Errorf("activities: staging registry is required")
	}
	return &Activities{deps: deps}, nil
}

// =============================================================================
// ACTIVITY 1: FetchSourceBatch
// =============================================================================

// FetchSourceBatch reads SBIR awards, maps them to CDM, and stages the batch.
func (a *Activities) FetchSourceBatch(ctx context.Context, req FetchRequest) (*FetchResult, error) {
	logger := activity.GetLogger(ctx)
	logger.Info("fetching source batch", "runId", req.RunID, "agency", req.Agency, "year", req.Year)

	if a.deps.Store != nil {
		if err := a.deps.Store.CreateRun(ctx, req.RunID, req.Spec); err != nil {
			return nil, fmt.Errorf("create run: %w", err)
		}
	}

	filter := map[string]any{}
	if req.Agency != "" {
		filter["agency"] = req.Agency
	}
	if req.Year > 0 {
		filter["year"] = req.Year
	}

	iter, err := a.deps.SBIR.Read(ctx, &endpoint.ReadRequest{
		DatasetID: "sbir.awards",
		Limit:     int64(req.Limit),
		Filter:    filter,
	})
	if err != nil {
		return nil, fmt.Errorf("read awards: %w", err)
	}
	defer iter.Close()

	mapper := sbir.NewCDMMapper()
	envelopes := make([]staging.RecordEnvelope, 0)
	for iter.Next() {
		rec := iter.Value()
		raw, ok := rec["_raw"].(*sbir.Award)
		if !ok {
			continue
		}

		award := mapper.MapAward(raw)
		source := enrich.SourceAward{
			Award:  award,
			Vendor: mapper.VendorFacts(raw),
		}
		payload, err := toPayload(source)
		if err != nil {
			return nil, fmt.Errorf("encode award %s: %w", award.CdmID, err)
		}

		envelopes = append(envelopes, staging.RecordEnvelope{
			RecordKind: "cdm",
			EntityKind: cdm.ModelAward,
			RunID:      req.RunID,
			Source: staging.SourceRef{
				SourceSystem: award.SourceSystem,
				DatasetID:    "sbir.awards",
				ExternalID:   award.SourceAwardID,
			},
			Payload: payload,
		})
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("iterate awards: %w", err)
	}

	stageRef, err := a.stageBatch(ctx, req.StagingProviderID, req.RunID, "source", envelopes)
	if err != nil {
		return nil, err
	}

	logger.Info("source batch staged", "records", len(envelopes), "stageRef", stageRef)

	return &FetchResult{StageRef: stageRef, RecordCount: len(envelopes)}, nil
}

// =============================================================================
// ACTIVITY 2: EnrichAwardBatch
// =============================================================================

// EnrichAwardBatch loads a staged source batch, runs the pipeline, and stages
// the enriched results.
func (a *Activities) EnrichAwardBatch(ctx context.Context, req EnrichRequest) (*EnrichResult, error) {
	logger := activity.GetLogger(ctx)
	logger.Info("enriching award batch", "runId", req.RunID, "stageRef", req.StageRef)

	envelopes, err := a.loadStage(ctx, req.StageRef, "source")
	if err != nil {
		return nil, err
	}

	awards := make([]enrich.SourceAward, 0, len(envelopes))
	for _, env := range envelopes {
		var src enrich.SourceAward
		if err := fromPayload(env.Payload, &src); err != nil {
			return nil, fmt.Errorf("decode staged award: %w", err)
		}
		awards = append(awards, src)
	}

	pipeline, err := enrich.NewPipeline(&enrich.PipelineConfig{
		Matcher:           a.deps.Matcher,
		Spending:          a.deps.Spending,
		Registration:      a.deps.Registration,
		SpendingThreshold: firstPositive(req.SpendingThreshold, a.deps.SpendingThreshold),
	})
	if err != nil {
		return nil, err
	}

	results, report, err := pipeline.Run(ctx, req.RunID, awards)
	if err != nil {
		return nil, fmt.Errorf("pipeline run: %w", err)
	}

	out := make([]staging.RecordEnvelope, 0, len(results))
	for _, e := range results {
		payload, err := toPayload(e)
		if err != nil {
			return nil, fmt.Errorf("encode enriched award %s: %w", e.Award.CdmID, err)
		}
		out = append(out, staging.RecordEnvelope{
			RecordKind: "cdm",
			EntityKind: cdm.ModelEnriched,
			RunID:      req.RunID,
			Source: staging.SourceRef{
				SourceSystem: e.Award.SourceSystem,
				ExternalID:   e.Award.SourceAwardID,
			},
			Payload: payload,
		})
	}

	stageRef, err := a.stageBatch(ctx, req.StagingProviderID, req.RunID, "enriched", out)
	if err != nil {
		return nil, err
	}

	logger.Info("award batch enriched", "processed", report.Processed, "unmatched", report.Unmatched)

	return &EnrichResult{StageRef: stageRef, Report: report}, nil
}

// =============================================================================
// ACTIVITY 3: PersistEnrichedBatch
// =============================================================================

// PersistEnrichedBatch writes a staged enriched batch to PostgreSQL and
// finalizes the run record.
func (a *Activities) PersistEnrichedBatch(ctx context.Context, req PersistRequest) (*PersistResult, error) {
	logger := activity.GetLogger(ctx)
	logger.Info("persisting enriched batch", "runId", req.RunID, "stageRef", req.StageRef)

	if a.deps.Store == nil {
		return nil, fmt.Errorf("persist: store is not configured")
	}

	envelopes, err := a.loadStage(ctx, req.StageRef, "enriched")
	if err != nil {
		return nil, err
	}

	results := make([]*cdm.EnrichedAward, 0, len(envelopes))
	for _, env := range envelopes {
		enriched := &cdm.EnrichedAward{}
		if err := fromPayload(env.Payload, enriched); err != nil {
			return nil, fmt.Errorf("decode enriched award: %w", err)
		}
		results = append(results, enriched)
	}

	if err := a.deps.Store.SaveEnriched(ctx, req.RunID, results); err != nil {
		return nil, fmt.Errorf("save enriched: %w", err)
	}
	if err := a.deps.Store.FinishRun(ctx, req.RunID, store.RunStatusCompleted, req.Report); err != nil {
		return nil, fmt.Errorf("finish run: %w", err)
	}

	logger.Info("enriched batch persisted", "saved", len(results))

	return &PersistResult{Saved: len(results)}, nil
}

// FailEnrichmentRun marks a run failed. Called from the workflow's error
// path, so it tolerates a missing store.
func (a *Activities) FailEnrichmentRun(ctx context.Context, req FailRequest) error {
	logger := activity.GetLogger(ctx)
	logger.Warn("marking run failed", "runId", req.RunID, "error", req.Error)

	if a.deps.Store == nil {
		return nil
	}
	report := &enrich.RunReport{RunID: req.RunID}
	if req.Error != "" {
		report.Errors = []string{req.Error}
	}
	return a.deps.Store.FinishRun(ctx, req.RunID, store.RunStatusFailed, report)
}

// =============================================================================
// ACTIVITY 4: ExportEnrichmentRun
// =============================================================================

// ExportEnrichmentRun exports a persisted run to the object store.
func (a *Activities) ExportEnrichmentRun(ctx context.Context, req ExportRequest) (*ExportResult, error) {
	logger := activity.GetLogger(ctx)
	logger.Info("exporting run", "runId", req.RunID, "format", req.Format)

	if a.deps.Store == nil || a.deps.Exporter == nil {
		return nil, fmt.Errorf("export: store and exporter must be configured")
	}

	records, err := a.deps.Store.EnrichedForRun(ctx, req.RunID)
	if err != nil {
		return nil, fmt.Errorf("load run: %w", err)
	}

	var uri string
	switch req.Format {
	case "", "parquet":
		uri, err = a.deps.Exporter.ExportRun(ctx, req.RunID, records)
	case "jsonl":
		uri, err = a.deps.Exporter.ExportJSONL(ctx, req.RunID, records)
	default:
		return nil, fmt.Errorf("unknown export format: %s", req.Format)
	}
	if err != nil {
		return nil, fmt.Errorf("export run: %w", err)
	}

	logger.Info("run exported", "uri", uri, "records", len(records))

	return &ExportResult{URI: uri, RecordCount: len(records)}, nil
}

// =============================================================================
// HELPERS
// =============================================================================

// stageBatch picks a provider for the batch size and stages it under the run.
func (a *Activities) stageBatch(ctx context.Context, preferred, runID, sliceID string, envelopes []staging.RecordEnvelope) (string, error) {
	estimated, _ := json.Marshal(envelopes)
	provider, err := a.deps.Staging.SelectProvider(preferred, int64(len(estimated)), 0)
	if err != nil {
		return "", fmt.Errorf("select staging provider: %w", err)
	}

	result, err := provider.PutBatch(ctx, &staging.PutBatchRequest{
		StageID: runID,
		SliceID: sliceID,
		Records: envelopes,
	})
	if err != nil {
		return "", fmt.Errorf("stage %s batch: %w", sliceID, err)
	}

	if insp, ok := provider.(staging.Inspector); ok {
		if stats, err := insp.StageStats(ctx, result.StageRef); err == nil {
			activity.GetLogger(ctx).Debug("stage stats",
				"stageRef", result.StageRef, "slices", len(stats.Slices),
				"records", stats.Total.Records, "bytes", stats.Total.Bytes)
		}
	}
	return result.StageRef, nil
}

// loadStage reads every batch of a slice back from its staging provider.
func (a *Activities) loadStage(ctx context.Context, stageRef, sliceID string) ([]staging.RecordEnvelope, error) {
	providerID, _ := staging.ParseStageRef(stageRef)
	provider, ok := a.deps.Staging.Get(providerID)
	if !ok {
		return nil, fmt.Errorf("unknown staging provider: %s", providerID)
	}

	batchRefs, err := provider.ListBatches(ctx, stageRef, sliceID)
	if err != nil {
		return nil, fmt.Errorf("list staged batches: %w", err)
	}

	var envelopes []staging.RecordEnvelope
	for _, ref := range batchRefs {
		batch, err := provider.GetBatch(ctx, stageRef, ref)
		if err != nil {
			return nil, fmt.Errorf("load staged batch %s: %w", ref, err)
		}
		envelopes = append(envelopes, batch...)
	}
	return envelopes, nil
}

// toPayload round-trips a value through JSON into the envelope payload shape.
func toPayload(v any) (map[string]any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var payload map[string]any
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// fromPayload decodes an envelope payload back into a typed value.
func fromPayload(payload map[string]any, out any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}

func firstPositive(values ...float64) float64 {
	for _, v := range values {
		if v > 0 {
			return v
		}
	}
	return 0
}
