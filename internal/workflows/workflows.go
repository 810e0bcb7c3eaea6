// Package workflows provides Temporal workflow definitions for enrichment runs.
package workflows

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/fedlink/enrich-core/internal/activities"
)

// =============================================================================
// WORKFLOW NAMES
// =============================================================================

const (
	EnrichmentRunWorkflow = "enrichmentRunWorkflow"
)

// =============================================================================
// ACTIVITY OPTIONS
// =============================================================================

var defaultActivityOptions = workflow.ActivityOptions{
	StartToCloseTimeout: time.Hour,
	RetryPolicy: &temporal.RetryPolicy{
		InitialInterval:    time.Second * 5,
		BackoffCoefficient: 2.0,
		MaximumInterval:    time.Minute * 5,
		MaximumAttempts:    3,
		NonRetryableErrorTypes: []string{
			"E_STAGE_TOO_LARGE",
		},
	},
}

// =============================================================================
// WORKFLOW INPUTS/OUTPUTS
// =============================================================================

// EnrichmentRunInput is the input for EnrichmentRunWorkflow.
type EnrichmentRunInput struct {
	RunID             string  `json:"runId"`
	Agency            string  `json:"agency,omitempty"`
	Year              int     `json:"year,omitempty"`
	Limit             int     `json:"limit,omitempty"`
	SpendingThreshold float64 `json:"spendingThreshold,omitempty"`
	StagingProviderID string  `json:"stagingProviderId,omitempty"`
	Export            bool    `json:"export,omitempty"`
	ExportFormat      string  `json:"exportFormat,omitempty"`
	Persist           bool    `json:"persist,omitempty"`
}

// EnrichmentRunOutput summarizes a completed run.
type EnrichmentRunOutput struct {
	RunID      string `json:"runId"`
	Fetched    int    `json:"fetched"`
	Processed  int    `json:"processed"`
	Unmatched  int    `json:"unmatched"`
	Saved      int    `json:"saved"`
	ExportURI  string `json:"exportUri,omitempty"`
	ReportJSON any    `json:"report,omitempty"`
}

// =============================================================================
// ENRICHMENT RUN WORKFLOW
// =============================================================================

// EnrichmentRunWorkflowFunc fetches a batch of awards, enriches them against
// the secondary sources, persists the results, and optionally exports them.
func EnrichmentRunWorkflowFunc(ctx workflow.Context, input EnrichmentRunInput) (*EnrichmentRunOutput, error) {
	logger := workflow.GetLogger(ctx)

	if input.RunID == "" {
		return nil, temporal.NewApplicationError("runId is required", "INVALID_INPUT")
	}

	actCtx := workflow.WithActivityOptions(ctx, defaultActivityOptions)

	// Step 1: fetch and stage source awards
	var fetched activities.FetchResult
	err := workflow.ExecuteActivity(actCtx, "FetchSourceBatch", activities.FetchRequest{
		RunID:             input.RunID,
		Agency:            input.Agency,
		Year:              input.Year,
		Limit:             input.Limit,
		StagingProviderID: input.StagingProviderID,
		Spec: map[string]any{
			"agency": input.Agency,
			"year":   input.Year,
			"limit":  input.Limit,
		},
	}).Get(ctx, &fetched)
	if err != nil {
		return nil, failRun(actCtx, input.RunID, err)
	}

	logger.Info("source batch fetched", "runId", input.RunID, "records", fetched.RecordCount)

	// Step 2: enrich
	var enriched activities.EnrichResult
	err = workflow.ExecuteActivity(actCtx, "EnrichAwardBatch", activities.EnrichRequest{
		RunID:             input.RunID,
		StageRef:          fetched.StageRef,
		SpendingThreshold: input.SpendingThreshold,
		StagingProviderID: input.StagingProviderID,
	}).Get(ctx, &enriched)
	if err != nil {
		return nil, failRun(actCtx, input.RunID, err)
	}

	output := &EnrichmentRunOutput{
		RunID:      input.RunID,
		Fetched:    fetched.RecordCount,
		ReportJSON: enriched.Report,
	}
	if enriched.Report != nil {
		output.Processed = enriched.Report.Processed
		output.Unmatched = enriched.Report.Unmatched
	}

	// Step 3: persist
	if input.Persist {
		var persisted activities.PersistResult
		err = workflow.ExecuteActivity(actCtx, "PersistEnrichedBatch", activities.PersistRequest{
			RunID:    input.RunID,
			StageRef: enriched.StageRef,
			Report:   enriched.Report,
		}).Get(ctx, &persisted)
		if err != nil {
			return nil, failRun(actCtx, input.RunID, err)
		}
		output.Saved = persisted.Saved
	}

	// Step 4: export
	if input.Export {
		var exported activities.ExportResult
		err = workflow.ExecuteActivity(actCtx, "ExportEnrichmentRun", activities.ExportRequest{
			RunID:  input.RunID,
			Format: input.ExportFormat,
		}).Get(ctx, &exported)
		if err != nil {
			return nil, failRun(actCtx, input.RunID, err)
		}
		output.ExportURI = exported.URI
	}

	logger.Info("enrichment run complete", "runId", input.RunID, "processed", output.Processed)

	return output, nil
}

// failRun marks the run failed and returns the original error.
func failRun(ctx workflow.Context, runID string, cause error) error {
	_ = workflow.ExecuteActivity(ctx, "FailEnrichmentRun", activities.FailRequest{
		RunID: runID,
		Error: cause.Error(),
	}).Get(ctx, nil)
	return cause
}
