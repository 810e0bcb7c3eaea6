package workflows

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/testsuite"
	"go.temporal.io/sdk/workflow"

	"github.com/fedlink/enrich-core/internal/activities"
	"github.com/fedlink/enrich-core/internal/enrich"
)

// stubActivities records workflow-driven activity calls and returns canned
// results, so workflow logic is tested without connectors or a database.
type stubActivities struct {
	fetchErr   error
	enrichErr  error
	persistErr error

	fetched   bool
	enriched  bool
	persisted bool
	exported  bool
	failed    bool
	failedMsg string
}

func (s *stubActivities) FetchSourceBatch(ctx context.Context, req activities.FetchRequest) (*activities.FetchResult, error) {
	s.fetched = true
	if s.fetchErr != nil {
		return nil, s.fetchErr
	}
	return &activities.FetchResult{StageRef: "memory:" + req.RunID, RecordCount: 3}, nil
}

func (s *stubActivities) EnrichAwardBatch(ctx context.Context, req activities.EnrichRequest) (*activities.EnrichResult, error) {
	s.enriched = true
	if s.enrichErr != nil {
		return nil, s.enrichErr
	}
	return &activities.EnrichResult{
		StageRef: req.StageRef,
		Report:   &enrich.RunReport{RunID: req.RunID, Processed: 3, Unmatched: 1},
	}, nil
}

func (s *stubActivities) PersistEnrichedBatch(ctx context.Context, req activities.PersistRequest) (*activities.PersistResult, error) {
	s.persisted = true
	if s.persistErr != nil {
		return nil, s.persistErr
	}
	return &activities.PersistResult{Saved: 3}, nil
}

func (s *stubActivities) ExportEnrichmentRun(ctx context.Context, req activities.ExportRequest) (*activities.ExportResult, error) {
	s.exported = true
	return &activities.ExportResult{URI: "minio://exports/enriched/run=" + req.RunID + "/part-000000.parquet", RecordCount: 3}, nil
}

func (s *stubActivities) FailEnrichmentRun(ctx context.Context, req activities.FailRequest) error {
	s.failed = true
	s.failedMsg = req.Error
	return nil
}

func newEnv(t *testing.T, stubs *stubActivities) *testsuite.TestWorkflowEnvironment {
	t.Helper()
	ts := &testsuite.WorkflowTestSuite{}
	env := ts.NewTestWorkflowEnvironment()

	env.RegisterWorkflowWithOptions(EnrichmentRunWorkflowFunc, workflow.RegisterOptions{Name: EnrichmentRunWorkflow})
	env.RegisterActivityWithOptions(stubs.FetchSourceBatch, activity.RegisterOptions{Name: "FetchSourceBatch"})
	env.RegisterActivityWithOptions(stubs.EnrichAwardBatch, activity.RegisterOptions{Name: "EnrichAwardBatch"})
	env.RegisterActivityWithOptions(stubs.PersistEnrichedBatch, activity.RegisterOptions{Name: "PersistEnrichedBatch"})
	env.RegisterActivityWithOptions(stubs.ExportEnrichmentRun, activity.RegisterOptions{Name: "ExportEnrichmentRun"})
	env.RegisterActivityWithOptions(stubs.FailEnrichmentRun, activity.RegisterOptions{Name: "FailEnrichmentRun"})

	return env
}

func TestEnrichmentRunWorkflowHappyPath(t *testing.T) {
	stubs := &stubActivities{}
	env := newEnv(t, stubs)

	env.ExecuteWorkflow(EnrichmentRunWorkflow, EnrichmentRunInput{
		RunID:        "run-1",
		Agency:       "DOD",
		Year:         2022,
		Persist:      true,
		Export:       true,
		ExportFormat: "parquet",
	})

	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var output EnrichmentRunOutput
	require.NoError(t, env.GetWorkflowResult(&output))

	assert.Equal(t, "run-1", output.RunID)
	assert.Equal(t, 3, output.Fetched)
	assert.Equal(t, 3, output.Processed)
	assert.Equal(t, 1, output.Unmatched)
	assert.Equal(t, 3, output.Saved)
	assert.Contains(t, output.ExportURI, "run=run-1")

	assert.True(t, stubs.fetched)
	assert.True(t, stubs.enriched)
	assert.True(t, stubs.persisted)
	assert.True(t, stubs.exported)
	assert.False(t, stubs.failed)
}

func TestEnrichmentRunWorkflowSkipsPersistAndExport(t *testing.T) {
	stubs := &stubActivities{}
	env := newEnv(t, stubs)

	env.ExecuteWorkflow(EnrichmentRunWorkflow, EnrichmentRunInput{RunID: "run-2"})

	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var output EnrichmentRunOutput
	require.NoError(t, env.GetWorkflowResult(&output))

	assert.Equal(t, 0, output.Saved)
	assert.Empty(t, output.ExportURI)
	assert.False(t, stubs.persisted)
	assert.False(t, stubs.exported)
}

func TestEnrichmentRunWorkflowRequiresRunID(t *testing.T) {
	stubs := &stubActivities{}
	env := newEnv(t, stubs)

	env.ExecuteWorkflow(EnrichmentRunWorkflow, EnrichmentRunInput{})

	require.True(t, env.IsWorkflowCompleted())
	require.Error(t, env.GetWorkflowError())
	assert.False(t, stubs.fetched)
}

func TestEnrichmentRunWorkflowMarksRunFailed(t *testing.T) {
	stubs := &stubActivities{enrichErr: errors.New("spending api down")}
	env := newEnv(t, stubs)

	env.ExecuteWorkflow(EnrichmentRunWorkflow, EnrichmentRunInput{RunID: "run-3", Persist: true})

	require.True(t, env.IsWorkflowCompleted())
	require.Error(t, env.GetWorkflowError())

	assert.True(t, stubs.failed)
	assert.Contains(t, stubs.failedMsg, "spending api down")
	assert.False(t, stubs.persisted)
}
