// Package activities provides Temporal activity implementations for
// enrichment runs.
package activities

import "github.com/fedlink/enrich-core/internal/enrich"

// FetchRequest asks for a batch of SBIR awards to enrich.
type FetchRequest struct {
	RunID             string         `json:"runId"`
	Agency            string         `json:"agency,omitempty"`
	Year              int            `json:"year,omitempty"`
	Limit             int            `json:"limit,omitempty"`
	StagingProviderID string         `json:"stagingProviderId,omitempty"`
	Spec              map[string]any `json:"spec,omitempty"`
}

// FetchResult points at the staged source batch.
type FetchResult struct {
	StageRef    string `json:"stageRef"`
	RecordCount int    `json:"recordCount"`
}

// EnrichRequest runs the enrichment pipeline over a staged source batch.
type EnrichRequest struct {
	RunID             string  `json:"runId"`
	StageRef          string  `json:"stageRef"`
	SpendingThreshold float64 `json:"spendingThreshold,omitempty"`
	StagingProviderID string  `json:"stagingProviderId,omitempty"`
}

// EnrichResult points at the staged enriched batch and carries the report.
type EnrichResult struct {
	StageRef string            `json:"stageRef"`
	Report   *enrich.RunReport `json:"report"`
}

// PersistRequest writes a staged enriched batch to the store.
type PersistRequest struct {
	RunID    string            `json:"runId"`
	StageRef string            `json:"stageRef"`
	Report   *enrich.RunReport `json:"report,omitempty"`
}

// PersistResult reports how many awards were persisted.
type PersistResult struct {
	Saved int `json:"saved"`
}

// FailRequest marks a run failed after an unrecoverable workflow error.
type FailRequest struct {
	RunID string `json:"runId"`
	Error string `json:"error,omitempty"`
}

// ExportRequest exports a persisted run to the object store.
type ExportRequest struct {
	RunID  string `json:"runId"`
	Format string `json:"format,omitempty"` // "parquet" (default) | "jsonl"
}

// ExportResult carries the exported object URI.
type ExportResult struct {
	URI         string `json:"uri"`
	RecordCount int    `json:"recordCount"`
}
