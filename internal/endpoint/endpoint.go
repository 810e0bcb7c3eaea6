// Package endpoint defines the core interfaces that all source connectors implement.
//
// Architecture:
//
//	Endpoint        - Base contract (ID, Validate, Capabilities, Descriptor)
//	SourceEndpoint  - Read data (ListDatasets, GetSchema, Read)
//
// Connectors compose additional capability interfaces (IncrementalCapable,
// LookupCapable) based on what their upstream API supports.
package endpoint

import "context"

// Endpoint is the base contract that all connectors must implement.
type Endpoint interface {
	// ID returns the unique template identifier (e.g., "http.sbir").
	ID() string

	// ValidateConfig tests configuration validity and connectivity.
	ValidateConfig(ctx context.Context, config map[string]any) (*ValidationResult, error)

	// GetCapabilities returns the set of supported operations.
	GetCapabilities() *Capabilities

	// GetDescriptor returns metadata about this endpoint type.
	GetDescriptor() *Descriptor

	// Close releases any resources held by the endpoint.
	Close() error
}

// SourceEndpoint can read data from an external system.
type SourceEndpoint interface {
	Endpoint

	// ListDatasets returns available datasets/collections.
	ListDatasets(ctx context.Context) ([]*Dataset, error)

	// GetSchema returns the schema for a specific dataset.
	GetSchema(ctx context.Context, datasetID string) (*Schema, error)

	// Read streams records from a dataset.
	// Returns an Iterator that must be closed after use.
	Read(ctx context.Context, req *ReadRequest) (Iterator[Record], error)
}

// IncrementalCapable endpoints support incremental reads.
type IncrementalCapable interface {
	// GetCheckpoint returns the last known checkpoint for a dataset.
	GetCheckpoint(ctx context.Context, datasetID string) (*Checkpoint, error)
}
