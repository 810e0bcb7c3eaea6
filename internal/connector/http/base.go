package http

import (
	"context"
	"fmt"

	"github.com/fedlink/enrich-core/internal/endpoint"
)

// =============================================================================
// BASE HTTP ENDPOINT
// Provides common HTTP functionality for API connectors.
// =============================================================================

// Base provides common HTTP endpoint functionality.
// Embed this in connectors like SBIR, USAspending, SAM.gov.
type Base struct {
	// Client is the HTTP client for making requests.
	Client *Client

	// EndpointID is the unique identifier for this endpoint.
	EndpointID string

	// EndpointName is the display name.
	EndpointName string

	// Vendor is the operating organization (e.g., "SBA", "Treasury", "GSA").
	Vendor string

	// Version is the detected API version.
	Version string
}

// NewBase creates a new HTTP base with the given configuration.
func NewBase(id, name, vendor string, config *ClientConfig) *Base {
	return &Base{
		Client:       NewClient(config),
		EndpointID:   id,
		EndpointName: name,
		Vendor:       vendor,
	}
}

// ID returns the endpoint identifier.
func (b *Base) ID() string {
	return b.EndpointID
}

// Close closes the HTTP client.
func (b *Base) Close() error {
	// HTTP client doesn't need explicit cleanup
	return nil
}

// GetCapabilities returns default HTTP source capabilities.
// Override in concrete implementations for specific capabilities.
func (b *Base) GetCapabilities() *endpoint.Capabilities {
	return &endpoint.Capabilities{
		SupportsFull:     true,
		SupportsPreview:  true,
		SupportsMetadata: true,
		DefaultFetchSize: 100,
	}
}

// GetDescriptor returns the endpoint descriptor.
// Override in concrete implementations.
func (b *Base) GetDescriptor() *endpoint.Descriptor {
	return &endpoint.Descriptor{
		ID:     b.EndpointID,
		Family: "http.rest",
		Title:  b.EndpointName,
		Vendor: b.Vendor,
	}
}

// Probe tests the connection by making a probe request.
func (b *Base) Probe(ctx context.Context, probePath string) (*endpoint.ValidationResult, error) {
	resp, err := b.Client.Get(ctx, probePath, nil)
	if err != nil {
		if httpErr, ok := err.(*HTTPError); ok {
			return &endpoint.ValidationResult{
				Valid:   false,
				Message: fmt.Sprintf("Connection failed: HTTP %d", httpErr.StatusCode),
			}, nil
		}
		return nil, err
	}

	return &endpoint.ValidationResult{
		Valid:           resp.IsSuccess(),
		Message:         "Connection successful",
		DetectedVersion: b.Version,
	}, nil
}

// FetchJSON fetches a JSON response and unmarshals it.
func (b *Base) FetchJSON(ctx context.Context, path string, target any) error {
	resp, err := b.Client.Get(ctx, path, nil)
	if err != nil {
		return err
	}
	return resp.JSON(target)
}
