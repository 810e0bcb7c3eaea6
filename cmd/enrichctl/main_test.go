package main

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fedlink/enrich-core/internal/config"
	"github.com/fedlink/enrich-core/internal/endpoint"
)

// stubEndpoint fakes a connector for source-check tests.
type stubEndpoint struct {
	id     string
	result *endpoint.ValidationResult
	err    error
}

func (s *stubEndpoint) ID() string { return s.id }
func (s *stubEndpoint) ValidateConfig(ctx context.Context, config map[string]any) (*endpoint.ValidationResult, error) {
	return s.result, s.err
}
func (s *stubEndpoint) GetCapabilities() *endpoint.Capabilities { return &endpoint.Capabilities{} }
func (s *stubEndpoint) GetDescriptor() *endpoint.Descriptor     { return &endpoint.Descriptor{ID: s.id} }
func (s *stubEndpoint) Close() error                            { return nil }

func TestRunSourceChecksAllHealthy(t *testing.T) {
	out := &bytes.Buffer{}
	targets := []sourceCheck{
		{name: "sbir", ep: &stubEndpoint{id: "http.sbir", result: &endpoint.ValidationResult{Valid: true, Message: "Connection successful"}}},
		{name: "usaspending", ep: &stubEndpoint{id: "http.usaspending", result: &endpoint.ValidationResult{Valid: true, Message: "Connection successful"}}},
	}

	require.NoError(t, runSourceChecks(context.Background(), out, targets))
	assert.Contains(t, out.String(), "sbir")
	assert.Contains(t, out.String(), "OK")
	assert.NotContains(t, out.String(), "FAILED")
}

func TestRunSourceChecksReportsFailures(t *testing.T) {
	out := &bytes.Buffer{}
	targets := []sourceCheck{
		{name: "sbir", ep: &stubEndpoint{id: "http.sbir", result: &endpoint.ValidationResult{Valid: true, Message: "Connection successful"}}},
		{name: "samgov", ep: &stubEndpoint{id: "http.samgov", result: &endpoint.ValidationResult{Valid: false, Message: "Connection failed: invalid API key"}}},
	}

	err := runSourceChecks(context.Background(), out, targets)
	require.Error(t, err)
	assert.Contains(t, out.String(), "FAILED")
	assert.Contains(t, out.String(), "invalid API key")
}

func TestValidationTargetsSkipsSAMWithoutKey(t *testing.T) {
	targets, err := validationTargets(&config.WorkerConfig{})
	require.NoError(t, err)
	require.Len(t, targets, 2)
	assert.Equal(t, "sbir", targets[0].name)
	assert.Equal(t, "usaspending", targets[1].name)

	targets, err = validationTargets(&config.WorkerConfig{SAMAPIKey: "test-key"})
	require.NoError(t, err)
	require.Len(t, targets, 3)
	assert.Equal(t, "samgov", targets[2].name)
}
