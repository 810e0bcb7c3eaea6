package endpoint

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeEndpoint is a minimal Endpoint for registry tests.
type fakeEndpoint struct {
	id string
}

func (f *fakeEndpoint) ID() string { return f.id }
func (f *fakeEndpoint) ValidateConfig(ctx context.Context, config map[string]any) (*ValidationResult, error) {
	return &ValidationResult{Valid: true}, nil
}
func (f *fakeEndpoint) GetCapabilities() *Capabilities { return &Capabilities{} }
func (f *fakeEndpoint) GetDescriptor() *Descriptor     { return &Descriptor{ID: f.id} }
func (f *fakeEndpoint) Close() error                   { return nil }

// fakeSource adds the SourceEndpoint surface.
type fakeSource struct {
	fakeEndpoint
}

func (f *fakeSource) ListDatasets(ctx context.Context) ([]*Dataset, error) {
	return []*Dataset{{ID: "fake.rows"}}, nil
}
func (f *fakeSource) GetSchema(ctx context.Context, datasetID string) (*Schema, error) {
	return &Schema{}, nil
}
func (f *fakeSource) Read(ctx context.Context, req *ReadRequest) (Iterator[Record], error) {
	return NewSliceIterator([]Record{{"n": 1}, {"n": 2}}, req.Limit), nil
}

func TestRegistryCreate(t *testing.T) {
	reg := NewRegistry()
	reg.Register("fake.source", func(config map[string]any) (Endpoint, error) {
		return &fakeSource{fakeEndpoint{id: "fake.source"}}, nil
	})

	ep, err := reg.Create("fake.source", nil)
	require.NoError(t, err)
	assert.Equal(t, "fake.source", ep.ID())

	_, err = reg.Create("missing.template", nil)
	assert.Error(t, err)
}

func TestRegistryCreateSource(t *testing.T) {
	reg := NewRegistry()
	reg.Register("fake.source", func(config map[string]any) (Endpoint, error) {
		return &fakeSource{fakeEndpoint{id: "fake.source"}}, nil
	})
	reg.Register("fake.base", func(config map[string]any) (Endpoint, error) {
		return &fakeEndpoint{id: "fake.base"}, nil
	})

	src, err := reg.CreateSource("fake.source", nil)
	require.NoError(t, err)

	iter, err := src.Read(context.Background(), &ReadRequest{DatasetID: "fake.rows"})
	require.NoError(t, err)
	defer iter.Close()

	count := 0
	for iter.Next() {
		iter.Value()
		count++
	}
	assert.Equal(t, 2, count)

	// A base endpoint is rejected as a source.
	_, err = reg.CreateSource("fake.base", nil)
	assert.Error(t, err)
}

func TestRegistryDuplicatePanics(t *testing.T) {
	reg := NewRegistry()
	factory := func(config map[string]any) (Endpoint, error) {
		return &fakeEndpoint{id: "dup"}, nil
	}
	reg.Register("dup", factory)

	assert.Panics(t, func() { reg.Register("dup", factory) })
}

func TestRegistryList(t *testing.T) {
	reg := NewRegistry()
	reg.Register("a", func(config map[string]any) (Endpoint, error) { return &fakeEndpoint{id: "a"}, nil })
	reg.Register("b", func(config map[string]any) (Endpoint, error) { return &fakeEndpoint{id: "b"}, nil })

	ids := reg.List()
	assert.ElementsMatch(t, []string{"a", "b"}, ids)
}

func TestSliceIteratorLimit(t *testing.T) {
	records := []Record{{"n": 1}, {"n": 2}, {"n": 3}}
	iter := NewSliceIterator(records, 2)

	count := 0
	for iter.Next() {
		iter.Value()
		count++
	}
	assert.Equal(t, 2, count)
	assert.NoError(t, iter.Err())
}

func TestDefaultRegistryHasConnectors(t *testing.T) {
	// Connector packages self-register in init; this package alone sees
	// an empty default registry.
	assert.NotNil(t, DefaultRegistry())
}
