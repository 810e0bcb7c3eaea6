package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRunSpec(t *testing.T) {
	spec, err := ParseRunSpec([]byte(`
runId: run-dod-2022
agency: DOD
year: 2022
limit: 500
spendingThreshold: 0.6
persist: true
export: true
exportFormat: parquet
`))
	require.NoError(t, err)

	assert.Equal(t, "run-dod-2022", spec.RunID)
	assert.Equal(t, "DOD", spec.Agency)
	assert.Equal(t, 2022, spec.Year)
	assert.Equal(t, 500, spec.Limit)
	assert.Equal(t, 0.6, spec.SpendingThreshold)
	assert.True(t, spec.Persist)
	assert.True(t, spec.Export)
}

func TestParseRunSpecDefaults(t *testing.T) {
	spec, err := ParseRunSpec([]byte(`agency: NASA`))
	require.NoError(t, err)

	assert.Equal(t, "NASA", spec.Agency)
	assert.Zero(t, spec.Year)
	assert.False(t, spec.Persist)
	assert.Empty(t, spec.ExportFormat)
}

func TestRunSpecValidation(t *testing.T) {
	cases := []struct {
		name string
		yaml string
	}{
		{"negative limit", `limit: -1`},
		{"threshold above one", `spendingThreshold: 1.5`},
		{"unknown export format", `exportFormat: csv`},
		{"export without persist", "export: true"},
		{"malformed yaml", `agency: [`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseRunSpec([]byte(tc.yaml))
			assert.Error(t, err)
		})
	}
}
