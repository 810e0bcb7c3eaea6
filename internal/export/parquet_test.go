package export

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fedlink/enrich-core/internal/core/cdm"
)

func TestBuildParquetSchema(t *testing.T) {
	schema := cdm.ModelSchema(cdm.ModelEnriched)
	require.NotNil(t, schema)

	raw := buildParquetSchema(schema)

	var parsed struct {
		Tag    string `json:"Tag"`
		Fields []struct {
			Tag string `json:"Tag"`
		} `json:"Fields"`
	}
	require.NoError(t, json.Unmarshal([]byte(raw), &parsed))
	assert.Contains(t, parsed.Tag, "parquet_go_root")
	assert.Len(t, parsed.Fields, len(schema))

	for _, f := range parsed.Fields {
		assert.Contains(t, f.Tag, "repetitiontype=OPTIONAL")
	}
}

func TestParquetPhysicalType(t *testing.T) {
	assert.Equal(t, "BYTE_ARRAY", parquetPhysicalType("TEXT"))
	assert.Equal(t, "BYTE_ARRAY", parquetPhysicalType("JSONB"))
	assert.Equal(t, "BYTE_ARRAY", parquetPhysicalType("TIMESTAMPTZ"))
	assert.Equal(t, "INT64", parquetPhysicalType("INTEGER"))
	assert.Equal(t, "DOUBLE", parquetPhysicalType("NUMERIC"))
	assert.Equal(t, "BOOLEAN", parquetPhysicalType("BOOLEAN"))
}

func TestProjectRowSerializesJSONColumns(t *testing.T) {
	schema := cdm.ModelSchema(cdm.ModelEnriched)
	require.NotNil(t, schema)

	rec := map[string]any{
		"cdm_id":       "cdm:enriched:sbir.gov:123",
		"match_status": "full",
		"award": map[string]any{
			"cdm_id": "cdm:award:grant:sbir.gov:123",
			"title":  "Adaptive Optics",
		},
		"vendor": map[string]any{"name": "Acme Robotics"},
	}

	row := projectRow(rec, schema)

	assert.Equal(t, "cdm:enriched:sbir.gov:123", row["id"])
	assert.Equal(t, "cdm:award:grant:sbir.gov:123", row["award_cdm_id"])
	assert.Equal(t, "full", row["match_status"])

	awardJSON, ok := row["award"].(string)
	require.True(t, ok, "JSONB column should serialize to a string")
	assert.True(t, strings.Contains(awardJSON, "Adaptive Optics"))

	// Columns absent from the record project to nil.
	assert.Nil(t, row["spending"])
}

func TestEncodeParquetProducesData(t *testing.T) {
	records := []map[string]any{
		{
			"cdm_id":       "cdm:enriched:sbir.gov:1",
			"match_status": "unmatched",
			"award":        map[string]any{"cdm_id": "cdm:award:grant:sbir.gov:1"},
		},
	}

	data, err := encodeParquet(records)
	require.NoError(t, err)
	assert.NotEmpty(t, data)
	// Parquet files start and end with the PAR1 magic bytes.
	require.GreaterOrEqual(t, len(data), 8)
	assert.Equal(t, "PAR1", string(data[:4]))
	assert.Equal(t, "PAR1", string(data[len(data)-4:]))
}
