package sbir

import (
	"github.com/fedlink/enrich-core/internal/core/cdm"
	"github.com/fedlink/enrich-core/internal/endpoint"
)

// init registers the SBIR factory and CDM mappings with global registries.
func init() {
	endpoint.DefaultRegistry().Register("http.sbir", func(config map[string]any) (endpoint.Endpoint, error) {
		cfg := &Config{
			BaseURL:   getString(config, "baseUrl", DefaultBaseURL),
			Agency:    getString(config, "agency", ""),
			Year:      getInt(config, "year", 0),
			FetchSize: getInt(config, "fetchSize", DefaultFetchSize),
		}
		return New(cfg)
	})

	endpoint.RegisterCDM("http.sbir", []endpoint.CDMMapping{
		{DatasetID: "sbir.awards", CdmModelID: cdm.ModelAward, Domains: []string{"entity.award.award"}},
		{DatasetID: "sbir.firms", CdmModelID: cdm.ModelVendor, Domains: []string{"entity.award.vendor"}},
	})

	mapper := NewCDMMapper()

	endpoint.RegisterCDMMapper("sbir.awards", func(record endpoint.Record) (any, error) {
		return mapper.MapRecord("sbir.awards", record), nil
	})
	endpoint.RegisterCDMMapper("sbir.firms", func(record endpoint.Record) (any, error) {
		return mapper.MapRecord("sbir.firms", record), nil
	})
}

// --- Config Helpers ---

func getString(m map[string]any, key, defaultVal string) string {
	if v, ok := m[key].(string); ok && v != "" {
		return v
	}
	return defaultVal
}

func getInt(m map[string]any, key string, defaultVal int) int {
	switch v := m[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	}
	return defaultVal
}
