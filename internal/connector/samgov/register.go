package samgov

import (
	"github.com/fedlink/enrich-core/internal/core/cdm"
	"github.com/fedlink/enrich-core/internal/endpoint"
)

// init registers the SAM.gov factory and CDM mappings.
func init() {
	endpoint.DefaultRegistry().Register("http.samgov", func(config map[string]any) (endpoint.Endpoint, error) {
		cfg := &Config{
			BaseURL:   getString(config, "baseUrl", DefaultBaseURL),
			APIKey:    getString(config, "apiKey", ""),
			FetchSize: getInt(config, "fetchSize", DefaultFetchSize),
		}
		return New(cfg)
	})

	endpoint.RegisterCDM("http.samgov", []endpoint.CDMMapping{
		{DatasetID: "samgov.entities", CdmModelID: cdm.ModelRegistration, Domains: []string{"entity.award.registration"}},
	})

	mapper := NewCDMMapper()
	endpoint.RegisterCDMMapper("samgov.entities", func(record endpoint.Record) (any, error) {
		return mapper.MapRecord("samgov.entities", record), nil
	})
}

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
