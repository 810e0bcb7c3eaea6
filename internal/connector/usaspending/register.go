package usaspending

import (
	"github.com/fedlink/enrich-core/internal/core/cdm"
	"github.com/fedlink/enrich-core/internal/endpoint"
)

// init registers the USAspending factory and CDM mappings.
func init() {
	endpoint.DefaultRegistry().Register("http.usaspending", func(config map[string]any) (endpoint.Endpoint, error) {
		cfg := &Config{
			BaseURL:   getString(config, "baseUrl", DefaultBaseURL),
			FetchSize: getInt(config, "fetchSize", DefaultFetchSize),
		}
		return New(cfg)
	})

	endpoint.RegisterCDM("http.usaspending", []endpoint.CDMMapping{
		{DatasetID: "usaspending.awards", CdmModelID: cdm.ModelSpending, Domains: []string{"entity.award.spending"}},
	})

	mapper := NewCDMMapper()
	endpoint.RegisterCDMMapper("usaspending.awards", func(record endpoint.Record) (any, error) {
		return mapper.MapRecord("usaspending.awards", record), nil
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
