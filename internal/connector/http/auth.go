package http

import (
	"encoding/base64"
	"net/http"
	"net/url"
)

// =============================================================================
// AUTHENTICATION STRATEGIES
// =============================================================================

// AuthConfig represents authentication configuration.
// Apply sets request headers; ApplyQuery sets query parameters. Most schemes
// use only one of the two.
type AuthConfig interface {
	Apply(req *http.Request)
	ApplyQuery(query url.Values)
}

// NoAuth represents no authentication.
type NoAuth struct{}

func (a NoAuth) Apply(req *http.Request)     {}
func (a NoAuth) ApplyQuery(query url.Values) {}

// BasicAuth uses HTTP Basic Authentication.
type BasicAuth struct {
	Username string
	Password string
}

// Apply adds Basic auth header to the request.
func (a BasicAuth) Apply(req *http.Request) {
	if a.Username == "" && a.Password == "" {
		return
	}
	credentials := base64.StdEncoding.EncodeToString([]byte(a.Username + ":" + a.Password))
	req.Header.Set("Authorization", "Basic "+credentials)
}

func (a BasicAuth) ApplyQuery(query url.Values) {}

// BearerToken uses Bearer token authentication.
type BearerToken struct {
	Token string
}

// Apply adds Bearer token header to the request.
func (a BearerToken) Apply(req *http.Request) {
	if a.Token == "" {
		return
	}
	req.Header.Set("Authorization", "Bearer "+a.Token)
}

func (a BearerToken) ApplyQuery(query url.Values) {}

// APIKey uses API key header authentication.
type APIKey struct {
	Key    string
	Header string // Header name (default: X-Api-Key)
}

// Apply adds API key header to the request.
func (a APIKey) Apply(req *http.Request) {
	if a.Key == "" {
		return
	}
	header := a.Header
	if header == "" {
		header = "X-Api-Key"
	}
	req.Header.Set(header, a.Key)
}

func (a APIKey) ApplyQuery(query url.Values) {}

// QueryKey passes an API key as a query parameter.
// SAM.gov and other api.data.gov services authenticate this way.
type QueryKey struct {
	Key   string
	Param string // Query param name (default: api_key)
}

func (a QueryKey) Apply(req *http.Request) {}

// ApplyQuery adds the api key parameter to the query string.
func (a QueryKey) ApplyQuery(query url.Values) {
	if a.Key == "" {
		return
	}
	param := a.Param
	if param == "" {
		param = "api_key"
	}
	query.Set(param, a.Key)
}
