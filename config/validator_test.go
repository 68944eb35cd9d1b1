package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func paths(errs []ValidationError) []string {
	out := make([]string, len(errs))
	for i, e := range errs {
		out[i] = e.Path
	}
	return out
}

func validConfig() *Config {
	return &Config{
		Environments: map[string]Environment{
			"dev": {BaseURL: "http://localhost:8080"},
		},
		Requests: map[string]Request{
			"ping": {URL: "/ping", Method: "get"},
		},
	}
}

func TestValidateConfig_Valid(t *testing.T) {
	assert.Empty(t, ValidateConfig(validConfig()))
}

func TestValidateConfig_Empty(t *testing.T) {
	errs := ValidateConfig(&Config{})
	assert.Equal(t, []string{"environments", "requests"}, paths(errs))
}

func TestValidateConfig_Errors(t *testing.T) {
	cfg := validConfig()
	cfg.Defaults = Defaults{Timeout: "later", Success: "3xx"}
	cfg.Environments["staging"] = Environment{}
	cfg.Requests["bad"] = Request{
		Method:       "FETCH",
		ContentType:  "xml",
		Timeout:      "-",
		Extract:      map[string]string{"id": ""},
		Schema:       "missing",
		ResponseType: "json",
	}
	cfg.Requests["noMethod"] = Request{URL: "/x", ResponseType: "csv"}
	cfg.Requests["badObserve"] = Request{URL: "/x", Method: "GET", Observe: "events"}
	cfg.Suites = map[string]Suite{
		"empty": {},
		"flow":  {Requests: []string{"ping", "ghost"}},
	}

	errs := ValidateConfig(cfg)

	assert.Equal(t, []string{
		"defaults.timeout",
		"defaults.success",
		"environments.staging.baseUrl",
		"requests.bad.url",
		"requests.bad.method",
		"requests.bad.contentType",
		"requests.bad.timeout",
		"requests.bad.extract.id",
		"requests.bad.schema",
		"requests.badObserve.observe",
		"requests.noMethod.method",
		"requests.noMethod.responseType",
		"suites.empty.requests",
		"suites.flow.requests[1]",
	}, paths(errs))

	assert.Equal(t, "requests.bad.method: invalid method: FETCH", errs[4].Error())
	assert.Equal(t, "suites.flow.requests[1]: request not found: ghost", errs[13].Error())
}

func TestValidateLookups(t *testing.T) {
	cfg := validConfig()
	cfg.Suites = map[string]Suite{"smoke": {Requests: []string{"ping"}}}

	require.NoError(t, ValidateEnvironment(cfg, "dev"))
	require.NoError(t, ValidateRequest(cfg, "ping"))
	require.NoError(t, ValidateSuite(cfg, "smoke"))

	assert.EqualError(t, ValidateEnvironment(cfg, "prod"), "environment not found: prod")
	assert.EqualError(t, ValidateRequest(cfg, "pong"), "request not found: pong")
	assert.EqualError(t, ValidateSuite(cfg, "full"), "suite not found: full")
}
