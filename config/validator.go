package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/wesleyorama2/fetchx/http"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	// Path is the dotted path to the invalid field
	Path string

	// Message describes the validation error
	Message string
}

// Error returns the error message.
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

var validMethods = map[string]bool{
	"GET": true, "POST": true, "PUT": true, "PATCH": true,
	"DELETE": true, "HEAD": true, "OPTIONS": true,
}

// ValidateConfig validates the configuration and returns a slice of validation errors.
// An empty slice indicates the configuration is valid.
//
// Example:
//
//	errors := config.ValidateConfig(cfg)
//	for _, err := range errors {
//	    log.Printf("Validation error: %s", err)
//	}
func ValidateConfig(config *Config) []ValidationError {
	var errs []ValidationError

	errs = append(errs, validateOptionFields("defaults",
		config.Defaults.ContentType, config.Defaults.ResponseType,
		config.Defaults.Observe, config.Defaults.Timeout)...)
	if _, err := config.Defaults.SuccessPolicy(); err != nil {
		errs = append(errs, ValidationError{Path: "defaults.success", Message: err.Error()})
	}

	if len(config.Environments) == 0 {
		errs = append(errs, ValidationError{
			Path:    "environments",
			Message: "at least one environment is required",
		})
	}

	for _, name := range sortedNames(config.Environments) {
		env := config.Environments[name]
		if env.BaseURL == "" {
			errs = append(errs, ValidationError{
				Path:    fmt.Sprintf("environments.%s.baseUrl", name),
				Message: "baseUrl is required",
			})
		}
	}

	if len(config.Requests) == 0 {
		errs = append(errs, ValidationError{
			Path:    "requests",
			Message: "at least one request is required",
		})
	}

	for _, name := range sortedNames(config.Requests) {
		req := config.Requests[name]
		prefix := "requests." + name

		if req.URL == "" {
			errs = append(errs, ValidationError{
				Path:    prefix + ".url",
				Message: "url is required",
			})
		}

		if req.Method == "" {
			errs = append(errs, ValidationError{
				Path:    prefix + ".method",
				Message: "method is required",
			})
		} else if !validMethods[strings.ToUpper(req.Method)] {
			errs = append(errs, ValidationError{
				Path:    prefix + ".method",
				Message: fmt.Sprintf("invalid method: %s", req.Method),
			})
		}

		errs = append(errs, validateOptionFields(prefix,
			req.ContentType, req.ResponseType, req.Observe, req.Timeout)...)

		for _, varName := range sortedNames(req.Extract) {
			if req.Extract[varName] == "" {
				errs = append(errs, ValidationError{
					Path:    fmt.Sprintf("%s.extract.%s", prefix, varName),
					Message: "extract path cannot be empty",
				})
			}
		}

		if ref, ok := req.Schema.(string); ok {
			if _, found := config.Schemas[ref]; !found {
				errs = append(errs, ValidationError{
					Path:    prefix + ".schema",
					Message: fmt.Sprintf("schema not found: %s", ref),
				})
			}
		}
	}

	for _, name := range sortedNames(config.Suites) {
		suite := config.Suites[name]
		if len(suite.Requests) == 0 {
			errs = append(errs, ValidationError{
				Path:    fmt.Sprintf("suites.%s.requests", name),
				Message: "at least one request is required",
			})
		}

		for i, reqName := range suite.Requests {
			if _, ok := config.Requests[reqName]; !ok {
				errs = append(errs, ValidationError{
					Path:    fmt.Sprintf("suites.%s.requests[%d]", name, i),
					Message: fmt.Sprintf("request not found: %s", reqName),
				})
			}
		}
	}

	return errs
}

// validateOptionFields checks the enumerated option fields shared by
// defaults and requests. Empty fields are valid.
func validateOptionFields(prefix, contentType, responseType, observe, timeout string) []ValidationError {
	var errs []ValidationError

	opts := http.DefaultRequestOptions()
	if contentType != "" {
		opts.ContentType = http.ContentType(contentType)
	}
	if responseType != "" {
		opts.ResponseType = http.ResponseType(responseType)
	}
	if observe != "" {
		opts.Observe = http.ObserveMode(observe)
	}

	if err := opts.Validate(); err != nil {
		field := "observe"
		switch {
		case errors.Is(err, http.ErrUnknownContentType):
			field = "contentType"
		case errors.Is(err, http.ErrUnknownResponseType):
			field = "responseType"
		}
		errs = append(errs, ValidationError{Path: prefix + "." + field, Message: err.Error()})
	}

	if timeout != "" {
		if _, err := ParseTimeout(timeout); err != nil {
			errs = append(errs, ValidationError{Path: prefix + ".timeout", Message: err.Error()})
		}
	}

	return errs
}

// ValidateEnvironment validates that an environment exists in the configuration.
func ValidateEnvironment(config *Config, envName string) error {
	if _, ok := config.Environments[envName]; !ok {
		return fmt.Errorf("environment not found: %s", envName)
	}
	return nil
}

// ValidateRequest validates that a request exists in the configuration.
func ValidateRequest(config *Config, reqName string) error {
	if _, ok := config.Requests[reqName]; !ok {
		return fmt.Errorf("request not found: %s", reqName)
	}
	return nil
}

// ValidateSuite validates that a suite exists in the configuration.
func ValidateSuite(config *Config, suiteName string) error {
	if _, ok := config.Suites[suiteName]; !ok {
		return fmt.Errorf("suite not found: %s", suiteName)
	}
	return nil
}
