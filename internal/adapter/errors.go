package adapter

import "fmt"

// FetchError is a network or HTTP-level failure. Retryable.
type FetchError struct {
	URL        string
	StatusCode int
	Cause      error
}

func (e *FetchError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("fetch failed: HTTP %d for %s", e.StatusCode, e.URL)
	}
	return fmt.Sprintf("fetch failed for %s: %v", e.URL, e.Cause)
}

func (e *FetchError) Unwrap() error { return e.Cause }

// ParseError is a malformed feed/JSON/HTML failure. Retryable, though
// it may recur until the remote document is fixed.
type ParseError struct {
	URL   string
	Cause error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse failed for %s: %v", e.URL, e.Cause)
}

func (e *ParseError) Unwrap() error { return e.Cause }

// ValidationError marks an item missing mandatory fields. The item is
// dropped, never retried.
type ValidationError struct {
	Detail string
}

func (e *ValidationError) Error() string {
	return "invalid item: " + e.Detail
}

// ConfigError marks a source whose configuration cannot be used, such
// as a missing adapter or an undecodable adapter config. The source is
// skipped and the problem surfaced to the operator.
type ConfigError struct {
	Detail string
	Cause  error
}

func (e *ConfigError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("source misconfigured: %s: %v", e.Detail, e.Cause)
	}
	return "source misconfigured: " + e.Detail
}

func (e *ConfigError) Unwrap() error { return e.Cause }
