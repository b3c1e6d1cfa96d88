// Package types defines the JSON envelopes every API response uses, so
// clients can rely on one shape for success and one for failure.
package types

// SuccessEnvelope wraps any successful payload under a "data" key.
type SuccessEnvelope struct {
	Data any `json:"data"`
}

// APIError is the client-facing error body. Code is a stable machine
// string (e.g. "conflict"); Details carries structured context such as
// cart validation issues.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// ErrorEnvelope wraps an APIError under an "error" key.
type ErrorEnvelope struct {
	Error APIError `json:"error"`
}
