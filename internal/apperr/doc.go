// Package apperr defines the error taxonomy shared by the orchestrators, the
// gateway and the HTTP API.
//
// Failures are tagged with a sentinel marker (permission, device, gateway,
// validation, parse) so callers can classify them with errors.Is, and carry a
// user-facing message that screens render inline. Nothing in the system
// retries automatically; the marker only decides how a failure is presented.
package apperr
