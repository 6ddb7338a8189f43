// Package diag defines the error report model shared by the pipeline and
// its responders.
//
// # Data model
//
// ErrorInfo is the central record. It is assembled once per processed
// failure and handed to every responder in order:
//
//   - Name, Version – identity of the service that failed.
//   - Fingerprint – stable identifier of the failure class.
//   - Stack – frames from the catch site down to the origin.
//   - Exception – the error itself; non-error panic values are wrapped in
//     PanicError.
//   - ExceptionType – the runtime type name of Cause(Exception), so the
//     stack and binding wrappers never show up as the failure's type.
//   - Timestamp – when the failure was processed.
//
// The record is never retained by the pipeline. Responders that need it
// later must copy what they need.
//
// # Sentinels
//
// Some failures are not failures at all: a requested process exit, an
// interrupt, an aborted HTTP handler. IsSentinel recognises them; the
// pipeline lets them pass through untouched.
//
// # Responders
//
// A Responder consumes ErrorInfo. Bag collects records in memory and
// DedupResponder forwards only the first occurrence of each fingerprint.
// Formatting lives in internal/diagfmt.
package diag
