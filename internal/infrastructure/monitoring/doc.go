// Package monitoring provides Prometheus metrics for the fsgate service.
//
// Metrics cover the HTTP surface, per-tool execution, the chunking engine
// (chunks emitted, continuation-token population), and the atomic write
// pipeline (payload sizes, retries, failures). All helpers are safe to call
// on a nil *Metrics, so components can treat metrics as optional.
package monitoring
