// Package observe provides interceptors that export node lifecycle data to
// Prometheus and OpenTelemetry.
package observe
