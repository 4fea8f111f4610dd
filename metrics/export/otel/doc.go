// Package otel exports engine metrics through an OpenTelemetry meter.
//
// [NewExporter] registers observable instruments whose callback reads the
// engine's metrics snapshot at collection time. Instrument names match the
// Prometheus exporter. The latency histogram is flattened into one cumulative
// gauge per bucket plus a count gauge.
package otel
