// Package prometheus exposes engine metrics to Prometheus.
//
// [Collector] implements prometheus.Collector over an engine's metrics snapshot.
// Register it with your own registry, or use [Exporter.Handler] to serve a
// private registry. Counters are named gosession_*_total; verify latency is the
// histogram gosession_verify_latency_seconds.
//
// Nothing is registered with the global default registry.
package prometheus
