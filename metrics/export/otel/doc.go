// Package otel provides OpenTelemetry metric exporter bindings for authcore
// counters and histograms.
//
// [NewOTelExporter] registers Int64ObservableCounter instruments for each
// engine counter and Int64ObservableGauge instruments per histogram bucket.
// A single callback reads [authcore.Engine.MetricsSnapshot] on each
// collection cycle.
//
// The package never owns the OTel MeterProvider; callers supply the Meter.
package otel
