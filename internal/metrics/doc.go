// Package metrics records pass and build measurements.
//
// Components hold a Recorder and default to NoopRecorder, so callers never
// check for nil. When metrics_file is configured the CLI swaps in a
// PrometheusRecorder and writes its registry in the node_exporter textfile
// format after the build.
package metrics
