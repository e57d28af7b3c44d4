// Package metrics provides observability hooks for themebuilder.
//
// Components receive a Recorder through their constructors. NoopRecorder is
// the default, so callers never nil-check; PrometheusRecorder is swapped in
// when `metrics.enabled` is set, and HTTPHandler exposes its registry on the
// live-reload listener:
//
//	reg := prometheus.NewRegistry()
//	rec := metrics.NewPrometheusRecorder(reg)
//	registry := pipeline.NewRegistry(cfg, rec)
package metrics
