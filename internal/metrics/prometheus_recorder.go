package metrics

import (
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	taskDuration  *prom.HistogramVec
	taskResults   *prom.CounterVec
	watchEvents   *prom.CounterVec
	reloads       prom.Counter
	reloadClients prom.Gauge
	bytesSaved    *prom.CounterVec
}

// NewPrometheusRecorder constructs and registers Prometheus metrics on reg.
// A nil registry gets a fresh one.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		taskDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "themebuilder",
			Name:      "task_duration_seconds",
			Help:      "Duration of task runs",
			Buckets:   prom.DefBuckets,
		}, []string{"task"}),
		taskResults: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "themebuilder",
			Name:      "task_results_total",
			Help:      "Task run counts by outcome",
		}, []string{"task", "result"}),
		watchEvents: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "themebuilder",
			Name:      "watch_events_total",
			Help:      "Filesystem events seen by the watcher, by resulting action",
		}, []string{"action"}),
		reloads: prom.NewCounter(prom.CounterOpts{
			Namespace: "themebuilder",
			Name:      "livereload_notifications_total",
			Help:      "Change notifications pushed to live-reload clients",
		}),
		reloadClients: prom.NewGauge(prom.GaugeOpts{
			Namespace: "themebuilder",
			Name:      "livereload_clients",
			Help:      "Currently connected live-reload clients",
		}),
		bytesSaved: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "themebuilder",
			Name:      "bytes_saved_total",
			Help:      "Bytes removed from assets by optimization",
		}, []string{"task"}),
	}
	reg.MustRegister(pr.taskDuration, pr.taskResults, pr.watchEvents, pr.reloads, pr.reloadClients, pr.bytesSaved)
	return pr
}

func (p *PrometheusRecorder) ObserveTaskDuration(task string, d time.Duration) {
	if p == nil {
		return
	}
	p.taskDuration.WithLabelValues(task).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncTaskResult(task string, result ResultLabel) {
	if p == nil {
		return
	}
	p.taskResults.WithLabelValues(task, string(result)).Inc()
}

func (p *PrometheusRecorder) IncWatchEvent(action string) {
	if p == nil {
		return
	}
	p.watchEvents.WithLabelValues(action).Inc()
}

func (p *PrometheusRecorder) IncReloadNotification() {
	if p == nil {
		return
	}
	p.reloads.Inc()
}

func (p *PrometheusRecorder) SetLiveReloadClients(n int) {
	if p == nil {
		return
	}
	p.reloadClients.Set(float64(n))
}

func (p *PrometheusRecorder) AddBytesSaved(task string, n int64) {
	if p == nil || n <= 0 {
		return
	}
	p.bytesSaved.WithLabelValues(task).Add(float64(n))
}
