package metrics

import "time"

// ResultLabel enumerates task run outcomes for counters.
type ResultLabel string

const (
	ResultSuccess  ResultLabel = "success"
	ResultFailed   ResultLabel = "failed"
	ResultCanceled ResultLabel = "canceled"
)

// Watch event actions.
const (
	WatchActionTask    = "task"
	WatchActionReload  = "reload"
	WatchActionIgnored = "ignored"
)

// Recorder defines observability hooks for task runs, watch events and the
// live-reload listener. NoopRecorder is the default when metrics are disabled.
type Recorder interface {
	ObserveTaskDuration(task string, d time.Duration)
	IncTaskResult(task string, result ResultLabel)
	IncWatchEvent(action string)
	IncReloadNotification()
	SetLiveReloadClients(n int)
	AddBytesSaved(task string, n int64)
}

// NoopRecorder is a Recorder that does nothing.
type NoopRecorder struct{}

func (NoopRecorder) ObserveTaskDuration(string, time.Duration) {}
func (NoopRecorder) IncTaskResult(string, ResultLabel)         {}
func (NoopRecorder) IncWatchEvent(string)                      {}
func (NoopRecorder) IncReloadNotification()                    {}
func (NoopRecorder) SetLiveReloadClients(int)                  {}
func (NoopRecorder) AddBytesSaved(string, int64)               {}

// OrNoop returns r, or NoopRecorder when r is nil.
func OrNoop(r Recorder) Recorder {
	if r == nil {
		return NoopRecorder{}
	}
	return r
}
