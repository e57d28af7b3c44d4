package metrics

import (
	"sync"
	"time"
)

// testRecorder counts calls; used to assert Recorder wiring in other tests of this package.
type testRecorder struct {
	mu            sync.Mutex
	taskDurations map[string]int
	taskResults   map[string]map[ResultLabel]int
	watchEvents   map[string]int
	reloads       int
	clients       int
	saved         map[string]int64
}

func newTestRecorder() *testRecorder {
	return &testRecorder{
		taskDurations: map[string]int{},
		taskResults:   map[string]map[ResultLabel]int{},
		watchEvents:   map[string]int{},
		saved:         map[string]int64{},
	}
}

func (t *testRecorder) ObserveTaskDuration(task string, _ time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.taskDurations[task]++
}

func (t *testRecorder) IncTaskResult(task string, result ResultLabel) {
	t.mu.Lock()
	defer t.mu.Unlock()
	m, ok := t.taskResults[task]
	if !ok {
		m = map[ResultLabel]int{}
		t.taskResults[task] = m
	}
	m[result]++
}

func (t *testRecorder) IncWatchEvent(action string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.watchEvents[action]++
}

func (t *testRecorder) IncReloadNotification() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.reloads++
}

func (t *testRecorder) SetLiveReloadClients(n int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.clients = n
}

func (t *testRecorder) AddBytesSaved(task string, n int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.saved[task] += n
}

var (
	_ Recorder = (*testRecorder)(nil)
	_ Recorder = NoopRecorder{}
	_ Recorder = (*PrometheusRecorder)(nil)
)
