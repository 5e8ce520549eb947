package xlcore

import "sync"

// EventFunc receives a diagnostic event name plus an even-length list of
// key/value pairs. Counters and stats are surfaced through these hooks
// instead of a logging framework; see DESIGN.md for why no third-party
// logger is wired in.
type EventFunc func(event string, kv...any)

var (
	loggerMu sync.RWMutex
	logger EventFunc
)

// SetLogger installs fn as the process-wide diagnostic event sink. Passing
// nil disables event emission (the default). Workbook construction does
// not require a logger; callers that want save/load/recompute visibility
// install one before calling into xlcore.
func SetLogger(fn EventFunc) {
	loggerMu.Lock()
	defer loggerMu.Unlock()
	logger = fn
}

// emit fires the installed logger, if any, swallowing the no-op case
// without an allocation on the hot path.
func emit(event string, kv...any) {
	loggerMu.RLock()
	fn := logger
	loggerMu.RUnlock()
	if fn != nil {
		fn(event, kv...)
	}
}
