package telemetry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
)

const eventsFile = "events.jsonl"

// Event is one line of events.jsonl. Fields sit at the top level next to
// "event" and "time", which they cannot override.
type Event struct {
	Name   string
	Time   time.Time
	Fields map[string]any
}

func (e Event) MarshalJSON() ([]byte, error) {
	m := make(map[string]any, len(e.Fields)+2)
	for k, v := range e.Fields {
		m[k] = v
	}
	m["event"] = e.Name
	m["time"] = e.Time.UTC().Format(time.RFC3339Nano)
	return json.Marshal(m)
}

var (
	loggerMu sync.RWMutex
	logger   = zap.NewNop()
)

// SetLogger routes telemetry write failures to l. nil restores the no-op logger.
func SetLogger(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	loggerMu.Lock()
	logger = l
	loggerMu.Unlock()
}

func currentLogger() *zap.Logger {
	loggerMu.RLock()
	defer loggerMu.RUnlock()
	return logger
}

// jsonlSink appends whole lines; concurrent turns never interleave.
type jsonlSink struct {
	mu sync.Mutex
}

var events jsonlSink

func (s *jsonlSink) append(dir string, line []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create artifacts dir: %w", err)
	}
	f, err := os.OpenFile(filepath.Join(dir, eventsFile), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	_, err = f.Write(line)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	return err
}

// Emit appends one event to <ArtifactsDir>/events.jsonl when
// ELLIE_OBSERVE_JSON=1. Failures are logged and otherwise ignored.
func Emit(name string, fields map[string]any) {
	if !ObserveEnabled() {
		return
	}
	b, err := json.Marshal(Event{Name: name, Time: time.Now(), Fields: fields})
	if err == nil {
		err = events.append(ArtifactsDir(), append(b, '\n'))
	}
	if err != nil {
		currentLogger().Warn("telemetry event dropped", zap.String("event", name), zap.Error(err))
	}
}
