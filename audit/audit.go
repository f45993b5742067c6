package audit

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/go-git/go-billy/v6"
)

// Event is one audit log entry.
type Event struct {
	Time   time.Time `json:"ts"`
	User   string    `json:"user"`
	Action string    `json:"action"`
	Detail string    `json:"detail,omitempty"`
}

// Recorder receives one event per engine operation. Recording failures
// never fail the operation that produced the event.
type Recorder interface {
	Record(event Event) error
}

// FileRecorder appends events as JSON lines to a file on a billy
// filesystem. Production uses osfs; tests use memfs.
type FileRecorder struct {
	fs   billy.Filesystem
	path string

	// now is swapped in tests for deterministic timestamps.
	now func() time.Time
}

func NewFileRecorder(fs billy.Filesystem, path string) *FileRecorder {
	return &FileRecorder{fs: fs, path: path, now: time.Now}
}

// Record appends the event. A zero Time is stamped with the current
// time.
func (r *FileRecorder) Record(event Event) error {
	if event.Time.IsZero() {
		event.Time = r.now().UTC()
	}

	line, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encoding audit event: %w", err)
	}

	f, err := r.fs.OpenFile(r.path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("opening audit log: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("writing audit log: %w", err)
	}
	return nil
}

// Tail returns the last n events, oldest first. A missing log file
// yields no events. Lines that do not parse are skipped.
func (r *FileRecorder) Tail(n int) ([]Event, error) {
	f, err := r.fs.Open(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening audit log: %w", err)
	}
	defer f.Close()

	var events []Event
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var event Event
		if err := json.Unmarshal(scanner.Bytes(), &event); err != nil {
			continue
		}
		events = append(events, event)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading audit log: %w", err)
	}

	if n > 0 && len(events) > n {
		events = events[len(events)-n:]
	}
	return events, nil
}

// NopRecorder discards every event.
type NopRecorder struct{}

func (NopRecorder) Record(Event) error {
	return nil
}
