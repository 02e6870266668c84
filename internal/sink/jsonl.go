package sink

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
)

// #region jsonl-sink
// JSONL is the primary event sink: an append-only file with one JSON object
// per line.
type JSONL struct {
	path string
	f    *os.File
}

// NewJSONL opens (or creates) an append-only JSONL log.
func NewJSONL(path string) (*JSONL, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log %s: %w", path, err)
	}
	return &JSONL{path: path, f: f}, nil
}

// Path returns the log file path.
func (j *JSONL) Path() string {
	return j.path
}

// Append writes one event as a single JSON line.
func (j *JSONL) Append(ev Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if _, err := j.f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("append log %s: %w", j.path, err)
	}
	return nil
}

// Close closes the underlying file.
func (j *JSONL) Close() error {
	return j.f.Close()
}

// #endregion jsonl-sink

// #region read-log
// ReadLog loads events back from a JSONL log, most recent last. Lines that
// fail to parse are skipped: the log may carry records from newer versions.
func ReadLog(path string) ([]Event, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open log %s: %w", path, err)
	}
	defer f.Close()

	var events []Event
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		var ev Event
		if err := json.Unmarshal(sc.Bytes(), &ev); err != nil {
			continue
		}
		events = append(events, ev)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("scan log %s: %w", path, err)
	}
	return events, nil
}

// #endregion read-log

// #region multi-sink
// Multi fans one append out to several sinks. The first error is returned
// after all sinks have been attempted.
type Multi []Sink

// Append writes the event to every sink.
func (m Multi) Append(ev Event) error {
	var first error
	for _, s := range m {
		if err := s.Append(ev); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Close closes every sink.
func (m Multi) Close() error {
	var first error
	for _, s := range m {
		if err := s.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// #endregion multi-sink

// #region discard-sink
// Discard drops all events. Used by replay, which must not re-log.
type Discard struct{}

// Append drops the event.
func (Discard) Append(Event) error { return nil }

// Close is a no-op.
func (Discard) Close() error { return nil }

// #endregion discard-sink
