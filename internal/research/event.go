package research

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// Event types.
const (
	EventProgress = "progress"
	EventResult   = "result"
	EventError    = "error"
)

// Event is one message on a run's event stream.
type Event struct {
	Type     string `json:"type"`
	Data     string `json:"data"`
	Filename string `json:"filename,omitempty"`
}

// Terminal reports whether e ends a run.
func (e Event) Terminal() bool {
	return e.Type == EventResult || e.Type == EventError
}

// Sink receives the events of one run in order.
type Sink interface {
	Send(Event) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(Event) error

func (f SinkFunc) Send(e Event) error { return f(e) }

// WriteSSE writes e as a single server-sent-events data line.
func WriteSSE(w io.Writer, e Event) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "data: %s\n\n", payload)
	return err
}

// ParseSSELine decodes a "data: {...}" line. ok is false for blank lines, comments and
// other fields.
func ParseSSELine(line string) (Event, bool, error) {
	line = strings.TrimRight(line, "\r\n")
	payload, found := strings.CutPrefix(line, "data:")
	if !found {
		return Event{}, false, nil
	}
	var e Event
	if err := json.Unmarshal([]byte(strings.TrimSpace(payload)), &e); err != nil {
		return Event{}, false, fmt.Errorf("decode event: %w", err)
	}
	return e, true, nil
}
