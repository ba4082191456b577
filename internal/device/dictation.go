package device

import (
	"context"
	"errors"
	"strings"
	"sync"
)

// ErrDictationClosed is returned by Push after Close.
var ErrDictationClosed = errors.New("dictation closed")

// Segment is one recognizer result. Interim segments may later be replaced;
// final segments are stable.
type Segment struct {
	Transcript string `json:"transcript"`
	Final      bool   `json:"final"`
}

// Dictation is a continuous recognition session fed by the client-side
// recognizer. Segments pushed while not recording are dropped.
type Dictation struct {
	mu        sync.Mutex
	recording bool
	closed    bool
	out       chan Segment
}

// NewDictation returns a stopped session with the given channel buffer.
func NewDictation(buffer int) *Dictation {
	if buffer < 0 {
		buffer = 0
	}
	return &Dictation{out: make(chan Segment, buffer)}
}

// Toggle flips recording and returns the new state.
func (d *Dictation) Toggle() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return false
	}
	d.recording = !d.recording
	return d.recording
}

// Recording reports whether segments are currently accepted.
func (d *Dictation) Recording() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.recording
}

// Segments is closed by Close.
func (d *Dictation) Segments() <-chan Segment {
	return d.out
}

// Push delivers segments in order. It reports how many were accepted.
func (d *Dictation) Push(ctx context.Context, segments ...Segment) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return 0, ErrDictationClosed
	}
	if !d.recording {
		return 0, nil
	}
	for i, seg := range segments {
		select {
		case d.out <- seg:
		case <-ctx.Done():
			return i, ctx.Err()
		}
	}
	return len(segments), nil
}

// Close stops recording and closes the segment channel.
func (d *Dictation) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	d.closed = true
	d.recording = false
	close(d.out)
}

// FinalText concatenates the final segments of a result batch verbatim.
func FinalText(segments []Segment) string {
	var b strings.Builder
	for _, seg := range segments {
		if seg.Final {
			b.WriteString(seg.Transcript)
		}
	}
	return b.String()
}
