package recorder

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/synheart/physiosim/internal/models"
)

// Recorder writes events to an NDJSON file
type Recorder struct {
	file   *os.File
	writer *bufio.Writer
	count  int
	mu     sync.Mutex
}

// NewRecorder creates a new recorder
func NewRecorder(filename string) (*Recorder, error) {
	file, err := os.Create(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to create recording file: %w", err)
	}

	return &Recorder{
		file:   file,
		writer: bufio.NewWriter(file),
	}, nil
}

// Record writes a raw byte payload to the file followed by a newline
func (r *Recorder) Record(data []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, err := r.writer.Write(data); err != nil {
		return fmt.Errorf("failed to write event: %w", err)
	}

	if _, err := r.writer.WriteString("\n"); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	r.count++
	return nil
}

// RecordEvent writes one event as a JSON line.
func (r *Recorder) RecordEvent(event models.Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}
	return r.Record(data)
}

// RecordFromChannel records events until the channel closes or ctx is
// cancelled, then closes the file. onEntry runs after each written line.
func (r *Recorder) RecordFromChannel(ctx context.Context, events <-chan models.Event, onEntry func()) error {
	for {
		select {
		case <-ctx.Done():
			return r.Close()
		case event, ok := <-events:
			if !ok {
				return r.Close()
			}
			if err := r.RecordEvent(event); err != nil {
				r.Close()
				return err
			}
			if onEntry != nil {
				onEntry()
			}
		}
	}
}

// Count returns the number of lines written
func (r *Recorder) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.count
}

// Flush flushes the buffer to disk
func (r *Recorder) Flush() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.writer.Flush()
}

// Close flushes and closes the recorder
func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.writer.Flush(); err != nil {
		r.file.Close()
		return fmt.Errorf("failed to flush buffer: %w", err)
	}

	if err := r.file.Close(); err != nil {
		return fmt.Errorf("failed to close file: %w", err)
	}

	return nil
}
