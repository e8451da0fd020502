package recorder

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/synheart/physiosim/internal/models"
)

// ErrEmptyRecording is returned when a recording holds no events.
var ErrEmptyRecording = errors.New("recording file is empty")

// maxLineSize bounds one NDJSON line; column samples can be long.
const maxLineSize = 1 << 20

// Replayer reads and replays events from an NDJSON file. Delays between
// events follow their simulated time, divided by the speed multiplier.
type Replayer struct {
	filename   string
	speed      float64
	loop       bool
	eventCount int
	firstEvent *models.Event
	duration   float64
	loaded     bool
}

// NewReplayer creates a new replayer. A speed of zero or less replays at
// recorded speed.
func NewReplayer(filename string, speed float64, loop bool) *Replayer {
	if speed <= 0 {
		speed = 1
	}
	return &Replayer{
		filename: filename,
		speed:    speed,
		loop:     loop,
	}
}

func newScanner(file *os.File) *bufio.Scanner {
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	return scanner
}

// loadMetadata reads the file once to cache count, first event and length
func (r *Replayer) loadMetadata() error {
	if r.loaded {
		return nil
	}

	file, err := os.Open(r.filename)
	if err != nil {
		return fmt.Errorf("failed to open recording file: %w", err)
	}
	defer file.Close()

	scanner := newScanner(file)
	r.eventCount = 0

	for scanner.Scan() {
		var event models.Event
		if err := json.Unmarshal(scanner.Bytes(), &event); err != nil {
			return fmt.Errorf("failed to parse event at line %d: %w", r.eventCount+1, err)
		}
		r.eventCount++
		if r.eventCount == 1 {
			r.firstEvent = &event
		}
		r.duration = event.SimTime - r.firstEvent.SimTime
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading file: %w", err)
	}

	r.loaded = true
	return nil
}

// Replay reads events and sends them to the output channel with timing
func (r *Replayer) Replay(ctx context.Context, output chan<- models.Event) error {
	for {
		if err := r.replayOnce(ctx, output); err != nil {
			return err
		}

		if !r.loop {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
	}
}

func (r *Replayer) replayOnce(ctx context.Context, output chan<- models.Event) error {
	file, err := os.Open(r.filename)
	if err != nil {
		return fmt.Errorf("failed to open recording file: %w", err)
	}
	defer file.Close()

	scanner := newScanner(file)
	var lastSimTime float64
	lineNum := 0

	for scanner.Scan() {
		lineNum++

		var event models.Event
		if err := json.Unmarshal(scanner.Bytes(), &event); err != nil {
			return fmt.Errorf("failed to parse event at line %d: %w", lineNum, err)
		}

		if lineNum > 1 {
			if delay := r.delay(event.SimTime - lastSimTime); delay > 0 {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-time.After(delay):
				}
			}
		}
		lastSimTime = event.SimTime

		select {
		case <-ctx.Done():
			return ctx.Err()
		case output <- event:
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading file: %w", err)
	}

	return nil
}

// delay converts a simulated-time gap into a wall-clock wait. Backwards gaps
// (a new run appended to the file) replay without waiting.
func (r *Replayer) delay(simSeconds float64) time.Duration {
	if simSeconds <= 0 {
		return 0
	}
	return time.Duration(simSeconds / r.speed * float64(time.Second))
}

// CountEvents returns the number of events in the recording
func (r *Replayer) CountEvents() (int, error) {
	if err := r.loadMetadata(); err != nil {
		return 0, err
	}
	return r.eventCount, nil
}

// Duration returns the simulated time spanned by the recording
func (r *Replayer) Duration() (time.Duration, error) {
	if err := r.loadMetadata(); err != nil {
		return 0, err
	}
	return time.Duration(r.duration * float64(time.Second)), nil
}

// GetFirstEvent returns the first event in the recording
func (r *Replayer) GetFirstEvent() (*models.Event, error) {
	if err := r.loadMetadata(); err != nil {
		return nil, err
	}
	if r.firstEvent == nil {
		return nil, ErrEmptyRecording
	}
	return r.firstEvent, nil
}
