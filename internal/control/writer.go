package control

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/synheart/physiosim/internal/models"
)

// Writer journals command receipts
type Writer interface {
	Write(receipt models.CommandReceipt) error
	Close() error
}

// StdoutWriter writes receipts to an io.Writer
type StdoutWriter struct {
	out    io.Writer
	format string // "json" or "ndjson"
	mu     sync.Mutex
}

// NewStdoutWriter creates a new stdout writer
func NewStdoutWriter(out io.Writer, format string) *StdoutWriter {
	return &StdoutWriter{
		out:    out,
		format: format,
	}
}

// Write writes one receipt
func (w *StdoutWriter) Write(receipt models.CommandReceipt) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	data, err := marshalReceipt(receipt, w.format)
	if err != nil {
		return err
	}
	_, err = w.out.Write(data)
	return err
}

// Close is a no-op for stdout writer
func (w *StdoutWriter) Close() error {
	return nil
}

// FileWriter appends receipts as NDJSON to a journal file
type FileWriter struct {
	file *os.File
	mu   sync.Mutex
}

// NewFileWriter opens (or creates) the journal file for appending
func NewFileWriter(path string) (*FileWriter, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create journal directory: %w", err)
		}
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal file: %w", err)
	}
	return &FileWriter{file: file}, nil
}

// Write appends one receipt
func (w *FileWriter) Write(receipt models.CommandReceipt) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	data, err := marshalReceipt(receipt, "ndjson")
	if err != nil {
		return err
	}
	if _, err := w.file.Write(data); err != nil {
		return fmt.Errorf("failed to write receipt: %w", err)
	}
	return nil
}

// Close closes the journal file
func (w *FileWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.file.Close()
}

// MultiWriter writes to multiple destinations
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a writer that writes to multiple destinations
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write writes to all underlying writers
func (w *MultiWriter) Write(receipt models.CommandReceipt) error {
	for _, writer := range w.writers {
		if err := writer.Write(receipt); err != nil {
			return err
		}
	}
	return nil
}

// Close closes all underlying writers
func (w *MultiWriter) Close() error {
	for _, writer := range w.writers {
		if err := writer.Close(); err != nil {
			return err
		}
	}
	return nil
}

func marshalReceipt(receipt models.CommandReceipt, format string) ([]byte, error) {
	var data []byte
	var err error
	if format == "ndjson" {
		data, err = json.Marshal(receipt)
	} else {
		data, err = json.MarshalIndent(receipt, "", "  ")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to marshal receipt: %w", err)
	}
	return append(data, '\n'), nil
}
