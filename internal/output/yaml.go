package output

import (
	"bufio"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/jmylchreest/vendorfeed/pkg/product"
)

// YAMLWriter writes rows as a YAML sequence.
type YAMLWriter struct {
	w       *bufio.Writer
	items   []product.Row
	flushed bool
}

// NewYAMLWriter creates a YAML writer.
func NewYAMLWriter(w io.Writer) *YAMLWriter {
	return &YAMLWriter{
		w:     bufio.NewWriter(w),
		items: make([]product.Row, 0),
	}
}

// Write buffers a single row.
func (w *YAMLWriter) Write(row product.Row) error {
	w.items = append(w.items, row)
	return nil
}

// WriteAll buffers multiple rows.
func (w *YAMLWriter) WriteAll(rows []product.Row) error {
	w.items = append(w.items, rows...)
	return nil
}

// Flush writes the buffered rows as YAML, once.
func (w *YAMLWriter) Flush() error {
	if w.flushed {
		return w.w.Flush()
	}
	w.flushed = true

	encoder := yaml.NewEncoder(w.w)
	encoder.SetIndent(2)
	if err := encoder.Encode(w.items); err != nil {
		return err
	}
	if err := encoder.Close(); err != nil {
		return err
	}

	return w.w.Flush()
}

// Close flushes the writer.
func (w *YAMLWriter) Close() error {
	return w.Flush()
}
