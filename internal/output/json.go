package output

import (
	"bufio"
	"encoding/json"
	"io"

	"github.com/jmylchreest/vendorfeed/pkg/product"
)

// JSONWriter writes rows as one JSON array.
type JSONWriter struct {
	w       *bufio.Writer
	pretty  bool
	indent  string
	items   []product.Row
	flushed bool
}

// NewJSONWriter creates a JSON writer.
func NewJSONWriter(w io.Writer, pretty bool, indent string) *JSONWriter {
	return &JSONWriter{
		w:      bufio.NewWriter(w),
		pretty: pretty,
		indent: indent,
		items:  make([]product.Row, 0),
	}
}

// Write buffers a single row.
func (w *JSONWriter) Write(row product.Row) error {
	w.items = append(w.items, row)
	return nil
}

// WriteAll buffers multiple rows.
func (w *JSONWriter) WriteAll(rows []product.Row) error {
	w.items = append(w.items, rows...)
	return nil
}

// Flush writes the buffered rows as a JSON array. The array is written
// once; later calls only flush.
func (w *JSONWriter) Flush() error {
	if w.flushed {
		return w.w.Flush()
	}
	w.flushed = true

	var output []byte
	var err error
	if w.pretty {
		output, err = json.MarshalIndent(w.items, "", w.indent)
	} else {
		output, err = json.Marshal(w.items)
	}
	if err != nil {
		return err
	}

	if _, err := w.w.Write(output); err != nil {
		return err
	}
	if _, err := w.w.WriteString("\n"); err != nil {
		return err
	}

	return w.w.Flush()
}

// Close flushes the writer.
func (w *JSONWriter) Close() error {
	return w.Flush()
}

// JSONLWriter writes newline-delimited JSON (JSONL), one row per line.
type JSONLWriter struct {
	w *bufio.Writer
}

// NewJSONLWriter creates a JSONL writer.
func NewJSONLWriter(w io.Writer) *JSONLWriter {
	return &JSONLWriter{
		w: bufio.NewWriter(w),
	}
}

// Write writes a single row as a JSON line.
func (w *JSONLWriter) Write(row product.Row) error {
	output, err := json.Marshal(row)
	if err != nil {
		return err
	}

	if _, err := w.w.Write(output); err != nil {
		return err
	}
	_, err = w.w.WriteString("\n")
	return err
}

// WriteAll writes multiple rows as JSON lines.
func (w *JSONLWriter) WriteAll(rows []product.Row) error {
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return nil
}

// Flush flushes the buffer.
func (w *JSONLWriter) Flush() error {
	return w.w.Flush()
}

// Close flushes the writer.
func (w *JSONLWriter) Close() error {
	return w.Flush()
}
