package output

import (
	"encoding/csv"
	"io"

	"github.com/jmylchreest/vendorfeed/pkg/product"
)

// CSVWriter writes rows as UTF-8 CSV with product.Columns as the header.
// The header is written even when there are no rows.
type CSVWriter struct {
	w             *csv.Writer
	header        bool
	headerWritten bool
}

// NewCSVWriter creates a CSV writer.
func NewCSVWriter(w io.Writer, header bool) *CSVWriter {
	return &CSVWriter{
		w:      csv.NewWriter(w),
		header: header,
	}
}

func (w *CSVWriter) writeHeader() error {
	if !w.header || w.headerWritten {
		return nil
	}
	w.headerWritten = true
	return w.w.Write(product.Columns)
}

// Write writes a single row.
func (w *CSVWriter) Write(row product.Row) error {
	if err := w.writeHeader(); err != nil {
		return err
	}
	return w.w.Write(row.Record())
}

// WriteAll writes multiple rows.
func (w *CSVWriter) WriteAll(rows []product.Row) error {
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return nil
}

// Flush writes the header if nothing was written yet and flushes.
func (w *CSVWriter) Flush() error {
	if err := w.writeHeader(); err != nil {
		return err
	}
	w.w.Flush()
	return w.w.Error()
}

// Close flushes the writer.
func (w *CSVWriter) Close() error {
	return w.Flush()
}
