package output

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/jmylchreest/vendorfeed/pkg/product"
)

var testRows = []product.Row{
	{
		Vendor:       "Acme",
		SKU:          "W-1",
		Name:         "Widget, \"Deluxe\"",
		Price:        "10.00",
		Currency:     "USD",
		Availability: product.InStock,
		ProductURL:   "https://acme.test/p/w1",
		ImageURL:     "https://acme.test/i/1.jpg",
		Gallery:      []string{"https://acme.test/i/2.jpg", "https://acme.test/i/3.jpg"},
		Description:  "Line one\nLine two",
		Slug:         "widget-deluxe",
	},
	{
		Vendor: "Bolt",
		Name:   "Bolt",
		Slug:   "bolt",
	},
}

// --- NewWriter Factory Tests ---

func TestNewWriter_Formats(t *testing.T) {
	tests := []struct {
		format Format
		want   string
	}{
		{FormatCSV, "*output.CSVWriter"},
		{"", "*output.CSVWriter"},
		{FormatJSON, "*output.JSONWriter"},
		{FormatJSONL, "*output.JSONLWriter"},
		{FormatYAML, "*output.YAMLWriter"},
	}
	for _, tt := range tests {
		w, err := NewWriter(&bytes.Buffer{}, tt.format)
		if err != nil {
			t.Fatalf("NewWriter(%q) error = %v", tt.format, err)
		}
		if got := fmt.Sprintf("%T", w); got != tt.want {
			t.Errorf("NewWriter(%q) = %s, want %s", tt.format, got, tt.want)
		}
	}
}

func TestNewWriter_UnsupportedFormat(t *testing.T) {
	_, err := NewWriter(&bytes.Buffer{}, Format("xml"))
	if err == nil {
		t.Fatal("expected error for unsupported format")
	}
	if !strings.Contains(err.Error(), "unsupported") {
		t.Errorf("expected error containing 'unsupported', got %v", err)
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"", FormatCSV, false},
		{"CSV", FormatCSV, false},
		{"json", FormatJSON, false},
		{"ndjson", FormatJSONL, false},
		{"yml", FormatYAML, false},
		{"xlsx", "", true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if (err != nil) != tt.wantErr {
			t.Fatalf("ParseFormat(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatFromPath(t *testing.T) {
	tests := map[string]Format{
		"products.csv":   FormatCSV,
		"out/feed.json":  FormatJSON,
		"feed.jsonl":     FormatJSONL,
		"feed.yaml":      FormatYAML,
		"feed":           FormatCSV,
		"feed.unknown":   FormatCSV,
		"/tmp/feed.YAML": FormatYAML,
	}
	for path, want := range tests {
		if got := FormatFromPath(path); got != want {
			t.Errorf("FormatFromPath(%q) = %q, want %q", path, got, want)
		}
	}
}

// --- CSVWriter Tests ---

func TestCSVWriter_WriteAll(t *testing.T) {
	buf := &bytes.Buffer{}
	w := NewCSVWriter(buf, true)

	if err := w.WriteAll(testRows); err != nil {
		t.Fatalf("WriteAll() error = %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	records, err := csv.NewReader(buf).ReadAll()
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}
	if strings.Join(records[0], ",") != strings.Join(product.Columns, ",") {
		t.Errorf("header = %v", records[0])
	}
	if records[1][2] != "Widget, \"Deluxe\"" {
		t.Errorf("name = %q", records[1][2])
	}
	if records[1][8] != "https://acme.test/i/2.jpg|https://acme.test/i/3.jpg" {
		t.Errorf("gallery = %q", records[1][8])
	}
	if records[1][9] != "Line one\nLine two" {
		t.Errorf("description = %q", records[1][9])
	}
	if records[2][0] != "Bolt" || records[2][3] != "" {
		t.Errorf("second row = %v", records[2])
	}
}

func TestCSVWriter_EmptyWritesHeader(t *testing.T) {
	buf := &bytes.Buffer{}
	w := NewCSVWriter(buf, true)
	if err := w.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	want := strings.Join(product.Columns, ",") + "\n"
	if buf.String() != want {
		t.Errorf("output = %q, want %q", buf.String(), want)
	}
}

func TestCSVWriter_NoHeader(t *testing.T) {
	buf := &bytes.Buffer{}
	w, _ := NewWriter(buf, FormatCSV, WithHeader(false))
	_ = w.Write(testRows[1])
	_ = w.Close()

	if strings.HasPrefix(buf.String(), "vendor,") {
		t.Errorf("header should be suppressed: %q", buf.String())
	}
	if !strings.HasPrefix(buf.String(), "Bolt,") {
		t.Errorf("output = %q", buf.String())
	}
}

func TestCSVWriter_FlushTwice(t *testing.T) {
	buf := &bytes.Buffer{}
	w := NewCSVWriter(buf, true)
	_ = w.Flush()
	_ = w.Write(testRows[1])
	_ = w.Flush()

	if strings.Count(buf.String(), "vendor,sku") != 1 {
		t.Errorf("header written more than once: %q", buf.String())
	}
}

// --- JSONWriter Tests ---

func TestJSONWriter_AlwaysArray(t *testing.T) {
	buf := &bytes.Buffer{}
	w := NewJSONWriter(buf, false, "")
	_ = w.Write(testRows[0])
	if err := w.Flush(); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}

	var got []product.Row
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("output is not a JSON array: %v", err)
	}
	if len(got) != 1 || got[0].SKU != "W-1" || len(got[0].Gallery) != 2 {
		t.Errorf("got %+v", got)
	}
}

func TestJSONWriter_Pretty(t *testing.T) {
	buf := &bytes.Buffer{}
	w, _ := NewWriter(buf, FormatJSON)
	_ = w.WriteAll(testRows)
	_ = w.Close()
	if !strings.Contains(buf.String(), "\n  {") {
		t.Errorf("default JSON should be indented, got %q", buf.String())
	}

	buf.Reset()
	w, _ = NewWriter(buf, FormatJSON, WithPretty(false))
	_ = w.WriteAll(testRows)
	_ = w.Close()
	if n := strings.Count(buf.String(), "\n"); n != 1 {
		t.Errorf("compact JSON has %d newlines, want 1: %q", n, buf.String())
	}
}

func TestFormatNames(t *testing.T) {
	got := FormatNames()
	for _, f := range Formats {
		if !strings.Contains(got, string(f)) {
			t.Errorf("FormatNames() = %q, missing %q", got, f)
		}
	}
	_, err := ParseFormat("xml")
	if err == nil || !strings.Contains(err.Error(), got) {
		t.Errorf("ParseFormat(xml) error = %v, want supported list", err)
	}
}

func TestJSONWriter_EmptyAndCloseOnce(t *testing.T) {
	buf := &bytes.Buffer{}
	w := NewJSONWriter(buf, false, "")
	_ = w.Flush()
	_ = w.Close()

	if buf.String() != "[]\n" {
		t.Errorf("output = %q, want %q", buf.String(), "[]\n")
	}
}

// --- JSONLWriter Tests ---

func TestJSONLWriter_WriteAll(t *testing.T) {
	buf := &bytes.Buffer{}
	w := NewJSONLWriter(buf)
	if err := w.WriteAll(testRows); err != nil {
		t.Fatalf("WriteAll() error = %v", err)
	}
	_ = w.Close()

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	var row product.Row
	if err := json.Unmarshal([]byte(lines[1]), &row); err != nil {
		t.Fatalf("line 2 invalid JSON: %v", err)
	}
	if row.Vendor != "Bolt" {
		t.Errorf("row = %+v", row)
	}
}

// --- YAMLWriter Tests ---

func TestYAMLWriter_WriteAll(t *testing.T) {
	buf := &bytes.Buffer{}
	w := NewYAMLWriter(buf)
	_ = w.WriteAll(testRows)
	if err := w.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	var got []product.Row
	if err := yaml.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("output is not YAML: %v", err)
	}
	if len(got) != 2 || got[0].ProductURL != "https://acme.test/p/w1" {
		t.Errorf("got %+v", got)
	}
}
