// Package summaryfile reads performance summaries from disk, choosing the
// decoder from the file extension.
package summaryfile

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"adinsight/adapters/excel"
	"adinsight/domain/core"
	"adinsight/domain/summary"
	"adinsight/ports"

	"gopkg.in/yaml.v3"
)

// Reader implements ports.SummaryReader for .json, .yaml/.yml and .xlsx files
type Reader struct {
	path   string
	format string
}

var _ ports.SummaryReader = (*Reader)(nil)

// NewReader returns a reader for path. Unsupported extensions are an error.
func NewReader(path string) (*Reader, error) {
	format := strings.ToLower(filepath.Ext(path))
	switch format {
	case ".json", ".yaml", ".yml", ".xlsx":
	default:
		return nil, fmt.Errorf("unsupported summary file extension %q (want .json, .yaml, .yml or .xlsx)", format)
	}
	return &Reader{path: path, format: format}, nil
}

// Path returns the file path
func (r *Reader) Path() string { return r.path }

// ReadSummary implements ports.SummaryReader
func (r *Reader) ReadSummary(ctx context.Context) (*summary.PerformanceSummary, error) {
	if r.format == ".xlsx" {
		return excel.NewWorkbookReader(r.path).ReadSummary(ctx)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	raw, err := os.ReadFile(r.path)
	if err != nil {
		return nil, fmt.Errorf("read summary %s: %w", r.path, err)
	}
	if r.format == ".json" {
		return DecodeJSON(raw)
	}
	return DecodeYAML(raw)
}

// DecodeJSON decodes a summary document. Unknown fields are ignored so newer
// Data Agent payloads stay readable.
func DecodeJSON(raw []byte) (*summary.PerformanceSummary, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '{' {
		return nil, fmt.Errorf("%w: summary document must be a JSON object", core.ErrInputContract)
	}
	var s summary.PerformanceSummary
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrInputContract, err)
	}
	return &s, nil
}

// DecodeYAML decodes a summary document using the JSON field names
func DecodeYAML(raw []byte) (*summary.PerformanceSummary, error) {
	var s summary.PerformanceSummary
	if err := yaml.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrInputContract, err)
	}
	return &s, nil
}
