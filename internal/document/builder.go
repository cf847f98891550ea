package document

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	// ChunkRows is the number of table rows per chunk unit. It bounds
	// the token cost of any one retrieved unit while keeping row-level
	// detail queryable.
	ChunkRows = 200

	// maxReportChars caps the body of text and JSON report units.
	maxReportChars = 3000
)

var supportedExtensions = map[string]bool{
	".csv":  true,
	".xlsx": true,
	".xls":  true,
	".txt":  true,
	".json": true,
}

// Supported reports whether the file at path has an eligible extension.
func Supported(path string) bool {
	return supportedExtensions[strings.ToLower(filepath.Ext(path))]
}

// Builder turns one source file into zero or more retrievable units.
type Builder struct{}

// NewBuilder creates a document builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Build produces the units for a single file. Unsupported extensions
// yield zero units and no error; a malformed or unreadable file
// returns an error and the caller decides whether to continue.
func (b *Builder) Build(path string) ([]Unit, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return b.csvUnits(path)
	case ".xlsx":
		return b.excelUnits(path)
	case ".xls":
		return b.legacyExcelUnits(path)
	case ".txt":
		return b.textUnits(path)
	case ".json":
		return b.jsonUnits(path)
	}
	return nil, nil
}

// textUnits builds one text_report unit: a header naming the file plus
// the first maxReportChars characters of its content. Invalid byte
// sequences are replaced rather than treated as fatal.
func (b *Builder) textUnits(path string) ([]Unit, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read text file: %w", err)
	}
	text := strings.ToValidUTF8(string(raw), "\uFFFD")
	content := fmt.Sprintf("Text report from %s:\n%s", filepath.Base(path), truncate(text, maxReportChars))

	return []Unit{{
		Content: content,
		Metadata: Metadata{
			Source:   path,
			UnitType: UnitTextReport,
		},
	}}, nil
}

// jsonUnits builds one json_report unit holding the file re-serialized
// in canonical two-space-indented form, capped at maxReportChars.
func (b *Builder) jsonUnits(path string) ([]Unit, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read json file: %w", err)
	}
	var obj any
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, fmt.Errorf("parse json file: %w", err)
	}
	canonical, err := json.MarshalIndent(obj, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("serialize json file: %w", err)
	}
	content := fmt.Sprintf("JSON report from %s:\n%s", filepath.Base(path), truncate(string(canonical), maxReportChars))

	return []Unit{{
		Content: content,
		Metadata: Metadata{
			Source:   path,
			UnitType: UnitJSONReport,
		},
	}}, nil
}

// truncate cuts s to at most n characters.
func truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	seen := 0
	for i := range s {
		if seen == n {
			return s[:i]
		}
		seen++
	}
	return s
}
