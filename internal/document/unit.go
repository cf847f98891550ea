// Package document converts source report files into retrievable units.
package document

// UnitType classifies a retrievable unit by how it was derived from
// its source file.
type UnitType string

const (
	// UnitSummary is the aggregate shape/statistics unit for a tabular
	// file or sheet.
	UnitSummary UnitType = "summary"
	// UnitChunk is a contiguous row-range excerpt of a tabular source.
	UnitChunk UnitType = "chunk"
	// UnitTextReport is a plain-text report file.
	UnitTextReport UnitType = "text_report"
	// UnitJSONReport is a JSON report file in canonical indented form.
	UnitJSONReport UnitType = "json_report"
)

// Metadata describes where a unit came from. RangeStart/RangeEnd are
// row indices and only meaningful for chunk units; Sheet is set for
// units built from multi-sheet sources.
type Metadata struct {
	Source     string
	UnitType   UnitType
	RangeStart int
	RangeEnd   int
	Sheet      string
}

// Unit is the atomic indexed object: one text body with metadata.
// Content and Metadata are a pure function of the source file; the ID
// identifies the stored point and is assigned at indexing time.
type Unit struct {
	ID       string
	Content  string
	Metadata Metadata
}
