// Package mcp exposes the insights assistant over the Model Context
// Protocol.
package mcp

// AskInput defines the input parameters for the ask tool.
type AskInput struct {
	// Question is the business question to answer from the indexed
	// reports.
	Question string `json:"question" jsonschema:"required,description=The business question to answer from the indexed reports"`
}

// AskOutput contains the grounded answer.
type AskOutput struct {
	Answer string `json:"answer"`
}

// SummarizeInput defines the input parameters for the summarize tool.
// The tool takes no parameters; the summary query is system-generated.
type SummarizeInput struct{}

// SummarizeOutput contains the executive summary.
type SummarizeOutput struct {
	Summary string `json:"summary"`
}

// SearchInput defines the input parameters for the search tool.
type SearchInput struct {
	// Query is the retrieval query text.
	Query string `json:"query" jsonschema:"required,description=The text to search the indexed report units with"`
	// K bounds the number of returned units; non-positive values use
	// the server default.
	K int `json:"k,omitempty" jsonschema:"description=Maximum number of units to return (server default when omitted)"`
}

// SearchUnit is one retrieved unit in a search result.
type SearchUnit struct {
	Source   string `json:"source"`
	UnitType string `json:"unit_type"`
	Sheet    string `json:"sheet,omitempty"`
	Content  string `json:"content"`
}

// SearchOutput lists the retrieved units in descending similarity
// order.
type SearchOutput struct {
	Units []SearchUnit `json:"units"`
}

// RebuildInput defines the input parameters for the rebuild_index
// tool. No parameters; the corpus root comes from server config.
type RebuildInput struct{}

// RebuildOutput reports the result of a rebuild.
type RebuildOutput struct {
	TotalUnits   int      `json:"total_units"`
	IndexedFiles int      `json:"indexed_files"`
	FailedFiles  []string `json:"failed_files,omitempty"`
	Duration     string   `json:"duration"`
}

// StatusInput defines the input parameters for the index_status tool.
type StatusInput struct{}

// StatusOutput reports the current index state.
type StatusOutput struct {
	TotalUnits int    `json:"total_units"`
	CorpusRoot string `json:"corpus_root"`
}
