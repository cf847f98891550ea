package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/bull/insights-rag-server/internal/document"
	"github.com/bull/insights-rag-server/internal/index"
)

// Assistant is the orchestrator surface the tools call into.
type Assistant interface {
	SummarizationMode(ctx context.Context) (string, error)
	ConversationalQA(ctx context.Context, userText string) (string, error)
}

// IndexAdmin is the index surface for the search and lifecycle tools.
type IndexAdmin interface {
	Retrieve(ctx context.Context, query string, k int) ([]document.Unit, error)
	Rebuild(ctx context.Context, root string) (*index.BuildResult, error)
	Count(ctx context.Context) (int, error)
}

// makeAskHandler creates the ask tool handler: one conversational QA
// round against the index.
func makeAskHandler(assistant Assistant) func(
	context.Context, *mcp.CallToolRequest, AskInput,
) (*mcp.CallToolResult, AskOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input AskInput) (
		*mcp.CallToolResult, AskOutput, error,
	) {
		if input.Question == "" {
			return nil, AskOutput{}, fmt.Errorf("question must not be empty")
		}
		answer, err := assistant.ConversationalQA(ctx, input.Question)
		if err != nil {
			return nil, AskOutput{}, fmt.Errorf("answer question: %w", err)
		}
		return nil, AskOutput{Answer: answer}, nil
	}
}

// makeSummarizeHandler creates the summarize tool handler.
func makeSummarizeHandler(assistant Assistant) func(
	context.Context, *mcp.CallToolRequest, SummarizeInput,
) (*mcp.CallToolResult, SummarizeOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input SummarizeInput) (
		*mcp.CallToolResult, SummarizeOutput, error,
	) {
		summary, err := assistant.SummarizationMode(ctx)
		if err != nil {
			return nil, SummarizeOutput{}, fmt.Errorf("summarize: %w", err)
		}
		return nil, SummarizeOutput{Summary: summary}, nil
	}
}

// makeSearchHandler creates the search tool handler: raw retrieval
// without synthesis, for inspecting what grounds an answer. An
// unspecified k falls back to index.DefaultK.
func makeSearchHandler(admin IndexAdmin) func(
	context.Context, *mcp.CallToolRequest, SearchInput,
) (*mcp.CallToolResult, SearchOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input SearchInput) (
		*mcp.CallToolResult, SearchOutput, error,
	) {
		if input.Query == "" {
			return nil, SearchOutput{}, fmt.Errorf("query must not be empty")
		}
		k := input.K
		if k <= 0 {
			k = index.DefaultK
		}
		units, err := admin.Retrieve(ctx, input.Query, k)
		if err != nil {
			return nil, SearchOutput{}, fmt.Errorf("search index: %w", err)
		}

		out := SearchOutput{Units: make([]SearchUnit, 0, len(units))}
		for _, u := range units {
			out.Units = append(out.Units, SearchUnit{
				Source:   u.Metadata.Source,
				UnitType: string(u.Metadata.UnitType),
				Sheet:    u.Metadata.Sheet,
				Content:  u.Content,
			})
		}
		return nil, out, nil
	}
}

// makeRebuildHandler creates the rebuild_index tool handler. It drops
// the persisted artifact and re-ingests the corpus root.
func makeRebuildHandler(admin IndexAdmin, corpusRoot string) func(
	context.Context, *mcp.CallToolRequest, RebuildInput,
) (*mcp.CallToolResult, RebuildOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input RebuildInput) (
		*mcp.CallToolResult, RebuildOutput, error,
	) {
		result, err := admin.Rebuild(ctx, corpusRoot)
		if err != nil {
			return nil, RebuildOutput{}, fmt.Errorf("rebuild index: %w", err)
		}

		failed := make([]string, 0, len(result.FailedFiles))
		for _, f := range result.FailedFiles {
			failed = append(failed, fmt.Sprintf("%s: %s", f.Path, f.Reason))
		}
		return nil, RebuildOutput{
			TotalUnits:   result.TotalUnits,
			IndexedFiles: result.IndexedFiles,
			FailedFiles:  failed,
			Duration:     result.Duration.String(),
		}, nil
	}
}

// makeStatusHandler creates the index_status tool handler.
func makeStatusHandler(admin IndexAdmin, corpusRoot string) func(
	context.Context, *mcp.CallToolRequest, StatusInput,
) (*mcp.CallToolResult, StatusOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input StatusInput) (
		*mcp.CallToolResult, StatusOutput, error,
	) {
		count, err := admin.Count(ctx)
		if err != nil {
			return nil, StatusOutput{}, fmt.Errorf("count units: %w", err)
		}
		return nil, StatusOutput{
			TotalUnits: count,
			CorpusRoot: corpusRoot,
		}, nil
	}
}
