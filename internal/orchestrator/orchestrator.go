// Package orchestrator sequences intent resolution, retrieval, and
// synthesis per request. Within one call resolution strictly precedes
// retrieval, which strictly precedes synthesis; there is no cross-call
// state beyond the long-lived index and service clients.
package orchestrator

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bull/insights-rag-server/internal/document"
	"github.com/bull/insights-rag-server/internal/intent"
)

// qaRetrievalK is the retrieval depth for interactive requests, sized
// to what the synthesis context budget can absorb.
const qaRetrievalK = 6

const (
	summaryQuery = "Provide an overall summary of sales performance and key insights."
	summaryNote  = "System-generated summarization query"
)

// IntentResolver maps an utterance to an Intent.
type IntentResolver interface {
	Resolve(ctx context.Context, userText string) (intent.Intent, error)
}

// Retriever returns up to k units relevant to a query.
type Retriever interface {
	Retrieve(ctx context.Context, query string, k int) ([]document.Unit, error)
}

// Synthesizer produces final text from bounded context.
type Synthesizer interface {
	Answer(ctx context.Context, mode intent.Mode, question string, it intent.Intent, units []document.Unit) (string, error)
}

// Orchestrator wires the three stages. All collaborators are injected
// so tests can substitute fakes.
type Orchestrator struct {
	resolver    IntentResolver
	retriever   Retriever
	synthesizer Synthesizer
	logger      *slog.Logger
}

// New creates an orchestrator.
func New(resolver IntentResolver, retriever Retriever, synthesizer Synthesizer, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		resolver:    resolver,
		retriever:   retriever,
		synthesizer: synthesizer,
		logger:      logger,
	}
}

// SummarizationMode produces an overall summary. Summarization is
// system-initiated with no utterance to interpret, so the resolver is
// bypassed and a fixed intent drives retrieval.
func (o *Orchestrator) SummarizationMode(ctx context.Context) (string, error) {
	it := intent.Intent{
		Mode:            intent.ModeSummarization,
		NormalizedQuery: summaryQuery,
		Notes:           summaryNote,
	}

	units, err := o.retriever.Retrieve(ctx, it.NormalizedQuery, qaRetrievalK)
	if err != nil {
		return "", fmt.Errorf("retrieve context: %w", err)
	}
	o.logger.Debug("Summarization retrieval", "units", len(units))

	return o.synthesizer.Answer(ctx, intent.ModeSummarization, it.NormalizedQuery, it, units)
}

// ConversationalQA resolves userText to an intent, retrieves against
// the normalized query, and synthesizes against the ORIGINAL user
// text. Retrieval benefits from normalization, but the answer must
// address exactly what was asked.
func (o *Orchestrator) ConversationalQA(ctx context.Context, userText string) (string, error) {
	it, err := o.resolver.Resolve(ctx, userText)
	if err != nil {
		return "", err
	}

	query := it.NormalizedQuery
	if query == "" {
		query = userText
	}
	units, err := o.retriever.Retrieve(ctx, query, qaRetrievalK)
	if err != nil {
		return "", fmt.Errorf("retrieve context: %w", err)
	}
	o.logger.Debug("QA retrieval", "mode", it.Mode, "units", len(units))

	return o.synthesizer.Answer(ctx, it.Mode, userText, it, units)
}
