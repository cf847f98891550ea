// Package answer produces the user-facing final text, grounded in a
// strictly bounded window of retrieved context.
package answer

import (
	"context"
	"fmt"
	"strings"

	"github.com/bull/insights-rag-server/internal/document"
	"github.com/bull/insights-rag-server/internal/intent"
)

// Completer is the external text-completion dependency.
type Completer interface {
	Complete(ctx context.Context, system, user string, temperature float64) (string, error)
}

const (
	// maxContextUnits caps how many retrieved units reach the prompt;
	// units beyond it are dropped entirely, not merged.
	maxContextUnits = 5
	// maxUnitChars caps each kept unit's content.
	maxUnitChars = 1500
	// maxContextChars is the global cap applied after joining.
	maxContextChars = 6000

	contextSeparator = "\n\n---\n\n"
	// emptyContextPlaceholder substitutes for the joined context when
	// no units were retrieved.
	emptyContextPlaceholder = "No relevant context found."

	// synthesisTemperature leaves slight latitude for summary phrasing.
	synthesisTemperature = 0.1
)

const synthesisInstructions = `You are the answering step of a business insights assistant.

You receive:
- mode: "qa" or "summarization"
- the original user question
- the resolved intent
- retrieved context documents (summaries and row chunks from CSV/Excel/TXT/JSON reports)

Your tasks:
1. If mode is "summarization":
   - Provide an executive-level summary of overall performance and key insights.
   - Mention regions, categories, products, or time periods if you can infer them.
   - Use short paragraphs and/or bullet points. No raw tables.

2. If mode is "qa":
   - Answer the question using ONLY the retrieved context.
   - DO NOT hallucinate facts not supported by the context.
   - DO NOT dump raw tables or CSV-like content.
   - Summarize patterns and key points in plain business language.
   - If you cannot find enough information, clearly say so.

3. Always keep answers business-friendly, concise, and clear.`

// Synthesizer turns mode, question, intent, and retrieved units into
// final text via one completion call.
type Synthesizer struct {
	completer Completer
}

// NewSynthesizer creates a synthesizer over the given completion
// client.
func NewSynthesizer(completer Completer) *Synthesizer {
	return &Synthesizer{completer: completer}
}

// BoundContext applies the prompt budget: keep the first
// maxContextUnits units, truncate each to maxUnitChars, join with the
// separator (or substitute the placeholder when empty), then truncate
// the joined text to maxContextChars. The global cap can cut into the
// last unit even when no single unit exceeded its own cap.
func BoundContext(units []document.Unit) string {
	if len(units) > maxContextUnits {
		units = units[:maxContextUnits]
	}

	parts := make([]string, 0, len(units))
	for _, u := range units {
		parts = append(parts, truncate(u.Content, maxUnitChars))
	}

	joined := emptyContextPlaceholder
	if len(parts) > 0 {
		joined = strings.Join(parts, contextSeparator)
	}
	return truncate(joined, maxContextChars)
}

// Answer synthesizes the final text. The question shown to the model
// is the caller's original question; the intent rides along for
// context only.
func (s *Synthesizer) Answer(ctx context.Context, mode intent.Mode, question string, it intent.Intent, units []document.Unit) (string, error) {
	user := fmt.Sprintf(`Mode: %s
User question:
%s

Intent (from the query resolution step):
mode=%s normalized_query=%q notes=%q

Retrieved context (possibly truncated):
%s

Now produce the final answer according to the system instructions.`,
		mode, question, it.Mode, it.NormalizedQuery, it.Notes, BoundContext(units))

	reply, err := s.completer.Complete(ctx, synthesisInstructions, user, synthesisTemperature)
	if err != nil {
		return "", fmt.Errorf("synthesize answer: %w", err)
	}
	return strings.TrimSpace(reply), nil
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
