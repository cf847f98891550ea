package intent

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
)

// Completer is the external text-completion dependency.
type Completer interface {
	Complete(ctx context.Context, system, user string, temperature float64) (string, error)
}

const resolutionInstructions = `You are the query resolution step of a business insights assistant.

Given a user query, decide:
- mode: "qa" (conversational question answering) or "summarization"
- normalized_query: a cleaned-up query suitable for retrieval
- notes: optional hints (like region, category, time period).

Return STRICT JSON only. Example:
{
  "mode": "qa",
  "normalized_query": "sales performance of north region in Q4",
  "notes": "focus on underperforming categories"
}

DO NOT add explanations.
DO NOT wrap JSON in markdown or ` + "```json" + `.`

// maxRawNoteChars bounds how much of an unparseable reply is carried
// into the fallback intent for diagnostics.
const maxRawNoteChars = 200

// Resolver turns one utterance into an Intent with a single
// deterministic-leaning completion call. A malformed reply is
// absorbed, not retried, keeping latency bounded.
type Resolver struct {
	completer Completer
	logger    *slog.Logger
}

// NewResolver creates a resolver over the given completion client.
func NewResolver(completer Completer, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{completer: completer, logger: logger}
}

// Resolve maps userText to an Intent. A reply that cannot be parsed
// degrades to the qa fallback and never surfaces as an error; only a
// failed completion call does.
func (r *Resolver) Resolve(ctx context.Context, userText string) (Intent, error) {
	user := fmt.Sprintf("User query:\n%s\n\nRespond with JSON only.", userText)
	raw, err := r.completer.Complete(ctx, resolutionInstructions, user, 0)
	if err != nil {
		return Intent{}, fmt.Errorf("resolve intent: %w", err)
	}

	parsed, err := parseReply(raw)
	if err != nil {
		r.logger.Warn("Unparseable resolver reply, falling back to qa", "error", err)
		return fallbackIntent(userText, raw), nil
	}
	if parsed.NormalizedQuery == "" {
		parsed.NormalizedQuery = userText
	}
	return parsed, nil
}

// parseReply parses the semi-structured reply after stripping any
// incidental code fences the model may add.
func parseReply(raw string) (Intent, error) {
	cleaned := stripFences(raw)

	var reply struct {
		Mode            string `json:"mode"`
		NormalizedQuery string `json:"normalized_query"`
		Notes           string `json:"notes"`
	}
	if err := json.Unmarshal([]byte(cleaned), &reply); err != nil {
		return Intent{}, fmt.Errorf("parse resolver reply: %w", err)
	}

	return Intent{
		Mode:            ParseMode(reply.Mode),
		NormalizedQuery: strings.TrimSpace(reply.NormalizedQuery),
		Notes:           reply.Notes,
	}, nil
}

// fallbackIntent is the degraded-but-safe intent used when the reply
// cannot be parsed: qa mode, the original utterance as the query, and
// a truncated copy of the raw reply for diagnostics.
func fallbackIntent(userText, raw string) Intent {
	return Intent{
		Mode:            ModeQA,
		NormalizedQuery: userText,
		Notes:           "could not parse resolver reply; raw: " + truncate(raw, maxRawNoteChars),
	}
}

func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
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
