// Package intent maps a raw user utterance to a structured routing
// decision for the orchestrator.
package intent

import "strings"

// Mode is the operating mode an utterance resolves to.
type Mode string

const (
	// ModeQA answers a specific question from retrieved context.
	ModeQA Mode = "qa"
	// ModeSummarization produces an overview with no specific question.
	ModeSummarization Mode = "summarization"
)

// ParseMode folds an untrusted mode string onto the closed mode set.
// Anything unrecognized becomes ModeQA.
func ParseMode(s string) Mode {
	if strings.EqualFold(strings.TrimSpace(s), string(ModeSummarization)) {
		return ModeSummarization
	}
	return ModeQA
}

// Intent is the structured decision derived from one utterance.
// NormalizedQuery drives retrieval; Notes is free text and may carry a
// diagnostic when the resolver reply could not be parsed.
type Intent struct {
	Mode            Mode
	NormalizedQuery string
	Notes           string
}
