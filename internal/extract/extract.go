// Package extract turns a free-text message into structured transaction
// fields. The primary strategy delegates to an external natural-language
// parser; a deterministic rule-based strategy takes over when the parser
// is unavailable, times out, or reports low confidence.
package extract

import (
	"context"
	"errors"

	"whatsapp-catat-hutang/internal/model"
	"whatsapp-catat-hutang/pkg/logger"
)

// Reason tags an extraction failure so the caller can produce a targeted
// re-prompt instead of a generic error.
type Reason string

const (
	ReasonMissingDirection    Reason = "missing-direction"
	ReasonMissingCounterparty Reason = "missing-counterparty"
	ReasonMissingAmount       Reason = "missing-amount"
)

// Error is a tagged extraction failure.
type Error struct {
	Reason Reason
}

func (e *Error) Error() string {
	return "extraction failed: " + string(e.Reason)
}

// AsError unwraps err into a tagged extraction error, if it is one.
func AsError(err error) (*Error, bool) {
	var extractErr *Error
	if errors.As(err, &extractErr) {
		return extractErr, true
	}
	return nil, false
}

// Fields is the structured result shared by both strategies, so the
// session engine is agnostic to which path produced it.
type Fields struct {
	Direction        model.Direction
	CounterpartyName string
	ItemDescription  string
	Amount           int64
}

// Strategy extracts transaction fields from free text. Implementations:
// the NLP-backed parser and the deterministic rule table.
type Strategy interface {
	Extract(ctx context.Context, text string) (*Fields, error)
}

// Extractor chains the primary strategy with the deterministic fallback.
type Extractor struct {
	primary  Strategy
	fallback Strategy
	logger   *logger.Logger
}

// NewExtractor builds the two-path extractor. primary may be nil when no
// external parser is configured; the fallback then handles everything.
func NewExtractor(primary, fallback Strategy, log *logger.Logger) *Extractor {
	return &Extractor{
		primary:  primary,
		fallback: fallback,
		logger:   log,
	}
}

// Extract tries the primary strategy first and falls back on any failure.
// Tagged extraction errors from the fallback pass through unchanged.
func (e *Extractor) Extract(ctx context.Context, text string) (*Fields, error) {
	if e.primary != nil {
		fields, err := e.primary.Extract(ctx, text)
		if err == nil {
			return fields, nil
		}
		e.logger.Warn("primary extraction failed, using fallback", "error", err)
	}

	return e.fallback.Extract(ctx, text)
}
