package extract

import (
	"context"
	"fmt"
	"time"

	"github.com/jonesrussell/north-cloud/enrichment/internal/llm"
	"github.com/jonesrussell/north-cloud/enrichment/internal/logger"
)

// maxLoggedResponse caps how much of an unparseable response is logged.
const maxLoggedResponse = 500

// Extractor prompts a model and parses its answer.
type Extractor struct {
	model llm.Model
	log   logger.Logger
}

// NewExtractor creates an Extractor backed by model.
func NewExtractor(model llm.Model, log logger.Logger) *Extractor {
	return &Extractor{model: model, log: log}
}

// Extract issues one model call for companyURL over corpus. It does not
// retry; model and parse failures are returned as-is.
func (e *Extractor) Extract(ctx context.Context, companyURL, corpus string) (Partial, error) {
	start := time.Now()
	raw, err := e.model.Generate(ctx, BuildPrompt(companyURL, corpus))
	if err != nil {
		return Partial{}, fmt.Errorf("%s generate: %w", e.model.Name(), err)
	}
	e.log.Debug("Model responded",
		logger.String("model", e.model.Name()),
		logger.Int("response_len", len(raw)),
		logger.Duration("elapsed", time.Since(start)),
	)

	p, err := Parse(raw)
	if err != nil {
		snippet := raw
		if len(snippet) > maxLoggedResponse {
			snippet = snippet[:maxLoggedResponse]
		}
		e.log.Warn("Unparseable model response",
			logger.String("url", companyURL),
			logger.String("response", snippet),
			logger.Error(err),
		)
		return Partial{}, err
	}
	return p, nil
}
