// Package market assembles the per-bar market view the backtest engine
// consumes: indicator values, candle patterns and sentiment.
package market

import (
	"context"
	"fmt"

	"SignalTradeBot/internal/models"
	"SignalTradeBot/internal/operations/backtest"
	"SignalTradeBot/internal/services/analysis"
	"SignalTradeBot/internal/services/indicators"
)

// Collaborator computes snapshots from the bar window alone. It has no ML
// predictor, so Prediction is always nil.
type Collaborator struct {
	builder   *indicators.BundleBuilder
	patterns  *analysis.PatternAnalyzer
	sentiment SentimentSource
}

var _ backtest.Collaborator = (*Collaborator)(nil)

func NewCollaborator(sentiment SentimentSource) *Collaborator {
	if sentiment == nil {
		sentiment = StaticSentiment{}
	}
	return &Collaborator{
		builder:   indicators.NewBundleBuilder(),
		patterns:  analysis.NewPatternAnalyzer(),
		sentiment: sentiment,
	}
}

func (c *Collaborator) Evaluate(ctx context.Context, window []models.Price) (*backtest.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(window) == 0 {
		return nil, fmt.Errorf("%w: empty window", models.ErrNoData)
	}

	return &backtest.Snapshot{
		Indicators: c.builder.Build(window),
		Sentiment:  c.sentiment.Sentiment(window[len(window)-1].Symbol),
		Patterns:   c.patterns.Analyze(window),
	}, nil
}
