package strategy

import (
	"BandSentinel/internal/model"
	"BandSentinel/internal/normalizer"
)

// Evaluator turns raw payloads into pair results with a fixed window.
type Evaluator struct {
	Window int
}

// NewEvaluator creates an Evaluator using the standard window.
func NewEvaluator() *Evaluator {
	return &Evaluator{Window: model.Window}
}

// MinCandles is the shortest series the evaluator accepts.
func (e *Evaluator) MinCandles() int { return e.Window + 1 }

// Evaluate normalizes p and classifies its latest candle. Errors wrap one of
// model.ErrSourceUnavailable, model.ErrMalformedPayload or model.ErrInsufficientData.
func (e *Evaluator) Evaluate(symbol string, p model.Payload, deviation float64) (model.PairResult, error) {
	if p.Symbol == "" {
		p.Symbol = symbol
	}
	series, err := normalizer.Normalize(p, e.MinCandles())
	if err != nil {
		return model.PairResult{}, err
	}
	signal, band, err := Breakout(series, e.Window, deviation)
	if err != nil {
		return model.PairResult{}, err
	}
	return model.PairResult{
		Symbol:    symbol,
		LastPrice: series.Last().Close,
		Signal:    signal,
		Band:      band,
	}, nil
}
