package strategy

import (
	"fmt"

	"BandSentinel/internal/calculator"
	"BandSentinel/internal/model"
)

// Breakout classifies the last candle of series against the Bollinger band
// computed over the trailing window closes. It requires window+1 candles.
func Breakout(series model.CandleSeries, window int, deviation float64) (model.Signal, model.BollingerBand, error) {
	if window < 2 {
		return model.SignalNone, model.BollingerBand{}, fmt.Errorf("%s: %w: window must be at least 2, got %d",
			series.Symbol, model.ErrInsufficientData, window)
	}
	if series.Len() < window+1 {
		return model.SignalNone, model.BollingerBand{}, fmt.Errorf("%s: %w: %d candles, need %d",
			series.Symbol, model.ErrInsufficientData, series.Len(), window+1)
	}

	band, err := calculator.CalculateBand(series.Closes(), window, deviation)
	if err != nil {
		return model.SignalNone, model.BollingerBand{}, fmt.Errorf("%s: %w: %v", series.Symbol, model.ErrInsufficientData, err)
	}
	return classify(series.Last().Close, band), band, nil
}

func classify(close float64, band model.BollingerBand) model.Signal {
	switch {
	case close > band.Upper:
		return model.SignalUpperBreakout
	case close < band.Lower:
		return model.SignalLowerBreakout
	default:
		return model.SignalNone
	}
}
