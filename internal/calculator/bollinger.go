package calculator

import (
	"BandSentinel/internal/model"
)

// CalculateBand returns the Bollinger band over the trailing period prices.
func CalculateBand(prices []float64, period int, deviation float64) (model.BollingerBand, error) {
	ma, err := CalculateSMA(prices, period)
	if err != nil {
		return model.BollingerBand{}, err
	}
	std, err := CalculateSampleStdDev(prices, period, ma)
	if err != nil {
		return model.BollingerBand{}, err
	}
	return model.BollingerBand{
		MA:    ma,
		Std:   std,
		Upper: ma + deviation*std,
		Lower: ma - deviation*std,
	}, nil
}
