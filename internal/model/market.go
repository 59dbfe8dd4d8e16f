package model

import "time"

// Window is the number of trailing candles the Bollinger bands are computed over.
const Window = 20

// Candle represents a single OHLCV bar.
type Candle struct {
	OpenTime time.Time `json:"open_time"`
	Open     float64   `json:"open"`
	High     float64   `json:"high"`
	Low      float64   `json:"low"`
	Close    float64   `json:"close"`
	Volume   float64   `json:"volume"`
}

// CandleSeries is an ordered run of candles for one symbol.
// OpenTime is strictly increasing. Callers must treat Candles as read-only.
type CandleSeries struct {
	Symbol  string
	Candles []Candle
}

// Len returns the number of candles in the series.
func (s CandleSeries) Len() int { return len(s.Candles) }

// Last returns the most recent candle. It panics on an empty series.
func (s CandleSeries) Last() Candle { return s.Candles[len(s.Candles)-1] }

// Closes returns a fresh slice of close prices.
func (s CandleSeries) Closes() []float64 {
	closes := make([]float64, len(s.Candles))
	for i, c := range s.Candles {
		closes[i] = c.Close
	}
	return closes
}

// Shape declares the layout of a raw payload produced by a data source.
type Shape string

const (
	// ShapeKlineArray is an exchange-style list of [open_time, open, high, low, close, volume, ...] rows.
	ShapeKlineArray Shape = "kline_array"
	// ShapeResultList is an object whose result.list holds kline rows.
	ShapeResultList Shape = "result_list"
	// ShapePricePoints is a list of [timestamp, price] points without OHLC.
	ShapePricePoints Shape = "price_points"
)

// Payload is one data source response for a symbol, already decoded from its wire encoding.
// Err is set when no body is available: the transport failed, or the body could not be
// decoded (then Err wraps ErrMalformedPayload). Body is meaningless when Err is set.
type Payload struct {
	Symbol    string
	Shape     Shape
	Body      any
	Err       error
	FetchedAt time.Time
}
