package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"BandSentinel/internal/model"
)

// MockSource returns generated Binance-style klines for development and testing.
// Symbols listed in Spikes end with a close moved by that fraction.
type MockSource struct {
	BasePrice float64
	Count     int
	Interval  time.Duration
	Spikes    map[string]float64
	Now       func() time.Time
}

// NewMockSource creates a mock source producing count candles per symbol.
func NewMockSource(basePrice float64, count int) *MockSource {
	return &MockSource{
		BasePrice: basePrice,
		Count:     count,
		Interval:  15 * time.Minute,
		Spikes:    map[string]float64{},
		Now:       time.Now,
	}
}

func (m *MockSource) Name() string       { return "mock" }
func (m *MockSource) Shape() model.Shape { return model.ShapeKlineArray }

func (m *MockSource) FetchRaw(ctx context.Context, symbol string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("mock: %w: %v", model.ErrSourceUnavailable, err)
	}
	return json.Marshal(m.generateRows(symbol))
}

func (m *MockSource) generateRows(symbol string) [][]any {
	end := m.Now().Truncate(m.Interval)
	rows := make([][]any, m.Count)
	for i := 0; i < m.Count; i++ {
		// A gentle oscillation keeps the band width non-zero.
		p := m.BasePrice * (1 + 0.002*math.Sin(float64(i)/3))
		if i == m.Count-1 {
			p *= 1 + m.Spikes[symbol]
		}
		open := end.Add(-time.Duration(m.Count-i) * m.Interval)
		rows[i] = []any{
			open.UnixMilli(),
			formatPrice(p * 0.999),
			formatPrice(p * 1.005),
			formatPrice(p * 0.995),
			formatPrice(p),
			"1000000",
			open.Add(m.Interval).UnixMilli() - 1,
		}
	}
	return rows
}

func formatPrice(p float64) string {
	return fmt.Sprintf("%.8f", p)
}
