// Package normalizer converts provider-specific payloads into canonical candle series.
package normalizer

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"time"

	"BandSentinel/internal/model"
)

// Normalize turns a decoded payload into a CandleSeries with at least minLen candles.
// It dispatches on the shape declared by the data source and never modifies p.Body.
func Normalize(p model.Payload, minLen int) (model.CandleSeries, error) {
	if p.Err != nil {
		if errors.Is(p.Err, model.ErrSourceUnavailable) || errors.Is(p.Err, model.ErrMalformedPayload) {
			return model.CandleSeries{}, fmt.Errorf("%s: %w", p.Symbol, p.Err)
		}
		return model.CandleSeries{}, fmt.Errorf("%s: %w: %v", p.Symbol, model.ErrSourceUnavailable, p.Err)
	}

	var (
		candles []model.Candle
		err     error
	)
	switch p.Shape {
	case model.ShapeKlineArray:
		candles, err = fromKlineArray(p.Body)
	case model.ShapeResultList:
		candles, err = fromResultList(p.Body)
	case model.ShapePricePoints:
		candles, err = fromPricePoints(p.Body)
	default:
		err = fmt.Errorf("%w: unknown shape %q", model.ErrMalformedPayload, p.Shape)
	}
	if err != nil {
		return model.CandleSeries{}, fmt.Errorf("%s: %w", p.Symbol, err)
	}

	if len(candles) < minLen {
		return model.CandleSeries{}, fmt.Errorf("%s: %w: %d usable candles, need %d",
			p.Symbol, model.ErrInsufficientData, len(candles), minLen)
	}
	return model.CandleSeries{Symbol: p.Symbol, Candles: candles}, nil
}

func fromKlineArray(body any) ([]model.Candle, error) {
	rows, ok := body.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: expected a list of kline rows, got %T", model.ErrMalformedPayload, body)
	}
	return parseKlineRows(rows), nil
}

func fromResultList(body any) ([]model.Candle, error) {
	obj, ok := body.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: expected an object, got %T", model.ErrMalformedPayload, body)
	}
	if code, ok := obj["retCode"]; ok {
		if n, ok := toFloat(code); !ok || n != 0 {
			return nil, fmt.Errorf("%w: upstream retCode %v: %v", model.ErrMalformedPayload, code, obj["retMsg"])
		}
	}
	result, ok := obj["result"].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: missing result object", model.ErrMalformedPayload)
	}
	rows, ok := result["list"].([]any)
	if !ok {
		return nil, fmt.Errorf("%w: missing result.list", model.ErrMalformedPayload)
	}
	return parseKlineRows(rows), nil
}

// parseKlineRows reads [open_time, open, high, low, close, volume, ...] rows,
// dropping any row with a missing or unusable field.
func parseKlineRows(rows []any) []model.Candle {
	candles := make([]model.Candle, 0, len(rows))
	for _, r := range rows {
		row, ok := r.([]any)
		if !ok || len(row) < 6 {
			continue
		}
		ts, ok := toTime(row[0])
		if !ok {
			continue
		}
		var vals [5]float64
		valid := true
		for i := range vals {
			v, ok := toPrice(row[i+1])
			if !ok {
				valid = false
				break
			}
			vals[i] = v
		}
		if !valid {
			continue
		}
		candles = append(candles, model.Candle{
			OpenTime: ts,
			Open:     vals[0],
			High:     vals[1],
			Low:      vals[2],
			Close:    vals[3],
			Volume:   vals[4],
		})
	}
	return sortUnique(candles)
}

type pricePoint struct {
	ts    time.Time
	price float64
}

func fromPricePoints(body any) ([]model.Candle, error) {
	var list []any
	switch b := body.(type) {
	case []any:
		list = b
	case map[string]any:
		prices, ok := b["prices"].([]any)
		if !ok {
			return nil, fmt.Errorf("%w: missing prices list", model.ErrMalformedPayload)
		}
		list = prices
	default:
		return nil, fmt.Errorf("%w: expected a list of price points, got %T", model.ErrMalformedPayload, body)
	}

	points := make([]pricePoint, 0, len(list))
	for _, item := range list {
		pair, ok := item.([]any)
		if !ok || len(pair) < 2 {
			continue
		}
		ts, ok := toTime(pair[0])
		if !ok {
			continue
		}
		price, ok := toPrice(pair[1])
		if !ok {
			continue
		}
		points = append(points, pricePoint{ts: ts, price: price})
	}

	sort.SliceStable(points, func(i, j int) bool { return points[i].ts.Before(points[j].ts) })
	uniq := points[:0:0]
	for _, pt := range points {
		if n := len(uniq); n > 0 && !pt.ts.After(uniq[n-1].ts) {
			continue
		}
		uniq = append(uniq, pt)
	}

	// The first point has no predecessor to synthesize an open from.
	if len(uniq) < 2 {
		return nil, nil
	}
	candles := make([]model.Candle, 0, len(uniq)-1)
	for i := 1; i < len(uniq); i++ {
		prev, cur := uniq[i-1].price, uniq[i].price
		candles = append(candles, model.Candle{
			OpenTime: uniq[i].ts,
			Open:     prev,
			High:     math.Max(prev, cur),
			Low:      math.Min(prev, cur),
			Close:    cur,
			Volume:   0,
		})
	}
	return candles, nil
}

// sortUnique orders candles by open time and keeps the first of any duplicate timestamps.
func sortUnique(candles []model.Candle) []model.Candle {
	sort.SliceStable(candles, func(i, j int) bool { return candles[i].OpenTime.Before(candles[j].OpenTime) })
	out := candles[:0]
	for _, c := range candles {
		if n := len(out); n > 0 && !c.OpenTime.After(out[n-1].OpenTime) {
			continue
		}
		out = append(out, c)
	}
	return out
}

func toTime(v any) (time.Time, bool) {
	ms, ok := toFloat(v)
	if !ok || ms < 0 {
		return time.Time{}, false
	}
	return time.UnixMilli(int64(ms)).UTC(), true
}

// toPrice accepts finite, non-negative numeric values.
func toPrice(v any) (float64, bool) {
	f, ok := toFloat(v)
	if !ok || f < 0 {
		return 0, false
	}
	return f, true
}

func toFloat(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
