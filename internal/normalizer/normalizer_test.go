package normalizer

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"BandSentinel/internal/model"
)

const minLen = model.Window + 1

func decode(t *testing.T, raw string) any {
	t.Helper()
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		t.Fatalf("decode fixture: %v", err)
	}
	return v
}

// binanceRows builds n kline rows with closes 100, 101, ... in Binance's layout.
func binanceRows(n int) string {
	rows := make([]string, n)
	for i := 0; i < n; i++ {
		c := 100 + i
		rows[i] = fmt.Sprintf(`[%d,"%d.0","%d.5","%d.5","%d.0","12.5",%d,"0",10,"0","0","0"]`,
			1700000000000+int64(i)*900000, c, c, c-1, c, 1700000000000+int64(i+1)*900000-1)
	}
	return "[" + strings.Join(rows, ",") + "]"
}

func TestNormalize_KlineArray(t *testing.T) {
	p := model.Payload{Symbol: "BTCUSDT", Shape: model.ShapeKlineArray, Body: decode(t, binanceRows(25))}
	series, err := Normalize(p, minLen)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if series.Len() != 25 {
		t.Fatalf("expected 25 candles, got %d", series.Len())
	}
	last := series.Last()
	if last.Close != 124 || last.High != 124.5 || last.Low != 123.5 || last.Volume != 12.5 {
		t.Errorf("unexpected last candle: %+v", last)
	}
	if series.Symbol != "BTCUSDT" {
		t.Errorf("symbol not carried: %q", series.Symbol)
	}
}

func TestNormalize_DropsBadRows(t *testing.T) {
	body := decode(t, binanceRows(22)).([]any)
	// One row with a non-numeric close and one too short; 20 valid rows remain.
	body[3].([]any)[4] = "n/a"
	body[7] = []any{json.Number("1700000000000")}
	p := model.Payload{Symbol: "ETHUSDT", Shape: model.ShapeKlineArray, Body: body}

	_, err := Normalize(p, minLen)
	if !errors.Is(err, model.ErrInsufficientData) {
		t.Fatalf("expected ErrInsufficientData, got %v", err)
	}

	series, err := Normalize(p, 20)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if series.Len() != 20 {
		t.Errorf("expected 20 candles after dropping, got %d", series.Len())
	}
}

func TestNormalize_RejectsNegativeAndDuplicates(t *testing.T) {
	rows := []any{
		[]any{float64(3000), "1", "1", "1", "1", "1"},
		[]any{float64(1000), "1", "1", "1", "2", "1"},
		[]any{float64(1000), "1", "1", "1", "9", "1"},
		[]any{float64(2000), "1", "1", "1", "-3", "1"},
	}
	series, err := Normalize(model.Payload{Symbol: "X", Shape: model.ShapeKlineArray, Body: rows}, 1)
	if err != nil {
		t.Fatal(err)
	}
	if series.Len() != 2 {
		t.Fatalf("expected 2 candles, got %d", series.Len())
	}
	if series.Candles[0].Close != 2 || series.Candles[1].Close != 1 {
		t.Errorf("unexpected order or duplicate handling: %+v", series.Candles)
	}
}

func TestNormalize_ResultListNewestFirst(t *testing.T) {
	rows := make([]string, 21)
	for i := 0; i < 21; i++ {
		// Bybit lists newest first.
		n := 20 - i
		rows[i] = fmt.Sprintf(`["%d","1","2","0.5","%d","3","4"]`, 1700000000000+int64(n)*60000, n+1)
	}
	raw := `{"retCode":0,"retMsg":"OK","result":{"category":"spot","symbol":"SOLUSDT","list":[` +
		strings.Join(rows, ",") + `]}}`

	series, err := Normalize(model.Payload{Symbol: "SOLUSDT", Shape: model.ShapeResultList, Body: decode(t, raw)}, minLen)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := 1; i < series.Len(); i++ {
		if !series.Candles[i].OpenTime.After(series.Candles[i-1].OpenTime) {
			t.Fatalf("series not strictly increasing at %d", i)
		}
	}
	if series.Last().Close != 21 {
		t.Errorf("expected newest close 21 last, got %v", series.Last().Close)
	}
}

func TestNormalize_ResultListUpstreamError(t *testing.T) {
	raw := `{"retCode":10001,"retMsg":"params error","result":{}}`
	_, err := Normalize(model.Payload{Symbol: "SOLUSDT", Shape: model.ShapeResultList, Body: decode(t, raw)}, minLen)
	if !errors.Is(err, model.ErrMalformedPayload) {
		t.Fatalf("expected ErrMalformedPayload, got %v", err)
	}
}

func TestNormalize_PricePointsRoundTrip(t *testing.T) {
	prices := []float64{100, 101.5, 99.25, 99.25, 102, 98, 97.5, 103, 104, 101, 100.5,
		99, 98.75, 105, 106, 104.5, 103, 102.25, 107, 108, 106.5, 110}
	points := make([]any, len(prices))
	for i, p := range prices {
		points[i] = []any{float64(1700000000000 + int64(i)*300000), p}
	}

	for _, body := range []any{points, map[string]any{"prices": points, "total_volumes": []any{}}} {
		series, err := Normalize(model.Payload{Symbol: "BTCUSDT", Shape: model.ShapePricePoints, Body: body}, minLen)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if series.Len() != len(prices)-1 {
			t.Fatalf("expected %d candles, got %d", len(prices)-1, series.Len())
		}
		for i, c := range series.Candles {
			if c.Close != prices[i+1] {
				t.Errorf("candle %d: close %v, want %v", i, c.Close, prices[i+1])
			}
			if c.Open != prices[i] {
				t.Errorf("candle %d: open %v, want %v", i, c.Open, prices[i])
			}
			if !(c.Low <= c.Close && c.Close <= c.High && c.Low <= c.Open && c.Open <= c.High) {
				t.Errorf("candle %d violates low<=open,close<=high: %+v", i, c)
			}
			if c.Volume != 0 {
				t.Errorf("candle %d: synthesized volume %v", i, c.Volume)
			}
		}
	}
}

func TestNormalize_Malformed(t *testing.T) {
	tests := []struct {
		name  string
		shape model.Shape
		body  any
	}{
		{"kline object", model.ShapeKlineArray, map[string]any{"code": -1121, "msg": "Invalid symbol."}},
		{"kline string", model.ShapeKlineArray, "oops"},
		{"result list missing keys", model.ShapeResultList, map[string]any{"foo": 1}},
		{"result list not object", model.ShapeResultList, []any{}},
		{"price points missing keys", model.ShapePricePoints, map[string]any{"error": "coin not found"}},
		{"price points number", model.ShapePricePoints, json.Number("3")},
		{"unknown shape", model.Shape("csv"), []any{}},
		{"nil body", model.ShapeKlineArray, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Normalize(model.Payload{Symbol: "X", Shape: tt.shape, Body: tt.body}, minLen)
			if !errors.Is(err, model.ErrMalformedPayload) {
				t.Errorf("expected ErrMalformedPayload, got %v", err)
			}
		})
	}
}

func TestNormalize_SourceUnavailable(t *testing.T) {
	p := model.Payload{Symbol: "X", Shape: model.ShapeKlineArray, Err: errors.New("dial tcp: i/o timeout")}
	_, err := Normalize(p, minLen)
	if !errors.Is(err, model.ErrSourceUnavailable) {
		t.Fatalf("expected ErrSourceUnavailable, got %v", err)
	}
	if errors.Is(err, model.ErrMalformedPayload) {
		t.Error("transport failure must not be reported as malformed")
	}
}

func TestNormalize_DoesNotMutateBody(t *testing.T) {
	rows := []any{
		[]any{float64(2000), "1", "1", "1", "2", "1"},
		[]any{float64(1000), "1", "1", "1", "1", "1"},
	}
	if _, err := Normalize(model.Payload{Shape: model.ShapeKlineArray, Body: rows}, 1); err != nil {
		t.Fatal(err)
	}
	if rows[0].([]any)[0] != float64(2000) {
		t.Error("input rows were reordered")
	}
}

func TestNormalize_UndecodableBodyStaysMalformed(t *testing.T) {
	p := model.Payload{Symbol: "X", Shape: model.ShapeKlineArray,
		Err: fmt.Errorf("binance: %w: invalid character '<'", model.ErrMalformedPayload)}
	_, err := Normalize(p, minLen)
	if !errors.Is(err, model.ErrMalformedPayload) || errors.Is(err, model.ErrSourceUnavailable) {
		t.Fatalf("expected only ErrMalformedPayload, got %v", err)
	}
}
