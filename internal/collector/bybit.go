package collector

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"BandSentinel/internal/model"
)

// bybitIntervals maps exchange-style intervals onto Bybit v5 kline intervals.
var bybitIntervals = map[string]string{
	"1m": "1", "3m": "3", "5m": "5", "15m": "15", "30m": "30",
	"1h": "60", "2h": "120", "4h": "240", "6h": "360", "12h": "720",
	"1d": "D", "1w": "W", "1M": "M",
}

// BybitSource fetches spot klines from the Bybit v5 market API.
type BybitSource struct {
	BaseURL  string
	Category string
	Interval string
	Limit    int
	Client   *http.Client
}

// NewBybitSource creates a Bybit data source with optional proxy support.
func NewBybitSource(baseURL, interval string, limit int, proxyURL string, timeout time.Duration) *BybitSource {
	if baseURL == "" {
		baseURL = "https://api.bybit.com"
	}
	return &BybitSource{
		BaseURL:  baseURL,
		Category: "spot",
		Interval: interval,
		Limit:    limit,
		Client:   newHTTPClient(proxyURL, timeout),
	}
}

func (s *BybitSource) Name() string       { return "bybit" }
func (s *BybitSource) Shape() model.Shape { return model.ShapeResultList }

// BybitInterval converts an interval such as "15m" into Bybit's notation.
// Unknown values pass through unchanged.
func BybitInterval(interval string) string {
	if mapped, ok := bybitIntervals[interval]; ok {
		return mapped
	}
	return interval
}

func (s *BybitSource) FetchRaw(ctx context.Context, symbol string) ([]byte, error) {
	q := url.Values{}
	q.Set("category", s.Category)
	q.Set("symbol", symbol)
	q.Set("interval", BybitInterval(s.Interval))
	q.Set("limit", strconv.Itoa(s.Limit))
	endpoint := fmt.Sprintf("%s/v5/market/kline?%s", s.BaseURL, q.Encode())
	return getBody(ctx, s.Client, s.Name(), endpoint)
}
