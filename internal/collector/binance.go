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

// BinanceSource fetches klines from the Binance spot REST API.
type BinanceSource struct {
	BaseURL  string
	Interval string
	Limit    int
	Client   *http.Client
}

// NewBinanceSource creates a Binance data source with optional proxy support.
func NewBinanceSource(baseURL, interval string, limit int, proxyURL string, timeout time.Duration) *BinanceSource {
	if baseURL == "" {
		baseURL = "https://api.binance.com"
	}
	return &BinanceSource{
		BaseURL:  baseURL,
		Interval: interval,
		Limit:    limit,
		Client:   newHTTPClient(proxyURL, timeout),
	}
}

func (s *BinanceSource) Name() string       { return "binance" }
func (s *BinanceSource) Shape() model.Shape { return model.ShapeKlineArray }

func (s *BinanceSource) FetchRaw(ctx context.Context, symbol string) ([]byte, error) {
	q := url.Values{}
	q.Set("symbol", symbol)
	q.Set("interval", s.Interval)
	q.Set("limit", strconv.Itoa(s.Limit))
	endpoint := fmt.Sprintf("%s/api/v3/klines?%s", s.BaseURL, q.Encode())
	return getBody(ctx, s.Client, s.Name(), endpoint)
}
