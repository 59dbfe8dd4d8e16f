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

// DefaultCoinIDs maps exchange symbols onto CoinGecko coin ids.
var DefaultCoinIDs = map[string]string{
	"BTCUSDT":   "bitcoin",
	"ETHUSDT":   "ethereum",
	"SOLUSDT":   "solana",
	"BNBUSDT":   "binancecoin",
	"XRPUSDT":   "ripple",
	"DOGEUSDT":  "dogecoin",
	"ADAUSDT":   "cardano",
	"AVAXUSDT":  "avalanche-2",
	"LINKUSDT":  "chainlink",
	"MATICUSDT": "matic-network",
	"DOTUSDT":   "polkadot",
}

// CoinGeckoSource fetches close-only price points from the CoinGecko market_chart API.
type CoinGeckoSource struct {
	BaseURL    string
	VsCurrency string
	Days       int
	CoinIDs    map[string]string
	APIKey     string
	Client     *http.Client
}

// NewCoinGeckoSource creates a CoinGecko data source. coinIDs overrides entries of DefaultCoinIDs.
func NewCoinGeckoSource(baseURL, apiKey string, days int, coinIDs map[string]string, proxyURL string, timeout time.Duration) *CoinGeckoSource {
	if baseURL == "" {
		baseURL = "https://api.coingecko.com"
	}
	ids := make(map[string]string, len(DefaultCoinIDs)+len(coinIDs))
	for k, v := range DefaultCoinIDs {
		ids[k] = v
	}
	for k, v := range coinIDs {
		ids[k] = v
	}
	return &CoinGeckoSource{
		BaseURL:    baseURL,
		VsCurrency: "usd",
		Days:       days,
		CoinIDs:    ids,
		APIKey:     apiKey,
		Client:     newHTTPClient(proxyURL, timeout),
	}
}

func (s *CoinGeckoSource) Name() string       { return "coingecko" }
func (s *CoinGeckoSource) Shape() model.Shape { return model.ShapePricePoints }

func (s *CoinGeckoSource) coinID(symbol string) (string, error) {
	if id, ok := s.CoinIDs[symbol]; ok {
		return id, nil
	}
	return "", fmt.Errorf("%s: %w: no coin id mapped for %s", s.Name(), model.ErrSourceUnavailable, symbol)
}

func (s *CoinGeckoSource) FetchRaw(ctx context.Context, symbol string) ([]byte, error) {
	id, err := s.coinID(symbol)
	if err != nil {
		return nil, err
	}
	q := url.Values{}
	q.Set("vs_currency", s.VsCurrency)
	q.Set("days", strconv.Itoa(s.Days))
	if s.APIKey != "" {
		q.Set("x_cg_demo_api_key", s.APIKey)
	}
	endpoint := fmt.Sprintf("%s/api/v3/coins/%s/market_chart?%s", s.BaseURL, url.PathEscape(id), q.Encode())
	return getBody(ctx, s.Client, s.Name(), endpoint)
}
