package collector

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"BandSentinel/internal/logger"
	"BandSentinel/internal/model"
)

// Observer receives fetch and cache outcomes, typically a metrics recorder.
type Observer interface {
	ObserveFetch(source string, d time.Duration, err error)
	ObserveCache(hit bool)
}

// NopObserver discards observations.
type NopObserver struct{}

func (NopObserver) ObserveFetch(string, time.Duration, error) {}
func (NopObserver) ObserveCache(bool)                         {}

// Collector fetches payloads for a fixed symbol list from one data source.
type Collector struct {
	Source         DataSource
	Symbols        []string
	Timeout        time.Duration
	MaxConcurrency int
	Observer       Observer
	Logger         *logger.Logger
}

// NewCollector creates a new Collector.
func NewCollector(src DataSource, symbols []string, timeout time.Duration, maxConcurrency int, obs Observer, log *logger.Logger) *Collector {
	if obs == nil {
		obs = NopObserver{}
	}
	if log == nil {
		log = logger.Nop()
	}
	if maxConcurrency <= 0 {
		maxConcurrency = len(symbols)
	}
	return &Collector{
		Source:         src,
		Symbols:        symbols,
		Timeout:        timeout,
		MaxConcurrency: maxConcurrency,
		Observer:       obs,
		Logger:         log,
	}
}

// FetchAll fetches every configured symbol concurrently. It always returns one
// payload per symbol, in symbol-list order; failures are carried in Payload.Err.
func (c *Collector) FetchAll(ctx context.Context) []model.Payload {
	payloads := make([]model.Payload, len(c.Symbols))
	sem := make(chan struct{}, max(c.MaxConcurrency, 1))

	var wg sync.WaitGroup
	for i, symbol := range c.Symbols {
		wg.Add(1)
		go func(i int, symbol string) {
			defer wg.Done()
			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				payloads[i] = c.failed(symbol, fmt.Errorf("%s: %w: %v", c.Source.Name(), model.ErrSourceUnavailable, ctx.Err()))
				return
			}
			payloads[i] = c.Fetch(ctx, symbol)
		}(i, symbol)
	}
	wg.Wait()
	return payloads
}

// Fetch retrieves and decodes the payload of a single symbol.
func (c *Collector) Fetch(ctx context.Context, symbol string) model.Payload {
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	start := time.Now()
	raw, err := c.Source.FetchRaw(ctx, symbol)
	c.Observer.ObserveFetch(c.Source.Name(), time.Since(start), err)
	if err != nil {
		c.Logger.Warn("fetch failed",
			logger.String("source", c.Source.Name()),
			logger.String("symbol", symbol),
			logger.Error(err))
		return c.failed(symbol, err)
	}

	body, err := Decode(raw)
	if err != nil {
		// The source answered, so an undecodable body is a shape problem, not a transport one.
		return c.failed(symbol, fmt.Errorf("%s: %w: %v", c.Source.Name(), model.ErrMalformedPayload, err))
	}
	return model.Payload{
		Symbol:    symbol,
		Shape:     c.Source.Shape(),
		Body:      body,
		FetchedAt: time.Now(),
	}
}

func (c *Collector) failed(symbol string, err error) model.Payload {
	return model.Payload{
		Symbol:    symbol,
		Shape:     c.Source.Shape(),
		Err:       err,
		FetchedAt: time.Now(),
	}
}

// Decode parses a JSON body keeping numbers as json.Number so large
// timestamps and prices survive without float rounding.
func Decode(raw []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}
	return v, nil
}
