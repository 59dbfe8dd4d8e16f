package model

import (
	"fmt"
	"time"
)

// Signal classifies the latest candle of a series against its Bollinger band.
type Signal int

const (
	SignalNone Signal = iota
	SignalUpperBreakout
	SignalLowerBreakout
)

func (s Signal) String() string {
	switch s {
	case SignalUpperBreakout:
		return "upper_breakout"
	case SignalLowerBreakout:
		return "lower_breakout"
	default:
		return "none"
	}
}

// MarshalText encodes the signal by name so JSON output stays readable.
func (s Signal) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText parses a signal name produced by MarshalText.
func (s *Signal) UnmarshalText(b []byte) error {
	switch string(b) {
	case "none", "":
		*s = SignalNone
	case "upper_breakout":
		*s = SignalUpperBreakout
	case "lower_breakout":
		*s = SignalLowerBreakout
	default:
		return fmt.Errorf("unknown signal %q", string(b))
	}
	return nil
}

// BollingerBand is the envelope around the moving average at one index.
type BollingerBand struct {
	MA    float64 `json:"ma"`
	Std   float64 `json:"std"`
	Upper float64 `json:"upper"`
	Lower float64 `json:"lower"`
}

// PairResult is the evaluation outcome for a single trading pair.
type PairResult struct {
	Symbol    string        `json:"symbol"`
	LastPrice float64       `json:"last_price"`
	Signal    Signal        `json:"signal"`
	Band      BollingerBand `json:"band"`
}

// PairFailure records why a pair produced no result in a cycle.
type PairFailure struct {
	Symbol  string    `json:"symbol"`
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
}

// Report aggregates one evaluation pass over all configured pairs.
type Report struct {
	Deviation   float64       `json:"deviation"`
	Window      int           `json:"window"`
	GeneratedAt time.Time     `json:"generated_at"`
	Evaluated   int           `json:"evaluated"`
	Results     []PairResult  `json:"results"`
	Failures    []PairFailure `json:"failures"`
}
