package render

import (
	"fmt"
	"math"
	"strings"

	"BandSentinel/internal/model"
)

const (
	LabelUpper = "🔺 Breakout ↑"
	LabelLower = "🔻 Breakout ↓"

	MessageSignals   = "Signals detected"
	MessageNoSignals = "No breakouts for the current pairs"
	MessagePending   = "Waiting for the first market data refresh"
)

// Row is one display line of the breakout table.
type Row struct {
	Pair   string  `json:"pair"`
	Price  float64 `json:"price"`
	Signal string  `json:"signal"`
}

// RoundPrice rounds a price to 4 decimal places for display.
func RoundPrice(p float64) float64 {
	return math.Round(p*1e4) / 1e4
}

// SignalLabel returns the display label of a signal. None has no label.
func SignalLabel(s model.Signal) string {
	switch s {
	case model.SignalUpperBreakout:
		return LabelUpper
	case model.SignalLowerBreakout:
		return LabelLower
	default:
		return ""
	}
}

// Rows converts the report's breakout results into display rows, keeping their order.
func Rows(r *model.Report) []Row {
	rows := make([]Row, 0, len(r.Results))
	for _, res := range r.Results {
		if res.Signal == model.SignalNone {
			continue
		}
		rows = append(rows, Row{
			Pair:   res.Symbol,
			Price:  RoundPrice(res.LastPrice),
			Signal: SignalLabel(res.Signal),
		})
	}
	return rows
}

// Banner returns the headline shown above the table.
func Banner(r *model.Report) string {
	if len(Rows(r)) == 0 {
		return MessageNoSignals
	}
	return MessageSignals
}

// FormatPrice prints a rounded price without trailing zeros.
func FormatPrice(p float64) string {
	s := fmt.Sprintf("%.4f", RoundPrice(p))
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}

// FormatTable renders a report as a plain-text table for the terminal.
func FormatTable(r *model.Report) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("📊 Bollinger breakouts | %s | window %d | deviation %g\n",
		r.GeneratedAt.Format("2006-01-02 15:04:05"), r.Window, r.Deviation))

	rows := Rows(r)
	if len(rows) == 0 {
		b.WriteString(MessageNoSignals + "\n")
	} else {
		b.WriteString(MessageSignals + "\n")
		width := len("Pair")
		for _, row := range rows {
			if len(row.Pair) > width {
				width = len(row.Pair)
			}
		}
		b.WriteString(fmt.Sprintf("  %-*s  %14s  %s\n", width, "Pair", "Price", "Signal"))
		b.WriteString("  " + strings.Repeat("─", width+26) + "\n")
		for _, row := range rows {
			b.WriteString(fmt.Sprintf("  %-*s  %14s  %s\n", width, row.Pair, FormatPrice(row.Price), row.Signal))
		}
	}

	if len(r.Failures) > 0 {
		b.WriteString(fmt.Sprintf("\n⚠️ %d of %d pairs failed:\n", len(r.Failures), r.Evaluated))
		for _, f := range r.Failures {
			b.WriteString(fmt.Sprintf("  %s: %s\n", f.Symbol, f.Kind))
		}
	}

	return b.String()
}
