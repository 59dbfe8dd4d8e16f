package strategy

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"BandSentinel/internal/model"
)

// Outcome is the evaluation result of one pair. Exactly one of Result or Err is meaningful.
type Outcome struct {
	Symbol string
	Result model.PairResult
	Err    error
}

// EvaluateAll evaluates every payload concurrently. Outcomes keep the input order.
func (e *Evaluator) EvaluateAll(payloads []model.Payload, deviation float64) []Outcome {
	outcomes := make([]Outcome, len(payloads))

	var wg sync.WaitGroup
	for i, p := range payloads {
		wg.Add(1)
		go func(i int, p model.Payload) {
			defer wg.Done()
			outcomes[i] = e.evaluateSafe(p, deviation)
		}(i, p)
	}
	wg.Wait()
	return outcomes
}

// Scan evaluates all payloads and builds a report of the pairs breaking out.
func (e *Evaluator) Scan(payloads []model.Payload, deviation float64) *model.Report {
	return e.BuildReport(e.EvaluateAll(payloads, deviation), deviation)
}

// BuildReport keeps non-none results and failures, both sorted by symbol.
func (e *Evaluator) BuildReport(outcomes []Outcome, deviation float64) *model.Report {
	report := &model.Report{
		Deviation:   deviation,
		Window:      e.Window,
		GeneratedAt: time.Now(),
		Evaluated:   len(outcomes),
		Results:     []model.PairResult{},
		Failures:    []model.PairFailure{},
	}
	for _, o := range outcomes {
		if o.Err != nil {
			report.Failures = append(report.Failures, model.PairFailure{
				Symbol:  o.Symbol,
				Kind:    model.KindOf(o.Err),
				Message: o.Err.Error(),
			})
			continue
		}
		if o.Result.Signal != model.SignalNone {
			report.Results = append(report.Results, o.Result)
		}
	}

	sort.Slice(report.Results, func(i, j int) bool { return report.Results[i].Symbol < report.Results[j].Symbol })
	sort.Slice(report.Failures, func(i, j int) bool { return report.Failures[i].Symbol < report.Failures[j].Symbol })
	return report
}

// evaluateSafe recovers from unexpected payload contents so one bad pair cannot abort a cycle.
func (e *Evaluator) evaluateSafe(p model.Payload, deviation float64) (o Outcome) {
	o.Symbol = p.Symbol
	defer func() {
		if r := recover(); r != nil {
			o = Outcome{Symbol: p.Symbol, Err: fmt.Errorf("%s: %w: %v", p.Symbol, model.ErrMalformedPayload, r)}
		}
	}()
	o.Result, o.Err = e.Evaluate(p.Symbol, p, deviation)
	return o
}
