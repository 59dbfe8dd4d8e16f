package dashboard

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"BandSentinel/internal/model"
	"BandSentinel/internal/render"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
)

type fakeSource struct {
	latest    *model.Report
	breakouts []model.PairResult
	evaluated []float64
	pending   bool
}

func (f *fakeSource) Latest() *model.Report { return f.latest }

func (f *fakeSource) Evaluate(d float64) *model.Report {
	f.evaluated = append(f.evaluated, d)
	return &model.Report{
		Deviation: d,
		Window:    model.Window,
		Evaluated: 3,
		Results:   f.breakouts,
		Failures:  []model.PairFailure{{Symbol: "DOTUSDT", Kind: model.KindSourceUnavailable}},
	}
}

func (f *fakeSource) RefreshedAt() time.Time {
	if f.pending {
		return time.Time{}
	}
	return time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
}

func testOptions() Options {
	return Options{
		Window:           model.Window,
		Deviation:        2,
		DeviationOptions: []float64{0.5, 1, 2, 2.3, 5.5},
		Symbols:          []string{"BTCUSDT", "XRPUSDT", "DOTUSDT"},
		Interval:         "15m",
		Provider:         "binance",
		RefreshSeconds:   30,
	}
}

func newTestServer(src *fakeSource) *Server {
	return NewServer(src, testOptions(), prometheus.NewRegistry(), nil)
}

func get(t *testing.T, s *Server, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestSignals_DefaultDeviation(t *testing.T) {
	src := &fakeSource{breakouts: []model.PairResult{
		{Symbol: "BTCUSDT", LastPrice: 64000.123456, Signal: model.SignalUpperBreakout},
	}}
	rec := get(t, newTestServer(src), "/api/signals")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}

	var report model.Report
	if err := json.Unmarshal(rec.Body.Bytes(), &report); err != nil {
		t.Fatal(err)
	}
	if report.Deviation != 2 || len(report.Results) != 1 || report.Results[0].Signal != model.SignalUpperBreakout {
		t.Errorf("report = %+v", report)
	}
	if !strings.Contains(rec.Body.String(), `"upper_breakout"`) {
		t.Errorf("signal should be encoded by name: %s", rec.Body)
	}
}

func TestSignals_DeviationOption(t *testing.T) {
	src := &fakeSource{}
	s := newTestServer(src)

	if rec := get(t, s, "/api/signals?deviation=2.3"); rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if len(src.evaluated) != 1 || src.evaluated[0] != 2.3 {
		t.Errorf("evaluated = %v", src.evaluated)
	}

	for _, q := range []string{"2.1", "abc", "-1"} {
		rec := get(t, s, "/api/signals?deviation="+q)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("deviation=%s status = %d, want 400", q, rec.Code)
		}
	}
}

func TestIndex_WithSignals(t *testing.T) {
	src := &fakeSource{breakouts: []model.PairResult{
		{Symbol: "BTCUSDT", LastPrice: 64000.123456, Signal: model.SignalUpperBreakout},
		{Symbol: "XRPUSDT", LastPrice: 0.5, Signal: model.SignalLowerBreakout},
	}}
	rec := get(t, newTestServer(src), "/?deviation=0.5")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{
		render.MessageSignals, "BTCUSDT", "64000.1235", render.LabelUpper,
		"XRPUSDT", render.LabelLower, `value="0.5" selected`, "DOTUSDT: source_unavailable",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("page missing %q", want)
		}
	}
}

func TestIndex_NoSignals(t *testing.T) {
	rec := get(t, newTestServer(&fakeSource{}), "/")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), render.MessageNoSignals) {
		t.Error("page should show the no-breakouts message")
	}
	if strings.Contains(rec.Body.String(), "<table>") {
		t.Error("page should not render an empty table")
	}
}

func TestIndex_PendingBeforeFirstRefresh(t *testing.T) {
	src := &fakeSource{pending: true}
	rec := get(t, newTestServer(src), "/")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, render.MessagePending) {
		t.Error("page should show the pending message")
	}
	if strings.Contains(body, render.MessageNoSignals) {
		t.Error("page should not claim there are no breakouts before data arrives")
	}
	if len(src.evaluated) != 0 {
		t.Errorf("snapshot evaluated before first refresh: %v", src.evaluated)
	}
}

func TestConfigAndHealth(t *testing.T) {
	s := newTestServer(&fakeSource{})

	rec := get(t, s, "/api/config")
	var cfg configResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &cfg); err != nil {
		t.Fatal(err)
	}
	if cfg.Window != 20 || cfg.Deviation != 2 || len(cfg.DeviationOptions) != 5 || cfg.Provider != "binance" {
		t.Errorf("config = %+v", cfg)
	}

	rec = get(t, s, "/healthz")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "refreshed_at") {
		t.Errorf("healthz = %d %s", rec.Code, rec.Body)
	}
	var health map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &health); err != nil {
		t.Fatal(err)
	}
	if health["ws_clients"] != float64(0) {
		t.Errorf("ws_clients = %v", health["ws_clients"])
	}

	if rec = get(t, s, "/metrics"); rec.Code != http.StatusOK {
		t.Errorf("metrics status = %d", rec.Code)
	}
}

func TestWebSocket_InitialAndBroadcast(t *testing.T) {
	src := &fakeSource{latest: &model.Report{Deviation: 2, Window: 20, Evaluated: 1}}
	s := newTestServer(src)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()
	defer s.Hub().Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/ws", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))

	var first model.Report
	if err := conn.ReadJSON(&first); err != nil {
		t.Fatalf("read initial report: %v", err)
	}
	if first.Evaluated != 1 {
		t.Errorf("initial report = %+v", first)
	}

	deadline := time.Now().Add(2 * time.Second)
	for s.Hub().Len() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("client never registered")
		}
		time.Sleep(10 * time.Millisecond)
	}

	s.Hub().Broadcast(&model.Report{
		Deviation: 2,
		Window:    20,
		Evaluated: 2,
		Results:   []model.PairResult{{Symbol: "BTCUSDT", LastPrice: 1, Signal: model.SignalLowerBreakout}},
	})
	var next model.Report
	if err := conn.ReadJSON(&next); err != nil {
		t.Fatalf("read broadcast: %v", err)
	}
	if next.Evaluated != 2 || len(next.Results) != 1 || next.Results[0].Signal != model.SignalLowerBreakout {
		t.Errorf("broadcast report = %+v", next)
	}
}
