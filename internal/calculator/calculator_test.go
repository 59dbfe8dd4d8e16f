package calculator

import (
	"math"
	"testing"
)

func assertClose(t *testing.T, label string, got, want, tol float64) {
	t.Helper()
	if math.Abs(got-want) > tol {
		t.Errorf("%s: got %.6f, want %.6f (tol=%.6f)", label, got, want, tol)
	}
}

func TestCalculateSMA(t *testing.T) {
	// SMA(3) over the trailing 3 of 100, 102, 104, 103, 105 = 104
	got, err := CalculateSMA([]float64{100, 102, 104, 103, 105}, 3)
	if err != nil {
		t.Fatal(err)
	}
	assertClose(t, "SMA(3)", got, 104, 1e-9)

	if _, err := CalculateSMA([]float64{1, 2}, 3); err == nil {
		t.Error("expected error for short input")
	}
	if _, err := CalculateSMA([]float64{1, 2}, 0); err == nil {
		t.Error("expected error for non-positive period")
	}
}

func TestCalculateSMA_FlatWindowIsExact(t *testing.T) {
	for _, p := range []float64{0.1, 0.3, 1e-7, 123.456789, 64999.99} {
		prices := make([]float64, 20)
		for i := range prices {
			prices[i] = p
		}
		got, err := CalculateSMA(prices, 20)
		if err != nil {
			t.Fatal(err)
		}
		if got != p {
			t.Errorf("flat window of %v: SMA = %v", p, got)
		}
	}
}

func TestCalculateSampleStdDev(t *testing.T) {
	// 2, 4, 4, 4, 5, 5, 7, 9: mean 5, sum of squares 32, sample variance 32/7
	prices := []float64{2, 4, 4, 4, 5, 5, 7, 9}
	got, err := CalculateSampleStdDev(prices, 8, 5)
	if err != nil {
		t.Fatal(err)
	}
	assertClose(t, "sample std", got, math.Sqrt(32.0/7.0), 1e-12)

	if _, err := CalculateSampleStdDev(prices, 1, 5); err == nil {
		t.Error("expected error for period 1")
	}
}

func TestCalculateBand_SpikeScenario(t *testing.T) {
	prices := make([]float64, 21)
	for i := range prices {
		prices[i] = 100
	}
	prices[20] = 200

	band, err := CalculateBand(prices, 20, 2)
	if err != nil {
		t.Fatal(err)
	}
	if band.MA != 105 {
		t.Errorf("MA = %v, want 105", band.MA)
	}
	// 19 deviations of -5 and one of +95: (19*25 + 9025) / 19 = 500
	assertClose(t, "std", band.Std, math.Sqrt(500), 1e-9)
	assertClose(t, "upper", band.Upper, 105+2*math.Sqrt(500), 1e-9)
	if 200 <= band.Upper {
		t.Errorf("close 200 should exceed upper %.4f", band.Upper)
	}
}

func TestCalculateBand_ZeroDeviationCollapses(t *testing.T) {
	prices := []float64{1, 3, 2, 5, 4}
	band, err := CalculateBand(prices, 5, 0)
	if err != nil {
		t.Fatal(err)
	}
	if band.Upper != band.MA || band.Lower != band.MA {
		t.Errorf("deviation 0 should collapse bands to MA, got %+v", band)
	}
}
