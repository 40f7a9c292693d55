package periodogram

import (
	"errors"
	"math"
	"testing"

	"github.com/cwbudde/algo-prewhiten/internal/testutil"
)

// craftedPeriodogram builds a Periodogram directly from grid/amp arrays,
// bypassing spectrum computation, for white-box peak logic tests.
func craftedPeriodogram(grid, amp []float64, cfg Config) *Periodogram {
	return &Periodogram{
		grid:       grid,
		amp:        amp,
		resolution: grid[1] - grid[0],
		nyquist:    grid[len(grid)-1],
		cfg:        normalizeConfig(cfg),
	}
}

func rampGrid(n int, step float64) []float64 {
	grid := make([]float64, n)
	for i := range grid {
		grid[i] = step * float64(i+1)
	}
	return grid
}

func TestFindTroughs(t *testing.T) {
	//                     0    1    2    3    4    5    6    7    8
	amp := []float64{0.5, 0.2, 0.4, 1.0, 3.0, 1.2, 0.3, 0.6, 0.4}
	p := craftedPeriodogram(rampGrid(len(amp), 0.1), amp, Config{})

	left, right := p.FindTroughs(0.5) // index 4, the 3.0 peak
	if left != 1 {
		t.Fatalf("left trough = %d, want 1", left)
	}
	if right != 6 {
		t.Fatalf("right trough = %d, want 6", right)
	}
}

func TestSigBoxExcludesFootprint(t *testing.T) {
	amp := []float64{0.5, 0.2, 0.4, 1.0, 3.0, 1.2, 0.3, 0.6, 0.4}
	p := craftedPeriodogram(rampGrid(len(amp), 0.1), amp, Config{})

	// Radius wide enough to cover the whole grid; footprint indices 1..6
	// excluded, leaving 0.5, 0.6, 0.4.
	sig, err := p.SigBoxRadius(0.5, 3.0, 1.0)
	if err != nil {
		t.Fatalf("box significance failed: %v", err)
	}
	want := 3.0 / ((0.5 + 0.6 + 0.4) / 3)
	testutil.RequireNear(t, "box significance", sig, want, 1e-12)
}

func TestSigBoxRadiusTooNarrow(t *testing.T) {
	amp := []float64{0.5, 0.2, 0.4, 1.0, 3.0, 1.2, 0.3, 0.6, 0.4}
	p := craftedPeriodogram(rampGrid(len(amp), 0.1), amp, Config{})

	// The footprint spans indices 1..6 (frequencies 0.2..0.7); a radius of
	// one grid step cannot reach past it.
	_, err := p.SigBoxRadius(0.5, 3.0, 0.1)
	if !errors.Is(err, ErrRadiusTooNarrow) {
		t.Fatalf("got %v, want ErrRadiusTooNarrow", err)
	}
}

func TestSelectPeakGateExhaustion(t *testing.T) {
	// A perfectly flat spectrum: the polynomial noise estimate equals the
	// amplitude everywhere, so any gate above 1 excludes every point.
	n := 100
	amp := make([]float64, n)
	for i := range amp {
		amp[i] = 1.0
	}
	p := craftedPeriodogram(rampGrid(n, 0.01), amp, Config{PolyOrder: 2})

	_, _, ok, err := p.SelectPeak(MethodPoly, 2.0, nil)
	if err != nil {
		t.Fatalf("select failed: %v", err)
	}
	if ok {
		t.Fatal("expected exhaustion on fully gated spectrum")
	}
}

func TestSelectPeakHighestIgnoresGate(t *testing.T) {
	amp := []float64{0.1, 0.2, 0.15, 0.4, 0.1}
	p := craftedPeriodogram(rampGrid(len(amp), 0.1), amp, Config{})

	f, a, ok, err := p.SelectPeak(MethodHighest, 1e9, nil)
	if err != nil || !ok {
		t.Fatalf("highest selection failed: ok=%v err=%v", ok, err)
	}
	if f != 0.4 || a != 0.4 {
		t.Fatalf("got (%v, %v), want (0.4, 0.4)", f, a)
	}
}

func TestSelectPeakSignificanceGating(t *testing.T) {
	const span = 50.0
	time := testutil.UnevenTime(8, span, 400)
	value := testutil.MultiSine(time, testutil.Component{Freq: 0.8, Amp: 2.0, Phase: 0.1})
	testutil.AddNoise(9, 0.05, value)

	p, err := New(time, value, nil, Config{})
	if err != nil {
		t.Fatalf("construction failed: %v", err)
	}

	f, a, ok, err := p.SelectPeak(MethodPoly, 4.0, nil)
	if err != nil {
		t.Fatalf("select failed: %v", err)
	}
	if !ok {
		t.Fatal("strong peak should survive the gate")
	}
	if math.Abs(f-0.8) > p.Resolution() {
		t.Fatalf("selected %v, want 0.8 within %v", f, p.Resolution())
	}
	if a < 1.0 {
		t.Fatalf("selected amplitude %v implausibly low", a)
	}
}

func TestParseMethod(t *testing.T) {
	for _, name := range []string{"highest", "box", "poly", "slf"} {
		if _, err := ParseMethod(name); err != nil {
			t.Fatalf("%s: %v", name, err)
		}
	}
	if _, err := ParseMethod("loudest"); err == nil {
		t.Fatal("expected error for unknown method")
	}
}
