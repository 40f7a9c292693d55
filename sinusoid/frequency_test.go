package sinusoid

import (
	"math"
	"testing"

	"github.com/cwbudde/algo-prewhiten/internal/testutil"
)

func TestNormalizeSignFlipPreservesModel(t *testing.T) {
	time := testutil.EvenTime(10, 200)

	fr := New(1.3, 2.0, 0.25, 0, Sine)
	before := fr.Model(time)

	fr.Update(1.3, -2.0, 0.25)
	if fr.Amp != 2.0 {
		t.Fatalf("amplitude not flipped: got %v", fr.Amp)
	}
	if fr.Phase < 0 || fr.Phase >= 1 {
		t.Fatalf("phase not normalized: got %v", fr.Phase)
	}

	// a*sin(x) == -a*sin(x + pi), so the flipped parameters must evaluate to
	// the negated original model.
	after := fr.Model(time)
	for i := range after {
		after[i] = -after[i]
	}
	testutil.RequireSliceNearlyEqual(t, after, before, 1e-12)
}

func TestNormalizePhaseWrap(t *testing.T) {
	cases := []struct {
		in, want float64
	}{
		{0, 0},
		{0.999, 0.999},
		{1, 0},
		{55.3, 0.3},
		{-0.25, 0.75},
		{-3, 0},
	}
	for _, tc := range cases {
		fr := New(1, 1, tc.in, 0, Sine)
		if math.Abs(fr.Phase-tc.want) > 1e-9 {
			t.Fatalf("phase %v: got %v, want %v", tc.in, fr.Phase, tc.want)
		}
	}
}

func TestInitialValuesSurviveUpdates(t *testing.T) {
	fr := New(1.2, 1.3, 0.3, 0, Sine)
	fr.Update(2.2, -2.3, 0.3)
	fr.Update(2.5, 2.4, 7.1)

	if fr.Freq0 != 1.2 || fr.Amp0 != 1.3 || fr.Phase0 != 0.3 {
		t.Fatalf("initial values mutated: f0=%v a0=%v p0=%v", fr.Freq0, fr.Amp0, fr.Phase0)
	}
}

func TestCosineFormOffsetFromSine(t *testing.T) {
	// cos(x) == sin(x + 1/4 cycle); the two forms must agree under that shift.
	time := testutil.UnevenTime(7, 20, 100)
	sin := New(0.8, 1.1, 0.45, 0, Sine)
	cos := New(0.8, 1.1, 0.20, 0, Cosine)
	testutil.RequireSliceNearlyEqual(t, sin.Model(time), cos.Model(time), 1e-12)
}

func TestParseForm(t *testing.T) {
	if m, err := ParseForm("sin"); err != nil || m != Sine {
		t.Fatalf("sin: got %v, %v", m, err)
	}
	if m, err := ParseForm("cos"); err != nil || m != Cosine {
		t.Fatalf("cos: got %v, %v", m, err)
	}
	if _, err := ParseForm("tan"); err == nil {
		t.Fatal("expected error for unknown form")
	}
}
