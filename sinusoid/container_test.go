package sinusoid

import (
	"math"
	"testing"

	"github.com/cwbudde/algo-prewhiten/internal/testutil"
)

func TestContainerOrderingAndIndices(t *testing.T) {
	c := NewContainer(
		New(1.0, 2.0, 0.3, 0, Sine),
		New(2.2, 2.3, 0.1, 0, Sine),
	)
	if c.Len() != 2 {
		t.Fatalf("len = %d, want 2", c.Len())
	}
	if c.Last().Freq != 2.2 {
		t.Fatalf("last freq = %v, want 2.2", c.Last().Freq)
	}

	c.Add(New(0.1, 20, 0.3, 0, Sine))
	if c.Len() != 3 || c.Last().Freq != 0.1 {
		t.Fatalf("add: len=%d last=%v", c.Len(), c.Last().Freq)
	}
	for i := 0; i < c.Len(); i++ {
		if c.At(i).Index != i {
			t.Fatalf("component %d has index %d", i, c.At(i).Index)
		}
	}
}

func TestJointModelMatchesSum(t *testing.T) {
	time := testutil.UnevenTime(3, 10, 250)
	c := NewContainer(
		New(1.0, 2.0, 0.3, 0, Sine),
		New(2.2, 2.3, 0.1, 0, Sine),
		New(0.1, 20, 0.8, 0, Sine),
	)

	want := make([]float64, len(time))
	for i, ts := range time {
		for j := 0; j < c.Len(); j++ {
			fr := c.At(j)
			want[i] += fr.Amp * math.Sin(2*math.Pi*(fr.Freq*ts+fr.Phase))
		}
		want[i] += 1.5
	}

	testutil.RequireSliceNearlyEqual(t, c.JointModel(time, 1.5), want, 1e-12)
}

func TestJointModelIdempotent(t *testing.T) {
	time := testutil.EvenTime(10, 100)
	c := NewContainer(
		New(1.0, 2.0, 0.3, 0, Sine),
		New(2.2, 2.3, 0.1, 0, Cosine),
	)
	first := c.JointModel(time, 0.25)
	second := c.JointModel(time, 0.25)
	testutil.RequireSliceNearlyEqual(t, second, first, 0)
}

func TestComputeUncertainties(t *testing.T) {
	c := NewContainer(New(1.0, 2.0, 0.3, 0, Sine))
	c.ComputeUncertainties(0.02, 50, 500)

	fr := c.At(0)
	wantA := math.Sqrt(2.0/500) * 0.02
	wantF := math.Sqrt(6.0/500) * 0.02 / (math.Pi * 50 * 2.0)
	wantP := math.Sqrt(2.0/500) * 0.02 / 2.0

	testutil.RequireNear(t, "sigma_a", fr.SigmaAmp, wantA, 1e-15)
	testutil.RequireNear(t, "sigma_f", fr.SigmaFreq, wantF, 1e-15)
	testutil.RequireNear(t, "sigma_p", fr.SigmaPhase, wantP, 1e-15)
}

type fakeNoise struct{ level float64 }

func (n fakeNoise) SigBox(f, a float64) (float64, error)  { return a / n.level, nil }
func (n fakeNoise) SigPoly(f, a float64) (float64, error) { return a / (2 * n.level), nil }
func (n fakeNoise) SigSLF(f, a float64) (float64, error)  { return a / (4 * n.level), nil }

func TestComputeSignificances(t *testing.T) {
	c := NewContainer(New(1.0, 2.0, 0.3, 0, Sine))
	if err := c.ComputeSignificances(fakeNoise{level: 0.5}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	fr := c.At(0)
	testutil.RequireNear(t, "sig_box", fr.SigBox, 4, 1e-12)
	testutil.RequireNear(t, "sig_poly", fr.SigPoly, 2, 1e-12)
	testutil.RequireNear(t, "sig_slf", fr.SigSLF, 1, 1e-12)
}
