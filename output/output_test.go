package output

import (
	"encoding/csv"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/cwbudde/algo-prewhiten/config"
	"github.com/cwbudde/algo-prewhiten/internal/testutil"
	"github.com/cwbudde/algo-prewhiten/lightcurve"
	"github.com/cwbudde/algo-prewhiten/sinusoid"
)

func testLightcurve(t *testing.T) *lightcurve.Lightcurve {
	t.Helper()
	time := testutil.UnevenTime(1, 20, 120)
	value := testutil.MultiSine(time, testutil.Component{Freq: 0.5, Amp: 1, Phase: 0.1})
	lc, err := lightcurve.New(time, value, nil, lightcurve.Config{})
	if err != nil {
		t.Fatalf("light curve construction failed: %v", err)
	}
	return lc
}

func testContainer() *sinusoid.Container {
	c := sinusoid.NewContainer(
		sinusoid.New(0.5, 1.0, 0.1, 0, sinusoid.Sine),
		sinusoid.New(1.2, 0.4, 0.7, 0, sinusoid.Sine),
	)
	for _, fr := range c.Frequencies() {
		fr.SigmaFreq, fr.SigmaAmp, fr.SigmaPhase = 1e-4, 1e-2, 1e-2
		fr.SigBox, fr.SigPoly, fr.SigSLF = 12.5, 11.0, 10.5
	}
	return c
}

func TestManagerCreatesTree(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "pw")
	_, err := NewManager(config.Output{Dir: dir}, zerolog.Nop())
	if err != nil {
		t.Fatalf("manager construction failed: %v", err)
	}
	for _, sub := range []string{"lightcurves", "periodograms", "auxiliary"} {
		if st, err := os.Stat(filepath.Join(dir, sub)); err != nil || !st.IsDir() {
			t.Fatalf("subdirectory %s missing: %v", sub, err)
		}
	}
}

func TestManagerRejectsBadConfig(t *testing.T) {
	if _, err := NewManager(config.Output{}, zerolog.Nop()); err == nil {
		t.Fatal("expected error for empty directory")
	}
	cfg := config.Output{Dir: t.TempDir(), InMagnitudes: true}
	if _, err := NewManager(cfg, zerolog.Nop()); err == nil {
		t.Fatal("expected error for magnitude output without reference flux")
	}
}

func TestSaveIterationWritesColumns(t *testing.T) {
	dir := t.TempDir()
	m, err := NewManager(config.Output{Dir: dir}, zerolog.Nop())
	if err != nil {
		t.Fatalf("manager construction failed: %v", err)
	}
	lc := testLightcurve(t)

	if err := m.SaveIteration(3, lc, testContainer(), 0.1); err != nil {
		t.Fatalf("save iteration failed: %v", err)
	}

	raw, err := os.ReadFile(filepath.Join(dir, "lightcurves", "iteration_003.txt"))
	if err != nil {
		t.Fatalf("light curve dump missing: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	if len(lines) != lc.N() {
		t.Fatalf("light curve dump has %d lines, want %d", len(lines), lc.N())
	}
	if got := len(strings.Fields(lines[0])); got != 3 {
		t.Fatalf("light curve dump has %d columns, want 3", got)
	}

	raw, err = os.ReadFile(filepath.Join(dir, "periodograms", "iteration_003.txt"))
	if err != nil {
		t.Fatalf("periodogram dump missing: %v", err)
	}
	lines = strings.Split(strings.TrimSpace(string(raw)), "\n")
	if len(lines) != lc.Periodogram().Len() {
		t.Fatalf("periodogram dump has %d lines, want %d", len(lines), lc.Periodogram().Len())
	}
}

func TestSaveFinalWritesTables(t *testing.T) {
	dir := t.TempDir()
	m, err := NewManager(config.Output{Dir: dir}, zerolog.Nop())
	if err != nil {
		t.Fatalf("manager construction failed: %v", err)
	}
	lc := testLightcurve(t)
	freqs := testContainer()

	if err := m.SaveFinal([]*lightcurve.Lightcurve{lc, lc}, freqs, 0.25); err != nil {
		t.Fatalf("save final failed: %v", err)
	}

	f, err := os.Open(filepath.Join(dir, "frequencies.csv"))
	if err != nil {
		t.Fatalf("frequency CSV missing: %v", err)
	}
	defer f.Close()
	recs, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("frequency CSV unreadable: %v", err)
	}
	if len(recs) != 1+freqs.Len() {
		t.Fatalf("frequency CSV has %d rows, want %d", len(recs), 1+freqs.Len())
	}
	if recs[0][1] != "freq" || len(recs[1]) != 10 {
		t.Fatalf("unexpected CSV layout: %v", recs[0])
	}
	if recs[1][1] != "0.5" {
		t.Fatalf("first row frequency = %q, want 0.5", recs[1][1])
	}

	tex, err := os.ReadFile(filepath.Join(dir, "frequencies.tex"))
	if err != nil {
		t.Fatalf("LaTeX table missing: %v", err)
	}
	if !strings.Contains(string(tex), `\begin{tabular}`) || !strings.Contains(string(tex), `\pm`) {
		t.Fatal("LaTeX table lacks expected markup")
	}

	summary, err := os.ReadFile(filepath.Join(dir, "auxiliary", "summary.txt"))
	if err != nil {
		t.Fatalf("summary missing: %v", err)
	}
	if !strings.Contains(string(summary), "zero point: 0.25") {
		t.Fatalf("summary lacks zero point: %s", summary)
	}

	if err := m.SaveFinal(nil, freqs, 0); err == nil {
		t.Fatal("expected error for empty light curve list")
	}
}

func TestFluxMagnitudeConversion(t *testing.T) {
	// A flux of 9 on reference 1 is a factor-10 brightening: -2.5 mag.
	testutil.RequireNear(t, "mag", Flux2Mag(9, 1), -2.5, 1e-12)
	testutil.RequireNear(t, "mag at zero", Flux2Mag(0, 5), 0, 1e-12)

	want := 2.5 / math.Ln10 * 0.01 / 5
	testutil.RequireNear(t, "mag err", Flux2MagErr(0, 0.01, 5), want, 1e-12)
}
