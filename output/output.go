// Package output persists pre-whitening results to a directory tree.
//
// A Manager implements the controller's sink: per-iteration residual light
// curves and periodograms as plain-text columns, plus a final frequency
// table in CSV and LaTeX form and a run summary.
package output

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/cwbudde/algo-prewhiten/config"
	"github.com/cwbudde/algo-prewhiten/lightcurve"
	"github.com/cwbudde/algo-prewhiten/sinusoid"
)

// Subdirectories of the output tree.
const (
	dirLightcurves  = "lightcurves"
	dirPeriodograms = "periodograms"
	dirAuxiliary    = "auxiliary"
)

// Manager writes analysis products under a single output directory.
type Manager struct {
	dir     string
	refFlux float64
	inMag   bool
	log     zerolog.Logger
}

// NewManager creates the output directory tree.
func NewManager(cfg config.Output, logger zerolog.Logger) (*Manager, error) {
	if cfg.Dir == "" {
		return nil, fmt.Errorf("output: empty directory")
	}
	if cfg.InMagnitudes && cfg.ReferenceFlux <= 0 {
		return nil, fmt.Errorf("output: magnitude conversion needs a positive reference flux, got %g", cfg.ReferenceFlux)
	}
	for _, sub := range []string{dirLightcurves, dirPeriodograms, dirAuxiliary} {
		if err := os.MkdirAll(filepath.Join(cfg.Dir, sub), 0o755); err != nil {
			return nil, fmt.Errorf("output: create %s: %w", sub, err)
		}
	}
	return &Manager{
		dir:     cfg.Dir,
		refFlux: cfg.ReferenceFlux,
		inMag:   cfg.InMagnitudes,
		log:     logger,
	}, nil
}

// Dir returns the root of the output tree.
func (m *Manager) Dir() string { return m.dir }

// SaveIteration dumps the residual light curve and its periodogram for one
// completed iteration.
func (m *Manager) SaveIteration(iteration int, lc *lightcurve.Lightcurve, freqs *sinusoid.Container, zeroPoint float64) error {
	name := fmt.Sprintf("iteration_%03d.txt", iteration)
	if err := m.writeLightcurve(filepath.Join(m.dir, dirLightcurves, name), lc); err != nil {
		return err
	}
	if err := m.writePeriodogram(filepath.Join(m.dir, dirPeriodograms, name), lc); err != nil {
		return err
	}
	m.log.Debug().Int("iteration", iteration).Int("components", freqs.Len()).
		Float64("zero_point", zeroPoint).Msg("iteration saved")
	return nil
}

// SaveFinal writes the frequency table (CSV and LaTeX), the final residual
// products, and the run summary.
func (m *Manager) SaveFinal(lcs []*lightcurve.Lightcurve, freqs *sinusoid.Container, zeroPoint float64) error {
	if len(lcs) == 0 {
		return fmt.Errorf("output: no light curves to save")
	}
	final := lcs[len(lcs)-1]

	if err := m.writeLightcurve(filepath.Join(m.dir, dirLightcurves, "final.txt"), final); err != nil {
		return err
	}
	if err := m.writePeriodogram(filepath.Join(m.dir, dirPeriodograms, "final.txt"), final); err != nil {
		return err
	}
	if err := m.writeFrequencyCSV(filepath.Join(m.dir, "frequencies.csv"), freqs); err != nil {
		return err
	}
	if err := m.writeFrequencyLaTeX(filepath.Join(m.dir, "frequencies.tex"), freqs); err != nil {
		return err
	}
	if err := m.writeSummary(filepath.Join(m.dir, dirAuxiliary, "summary.txt"), lcs, freqs, zeroPoint); err != nil {
		return err
	}
	m.log.Info().Str("dir", m.dir).Int("components", freqs.Len()).Msg("final results saved")
	return nil
}

// writeFile runs fn against a freshly created file and closes it exactly
// once, reporting the close error for successful writes.
func writeFile(path string, fn func(w io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("output: %w", err)
	}
	if err := fn(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("output: %w", err)
	}
	return nil
}

// writeLightcurve dumps time/value/weight columns. With magnitude output
// enabled, values are converted against the reference flux.
func (m *Manager) writeLightcurve(path string, lc *lightcurve.Lightcurve) error {
	return writeFile(path, func(w io.Writer) error {
		time, value, weight := lc.Time(), lc.Value(), lc.Weight()
		for i := range time {
			v := value[i]
			if m.inMag {
				v = Flux2Mag(v, m.refFlux)
			}
			if _, err := fmt.Fprintf(w, "%s %s %s\n", ftoa(time[i]), ftoa(v), ftoa(weight[i])); err != nil {
				return fmt.Errorf("output: %w", err)
			}
		}
		return nil
	})
}

func (m *Manager) writePeriodogram(path string, lc *lightcurve.Lightcurve) error {
	return writeFile(path, func(w io.Writer) error {
		pg := lc.Periodogram()
		grid, amp := pg.Grid(), pg.Amp()
		for i := range grid {
			if _, err := fmt.Fprintf(w, "%s %s\n", ftoa(grid[i]), ftoa(amp[i])); err != nil {
				return fmt.Errorf("output: %w", err)
			}
		}
		return nil
	})
}

var csvHeader = []string{
	"index", "freq", "freq_err", "amp", "amp_err", "phase", "phase_err",
	"sig_box", "sig_poly", "sig_slf",
}

func (m *Manager) writeFrequencyCSV(path string, freqs *sinusoid.Container) error {
	return writeFile(path, func(w io.Writer) error {
		cw := csv.NewWriter(w)
		if err := cw.Write(csvHeader); err != nil {
			return fmt.Errorf("output: %w", err)
		}
		for _, fr := range freqs.Frequencies() {
			rec := []string{
				strconv.Itoa(fr.Index),
				ftoa(fr.Freq), ftoa(fr.SigmaFreq),
				ftoa(fr.Amp), ftoa(fr.SigmaAmp),
				ftoa(fr.Phase), ftoa(fr.SigmaPhase),
				ftoa(fr.SigBox), ftoa(fr.SigPoly), ftoa(fr.SigSLF),
			}
			if err := cw.Write(rec); err != nil {
				return fmt.Errorf("output: %w", err)
			}
		}
		cw.Flush()
		if err := cw.Error(); err != nil {
			return fmt.Errorf("output: %w", err)
		}
		return nil
	})
}

func (m *Manager) writeFrequencyLaTeX(path string, freqs *sinusoid.Container) error {
	return writeFile(path, func(w io.Writer) error {
		fmt.Fprintln(w, `\begin{tabular}{rcccccc}`)
		fmt.Fprintln(w, `\hline`)
		fmt.Fprintln(w, `$i$ & $f$ & $A$ & $\phi$ & $\sigma_{\mathrm{box}}$ & $\sigma_{\mathrm{poly}}$ & $\sigma_{\mathrm{slf}}$ \\`)
		fmt.Fprintln(w, `\hline`)
		for _, fr := range freqs.Frequencies() {
			fmt.Fprintf(w, "%d & $%.6f \\pm %.6f$ & $%.5f \\pm %.5f$ & $%.4f \\pm %.4f$ & %.1f & %.1f & %.1f \\\\\n",
				fr.Index,
				fr.Freq, fr.SigmaFreq,
				fr.Amp, fr.SigmaAmp,
				fr.Phase, fr.SigmaPhase,
				fr.SigBox, fr.SigPoly, fr.SigSLF)
		}
		fmt.Fprintln(w, `\hline`)
		_, err := fmt.Fprintln(w, `\end{tabular}`)
		return err
	})
}

func (m *Manager) writeSummary(path string, lcs []*lightcurve.Lightcurve, freqs *sinusoid.Container, zeroPoint float64) error {
	return writeFile(path, func(w io.Writer) error {
		final := lcs[len(lcs)-1]
		fmt.Fprintf(w, "iterations: %d\n", len(lcs)-1)
		fmt.Fprintf(w, "components: %d\n", freqs.Len())
		fmt.Fprintf(w, "zero point: %s\n", ftoa(zeroPoint))
		fmt.Fprintf(w, "residual stddev: %s\n", ftoa(final.StdDev()))
		fmt.Fprintf(w, "time baseline: %s\n", ftoa(final.Baseline()))
		_, err := fmt.Fprintf(w, "points: %d (effective %d)\n", final.N(), final.EffectiveN())
		return err
	})
}

func ftoa(v float64) string {
	return strconv.FormatFloat(v, 'g', 10, 64)
}

// Flux2Mag converts a differential flux about zero into a differential
// magnitude against the reference flux.
func Flux2Mag(x, ref float64) float64 {
	return -2.5 * math.Log10(1+x/ref)
}

// Flux2MagErr propagates a flux uncertainty through Flux2Mag.
func Flux2MagErr(x, err, ref float64) float64 {
	return 2.5 / math.Ln10 * err / (ref + x)
}
