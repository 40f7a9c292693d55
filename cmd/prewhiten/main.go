// Command prewhiten extracts sinusoidal components from an unevenly sampled
// time series by iterative pre-whitening.
//
// Usage:
//
//	prewhiten [flags] datafile
//
// The data file holds whitespace-separated columns: time, value and an
// optional weight per line. Lines starting with '#' are skipped.
//
// Examples:
//
//	prewhiten lightcurve.txt
//	prewhiten -config pw.yaml -out results lightcurve.txt
//	prewhiten -method highest -max 10 -v lightcurve.txt
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/rs/zerolog"

	"github.com/cwbudde/algo-prewhiten/config"
	"github.com/cwbudde/algo-prewhiten/output"
	"github.com/cwbudde/algo-prewhiten/prewhiten"
)

func main() {
	configPath := flag.String("config", "", "YAML configuration file")
	outDir := flag.String("out", "", "output directory (enables result files)")
	maxIter := flag.Int("max", 0, "override cutoff iteration count (0 keeps configured value)")
	method := flag.String("method", "", "override peak selection method (highest, poly, slf)")
	verbose := flag.Bool("v", false, "verbose logging")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: prewhiten [flags] datafile\n\n")
		fmt.Fprintf(os.Stderr, "Extracts sinusoidal components from a time series by iterative pre-whitening.\n")
		fmt.Fprintf(os.Stderr, "The data file holds whitespace-separated time/value[/weight] columns.\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  prewhiten lightcurve.txt\n")
		fmt.Fprintf(os.Stderr, "  prewhiten -config pw.yaml -out results lightcurve.txt\n")
		fmt.Fprintf(os.Stderr, "  prewhiten -method highest -max 10 -v lightcurve.txt\n")
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	level := zerolog.WarnLevel
	if *verbose {
		level = zerolog.DebugLevel
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level).With().Timestamp().Logger()

	overrides := map[string]any{}
	if *outDir != "" {
		overrides["output.enabled"] = true
		overrides["output.dir"] = *outDir
	}
	if *maxIter > 0 {
		overrides["autopw.cutoff_iteration"] = *maxIter
	}
	if *method != "" {
		overrides["autopw.peak_selection_method"] = *method
	}

	cfg, err := config.Load(*configPath, overrides)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	time, value, weight, err := readSeries(flag.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	c, err := prewhiten.New(time, value, weight, cfg, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	if cfg.Output.Enabled {
		mgr, err := output.NewManager(cfg.Output, logger)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		c.SetSink(mgr)
	}

	if err := c.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	printFrequencies(c)
}

// readSeries parses whitespace-separated time/value[/weight] columns.
// Returns a nil weight slice when no line carries a third column.
func readSeries(path string) (time, value, weight []float64, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, nil, err
	}
	defer f.Close()

	hasWeight := false
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 1024*1024), 1024*1024)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		fields := strings.Fields(text)
		if len(fields) < 2 {
			return nil, nil, nil, fmt.Errorf("%s:%d: need at least 2 columns", path, line)
		}
		t, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("%s:%d: bad time %q", path, line, fields[0])
		}
		v, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("%s:%d: bad value %q", path, line, fields[1])
		}
		w := 1.0
		if len(fields) >= 3 {
			w, err = strconv.ParseFloat(fields[2], 64)
			if err != nil {
				return nil, nil, nil, fmt.Errorf("%s:%d: bad weight %q", path, line, fields[2])
			}
			hasWeight = true
		}
		time = append(time, t)
		value = append(value, v)
		weight = append(weight, w)
	}
	if err := sc.Err(); err != nil {
		return nil, nil, nil, err
	}
	if !hasWeight {
		weight = nil
	}
	return time, value, weight, nil
}

func printFrequencies(c *prewhiten.Controller) {
	freqs := c.Frequencies().Frequencies()
	if len(freqs) == 0 {
		fmt.Println("no significant components found")
		return
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "#\tFreq\t+/-\tAmp\t+/-\tPhase\t+/-\tSig(box)\tSig(poly)\tSig(slf)\n")
	fmt.Fprintf(tw, "-\t----\t---\t---\t---\t-----\t---\t--------\t---------\t--------\n")
	for _, fr := range freqs {
		fmt.Fprintf(tw, "%d\t%.6f\t%.6f\t%.5f\t%.5f\t%.4f\t%.4f\t%.1f\t%.1f\t%.1f\n",
			fr.Index,
			fr.Freq, fr.SigmaFreq,
			fr.Amp, fr.SigmaAmp,
			fr.Phase, fr.SigmaPhase,
			fr.SigBox, fr.SigPoly, fr.SigSLF)
	}
	if err := tw.Flush(); err != nil {
		fmt.Fprintf(os.Stderr, "error: failed to flush output: %v\n", err)
	}
	fmt.Printf("\nzero point: %.6g  residual stddev: %.6g  iterations: %d\n",
		c.ZeroPoint(), c.Current().StdDev(), c.Iteration())
}
