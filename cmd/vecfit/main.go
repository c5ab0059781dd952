// Command vecfit fits rational pole-residue models to touchstone network
// data and reports the fit quality.
//
// Usage:
//
//	vecfit [flags] input.s2p
//
// Examples:
//
//	vecfit -pairs 6 -const filter.s2p
//	vecfit -smart -tol 1e-5 -steps 30 coupler.s4p
//	vecfit -mode relax -const -slope -out fit.s2p measured.s2p
//	vecfit -autoreduce -passivity amplifier.s2p
package main

import (
	"flag"
	"fmt"
	"math"
	"os"
	"text/tabwriter"

	"gonum.org/v1/gonum/mat"

	"github.com/cwbudde/algo-vecfit/rational"
	"github.com/cwbudde/algo-vecfit/touchstone"
	"github.com/cwbudde/algo-vecfit/vecfit"
)

func main() {
	realPoles := flag.Int("real", 0, "number of initial real poles")
	pairs := flag.Int("pairs", 0, "number of initial conjugate pole pairs")
	mode := flag.String("mode", "fast_relax", "pole relocation mode: fast_relax, relax or standard")
	weighting := flag.String("weighting", "inverse_magnitude", "relaxation weighting: inverse_magnitude or uniform")
	fitConst := flag.Bool("const", false, "fit a constant term")
	fitSlope := flag.Bool("slope", false, "fit a linear frequency term")
	fitOrigin := flag.Bool("origin", false, "fit a pole at the origin")
	smart := flag.Bool("smart", false, "derive the initial pole set from the data")
	autoreduce := flag.Bool("autoreduce", false, "discard weak pole groups after convergence")
	margin := flag.Float64("margin", 1, "error headroom factor for -autoreduce")
	tol := flag.Float64("tol", 1e-3, "convergence tolerance on the max relative error")
	steps := flag.Int("steps", 5, "pole relocation step limit")
	debug := flag.Bool("debug", false, "trace the iteration on stderr")
	out := flag.String("out", "", "write the fitted model sampled on the input grid to this touchstone file")
	passivity := flag.Bool("passivity", false, "report stability and the passivity margin")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: vecfit [flags] input.snp\n\n")
		fmt.Fprintf(os.Stderr, "Fits a stable rational pole-residue model to touchstone data.\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  vecfit -pairs 6 -const filter.s2p\n")
		fmt.Fprintf(os.Stderr, "  vecfit -smart -tol 1e-5 -steps 30 coupler.s4p\n")
		fmt.Fprintf(os.Stderr, "  vecfit -mode relax -const -slope -out fit.s2p measured.s2p\n")
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(1)
	}
	path := flag.Arg(0)

	data, err := touchstone.ReadFile(path)
	if err != nil {
		fail(err)
	}

	cfg := vecfit.Config{
		RealPoles:    *realPoles,
		CpxPairs:     *pairs,
		FitConstant:  *fitConst,
		FitSlope:     *fitSlope,
		FitOrigin:    *fitOrigin,
		Smart:        *smart,
		Autoreduce:   *autoreduce,
		ReduceMargin: *margin,
		Tolerance:    *tol,
		MaxSteps:     *steps,
	}
	if cfg.Mode, err = vecfit.ParseMode(*mode); err != nil {
		fail(err)
	}
	if cfg.Weighting, err = vecfit.ParseWeighting(*weighting); err != nil {
		fail(err)
	}
	if *debug {
		cfg.Trace = func(step, nre, ncp int, errMean, errMax float64) {
			fmt.Fprintf(os.Stderr, "step %d: %d real + %d pairs, mean %.3e, max %.3e\n",
				step, nre, ncp, errMean, errMax)
		}
	}

	res, err := vecfit.Fit(data.Freqs, data.Data, cfg)
	if err != nil {
		fail(err)
	}

	printSummary(path, res)

	if *passivity {
		printPassivity(res.Model, data.Freqs)
	}

	if *out != "" {
		if err := writeFit(*out, data, res); err != nil {
			fail(err)
		}
		fmt.Printf("\nwrote %s\n", *out)
	}
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}

func printSummary(path string, res *vecfit.Result) {
	rows, cols := res.Model.Dims()

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "input\t%s (%dx%d)\n", path, rows, cols)
	fmt.Fprintf(tw, "status\t%s after %d steps\n", res.Status, res.Steps)
	fmt.Fprintf(tw, "order\t%d (%d real + %d pairs)\n",
		res.RealPoles+2*res.CpxPairs, res.RealPoles, res.CpxPairs)
	fmt.Fprintf(tw, "error\tmax %.3e, mean %.3e\n", res.ErrMax, res.ErrMean)
	if res.IllConditioned {
		fmt.Fprintf(tw, "note\tan ill-conditioned solve fell back to the minimum-norm solution\n")
	}
	tw.Flush()

	fmt.Println()
	tw = tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "pole\tRe [rad/s]\tIm [rad/s]\t|R|\n")
	fmt.Fprintf(tw, "----\t---------\t---------\t---\n")
	residues := res.Model.Residues()
	for i, p := range res.Model.Poles() {
		fmt.Fprintf(tw, "%d\t%.6e\t%.6e\t%.3e\n", i, real(p), imag(p), frobNorm(residues[i]))
	}
	tw.Flush()
}

// frobNorm is the Frobenius norm of a complex matrix.
func frobNorm(m *mat.CDense) float64 {
	r, c := m.Dims()
	var sum float64
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			v := m.At(i, j)
			sum += real(v)*real(v) + imag(v)*imag(v)
		}
	}
	return math.Sqrt(sum)
}

func printPassivity(model *rational.TransferFunction, freqs []float64) {
	rep, err := model.Passivity(freqs)
	if err != nil {
		fail(err)
	}

	fmt.Println()
	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "stable\t%v\n", rep.Stable)
	fmt.Fprintf(tw, "passive\t%v\n", rep.Passive)
	fmt.Fprintf(tw, "margin\t%.3e\n", rep.Margin())
	tw.Flush()
}

func writeFit(path string, src *touchstone.File, res *vecfit.Result) error {
	out := &touchstone.File{
		Freqs:     src.Freqs,
		Data:      res.Model.EvaluateBand(src.Freqs),
		Type:      src.Type,
		Format:    src.Format,
		Impedance: src.Impedance,
		Comments: []string{
			fmt.Sprintf("rational fit: %d poles, max error %.3e", res.RealPoles+2*res.CpxPairs, res.ErrMax),
		},
	}
	return out.WriteFile(path)
}
