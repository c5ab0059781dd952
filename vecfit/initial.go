package vecfit

import (
	"math"
	"sort"

	"github.com/cwbudde/algo-vecfit/internal/cvec"
)

// initialPoles builds the starting pole set on the normalized axis. The
// default layout spreads lightly damped pairs across the band; smart mode
// reads the pole configuration out of the data instead.
func initialPoles(ds *dataset, cfg *Config) *poleSet {
	if cfg.Smart {
		return smartPoles(ds)
	}
	return spreadPoles(ds.omegaMax(), cfg.RealPoles, cfg.CpxPairs)
}

// spreadPoles distributes pair primaries over the band with 1% relative
// damping and real poles with somewhat heavier damping, the usual starting
// layout for iterative pole relocation.
func spreadPoles(omegaMax float64, nre, ncp int) *poleSet {
	ps := &poleSet{}
	for _, w := range linspace(omegaMax/100, omegaMax, ncp) {
		ps.cpx = append(ps.cpx, complex(-w/100, w))
	}
	for _, w := range linspace(omegaMax/75, omegaMax, nre) {
		ps.real = append(ps.real, -w/50)
	}
	return ps
}

// smartPoles derives the initial configuration from the data: one lightly
// damped pair per magnitude maximum, and enough real poles to cover the
// 90-degree phase transitions the pairs do not account for.
func smartPoles(ds *dataset) *poleSet {
	seen := make([]bool, ds.samples())
	var peaks []int
	for k := 0; k < ds.numEntries(); k++ {
		mags := cvec.Magnitude(ds.entries[k])
		for _, i := range cvec.LocalMaxima(mags) {
			if !seen[i] {
				seen[i] = true
				peaks = append(peaks, i)
			}
		}
	}
	sort.Ints(peaks)

	ps := &poleSet{}
	for _, i := range peaks {
		w := ds.omega[i]
		ps.cpx = append(ps.cpx, complex(-w/100, w))
	}

	var transitions float64
	for k := 0; k < ds.numEntries(); k++ {
		phase := cvec.Phase(ds.entries[k])
		for i, p := range phase {
			phase[i] = p * 180 / math.Pi
		}
		unwrapped := cvec.UnwrapPhase(phase, 360)
		for _, p := range unwrapped {
			if t := math.Abs(p-unwrapped[0]) / 90; t > transitions {
				transitions = t
			}
		}
	}

	nre := max(int(transitions)-len(ps.cpx), 1)
	for _, w := range linspace(1, ds.omegaMax(), nre) {
		ps.real = append(ps.real, -w/50)
	}
	return ps
}

func linspace(start, stop float64, n int) []float64 {
	out := make([]float64, n)
	if n == 0 {
		return out
	}
	if n == 1 {
		out[0] = start
		return out
	}
	step := (stop - start) / float64(n-1)
	for i := range out {
		out[i] = start + float64(i)*step
	}
	return out
}
