// Package touchstone reads and writes n-port touchstone files
// (.s2p, .z4p and friends) carrying frequency-domain network parameters.
//
// The reader understands the '#' option line (frequency unit, parameter
// type, MA/DB/RI number format, reference impedance), '!' comments, and
// arbitrary line wrapping of the sample values. Fields missing from the
// option line default to Hz, S-parameters, MA and 50 ohm. Matrices fill in
// row-major entry order for every port count.
//
// # Usage
//
//	f, err := touchstone.ReadFile("filter.s2p")
//	if err != nil {
//	    // ...
//	}
//	res, err := vecfit.Fit(f.Freqs, f.Data, cfg)
//
// The writer emits frequencies in Hz with one sample block per grid point;
// File.WriteFile enforces the extension convention.
package touchstone
