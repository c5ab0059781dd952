// Package rational represents matrix-valued transfer functions in
// pole-residue form and evaluates them in the frequency and time domains.
//
// A model is the sum of a constant term, an optional linear term, an
// optional pole at the origin, and a partial-fraction expansion over a
// common pole set:
//
//	H(s) = D + s*E + Z/s + sum_k R_k / (s - p_k)
//
// Complex poles come in conjugate pairs with conjugate residue matrices, so
// the corresponding time-domain response is real. The constructor enforces
// that structure; models that satisfy it can be checked for passivity and
// converted to sampled impulse responses, either analytically or through an
// FFT of the sampled spectrum.
//
// Basic usage:
//
//	tf, err := rational.New(poles, residues, rational.WithConstant(d))
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	h := tf.EvaluateFreq(1e3) // H at 1 kHz
//
//	report, err := tf.Passivity(freqs)
//	if err != nil {
//		log.Fatal(err)
//	}
//	fmt.Println(report.Passive, report.Margin())
package rational
