package vecfit

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func BenchmarkFit(b *testing.B) {
	freqs := linspace(1, 1000, 200)
	p1 := complex(-60, 2*math.Pi*200)
	p2 := complex(-150, 2*math.Pi*450)
	p3 := complex(-300, 2*math.Pi*800)
	r := [][]complex128{
		{4 + 1i, 0.5 - 0.2i, 0.5 - 0.2i, 3},
		{1 - 2i, 0.3i, 0.3i, 2 + 1i},
		{2, -0.4 + 0.1i, -0.4 + 0.1i, 1 + 1i},
	}
	poles := []complex128{p1, p2, p3}

	data := make([]*mat.CDense, len(freqs))
	for n, f := range freqs {
		s := complex(0, 2*math.Pi*f)
		m := mat.NewCDense(2, 2, nil)
		for k := 0; k < 4; k++ {
			h := complex(0.2, 0)
			for i, p := range poles {
				rc := r[i][k]
				h += rc/(s-p) + complex(real(rc), -imag(rc))/(s-complex(real(p), -imag(p)))
			}
			m.Set(k/2, k%2, h)
		}
		data[n] = m
	}

	for _, mode := range []Mode{ModeFastRelax, ModeRelax, ModeStandard} {
		b.Run(mode.String(), func(b *testing.B) {
			cfg := Config{
				CpxPairs:    3,
				Mode:        mode,
				FitConstant: true,
				Tolerance:   1e-9,
				MaxSteps:    10,
			}

			b.ReportAllocs()
			b.ResetTimer()

			for range b.N {
				if _, err := Fit(freqs, data, cfg); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

func BenchmarkSolveSigma(b *testing.B) {
	freqs := linspace(1, 1000, 400)
	omega := make([]float64, len(freqs))
	for n, f := range freqs {
		omega[n] = 2 * math.Pi * f / 1000
	}

	truth := &poleSet{cpx: []complex128{-0.3 + 1.5i, -0.8 + 4i}}
	h := synthNormalized(omega, truth, nil, []complex128{2 + 1i, -1 + 0.5i}, 0.4)
	ds, err := newDataset(freqs, scalarMats(h))
	if err != nil {
		b.Fatal(err)
	}

	ps := spreadPoles(ds.omegaMax(), 2, 4)

	for _, mode := range []Mode{ModeFastRelax, ModeRelax, ModeStandard} {
		b.Run(mode.String(), func(b *testing.B) {
			cfg := &Config{Mode: mode}

			b.ReportAllocs()
			b.ResetTimer()

			for range b.N {
				if _, err := solveSigma(ds, ps, termSet{constant: true}, cfg); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}
