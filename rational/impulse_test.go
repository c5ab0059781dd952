package rational

import (
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/cwbudde/algo-vecfit/internal/testutil"
)

func TestImpulseResponseRealPole(t *testing.T) {
	// H(s) = 3/(s+2): h(t) = 3*exp(-2t).
	tf, err := New([]complex128{-2}, []*mat.CDense{cd(3)})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	const fs = 10.0
	h, err := tf.ImpulseResponse(fs, 4)
	if err != nil {
		t.Fatalf("ImpulseResponse() error = %v", err)
	}
	if len(h) != 4 {
		t.Fatalf("got %d samples, want 4", len(h))
	}

	for m, hm := range h {
		want := 3 * math.Exp(-2*float64(m)/fs)
		testutil.RequireNear(t, hm.At(0, 0), want, 1e-12)
	}
}

func TestImpulseResponsePair(t *testing.T) {
	// Pair p = -1 +/- 5i with residue 2 -/+ 1i:
	// h(t) = 2*exp(-t)*(2*cos(5t) + sin(5t)), real by construction.
	tf, err := New(
		[]complex128{complex(-1, 5), complex(-1, -5)},
		[]*mat.CDense{cd(complex(2, -1)), cd(complex(2, 1))})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	const fs = 50.0
	h, err := tf.ImpulseResponse(fs, 20)
	if err != nil {
		t.Fatalf("ImpulseResponse() error = %v", err)
	}

	for m, hm := range h {
		tm := float64(m) / fs
		want := 2 * math.Exp(-tm) * (2*math.Cos(5*tm) + math.Sin(5*tm))
		testutil.RequireNear(t, hm.At(0, 0), want, 1e-12)
	}
}

func TestImpulseResponseConstantAndOrigin(t *testing.T) {
	// H(s) = 0.5 + 2/s: delta scaled by the rate at t = 0, then a step.
	tf, err := New(nil, nil,
		WithConstant(mat.NewDense(1, 1, []float64{0.5})),
		WithOrigin(mat.NewDense(1, 1, []float64{2})))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	const fs = 100.0
	h, err := tf.ImpulseResponse(fs, 3)
	if err != nil {
		t.Fatalf("ImpulseResponse() error = %v", err)
	}

	testutil.RequireNear(t, h[0].At(0, 0), 0.5*fs+2, 1e-12)
	testutil.RequireNear(t, h[1].At(0, 0), 2, 1e-12)
	testutil.RequireNear(t, h[2].At(0, 0), 2, 1e-12)
}

func TestImpulseResponseSlopeUndefined(t *testing.T) {
	tf, err := New(nil, nil, WithSlope(mat.NewDense(1, 1, []float64{1})))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if _, err := tf.ImpulseResponse(100, 8); !errors.Is(err, ErrImpulseSlope) {
		t.Fatalf("ImpulseResponse() error = %v, want %v", err, ErrImpulseSlope)
	}
}

func TestImpulseResponseFFTOriginUndefined(t *testing.T) {
	tf, err := New(nil, nil, WithOrigin(mat.NewDense(1, 1, []float64{1})))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if _, err := tf.ImpulseResponseFFT(100, 8); !errors.Is(err, ErrImpulseOrigin) {
		t.Fatalf("ImpulseResponseFFT() error = %v, want %v", err, ErrImpulseOrigin)
	}
}

func TestImpulseResponseValidation(t *testing.T) {
	tf, err := New([]complex128{-2}, []*mat.CDense{cd(3)})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if _, err := tf.ImpulseResponse(0, 8); err == nil {
		t.Error("ImpulseResponse() with zero rate should fail")
	}
	if _, err := tf.ImpulseResponse(100, 0); err == nil {
		t.Error("ImpulseResponse() with zero samples should fail")
	}
	if _, err := tf.ImpulseResponseFFT(-1, 8); err == nil {
		t.Error("ImpulseResponseFFT() with negative rate should fail")
	}
	if _, err := tf.ImpulseResponseFFT(100, -1); err == nil {
		t.Error("ImpulseResponseFFT() with negative samples should fail")
	}
}

func TestImpulseResponseFFTMatchesAnalytic(t *testing.T) {
	// Fast-decaying pair plus a constant term. The window (512 samples at
	// 2 kHz) is long enough that wrap-around aliasing is negligible.
	tf, err := New(
		[]complex128{complex(-300, 2*math.Pi*40), complex(-300, -2*math.Pi*40)},
		[]*mat.CDense{cd(complex(1, -4)), cd(complex(1, 4))},
		WithConstant(mat.NewDense(1, 1, []float64{0.7})))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	const (
		fs      = 2000.0
		samples = 512
	)
	want, err := tf.ImpulseResponse(fs, samples)
	if err != nil {
		t.Fatalf("ImpulseResponse() error = %v", err)
	}
	got, err := tf.ImpulseResponseFFT(fs, samples)
	if err != nil {
		t.Fatalf("ImpulseResponseFFT() error = %v", err)
	}
	if len(got) != samples {
		t.Fatalf("got %d samples, want %d", len(got), samples)
	}

	// The spectral tail beyond Nyquist rings around the t = 0 jump, so the
	// first few samples differ between the two routes; later samples agree.
	var sum, max float64
	for m := 4; m < samples; m++ {
		d := math.Abs(got[m].At(0, 0) - want[m].At(0, 0))
		sum += d
		if d > max {
			max = d
		}
	}
	if max > 0.15 {
		t.Errorf("max deviation = %v, want <= 0.15", max)
	}
	if mean := sum / float64(samples-4); mean > 0.02 {
		t.Errorf("mean deviation = %v, want <= 0.02", mean)
	}

	// The delta contribution dominates the first sample on both routes.
	if got[0].At(0, 0) < 0.5*0.7*fs {
		t.Errorf("first sample = %v, expected the scaled delta to dominate", got[0].At(0, 0))
	}
}

func TestNextPowerOf2(t *testing.T) {
	tests := []struct {
		n, want int
	}{
		{0, 1},
		{1, 1},
		{2, 2},
		{3, 4},
		{512, 512},
		{513, 1024},
	}
	for _, tt := range tests {
		if got := nextPowerOf2(tt.n); got != tt.want {
			t.Errorf("nextPowerOf2(%d) = %d, want %d", tt.n, got, tt.want)
		}
	}
}
