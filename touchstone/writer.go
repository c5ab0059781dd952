package touchstone

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"math/cmplx"
	"os"
	"strconv"
	"strings"
)

// WriteFile writes the file to path. The extension must match the parameter
// type and port count, as in "filter.s2p" for a 2-port S-parameter file.
func (f *File) WriteFile(path string) error {
	n, err := f.ports()
	if err != nil {
		return err
	}
	t, err := f.typeLetter()
	if err != nil {
		return err
	}

	want := fmt.Sprintf(".%s%dp", strings.ToLower(t), n)
	if !strings.HasSuffix(strings.ToLower(path), want) {
		return fmt.Errorf("%w: want suffix %q", ErrExtension, want)
	}

	fd, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("touchstone: %w", err)
	}
	if err := f.Write(fd); err != nil {
		fd.Close()
		return err
	}
	if err := fd.Close(); err != nil {
		return fmt.Errorf("touchstone: %w", err)
	}
	return nil
}

// Write emits the option line, the comments, and one sample block per
// frequency. Frequencies are written in Hz. Matrices with more than two
// ports wrap each matrix row after four complex values; smaller matrices
// share the frequency line.
func (f *File) Write(w io.Writer) error {
	n, err := f.ports()
	if err != nil {
		return err
	}
	t, err := f.typeLetter()
	if err != nil {
		return err
	}

	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "# Hz %s %s R %s", t, f.Format, ftoa(f.Impedance))
	for _, c := range f.Comments {
		fmt.Fprintf(bw, "\n! %s", c)
	}
	bw.WriteString("\n\n\n")

	for s, freq := range f.Freqs {
		bw.WriteString(ftoa(freq))
		bw.WriteString("   ")

		m := f.Data[s]
		written := 0
		for i := 0; i < n; i++ {
			for j := 0; j < n; j++ {
				a, b := f.toPair(m.At(i, j))
				bw.WriteString(ftoa(a))
				bw.WriteString("   ")
				bw.WriteString(ftoa(b))

				written++
				last := i == n-1 && j == n-1
				wrap := n > 2 && j == n-1 // end of a matrix row
				if !wrap && written%4 != 0 && !last {
					bw.WriteString("   ")
					continue
				}
				bw.WriteByte('\n')
				if wrap {
					written = 0
				}
			}
		}
	}

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("touchstone: %w", err)
	}
	return nil
}

func (f *File) toPair(v complex128) (a, b float64) {
	switch f.Format {
	case FormatRI:
		return real(v), imag(v)
	case FormatDB:
		return 20 * math.Log10(cmplx.Abs(v)), cmplx.Phase(v) * 180 / math.Pi
	default:
		return cmplx.Abs(v), cmplx.Phase(v) * 180 / math.Pi
	}
}

func ftoa(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
