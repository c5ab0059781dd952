package touchstone

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"
)

// Errors returned by touchstone functions.
var (
	ErrExtension = errors.New("touchstone: file extension must be .{s,z,y,g,h}<ports>p")
	ErrHeader    = errors.New("touchstone: malformed option line")
	ErrData      = errors.New("touchstone: malformed data")
)

// defaultImpedance is the reference impedance assumed when the option line
// omits it.
const defaultImpedance = 50

// Format selects how complex values are encoded as number pairs.
type Format int

const (
	// FormatMA stores magnitude and angle in degrees.
	FormatMA Format = iota

	// FormatDB stores magnitude in dB (20*log10) and angle in degrees.
	FormatDB

	// FormatRI stores real and imaginary parts.
	FormatRI
)

// String returns the format name as it appears on the option line.
func (f Format) String() string {
	switch f {
	case FormatMA:
		return "ma"
	case FormatDB:
		return "db"
	case FormatRI:
		return "ri"
	}
	return fmt.Sprintf("Format(%d)", int(f))
}

// ParseFormat converts an option line token to a Format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "ma":
		return FormatMA, nil
	case "db":
		return FormatDB, nil
	case "ri":
		return FormatRI, nil
	}
	return 0, fmt.Errorf("%w: unknown format %q", ErrHeader, s)
}

// File holds the contents of an n-port touchstone file: the frequency grid
// in Hz, one n-by-n parameter matrix per grid point, and the option line
// metadata.
type File struct {
	Freqs []float64
	Data  []*mat.CDense

	// Type is the parameter type letter from the option line: S, Z, Y, G
	// or H.
	Type string

	Format Format

	// Impedance is the reference impedance from the option line.
	Impedance float64

	// Comments collects the text of the '!' comment lines.
	Comments []string
}

// Ports returns the port count encoded in the file extension, as in
// "filter.s2p".
func Ports(path string) (int, error) {
	ext := path
	if i := strings.LastIndexByte(path, '.'); i >= 0 {
		ext = path[i+1:]
	} else {
		return 0, ErrExtension
	}

	ext = strings.ToLower(ext)
	if len(ext) < 3 || ext[len(ext)-1] != 'p' || !strings.ContainsRune("szygh", rune(ext[0])) {
		return 0, ErrExtension
	}

	n, err := strconv.Atoi(ext[1 : len(ext)-1])
	if err != nil || n < 1 {
		return 0, ErrExtension
	}
	return n, nil
}

// IsTouchstone reports whether the path carries a touchstone extension.
func IsTouchstone(path string) bool {
	_, err := Ports(path)
	return err == nil
}

// ports derives the count from the stored matrices.
func (f *File) ports() (int, error) {
	if len(f.Freqs) == 0 || len(f.Freqs) != len(f.Data) {
		return 0, fmt.Errorf("%w: %d frequencies but %d matrices", ErrData, len(f.Freqs), len(f.Data))
	}
	n, c := f.Data[0].Dims()
	if n != c {
		return 0, fmt.Errorf("%w: matrices must be square, got %dx%d", ErrData, n, c)
	}
	for i, m := range f.Data {
		if r, cc := m.Dims(); r != n || cc != n {
			return 0, fmt.Errorf("%w: matrix %d is %dx%d, want %dx%d", ErrData, i, r, cc, n, n)
		}
	}
	return n, nil
}

func (f *File) typeLetter() (string, error) {
	t := strings.ToUpper(f.Type)
	if t == "" {
		t = "S"
	}
	if len(t) != 1 || !strings.Contains("SZYGH", t) {
		return "", fmt.Errorf("%w: parameter type %q", ErrData, f.Type)
	}
	return t, nil
}
