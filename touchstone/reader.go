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

	"gonum.org/v1/gonum/mat"
)

var unitScale = map[string]float64{
	"ghz": 1e9,
	"mhz": 1e6,
	"khz": 1e3,
	"hz":  1,
}

// ReadFile reads an n-port touchstone file; the port count comes from the
// file extension.
func ReadFile(path string) (*File, error) {
	n, err := Ports(path)
	if err != nil {
		return nil, err
	}

	fd, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("touchstone: %w", err)
	}
	defer fd.Close()

	return Read(fd, n)
}

// Read parses touchstone content for a known port count. Option line fields
// default to Hz, S-parameters, MA format and 50 ohm when absent. Data may
// wrap across lines arbitrarily; one sample is the frequency followed by
// 2*n*n values in row-major entry order.
func Read(r io.Reader, ports int) (*File, error) {
	if ports < 1 {
		return nil, fmt.Errorf("%w: port count %d", ErrData, ports)
	}

	f := &File{
		Type:      "S",
		Format:    FormatMA,
		Impedance: defaultImpedance,
	}
	scale := 1.0
	headerSeen := false

	var values []float64

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := sc.Text()

		// strip comments, keeping any data before the marker
		if i := strings.IndexByte(line, '!'); i >= 0 {
			if c := strings.TrimSpace(line[i+1:]); c != "" {
				f.Comments = append(f.Comments, c)
			}
			line = line[:i]
		}

		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}

		if strings.HasPrefix(fields[0], "#") {
			if headerSeen {
				return nil, fmt.Errorf("%w: repeated option line %d", ErrHeader, lineNo)
			}
			headerSeen = true
			if err := parseOptions(fields[1:], f, &scale); err != nil {
				return nil, err
			}
			continue
		}

		for _, tok := range fields {
			v, err := strconv.ParseFloat(tok, 64)
			if err != nil {
				return nil, fmt.Errorf("%w: %q on line %d", ErrData, tok, lineNo)
			}
			values = append(values, v)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("touchstone: %w", err)
	}

	perSample := 1 + 2*ports*ports
	if len(values) == 0 {
		return nil, fmt.Errorf("%w: no data", ErrData)
	}
	if len(values)%perSample != 0 {
		return nil, fmt.Errorf("%w: %d values do not divide into %d-port samples", ErrData, len(values), ports)
	}

	for off := 0; off < len(values); off += perSample {
		f.Freqs = append(f.Freqs, values[off]*scale)

		m := mat.NewCDense(ports, ports, nil)
		for k := 0; k < ports*ports; k++ {
			a := values[off+1+2*k]
			b := values[off+2+2*k]
			m.Set(k/ports, k%ports, fromPair(f.Format, a, b))
		}
		f.Data = append(f.Data, m)
	}

	return f, nil
}

// parseOptions scans the option line tokens in any order: a frequency unit,
// a parameter type letter, a data format, and "R" followed by the reference
// impedance.
func parseOptions(tokens []string, f *File, scale *float64) error {
	for i := 0; i < len(tokens); i++ {
		tok := strings.ToLower(tokens[i])
		switch {
		case tok == "":
			continue
		case unitScale[tok] != 0:
			*scale = unitScale[tok]
		case tok == "ma" || tok == "db" || tok == "ri":
			format, err := ParseFormat(tok)
			if err != nil {
				return err
			}
			f.Format = format
		case tok == "s" || tok == "z" || tok == "y" || tok == "g" || tok == "h":
			f.Type = strings.ToUpper(tok)
		case tok == "r":
			if i+1 >= len(tokens) {
				return fmt.Errorf("%w: R without impedance", ErrHeader)
			}
			z, err := strconv.ParseFloat(tokens[i+1], 64)
			if err != nil {
				return fmt.Errorf("%w: impedance %q", ErrHeader, tokens[i+1])
			}
			f.Impedance = z
			i++
		default:
			return fmt.Errorf("%w: unknown token %q", ErrHeader, tokens[i])
		}
	}
	return nil
}

func fromPair(format Format, a, b float64) complex128 {
	switch format {
	case FormatRI:
		return complex(a, b)
	case FormatDB:
		return cmplx.Rect(math.Pow(10, a/20), b*math.Pi/180)
	default:
		return cmplx.Rect(a, b*math.Pi/180)
	}
}
