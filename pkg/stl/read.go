package stl

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"

	"github.com/chazu/relief/pkg/kernel"
)

// ParseError reports a malformed line in an ASCII STL stream.
type ParseError struct {
	Line    int
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("stl: line %d: %s", e.Line, e.Message)
}

// Read decodes an ASCII STL stream. Facet normals are ignored; the returned
// mesh carries the solid name and the triangles in file order.
func Read(r io.Reader) (*kernel.Mesh, error) {
	p := &parser{sc: bufio.NewScanner(r)}
	p.sc.Buffer(make([]byte, 64*1024), 1024*1024)
	return p.parse()
}

type parser struct {
	sc   *bufio.Scanner
	line int
}

// next returns the fields of the next non-blank line.
func (p *parser) next() ([]string, error) {
	for p.sc.Scan() {
		p.line++
		fields := strings.Fields(p.sc.Text())
		if len(fields) > 0 {
			return fields, nil
		}
	}
	if err := p.sc.Err(); err != nil {
		return nil, fmt.Errorf("stl: read: %w", err)
	}
	return nil, io.ErrUnexpectedEOF
}

func (p *parser) fail(format string, args ...any) error {
	return &ParseError{Line: p.line, Message: fmt.Sprintf(format, args...)}
}

func (p *parser) expect(words ...string) ([]string, error) {
	fields, err := p.next()
	if err != nil {
		return nil, err
	}
	if len(fields) < len(words) {
		return nil, p.fail("expected %q, got %q", strings.Join(words, " "), strings.Join(fields, " "))
	}
	for i, w := range words {
		if fields[i] != w {
			return nil, p.fail("expected %q, got %q", strings.Join(words, " "), strings.Join(fields, " "))
		}
	}
	return fields[len(words):], nil
}

func (p *parser) parse() (*kernel.Mesh, error) {
	rest, err := p.expect("solid")
	if err != nil {
		return nil, err
	}
	m := kernel.NewMesh(strings.Join(rest, " "))

	for {
		fields, err := p.next()
		if err != nil {
			return nil, err
		}
		switch fields[0] {
		case "endsolid":
			return m, nil
		case "facet":
			t, err := p.facet(fields)
			if err != nil {
				return nil, err
			}
			m.Append(t)
		default:
			return nil, p.fail("unexpected %q", fields[0])
		}
	}
}

func (p *parser) facet(header []string) (sdf.Triangle3, error) {
	var t sdf.Triangle3
	if len(header) != 5 || header[1] != "normal" {
		return t, p.fail("malformed facet header %q", strings.Join(header, " "))
	}
	if _, err := p.expect("outer", "loop"); err != nil {
		return t, err
	}
	for i := range t {
		coords, err := p.expect("vertex")
		if err != nil {
			return t, err
		}
		v, err := p.vec(coords)
		if err != nil {
			return t, err
		}
		t[i] = v
	}
	if _, err := p.expect("endloop"); err != nil {
		return t, err
	}
	if _, err := p.expect("endfacet"); err != nil {
		return t, err
	}
	return t, nil
}

func (p *parser) vec(fields []string) (v3.Vec, error) {
	if len(fields) != 3 {
		return v3.Vec{}, p.fail("vertex needs 3 coordinates, got %d", len(fields))
	}
	var xyz [3]float64
	for i, f := range fields {
		x, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return v3.Vec{}, p.fail("bad coordinate %q", f)
		}
		xyz[i] = x
	}
	return v3.Vec{X: xyz[0], Y: xyz[1], Z: xyz[2]}, nil
}
