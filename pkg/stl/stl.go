// Package stl writes and reads triangle meshes in the ASCII solid-geometry
// (STL) text format. Only the ASCII variant is supported.
package stl

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/deadsy/sdfx/sdf"

	"github.com/chazu/relief/pkg/kernel"
)

// DefaultName is the solid name used when the mesh carries none.
const DefaultName = "extruded_mesh"

// zeroNormal is the placeholder normal written when normals are not
// computed. Consumers are expected to recompute normals from the winding.
const zeroNormal = "0.0 0.0 0.0"

type options struct {
	normals bool
	name    string
}

// Option configures Write and WriteFile.
type Option func(*options)

// WithNormals writes the unit normal of every triangle instead of the zero
// placeholder. Degenerate triangles keep the placeholder.
func WithNormals() Option {
	return func(o *options) { o.normals = true }
}

// WithName overrides the solid name.
func WithName(name string) Option {
	return func(o *options) { o.name = name }
}

// errWriter remembers the first write error so the formatting loop can stay
// linear.
type errWriter struct {
	w   *bufio.Writer
	err error
}

func (ew *errWriter) print(s string) {
	if ew.err != nil {
		return
	}
	_, ew.err = ew.w.WriteString(s)
}

// Write encodes m to w. The output is buffered; it is flushed before Write
// returns and any I/O error is reported.
func Write(w io.Writer, m *kernel.Mesh, opts ...Option) error {
	if m == nil {
		return errors.New("stl: nil mesh")
	}
	o := options{name: m.Name}
	for _, opt := range opts {
		opt(&o)
	}
	if o.name == "" {
		o.name = DefaultName
	}

	ew := &errWriter{w: bufio.NewWriter(w)}
	ew.print("solid " + o.name + "\n")
	for _, t := range m.Triangles {
		ew.print("  facet normal " + normalString(t, o.normals) + "\n")
		ew.print("    outer loop\n")
		for _, v := range t {
			ew.print("      vertex " + formatFloat(v.X) + " " + formatFloat(v.Y) + " " + formatFloat(v.Z) + "\n")
		}
		ew.print("    endloop\n")
		ew.print("  endfacet\n")
	}
	ew.print("endsolid " + o.name + "\n")

	if ew.err != nil {
		return fmt.Errorf("stl: write: %w", ew.err)
	}
	if err := ew.w.Flush(); err != nil {
		return fmt.Errorf("stl: flush: %w", err)
	}
	return nil
}

// WriteFile encodes m to path, replacing any existing file. The data is
// written to a temporary file in the same directory and renamed into place
// only after it has been fully written and synced, so a failed export never
// leaves a truncated file at path.
func WriteFile(path string, m *kernel.Mesh, opts ...Option) (err error) {
	dir, base := filepath.Split(path)
	if dir == "" {
		dir = "."
	}
	tmp, err := os.CreateTemp(dir, "."+base+".*.tmp")
	if err != nil {
		return fmt.Errorf("stl: create temp file for %s: %w", path, err)
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmpName)
		}
	}()

	if err = Write(tmp, m, opts...); err != nil {
		return fmt.Errorf("stl: %s: %w", path, err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("stl: sync %s: %w", path, err)
	}
	if err = tmp.Chmod(0o644); err != nil {
		return fmt.Errorf("stl: chmod %s: %w", path, err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("stl: close %s: %w", path, err)
	}
	if err = os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("stl: rename into %s: %w", path, err)
	}
	return nil
}

func normalString(t sdf.Triangle3, compute bool) string {
	if !compute {
		return zeroNormal
	}
	n, ok := kernel.Normal(t)
	if !ok {
		return zeroNormal
	}
	return formatFloat(n.X) + " " + formatFloat(n.Y) + " " + formatFloat(n.Z)
}

// formatFloat renders v as plain decimal, independent of locale, with the
// shortest representation that round-trips.
func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
