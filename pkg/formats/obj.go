package formats

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"slices"
	"strconv"
	"strings"
)

// OBJ format errors.
var (
	ErrEmptyOBJ        = errors.New("OBJ contains no faces")
	ErrInvalidOBJIndex = errors.New("OBJ face index out of range")
	ErrMalformedOBJ    = errors.New("malformed OBJ statement")
)

// OBJFace is a triangle. Indices are zero-based; -1 means the attribute is absent.
type OBJFace struct {
	V  [3]int
	VT [3]int
	VN [3]int
}

// OBJ holds triangulated Wavefront OBJ geometry. Colors is either empty or
// parallel to Positions (the "v x y z r g b" extension).
type OBJ struct {
	Name      string
	Positions [][3]float32
	Colors    [][3]float32
	TexCoords [][2]float32
	Normals   [][3]float32
	Faces     []OBJFace
	MtlLibs   []string
	Materials []string // usemtl names in order of first use
}

// TriangleCount returns the number of faces.
func (o *OBJ) TriangleCount() int {
	return len(o.Faces)
}

// Bounds returns the axis-aligned bounds of all positions.
func (o *OBJ) Bounds() (min, max [3]float32) {
	if len(o.Positions) == 0 {
		return min, max
	}
	min, max = o.Positions[0], o.Positions[0]
	for _, p := range o.Positions[1:] {
		for i := range 3 {
			if p[i] < min[i] {
				min[i] = p[i]
			}
			if p[i] > max[i] {
				max[i] = p[i]
			}
		}
	}
	return min, max
}

// ParseOBJ parses Wavefront OBJ text. Polygons are fan-triangulated.
// Material libraries and names are recorded but not resolved; smoothing
// groups and lines are ignored.
func ParseOBJ(data []byte) (*OBJ, error) {
	obj := &OBJ{}
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 64*1024), 1024*1024)

	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || line[0] == '#' {
			continue
		}
		fields := strings.Fields(line)

		var err error
		switch fields[0] {
		case "v":
			err = obj.parseVertex(fields[1:])
		case "vt":
			var uv [2]float32
			if uv, err = parseFloats2(fields[1:]); err == nil {
				obj.TexCoords = append(obj.TexCoords, uv)
			}
		case "vn":
			var n [3]float32
			if n, err = parseFloats3(fields[1:]); err == nil {
				obj.Normals = append(obj.Normals, n)
			}
		case "f":
			err = obj.parseFace(fields[1:])
		case "o":
			if obj.Name == "" && len(fields) > 1 {
				obj.Name = strings.Join(fields[1:], " ")
			}
		case "mtllib":
			obj.MtlLibs = append(obj.MtlLibs, fields[1:]...)
		case "usemtl":
			if len(fields) > 1 && !slices.Contains(obj.Materials, fields[1]) {
				obj.Materials = append(obj.Materials, fields[1])
			}
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading OBJ: %w", err)
	}

	if len(obj.Faces) == 0 {
		return nil, ErrEmptyOBJ
	}
	if len(obj.Colors) > 0 && len(obj.Colors) != len(obj.Positions) {
		// Mixed colored and plain vertices; drop the partial color set.
		obj.Colors = nil
	}
	return obj, nil
}

func (o *OBJ) parseVertex(args []string) error {
	if len(args) < 3 {
		return fmt.Errorf("%w: vertex needs 3 coordinates", ErrMalformedOBJ)
	}
	p, err := parseFloats3(args[:3])
	if err != nil {
		return err
	}
	o.Positions = append(o.Positions, p)

	// x y z [w] or x y z r g b
	if len(args) >= 6 {
		c, err := parseFloats3(args[3:6])
		if err != nil {
			return err
		}
		o.Colors = append(o.Colors, c)
	}
	return nil
}

func (o *OBJ) parseFace(args []string) error {
	if len(args) < 3 {
		return fmt.Errorf("%w: face needs at least 3 vertices", ErrMalformedOBJ)
	}

	type ref struct{ v, vt, vn int }
	refs := make([]ref, len(args))
	for i, a := range args {
		parts := strings.Split(a, "/")
		var err error
		r := ref{vt: -1, vn: -1}
		if r.v, err = resolveIndex(parts[0], len(o.Positions)); err != nil {
			return err
		}
		if len(parts) > 1 && parts[1] != "" {
			if r.vt, err = resolveIndex(parts[1], len(o.TexCoords)); err != nil {
				return err
			}
		}
		if len(parts) > 2 && parts[2] != "" {
			if r.vn, err = resolveIndex(parts[2], len(o.Normals)); err != nil {
				return err
			}
		}
		refs[i] = r
	}

	for i := 1; i+1 < len(refs); i++ {
		a, b, c := refs[0], refs[i], refs[i+1]
		o.Faces = append(o.Faces, OBJFace{
			V:  [3]int{a.v, b.v, c.v},
			VT: [3]int{a.vt, b.vt, c.vt},
			VN: [3]int{a.vn, b.vn, c.vn},
		})
	}
	return nil
}

// resolveIndex converts a one-based (or negative, relative) OBJ index to zero-based.
func resolveIndex(s string, count int) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: index %q", ErrMalformedOBJ, s)
	}
	if n < 0 {
		n = count + n
	} else {
		n--
	}
	if n < 0 || n >= count {
		return 0, fmt.Errorf("%w: %s (have %d)", ErrInvalidOBJIndex, s, count)
	}
	return n, nil
}

func parseFloats3(args []string) ([3]float32, error) {
	var out [3]float32
	if len(args) < 3 {
		return out, fmt.Errorf("%w: expected 3 values, got %d", ErrMalformedOBJ, len(args))
	}
	for i := range 3 {
		f, err := strconv.ParseFloat(args[i], 32)
		if err != nil {
			return out, fmt.Errorf("%w: %v", ErrMalformedOBJ, err)
		}
		out[i] = float32(f)
	}
	return out, nil
}

func parseFloats2(args []string) ([2]float32, error) {
	var out [2]float32
	if len(args) < 2 {
		return out, fmt.Errorf("%w: expected 2 values, got %d", ErrMalformedOBJ, len(args))
	}
	for i := range 2 {
		f, err := strconv.ParseFloat(args[i], 32)
		if err != nil {
			return out, fmt.Errorf("%w: %v", ErrMalformedOBJ, err)
		}
		out[i] = float32(f)
	}
	return out, nil
}

// EncodeOBJ writes geometry as OBJ text. Vertex colors are emitted with the
// "v x y z r g b" extension when present.
func EncodeOBJ(w io.Writer, o *OBJ) error {
	bw := bufio.NewWriter(w)

	if o.Name != "" {
		fmt.Fprintf(bw, "o %s\n", o.Name)
	}
	hasColors := len(o.Colors) == len(o.Positions) && len(o.Colors) > 0
	for i, p := range o.Positions {
		if hasColors {
			c := o.Colors[i]
			fmt.Fprintf(bw, "v %g %g %g %g %g %g\n", p[0], p[1], p[2], c[0], c[1], c[2])
		} else {
			fmt.Fprintf(bw, "v %g %g %g\n", p[0], p[1], p[2])
		}
	}
	for _, t := range o.TexCoords {
		fmt.Fprintf(bw, "vt %g %g\n", t[0], t[1])
	}
	for _, n := range o.Normals {
		fmt.Fprintf(bw, "vn %g %g %g\n", n[0], n[1], n[2])
	}
	for _, f := range o.Faces {
		bw.WriteString("f")
		for k := range 3 {
			fmt.Fprintf(bw, " %s", faceRef(f.V[k], f.VT[k], f.VN[k]))
		}
		bw.WriteByte('\n')
	}
	return bw.Flush()
}

func faceRef(v, vt, vn int) string {
	switch {
	case vt < 0 && vn < 0:
		return strconv.Itoa(v + 1)
	case vt < 0:
		return fmt.Sprintf("%d//%d", v+1, vn+1)
	case vn < 0:
		return fmt.Sprintf("%d/%d", v+1, vt+1)
	default:
		return fmt.Sprintf("%d/%d/%d", v+1, vt+1, vn+1)
	}
}

// Triangles flattens the faces into a non-indexed vertex stream of
// interleaved position and normal (6 floats per vertex). Faces without
// normals get their flat face normal.
func (o *OBJ) Triangles() []float32 {
	out := make([]float32, 0, len(o.Faces)*3*6)
	for _, f := range o.Faces {
		p0, p1, p2 := o.Positions[f.V[0]], o.Positions[f.V[1]], o.Positions[f.V[2]]
		flat := faceNormal(p0, p1, p2)
		for k, p := range [3][3]float32{p0, p1, p2} {
			n := flat
			if f.VN[k] >= 0 && f.VN[k] < len(o.Normals) {
				n = o.Normals[f.VN[k]]
			}
			out = append(out, p[0], p[1], p[2], n[0], n[1], n[2])
		}
	}
	return out
}

func faceNormal(a, b, c [3]float32) [3]float32 {
	u := [3]float32{b[0] - a[0], b[1] - a[1], b[2] - a[2]}
	v := [3]float32{c[0] - a[0], c[1] - a[1], c[2] - a[2]}
	n := [3]float32{
		u[1]*v[2] - u[2]*v[1],
		u[2]*v[0] - u[0]*v[2],
		u[0]*v[1] - u[1]*v[0],
	}
	l := float32(math.Sqrt(float64(n[0]*n[0] + n[1]*n[1] + n[2]*n[2])))
	if l == 0 {
		return [3]float32{0, 1, 0}
	}
	return [3]float32{n[0] / l, n[1] / l, n[2] / l}
}

// UnitCube returns a cube spanning [-0.5, 0.5] on X and Z and [0, 1] on Y,
// so it rests on the placement point. Used when a category has no model.
func UnitCube() *OBJ {
	o := &OBJ{Name: "cube"}
	for _, y := range []float32{0, 1} {
		for _, z := range []float32{-0.5, 0.5} {
			for _, x := range []float32{-0.5, 0.5} {
				o.Positions = append(o.Positions, [3]float32{x, y, z})
			}
		}
	}
	// Vertex i = x + 2z + 4y; quads wound counter-clockwise seen from outside.
	quads := [6][4]int{
		{0, 1, 3, 2}, // bottom
		{4, 6, 7, 5}, // top
		{0, 4, 5, 1}, // back (-z)
		{2, 3, 7, 6}, // front (+z)
		{0, 2, 6, 4}, // left (-x)
		{1, 5, 7, 3}, // right (+x)
	}
	none := [3]int{-1, -1, -1}
	for _, q := range quads {
		o.Faces = append(o.Faces,
			OBJFace{V: [3]int{q[0], q[1], q[2]}, VT: none, VN: none},
			OBJFace{V: [3]int{q[0], q[2], q[3]}, VT: none, VN: none},
		)
	}
	return o
}
