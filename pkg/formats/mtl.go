package formats

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// MTL format errors.
var (
	ErrEmptyMTL     = errors.New("MTL defines no materials")
	ErrMalformedMTL = errors.New("malformed MTL statement")
)

// Material is one newmtl block of a Wavefront material library.
type Material struct {
	Name       string
	Ambient    [3]float32 // Ka
	Diffuse    [3]float32 // Kd
	Specular   [3]float32 // Ks
	Dissolve   float32    // d; 1 is opaque
	DiffuseMap string     // map_Kd
}

// ParseMTL parses Wavefront MTL text into materials keyed by name.
// Unknown statements are ignored.
func ParseMTL(data []byte) (map[string]*Material, error) {
	mats := make(map[string]*Material)
	var cur *Material

	sc := bufio.NewScanner(bytes.NewReader(data))
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || line[0] == '#' {
			continue
		}
		fields := strings.Fields(line)

		if fields[0] == "newmtl" {
			if len(fields) < 2 {
				return nil, fmt.Errorf("line %d: %w: newmtl without a name", lineNo, ErrMalformedMTL)
			}
			cur = &Material{Name: fields[1], Diffuse: [3]float32{1, 1, 1}, Dissolve: 1}
			mats[cur.Name] = cur
			continue
		}
		if cur == nil {
			// Statements before the first newmtl have nothing to apply to.
			continue
		}

		var err error
		switch fields[0] {
		case "Ka":
			cur.Ambient, err = parseColor(fields[1:])
		case "Kd":
			cur.Diffuse, err = parseColor(fields[1:])
		case "Ks":
			cur.Specular, err = parseColor(fields[1:])
		case "d":
			cur.Dissolve, err = parseScalar(fields[1:])
		case "Tr":
			var tr float32
			if tr, err = parseScalar(fields[1:]); err == nil {
				cur.Dissolve = 1 - tr
			}
		case "map_Kd":
			if len(fields) > 1 {
				// Options such as -s come first; the file name is last.
				cur.DiffuseMap = fields[len(fields)-1]
			}
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading MTL: %w", err)
	}

	if len(mats) == 0 {
		return nil, ErrEmptyMTL
	}
	return mats, nil
}

// DiffuseOf returns the diffuse color of the first material o uses that
// mats defines. With no usemtl statements, a library holding exactly one
// material applies to the whole model.
func DiffuseOf(o *OBJ, mats map[string]*Material) ([3]float32, bool) {
	for _, name := range o.Materials {
		if m, ok := mats[name]; ok {
			return m.Diffuse, true
		}
	}
	if len(o.Materials) == 0 && len(mats) == 1 {
		for _, m := range mats {
			return m.Diffuse, true
		}
	}
	return [3]float32{}, false
}

func parseColor(args []string) ([3]float32, error) {
	if len(args) == 1 {
		// A single value means a gray.
		v, err := parseScalar(args)
		return [3]float32{v, v, v}, err
	}
	c, err := parseFloats3(args)
	if err != nil {
		return c, fmt.Errorf("%w: %w", ErrMalformedMTL, err)
	}
	return c, nil
}

func parseScalar(args []string) (float32, error) {
	if len(args) < 1 {
		return 0, fmt.Errorf("%w: missing value", ErrMalformedMTL)
	}
	f, err := strconv.ParseFloat(args[0], 32)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrMalformedMTL, err)
	}
	return float32(f), nil
}
