package geo

import (
	"encoding/json"
	"math"
	"reflect"
)

// Minimum surviving positions per structure.
const (
	minLinePoints = 2
	minRingPoints = 4
)

// Sanitize returns a structurally valid copy of o with every invalid
// position removed, or nil when nothing valid remains. Feature collections
// are the exception: an empty collection is returned rather than nil so
// callers can still build an (empty) layer from it. The input is not
// modified, and Sanitize(Sanitize(o)) equals Sanitize(o).
func Sanitize(o *Object) *Object {
	if o == nil {
		return nil
	}

	switch t := canonicalType(o.Type); t {
	case TypeFeatureCollection:
		out := NewFeatureCollection()
		for _, f := range o.Features {
			if clean := sanitizeFeature(f); clean != nil {
				out.Features = append(out.Features, clean)
			}
		}
		return out
	case TypeFeature:
		return sanitizeFeature(o)
	case "":
		return nil
	default:
		return sanitizeGeometry(t, o)
	}
}

func sanitizeFeature(f *Object) *Object {
	if f == nil || canonicalType(f.Type) != TypeFeature || f.Geometry == nil {
		return nil
	}
	geom := sanitizeGeometry(canonicalType(f.Geometry.Type), f.Geometry)
	if geom == nil {
		return nil
	}
	return &Object{
		Type:       TypeFeature,
		ID:         f.ID,
		Properties: copyProperties(f.Properties),
		Geometry:   geom,
	}
}

func sanitizeGeometry(t string, g *Object) *Object {
	var coords any
	switch t {
	case TypePoint:
		p, ok := position(g.Coordinates)
		if !ok {
			return nil
		}
		coords = p
	case TypeMultiPoint:
		pts := positions(g.Coordinates)
		if len(pts) == 0 {
			return nil
		}
		coords = pts
	case TypeLineString:
		line := lineString(g.Coordinates)
		if line == nil {
			return nil
		}
		coords = line
	case TypeMultiLineString:
		var lines [][]Position
		for _, raw := range elements(g.Coordinates) {
			if line := lineString(raw); line != nil {
				lines = append(lines, line)
			}
		}
		if len(lines) == 0 {
			return nil
		}
		coords = lines
	case TypePolygon:
		poly := polygon(g.Coordinates)
		if poly == nil {
			return nil
		}
		coords = poly
	case TypeMultiPolygon:
		var polys [][][]Position
		for _, raw := range elements(g.Coordinates) {
			if poly := polygon(raw); poly != nil {
				polys = append(polys, poly)
			}
		}
		if len(polys) == 0 {
			return nil
		}
		coords = polys
	case TypeGeometryCollection:
		var members []*Object
		for _, m := range g.Geometries {
			if m == nil {
				continue
			}
			if clean := sanitizeGeometry(canonicalType(m.Type), m); clean != nil {
				members = append(members, clean)
			}
		}
		if len(members) == 0 {
			return nil
		}
		return &Object{Type: TypeGeometryCollection, Geometries: members}
	default:
		return nil
	}
	return &Object{Type: t, Coordinates: coords}
}

func lineString(raw any) []Position {
	pts := positions(raw)
	if len(pts) < minLinePoints {
		return nil
	}
	return pts
}

func polygon(raw any) [][]Position {
	var rings [][]Position
	for _, r := range elements(raw) {
		ring := positions(r)
		if len(ring) >= minRingPoints {
			rings = append(rings, ring)
		}
	}
	return rings
}

// positions keeps the valid positions of raw, in order.
func positions(raw any) []Position {
	var out []Position
	for _, e := range elements(raw) {
		if p, ok := position(e); ok {
			out = append(out, p)
		}
	}
	return out
}

// position accepts any slice or array whose first two members are finite numbers.
func position(raw any) (Position, bool) {
	if p, ok := raw.(Position); ok {
		return p, finite(p[0]) && finite(p[1])
	}
	elems := elements(raw)
	if len(elems) < 2 {
		return Position{}, false
	}
	lon, ok := number(elems[0])
	if !ok {
		return Position{}, false
	}
	lat, ok := number(elems[1])
	if !ok {
		return Position{}, false
	}
	return Position{lon, lat}, true
}

// elements lists the members of a decoded JSON array or any Go slice/array
// built in-process. Anything else yields nil.
func elements(raw any) []any {
	switch v := raw.(type) {
	case nil:
		return nil
	case []any:
		return v
	}
	rv := reflect.ValueOf(raw)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out
}

func number(raw any) (float64, bool) {
	var f float64
	switch v := raw.(type) {
	case float64:
		f = v
	case json.Number:
		parsed, err := v.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		rv := reflect.ValueOf(raw)
		switch rv.Kind() {
		case reflect.Float32, reflect.Float64:
			f = rv.Float()
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			f = float64(rv.Int())
		default:
			return 0, false
		}
	}
	return f, finite(f)
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func copyProperties(props map[string]any) map[string]any {
	if props == nil {
		return nil
	}
	out := make(map[string]any, len(props))
	for k, v := range props {
		out[k] = v
	}
	return out
}

// CountPositions returns the number of positions reachable from o, valid or not.
func CountPositions(o *Object) int {
	if o == nil {
		return 0
	}
	n := 0
	switch canonicalType(o.Type) {
	case TypeFeatureCollection:
		for _, f := range o.Features {
			n += CountPositions(f)
		}
	case TypeFeature:
		n += CountPositions(o.Geometry)
	case TypeGeometryCollection:
		for _, g := range o.Geometries {
			n += CountPositions(g)
		}
	default:
		n += countLeaves(o.Coordinates)
	}
	return n
}

// countLeaves counts innermost arrays, i.e. arrays whose first member is a scalar.
func countLeaves(raw any) int {
	elems := elements(raw)
	if len(elems) == 0 {
		return 0
	}
	if elements(elems[0]) == nil {
		return 1
	}
	n := 0
	for _, e := range elems {
		n += countLeaves(e)
	}
	return n
}
