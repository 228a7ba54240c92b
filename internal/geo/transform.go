package geo

// MapPositions returns a copy of o with fn applied to every position.
// Only sanitized coordinates are rewritten; untyped coordinates are
// copied unchanged.
func MapPositions(o *Object, fn func(Position) Position) *Object {
	if o == nil {
		return nil
	}
	out := &Object{Type: o.Type, ID: o.ID, Properties: copyProperties(o.Properties)}
	switch canonicalType(o.Type) {
	case TypeFeatureCollection:
		out.Features = make([]*Object, len(o.Features))
		for i, f := range o.Features {
			out.Features[i] = MapPositions(f, fn)
		}
	case TypeFeature:
		out.Geometry = MapPositions(o.Geometry, fn)
	case TypeGeometryCollection:
		out.Geometries = make([]*Object, len(o.Geometries))
		for i, g := range o.Geometries {
			out.Geometries[i] = MapPositions(g, fn)
		}
	default:
		out.Coordinates = mapCoordinates(o.Coordinates, fn)
	}
	return out
}

func mapCoordinates(raw any, fn func(Position) Position) any {
	switch v := raw.(type) {
	case Position:
		return fn(v)
	case []Position:
		out := make([]Position, len(v))
		for i, p := range v {
			out[i] = fn(p)
		}
		return out
	case [][]Position:
		out := make([][]Position, len(v))
		for i, line := range v {
			out[i] = mapCoordinates(line, fn).([]Position)
		}
		return out
	case [][][]Position:
		out := make([][][]Position, len(v))
		for i, poly := range v {
			out[i] = mapCoordinates(poly, fn).([][]Position)
		}
		return out
	default:
		return raw
	}
}

// AllFinite reports whether every position reachable from o is finite.
func AllFinite(o *Object) bool {
	ok := true
	walkPositions(o, func(p Position) {
		if !finite(p.Lon()) || !finite(p.Lat()) {
			ok = false
		}
	})
	return ok
}
