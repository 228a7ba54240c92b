package geo

import (
	"math"

	"github.com/golang/geo/r1"
	"github.com/golang/geo/s1"
	"github.com/golang/geo/s2"
)

// WorldRect is the default view when no location data is available.
var WorldRect = RectFromDegrees(-60, -180, 75, 180)

var validLat = r1.Interval{Lo: -math.Pi / 2, Hi: math.Pi / 2}

// RectFromDegrees builds the rectangle south..north, west..east. A span of
// -180..180 is the full longitude range; west > east crosses the antimeridian.
func RectFromDegrees(south, west, north, east float64) s2.Rect {
	lat := r1.Interval{
		Lo: (s1.Angle(south) * s1.Degree).Radians(),
		Hi: (s1.Angle(north) * s1.Degree).Radians(),
	}.Intersection(validLat)
	lng := s1.FullInterval()
	if west != -180 || east != 180 {
		lng = s1.IntervalFromEndpoints(
			(s1.Angle(west) * s1.Degree).Normalized().Radians(),
			(s1.Angle(east) * s1.Degree).Normalized().Radians(),
		)
	}
	return s2.Rect{Lat: lat, Lng: lng}
}

// Box is a bounding box in degrees. When the box crosses the antimeridian,
// East is reported past 180 so that West < East always holds.
type Box struct {
	South float64 `json:"south"`
	West  float64 `json:"west"`
	North float64 `json:"north"`
	East  float64 `json:"east"`
}

// Bounds returns the lat/lng rectangle covering every position of o.
// Positions outside the valid lat/lng range are ignored. The second result
// is false when no position contributed.
func Bounds(o *Object) (s2.Rect, bool) {
	rect := s2.EmptyRect()
	walkPositions(o, func(p Position) {
		ll := s2.LatLngFromDegrees(p.Lat(), p.Lon())
		if ll.IsValid() {
			rect = rect.AddPoint(ll)
		}
	})
	return rect, !rect.IsEmpty()
}

// Pad grows rect by ratio of its size on every side.
func Pad(rect s2.Rect, ratio float64) s2.Rect {
	if rect.IsEmpty() || ratio <= 0 {
		return rect
	}
	size := rect.Size()
	return s2.Rect{
		Lat: rect.Lat.Expanded(size.Lat.Radians() * ratio).Intersection(validLat),
		Lng: rect.Lng.Expanded(size.Lng.Radians() * ratio),
	}
}

// BoxOf converts rect to degrees.
func BoxOf(rect s2.Rect) Box {
	if rect.IsEmpty() {
		return Box{}
	}
	b := Box{
		South: rect.Lo().Lat.Degrees(),
		West:  rect.Lo().Lng.Degrees(),
		North: rect.Hi().Lat.Degrees(),
		East:  rect.Hi().Lng.Degrees(),
	}
	if rect.Lng.IsInverted() {
		b.East += 360
	}
	return b
}

func walkPositions(o *Object, fn func(Position)) {
	if o == nil {
		return
	}
	switch canonicalType(o.Type) {
	case TypeFeatureCollection:
		for _, f := range o.Features {
			walkPositions(f, fn)
		}
	case TypeFeature:
		walkPositions(o.Geometry, fn)
	case TypeGeometryCollection:
		for _, g := range o.Geometries {
			walkPositions(g, fn)
		}
	default:
		walkCoordinates(o.Coordinates, fn)
	}
}

func walkCoordinates(raw any, fn func(Position)) {
	switch v := raw.(type) {
	case Position:
		fn(v)
	case []Position:
		for _, p := range v {
			fn(p)
		}
	case [][]Position:
		for _, ring := range v {
			walkCoordinates(ring, fn)
		}
	case [][][]Position:
		for _, poly := range v {
			walkCoordinates(poly, fn)
		}
	default:
		if p, ok := position(raw); ok {
			fn(p)
			return
		}
		for _, e := range elements(raw) {
			walkCoordinates(e, fn)
		}
	}
}
