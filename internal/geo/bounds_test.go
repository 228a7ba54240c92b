package geo

import (
	"math"
	"testing"

	"github.com/golang/geo/s2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBounds(t *testing.T) {
	fc := NewFeatureCollection(
		&Object{Type: TypeFeature, Geometry: &Object{Type: TypePolygon, Coordinates: [][]Position{square(-80, 40)}}},
		&Object{Type: TypeFeature, Geometry: &Object{Type: TypePoint, Coordinates: Position{-70, 50}}},
	)

	rect, ok := Bounds(fc)
	require.True(t, ok)

	box := BoxOf(rect)
	assert.InDelta(t, 40, box.South, 1e-9)
	assert.InDelta(t, -80, box.West, 1e-9)
	assert.InDelta(t, 50, box.North, 1e-9)
	assert.InDelta(t, -70, box.East, 1e-9)
}

func TestBounds_Antimeridian(t *testing.T) {
	line := &Object{Type: TypeLineString, Coordinates: []Position{{170, -15}, {-170, -20}}}

	rect, ok := Bounds(line)
	require.True(t, ok)

	box := BoxOf(rect)
	assert.InDelta(t, 170, box.West, 1e-9)
	assert.InDelta(t, 190, box.East, 1e-9)
}

func TestBounds_IgnoresOutOfRange(t *testing.T) {
	pts := &Object{Type: TypeMultiPoint, Coordinates: []Position{{10, 95}, {10, 10}}}

	rect, ok := Bounds(pts)
	require.True(t, ok)
	assert.InDelta(t, 10, BoxOf(rect).North, 1e-9)

	_, ok = Bounds(NewFeatureCollection())
	assert.False(t, ok)
}

func TestBounds_RawDecodedCoordinates(t *testing.T) {
	o := decode(t, `{"type":"LineString","coordinates":[[1,2],[3,4]]}`)
	rect, ok := Bounds(o)
	require.True(t, ok)
	assert.InDelta(t, 4, BoxOf(rect).North, 1e-9)
}

func TestPad(t *testing.T) {
	line := &Object{Type: TypeLineString, Coordinates: []Position{{0, 0}, {10, 10}}}
	rect, _ := Bounds(line)

	box := BoxOf(Pad(rect, 0.1))
	assert.InDelta(t, -1, box.South, 1e-6)
	assert.InDelta(t, -1, box.West, 1e-6)
	assert.InDelta(t, 11, box.North, 1e-6)
	assert.InDelta(t, 11, box.East, 1e-6)

	assert.Equal(t, rect, Pad(rect, 0))
	assert.Equal(t, Box{}, BoxOf(Pad(s2.EmptyRect(), 0.5)))
}

func TestMapPositions(t *testing.T) {
	in := NewFeatureCollection(&Object{
		Type:       TypeFeature,
		Properties: map[string]any{"name": "x"},
		Geometry:   &Object{Type: TypePolygon, Coordinates: [][]Position{square(-179, 0)}},
	})
	shift := func(p Position) Position {
		if p.Lon() < 0 {
			p[0] += 360
		}
		return p
	}

	out := MapPositions(in, shift)
	ring := out.Features[0].Geometry.Coordinates.([][]Position)[0]
	assert.Equal(t, Position{181, 0}, ring[0])
	assert.Equal(t, Position{-179, 0}, in.Features[0].Geometry.Coordinates.([][]Position)[0][0], "input untouched")
	assert.Equal(t, "x", out.Features[0].StringProperty("name"))
}

func TestAllFinite(t *testing.T) {
	assert.True(t, AllFinite(&Object{Type: TypePoint, Coordinates: Position{1, 2}}))
	assert.False(t, AllFinite(&Object{Type: TypeLineString, Coordinates: []Position{{1, 2}, {math.NaN(), 2}}}))
}

func TestRectFromDegrees(t *testing.T) {
	box := BoxOf(RectFromDegrees(40, -10, 50, 10))
	assert.Equal(t, Box{South: 40, West: -10, North: 50, East: 10}, roundBox(box))

	world := BoxOf(WorldRect)
	assert.Equal(t, Box{South: -60, West: -180, North: 75, East: 180}, roundBox(world))
	assert.True(t, WorldRect.Lng.IsFull())

	crossing := RectFromDegrees(-20, 170, -10, -170)
	assert.True(t, crossing.Lng.IsInverted())
	assert.Equal(t, Box{South: -20, West: 170, North: -10, East: 190}, roundBox(BoxOf(crossing)))
}

func TestPad_ClampsLatitude(t *testing.T) {
	rect := RectFromDegrees(80, 0, 89, 10)
	box := BoxOf(Pad(rect, 0.5))
	assert.InDelta(t, 90, box.North, 1e-9)
	assert.InDelta(t, 75.5, box.South, 1e-6)
	assert.True(t, Pad(rect, 0.5).IsValid())
}

func TestPad_Antimeridian(t *testing.T) {
	rect := RectFromDegrees(-20, 170, -10, -170)
	box := BoxOf(Pad(rect, 0.5))
	assert.InDelta(t, 160, box.West, 1e-6)
	assert.InDelta(t, 200, box.East, 1e-6)
}

func roundBox(b Box) Box {
	r := func(v float64) float64 { return math.Round(v*1e6) / 1e6 }
	return Box{South: r(b.South), West: r(b.West), North: r(b.North), East: r(b.East)}
}
