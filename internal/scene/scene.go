// Package scene is an in-memory map renderer. It keeps the layers currently
// on the map and the viewport, and serialises them for the browser client,
// which draws exactly what the scene reports.
package scene

import (
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/golang/geo/s2"

	"github.com/couchcryptid/geoguess-service/internal/domain"
	"github.com/couchcryptid/geoguess-service/internal/geo"
	"github.com/couchcryptid/geoguess-service/internal/layer"
)

const (
	tileSize = 256
	minZoom  = 1
	maxZoom  = 18
)

// ErrInvalidGeometry is returned by NewLayer for data the scene cannot draw.
var ErrInvalidGeometry = errors.New("invalid geometry")

// Feature is one drawable feature with its resolved style.
type Feature struct {
	Geometry   *geo.Object    `json:"geometry"`
	Properties map[string]any `json:"properties,omitempty"`
	Style      layer.Style    `json:"style"`
}

// Layer is a renderer layer handle.
type Layer struct {
	id       int
	kind     domain.LayerKind
	features []Feature
}

// Kind implements layer.Handle.
func (l *Layer) Kind() domain.LayerKind { return l.kind }

// LayerState is the serialised form of a layer on the map.
type LayerState struct {
	Kind     domain.LayerKind `json:"kind"`
	Features []Feature        `json:"features"`
}

// Scene implements layer.Renderer. It is safe for concurrent use.
type Scene struct {
	mu     sync.Mutex
	width  int
	height int
	nextID int
	onMap  []*Layer
	view   layer.View
}

// New creates an empty scene showing the default world view.
func New() *Scene {
	return &Scene{view: worldView()}
}

func worldView() layer.View {
	return layer.View{Bounds: geo.BoxOf(geo.WorldRect), Zoom: minZoom + 1}
}

// NewLayer builds a layer from sanitized data. Data containing non-finite
// positions after the transform hook is rejected.
func (s *Scene) NewLayer(kind domain.LayerKind, data *geo.Object, opts layer.Options) (layer.Handle, error) {
	if data == nil {
		return nil, fmt.Errorf("%w: nil data for %s", ErrInvalidGeometry, kind)
	}
	if opts.Transform != nil {
		data = geo.MapPositions(data, opts.Transform)
	}
	if !geo.AllFinite(data) {
		return nil, fmt.Errorf("%w: non-finite position in %s", ErrInvalidGeometry, kind)
	}

	features := data.FeatureList()
	l := &Layer{kind: kind, features: make([]Feature, 0, len(features))}
	for _, f := range features {
		if f.Geometry == nil {
			return nil, fmt.Errorf("%w: feature without geometry in %s", ErrInvalidGeometry, kind)
		}
		rf := Feature{Geometry: f.Geometry, Properties: f.Properties}
		if opts.Style != nil {
			rf.Style = opts.Style(f)
		}
		l.features = append(l.features, rf)
	}

	s.mu.Lock()
	s.nextID++
	l.id = s.nextID
	s.mu.Unlock()
	return l, nil
}

// AddLayer puts h on the map. Adding a layer twice is a no-op.
func (s *Scene) AddLayer(h layer.Handle) {
	l, ok := h.(*Layer)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.onMap {
		if existing == l {
			return
		}
	}
	s.onMap = append(s.onMap, l)
}

// RemoveLayer takes h off the map.
func (s *Scene) RemoveLayer(h layer.Handle) {
	l, ok := h.(*Layer)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, existing := range s.onMap {
		if existing == l {
			s.onMap = append(s.onMap[:i], s.onMap[i+1:]...)
			return
		}
	}
}

// FitBounds moves the viewport to rect grown by padding (a fraction of its size).
func (s *Scene) FitBounds(rect s2.Rect, padding float64) {
	if rect.IsEmpty() {
		return
	}
	box := geo.BoxOf(geo.Pad(rect, padding))

	s.mu.Lock()
	defer s.mu.Unlock()
	s.view = layer.View{Bounds: box, Zoom: zoomFor(box, s.width, s.height)}
}

// ResetView returns to the default world view.
func (s *Scene) ResetView() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.view = worldView()
}

// View returns the current viewport.
func (s *Scene) View() layer.View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view
}

// Size returns the map container size reported by the client.
func (s *Scene) Size() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.width, s.height
}

// SetSize records the map container size. Negative values are clamped to zero.
func (s *Scene) SetSize(width, height int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.width = max(width, 0)
	s.height = max(height, 0)
}

// Layers returns the layers on the map in the order they were added.
func (s *Scene) Layers() []LayerState {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]LayerState, len(s.onMap))
	for i, l := range s.onMap {
		out[i] = LayerState{Kind: l.kind, Features: l.features}
	}
	return out
}

// zoomFor picks the largest web-mercator zoom at which box fits the container.
func zoomFor(box geo.Box, width, height int) int {
	if width <= 0 || height <= 0 {
		return minZoom + 1
	}
	lonSpan := math.Max(box.East-box.West, 1e-6)
	latSpan := math.Max(box.North-box.South, 1e-6)

	zx := math.Log2(float64(width) * 360 / (tileSize * lonSpan))
	zy := math.Log2(float64(height) * 170 / (tileSize * latSpan))
	z := int(math.Floor(math.Min(zx, zy)))
	return min(max(z, minZoom), maxZoom)
}
