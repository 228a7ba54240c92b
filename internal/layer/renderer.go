package layer

import (
	"github.com/golang/geo/s2"

	"github.com/couchcryptid/geoguess-service/internal/domain"
	"github.com/couchcryptid/geoguess-service/internal/geo"
)

// Style is the presentation of one feature.
type Style struct {
	Color   string  `json:"color,omitempty"`
	Weight  float64 `json:"weight,omitempty"`
	Opacity float64 `json:"opacity,omitempty"`
	Radius  float64 `json:"radius,omitempty"` // point markers only
	Label   string  `json:"label,omitempty"`
}

// Options customise layer construction.
type Options struct {
	// Transform, when set, maps every position before it is stored.
	Transform func(geo.Position) geo.Position
	// Style, when set, is called once per feature.
	Style func(feature *geo.Object) Style
}

// Handle identifies a layer created by a Renderer.
type Handle interface {
	Kind() domain.LayerKind
}

// View is the renderer's current viewport.
type View struct {
	Bounds geo.Box `json:"bounds"`
	Zoom   int     `json:"zoom"`
}

// Renderer is the map capability layers are drawn on.
type Renderer interface {
	NewLayer(kind domain.LayerKind, data *geo.Object, opts Options) (Handle, error)
	AddLayer(h Handle)
	RemoveLayer(h Handle)
	FitBounds(rect s2.Rect, padding float64)
	View() View
	Size() (width, height int)
}
