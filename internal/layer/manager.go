// Package layer owns the named map layers of the active location: it builds
// renderer layers from sanitized payloads, applies per-kind feature caps and
// labels, and tracks which kinds are visible.
package layer

import (
	"log/slog"

	"github.com/couchcryptid/geoguess-service/internal/domain"
	"github.com/couchcryptid/geoguess-service/internal/geo"
	"github.com/couchcryptid/geoguess-service/internal/observability"
)

// Limits caps the feature count of uncapped-by-nature datasets.
// Zero disables a cap.
type Limits struct {
	Roads     int
	Rivers    int
	Elevation int
}

var styles = map[domain.LayerKind]Style{
	domain.LayerOutline:   {Color: "#d62828", Weight: 2, Opacity: 0.9},
	domain.LayerRivers:    {Color: "#1d70b8", Weight: 1.5, Opacity: 0.8},
	domain.LayerCities:    {Color: "#222222", Radius: 4, Opacity: 1},
	domain.LayerRoads:     {Color: "#6c757d", Weight: 1, Opacity: 0.7},
	domain.LayerElevation: {Color: "#8d6e63", Weight: 0.8, Opacity: 0.6},
}

type entry struct {
	handle  Handle
	data    *geo.Object
	visible bool
}

// Manager holds zero or one layer per kind. Visibility is tracked separately
// from construction: a kind shown before its payload arrives becomes visible
// as soon as it is built. Manager is not safe for concurrent use.
type Manager struct {
	renderer Renderer
	limits   Limits
	logger   *slog.Logger
	metrics  *observability.Metrics
	layers   map[domain.LayerKind]*entry
}

// NewManager creates a Manager drawing on r.
func NewManager(r Renderer, limits Limits, logger *slog.Logger, metrics *observability.Metrics) *Manager {
	return &Manager{
		renderer: r,
		limits:   limits,
		logger:   logger,
		metrics:  metrics,
		layers:   make(map[domain.LayerKind]*entry),
	}
}

// Build sanitizes payload and replaces the layer of the given kind with it.
// A payload the renderer rejects is replaced by an empty layer; Build never
// fails. The sanitized, capped data is returned.
func (m *Manager) Build(kind domain.LayerKind, payload *geo.Object) *geo.Object {
	data := m.prepare(kind, payload)
	opts := m.options(kind)

	h, err := m.renderer.NewLayer(kind, data, opts)
	if err != nil {
		m.logger.Warn("layer construction failed, using empty layer",
			"kind", kind,
			"features", len(data.Features),
			"error", err,
		)
		m.metrics.LayerFallbacks.WithLabelValues(string(kind)).Inc()
		data = geo.NewFeatureCollection()
		h, err = m.renderer.NewLayer(kind, data, opts)
		if err != nil {
			m.logger.Error("empty layer construction failed", "kind", kind, "error", err)
			h = nil
		}
	}

	e := m.entry(kind)
	if e.visible && e.handle != nil {
		m.renderer.RemoveLayer(e.handle)
	}
	e.handle = h
	e.data = data
	if e.visible && h != nil {
		m.renderer.AddLayer(h)
	}
	return data
}

// prepare sanitizes and caps a payload into a FeatureCollection.
func (m *Manager) prepare(kind domain.LayerKind, payload *geo.Object) *geo.Object {
	before := geo.CountPositions(payload)
	clean := geo.Sanitize(payload)
	features := clean.FeatureList()
	if dropped := before - geo.CountPositions(clean); dropped > 0 {
		m.metrics.PositionsDropped.WithLabelValues(string(kind)).Add(float64(dropped))
		m.logger.Debug("sanitizer dropped positions", "kind", kind, "dropped", dropped)
	}

	switch kind {
	case domain.LayerRoads:
		features = CapByClass(features, m.limits.Roads, RoadClassKey, RoadPriority)
	case domain.LayerRivers:
		features = CapFirst(features, m.limits.Rivers)
	case domain.LayerElevation:
		features = CapFirst(features, m.limits.Elevation)
	}
	return geo.NewFeatureCollection(features...)
}

func (m *Manager) options(kind domain.LayerKind) Options {
	base := styles[kind]
	if kind != domain.LayerCities {
		return Options{Style: func(*geo.Object) Style { return base }}
	}
	return Options{Style: func(f *geo.Object) Style {
		s := base
		s.Label = CityLabel(cityName(f))
		return s
	}}
}

func (m *Manager) entry(kind domain.LayerKind) *entry {
	e, ok := m.layers[kind]
	if !ok {
		e = &entry{}
		m.layers[kind] = e
	}
	return e
}

// Show makes kind visible. Showing a visible kind is a no-op.
func (m *Manager) Show(kind domain.LayerKind) {
	e := m.entry(kind)
	if e.visible {
		return
	}
	e.visible = true
	if e.handle != nil {
		m.renderer.AddLayer(e.handle)
	}
}

// Hide removes kind from view. Hiding a hidden or absent kind is a no-op.
func (m *Manager) Hide(kind domain.LayerKind) {
	e, ok := m.layers[kind]
	if !ok || !e.visible {
		return
	}
	e.visible = false
	if e.handle != nil {
		m.renderer.RemoveLayer(e.handle)
	}
}

// HideAll hides every kind.
func (m *Manager) HideAll() {
	for _, kind := range domain.AllLayerKinds {
		m.Hide(kind)
	}
}

// SetVisible shows exactly the given kinds.
func (m *Manager) SetVisible(kinds []domain.LayerKind) {
	want := make(map[domain.LayerKind]bool, len(kinds))
	for _, k := range kinds {
		want[k] = true
	}
	for _, k := range domain.AllLayerKinds {
		if want[k] {
			m.Show(k)
		} else {
			m.Hide(k)
		}
	}
}

// Clear hides and discards every layer.
func (m *Manager) Clear() {
	m.HideAll()
	m.layers = make(map[domain.LayerKind]*entry)
}

// Visible lists the visible kinds in canonical order.
func (m *Manager) Visible() []domain.LayerKind {
	set := make(map[domain.LayerKind]bool, len(m.layers))
	for k, e := range m.layers {
		set[k] = e.visible
	}
	return domain.SortLayerKinds(set)
}

// Data returns the built payload of kind, or nil when it has not been built.
func (m *Manager) Data(kind domain.LayerKind) *geo.Object {
	if e, ok := m.layers[kind]; ok {
		return e.data
	}
	return nil
}

// Built reports whether kind has been built.
func (m *Manager) Built(kind domain.LayerKind) bool {
	e, ok := m.layers[kind]
	return ok && e.data != nil
}
