package domain

import (
	"fmt"
	"strings"
)

// LayerKind names a category of geometry rendered as one map layer.
type LayerKind string

const (
	LayerOutline   LayerKind = "outline"
	LayerRivers    LayerKind = "rivers"
	LayerCities    LayerKind = "cities"
	LayerRoads     LayerKind = "roads"
	LayerElevation LayerKind = "elevation"
)

// AllLayerKinds lists every layer kind in canonical order.
var AllLayerKinds = []LayerKind{
	LayerOutline,
	LayerRivers,
	LayerCities,
	LayerRoads,
	LayerElevation,
}

// Valid reports whether k is one of the known layer kinds.
func (k LayerKind) Valid() bool {
	for _, known := range AllLayerKinds {
		if k == known {
			return true
		}
	}
	return false
}

// ParseLayerKind converts a case-insensitive layer name into a LayerKind.
func ParseLayerKind(s string) (LayerKind, error) {
	k := LayerKind(strings.ToLower(strings.TrimSpace(s)))
	if !k.Valid() {
		return "", fmt.Errorf("unknown layer kind %q", s)
	}
	return k, nil
}

// ParseLayerKinds parses a comma-separated layer list as used in deep links.
// "all" selects every kind; empty input yields nil. Duplicates are collapsed
// and the result is in canonical order.
func ParseLayerKinds(s string) ([]LayerKind, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	if strings.EqualFold(s, "all") {
		return append([]LayerKind(nil), AllLayerKinds...), nil
	}

	seen := make(map[LayerKind]bool)
	for _, part := range strings.Split(s, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		k, err := ParseLayerKind(part)
		if err != nil {
			return nil, err
		}
		seen[k] = true
	}
	return SortLayerKinds(seen), nil
}

// SortLayerKinds returns the kinds present in set, in canonical order.
func SortLayerKinds(set map[LayerKind]bool) []LayerKind {
	out := make([]LayerKind, 0, len(set))
	for _, k := range AllLayerKinds {
		if set[k] {
			out = append(out, k)
		}
	}
	return out
}
