package layer

import (
	"strings"

	"github.com/couchcryptid/geoguess-service/internal/geo"
)

// RoadClassKey is the feature property holding a road's classification.
const RoadClassKey = "highway"

// RoadPriority orders road classes from most to least important.
var RoadPriority = []string{"motorway", "trunk", "primary", "secondary", "tertiary"}

// CapFirst keeps the first max features. A non-positive max disables the cap.
func CapFirst(features []*geo.Object, max int) []*geo.Object {
	if max <= 0 || len(features) <= max {
		return features
	}
	return features[:max]
}

// CapByClass keeps at most max features, filling priority-ordered class bins
// in turn. Features whose class is not in priority share a final bin. The
// bin that would overflow the remaining budget is stride-sampled so the
// kept features stay spread across the dataset instead of clustering at
// one end of it.
func CapByClass(features []*geo.Object, max int, classKey string, priority []string) []*geo.Object {
	if max <= 0 || len(features) <= max {
		return features
	}

	rank := make(map[string]int, len(priority))
	for i, class := range priority {
		rank[class] = i
	}
	bins := make([][]*geo.Object, len(priority)+1)
	for _, f := range features {
		i, ok := rank[roadClass(f, classKey)]
		if !ok {
			i = len(priority)
		}
		bins[i] = append(bins[i], f)
	}

	out := make([]*geo.Object, 0, max)
	remaining := max
	for _, bin := range bins {
		if remaining == 0 {
			break
		}
		if len(bin) <= remaining {
			out = append(out, bin...)
			remaining -= len(bin)
			continue
		}
		out = append(out, strideSample(bin, remaining)...)
		remaining = 0
	}
	return out
}

// roadClass normalises a class tag; "motorway_link" bins with "motorway".
func roadClass(f *geo.Object, key string) string {
	class := strings.ToLower(f.StringProperty(key))
	return strings.TrimSuffix(class, "_link")
}

// strideSample picks n items evenly spaced across items. n < len(items).
func strideSample(items []*geo.Object, n int) []*geo.Object {
	if n <= 0 {
		return nil
	}
	step := float64(len(items)) / float64(n)
	out := make([]*geo.Object, n)
	for i := range out {
		out[i] = items[int(float64(i)*step)]
	}
	return out
}
