package layer

import (
	"strings"

	"github.com/couchcryptid/geoguess-service/internal/geo"
)

// adminSuffixes are stripped from place names to build city labels,
// longest first so "City Municipality" wins over "Municipality".
var adminSuffixes = []string{
	"Metropolitan Municipality",
	"District Municipality",
	"Local Municipality",
	"City Municipality",
	"Urban District",
	"Municipality",
	"Town Council",
	"Township",
	"Borough",
	"Village",
	"Town",
}

// cityNameKeys are the property names tried, in order, for a place name.
var cityNameKeys = []string{"name", "NAME", "name_en", "label"}

// CityLabel strips administrative suffixes from a place name until none
// match. A suffix only matches as a whole trailing word, and is never
// stripped when it is the entire name.
func CityLabel(name string) string {
	name = strings.TrimSpace(name)
	for {
		stripped := false
		for _, suffix := range adminSuffixes {
			cut := len(name) - len(suffix)
			if cut <= 1 || name[cut-1] != ' ' {
				continue
			}
			if strings.EqualFold(name[cut:], suffix) {
				name = strings.TrimSpace(name[:cut])
				stripped = true
				break
			}
		}
		if !stripped {
			return name
		}
	}
}

func cityName(f *geo.Object) string {
	for _, key := range cityNameKeys {
		if v := f.StringProperty(key); v != "" {
			return v
		}
	}
	return ""
}
