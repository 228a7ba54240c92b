// Command splitcountries turns a world countries GeoJSON file (Natural Earth
// admin-0 style) into a geoguess dataset skeleton: one
// <out>/<CODE>/outline.geojson per country plus <out>/locations.json. The
// other layers are expected to be added per country afterwards.
//
// Usage:
//
//	go run ./cmd/splitcountries -in ne_50m_admin_0_countries.geojson -out data
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/couchcryptid/geoguess-service/internal/domain"
	"github.com/couchcryptid/geoguess-service/internal/geo"
)

// Natural Earth marks countries without an assigned code with "-99".
const unassignedCode = "-99"

type options struct {
	in        string
	out       string
	codeProps []string
	nameProp  string
	aliasProp string
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	in := flag.String("in", "", "countries FeatureCollection to split")
	out := flag.String("out", "", "dataset output directory")
	codeProps := flag.String("code-props", "ISO_A3,ADM0_A3", "comma-separated properties tried in order for the country code")
	nameProp := flag.String("name-prop", "NAME", "property holding the display name")
	aliasProp := flag.String("alias-prop", "NAME_LONG", "property holding an alternative name (empty to disable)")
	flag.Parse()

	if *in == "" || *out == "" {
		flag.Usage()
		return fmt.Errorf("missing required flags: -in, -out")
	}

	opts := options{
		in:        *in,
		out:       *out,
		codeProps: splitList(*codeProps),
		nameProp:  *nameProp,
		aliasProp: *aliasProp,
	}
	return split(opts)
}

func split(opts options) error {
	data, err := os.ReadFile(opts.in)
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}
	obj, err := geo.Decode(data)
	if err != nil {
		return fmt.Errorf("decode %s: %w", opts.in, err)
	}

	countries, skipped := group(obj, opts)
	if len(countries) == 0 {
		return fmt.Errorf("no countries with a usable code in %s", opts.in)
	}
	log.Printf("%d countries, %d features skipped", len(countries), skipped)

	codes := make([]string, 0, len(countries))
	for code := range countries {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	locations := make([]domain.Location, 0, len(codes))
	for _, code := range codes {
		c := countries[code]
		path := filepath.Join(opts.out, code, "outline.geojson")
		if err := writeJSON(path, geo.NewFeatureCollection(c.features...)); err != nil {
			return fmt.Errorf("writing %s: %w", path, err)
		}
		locations = append(locations, c.location)
	}

	// Round-trip through the catalog so the tool never writes a file the
	// service would refuse to load.
	if _, err := domain.NewCatalog(locations); err != nil {
		return fmt.Errorf("build catalog: %w", err)
	}
	path := filepath.Join(opts.out, "locations.json")
	if err := writeJSON(path, locations); err != nil {
		return fmt.Errorf("writing catalog: %w", err)
	}
	log.Printf("wrote catalog: %s", path)
	return nil
}

type country struct {
	location domain.Location
	features []*geo.Object
}

// group sanitizes every feature and buckets it by country code. Features
// without a usable code or geometry are counted as skipped.
func group(obj *geo.Object, opts options) (map[string]*country, int) {
	countries := make(map[string]*country)
	skipped := 0
	for _, f := range obj.FeatureList() {
		code := featureCode(f, opts.codeProps)
		clean := geo.Sanitize(f)
		if code == "" || clean == nil {
			skipped++
			continue
		}

		c, ok := countries[code]
		if !ok {
			c = &country{location: domain.Location{Code: code, Name: f.StringProperty(opts.nameProp)}}
			if c.location.Name == "" {
				c.location.Name = code
			}
			countries[code] = c
		}
		if opts.aliasProp != "" {
			addAlias(&c.location, f.StringProperty(opts.aliasProp))
		}
		c.features = append(c.features, clean)
	}
	return countries, skipped
}

func featureCode(f *geo.Object, props []string) string {
	for _, p := range props {
		code := strings.ToUpper(f.StringProperty(p))
		if code != "" && code != unassignedCode {
			return code
		}
	}
	return ""
}

func addAlias(loc *domain.Location, alias string) {
	if alias == "" || strings.EqualFold(alias, loc.Name) {
		return
	}
	for _, a := range loc.Aliases {
		if strings.EqualFold(a, alias) {
			return
		}
	}
	loc.Aliases = append(loc.Aliases, alias)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o600)
}
