// Command sanitize checks a geoguess dataset directory: the location catalog
// parses, every catalog location has an outline, every .geojson file
// decodes, and no file carries geometry the sanitizer would drop. With
// -write, files that need sanitation are rewritten in place.
//
// Usage:
//
//	go run ./cmd/sanitize -data-dir data [-locations locations.json] [-write]
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/couchcryptid/geoguess-service/internal/domain"
	"github.com/couchcryptid/geoguess-service/internal/geo"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
	notes  []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) notef(format string, args ...any) {
	p.notes = append(p.notes, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

// fileReport is the sanitation result of one dataset file.
type fileReport struct {
	path             string
	positionsBefore  int
	positionsDropped int
	featuresBefore   int
	featuresDropped  int
	clean            *geo.Object
}

func (r fileReport) dirty() bool {
	return r.positionsDropped > 0 || r.featuresDropped > 0
}

func main() {
	dataDir := flag.String("data-dir", "", "dataset directory containing <CODE>/<layer>.geojson files")
	locations := flag.String("locations", "locations.json", "catalog file, relative to -data-dir")
	write := flag.Bool("write", false, "rewrite files that need sanitation")
	flag.Parse()

	if *dataDir == "" {
		flag.Usage()
		os.Exit(1)
	}

	os.Exit(run(os.Stdout, *dataDir, *locations, *write))
}

func run(out io.Writer, dataDir, locationsFile string, write bool) int {
	fmt.Fprintln(out, "=== Dataset Sanitation Check ===")
	fmt.Fprintln(out)

	files, err := geojsonFiles(dataDir)
	if err != nil {
		fmt.Fprintf(out, "FATAL: walk %s: %v\n", dataDir, err)
		return 1
	}

	catalogPhase := validateCatalog(dataDir, locationsFile)
	decodePhase, reports := decodeAll(dataDir, files)
	sanitizePhase := validateSanitation(dataDir, reports, write)
	phases := []*phase{catalogPhase, decodePhase, sanitizePhase}

	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Fprintf(out, "  %-42s %s\n", p.name, status)
	}

	var dropped int
	for _, r := range reports {
		dropped += r.positionsDropped
	}
	fmt.Fprintln(out)
	fmt.Fprintf(out, "Files: %d geojson, %d need sanitation, %d positions dropped\n",
		len(files), countDirty(reports), dropped)

	for _, p := range phases {
		if p.passed() && len(p.notes) == 0 {
			continue
		}
		fmt.Fprintf(out, "\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Fprintf(out, "  [%d] %s\n", i+1, e)
		}
		for _, n := range p.notes {
			fmt.Fprintf(out, "  %s\n", n)
		}
	}

	if allPassed {
		fmt.Fprintln(out, "\nAll checks passed.")
		return 0
	}
	fmt.Fprintln(out, "\nCheck FAILED.")
	return 1
}

// geojsonFiles lists the .geojson files under dir as slash paths relative to it.
func geojsonFiles(dir string) ([]string, error) {
	var files []string
	err := fs.WalkDir(os.DirFS(dir), ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.EqualFold(filepath.Ext(path), ".geojson") {
			files = append(files, path)
		}
		return nil
	})
	sort.Strings(files)
	return files, err
}

func validateCatalog(dataDir, locationsFile string) *phase {
	p := &phase{name: "Catalog"}

	data, err := os.ReadFile(filepath.Join(dataDir, locationsFile))
	if err != nil {
		p.errorf("read %s: %v", locationsFile, err)
		return p
	}
	catalog, err := domain.ParseCatalog(data)
	if err != nil {
		p.errorf("%s: %v", locationsFile, err)
		return p
	}
	for _, code := range catalog.Codes() {
		outline := filepath.Join(dataDir, code, "outline.geojson")
		if _, err := os.Stat(outline); err != nil {
			p.errorf("%s: missing outline.geojson", code)
		}
	}
	p.notef("%d locations", catalog.Len())
	return p
}

func decodeAll(dataDir string, files []string) (*phase, []fileReport) {
	p := &phase{name: "GeoJSON decode"}
	reports := make([]fileReport, 0, len(files))

	for _, path := range files {
		data, err := os.ReadFile(filepath.Join(dataDir, filepath.FromSlash(path)))
		if err != nil {
			p.errorf("%s: %v", path, err)
			continue
		}
		obj, err := geo.Decode(data)
		if err != nil {
			p.errorf("%s: %v", path, err)
			continue
		}
		reports = append(reports, sanitizeReport(path, obj))
	}
	return p, reports
}

func sanitizeReport(path string, obj *geo.Object) fileReport {
	clean := geo.Sanitize(obj)
	if clean == nil {
		clean = geo.NewFeatureCollection()
	}
	before, after := geo.CountPositions(obj), geo.CountPositions(clean)
	fb, fa := len(obj.FeatureList()), len(clean.FeatureList())
	return fileReport{
		path:             path,
		positionsBefore:  before,
		positionsDropped: before - after,
		featuresBefore:   fb,
		featuresDropped:  fb - fa,
		clean:            clean,
	}
}

func validateSanitation(dataDir string, reports []fileReport, write bool) *phase {
	p := &phase{name: "Geometry sanitation"}

	for _, r := range reports {
		if !r.dirty() {
			continue
		}
		summary := fmt.Sprintf("%s: %d/%d positions and %d/%d features dropped",
			r.path, r.positionsDropped, r.positionsBefore, r.featuresDropped, r.featuresBefore)
		if !write {
			p.errorf("%s", summary)
			continue
		}
		if err := writeJSON(filepath.Join(dataDir, filepath.FromSlash(r.path)), r.clean); err != nil {
			p.errorf("%s: rewrite: %v", r.path, err)
			continue
		}
		p.notef("rewrote %s", summary)
	}
	return p
}

func countDirty(reports []fileReport) int {
	n := 0
	for _, r := range reports {
		if r.dirty() {
			n++
		}
	}
	return n
}

// writeJSON replaces path atomically.
func writeJSON(path string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".sanitize-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
