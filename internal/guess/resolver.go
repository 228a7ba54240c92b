// Package guess maps free-text guesses to location codes.
package guess

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"github.com/couchcryptid/geoguess-service/internal/domain"
)

// Resolver resolves guesses by exact code, then exact name or alias.
// Matching is case- and whitespace-insensitive; there is no fuzzy matching.
// A Resolver is immutable and safe for concurrent use.
type Resolver struct {
	byCode map[string]string
	byName map[string]string
}

// NewResolver indexes the locations of a catalog. When a name or alias is
// shared by several locations the first in code order wins.
func NewResolver(catalog *domain.Catalog) *Resolver {
	r := &Resolver{
		byCode: make(map[string]string, catalog.Len()),
		byName: make(map[string]string, catalog.Len()),
	}
	for _, loc := range catalog.Locations() {
		r.byCode[Normalize(loc.Code)] = loc.Code
	}
	for _, loc := range catalog.Locations() {
		names := append([]string{loc.Name}, loc.Aliases...)
		for _, name := range names {
			key := Normalize(name)
			if key == "" {
				continue
			}
			if _, taken := r.byName[key]; !taken {
				r.byName[key] = loc.Code
			}
		}
	}
	return r
}

// Resolve returns the code a guess refers to, or "" when it matches nothing
// or is blank.
func (r *Resolver) Resolve(raw string) string {
	key := Normalize(raw)
	if key == "" {
		return ""
	}
	if code, ok := r.byCode[key]; ok {
		return code
	}
	return r.byName[key]
}

// Normalize trims, composes and case-folds s, and collapses internal runs
// of whitespace to one space.
func Normalize(s string) string {
	s = norm.NFC.String(s)
	s = cases.Fold().String(s)
	return strings.Join(strings.Fields(s), " ")
}
