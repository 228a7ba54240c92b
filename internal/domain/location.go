package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Location is a guessable country.
type Location struct {
	Code    string   `json:"code"`
	Name    string   `json:"name"`
	Aliases []string `json:"aliases,omitempty"`
}

// Catalog is the immutable set of known locations, indexed by code.
type Catalog struct {
	locations []Location
	byCode    map[string]Location
}

// NewCatalog validates and indexes locations. Codes are upper-cased; a
// blank or duplicate code is an error.
func NewCatalog(locations []Location) (*Catalog, error) {
	if len(locations) == 0 {
		return nil, errors.New("catalog has no locations")
	}

	c := &Catalog{
		locations: make([]Location, 0, len(locations)),
		byCode:    make(map[string]Location, len(locations)),
	}
	for i, loc := range locations {
		loc.Code = strings.ToUpper(strings.TrimSpace(loc.Code))
		loc.Name = strings.TrimSpace(loc.Name)
		if loc.Code == "" {
			return nil, fmt.Errorf("location %d: empty code", i)
		}
		if _, dup := c.byCode[loc.Code]; dup {
			return nil, fmt.Errorf("location %d: duplicate code %q", i, loc.Code)
		}
		if loc.Name == "" {
			loc.Name = loc.Code
		}
		c.byCode[loc.Code] = loc
		c.locations = append(c.locations, loc)
	}
	sort.Slice(c.locations, func(i, j int) bool {
		return c.locations[i].Code < c.locations[j].Code
	})
	return c, nil
}

// ParseCatalog decodes a JSON array of locations.
func ParseCatalog(data []byte) (*Catalog, error) {
	var locations []Location
	if err := json.Unmarshal(data, &locations); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	return NewCatalog(locations)
}

// Locations returns every location sorted by code.
func (c *Catalog) Locations() []Location {
	return append([]Location(nil), c.locations...)
}

// Codes returns every code sorted.
func (c *Catalog) Codes() []string {
	codes := make([]string, len(c.locations))
	for i, loc := range c.locations {
		codes[i] = loc.Code
	}
	return codes
}

// Lookup returns the location with the given code (case-insensitive).
func (c *Catalog) Lookup(code string) (Location, bool) {
	loc, ok := c.byCode[strings.ToUpper(strings.TrimSpace(code))]
	return loc, ok
}

// Len returns the number of locations.
func (c *Catalog) Len() int { return len(c.locations) }
