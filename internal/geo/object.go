// Package geo decodes, sanitizes and measures GeoJSON payloads before they
// reach the map renderer.
//
// Payloads come from static per-location datasets that were shaped by batch
// scripts from several upstream sources, so they are decoded loosely: a
// single Object type covers geometries, features and feature collections,
// and coordinates stay untyped until Sanitize turns them into Position
// slices. One non-finite coordinate is enough to poison a renderer's bounds
// computation, so everything handed to a layer goes through Sanitize first.
package geo

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// GeoJSON object types.
const (
	TypePoint              = "Point"
	TypeMultiPoint         = "MultiPoint"
	TypeLineString         = "LineString"
	TypeMultiLineString    = "MultiLineString"
	TypePolygon            = "Polygon"
	TypeMultiPolygon       = "MultiPolygon"
	TypeGeometryCollection = "GeometryCollection"
	TypeFeature            = "Feature"
	TypeFeatureCollection  = "FeatureCollection"
)

var canonicalTypes = map[string]string{
	"point":              TypePoint,
	"multipoint":         TypeMultiPoint,
	"linestring":         TypeLineString,
	"multilinestring":    TypeMultiLineString,
	"polygon":            TypePolygon,
	"multipolygon":       TypeMultiPolygon,
	"geometrycollection": TypeGeometryCollection,
	"feature":            TypeFeature,
	"featurecollection":  TypeFeatureCollection,
}

// Position is a [lon, lat] pair.
type Position [2]float64

// Lon returns the longitude.
func (p Position) Lon() float64 { return p[0] }

// Lat returns the latitude.
func (p Position) Lat() float64 { return p[1] }

// Object is a loosely typed GeoJSON node. Only the fields relevant to Type
// are meaningful. After Sanitize, Coordinates holds Position, []Position,
// [][]Position or [][][]Position depending on the geometry type.
type Object struct {
	Type        string         `json:"type"`
	ID          any            `json:"id,omitempty"`
	Properties  map[string]any `json:"properties,omitempty"`
	Coordinates any            `json:"coordinates,omitempty"`
	Geometry    *Object        `json:"geometry,omitempty"`
	Geometries  []*Object      `json:"geometries,omitempty"`
	Features    []*Object      `json:"features,omitempty"`
}

// Decode parses a GeoJSON document. Structural problems inside the document
// are left for Sanitize; only input that is not a JSON object fails.
func Decode(data []byte) (*Object, error) {
	var o Object
	if err := o.UnmarshalJSON(data); err != nil {
		return nil, fmt.Errorf("decode geojson: %w", err)
	}
	return &o, nil
}

// UnmarshalJSON decodes o leniently. Numbers are kept as json.Number so an
// out-of-range literal such as 1e999 reaches Sanitize as one invalid
// position. Members of the wrong JSON type are dropped: a non-object
// "properties" becomes nil, and a non-object entry of "features" or
// "geometries" becomes a nil element.
func (o *Object) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return err
	}
	m, ok := v.(map[string]any)
	if !ok {
		return fmt.Errorf("want a JSON object, got %T", v)
	}
	*o = *objectFrom(m)
	return nil
}

func objectFrom(m map[string]any) *Object {
	o := &Object{
		ID:          m["id"],
		Coordinates: m["coordinates"],
		Geometry:    memberObject(m["geometry"]),
		Geometries:  memberObjects(m["geometries"]),
		Features:    memberObjects(m["features"]),
	}
	o.Type, _ = m["type"].(string)
	o.Properties, _ = m["properties"].(map[string]any)
	return o
}

func memberObject(v any) *Object {
	m, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	return objectFrom(m)
}

func memberObjects(v any) []*Object {
	arr, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]*Object, len(arr))
	for i, e := range arr {
		out[i] = memberObject(e)
	}
	return out
}

// NewFeatureCollection wraps features in a FeatureCollection.
func NewFeatureCollection(features ...*Object) *Object {
	if features == nil {
		features = []*Object{}
	}
	return &Object{Type: TypeFeatureCollection, Features: features}
}

// Empty reports whether o carries nothing renderable.
func (o *Object) Empty() bool {
	if o == nil {
		return true
	}
	if canonicalType(o.Type) == TypeFeatureCollection {
		return len(o.Features) == 0
	}
	return false
}

// FeatureList returns the features of a collection, a feature as a
// one-element list, or a bare geometry wrapped in a feature.
func (o *Object) FeatureList() []*Object {
	if o == nil {
		return nil
	}
	switch canonicalType(o.Type) {
	case TypeFeatureCollection:
		return o.Features
	case TypeFeature:
		return []*Object{o}
	case "":
		return nil
	default:
		return []*Object{{Type: TypeFeature, Geometry: o}}
	}
}

// StringProperty returns a trimmed string property, or "".
func (o *Object) StringProperty(key string) string {
	if o == nil || o.Properties == nil {
		return ""
	}
	s, _ := o.Properties[key].(string)
	return strings.TrimSpace(s)
}

// MarshalJSON emits only the members valid for the object's type, and always
// emits "features" for collections and "properties" for features.
func (o *Object) MarshalJSON() ([]byte, error) {
	switch canonicalType(o.Type) {
	case TypeFeatureCollection:
		features := o.Features
		if features == nil {
			features = []*Object{}
		}
		return json.Marshal(struct {
			Type     string    `json:"type"`
			Features []*Object `json:"features"`
		}{TypeFeatureCollection, features})
	case TypeFeature:
		return json.Marshal(struct {
			Type       string         `json:"type"`
			ID         any            `json:"id,omitempty"`
			Properties map[string]any `json:"properties"`
			Geometry   *Object        `json:"geometry"`
		}{TypeFeature, o.ID, o.Properties, o.Geometry})
	case TypeGeometryCollection:
		geometries := o.Geometries
		if geometries == nil {
			geometries = []*Object{}
		}
		return json.Marshal(struct {
			Type       string    `json:"type"`
			Geometries []*Object `json:"geometries"`
		}{TypeGeometryCollection, geometries})
	default:
		return json.Marshal(struct {
			Type        string `json:"type"`
			Coordinates any    `json:"coordinates"`
		}{o.Type, o.Coordinates})
	}
}

func canonicalType(t string) string {
	if c, ok := canonicalTypes[strings.ToLower(strings.TrimSpace(t))]; ok {
		return c
	}
	return ""
}
