package guess

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/geoguess-service/internal/domain"
)

func testResolver(t *testing.T) *Resolver {
	t.Helper()
	cat, err := domain.NewCatalog([]domain.Location{
		{Code: "BRA", Name: "Brazil"},
		{Code: "CIV", Name: "Côte d'Ivoire", Aliases: []string{"Ivory Coast"}},
		{Code: "DEU", Name: "Germany", Aliases: []string{"Deutschland"}},
		{Code: "GBR", Name: "United Kingdom", Aliases: []string{"UK", "Britain"}},
		{Code: "UKR", Name: "Ukraine"},
	})
	require.NoError(t, err)
	return NewResolver(cat)
}

func TestResolve(t *testing.T) {
	r := testResolver(t)

	tests := []struct {
		input string
		want  string
	}{
		{"BRA", "BRA"},
		{"bra", "BRA"},
		{"brazil", "BRA"},
		{" BrAzIl ", "BRA"},
		{"united   kingdom", "GBR"},
		{"uk", "GBR"},
		{"Ukr", "UKR"},
		{"ivory coast", "CIV"},
		{"CÔTE D'IVOIRE", "CIV"},
		{"Côte d'Ivoire", "CIV"},
		{"DEUTSCHLAND", "DEU"},
		{"Brazi", ""},
		{"", ""},
		{"   ", ""},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, r.Resolve(tt.input))
		})
	}
}

func TestResolve_CodeBeatsName(t *testing.T) {
	cat, err := domain.NewCatalog([]domain.Location{
		{Code: "AAA", Name: "BBB"},
		{Code: "BBB", Name: "Other"},
	})
	require.NoError(t, err)

	assert.Equal(t, "BBB", NewResolver(cat).Resolve("bbb"))
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "strasse", Normalize("  STRASSE  "))
	assert.Equal(t, Normalize("STRASSE"), Normalize("straße"))
	assert.Equal(t, Normalize("C\u00f4te"), Normalize("Co\u0302te"), "decomposed input is composed first")
	assert.Equal(t, "new zealand", Normalize("New\tZealand"))
	assert.Equal(t, Normalize("ÉIRE"), Normalize("éire"))
}
