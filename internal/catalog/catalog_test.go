package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/sheet-sorter/constants"
	"github.com/joseph-ayodele/sheet-sorter/internal/common"
)

func mustDefault(t *testing.T) *Catalog {
	t.Helper()
	c, err := Default()
	require.NoError(t, err)
	return c
}

func TestDefaultCatalogLoads(t *testing.T) {
	c := mustDefault(t)
	assert.NotEmpty(t, c.Version())

	again, err := Default()
	require.NoError(t, err)
	assert.Same(t, c, again)
}

func TestInstrumentRules(t *testing.T) {
	c := mustDefault(t)

	tests := []struct {
		name string
		text string
		want constants.Instrument
	}{
		{"qualified clarinet", "1st bb clarinet", constants.Clarinet},
		{"ocr dropped b of bassoon", "assoon ii", constants.Bassoon},
		{"german trombone", "posaune in c", constants.Trombone},
		{"french horn in french", "cor en fa", constants.Horn},
		{"italian flute", "flauto primo", constants.Flute},
		{"german flute with umlaut", "flöte", constants.Flute},
		{"string bass label has a space", "string bass", constants.StringBass},
		{"cornet", "2nd bb cornet", constants.Cornet},
		{"baritone is read as euphonium before saxophone", "baritone saxophone", constants.Euphonium},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, ok := c.Instrument(tt.text)
			require.True(t, ok)
			assert.Equal(t, tt.want, r.Label)
		})
	}

	_, ok := c.Instrument("scan001")
	assert.False(t, ok)
}

func TestKeyRulesPreferFlats(t *testing.T) {
	c := mustDefault(t)

	tests := []struct {
		text string
		want constants.Key
	}{
		{"1st bb clarinet", constants.KeyBb},
		{"alto sax in e♭", constants.KeyEb},
		{"horn in a-flat", constants.KeyAb},
		{"klarinette in b dur", constants.KeyBb},
		{"horn in f", constants.KeyF},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			r, ok := c.Key(tt.text, tt.text)
			require.True(t, ok)
			assert.Equal(t, tt.want, r.Label)
		})
	}
}

func TestBareKeyLettersNeedOCRText(t *testing.T) {
	c := mustDefault(t)

	_, ok := c.Key("horn a", "")
	assert.False(t, ok, "a lone letter from filename words is not a key")

	r, ok := c.Key("horn in f horn a", "horn in f")
	require.True(t, ok)
	assert.Equal(t, constants.KeyF, r.Label)
	assert.True(t, r.OCROnly)

	r, ok = c.Key("waldhorn in f dur", "")
	require.True(t, ok, "spelled-out keys still count from the filename")
	assert.Equal(t, constants.KeyF, r.Label)
	assert.False(t, r.OCROnly)
}

func TestFirstUsesDeclarationOrder(t *testing.T) {
	doc := []byte(`
version: "test"
instruments:
  - { pattern: 'horn', label: Horn }
  - { pattern: 'french\s+horn', label: Tuba }
parts:
  - { pattern: '\bsolo\b', label: Solo }
keys:
  - { pattern: '\bf\b', label: F }
`)
	c, err := Load(doc)
	require.NoError(t, err)

	r, ok := c.Instrument("french horn")
	require.True(t, ok)
	assert.Equal(t, constants.Horn, r.Label, "the earlier, more generic rule wins")

	reordered := []byte(`
version: "test"
instruments:
  - { pattern: 'french\s+horn', label: Tuba }
  - { pattern: 'horn', label: Horn }
parts:
  - { pattern: '\bsolo\b', label: Solo }
keys:
  - { pattern: '\bf\b', label: F }
`)
	c, err = Load(reordered)
	require.NoError(t, err)
	r, _ = c.Instrument("french horn")
	assert.Equal(t, constants.Tuba, r.Label)
}

func TestLoadRejectsInvalidCatalogs(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{
			name: "missing version",
			doc: `
instruments: [{ pattern: 'x', label: Horn }]
parts: [{ pattern: 'x', label: Solo }]
keys: [{ pattern: 'x', label: F }]`,
		},
		{
			name: "instrument outside the closed set",
			doc: `
version: "1"
instruments: [{ pattern: 'kazoo', label: Kazoo }]
parts: [{ pattern: 'x', label: Solo }]
keys: [{ pattern: 'x', label: F }]`,
		},
		{
			name: "unknown field",
			doc: `
version: "1"
instruments: [{ pattern: 'x', label: Horn, weight: 3 }]
parts: [{ pattern: 'x', label: Solo }]
keys: [{ pattern: 'x', label: F }]`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load([]byte(tt.doc))
			require.Error(t, err)
			assert.ErrorIs(t, err, common.ErrValidation)
			assert.Equal(t, "CATALOG_ERROR", common.ErrorCode(err))
		})
	}

	_, err := Load([]byte(`
version: "1"
instruments: [{ pattern: '(unclosed', label: Horn }]
parts: [{ pattern: 'x', label: Solo }]
keys: [{ pattern: 'x', label: F }]`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "instruments[0]")
}

func TestDetectLanguage(t *testing.T) {
	c := mustDefault(t)

	tests := []struct {
		text string
		want string
		ok   bool
	}{
		{"Marsch für Blasorchester und Chor von Strauss", "de", true},
		{"March of the Toys for band by Herbert", "en", true},
		{"la", "fr", true},
		{"12 34", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got, ok := c.DetectLanguage(tt.text)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestWithLanguagesKeepsUntaggedRules(t *testing.T) {
	c := mustDefault(t)
	de := c.WithLanguages("de")

	_, ok := de.Instrument("clarinet")
	assert.False(t, ok)

	r, ok := de.Instrument("klarinette")
	require.True(t, ok)
	assert.Equal(t, constants.Clarinet, r.Label)

	p, ok := de.Part("solo")
	require.True(t, ok)
	assert.Equal(t, constants.PartSolo, p.Label)

	assert.NotEqual(t, c.Version(), de.Version())
	_, stillOK := c.Instrument("clarinet")
	assert.True(t, stillOK, "deriving a catalog leaves the original untouched")
}

func TestTestKeywordAndKnownPieces(t *testing.T) {
	c := mustDefault(t)

	kw, ok := c.TestKeyword("trombone test")
	require.True(t, ok)
	assert.Equal(t, "test", kw)

	_, ok = c.TestKeyword("trombone contest")
	assert.False(t, ok)

	r, ok := c.KnownPiece("/scans/feodora/clarinet.pdf")
	require.True(t, ok)
	assert.Equal(t, "Feodora_Ouverture", r.Label)

	r, ok = c.KnownPiece("/scans/batch/3.pdf")
	require.True(t, ok)
	assert.Equal(t, "Numbered_Collection", r.Label)
}
