package catalog

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"

	"github.com/joseph-ayodele/sheet-sorter/constants"
	"github.com/joseph-ayodele/sheet-sorter/internal/common"
)

//go:embed default.yaml
var defaultCatalog []byte

type rawRule struct {
	Pattern string `yaml:"pattern"`
	Label   string `yaml:"label"`
	Lang    string `yaml:"lang"`
	OCROnly bool   `yaml:"ocr_only"`
}

type rawLanguage struct {
	Lang       string   `yaml:"lang"`
	Indicators []string `yaml:"indicators"`
}

type rawCatalog struct {
	Version     string        `yaml:"version"`
	Instruments []rawRule     `yaml:"instruments"`
	Parts       []rawRule     `yaml:"parts"`
	Keys        []rawRule     `yaml:"keys"`
	Styles      []rawRule     `yaml:"styles"`
	Composers   []rawRule     `yaml:"composers"`
	TestFiles   []rawRule     `yaml:"test_files"`
	KnownPieces []rawRule     `yaml:"known_pieces"`
	Languages   []rawLanguage `yaml:"languages"`
}

// Language groups the indicator words used to guess a text's language.
type Language struct {
	Lang       string
	Indicators []Rule[string]
}

// Catalog is the compiled, read-only pattern table set. It is safe for
// concurrent use; nothing mutates it after Load returns.
type Catalog struct {
	version     string
	instruments []Rule[constants.Instrument]
	parts       []Rule[constants.Part]
	keys        []Rule[constants.Key]
	styles      []Rule[string]
	composers   []Rule[string]
	testFiles   []Rule[string]
	knownPieces []Rule[string]
	languages   []Language
}

var loadDefault = sync.OnceValues(func() (*Catalog, error) {
	return Load(defaultCatalog)
})

// Default returns the embedded catalog.
func Default() (*Catalog, error) {
	return loadDefault()
}

// LoadFile reads a catalog from a YAML file on disk.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return Load(data)
}

// Load validates a YAML catalog document and compiles its rules.
func Load(data []byte) (*Catalog, error) {
	if err := validate(data); err != nil {
		return nil, common.NewAppError("CATALOG_ERROR", err.Error(), common.ErrValidation)
	}

	var raw rawCatalog
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}

	c := &Catalog{version: raw.Version}
	var err error
	if c.instruments, err = compileRules("instruments", raw.Instruments, constants.ParseInstrument); err != nil {
		return nil, err
	}
	if c.parts, err = compileRules("parts", raw.Parts, constants.ParsePart); err != nil {
		return nil, err
	}
	if c.keys, err = compileRules("keys", raw.Keys, constants.ParseKey); err != nil {
		return nil, err
	}
	if c.styles, err = compileRules("styles", raw.Styles, parseString); err != nil {
		return nil, err
	}
	if c.composers, err = compileRules("composers", raw.Composers, parseString); err != nil {
		return nil, err
	}
	if c.testFiles, err = compileRules("test_files", raw.TestFiles, parseString); err != nil {
		return nil, err
	}
	if c.knownPieces, err = compileRules("known_pieces", raw.KnownPieces, parseString); err != nil {
		return nil, err
	}
	for _, l := range raw.Languages {
		entries := make([]rawRule, len(l.Indicators))
		for i, p := range l.Indicators {
			entries[i] = rawRule{Pattern: p, Label: l.Lang, Lang: l.Lang}
		}
		rules, err := compileRules("languages."+l.Lang, entries, parseString)
		if err != nil {
			return nil, err
		}
		c.languages = append(c.languages, Language{Lang: l.Lang, Indicators: rules})
	}
	return c, nil
}

var catalogSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	return common.CompileSchema("catalog.json", BuildCatalogSchema())
})

// validate round-trips YAML through a generic value so the JSON-Schema
// validator sees plain maps and slices.
func validate(data []byte) error {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parse catalog: %w", err)
	}
	b, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("catalog is not representable as JSON: %w", err)
	}
	schema, err := catalogSchema()
	if err != nil {
		return err
	}
	return common.ValidateJSON(schema, b)
}

// Version identifies the catalog revision, recorded in reports.
func (c *Catalog) Version() string { return c.version }

func (c *Catalog) Instrument(text string) (Rule[constants.Instrument], bool) {
	return First(c.instruments, text)
}

func (c *Catalog) Part(text string) (Rule[constants.Part], bool) {
	return First(c.parts, text)
}

// Key matches the key rules against the analysis text; rules marked
// ocr_only see only the OCR text.
func (c *Catalog) Key(text, ocrText string) (Rule[constants.Key], bool) {
	return FirstScoped(c.keys, text, ocrText)
}

func (c *Catalog) Style(text string) (Rule[string], bool) {
	return First(c.styles, text)
}

func (c *Catalog) Composer(text string) (Rule[string], bool) {
	return First(c.composers, text)
}

func (c *Catalog) KnownPiece(text string) (Rule[string], bool) {
	return First(c.knownPieces, text)
}

// TestKeyword returns the test-file keyword found in text, if any.
func (c *Catalog) TestKeyword(text string) (string, bool) {
	r, ok := First(c.testFiles, text)
	return r.Label, ok
}

// DetectLanguage counts indicator hits per language and returns the language
// with the most. Ties go to the language declared first.
func (c *Catalog) DetectLanguage(text string) (string, bool) {
	text = strings.ToLower(text)
	best, bestScore := "", 0
	for _, l := range c.languages {
		score := 0
		for _, r := range l.Indicators {
			if r.Match(text) {
				score++
			}
		}
		if score > bestScore {
			best, bestScore = l.Lang, score
		}
	}
	return best, bestScore > 0
}

// WithLanguages derives a catalog restricted to rules tagged with one of
// langs. Untagged rules are always kept.
func (c *Catalog) WithLanguages(langs ...string) *Catalog {
	set := make(map[string]struct{}, len(langs))
	for _, l := range langs {
		set[strings.ToLower(l)] = struct{}{}
	}
	out := &Catalog{
		version:     c.version + "+" + strings.Join(langs, ","),
		instruments: filterLang(c.instruments, set),
		parts:       filterLang(c.parts, set),
		keys:        filterLang(c.keys, set),
		styles:      filterLang(c.styles, set),
		composers:   filterLang(c.composers, set),
		testFiles:   c.testFiles,
		knownPieces: c.knownPieces,
	}
	for _, l := range c.languages {
		if _, ok := set[l.Lang]; ok {
			out.languages = append(out.languages, l)
		}
	}
	return out
}
