// Package classify derives instrument, part and key from OCR text and the
// source filename using the pattern catalog.
package classify

import (
	"strings"

	"github.com/joseph-ayodele/sheet-sorter/constants"
	"github.com/joseph-ayodele/sheet-sorter/internal/catalog"
	"github.com/joseph-ayodele/sheet-sorter/internal/ocr"
)

// Record is the result of one classification pass. Empty fields are unset.
type Record struct {
	Instrument constants.Instrument
	Part       constants.Part
	Key        constants.Key
	Confidence constants.Confidence
	Evidence   Evidence
}

// Evidence keeps the patterns that produced each field, for reports.
type Evidence struct {
	Instrument string
	Part       string
	Key        string
}

func (r Record) HasInstrument() bool { return r.Instrument != "" }
func (r Record) HasPart() bool       { return r.Part != "" }
func (r Record) HasKey() bool        { return r.Key != "" }

type Classifier struct {
	catalog *catalog.Catalog
}

func New(c *catalog.Catalog) *Classifier {
	return &Classifier{catalog: c}
}

// Catalog returns the catalog the classifier was built with.
func (c *Classifier) Catalog() *catalog.Catalog { return c.catalog }

// Classify applies the catalog to the normalized analysis text. Confidence is
// HIGH only when the winning instrument rule also matches the raw OCR text on
// its own, MEDIUM when the match needed the filename, LOW with no instrument.
func (c *Classifier) Classify(normalized, rawOCR string) Record {
	rec := Record{Confidence: constants.ConfidenceLow}

	if r, ok := c.catalog.Instrument(normalized); ok {
		rec.Instrument = r.Label
		rec.Evidence.Instrument = r.Pattern.String()
		rec.Confidence = constants.ConfidenceMedium
		if rawOCR != "" && r.Match(strings.ToLower(rawOCR)) {
			rec.Confidence = constants.ConfidenceHigh
		}
	}

	if r, ok := c.catalog.Part(normalized); ok {
		rec.Part = r.Label
		rec.Evidence.Part = r.Pattern.String()
	}

	if rec.Instrument.IsTransposing() {
		if r, ok := c.catalog.Key(normalized, ocr.TextKey(rawOCR)); ok {
			rec.Key = r.Label
			rec.Evidence.Key = r.Pattern.String()
		}
	}
	return rec
}

// ClassifyFile normalizes rawOCR plus filename and classifies the result.
func (c *Classifier) ClassifyFile(rawOCR, filename string) Record {
	return c.Classify(ocr.AnalysisText(rawOCR, filename), rawOCR)
}

// IsTestFile reports whether the bare filename marks scratch or sample
// material that belongs in the test archive.
func (c *Classifier) IsTestFile(filename string) bool {
	_, ok := c.catalog.TestKeyword(strings.ToLower(ocr.FilenameWords(filename)))
	return ok
}
