// Package piece decides which musical work a scanned part belongs to.
package piece

import (
	"path/filepath"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/joseph-ayodele/sheet-sorter/constants"
	"github.com/joseph-ayodele/sheet-sorter/internal/catalog"
	"github.com/joseph-ayodele/sheet-sorter/internal/ocr"
)

// Source names the heuristic that produced an identity's label.
type Source string

const (
	SourceTitle         Source = "title"
	SourceComposerStyle Source = "composer+style"
	SourceStyle         Source = "style"
	SourceComposer      Source = "composer"
	SourceKnownPiece    Source = "known_piece"
	SourceRegistry      Source = "registry"
	SourceNone          Source = "none"
)

// Identity is the piece a file was assigned to. Label is always non-empty
// and safe to use as a single path segment.
type Identity struct {
	Label      string
	Title      string
	Composer   string
	Style      string
	Opus       string
	Arranger   string
	Language   string
	Confidence constants.Confidence
	Source     Source
	Adopted    bool
}

// IsUnknown reports whether no piece could be inferred.
func (id Identity) IsUnknown() bool { return id.Label == constants.UnknownPiece }

const (
	titleScanLines = 5
	titleMinLen    = 5
	titleMaxLen    = 45
)

var (
	reDigit      = regexp.MustCompile(`\d`)
	reTitleStrip = regexp.MustCompile(`[^\pL\pN_\s\-.&]`)
	reSpaces     = regexp.MustCompile(`\s+`)
	reArranger   = regexp.MustCompile(`\b(?:arr\.|arr\b|arranged by)\s*:?\s*([\pL][\pL.\s]*)`)
	reOpus       = regexp.MustCompile(`\bop\.?\s*(\d+)`)
)

// Resolver infers piece identities from OCR text and source paths.
type Resolver struct {
	catalog *catalog.Catalog
}

func NewResolver(c *catalog.Catalog) *Resolver {
	return &Resolver{catalog: c}
}

// Resolve applies the heuristics in priority order: a title line from the top
// of the page (HIGH), composer with style, style alone, composer alone
// (MEDIUM), then known-piece fallbacks or Unknown_Piece (LOW). With a
// registry, a LOW result adopts the label already established for the same
// source directory.
func (r *Resolver) Resolve(rawOCR, sourcePath string, reg *Registry) Identity {
	combined := ocr.AnalysisText(rawOCR, filepath.Base(sourcePath))
	lines := leadingLines(rawOCR, titleScanLines)

	id := Identity{Confidence: constants.ConfidenceLow, Source: SourceNone}
	if lang, ok := r.catalog.DetectLanguage(rawOCR); ok {
		id.Language = lang
	}
	if s, ok := r.catalog.Style(combined); ok {
		id.Style = s.Label
	}
	if c, ok := r.catalog.Composer(combined); ok {
		id.Composer = c.Label
	}
	id.Arranger = arrangerCredit(rawOCR, combined)
	if m := reOpus.FindStringSubmatch(combined); m != nil {
		id.Opus = "Op. " + m[1]
	}
	id.Title = r.titleLine(lines)

	switch {
	case id.Title != "":
		id.Label, id.Confidence, id.Source = SanitizeLabel(id.Title), constants.ConfidenceHigh, SourceTitle
	case id.Composer != "" && id.Style != "":
		id.Label, id.Confidence, id.Source = SanitizeLabel(id.Composer+"_"+id.Style), constants.ConfidenceMedium, SourceComposerStyle
	case id.Style != "":
		id.Label, id.Confidence, id.Source = SanitizeLabel(id.Style), constants.ConfidenceMedium, SourceStyle
	case id.Composer != "":
		id.Label, id.Confidence, id.Source = SanitizeLabel(id.Composer), constants.ConfidenceMedium, SourceComposer
	default:
		id.Label = constants.UnknownPiece
		if label, ok := r.knownPiece(lines, sourcePath); ok {
			id.Label, id.Source = SanitizeLabel(label), SourceKnownPiece
		}
	}

	if reg == nil {
		return id
	}
	if id.Confidence == constants.ConfidenceLow {
		if label, ok := reg.Established(filepath.Dir(sourcePath)); ok && label != id.Label {
			id.Label, id.Source, id.Adopted = label, SourceRegistry, true
		}
	}
	id.Label = reg.Canonical(id.Label)
	return id
}

// titleLine returns the first leading line that reads like a title: no
// digits, not an instrument or part heading, not an arranger or composer
// credit, at least two words, starting
// with an uppercase letter and 5 to 45 characters long once stray symbols
// are removed.
func (r *Resolver) titleLine(lines []string) string {
	for _, line := range lines {
		if reDigit.MatchString(line) {
			continue
		}
		lower := strings.ToLower(line)
		if _, ok := r.catalog.Instrument(lower); ok {
			continue
		}
		if _, ok := r.catalog.Part(lower); ok {
			continue
		}
		if reArranger.MatchString(lower) {
			continue
		}
		if _, ok := r.catalog.Composer(lower); ok {
			continue
		}
		cand := strings.TrimSpace(reSpaces.ReplaceAllString(reTitleStrip.ReplaceAllString(line, ""), " "))
		n := utf8.RuneCountInString(cand)
		if n < titleMinLen || n > titleMaxLen || len(strings.Fields(cand)) < 2 {
			continue
		}
		if first, _ := utf8.DecodeRuneInString(cand); !unicode.IsUpper(first) {
			continue
		}
		return titleCase(cand)
	}
	return ""
}

func (r *Resolver) knownPiece(lines []string, sourcePath string) (string, bool) {
	for _, line := range lines {
		if k, ok := r.catalog.KnownPiece(strings.ToLower(line)); ok {
			return k.Label, true
		}
	}
	if k, ok := r.catalog.KnownPiece(strings.ToLower(filepath.ToSlash(sourcePath))); ok {
		return k.Label, true
	}
	return "", false
}

// arrangerCredit looks for an arranger line in the OCR text before falling
// back to the combined text, so a credit never runs into the next line.
func arrangerCredit(rawOCR, combined string) string {
	for _, line := range strings.Split(rawOCR, "\n") {
		if m := reArranger.FindStringSubmatch(strings.ToLower(line)); m != nil {
			return arranger(m[1])
		}
	}
	if m := reArranger.FindStringSubmatch(combined); m != nil {
		return arranger(m[1])
	}
	return ""
}

// arranger keeps at most three words of the captured name.
func arranger(raw string) string {
	words := strings.Fields(raw)
	if len(words) > 3 {
		words = words[:3]
	}
	return titleCase(strings.Join(words, " "))
}

func titleCase(s string) string {
	return cases.Title(language.Und).String(s)
}

func leadingLines(text string, n int) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line == "" {
			continue
		}
		out = append(out, line)
		if len(out) == n {
			break
		}
	}
	return out
}
