package piece

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/joseph-ayodele/sheet-sorter/constants"
)

// MaxLabelLength caps piece labels so generated paths stay reasonable.
const MaxLabelLength = 40

var (
	reLabelStrip  = regexp.MustCompile(`[^\w\s-]`)
	reLabelSpaces = regexp.MustCompile(`[\s_]+`)
	ligatures     = strings.NewReplacer("ß", "ss", "æ", "ae", "Æ", "AE", "œ", "oe", "Œ", "OE", "ø", "o", "Ø", "O")
)

// foldAccents returns a fresh transformer; transform.Chain is stateful and
// must not be shared between goroutines.
func foldAccents() transform.Transformer {
	return transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
}

// SanitizeLabel turns free text into a folder-safe piece label: accents are
// folded to ASCII, anything but word characters, spaces and hyphens is
// dropped, whitespace becomes underscores and the result is capped.
// An empty result becomes Unknown_Piece. Applying it twice changes nothing.
func SanitizeLabel(s string) string {
	s = ligatures.Replace(s)
	if folded, _, err := transform.String(foldAccents(), s); err == nil {
		s = folded
	}
	s = reLabelStrip.ReplaceAllString(s, "")
	s = reLabelSpaces.ReplaceAllString(strings.TrimSpace(s), "_")
	s = strings.Trim(s, "_-")
	if len(s) > MaxLabelLength {
		s = strings.Trim(s[:MaxLabelLength], "_-")
	}
	if s == "" {
		return constants.UnknownPiece
	}
	return s
}
