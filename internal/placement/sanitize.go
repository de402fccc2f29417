package placement

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/joseph-ayodele/sheet-sorter/constants"
)

// MaxFilenameLength caps generated file stems, in runes.
const MaxFilenameLength = 120

var (
	reReserved   = regexp.MustCompile(`[<>:"/\\|?*\x00-\x1f\x7f]`)
	reUnderscore = regexp.MustCompile(`[\s_]+`)
)

// SanitizeFilename strips characters that are reserved on common
// filesystems, turns whitespace into single underscores and trims leading
// and trailing separators and dots. It is idempotent.
func SanitizeFilename(s string) string {
	s = reReserved.ReplaceAllString(s, "")
	s = reUnderscore.ReplaceAllString(s, "_")
	s = strings.Trim(s, "_. ")
	if utf8.RuneCountInString(s) > MaxFilenameLength {
		s = strings.Trim(string([]rune(s)[:MaxFilenameLength]), "_. ")
	}
	if s == "" {
		return constants.UnknownDir
	}
	return s
}
