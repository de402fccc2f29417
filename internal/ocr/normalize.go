package ocr

import (
	"crypto/md5"
	"encoding/hex"
	"path/filepath"
	"regexp"
	"strings"
)

var (
	reCRLF       = regexp.MustCompile(`\r\n?`)
	reTabs       = regexp.MustCompile(`\t+`)
	reMultiSpace = regexp.MustCompile(` {2,}`)
	reMultiBlank = regexp.MustCompile(`\n{3,}`)
	reBoxNoise   = regexp.MustCompile(`(?m)^[ \t]*[_\-=~]{3,}[ \t]*$`)
	reWhitespace = regexp.MustCompile(`\s+`)
)

// filenameSeparators are turned into spaces so names like "trombone_test.pdf"
// expose their words to \b-anchored patterns.
var filenameSeparators = strings.NewReplacer("_", " ", "-", " ", ".", " ", "+", " ")

// Clean collapses noisy whitespace in raw OCR output. Line breaks are kept
// because title detection works line by line.
func Clean(s string) string {
	if s == "" {
		return s
	}
	s = reCRLF.ReplaceAllString(s, "\n")
	s = strings.ReplaceAll(s, "\f", "\n")
	s = reTabs.ReplaceAllString(s, " ")
	s = reMultiSpace.ReplaceAllString(s, " ")
	s = reBoxNoise.ReplaceAllString(s, "")
	s = reMultiBlank.ReplaceAllString(s, "\n\n")
	lines := strings.Split(s, "\n")
	for i := range lines {
		lines[i] = strings.TrimRight(lines[i], " ")
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// FilenameWords returns the base name without extension, with separator
// characters replaced by spaces.
func FilenameWords(filename string) string {
	base := filepath.Base(filename)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return strings.TrimSpace(filenameSeparators.Replace(stem))
}

// AnalysisText builds the single lowercase string classification runs on:
// OCR text followed by the filename words, whitespace collapsed. Empty OCR
// text degrades to the filename alone.
func AnalysisText(ocrText, filename string) string {
	return collapse(ocrText + " " + FilenameWords(filename))
}

// TextKey is the canonical form of OCR text used for near-duplicate hashing.
func TextKey(ocrText string) string {
	return collapse(ocrText)
}

// TextHash returns the first 16 hex chars of the MD5 of TextKey, or "" when
// there is no text to compare.
func TextHash(ocrText string) string {
	key := TextKey(ocrText)
	if key == "" {
		return ""
	}
	sum := md5.Sum([]byte(key))
	return hex.EncodeToString(sum[:])[:16]
}

func collapse(s string) string {
	return strings.TrimSpace(reWhitespace.ReplaceAllString(strings.ToLower(s), " "))
}
