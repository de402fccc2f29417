package constants

import "strings"

// AllowedExtensions holds the file extensions picked up by discovery.
var AllowedExtensions = map[string]struct{}{
	"pdf": {},
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// IsAllowedExt reports whether ext (with or without dot) is accepted.
func IsAllowedExt(ext string) bool {
	_, ok := AllowedExtensions[NormalizeExt(ext)]
	return ok
}

const (
	// UnknownPiece is the label used when no piece identity could be inferred.
	UnknownPiece = "Unknown_Piece"
	// UnknownDir collects files with no detected instrument.
	UnknownDir = "Unknown"
	// TestArchiveDir receives files whose names mark them as test material.
	TestArchiveDir = "archive/test_files"
)
