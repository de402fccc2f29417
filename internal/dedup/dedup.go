// Package dedup detects files already placed earlier in the same run, either
// byte-identical (exact) or with the same normalized OCR text (near).
package dedup

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/joseph-ayodele/sheet-sorter/constants"
	"github.com/joseph-ayodele/sheet-sorter/internal/ocr"
)

// FileRecord is the registry entry for a placed file.
type FileRecord struct {
	Path         string
	PlacedPath   string
	Size         int64
	ContentHash  string
	TextHash     string
	Instrument   constants.Instrument
	Part         constants.Part
	Key          constants.Key
	RegisteredAt time.Time
}

// Match describes a duplicate hit.
type Match struct {
	Kind     constants.DuplicateKind
	Original FileRecord
}

// Candidate is what a new file is checked with.
type Candidate struct {
	Path        string
	ContentHash string
	TextHash    string
}

// Registry holds the files placed so far in one run, or across the runs of a
// watch session when the caller shares it. It lives in memory only.
// Not safe for concurrent use.
type Registry struct {
	byContent map[string]FileRecord
	byText    map[string]FileRecord
	order     []string
}

func NewRegistry() *Registry {
	return &Registry{
		byContent: make(map[string]FileRecord),
		byText:    make(map[string]FileRecord),
	}
}

// Check looks for an exact duplicate first, then a near duplicate. A file
// never matches a record registered under its own path.
func (r *Registry) Check(c Candidate) (Match, bool) {
	self := filepath.Clean(c.Path)
	if c.ContentHash != "" {
		if rec, ok := r.byContent[c.ContentHash]; ok && rec.Path != self {
			return Match{Kind: constants.DuplicateExact, Original: rec}, true
		}
	}
	if c.TextHash != "" {
		if rec, ok := r.byText[c.TextHash]; ok && rec.Path != self {
			return Match{Kind: constants.DuplicateNear, Original: rec}, true
		}
	}
	return Match{}, false
}

// Register records a placed file. The first file seen for a hash stays the
// original; later registrations do not replace it.
func (r *Registry) Register(rec FileRecord) {
	rec.Path = filepath.Clean(rec.Path)
	if rec.RegisteredAt.IsZero() {
		rec.RegisteredAt = time.Now()
	}
	if rec.ContentHash != "" {
		if _, ok := r.byContent[rec.ContentHash]; !ok {
			r.byContent[rec.ContentHash] = rec
		}
	}
	if rec.TextHash != "" {
		if _, ok := r.byText[rec.TextHash]; !ok {
			r.byText[rec.TextHash] = rec
		}
	}
	r.order = append(r.order, rec.Path)
}

// Len returns the number of registrations.
func (r *Registry) Len() int { return len(r.order) }

// HashFile returns the hex MD5 of the file's contents and its size.
func HashFile(path string) (string, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", 0, fmt.Errorf("open for hashing: %w", err)
	}
	defer f.Close()

	h := md5.New()
	n, err := io.Copy(h, f)
	if err != nil {
		return "", 0, fmt.Errorf("hash %s: %w", filepath.Base(path), err)
	}
	return hex.EncodeToString(h.Sum(nil)), n, nil
}

// HashText returns the near-duplicate key for OCR text; empty text yields "".
func HashText(ocrText string) string {
	return ocr.TextHash(ocrText)
}
