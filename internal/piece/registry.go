package piece

import (
	"slices"
	"strings"

	"github.com/joseph-ayodele/sheet-sorter/constants"
)

// Registry tracks the piece labels established during one batch so that
// files of the same piece end up under one spelling, and weakly identified
// files can inherit the label of their neighbours. It is not safe for
// concurrent use.
type Registry struct {
	canonical map[string]string // lowercased label -> first spelling seen
	byDir     map[string]string // source directory -> last established label
	counts    map[string]int
}

func NewRegistry() *Registry {
	return &Registry{
		canonical: make(map[string]string),
		byDir:     make(map[string]string),
		counts:    make(map[string]int),
	}
}

// Canonical returns the spelling already recorded for label, ignoring case,
// or label itself when it is new.
func (r *Registry) Canonical(label string) string {
	if c, ok := r.canonical[strings.ToLower(label)]; ok {
		return c
	}
	return label
}

// Established returns the label most recently recorded with MEDIUM or HIGH
// confidence for files from dir.
func (r *Registry) Established(dir string) (string, bool) {
	label, ok := r.byDir[dir]
	return label, ok
}

// Record notes that a file from dir was placed under id. Call it only after
// the file has actually been placed.
func (r *Registry) Record(dir string, id Identity) {
	if id.Label == "" {
		return
	}
	key := strings.ToLower(id.Label)
	if _, ok := r.canonical[key]; !ok {
		r.canonical[key] = id.Label
	}
	label := r.canonical[key]
	r.counts[label]++
	if id.Label != constants.UnknownPiece && id.Confidence.Rank() >= constants.ConfidenceMedium.Rank() {
		r.byDir[dir] = label
	}
}

// Labels returns the distinct known labels, excluding Unknown_Piece, sorted.
func (r *Registry) Labels() []string {
	out := make([]string, 0, len(r.counts))
	for label := range r.counts {
		if label != constants.UnknownPiece {
			out = append(out, label)
		}
	}
	slices.Sort(out)
	return out
}

// Count returns how many placed files were recorded under label.
func (r *Registry) Count(label string) int {
	return r.counts[r.Canonical(label)]
}
