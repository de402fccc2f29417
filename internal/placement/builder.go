// Package placement turns a classification into a target path and moves or
// copies the file there without ever overwriting an existing file.
package placement

import (
	"path/filepath"
	"strings"

	"github.com/joseph-ayodele/sheet-sorter/constants"
	"github.com/joseph-ayodele/sheet-sorter/internal/classify"
	"github.com/joseph-ayodele/sheet-sorter/internal/piece"
)

// Target is a proposed destination. The final name may gain a counter
// suffix when the file is placed.
type Target struct {
	Dir      string
	Filename string
}

func (t Target) Path() string { return filepath.Join(t.Dir, t.Filename) }

type Builder struct {
	Mode constants.OrgMode
}

func NewBuilder(mode constants.OrgMode) Builder {
	if mode == "" {
		mode = constants.OrgPieceFirst
	}
	return Builder{Mode: mode}
}

// Build computes the destination for one file. Test files keep their name
// under archive/test_files; files without an instrument go to Unknown with a
// cleaned-up name; everything else gets a directory per present attribute
// and a synthesized name.
func (b Builder) Build(rec classify.Record, id piece.Identity, baseDir, originalName string, isTest bool) Target {
	original := filepath.Base(originalName)
	if isTest {
		return Target{Dir: filepath.Join(baseDir, filepath.FromSlash(constants.TestArchiveDir)), Filename: original}
	}
	if !rec.HasInstrument() {
		stem := strings.TrimSuffix(original, filepath.Ext(original))
		return Target{Dir: filepath.Join(baseDir, constants.UnknownDir), Filename: SanitizeFilename(stem) + ".pdf"}
	}

	pieceDir := id.Label
	if pieceDir == "" {
		pieceDir = constants.UnknownPiece
	}

	voice := []string{rec.Instrument.DirName()}
	if rec.HasPart() {
		voice = append(voice, string(rec.Part))
	}
	if rec.HasKey() && rec.Instrument.IsTransposing() {
		voice = append(voice, string(rec.Key))
	}

	var segments []string
	switch b.Mode {
	case constants.OrgInstrumentFirst:
		segments = append(append(segments, voice...), pieceDir)
	case constants.OrgInstrumentOnly:
		segments = voice
	default:
		segments = append([]string{pieceDir}, voice...)
	}
	dir := baseDir
	for _, s := range segments {
		dir = filepath.Join(dir, SanitizeFilename(s))
	}

	var parts []string
	if b.Mode == constants.OrgPieceFirst && id.Label != "" && id.Label != constants.UnknownPiece {
		parts = append(parts, id.Label)
	}
	if rec.HasPart() {
		parts = append(parts, string(rec.Part))
	}
	if rec.HasKey() && rec.Instrument.IsTransposing() {
		parts = append(parts, string(rec.Key))
	}
	parts = append(parts, string(rec.Instrument))

	return Target{Dir: dir, Filename: SanitizeFilename(strings.Join(parts, "_")) + ".pdf"}
}
