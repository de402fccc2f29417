package placement

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/joseph-ayodele/sheet-sorter/constants"
	"github.com/joseph-ayodele/sheet-sorter/internal/classify"
	"github.com/joseph-ayodele/sheet-sorter/internal/piece"
)

var (
	clarinet1Bb = classify.Record{Instrument: constants.Clarinet, Part: constants.PartFirst, Key: constants.KeyBb, Confidence: constants.ConfidenceHigh}
	feodora     = piece.Identity{Label: "Feodora_Ouverture", Confidence: constants.ConfidenceHigh}
	unknown     = piece.Identity{Label: constants.UnknownPiece, Confidence: constants.ConfidenceLow}
)

func TestBuildModes(t *testing.T) {
	base := filepath.FromSlash("/out")

	tests := []struct {
		name     string
		mode     constants.OrgMode
		rec      classify.Record
		id       piece.Identity
		dir      string
		filename string
	}{
		{
			name: "piece first", mode: constants.OrgPieceFirst, rec: clarinet1Bb, id: feodora,
			dir: "/out/Feodora_Ouverture/Clarinet/1st/Bb", filename: "Feodora_Ouverture_1st_Bb_Clarinet.pdf",
		},
		{
			name: "instrument first", mode: constants.OrgInstrumentFirst, rec: clarinet1Bb, id: feodora,
			dir: "/out/Clarinet/1st/Bb/Feodora_Ouverture", filename: "1st_Bb_Clarinet.pdf",
		},
		{
			name: "instrument only", mode: constants.OrgInstrumentOnly, rec: clarinet1Bb, id: feodora,
			dir: "/out/Clarinet/1st/Bb", filename: "1st_Bb_Clarinet.pdf",
		},
		{
			name: "unknown piece is not repeated in the name", mode: constants.OrgPieceFirst,
			rec: classify.Record{Instrument: constants.Trombone}, id: unknown,
			dir: "/out/Unknown_Piece/Trombone", filename: "Trombone.pdf",
		},
		{
			name: "key on a non-transposing instrument is ignored", mode: constants.OrgPieceFirst,
			rec: classify.Record{Instrument: constants.Flute, Part: constants.PartSecond, Key: constants.KeyEb}, id: feodora,
			dir: "/out/Feodora_Ouverture/Flute/2nd", filename: "Feodora_Ouverture_2nd_Flute.pdf",
		},
		{
			name: "multi-word instrument", mode: constants.OrgPieceFirst,
			rec: classify.Record{Instrument: constants.StringBass}, id: feodora,
			dir: "/out/Feodora_Ouverture/String_Bass", filename: "Feodora_Ouverture_String_Bass.pdf",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewBuilder(tt.mode).Build(tt.rec, tt.id, base, "/in/scan001.pdf", false)
			assert.Equal(t, filepath.FromSlash(tt.dir), got.Dir)
			assert.Equal(t, tt.filename, got.Filename)
		})
	}
}

func TestBuildSpecialBuckets(t *testing.T) {
	b := NewBuilder("")
	base := filepath.FromSlash("/out")

	test := b.Build(classify.Record{Instrument: constants.Trombone}, unknown, base, "/in/trombone_test.pdf", true)
	assert.Equal(t, filepath.Join(base, "archive", "test_files"), test.Dir)
	assert.Equal(t, "trombone_test.pdf", test.Filename)

	none := b.Build(classify.Record{Part: constants.PartSolo}, feodora, base, "/in/Scan: page 4?.PDF", false)
	assert.Equal(t, filepath.Join(base, "Unknown"), none.Dir)
	assert.Equal(t, "Scan_page_4.pdf", none.Filename)
}
