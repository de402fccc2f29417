package placement

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"1st_Bb_Clarinet", "1st_Bb_Clarinet"},
		{"What? Now: <draft>", "What_Now_draft"},
		{`a/b\c|d*e"f`, "abcdef"},
		{"  spaced   out  ", "spaced_out"},
		{"__.hidden.__", "hidden"},
		{"tab\there\nnewline", "tabherenewline"},
		{"", "Unknown"},
		{"???", "Unknown"},
		{"Feodora_Ouverture_1st_Bb_Clarinet", "Feodora_Ouverture_1st_Bb_Clarinet"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeFilename(tt.in))
		})
	}
}

func TestSanitizeFilenameIsIdempotent(t *testing.T) {
	inputs := []string{
		"What? Now: <draft>", " _ . _ ", "x", strings.Repeat("é_", 100), strings.Repeat("a ", 70) + ".",
		"Ünïcödé  names_/_too", "..", "trailing dot.", "\x00\x01ctrl", "multi___under",
	}
	for _, in := range inputs {
		once := SanitizeFilename(in)
		assert.Equal(t, once, SanitizeFilename(once), "input %q", in)
		assert.LessOrEqual(t, utf8.RuneCountInString(once), MaxFilenameLength)
	}
}
