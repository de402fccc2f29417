package piece

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeLabel(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Feodora Ouvertüre", "Feodora_Ouverture"},
		{"Für Elise", "Fur_Elise"},
		{"An der schönen blauen Donau", "An_der_schonen_blauen_Donau"},
		{"Straße", "Strasse"},
		{"Theme & Variations", "Theme_Variations"},
		{"a/b:c*d", "abcd"},
		{"  __Tchaikovsky_Overture__ ", "Tchaikovsky_Overture"},
		{"", "Unknown_Piece"},
		{"   ", "Unknown_Piece"},
		{"чайковский", "Unknown_Piece"},
		{strings.Repeat("Long Title ", 10), "Long_Title_Long_Title_Long_Title_Long_Ti"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := SanitizeLabel(tt.in)
			assert.Equal(t, tt.want, got)
			assert.LessOrEqual(t, len(got), MaxLabelLength)
		})
	}
}

func TestSanitizeLabelIsIdempotent(t *testing.T) {
	inputs := []string{
		"Feodora Ouvertüre", "x", "___", "a - b - c", "Op. 43 / No. 2", "Pomp & Circumstance March No 1 in D Major, Op. 39",
		strings.Repeat("ab_", 30), "  trailing-  ", "Æther Ølsen", "1st Bb Clarinet",
	}
	for _, in := range inputs {
		once := SanitizeLabel(in)
		assert.Equal(t, once, SanitizeLabel(once), "input %q", in)
	}
}
