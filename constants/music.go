package constants

import "strings"

type Part string

const (
	PartFirst     Part = "1st"
	PartSecond    Part = "2nd"
	PartThird     Part = "3rd"
	PartFourth    Part = "4th"
	PartSolo      Part = "Solo"
	PartPrincipal Part = "Principal"
)

var allParts = []Part{PartFirst, PartSecond, PartThird, PartFourth, PartSolo, PartPrincipal}

func ParsePart(input string) (Part, bool) {
	normalized := strings.ToLower(strings.TrimSpace(input))
	for _, p := range allParts {
		if normalized == strings.ToLower(string(p)) {
			return p, true
		}
	}
	return "", false
}

// Key is a written transposition key.
type Key string

const (
	KeyBb Key = "Bb"
	KeyEb Key = "Eb"
	KeyF  Key = "F"
	KeyC  Key = "C"
	KeyG  Key = "G"
	KeyD  Key = "D"
	KeyA  Key = "A"
	KeyAb Key = "Ab"
	KeyDb Key = "Db"
)

var allKeys = []Key{KeyBb, KeyEb, KeyF, KeyC, KeyG, KeyD, KeyA, KeyAb, KeyDb}

func ParseKey(input string) (Key, bool) {
	normalized := strings.TrimSpace(input)
	for _, k := range allKeys {
		if strings.EqualFold(normalized, string(k)) {
			return k, true
		}
	}
	return "", false
}

type Confidence string

const (
	ConfidenceHigh   Confidence = "HIGH"
	ConfidenceMedium Confidence = "MEDIUM"
	ConfidenceLow    Confidence = "LOW"
)

// Rank orders confidence levels; higher is stronger.
func (c Confidence) Rank() int {
	switch c {
	case ConfidenceHigh:
		return 3
	case ConfidenceMedium:
		return 2
	case ConfidenceLow:
		return 1
	}
	return 0
}

// OrgMode selects the directory layout of the output tree.
type OrgMode string

const (
	OrgPieceFirst      OrgMode = "piece_first"
	OrgInstrumentFirst OrgMode = "instrument_first"
	OrgInstrumentOnly  OrgMode = "instrument_only"
)

func ParseOrgMode(input string) (OrgMode, bool) {
	switch OrgMode(strings.ToLower(strings.TrimSpace(input))) {
	case OrgPieceFirst, "":
		return OrgPieceFirst, true
	case OrgInstrumentFirst:
		return OrgInstrumentFirst, true
	case OrgInstrumentOnly:
		return OrgInstrumentOnly, true
	}
	return "", false
}
