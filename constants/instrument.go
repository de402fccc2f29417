package constants

import (
	"strings"
)

type Instrument string

const (
	Clarinet   Instrument = "Clarinet"
	Trumpet    Instrument = "Trumpet"
	Cornet     Instrument = "Cornet"
	Horn       Instrument = "Horn"
	Trombone   Instrument = "Trombone"
	Tuba       Instrument = "Tuba"
	Euphonium  Instrument = "Euphonium"
	Saxophone  Instrument = "Saxophone"
	Flute      Instrument = "Flute"
	Piccolo    Instrument = "Piccolo"
	Oboe       Instrument = "Oboe"
	Bassoon    Instrument = "Bassoon"
	StringBass Instrument = "String Bass"
	Timpani    Instrument = "Timpani"
	Percussion Instrument = "Percussion"
	Violin     Instrument = "Violin"
	Viola      Instrument = "Viola"
	Cello      Instrument = "Cello"
	Piano      Instrument = "Piano"
)

var allInstruments = []Instrument{
	Clarinet,
	Trumpet,
	Cornet,
	Horn,
	Trombone,
	Tuba,
	Euphonium,
	Saxophone,
	Flute,
	Piccolo,
	Oboe,
	Bassoon,
	StringBass,
	Timpani,
	Percussion,
	Violin,
	Viola,
	Cello,
	Piano,
}

// transposing instruments are the only ones whose key is recorded.
var transposing = map[Instrument]struct{}{
	Clarinet:  {},
	Saxophone: {},
	Horn:      {},
	Trumpet:   {},
	Cornet:    {},
}

func Instruments() []Instrument {
	out := make([]Instrument, len(allInstruments))
	copy(out, allInstruments)
	return out
}

// IsTransposing reports whether key detection applies to the instrument.
func (i Instrument) IsTransposing() bool {
	_, ok := transposing[i]
	return ok
}

// DirName is the instrument label as used in a directory or file name.
func (i Instrument) DirName() string {
	return strings.ReplaceAll(string(i), " ", "_")
}

// ParseInstrument accepts the canonical label, its directory form, or a few
// common synonyms.
func ParseInstrument(input string) (Instrument, bool) {
	normalized := strings.ToLower(strings.TrimSpace(input))
	if normalized == "" {
		return "", false
	}

	synonyms := map[string]Instrument{
		"string_bass":  StringBass,
		"bass":         StringBass,
		"double bass":  StringBass,
		"contrabass":   StringBass,
		"french horn":  Horn,
		"baritone":     Euphonium,
		"sax":          Saxophone,
		"drums":        Percussion,
		"timpani drum": Timpani,
	}
	if inst, ok := synonyms[normalized]; ok {
		return inst, true
	}

	for _, inst := range allInstruments {
		if normalized == strings.ToLower(string(inst)) {
			return inst, true
		}
	}
	return "", false
}
