package catalog

import (
	"github.com/joseph-ayodele/sheet-sorter/constants"
)

// BuildCatalogSchema returns the JSON-Schema a catalog document must satisfy.
// Label enums for the closed axes are derived from the constants package.
func BuildCatalogSchema() map[string]any {
	instruments := make([]string, 0)
	for _, i := range constants.Instruments() {
		instruments = append(instruments, string(i))
	}

	return map[string]any{
		"type":     "object",
		"required": []string{"version", "instruments", "parts", "keys"},
		"properties": map[string]any{
			"version":      map[string]any{"type": "string", "minLength": 1},
			"instruments":  ruleList(instruments),
			"parts":        ruleList([]string{"1st", "2nd", "3rd", "4th", "Solo", "Principal"}),
			"keys":         ruleList([]string{"Bb", "Eb", "F", "C", "G", "D", "A", "Ab", "Db"}),
			"styles":       ruleList(nil),
			"composers":    ruleList(nil),
			"test_files":   ruleList(nil),
			"known_pieces": ruleList(nil),
			"languages": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type":                 "object",
					"additionalProperties": false,
					"required":             []string{"lang", "indicators"},
					"properties": map[string]any{
						"lang": map[string]any{"type": "string", "minLength": 2},
						"indicators": map[string]any{
							"type":     "array",
							"minItems": 1,
							"items":    map[string]any{"type": "string", "minLength": 1},
						},
					},
				},
			},
		},
	}
}

func ruleList(labels []string) map[string]any {
	label := map[string]any{"type": "string", "minLength": 1}
	if len(labels) > 0 {
		label = map[string]any{"type": "string", "enum": labels}
	}
	return map[string]any{
		"type":     "array",
		"minItems": 1,
		"items": map[string]any{
			"type":                 "object",
			"additionalProperties": false,
			"required":             []string{"pattern", "label"},
			"properties": map[string]any{
				"pattern":  map[string]any{"type": "string", "minLength": 1},
				"label":    label,
				"lang":     map[string]any{"type": "string"},
				"ocr_only": map[string]any{"type": "boolean"},
			},
		},
	}
}
