package catalog

import (
	"fmt"
	"regexp"
)

// Rule pairs a case-insensitive predicate with the label it yields.
type Rule[L any] struct {
	Pattern *regexp.Regexp
	Label   L
	Lang    string
	// OCROnly rules are matched against the OCR text alone, never against
	// filename words.
	OCROnly bool
}

// Match reports whether the rule's pattern occurs anywhere in text.
func (r Rule[L]) Match(text string) bool {
	return r.Pattern != nil && r.Pattern.MatchString(text)
}

// First returns the first rule, in declaration order, that matches text.
// It is the only matching strategy used across the catalog.
func First[L any](rules []Rule[L], text string) (Rule[L], bool) {
	return FirstScoped(rules, text, text)
}

// FirstScoped is First for axes that mix filename and OCR evidence: OCROnly
// rules see ocrText, all others see text.
func FirstScoped[L any](rules []Rule[L], text, ocrText string) (Rule[L], bool) {
	for _, r := range rules {
		in := text
		if r.OCROnly {
			in = ocrText
		}
		if r.Match(in) {
			return r, true
		}
	}
	var zero Rule[L]
	return zero, false
}

// compileRules turns raw entries into rules, converting each label with parse.
func compileRules[L any](section string, raw []rawRule, parse func(string) (L, bool)) ([]Rule[L], error) {
	out := make([]Rule[L], 0, len(raw))
	for i, rr := range raw {
		re, err := regexp.Compile("(?i)" + rr.Pattern)
		if err != nil {
			return nil, fmt.Errorf("%s[%d]: compile %q: %w", section, i, rr.Pattern, err)
		}
		label, ok := parse(rr.Label)
		if !ok {
			return nil, fmt.Errorf("%s[%d]: unknown label %q", section, i, rr.Label)
		}
		out = append(out, Rule[L]{Pattern: re, Label: label, Lang: rr.Lang, OCROnly: rr.OCROnly})
	}
	return out, nil
}

func filterLang[L any](rules []Rule[L], langs map[string]struct{}) []Rule[L] {
	out := make([]Rule[L], 0, len(rules))
	for _, r := range rules {
		if r.Lang == "" {
			out = append(out, r)
			continue
		}
		if _, ok := langs[r.Lang]; ok {
			out = append(out, r)
		}
	}
	return out
}

func parseString(s string) (string, bool) { return s, s != "" }
