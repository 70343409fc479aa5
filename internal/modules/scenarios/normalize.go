package scenarios

import (
	"fmt"
	"strings"
)

// verbatimKeys hold maps keyed by user identifiers, which are never renamed.
var verbatimKeys = map[string]bool{
	"distributionSplits": true,
}

// trancheAliases maps superseded tranche fields onto their canonical names.
// Earlier entries win when two legacy fields name the same target.
var trancheAliases = []struct{ legacy, canonical string }{
	{"amount", "principal"},
	{"loanAmount", "principal"},
	{"interestRate", "rate"},
	{"amortizationType", "amortization"},
	{"term", "termYears"},
	{"interestOnlyYears", "ioYears"},
}

// amortizationAliases maps older amortization spellings onto the canonical enum.
var amortizationAliases = map[string]string{
	"io":            "interest_only",
	"interest-only": "interest_only",
	"interestOnly":  "interest_only",
	"amortizing":    "mortgage",
	"annuity":       "mortgage",
	"balloon":       "bullet",
}

// Normalize rewrites a decoded scenario document into the canonical layout:
// snake_case keys become camelCase, a single top-level "loan" block becomes a
// one-tranche capital structure, and superseded tranche fields are renamed.
// It returns a note for every legacy rewrite it applied. The input must not be reused.
func Normalize(doc map[string]any) (map[string]any, []string) {
	var notes []string
	doc = camelizeKeys(doc)

	capital, _ := doc["capital"].(map[string]any)
	for _, legacy := range []string{"loan", "debt"} {
		block, ok := doc[legacy]
		if !ok {
			continue
		}
		delete(doc, legacy)
		if capital == nil {
			capital = map[string]any{}
			doc["capital"] = capital
		}
		if _, exists := capital["tranches"]; exists {
			notes = append(notes, fmt.Sprintf("ignored %q block: capital.tranches is set", legacy))
			continue
		}
		switch b := block.(type) {
		case map[string]any:
			capital["tranches"] = []any{b}
		case []any:
			capital["tranches"] = b
		}
		notes = append(notes, fmt.Sprintf("moved %q block into capital.tranches", legacy))
	}
	if tranches, ok := doc["tranches"]; ok {
		delete(doc, "tranches")
		if capital == nil {
			capital = map[string]any{}
			doc["capital"] = capital
		}
		if _, exists := capital["tranches"]; !exists {
			capital["tranches"] = tranches
			notes = append(notes, "moved top-level tranches into capital.tranches")
		}
	}

	if capital != nil {
		if list, ok := capital["tranches"].([]any); ok {
			for i, item := range list {
				if tranche, ok := item.(map[string]any); ok {
					notes = append(notes, normalizeTranche(i, tranche)...)
				}
			}
		}
	}

	return doc, notes
}

func normalizeTranche(i int, t map[string]any) []string {
	var notes []string
	path := fmt.Sprintf("capital.tranches[%d]", i)

	for _, alias := range trancheAliases {
		legacy, canonical := alias.legacy, alias.canonical
		v, ok := t[legacy]
		if !ok {
			continue
		}
		delete(t, legacy)
		if _, exists := t[canonical]; exists {
			notes = append(notes, fmt.Sprintf("%s: dropped %q in favour of %q", path, legacy, canonical))
			continue
		}
		t[canonical] = v
		notes = append(notes, fmt.Sprintf("%s: renamed %q to %q", path, legacy, canonical))
	}

	if style, ok := t["amortization"].(string); ok {
		if canonical, ok := amortizationAliases[style]; ok {
			t["amortization"] = canonical
		}
	}
	if _, ok := t["id"]; !ok {
		t["id"] = fmt.Sprintf("tranche-%d", i+1)
	}
	return notes
}

func camelizeKeys(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		key := camelCase(k)
		if verbatimKeys[key] {
			out[key] = v
			continue
		}
		out[key] = camelizeValue(v)
	}
	return out
}

func camelizeValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return camelizeKeys(val)
	case []any:
		for i := range val {
			val[i] = camelizeValue(val[i])
		}
		return val
	}
	return v
}

// camelCase turns "discount_rate" into "discountRate" and "unlevered_fcf" into "unleveredFcf".
func camelCase(s string) string {
	if !strings.Contains(s, "_") {
		return s
	}
	parts := strings.Split(s, "_")
	var b strings.Builder
	b.WriteString(parts[0])
	for _, p := range parts[1:] {
		if p == "" {
			continue
		}
		b.WriteString(strings.ToUpper(p[:1]))
		b.WriteString(p[1:])
	}
	return b.String()
}
