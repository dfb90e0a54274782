package betting

import "strings"

// canonicalBetTypes maps a canonical bet type to every alias (English and
// Japanese) a data source or strategy might use for it.
var canonicalBetTypes = map[string][]string{
	"win":              {"win", "単勝"},
	"place":            {"place", "複勝"},
	"bracket_quinella":  {"bracket_quinella", "枠連"},
	"quinella":         {"quinella", "馬連"},
	"exacta":           {"exacta", "馬単"},
	"quinella_place":    {"quinella_place", "ワイド", "wide"},
	"trifecta_box":      {"trifecta_box", "三連複"},
	"trifecta_exact":    {"trifecta_exact", "三連単"},
}

// orderSensitive is the set of canonical bet types where runner ordering
// matters when matching a bet against a payoff.
var orderSensitive = map[string]bool{
	"exacta":         true,
	"trifecta_exact": true,
}

var aliasToCanonical map[string]string

func init() {
	aliasToCanonical = make(map[string]string)
	for canonical, aliases := range canonicalBetTypes {
		for _, alias := range aliases {
			aliasToCanonical[strings.ToLower(alias)] = canonical
		}
	}
}

// CanonicalBetType normalizes any known alias (English or Japanese) of a
// bet type to its canonical form. Unknown bet types pass through
// lower-cased, unchanged.
func CanonicalBetType(betType string) string {
	normalized := strings.ToLower(betType)
	if canonical, ok := aliasToCanonical[normalized]; ok {
		return canonical
	}
	return normalized
}
