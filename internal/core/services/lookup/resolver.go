package lookup

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// IdentifierSynonyms lists header names, case-folded, that mark an
// identifier column. Earlier entries win over later ones.
var IdentifierSynonyms = []string{
	"id",
	"idno",
	"id_number",
	"identifier",
	"studentid",
	"empid",
	"employeeid",
	"code",
}

// Rule names reported in KeyResolution
const (
	RuleSynonym     = "synonym"
	RuleContainsID  = "contains-id"
	RuleFirstColumn = "first-column"
)

// KeyRule picks a column index from case-folded header names, or -1
type KeyRule struct {
	Name  string
	Match func(folded []string) int
}

// KeyResolution is the outcome of ResolveIdentifierKey
type KeyResolution struct {
	Key   string
	Index int
	Rule  string
}

// keyRules are evaluated top to bottom; the first rule that matches decides.
var keyRules = []KeyRule{
	{Name: RuleSynonym, Match: matchSynonym},
	{Name: RuleContainsID, Match: matchContainsID},
	{Name: RuleFirstColumn, Match: matchFirstColumn},
}

// ResolveIdentifierKey selects the identifier column from a header.
// It returns false only when headers is empty.
func ResolveIdentifierKey(headers []string) (KeyResolution, bool) {
	folded := make([]string, len(headers))
	for i, h := range headers {
		folded[i] = foldCase(h)
	}

	for _, rule := range keyRules {
		if idx := rule.Match(folded); idx >= 0 {
			return KeyResolution{
				Key:   headers[idx],
				Index: idx,
				Rule:  rule.Name,
			}, true
		}
	}

	return KeyResolution{Index: -1}, false
}

func matchSynonym(folded []string) int {
	for _, synonym := range IdentifierSynonyms {
		for i, name := range folded {
			if name == synonym {
				return i
			}
		}
	}
	return -1
}

// matchContainsID scans left to right, so ties go to the leftmost column
func matchContainsID(folded []string) int {
	for i, name := range folded {
		if strings.Contains(name, "id") {
			return i
		}
	}
	return -1
}

func matchFirstColumn(folded []string) int {
	if len(folded) == 0 {
		return -1
	}
	return 0
}

// NormalizeIdentifier trims and case-folds an identifier for comparison
func NormalizeIdentifier(s string) string {
	return foldCase(strings.TrimSpace(s))
}

// foldCase applies NFC then full Unicode case folding. A Caser keeps
// state, so each call gets its own.
func foldCase(s string) string {
	return cases.Fold().String(norm.NFC.String(s))
}
