package domain

import (
	"fmt"
	"strings"
)

// Uncategorized fills any hierarchy level that has no value.
const Uncategorized = "Uncategorized"

// L0 controlled vocabulary.
const (
	L0Income    = "Income"
	L0Expense   = "Expense"
	L0Asset     = "Asset"
	L0Liability = "Liability"
	L0Equity    = "Equity"
	L0Transfer  = "Transfer"
	L0Other     = "Other"
)

// L0Vocabulary lists every value L0 may take, in display order.
var L0Vocabulary = []string{L0Income, L0Expense, L0Asset, L0Liability, L0Equity, L0Transfer, L0Other}

// l0Substrings is checked in order; the first contained fragment wins.
var l0Substrings = []struct {
	fragment string
	l0       string
}{
	{"income", L0Income},
	{"expense", L0Expense},
	{"transfer", L0Transfer},
	{"asset", L0Asset},
	{"liabilit", L0Liability},
	{"equity", L0Equity},
}

// l0Synonyms maps legacy labels that contain none of the substrings above.
// Order matters: "loan" must win over "property" for "property loan".
var l0Synonyms = []struct {
	word string
	l0   string
}{
	{"revenue", L0Income},
	{"deposit", L0Income},
	{"expenditure", L0Expense},
	{"cost", L0Expense},
	{"spending", L0Expense},
	{"loan", L0Liability},
	{"mortgage", L0Liability},
	{"debt", L0Liability},
	{"capital", L0Equity},
	{"owner", L0Equity},
	{"property", L0Asset},
}

// CategoryHierarchy is the four-level classification attached to every
// transaction and rule. Values produced by NormalizeCategory always have all
// four levels populated and L0 drawn from L0Vocabulary.
type CategoryHierarchy struct {
	L0 string `json:"l0" firestore:"l0" yaml:"l0"`
	L1 string `json:"l1" firestore:"l1" yaml:"l1"`
	L2 string `json:"l2" firestore:"l2" yaml:"l2"`
	L3 string `json:"l3" firestore:"l3" yaml:"l3"`
}

// String renders the hierarchy as "L0 > L1 > L2 > L3".
func (h CategoryHierarchy) String() string {
	return fmt.Sprintf("%s > %s > %s > %s", h.L0, h.L1, h.L2, h.L3)
}

// NormalizeCategory builds a CategoryHierarchy from free-text levels.
// It never fails: blank levels become Uncategorized and L0 is coerced into
// the controlled vocabulary.
func NormalizeCategory(l0, l1, l2, l3 string) CategoryHierarchy {
	return CategoryHierarchy{
		L0: NormalizeL0(l0),
		L1: orUncategorized(l1),
		L2: orUncategorized(l2),
		L3: orUncategorized(l3),
	}
}

// Normalize returns a normalized copy of h.
func (h CategoryHierarchy) Normalize() CategoryHierarchy {
	return NormalizeCategory(h.L0, h.L1, h.L2, h.L3)
}

// NormalizeCategoryMap normalizes a loosely-typed legacy category object.
// Keys are matched case-insensitively; non-string values are ignored.
func NormalizeCategoryMap(raw map[string]interface{}) CategoryHierarchy {
	levels := make(map[string]string, 4)
	for k, v := range raw {
		s, ok := v.(string)
		if !ok {
			continue
		}
		levels[strings.ToLower(strings.TrimSpace(k))] = s
	}
	return NormalizeCategory(levels["l0"], levels["l1"], levels["l2"], levels["l3"])
}

// NormalizeL0 coerces a free-text major type into the controlled vocabulary:
// exact match (case-insensitive), then substring containment, then synonyms,
// then Other.
func NormalizeL0(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return L0Other
	}

	for _, v := range L0Vocabulary {
		if s == strings.ToLower(v) {
			return v
		}
	}

	for _, sub := range l0Substrings {
		if strings.Contains(s, sub.fragment) {
			return sub.l0
		}
	}

	for _, syn := range l0Synonyms {
		if strings.Contains(s, syn.word) {
			return syn.l0
		}
	}

	return L0Other
}

// FallbackHierarchy is assigned when no rule matches. L0 follows the amount
// sign: negative amounts are outflows.
func FallbackHierarchy(outflow bool) CategoryHierarchy {
	l0 := L0Income
	if outflow {
		l0 = L0Expense
	}
	return CategoryHierarchy{L0: l0, L1: "General", L2: "Needs Review", L3: Uncategorized}
}

func orUncategorized(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return Uncategorized
	}
	return s
}
