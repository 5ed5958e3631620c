package categorizer

import (
	"context"
	"fmt"
	"strings"

	"github.com/agnivade/levenshtein"

	"github.com/dvloznov/rent-ledger/internal/domain"
)

// UserCorrectionStrategy matches the generalized description exactly
// against the user's own corrections.
type UserCorrectionStrategy struct{}

func (UserCorrectionStrategy) Name() string { return "user-correction" }

func (UserCorrectionStrategy) TryMatch(_ context.Context, in Input, rc *RuleContext) (Result, bool) {
	if in.GeneralizedKey == "" {
		return Result{}, false
	}
	rule, ok := rc.Correction(in.GeneralizedKey)
	if !ok {
		return Result{}, false
	}
	return Result{
		Hierarchy:   rule.CategoryHierarchy.Normalize(),
		CostCenter:  rule.CostCenter,
		Confidence:  1.0,
		Explanation: fmt.Sprintf("matched your correction for %q", rule.MatchKey),
		Source:      domain.RuleSourceUserCorrection,
		MatchKey:    rule.MatchKey,
	}, true
}

// Confidence by match specificity for property-derived rules.
const (
	propertyExactConfidence  = 1.0
	propertyPhraseConfidence = 0.98
	propertyWordConfidence   = 0.97
	propertyLooseConfidence  = 0.95
)

// PropertyStrategy matches keywords derived from the user's properties:
// tenant, lender, vendor and utility names.
type PropertyStrategy struct{}

func (PropertyStrategy) Name() string { return "property-derived" }

func (PropertyStrategy) TryMatch(_ context.Context, in Input, rc *RuleContext) (Result, bool) {
	desc := tokenize(in.Description)
	if len(desc) == 0 {
		return Result{}, false
	}

	for _, rule := range rc.PropertyRules() {
		key := tokenize(rule.MatchKey)
		conf, ok := propertyMatch(desc, key)
		if !ok {
			continue
		}
		return Result{
			Hierarchy:   rule.CategoryHierarchy.Normalize(),
			CostCenter:  rule.CostCenter,
			Confidence:  conf,
			Explanation: fmt.Sprintf("matched property keyword %q", rule.MatchKey),
			Source:      domain.RuleSourcePropertyDerived,
			MatchKey:    rule.MatchKey,
		}, true
	}
	return Result{}, false
}

// propertyMatch scores how specifically key occurs in desc: the whole
// description, a multi-word phrase, a single word, a plain substring, or
// every key word within one edit of a description word.
func propertyMatch(desc, key []string) (float64, bool) {
	if len(key) == 0 {
		return 0, false
	}
	if equalTokens(desc, key) {
		return propertyExactConfidence, true
	}
	if containsPhrase(desc, key) {
		if len(key) > 1 {
			return propertyPhraseConfidence, true
		}
		return propertyWordConfidence, true
	}
	if strings.Contains(strings.Join(desc, " "), strings.Join(key, " ")) && len(strings.Join(key, "")) >= 4 {
		return propertyLooseConfidence, true
	}
	if fuzzyPhrase(desc, key) {
		return propertyLooseConfidence, true
	}
	return 0, false
}

func equalTokens(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func containsPhrase(desc, key []string) bool {
	for i := 0; i+len(key) <= len(desc); i++ {
		if equalTokens(desc[i:i+len(key)], key) {
			return true
		}
	}
	return false
}

// fuzzyPhrase tolerates one typo per word for words of five letters or more,
// which covers bank truncation and misspelled tenant names.
func fuzzyPhrase(desc, key []string) bool {
	for _, k := range key {
		if len(k) < 5 {
			return false
		}
		found := false
		for _, d := range desc {
			if levenshtein.ComputeDistance(k, d) <= 1 {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func tokenize(s string) []string {
	return strings.Fields(nonKeyChars.ReplaceAllString(strings.ToUpper(s), " "))
}

// GlobalVendorStrategy matches the shared vendor keyword table. Stored
// global-vendor-map rules are consulted before the built-in table.
type GlobalVendorStrategy struct {
	Vendors *VendorMap
}

func (GlobalVendorStrategy) Name() string { return "global-vendor-map" }

func (s GlobalVendorStrategy) TryMatch(_ context.Context, in Input, rc *RuleContext) (Result, bool) {
	haystack := "_" + VendorKey(in.Description) + "_"
	for _, rule := range rc.VendorRules() {
		key := VendorKey(rule.MatchKey)
		if key == "" || !strings.Contains(haystack, "_"+key+"_") {
			continue
		}
		return Result{
			Hierarchy:   rule.CategoryHierarchy.Normalize(),
			CostCenter:  rule.CostCenter,
			Confidence:  vendorConfidence(key, 0),
			Explanation: fmt.Sprintf("matched vendor keyword %q", key),
			Source:      domain.RuleSourceGlobalVendorMap,
			MatchKey:    key,
		}, true
	}

	if s.Vendors == nil {
		return Result{}, false
	}
	key, h, conf, ok := s.Vendors.Lookup(in.Description)
	if !ok {
		return Result{}, false
	}
	return Result{
		Hierarchy:   h,
		Confidence:  conf,
		Explanation: fmt.Sprintf("matched vendor keyword %q", key),
		Source:      domain.RuleSourceGlobalVendorMap,
		MatchKey:    key,
	}, true
}

// ProviderHintStrategy translates the provider's own category guess.
type ProviderHintStrategy struct{}

func (ProviderHintStrategy) Name() string { return "provider-hint" }

func (ProviderHintStrategy) TryMatch(_ context.Context, in Input, _ *RuleContext) (Result, bool) {
	h, conf, ok := TranslateHint(in.Hint.Primary, in.Hint.Detailed)
	if !ok {
		return Result{}, false
	}
	label := in.Hint.Detailed
	if label == "" || conf == hintPrimaryConfidence {
		label = in.Hint.Primary
	}
	return Result{
		Hierarchy:   h,
		Confidence:  conf,
		Explanation: fmt.Sprintf("provider category %s", label),
		Source:      domain.RuleSourceProviderHint,
	}, true
}

// FallbackStrategy always matches with zero confidence.
type FallbackStrategy struct{}

func (FallbackStrategy) Name() string { return "fallback" }

func (FallbackStrategy) TryMatch(_ context.Context, in Input, _ *RuleContext) (Result, bool) {
	return fallbackResult(in), true
}

func fallbackResult(in Input) Result {
	return Result{
		Hierarchy:   domain.FallbackHierarchy(in.Amount.IsNegative()),
		Confidence:  0.0,
		Explanation: "no rule matched",
		Source:      domain.RuleSourceFallback,
	}
}

// DefaultStrategies returns the precedence chain, highest first.
func DefaultStrategies(vendors *VendorMap) []Strategy {
	if vendors == nil {
		vendors = DefaultVendorMap()
	}
	return []Strategy{
		UserCorrectionStrategy{},
		PropertyStrategy{},
		GlobalVendorStrategy{Vendors: vendors},
		ProviderHintStrategy{},
		FallbackStrategy{},
	}
}
