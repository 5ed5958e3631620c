package domain

import (
	"strings"

	"github.com/google/uuid"
)

// RuleSource identifies where a categorization came from.
type RuleSource string

const (
	RuleSourceUserCorrection  RuleSource = "user-correction"
	RuleSourcePropertyDerived RuleSource = "property-derived"
	RuleSourceGlobalVendorMap RuleSource = "global-vendor-map"

	// The two sources below never back a stored rule; they only label results.
	RuleSourceProviderHint RuleSource = "provider-hint"
	RuleSourceFallback     RuleSource = "fallback"
)

// ruleNamespace seeds the name-based UUIDs used as rule ids.
var ruleNamespace = uuid.MustParse("6f1c2a0e-4b7d-5e8a-9c3f-2d1e0b9a8c7d")

// CategorizationRule maps a match key to a category hierarchy for one user.
type CategorizationRule struct {
	RuleID            string            `json:"ruleId"`
	UserID            string            `json:"userId"`
	MatchKey          string            `json:"matchKey"`
	CategoryHierarchy CategoryHierarchy `json:"categoryHierarchy"`
	CostCenter        string            `json:"costCenter,omitempty"`
	Source            RuleSource        `json:"source"`
	Priority          int               `json:"priority"`

	// ScopeID is the property a derived rule was generated from. Empty for
	// user corrections.
	ScopeID string `json:"scopeId,omitempty"`
}

// RuleID derives a deterministic rule id from the user, match key and an
// optional scope, so re-deriving the same rule overwrites it.
func RuleID(userID, matchKey, scopeID string) string {
	name := userID + "\x00" + NormalizeMatchKey(matchKey)
	if scopeID != "" {
		name += "\x00" + scopeID
	}
	return uuid.NewSHA1(ruleNamespace, []byte(name)).String()
}

// NormalizeMatchKey upper-cases a key and collapses internal whitespace.
func NormalizeMatchKey(key string) string {
	return strings.Join(strings.Fields(strings.ToUpper(key)), " ")
}

// NewRule builds a rule with a normalized key and hierarchy and a derived id.
func NewRule(userID, matchKey string, h CategoryHierarchy, costCenter string, source RuleSource, priority int, scopeID string) CategorizationRule {
	key := NormalizeMatchKey(matchKey)
	return CategorizationRule{
		RuleID:            RuleID(userID, key, scopeID),
		UserID:            userID,
		MatchKey:          key,
		CategoryHierarchy: h.Normalize(),
		CostCenter:        strings.TrimSpace(costCenter),
		Source:            source,
		Priority:          priority,
		ScopeID:           scopeID,
	}
}
