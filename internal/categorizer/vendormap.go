package categorizer

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dvloznov/rent-ledger/internal/domain"
)

// Schedule E style tax lines used as L2 in the built-in tables.
const (
	lineAdvertising  = "Advertising"
	lineAutoTravel   = "Auto and travel"
	lineCleaning     = "Cleaning and maintenance"
	lineInsurance    = "Insurance"
	lineProfessional = "Legal and other professional fees"
	lineManagement   = "Management fees"
	lineMortgage     = "Mortgage interest"
	lineRepairs      = "Repairs"
	lineSupplies     = "Supplies"
	lineTaxes        = "Taxes"
	lineUtilities    = "Utilities"
	lineOther        = "Other expenses"
	lineRents        = "Rents received"
)

var nonKeyChars = regexp.MustCompile(`[^A-Z0-9]+`)

// VendorKey normalizes a keyword or description for vendor lookup:
// upper-case, punctuation and spaces collapsed to single underscores.
func VendorKey(s string) string {
	return strings.Trim(nonKeyChars.ReplaceAllString(strings.ToUpper(s), "_"), "_")
}

// VendorEntry is one keyword in the global vendor map.
type VendorEntry struct {
	Keyword    string                   `yaml:"keyword"`
	Category   domain.CategoryHierarchy `yaml:"category"`
	Confidence float64                  `yaml:"confidence,omitempty"`
}

// VendorMap is the user-independent keyword table. Lookup prefers the
// longest matching key.
type VendorMap struct {
	entries []vendorEntry
}

type vendorEntry struct {
	key        string
	hierarchy  domain.CategoryHierarchy
	confidence float64
}

// NewVendorMap builds a map from entries. Entries with blank keywords are
// skipped; a repeated keyword keeps the last entry.
func NewVendorMap(entries []VendorEntry) *VendorMap {
	byKey := make(map[string]vendorEntry, len(entries))
	for _, e := range entries {
		key := VendorKey(e.Keyword)
		if key == "" {
			continue
		}
		byKey[key] = vendorEntry{
			key:        key,
			hierarchy:  e.Category.Normalize(),
			confidence: vendorConfidence(key, e.Confidence),
		}
	}

	m := &VendorMap{entries: make([]vendorEntry, 0, len(byKey))}
	for _, e := range byKey {
		m.entries = append(m.entries, e)
	}
	sort.Slice(m.entries, func(i, j int) bool {
		if len(m.entries[i].key) != len(m.entries[j].key) {
			return len(m.entries[i].key) > len(m.entries[j].key)
		}
		return m.entries[i].key < m.entries[j].key
	})
	return m
}

// ParseVendorMapYAML reads a vendor map document of the form
// `vendors: [{keyword, category: {l0,l1,l2,l3}, confidence}]`.
func ParseVendorMapYAML(data []byte) (*VendorMap, error) {
	var doc struct {
		Vendors []VendorEntry `yaml:"vendors"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("ParseVendorMapYAML: %w", err)
	}
	if len(doc.Vendors) == 0 {
		return nil, fmt.Errorf("ParseVendorMapYAML: no vendors defined")
	}
	return NewVendorMap(doc.Vendors), nil
}

// Len is the number of keywords in the map.
func (m *VendorMap) Len() int {
	return len(m.entries)
}

// Lookup finds the longest keyword contained in the description on
// underscore boundaries.
func (m *VendorMap) Lookup(description string) (key string, h domain.CategoryHierarchy, confidence float64, ok bool) {
	haystack := "_" + VendorKey(description) + "_"
	for _, e := range m.entries {
		if strings.Contains(haystack, "_"+e.key+"_") {
			return e.key, e.hierarchy, e.confidence, true
		}
	}
	return "", domain.CategoryHierarchy{}, 0, false
}

// vendorConfidence keeps configured values inside the vendor band and
// otherwise scores multi-word keys higher than single words.
func vendorConfidence(key string, configured float64) float64 {
	if configured > 0 {
		return clamp(configured, 0.8, 0.9)
	}
	if strings.Contains(key, "_") {
		return 0.9
	}
	return 0.85
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func expense(l1, l2, l3 string) domain.CategoryHierarchy {
	return domain.CategoryHierarchy{L0: domain.L0Expense, L1: l1, L2: l2, L3: l3}
}

// DefaultVendorMap is the built-in table of merchants common in rental
// property bookkeeping.
func DefaultVendorMap() *VendorMap {
	return NewVendorMap([]VendorEntry{
		{Keyword: "HOME DEPOT", Category: expense("Repairs & Maintenance", lineRepairs, "Home Depot")},
		{Keyword: "LOWES", Category: expense("Repairs & Maintenance", lineRepairs, "Lowe's")},
		{Keyword: "MENARDS", Category: expense("Repairs & Maintenance", lineRepairs, "Menards")},
		{Keyword: "ACE HARDWARE", Category: expense("Repairs & Maintenance", lineRepairs, "Ace Hardware")},
		{Keyword: "SHERWIN WILLIAMS", Category: expense("Repairs & Maintenance", lineRepairs, "Sherwin-Williams")},
		{Keyword: "ROTO ROOTER", Category: expense("Repairs & Maintenance", lineRepairs, "Roto-Rooter")},
		{Keyword: "MERRY MAIDS", Category: expense("Repairs & Maintenance", lineCleaning, "Merry Maids")},
		{Keyword: "TRUGREEN", Category: expense("Repairs & Maintenance", lineCleaning, "TruGreen")},
		{Keyword: "STAPLES", Category: expense("Office", lineSupplies, "Staples")},
		{Keyword: "OFFICE DEPOT", Category: expense("Office", lineSupplies, "Office Depot")},
		{Keyword: "SHELL", Category: expense("Auto & Travel", lineAutoTravel, "Fuel")},
		{Keyword: "CHEVRON", Category: expense("Auto & Travel", lineAutoTravel, "Fuel")},
		{Keyword: "EXXON", Category: expense("Auto & Travel", lineAutoTravel, "Fuel")},
		{Keyword: "EXXONMOBIL", Category: expense("Auto & Travel", lineAutoTravel, "Fuel")},
		{Keyword: "BP", Category: expense("Auto & Travel", lineAutoTravel, "Fuel")},
		{Keyword: "UBER", Category: expense("Auto & Travel", lineAutoTravel, "Rideshare")},
		{Keyword: "LYFT", Category: expense("Auto & Travel", lineAutoTravel, "Rideshare")},
		{Keyword: "QUICKBOOKS", Category: expense("Office", lineOther, "Software")},
		{Keyword: "INTUIT", Category: expense("Office", lineOther, "Software")},
		{Keyword: "ADOBE", Category: expense("Office", lineOther, "Software")},
		{Keyword: "GOOGLE WORKSPACE", Category: expense("Office", lineOther, "Software")},
		{Keyword: "MICROSOFT", Category: expense("Office", lineOther, "Software")},
		{Keyword: "DOCUSIGN", Category: expense("Office", lineOther, "Software")},
		{Keyword: "ZILLOW", Category: expense("Marketing", lineAdvertising, "Listing")},
		{Keyword: "APARTMENTS COM", Category: expense("Marketing", lineAdvertising, "Listing")},
		{Keyword: "CRAIGSLIST", Category: expense("Marketing", lineAdvertising, "Listing")},
		{Keyword: "STATE FARM", Category: expense("Insurance", lineInsurance, "Property insurance")},
		{Keyword: "ALLSTATE", Category: expense("Insurance", lineInsurance, "Property insurance")},
		{Keyword: "GEICO", Category: expense("Insurance", lineInsurance, "Insurance")},
		{Keyword: "COMCAST", Category: expense("Utilities", lineUtilities, "Internet")},
		{Keyword: "XFINITY", Category: expense("Utilities", lineUtilities, "Internet")},
		{Keyword: "PG E", Category: expense("Utilities", lineUtilities, "Gas and electric")},
		{Keyword: "CON EDISON", Category: expense("Utilities", lineUtilities, "Electric")},
		{Keyword: "WASTE MANAGEMENT", Category: expense("Utilities", lineUtilities, "Trash")},
		{Keyword: "APPFOLIO", Category: expense("Management", lineManagement, "Property management software")},
		{Keyword: "BUILDIUM", Category: expense("Management", lineManagement, "Property management software")},
		{Keyword: "IRS", Category: expense("Taxes", lineTaxes, "Federal tax")},
		{Keyword: "COUNTY TAX", Category: expense("Taxes", lineTaxes, "Property tax")},
		{Keyword: "LEGALZOOM", Category: expense("Professional Services", lineProfessional, "Legal")},
	})
}
