package categorizer

import (
	"strings"

	"github.com/dvloznov/rent-ledger/internal/domain"
)

const (
	hintDetailedConfidence = 0.7
	hintPrimaryConfidence  = 0.5
)

// detailedHints translates provider detailed categories.
var detailedHints = map[string]domain.CategoryHierarchy{
	"INCOME_WAGES":                                       {L0: domain.L0Income, L1: "Other Income", L2: "Wages", L3: "Payroll"},
	"INCOME_INTEREST_EARNED":                             {L0: domain.L0Income, L1: "Other Income", L2: "Interest", L3: "Bank interest"},
	"INCOME_DIVIDENDS":                                   {L0: domain.L0Income, L1: "Other Income", L2: "Dividends", L3: "Dividends"},
	"INCOME_OTHER_INCOME":                                {L0: domain.L0Income, L1: "Rental Income", L2: lineRents, L3: "Deposit"},
	"LOAN_PAYMENTS_MORTGAGE_PAYMENT":                     {L0: domain.L0Expense, L1: "Financing", L2: lineMortgage, L3: "Mortgage payment"},
	"LOAN_PAYMENTS_CREDIT_CARD_PAYMENT":                  {L0: domain.L0Transfer, L1: "Card Payment", L2: "Transfer", L3: "Credit card payment"},
	"RENT_AND_UTILITIES_GAS_AND_ELECTRICITY":             {L0: domain.L0Expense, L1: "Utilities", L2: lineUtilities, L3: "Gas and electric"},
	"RENT_AND_UTILITIES_WATER":                           {L0: domain.L0Expense, L1: "Utilities", L2: lineUtilities, L3: "Water"},
	"RENT_AND_UTILITIES_SEWAGE_AND_WASTE_MANAGEMENT":     {L0: domain.L0Expense, L1: "Utilities", L2: lineUtilities, L3: "Trash and sewer"},
	"RENT_AND_UTILITIES_INTERNET_AND_CABLE":              {L0: domain.L0Expense, L1: "Utilities", L2: lineUtilities, L3: "Internet"},
	"HOME_IMPROVEMENT_HARDWARE":                          {L0: domain.L0Expense, L1: "Repairs & Maintenance", L2: lineRepairs, L3: "Hardware"},
	"HOME_IMPROVEMENT_REPAIR_AND_MAINTENANCE":            {L0: domain.L0Expense, L1: "Repairs & Maintenance", L2: lineRepairs, L3: "Repair service"},
	"GENERAL_SERVICES_INSURANCE":                         {L0: domain.L0Expense, L1: "Insurance", L2: lineInsurance, L3: "Insurance"},
	"GENERAL_SERVICES_ACCOUNTING_AND_FINANCIAL_PLANNING": {L0: domain.L0Expense, L1: "Professional Services", L2: lineProfessional, L3: "Accounting"},
	"GOVERNMENT_AND_NON_PROFIT_TAX_PAYMENT":              {L0: domain.L0Expense, L1: "Taxes", L2: lineTaxes, L3: "Tax payment"},
	"TRANSPORTATION_GAS":                                 {L0: domain.L0Expense, L1: "Auto & Travel", L2: lineAutoTravel, L3: "Fuel"},
	"BANK_FEES_OTHER_BANK_FEES":                          {L0: domain.L0Expense, L1: "Bank Charges", L2: lineOther, L3: "Bank fees"},
}

// primaryHints translates provider primary categories when the detailed
// category is unknown.
var primaryHints = map[string]domain.CategoryHierarchy{
	"INCOME":                    {L0: domain.L0Income, L1: "Other Income", L2: "Other income", L3: domain.Uncategorized},
	"TRANSFER_IN":               {L0: domain.L0Transfer, L1: "Transfer In", L2: "Transfer", L3: domain.Uncategorized},
	"TRANSFER_OUT":              {L0: domain.L0Transfer, L1: "Transfer Out", L2: "Transfer", L3: domain.Uncategorized},
	"LOAN_PAYMENTS":             {L0: domain.L0Liability, L1: "Loan Payment", L2: "Principal", L3: domain.Uncategorized},
	"BANK_FEES":                 {L0: domain.L0Expense, L1: "Bank Charges", L2: lineOther, L3: domain.Uncategorized},
	"HOME_IMPROVEMENT":          {L0: domain.L0Expense, L1: "Repairs & Maintenance", L2: lineRepairs, L3: domain.Uncategorized},
	"RENT_AND_UTILITIES":        {L0: domain.L0Expense, L1: "Utilities", L2: lineUtilities, L3: domain.Uncategorized},
	"GENERAL_SERVICES":          {L0: domain.L0Expense, L1: "Services", L2: lineOther, L3: domain.Uncategorized},
	"GOVERNMENT_AND_NON_PROFIT": {L0: domain.L0Expense, L1: "Taxes", L2: lineTaxes, L3: domain.Uncategorized},
	"TRANSPORTATION":            {L0: domain.L0Expense, L1: "Auto & Travel", L2: lineAutoTravel, L3: domain.Uncategorized},
	"TRAVEL":                    {L0: domain.L0Expense, L1: "Auto & Travel", L2: lineAutoTravel, L3: domain.Uncategorized},
	"GENERAL_MERCHANDISE":       {L0: domain.L0Expense, L1: "Supplies", L2: lineSupplies, L3: domain.Uncategorized},
	"FOOD_AND_DRINK":            {L0: domain.L0Expense, L1: "Meals", L2: lineOther, L3: domain.Uncategorized},
	"ENTERTAINMENT":             {L0: domain.L0Expense, L1: "Personal", L2: lineOther, L3: domain.Uncategorized},
	"PERSONAL_CARE":             {L0: domain.L0Expense, L1: "Personal", L2: lineOther, L3: domain.Uncategorized},
	"MEDICAL":                   {L0: domain.L0Expense, L1: "Personal", L2: lineOther, L3: domain.Uncategorized},
}

// TranslateHint maps a provider category hint into the internal hierarchy.
func TranslateHint(primary, detailed string) (domain.CategoryHierarchy, float64, bool) {
	if h, ok := detailedHints[strings.ToUpper(strings.TrimSpace(detailed))]; ok {
		return h.Normalize(), hintDetailedConfidence, true
	}
	if h, ok := primaryHints[strings.ToUpper(strings.TrimSpace(primary))]; ok {
		return h.Normalize(), hintPrimaryConfidence, true
	}
	return domain.CategoryHierarchy{}, 0, false
}
