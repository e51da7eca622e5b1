package dictionary

// Financial returns the financial reporting terms dictionary.
func Financial() *Dictionary {
	return New("financial", []Entry{
		{"net income", []string{"profit", "earnings"}},
		{"gross profit", []string{"margin", "income"}},
		{"operating profit", []string{"EBIT", "earnings"}},
		{"profit before tax", []string{"EBT"}},
		{"profit after tax", []string{"PAT"}},
		{"EBITDA", []string{"cashflow"}},
		{"revenue", []string{"sales", "income"}},
		{"gross revenue", []string{"sales"}},
		{"operating revenue", []string{"income"}},
		{"operating costs", []string{"Opex", "expenses"}},
		{"SG&A", []string{"expenses"}},
		{"R&D", []string{"innovation"}},
		{"deferred tax", []string{"liability", "asset"}},
		{"assets", []string{"holdings", "PP&E"}},
		{"liabilities", []string{"debts"}},
		{"equity", []string{"capital", "worth"}},
		{"EPS", []string{"earnings"}},
		{"free cash flow", []string{"FCF"}},
		{"investing cash flow", []string{"investments"}},
		{"financing cash flow", []string{"debt"}},
		{"comprehensive income", []string{"earnings"}},
		{"dividend", []string{"payout"}},
		{"capital expenditures", []string{"CapEx"}},
		{"ROA", []string{"return"}},
		{"ROE", []string{"return"}},
		{"ROI", []string{"return"}},
		{"current ratio", []string{"liquidity"}},
		{"quick ratio", []string{"liquidity"}},
		{"debt-to-equity ratio", []string{"leverage"}},
		{"P/E ratio", []string{"valuation"}},
		{"ROS", []string{"return"}},
		{"EBIT", []string{"earnings"}},
		{"D&A", []string{"depreciation"}},
		{"goodwill", []string{"intangibles"}},
		{"impairment", []string{"write-down"}},
		{"working capital", []string{"liquidity"}},
		{"shareholders", []string{"stockholders"}},
		{"share buyback", []string{"repurchase"}},
		{"headcount", []string{"employees"}},
	})
}
