package model

// CompanyInfo is display metadata from the market-data provider.
type CompanyInfo struct {
	Symbol        string    `json:"symbol"`
	Name          string    `json:"name"`
	Currency      string    `json:"currency"`
	Exchange      string    `json:"exchange"`
	CurrentPrice  NullFloat `json:"current_price"`
	PreviousClose NullFloat `json:"previous_close"`
	High52w       NullFloat `json:"high_52w"`
	Low52w        NullFloat `json:"low_52w"`
	MarketCap     NullFloat `json:"market_cap"`
	PERatio       NullFloat `json:"pe_ratio"`

	Ratios FinancialRatios `json:"ratios"`
}

// FinancialRatios are valuation and profitability ratios. Margins and returns
// are fractions (0.25 means 25%).
type FinancialRatios struct {
	ForwardPE       NullFloat `json:"forward_pe"`
	PEGRatio        NullFloat `json:"peg_ratio"`
	PriceToBook     NullFloat `json:"price_to_book"`
	PriceToSales    NullFloat `json:"price_to_sales"`
	DebtToEquity    NullFloat `json:"debt_to_equity"`
	ReturnOnEquity  NullFloat `json:"return_on_equity"`
	ReturnOnAssets  NullFloat `json:"return_on_assets"`
	ProfitMargin    NullFloat `json:"profit_margin"`
	OperatingMargin NullFloat `json:"operating_margin"`
	GrossMargin     NullFloat `json:"gross_margin"`
}
