package domain

import "github.com/shopspring/decimal"

// QuotationItem is a lump-sum service line; quantity is informational only
type QuotationItem struct {
	ID          string          `json:"id"`
	Description string          `json:"description"`
	Unit        string          `json:"unit,omitempty"`
	Rate        decimal.Decimal `json:"rate"`
}

// QuotationRates are percentages applied on top of the item subtotal
type QuotationRates struct {
	ServiceCharge decimal.Decimal
	GST           decimal.Decimal
}

// QuotationTotals are exact quotation totals
type QuotationTotals struct {
	SubTotal      decimal.Decimal `json:"subTotal"`
	ServiceCharge decimal.Decimal `json:"serviceCharge"`
	Taxable       decimal.Decimal `json:"taxable"`
	GST           decimal.Decimal `json:"gst"`
	GrandTotal    decimal.Decimal `json:"grandTotal"`
}
