package calc

import (
	"github.com/luminary/luminary-backend/internal/invoice/domain"
	"github.com/shopspring/decimal"
)

var (
	hundred = decimal.NewFromInt(100)
	two     = decimal.NewFromInt(2)
)

// Compute derives invoice totals from items and tax settings. Nothing is
// rounded; negative quantities and rates flow through unchanged.
func Compute(items []domain.LineItem, settings domain.TaxSettings) domain.Totals {
	subTotal := decimal.Zero
	for _, item := range items {
		subTotal = subTotal.Add(item.Amount())
	}

	taxAmount := subTotal.Mul(settings.TaxRate).Div(hundred)

	regime := settings.TaxType
	if regime != domain.RegimeSplit && regime != domain.RegimeSingle {
		regime = domain.DefaultRegime
	}

	var components []domain.TaxComponent
	switch regime {
	case domain.RegimeSingle:
		components = []domain.TaxComponent{
			{Name: domain.ComponentIGST, Rate: settings.TaxRate, Amount: taxAmount},
		}
	case domain.RegimeSplit:
		half := taxAmount.Div(two)
		halfRate := settings.TaxRate.Div(two)
		components = []domain.TaxComponent{
			{Name: domain.ComponentCGST, Rate: halfRate, Amount: half},
			// remainder keeps CGST + SGST == taxAmount exactly
			{Name: domain.ComponentSGST, Rate: halfRate, Amount: taxAmount.Sub(half)},
		}
	}

	return domain.Totals{
		SubTotal:   subTotal,
		TaxAmount:  taxAmount,
		Components: components,
		GrandTotal: subTotal.Add(taxAmount),
	}
}

// ComputeQuotation applies the service charge to the item subtotal and GST to
// the subtotal plus service charge.
func ComputeQuotation(items []domain.QuotationItem, rates domain.QuotationRates) domain.QuotationTotals {
	subTotal := decimal.Zero
	for _, item := range items {
		subTotal = subTotal.Add(item.Rate)
	}

	service := subTotal.Mul(rates.ServiceCharge).Div(hundred)
	taxable := subTotal.Add(service)
	gst := taxable.Mul(rates.GST).Div(hundred)

	return domain.QuotationTotals{
		SubTotal:      subTotal,
		ServiceCharge: service,
		Taxable:       taxable,
		GST:           gst,
		GrandTotal:    taxable.Add(gst),
	}
}
