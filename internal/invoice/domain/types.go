package domain

import (
	"errors"
	"strings"

	docdomain "github.com/luminary/luminary-backend/internal/docprocessing/domain"
	"github.com/shopspring/decimal"
)

// ErrUnknownTaxType is returned by ParseTaxRegime for anything but the
// supported regimes and their aliases.
var ErrUnknownTaxType = errors.New("unknown tax type")

// TaxRegime selects how GST is shown on an invoice
type TaxRegime string

const (
	// RegimeSplit is intra-state supply: half CGST, half SGST
	RegimeSplit TaxRegime = "SPLIT"
	// RegimeSingle is inter-state supply: all IGST
	RegimeSingle TaxRegime = "SINGLE"

	// DefaultRegime applies when TaxSettings carries no recognised regime
	DefaultRegime = RegimeSplit
)

// Tax component names
const (
	ComponentCGST = "CGST"
	ComponentSGST = "SGST"
	ComponentIGST = "IGST"
)

// ParseTaxRegime accepts SPLIT/SINGLE and the older CGST_SGST/IGST names,
// case-insensitively.
func ParseTaxRegime(s string) (TaxRegime, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "SPLIT", "CGST_SGST":
		return RegimeSplit, nil
	case "SINGLE", "IGST":
		return RegimeSingle, nil
	default:
		return "", ErrUnknownTaxType
	}
}

// LineItem is one billed row of an invoice
type LineItem struct {
	ID          string          `json:"id"`
	Date        string          `json:"date,omitempty"`
	VehicleNo   string          `json:"vehicleNo,omitempty"`
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"qty"`
	Unit        string          `json:"unit,omitempty"`
	Rate        decimal.Decimal `json:"rate"`
}

// Amount is Quantity x Rate, unrounded
func (li LineItem) Amount() decimal.Decimal {
	return li.Quantity.Mul(li.Rate)
}

// LineItemFromRecord turns a scanned challan into an invoice row priced at rate
func LineItemFromRecord(id string, rec docdomain.ExtractedRecord, rate decimal.Decimal) LineItem {
	unit := rec.Unit
	if unit == "" {
		unit = docdomain.DefaultUnit
	}
	return LineItem{
		ID:          id,
		Date:        rec.Date,
		VehicleNo:   rec.VehicleNo,
		Description: rec.Description,
		Quantity:    decimal.NewFromFloat(rec.Qty),
		Unit:        unit,
		Rate:        rate,
	}
}

// TaxSettings are the invoice-level tax inputs. TaxRate is a percentage.
// A zero or unrecognised TaxType computes as DefaultRegime.
type TaxSettings struct {
	TaxRate decimal.Decimal
	TaxType TaxRegime
}

// TaxComponent is one tax line (CGST, SGST or IGST)
type TaxComponent struct {
	Name   string          `json:"name"`
	Rate   decimal.Decimal `json:"rate"`
	Amount decimal.Decimal `json:"amount"`
}

// Label renders the component as printed on the invoice, e.g. "CGST (2.5%)"
func (c TaxComponent) Label() string {
	return c.Name + " (" + c.Rate.String() + "%)"
}

// Totals are exact invoice totals
type Totals struct {
	SubTotal   decimal.Decimal `json:"subTotal"`
	TaxAmount  decimal.Decimal `json:"taxAmount"`
	Components []TaxComponent  `json:"components"`
	GrandTotal decimal.Decimal `json:"grandTotal"`
}

// DisplayComponent is a TaxComponent formatted for printing
type DisplayComponent struct {
	Label  string `json:"label"`
	Amount string `json:"amount"`
}

// DisplayTotals holds totals rounded to two places for presentation
type DisplayTotals struct {
	SubTotal   string             `json:"subTotal"`
	TaxAmount  string             `json:"taxAmount"`
	Components []DisplayComponent `json:"components"`
	GrandTotal string             `json:"grandTotal"`
}

// Display rounds every figure to two decimal places. The exact values in t
// are left untouched.
func (t Totals) Display() DisplayTotals {
	components := make([]DisplayComponent, 0, len(t.Components))
	for _, c := range t.Components {
		components = append(components, DisplayComponent{
			Label:  c.Label(),
			Amount: c.Amount.StringFixed(2),
		})
	}
	return DisplayTotals{
		SubTotal:   t.SubTotal.StringFixed(2),
		TaxAmount:  t.TaxAmount.StringFixed(2),
		Components: components,
		GrandTotal: t.GrandTotal.StringFixed(2),
	}
}
