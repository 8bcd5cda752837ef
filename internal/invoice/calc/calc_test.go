package calc_test

import (
	"testing"

	"github.com/luminary/luminary-backend/internal/invoice/calc"
	"github.com/luminary/luminary-backend/internal/invoice/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func item(id, qty, rate string) domain.LineItem {
	return domain.LineItem{ID: id, Quantity: d(qty), Rate: d(rate)}
}

func assertDec(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, d(want).Equal(got), "want %s, got %s", want, got)
}

func TestCompute_Split(t *testing.T) {
	totals := calc.Compute(
		[]domain.LineItem{item("1", "2270", "4.7")},
		domain.TaxSettings{TaxRate: d("5"), TaxType: domain.RegimeSplit},
	)

	assertDec(t, "10669", totals.SubTotal)
	assertDec(t, "533.45", totals.TaxAmount)
	assertDec(t, "11202.45", totals.GrandTotal)

	require.Len(t, totals.Components, 2)
	assert.Equal(t, "CGST", totals.Components[0].Name)
	assert.Equal(t, "SGST", totals.Components[1].Name)
	for _, c := range totals.Components {
		assertDec(t, "2.5", c.Rate)
		assertDec(t, "266.725", c.Amount)
	}
}

func TestCompute_Single(t *testing.T) {
	totals := calc.Compute(
		[]domain.LineItem{item("1", "2270", "4.7")},
		domain.TaxSettings{TaxRate: d("5"), TaxType: domain.RegimeSingle},
	)

	require.Len(t, totals.Components, 1)
	assert.Equal(t, "IGST", totals.Components[0].Name)
	assertDec(t, "5", totals.Components[0].Rate)
	assertDec(t, "533.45", totals.Components[0].Amount)
	assertDec(t, "11202.45", totals.GrandTotal)
}

func TestCompute_UnsetRegimeComputesAsSplit(t *testing.T) {
	for _, regime := range []domain.TaxRegime{"", "VAT", "split"} {
		t.Run(string(regime), func(t *testing.T) {
			totals := calc.Compute(
				[]domain.LineItem{item("1", "2270", "4.7")},
				domain.TaxSettings{TaxRate: d("5"), TaxType: regime},
			)

			require.Len(t, totals.Components, 2)
			assert.Equal(t, "CGST", totals.Components[0].Name)
			assert.Equal(t, "SGST", totals.Components[1].Name)
			assertDec(t, "266.725", totals.Components[0].Amount)
			assertDec(t, "11202.45", totals.GrandTotal)
		})
	}
}

func TestCompute_EmptyItemsAreZero(t *testing.T) {
	for _, regime := range []domain.TaxRegime{domain.RegimeSplit, domain.RegimeSingle} {
		for _, rate := range []string{"0", "5", "18", "100"} {
			totals := calc.Compute(nil, domain.TaxSettings{TaxRate: d(rate), TaxType: regime})
			assert.True(t, totals.SubTotal.IsZero())
			assert.True(t, totals.TaxAmount.IsZero())
			assert.True(t, totals.GrandTotal.IsZero())
			for _, c := range totals.Components {
				assert.True(t, c.Amount.IsZero())
			}
		}
	}
}

func TestCompute_Invariants(t *testing.T) {
	items := []domain.LineItem{
		item("1", "1234.567", "3.333"),
		item("2", "15920", "4.7"),
		item("3", "0.5", "0.01"),
	}

	for _, rate := range []string{"0", "3", "5", "12", "18", "28", "7.5"} {
		t.Run(rate, func(t *testing.T) {
			split := calc.Compute(items, domain.TaxSettings{TaxRate: d(rate), TaxType: domain.RegimeSplit})
			single := calc.Compute(items, domain.TaxSettings{TaxRate: d(rate), TaxType: domain.RegimeSingle})

			sum := decimal.Zero
			for _, c := range split.Components {
				sum = sum.Add(c.Amount)
			}
			assert.True(t, sum.Equal(split.TaxAmount), "components must sum to tax amount")
			assert.True(t, split.GrandTotal.Equal(split.SubTotal.Add(split.TaxAmount)))
			assert.True(t, split.GrandTotal.Equal(single.GrandTotal), "regime must not change totals")
		})
	}
}

func TestCompute_NegativeValuesPropagate(t *testing.T) {
	totals := calc.Compute(
		[]domain.LineItem{item("1", "100", "10"), item("2", "-20", "10")},
		domain.TaxSettings{TaxRate: d("10"), TaxType: domain.RegimeSingle},
	)
	assertDec(t, "800", totals.SubTotal)
	assertDec(t, "880", totals.GrandTotal)

	credit := calc.Compute(
		[]domain.LineItem{item("1", "10", "-5")},
		domain.TaxSettings{TaxRate: d("5"), TaxType: domain.RegimeSplit},
	)
	assertDec(t, "-50", credit.SubTotal)
	assertDec(t, "-52.5", credit.GrandTotal)
}

func TestCompute_DisplayRoundsOnlyForPresentation(t *testing.T) {
	totals := calc.Compute(
		[]domain.LineItem{item("1", "2270", "4.7")},
		domain.TaxSettings{TaxRate: d("5"), TaxType: domain.RegimeSplit},
	)

	display := totals.Display()
	assert.Equal(t, "10669.00", display.SubTotal)
	assert.Equal(t, "533.45", display.TaxAmount)
	assert.Equal(t, "11202.45", display.GrandTotal)
	require.Len(t, display.Components, 2)
	assert.Equal(t, "CGST (2.5%)", display.Components[0].Label)
	assert.Equal(t, "266.73", display.Components[0].Amount)
	assert.Equal(t, "SGST (2.5%)", display.Components[1].Label)

	assertDec(t, "266.725", totals.Components[0].Amount)
}

func TestComputeQuotation(t *testing.T) {
	items := []domain.QuotationItem{
		{ID: "1", Description: "Thermic Fluid Boiler Operator", Unit: "1", Rate: d("42000")},
		{ID: "2", Description: "Fireman", Unit: "2", Rate: d("44000")},
	}

	totals := calc.ComputeQuotation(items, domain.QuotationRates{ServiceCharge: d("16"), GST: d("18")})

	assertDec(t, "86000", totals.SubTotal)
	assertDec(t, "13760", totals.ServiceCharge)
	assertDec(t, "99760", totals.Taxable)
	assertDec(t, "17956.8", totals.GST)
	assertDec(t, "117716.8", totals.GrandTotal)
}

func TestComputeQuotation_Empty(t *testing.T) {
	totals := calc.ComputeQuotation(nil, domain.QuotationRates{ServiceCharge: d("16"), GST: d("18")})
	assert.True(t, totals.GrandTotal.IsZero())
}

func TestAmountInWords(t *testing.T) {
	tests := []struct {
		amount string
		want   string
	}{
		{"11202.45", "Eleven Thousand Two Hundred Two Rupees And Forty Five Paise Only"},
		{"0", "Zero Rupees Only"},
		{"1", "One Rupee Only"},
		{"0.01", "Zero Rupees And One Paisa Only"},
		{"100", "One Hundred Rupees Only"},
		{"117716.8", "One Lakh Seventeen Thousand Seven Hundred Sixteen Rupees And Eighty Paise Only"},
		{"12345678", "One Crore Twenty Three Lakh Forty Five Thousand Six Hundred Seventy Eight Rupees Only"},
		{"1000000000", "One Hundred Crore Rupees Only"},
		{"266.725", "Two Hundred Sixty Six Rupees And Seventy Three Paise Only"},
		{"-52.5", "Minus Fifty Two Rupees And Fifty Paise Only"},
		{"90", "Ninety Rupees Only"},
		{"100000000000000000000", "Ten Lakh Crore Crore Rupees Only"},
		{"18446744073709551616", "One Lakh Eighty Four Thousand Four Hundred Sixty Seven Crore " +
			"Forty Four Lakh Seven Thousand Three Hundred Seventy Crore " +
			"Ninety Five Lakh Fifty One Thousand Six Hundred Sixteen Rupees Only"},
	}

	for _, tt := range tests {
		t.Run(tt.amount, func(t *testing.T) {
			assert.Equal(t, tt.want, calc.AmountInWords(d(tt.amount)))
		})
	}
}

func TestFormatIndian(t *testing.T) {
	tests := []struct {
		amount string
		places int32
		want   string
	}{
		{"0", 2, "0.00"},
		{"999", 0, "999"},
		{"1000", 0, "1,000"},
		{"117716.8", 0, "1,17,717"},
		{"12345678.9", 2, "1,23,45,678.90"},
		{"-99760", 0, "-99,760"},
	}

	for _, tt := range tests {
		t.Run(tt.amount, func(t *testing.T) {
			assert.Equal(t, tt.want, calc.FormatIndian(d(tt.amount), tt.places))
		})
	}
}
