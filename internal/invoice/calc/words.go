package calc

import (
	"strings"

	"github.com/shopspring/decimal"
)

var ones = [...]string{
	"", "One", "Two", "Three", "Four", "Five", "Six", "Seven", "Eight", "Nine",
	"Ten", "Eleven", "Twelve", "Thirteen", "Fourteen", "Fifteen", "Sixteen",
	"Seventeen", "Eighteen", "Nineteen",
}

var tens = [...]string{
	"", "", "Twenty", "Thirty", "Forty", "Fifty", "Sixty", "Seventy", "Eighty", "Ninety",
}

// AmountInWords spells a rupee amount using the Indian numbering system,
// e.g. 11202.45 -> "Eleven Thousand Two Hundred Two Rupees And Forty Five Paise Only".
// The amount is rounded to whole paise first.
func AmountInWords(amount decimal.Decimal) string {
	amount = amount.Round(2)

	var b strings.Builder
	if amount.IsNegative() {
		b.WriteString("Minus ")
		amount = amount.Neg()
	}

	rupees := amount.Truncate(0)
	paise := amount.Sub(rupees).Mul(hundred).IntPart()

	if rupees.IsZero() {
		b.WriteString("Zero")
	} else {
		b.WriteString(spellRupees(rupees))
	}
	if rupees.Equal(decimal.NewFromInt(1)) {
		b.WriteString(" Rupee")
	} else {
		b.WriteString(" Rupees")
	}

	if paise > 0 {
		b.WriteString(" And ")
		b.WriteString(indianWords(uint64(paise)))
		if paise == 1 {
			b.WriteString(" Paisa")
		} else {
			b.WriteString(" Paise")
		}
	}

	b.WriteString(" Only")
	return b.String()
}

var crore = decimal.NewFromInt(10_000_000)

// spellRupees spells a positive whole amount, peeling crore groups off values
// that do not fit in a uint64.
func spellRupees(rupees decimal.Decimal) string {
	if n := rupees.BigInt(); n.IsUint64() {
		return indianWords(n.Uint64())
	}

	words := spellRupees(rupees.Div(crore).Truncate(0)) + " Crore"
	if rest := rupees.Mod(crore); rest.IsPositive() {
		words += " " + indianWords(rest.BigInt().Uint64())
	}
	return words
}

// indianWords spells n > 0 with Crore, Lakh, Thousand and Hundred groups.
// Amounts of a hundred crore and more repeat the crore group.
func indianWords(n uint64) string {
	var parts []string

	if n >= 10_000_000 {
		parts = append(parts, indianWords(n/10_000_000), "Crore")
		n %= 10_000_000
	}
	if n >= 100_000 {
		parts = append(parts, belowHundred(n/100_000), "Lakh")
		n %= 100_000
	}
	if n >= 1_000 {
		parts = append(parts, belowHundred(n/1_000), "Thousand")
		n %= 1_000
	}
	if n >= 100 {
		parts = append(parts, ones[n/100], "Hundred")
		n %= 100
	}
	if n > 0 {
		parts = append(parts, belowHundred(n))
	}

	return strings.Join(parts, " ")
}

func belowHundred(n uint64) string {
	if n < 20 {
		return ones[n]
	}
	if n%10 == 0 {
		return tens[n/10]
	}
	return tens[n/10] + " " + ones[n%10]
}
