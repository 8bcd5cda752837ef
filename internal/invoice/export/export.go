// Package export renders invoices as XLSX workbooks.
package export

import (
	"fmt"

	"github.com/luminary/luminary-backend/internal/invoice/calc"
	"github.com/luminary/luminary-backend/internal/invoice/domain"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// SheetName is the single worksheet of an exported invoice
const SheetName = "Invoice"

// ContentType is the MIME type of the produced workbook
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Headers are the item table columns, in order
var Headers = []string{"Date", "Vehicle No", "Description", "Qty", "Unit", "Rate", "Amount"}

// Invoice is everything printed on an exported invoice
type Invoice struct {
	Number   string
	Date     string
	BillTo   string
	Items    []domain.LineItem
	Settings domain.TaxSettings
}

// XLSX writes the invoice items followed by a totals block and the amount in
// words. Cells hold exact values; two-place rounding is a number format only.
func XLSX(inv Invoice) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	money, err := f.NewStyle(&excelize.Style{NumFmt: 4})
	if err != nil {
		return nil, fmt.Errorf("money style: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("bold style: %w", err)
	}

	row := 1
	write := func(col int, v any) {
		cell, _ := excelize.CoordinatesToCellName(col, row)
		_ = f.SetCellValue(SheetName, cell, v)
	}
	style := func(fromCol, toCol, id int) {
		from, _ := excelize.CoordinatesToCellName(fromCol, row)
		to, _ := excelize.CoordinatesToCellName(toCol, row)
		_ = f.SetCellStyle(SheetName, from, to, id)
	}

	if inv.Number != "" || inv.Date != "" {
		write(1, "Invoice No")
		write(2, inv.Number)
		write(5, "Date")
		write(6, inv.Date)
		row++
	}
	if inv.BillTo != "" {
		write(1, "Bill To")
		write(2, inv.BillTo)
		row++
	}
	if row > 1 {
		row++
	}

	for i, h := range Headers {
		write(i+1, h)
	}
	style(1, len(Headers), bold)
	row++

	for _, item := range inv.Items {
		write(1, item.Date)
		write(2, item.VehicleNo)
		write(3, item.Description)
		write(4, number(item.Quantity))
		write(5, item.Unit)
		write(6, number(item.Rate))
		write(7, number(item.Amount()))
		style(6, 7, money)
		row++
	}

	totals := calc.Compute(inv.Items, inv.Settings)
	row++

	summary := func(label string, v decimal.Decimal) {
		write(6, label)
		write(7, number(v))
		style(7, 7, money)
		row++
	}
	summary("Sub Total", totals.SubTotal)
	if inv.Settings.TaxRate.IsPositive() {
		for _, c := range totals.Components {
			summary(c.Label(), c.Amount)
		}
	}
	write(6, "Grand Total")
	write(7, number(totals.GrandTotal))
	boldMoney, err := f.NewStyle(&excelize.Style{NumFmt: 4, Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("total style: %w", err)
	}
	style(6, 6, bold)
	style(7, 7, boldMoney)
	row += 2

	write(1, "Amount in Words")
	write(2, calc.AmountInWords(totals.GrandTotal))

	_ = f.SetColWidth(SheetName, "A", "A", 14) // date
	_ = f.SetColWidth(SheetName, "B", "B", 16) // vehicle
	_ = f.SetColWidth(SheetName, "C", "C", 28) // description
	_ = f.SetColWidth(SheetName, "D", "E", 10) // qty, unit
	_ = f.SetColWidth(SheetName, "F", "G", 16) // rate, amount

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	return buf.Bytes(), nil
}

// number converts for the cell writer; spreadsheets store IEEE doubles
func number(d decimal.Decimal) float64 {
	return d.InexactFloat64()
}
