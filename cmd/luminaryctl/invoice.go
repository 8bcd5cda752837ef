package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/luminary/luminary-backend/internal/invoice/calc"
	"github.com/luminary/luminary-backend/internal/invoice/domain"
	"github.com/luminary/luminary-backend/internal/invoice/export"
	invoicehandler "github.com/luminary/luminary-backend/internal/invoice/handler"
	"github.com/luminary/luminary-backend/pkg/httputil"
	"github.com/spf13/cobra"
)

// loadInvoice reads a request body file as accepted by POST /api/invoice/export
// and applies configured defaults
func (c *cli) loadInvoice(path string) (invoicehandler.ExportRequest, []domain.LineItem, domain.TaxSettings, error) {
	var req invoicehandler.ExportRequest
	if err := readJSONFile(path, &req); err != nil {
		return req, nil, domain.TaxSettings{}, err
	}
	if err := httputil.Validate(&req); err != nil {
		return req, nil, domain.TaxSettings{}, describe(err)
	}

	items, settings, err := invoicehandler.NewHandler(c.cfg.Invoice, c.log).Resolve(req.TotalsRequest)
	if err != nil {
		return req, nil, domain.TaxSettings{}, describe(err)
	}
	return req, items, settings, nil
}

func newTotalsCmd(c *cli) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "totals <invoice.json>",
		Short: "Compute invoice totals",
		Long: `Reads {"items":[{"id","qty","rate",...}],"taxRate":5,"taxType":"SPLIT"}
and prints the subtotal, tax lines, grand total and amount in words.
Missing tax settings and rates take the configured defaults.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, items, settings, err := c.loadInvoice(args[0])
			if err != nil {
				return err
			}

			totals := calc.Compute(items, settings)
			words := calc.AmountInWords(totals.GrandTotal)

			if asJSON {
				return writeJSON(cmd, invoicehandler.TotalsResponse{
					TaxRate:       settings.TaxRate,
					TaxType:       settings.TaxType,
					Totals:        totals,
					Display:       totals.Display(),
					AmountInWords: words,
				})
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 8, 2, ' ', tabwriter.AlignRight)
			fmt.Fprintf(tw, "Sub Total\t%s\t\n", calc.FormatIndian(totals.SubTotal, 2))
			if settings.TaxRate.IsPositive() {
				for _, comp := range totals.Components {
					fmt.Fprintf(tw, "%s\t%s\t\n", comp.Label(), calc.FormatIndian(comp.Amount, 2))
				}
			}
			fmt.Fprintf(tw, "Grand Total\t%s\t\n", calc.FormatIndian(totals.GrandTotal, 2))
			if err := tw.Flush(); err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), words)
			return err
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print exact and display totals as JSON")
	return cmd
}

func newExportCmd(c *cli) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:     "export <invoice.json>",
		Short:   "Write an invoice as an XLSX workbook",
		Example: `  luminaryctl export invoice.json -o LUM-042.xlsx`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, items, settings, err := c.loadInvoice(args[0])
			if err != nil {
				return err
			}

			data, err := export.XLSX(export.Invoice{
				Number:   req.InvoiceNo,
				Date:     req.InvoiceDate,
				BillTo:   req.BillTo,
				Items:    items,
				Settings: settings,
			})
			if err != nil {
				return err
			}

			if err := os.WriteFile(output, data, 0o644); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d items)\n", output, len(items))
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "invoice.xlsx", "Output file path")
	return cmd
}
