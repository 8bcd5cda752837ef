package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"

	"github.com/luminary/luminary-backend/internal/app"
	"github.com/luminary/luminary-backend/internal/docprocessing/storage"
	"github.com/luminary/luminary-backend/internal/invoice/domain"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

func newExtractCmd(c *cli) *cobra.Command {
	var (
		asItems bool
		rate    string
	)

	cmd := &cobra.Command{
		Use:   "extract <file>...",
		Short: "Extract challan fields from PDF, DOCX, image or text files",
		Long: `Each file is copied into the scratch directory and run through the
extraction pipeline; the originals are never modified. Results are printed as
JSON in argument order.

With --items the successful records are printed as invoice line items,
ready to be fed to "luminaryctl totals".`,
		Example: `  luminaryctl extract challan-0411.pdf scan.jpg
  luminaryctl extract --items --rate 4.7 *.pdf > items.json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			price, err := decimal.NewFromString(rate)
			if err != nil {
				return fmt.Errorf("invalid --rate %q: %w", rate, err)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			ext, err := app.NewExtraction(ctx, c.cfg, c.log)
			if err != nil {
				return err
			}
			defer ext.Close()

			uploads, err := copyIntoStore(ext.Store, args)
			if err != nil {
				return err
			}

			results := ext.Service.ExtractBatch(ctx, uploads)

			failed := 0
			for _, item := range results {
				if item.Error != "" {
					failed++
					c.log.Warn().Str("file", item.File).Str("error", item.Error).Msg("extraction failed")
				}
			}

			if asItems {
				items := make([]domain.LineItem, 0, len(results))
				for _, item := range results {
					if item.Record == nil {
						continue
					}
					id := strconv.Itoa(len(items) + 1)
					items = append(items, domain.LineItemFromRecord(id, *item.Record, price))
				}
				err = writeJSON(cmd, map[string]interface{}{"items": items})
			} else {
				err = writeJSON(cmd, results)
			}
			if err != nil {
				return err
			}

			if failed > 0 {
				return fmt.Errorf("%d of %d files failed", failed, len(results))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asItems, "items", false, "Print invoice line items instead of raw records")
	cmd.Flags().StringVar(&rate, "rate", "0", "Rate per unit applied with --items")
	return cmd
}

// copyIntoStore hands the pipeline private copies so Release never touches
// the caller's files
func copyIntoStore(store *storage.UploadStore, paths []string) ([]*storage.Upload, error) {
	uploads := make([]*storage.Upload, 0, len(paths))
	release := func() {
		for _, u := range uploads {
			_ = u.Release()
		}
	}

	for _, path := range paths {
		f, err := os.Open(path)
		if err != nil {
			release()
			return nil, err
		}
		up, err := store.Acquire(f, filepath.Base(path), "")
		f.Close()
		if err != nil {
			release()
			return nil, fmt.Errorf("copy %s: %w", path, err)
		}
		uploads = append(uploads, up)
	}
	return uploads, nil
}

