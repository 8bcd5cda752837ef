package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/luminary/luminary-backend/internal/app"
	"github.com/luminary/luminary-backend/pkg/config"
	apperrors "github.com/luminary/luminary-backend/pkg/errors"
	"github.com/luminary/luminary-backend/pkg/logger"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var version = "dev"

// cli carries state shared by every subcommand once the root pre-run has
// loaded configuration
type cli struct {
	cfg *config.Config
	log *logger.Logger

	envFile   string
	logLevel  string
	uploadDir string
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:   "luminaryctl",
		Short: "Scan delivery challans and compute invoices from the command line",
		Long: `luminaryctl runs the challan extraction pipeline and the invoice
calculator locally, using the same LUMINARY_* configuration as the
extract service.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.load()
		},
	}

	root.PersistentFlags().StringVar(&c.envFile, "env-file", ".env", "Optional .env file loaded before configuration")
	root.PersistentFlags().StringVar(&c.logLevel, "log-level", "warn", "Log level written to stderr")
	root.PersistentFlags().StringVar(&c.uploadDir, "upload-dir", "", "Scratch directory for extraction (default: extraction.upload_dir)")

	root.AddCommand(
		newExtractCmd(c),
		newTotalsCmd(c),
		newExportCmd(c),
		newTokenCmd(c),
	)
	return root
}

func (c *cli) load() error {
	if err := config.LoadDotEnv(c.envFile); err != nil {
		return fmt.Errorf("load %s: %w", c.envFile, err)
	}

	cfg, err := config.Load(app.ServiceName)
	if err != nil {
		return err
	}
	if c.uploadDir != "" {
		cfg.Extraction.UploadDir = c.uploadDir
	}
	if err := cfg.Extraction.Validate(); err != nil {
		return fmt.Errorf("extraction configuration error: %w", err)
	}

	c.cfg = cfg
	c.log = logger.NewWithWriter("luminaryctl", zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.Kitchen,
	}).SetLevel(c.logLevel)
	return nil
}

func writeJSON(cmd *cobra.Command, v interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func readJSONFile(path string, v interface{}) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := json.NewDecoder(f).Decode(v); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

// describe flattens validation details into the error text
func describe(err error) error {
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) || len(appErr.Details) == 0 {
		return err
	}
	return fmt.Errorf("%s: %v", appErr.Message, appErr.Details)
}
