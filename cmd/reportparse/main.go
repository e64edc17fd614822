package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/quoteflow/quoteflow-backend/internal/reports/domain"
	"github.com/quoteflow/quoteflow-backend/internal/reports/processor"
	"github.com/quoteflow/quoteflow-backend/internal/reports/service"
	"github.com/quoteflow/quoteflow-backend/internal/reports/storage"
	"github.com/quoteflow/quoteflow-backend/internal/reports/textextract"
	"github.com/quoteflow/quoteflow-backend/pkg/logger"
)

const defaultMinTextLength = 20

type options struct {
	raw           bool
	pretty        bool
	verbose       bool
	minTextLength int
}

func main() {
	if err := rootCmd(os.Stdout).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd(out io.Writer) *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "reportparse",
		Short: "Parse a DASH or MVR driver report and print the record as JSON",
		Long: `reportparse runs the report extraction engine over a local file.

Examples:
  reportparse dash ./dash.pdf --pretty
  reportparse mvr ./mvr.pdf --raw`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)

	root.PersistentFlags().BoolVar(&opts.raw, "raw", false, "print the extracted page text instead of the record")
	root.PersistentFlags().BoolVar(&opts.pretty, "pretty", false, "indent JSON output")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log extraction steps to stderr")
	root.PersistentFlags().IntVar(&opts.minTextLength, "min-text", defaultMinTextLength, "minimum non-space characters an extractor must yield")

	root.AddCommand(
		parseCmd(domain.ReportTypeDASH, "Parse a DASH (Driver Abstract/Summary History) report", opts),
		parseCmd(domain.ReportTypeMVR, "Parse an MVR (Motor Vehicle Record) report", opts),
	)
	return root
}

func parseCmd(reportType domain.ReportType, short string, opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   string(reportType) + " <file>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), cmd.OutOrStdout(), reportType, args[0], opts)
		},
	}
}

func run(ctx context.Context, out io.Writer, reportType domain.ReportType, path string, opts *options) error {
	if ctx == nil {
		ctx = context.Background()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	log := logger.Nop()
	if opts.verbose {
		log = logger.NewWithWriter("reportparse", os.Stderr)
	}
	chain := textextract.DefaultChain(opts.minTextLength, log)

	if opts.raw {
		doc, err := chain.Extract(ctx, data)
		if err != nil {
			return fmt.Errorf("failed to extract text: %w", err)
		}
		_, err = io.WriteString(out, doc.Text)
		return err
	}

	store := storage.NewResultStore(storage.DefaultTTL)
	defer store.Close()

	svc := service.NewService(chain, processor.DefaultRegistry(log), store, nil, nil, log, 0)
	result, err := svc.Parse(ctx, data, reportType, filepath.Base(path))
	if err != nil {
		return err
	}

	return writeJSON(out, result.Record, opts.pretty)
}

func writeJSON(out io.Writer, v any, pretty bool) error {
	var (
		b   []byte
		err error
	)
	if pretty {
		b, err = json.MarshalIndent(v, "", "  ")
	} else {
		b, err = json.Marshal(v)
	}
	if err != nil {
		return fmt.Errorf("failed to encode record: %w", err)
	}
	b = append(b, '\n')
	_, err = out.Write(b)
	return err
}
