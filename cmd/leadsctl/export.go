package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/wolfman30/contractor-leads/internal/app/bootstrap"
	"github.com/wolfman30/contractor-leads/internal/dashboard"
	"github.com/wolfman30/contractor-leads/internal/leads"
)

func newExportCmd() *cobra.Command {
	var (
		search string
		out    string
	)
	cmd := &cobra.Command{
		Use:       "export csv|tsv|xlsx",
		Short:     "Export leads newest first",
		Long:      "Export every lead, optionally filtered by the dashboard search term.\nWithout --out the file is named leads-YYYY-MM-DD.<format>; --out - writes to stdout.",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"csv", "tsv", "xlsx"},
		RunE: func(cmd *cobra.Command, args []string) error {
			url, err := requireDatabaseURL()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			logger := cliLogger()

			pool, err := bootstrap.ConnectPostgresPool(ctx, url, logger)
			if err != nil {
				return fmt.Errorf("connect postgres: %w", err)
			}
			defer pool.Close()

			list, err := leads.NewPostgresRepository(pool, logger).List(ctx)
			if err != nil {
				return fmt.Errorf("list leads: %w", err)
			}
			list = dashboard.Filter(list, search)

			format := args[0]
			if out == "" {
				out = dashboard.ExportFilename(time.Now(), format)
			}
			var w io.Writer = cmd.OutOrStdout()
			if out != "-" {
				f, err := os.Create(out)
				if err != nil {
					return err
				}
				defer f.Close()
				w = f
			}
			if err := writeExport(w, format, list); err != nil {
				return err
			}
			if out != "-" {
				logger.Info("exported leads", "count", len(list), "file", out)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&search, "search", "", "Only export leads matching this term")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output file (- for stdout)")
	return cmd
}

func writeExport(w io.Writer, format string, list []*leads.Lead) error {
	switch strings.ToLower(format) {
	case "csv":
		_, err := io.WriteString(w, dashboard.ExportCSV(list)+"\n")
		return err
	case "tsv":
		_, err := io.WriteString(w, dashboard.ExportTSV(list)+"\n")
		return err
	case "xlsx":
		body, err := dashboard.ExportXLSX(list)
		if err != nil {
			return err
		}
		_, err = w.Write(body)
		return err
	default:
		return fmt.Errorf("unknown export format %q", format)
	}
}
