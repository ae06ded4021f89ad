package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/couchcryptid/treecover-lookup-service/internal/adapter/source"
	"github.com/couchcryptid/treecover-lookup-service/internal/config"
	"github.com/couchcryptid/treecover-lookup-service/internal/domain"
	"github.com/couchcryptid/treecover-lookup-service/internal/export"
	"github.com/couchcryptid/treecover-lookup-service/internal/lookup"
	"github.com/couchcryptid/treecover-lookup-service/internal/observability"
	"github.com/spf13/cobra"
)

// errAuditFailed is returned by audit --strict when the report is not clean.
var errAuditFailed = errors.New("dataset audit found re-keyed, replaced or skipped entries")

func lookupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lookup <province> <district>",
		Short: "Resolve one district and print the result as JSON",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := loadService(cmd)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), svc.Lookup(args[0], args[1]))
		},
	}
}

func provincesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "provinces",
		Short: "List provinces in display order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := loadService(cmd)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "KEY\tPROVINCE")
			for _, p := range svc.Provinces() {
				fmt.Fprintf(tw, "%s\t%s\n", p.Key, p.Label)
			}
			return tw.Flush()
		},
	}
}

func districtsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "districts <province>",
		Short: "List a province's districts in display order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := loadService(cmd)
			if err != nil {
				return err
			}
			key := domain.Normalize(args[0])
			if _, ok := svc.Index().Province(key); !ok {
				return fmt.Errorf("unknown province %q", args[0])
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "KEY\tDISTRICT")
			for _, d := range svc.Districts(key) {
				fmt.Fprintf(tw, "%s\t%s\n", d.Key, d.Label)
			}
			return tw.Flush()
		},
	}
}

func auditCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Report dataset entries that were re-keyed, replaced or skipped",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			strict, _ := cmd.Flags().GetBool("strict")

			svc, err := loadService(cmd)
			if err != nil {
				return err
			}
			report := svc.Index().Audit()
			if err := printJSON(cmd.OutOrStdout(), report); err != nil {
				return err
			}
			if strict && !report.Clean() {
				return errAuditFailed
			}
			return nil
		},
	}
	cmd.Flags().Bool("strict", false, "Exit non-zero unless every entry was indexed under its own key")
	return cmd
}

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write every district's resolved values to an xlsx workbook",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			output, _ := cmd.Flags().GetString("output")

			svc, err := loadService(cmd)
			if err != nil {
				return err
			}

			f, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("create %s: %w", output, err)
			}
			if err := export.WriteXLSX(f, svc.Index()); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return fmt.Errorf("close %s: %w", output, err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "wrote %d districts to %s\n", svc.Index().Len(), output)
			return nil
		},
	}
	cmd.Flags().StringP("output", "o", "treecover.xlsx", "Workbook path")
	return cmd
}

// loadConfig reads the environment and applies the --dataset override.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if dataset, _ := cmd.Flags().GetString("dataset"); dataset != "" {
		if isURL(dataset) {
			cfg.DatasetURL = dataset
		} else {
			cfg.DatasetURL, cfg.DatasetPath = "", dataset
		}
	}
	return cfg, nil
}

func newSource(cfg *config.Config, logger *slog.Logger) lookup.Source {
	if cfg.DatasetURL != "" {
		return source.NewHTTPSource(cfg.DatasetURL, cfg.DatasetTimeout, logger)
	}
	return source.NewFileSource(cfg.DatasetPath)
}

// loadService performs one synchronous load for the one-shot commands.
func loadService(cmd *cobra.Command) (*lookup.Service, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	logger := observability.NewLoggerTo(cmd.ErrOrStderr(), cfg)

	svc := lookup.NewService(newSource(cfg, logger), logger, processMetrics(),
		lookup.WithNormalizeCache(cfg.NormalizeCacheSize))
	if _, err := svc.Load(cmd.Context()); err != nil {
		return nil, err
	}
	return svc, nil
}

func isURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
