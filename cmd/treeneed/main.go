package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"

	"github.com/couchcryptid/treecover-lookup-service/internal/observability"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var version = "dev"

// processMetrics registers the collectors once per process.
var processMetrics = sync.OnceValue(observability.NewMetrics)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var envFile string

	rootCmd := &cobra.Command{
		Use:   "treeneed",
		Short: "District tree-need lookup",
		Long: `treeneed serves the per-district tree-cover gap and planting targets
for Turkish provinces and districts.

Place names are matched after folding case, whitespace, and Turkish
diacritics, so "Kaş", "KAS" and " kas " address the same district.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return loadEnvFile(envFile)
		},
	}
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "File of KEY=VALUE settings read before the environment")
	rootCmd.PersistentFlags().String("dataset", "", "Dataset path or http(s) URL (overrides DATASET_URL and DATASET_PATH)")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(lookupCmd())
	rootCmd.AddCommand(provincesCmd())
	rootCmd.AddCommand(districtsCmd())
	rootCmd.AddCommand(auditCmd())
	rootCmd.AddCommand(exportCmd())

	return rootCmd
}

// loadEnvFile applies a .env file without overriding variables already set.
// A missing file is not an error.
func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}
