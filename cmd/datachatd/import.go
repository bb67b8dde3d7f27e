package main

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/flitsinc/go-datachat/internal/tabular"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var importTable string

var importCmd = &cobra.Command{
	Use:   "import <file.csv>",
	Short: "Load a CSV sheet into the sqlite store",
	Long: `Creates (or replaces) a table from a CSV file. Table and column names are
sanitised to letters, digits and underscores so they can be queried directly.
The table name defaults to the file name without its extension.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(false)
		if err != nil {
			return err
		}
		defer a.Close()
		if a.cfg.StoreDriver != "sqlite" {
			return errNoSQLiteStore
		}

		table := importTable
		if strings.TrimSpace(table) == "" {
			table = strings.TrimSuffix(filepath.Base(args[0]), filepath.Ext(args[0]))
		}

		n, err := tabular.ImportCSV(context.Background(), a.cfg.StoreDSN, args[0], table)
		if err != nil {
			pterm.Error.Printf("Import failed: %v\n", err)
			return err
		}
		pterm.Success.Printf("Imported %d rows into %s\n", n, tabular.SanitizeIdentifier(table))
		return nil
	},
}

func init() {
	importCmd.Flags().StringVar(&importTable, "table", "", "Target table name (sanitised)")
}
