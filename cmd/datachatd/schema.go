package main

import (
	"context"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the schema summary given to the model",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(false)
		if err != nil {
			return err
		}
		defer a.Close()

		summary, err := a.schema.Get(context.Background())
		if err != nil {
			return err
		}
		if strings.TrimSpace(summary) == "" {
			pterm.Warning.Printf("No tables found in %s store\n", a.cfg.StoreDriver)
			pterm.Println("   Load a sheet with: datachatd import <file.csv> --table <name>")
			return nil
		}
		pterm.DefaultBox.
			WithTitle(pterm.NewStyle(pterm.FgCyan, pterm.Bold).Sprint("Schema")).
			WithTopPadding(1).WithBottomPadding(1).WithLeftPadding(1).WithRightPadding(1).
			Println(strings.TrimSpace(summary))
		return nil
	},
}
