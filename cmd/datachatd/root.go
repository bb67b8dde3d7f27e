package main

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "datachatd",
	Short: "Voice data-chat backend",
	Long: `datachatd answers spoken or typed questions about a tabular store. It turns a
question into SQL or a direct answer, narrates the result and synthesizes audio.

Run without a subcommand to start the HTTP server.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd, args)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd, askCmd, schemaCmd, sessionsCmd, importCmd)
}
