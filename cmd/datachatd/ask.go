package main

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"strings"

	"github.com/flitsinc/go-datachat/internal/logger"
	"github.com/flitsinc/go-datachat/internal/pipeline"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var (
	askSession  string
	askAudioOut string
	askNoRecord bool
)

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Answer one question and print the reply",
	Long: `Runs a single turn through the pipeline. With --audio the synthesized reply is
written to the given file. With --no-record nothing is synthesized or stored.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(true)
		if err != nil {
			return err
		}
		defer a.Close()

		ctx := logger.IntoContext(context.Background(), logger.NewRequestLogger())
		question := strings.Join(args, " ")

		spinner, _ := pterm.DefaultSpinner.Start("Thinking...")
		if askNoRecord {
			text, err := a.pipeline.Reply(ctx, question)
			if err != nil {
				spinner.Fail("Could not answer")
				return err
			}
			spinner.Success("Done")
			printReply(text, "", false)
			return nil
		}

		resp, err := a.pipeline.Handle(ctx, pipeline.Request{Text: question, SessionFile: askSession})
		if err != nil {
			spinner.Fail("Could not answer")
			return err
		}
		spinner.Success("Done")

		if resp.Audio != nil && askAudioOut != "" {
			audio, err := base64.StdEncoding.DecodeString(*resp.Audio)
			if err != nil {
				return fmt.Errorf("decode audio: %w", err)
			}
			if err := os.WriteFile(askAudioOut, audio, 0o644); err != nil {
				return fmt.Errorf("write audio: %w", err)
			}
			pterm.Success.Printf("Audio written to %s\n", askAudioOut)
		}
		printReply(resp.Text, resp.SessionFile, resp.Audio == nil)
		return nil
	},
}

func printReply(text, sessionID string, unrecorded bool) {
	pterm.DefaultBox.
		WithTitle(pterm.NewStyle(pterm.FgCyan, pterm.Bold).Sprint("Reply")).
		WithTopPadding(1).WithBottomPadding(1).WithLeftPadding(1).WithRightPadding(1).
		Println(text)
	if sessionID != "" {
		pterm.Println(pterm.NewStyle(pterm.FgLightCyan).Sprint("→ Session: ") + pterm.NewStyle(pterm.FgCyan).Sprint(sessionID))
	}
	if unrecorded {
		pterm.Warning.Println("No audio was produced, so this turn was not recorded.")
	}
}

func init() {
	askCmd.Flags().StringVar(&askSession, "session", "", "Continue an existing session")
	askCmd.Flags().StringVar(&askAudioOut, "audio", "", "Write the synthesized reply to this file")
	askCmd.Flags().BoolVar(&askNoRecord, "no-record", false, "Skip synthesis and do not store the turn")
}
