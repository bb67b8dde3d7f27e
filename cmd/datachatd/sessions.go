package main

import (
	"context"
	"time"

	"github.com/flitsinc/go-datachat/internal/session"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List stored sessions, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(false)
		if err != nil {
			return err
		}
		defer a.Close()

		items, err := a.sessions.List(context.Background())
		if err != nil {
			return err
		}
		if len(items) == 0 {
			pterm.Info.Println("No sessions yet")
			return nil
		}
		return renderSessionList(items)
	},
}

var sessionsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print the turns of one session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(false)
		if err != nil {
			return err
		}
		defer a.Close()

		sess, err := a.sessions.Load(context.Background(), args[0])
		if err != nil {
			return err
		}
		pterm.DefaultSection.Println(sess.SessionID)
		pterm.Println("Created " + sess.CreatedAt.Format(time.RFC3339))
		pterm.Println()
		for _, msg := range sess.Messages {
			style := pterm.NewStyle(pterm.FgLightBlue, pterm.Bold)
			if msg.Role == session.RoleAssistant {
				style = pterm.NewStyle(pterm.FgGreen, pterm.Bold)
			}
			pterm.Println(style.Sprint(string(msg.Role)+": ") + msg.Content)
		}
		return nil
	},
}

func renderSessionList(items []session.Summary) error {
	data := pterm.TableData{{"ID", "Created"}}
	for _, item := range items {
		data = append(data, []string{item.ID, item.CreatedAt.Format(time.RFC3339)})
	}
	return pterm.DefaultTable.WithHasHeader().WithData(data).Render()
}

func init() {
	sessionsCmd.AddCommand(sessionsShowCmd)
}
