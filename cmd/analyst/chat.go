package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

const chatHelp = "Ask about the uploaded statement. /clear empties the history, /history shows it, /exit quits."

func newChatCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "chat <file>",
		Short: "Analyse a statement, then ask follow-up questions interactively",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := a.open(args[0])
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			out := cmd.OutOrStdout()
			printAnalysis(out, session)

			fmt.Fprintln(out, "\n## Commentary")
			fmt.Fprintln(out)
			if err := streamTo(out, session.SummarizeStream(ctx)); err != nil {
				return fmt.Errorf("chat could not be activated: %w", err)
			}

			fmt.Fprintln(out, chatHelp)
			scanner := bufio.NewScanner(cmd.InOrStdin())
			for {
				fmt.Fprint(out, "> ")
				if !scanner.Scan() || isCanceled(ctx) {
					fmt.Fprintln(out)
					return scanner.Err()
				}

				line := strings.TrimSpace(scanner.Text())
				switch line {
				case "":
					continue
				case "/exit", "/quit":
					return nil
				case "/clear":
					session.Reset()
					fmt.Fprintln(out, "history cleared")
					continue
				case "/history":
					for _, turn := range session.Transcript() {
						fmt.Fprintf(out, "[%s] %s\n", turn.Role, turn.Content)
					}
					continue
				}

				if err := streamTo(out, session.AskStream(ctx, line)); err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "error: %v\n", err)
					if isCanceled(ctx) {
						return nil
					}
				}
			}
		},
	}
}
