package main

import (
	"context"
	"fmt"
	"io"
	"iter"

	"github.com/spf13/cobra"

	"statement_analyst/pkg/core/conversation"
	"statement_analyst/pkg/core/report"
)

func newAnalyzeCommand(a *app) *cobra.Command {
	var noAI bool

	cmd := &cobra.Command{
		Use:   "analyze <file>",
		Short: "Print the decorated statement, liquidity metrics and AI commentary",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := a.open(args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			printAnalysis(out, session)
			if noAI {
				return nil
			}

			fmt.Fprintln(out, "\n## Commentary")
			fmt.Fprintln(out)
			return streamTo(out, session.SummarizeStream(cmd.Context()))
		},
	}
	cmd.Flags().BoolVar(&noAI, "no-ai", false, "skip the LLM commentary")
	return cmd
}

func printAnalysis(out io.Writer, s *conversation.Session) {
	fmt.Fprintf(out, "# %s\n\n", s.FileName)
	fmt.Fprint(out, report.MarkdownTable(report.StatementColumns, report.StatementRows(s.Table())))

	fmt.Fprintln(out, "\n## Liquidity")
	fmt.Fprintln(out)
	for _, m := range report.LiquidityMetrics(s.Liquidity()) {
		if m.Delta != "" {
			fmt.Fprintf(out, "- %s: %s (delta %s)\n", m.Label, m.Value, m.Delta)
			continue
		}
		fmt.Fprintf(out, "- %s: %s\n", m.Label, m.Value)
	}

	for _, w := range s.Warnings() {
		fmt.Fprintf(out, "warning: %s\n", w.Message)
	}
}

// streamTo prints the growth of each running concatenation so the text
// appears incrementally.
func streamTo(out io.Writer, seq iter.Seq2[string, error]) error {
	printed := 0
	for text, err := range seq {
		if len(text) > printed {
			fmt.Fprint(out, text[printed:])
			printed = len(text)
		}
		if err != nil {
			fmt.Fprintln(out)
			return err
		}
	}
	fmt.Fprintln(out)
	return nil
}

func isCanceled(ctx context.Context) bool {
	return ctx.Err() != nil
}
