package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"mindboard/application/commands"
	"mindboard/application/commands/bus"
	"mindboard/application/editor"
)

func replayCmd(a *app) *cobra.Command {
	var (
		docID string
		title string
		stats bool
		view  viewFlags
	)

	cmd := &cobra.Command{
		Use:   "replay SCRIPT",
		Short: "Replay a YAML input script against a document",
		Long: `Replay feeds every step of SCRIPT through the editor, in order.
A failing step is reported and the replay carries on with the next one.
Without --doc a fresh document is created for the run.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read script: %w", err)
			}
			steps, err := commands.ParseScript(data)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			var s *session
			if docID != "" {
				s, err = a.openSession(ctx, docID)
			} else {
				s, err = a.createSession(ctx, title, "")
			}
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			Banner(out, "replay "+args[0])
			failures := runSteps(ctx, out, a.container.CommandBus, steps)
			printSummary(out, s, len(steps), failures)

			fmt.Fprintln(out)
			view.print(out, s.editor)

			if stats {
				fmt.Fprintln(out)
				if err := printStats(out, a.container.Metrics); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&docID, "doc", "", "Replay against a stored document")
	cmd.Flags().StringVar(&title, "title", "Replay", "Title of the document created when --doc is not given")
	cmd.Flags().BoolVar(&stats, "stats", false, "Print metrics gathered during the run")
	view.register(cmd)
	return cmd
}

// runSteps sends each step and reports failures, returning how many failed
func runSteps(ctx context.Context, w io.Writer, b *bus.CommandBus, steps []commands.Step) int {
	failures := 0
	for _, step := range steps {
		if err := b.Send(ctx, step.Command); err != nil {
			failures++
			Warn.Fprintf(w, "  line %d: %s: %v\n", step.Line, step.Name, err)
		}
	}
	return failures
}

func printSummary(w io.Writer, s *session, steps, failures int) {
	h := s.editor.History()
	fmt.Fprintf(w, "  %s %d steps, %d failed\n", StatusIcon(failures == 0), steps, failures)
	fmt.Fprintf(w, "  %s %s\n", Subtle.Sprint("document"), s.doc.ID())
	fmt.Fprintf(w, "  %s %s\n", Subtle.Sprint("history "), historyLine(h))
}

func historyLine(h editor.HistoryState) string {
	return fmt.Sprintf("%d/%d (undo %s, redo %s)", h.Cursor, h.Len, yesNo(h.CanUndo), yesNo(h.CanRedo))
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
