package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"mindboard/application/commands"
	"mindboard/infrastructure/config"
)

const replHelp = `Type a command as a YAML step or as name key=value pairs:

  tool: {name: shape}
  pointer_down x=300 y=200
  label id=#2 text=Ideas

Meta commands: scene, stats, history, help, quit`

func replCmd(a *app) *cobra.Command {
	var view viewFlags

	cmd := &cobra.Command{
		Use:   "repl ID",
		Short: "Edit a stored document interactively",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := a.openSession(ctx, args[0])
			if err != nil {
				return err
			}

			stop := a.watchConfig()
			defer stop()

			out := cmd.OutOrStdout()
			Banner(out, s.doc.Title())
			fmt.Fprintln(out, Subtle.Sprint("  help lists commands, quit leaves"))

			scanner := bufio.NewScanner(cmd.InOrStdin())
			for {
				fmt.Fprint(out, Info.Sprint("> "))
				if !scanner.Scan() {
					fmt.Fprintln(out)
					return scanner.Err()
				}
				if ctx.Err() != nil {
					return ctx.Err()
				}

				line := strings.TrimSpace(scanner.Text())
				switch line {
				case "":
					continue
				case "quit", "exit":
					return nil
				case "help":
					fmt.Fprintln(out, replHelp)
					fmt.Fprintln(out)
					fmt.Fprintln(out, "  "+strings.Join(commands.Names(), ", "))
					continue
				case "scene":
					view.print(out, s.editor)
					continue
				case "history":
					fmt.Fprintln(out, "  "+historyLine(s.editor.History()))
					continue
				case "stats":
					if err := printStats(out, a.container.Metrics); err != nil {
						Bad.Fprintf(out, "  %v\n", err)
					}
					continue
				}

				step, err := commands.ParseLine(line)
				if err == nil {
					err = a.container.CommandBus.Send(ctx, step.Command)
				}
				report(out, err)
			}
		},
	}

	view.register(cmd)
	return cmd
}

func report(w io.Writer, err error) {
	if err != nil {
		Bad.Fprintf(w, "  %s %v\n", StatusIcon(false), err)
		return
	}
	fmt.Fprintf(w, "  %s\n", StatusIcon(true))
}

// watchConfig reloads the config file while a session runs. Only settings
// that can change without reopening the store take effect.
func (a *app) watchConfig() func() {
	path := a.loader.Path()
	if _, err := os.Stat(path); err != nil {
		return func() {}
	}

	logger := a.container.Logger
	w, err := config.NewWatcher(a.loader, a.cfg, logger, config.DefaultDebounce)
	if err != nil {
		logger.Warn("Config hot reload disabled", zap.Error(err))
		return func() {}
	}
	w.OnChange(a.container.ApplyConfig)
	return w.Stop
}
