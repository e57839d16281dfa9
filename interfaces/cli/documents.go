package cli

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"mindboard/application/editor"
	"mindboard/pkg/observability"
)

// viewFlags hold the screen size scenes are rendered for
type viewFlags struct {
	width, height float64
	grid          bool
	cols, rows    int
}

func (v *viewFlags) register(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&v.width, "width", 1280, "Viewport width in pixels")
	cmd.Flags().Float64Var(&v.height, "height", 720, "Viewport height in pixels")
	cmd.Flags().BoolVar(&v.grid, "grid", false, "Also draw the scene as a character grid")
	cmd.Flags().IntVar(&v.cols, "cols", 96, "Grid columns")
	cmd.Flags().IntVar(&v.rows, "rows", 32, "Grid rows")
}

func (v *viewFlags) print(w io.Writer, ed *editor.Editor) {
	scene := ed.Scene(v.width, v.height)
	RenderScene(w, scene)
	if v.grid {
		fmt.Fprintln(w)
		for _, line := range RenderGrid(scene, v.cols, v.rows) {
			fmt.Fprintln(w, "  "+line)
		}
	}
}

func newCmd(a *app) *cobra.Command {
	var title, author string

	cmd := &cobra.Command{
		Use:   "new",
		Short: "Create a document with a central root node",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.createSession(cmd.Context(), title, author)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "  %s created %s\n", StatusIcon(true), Brand.Sprint(s.doc.Title()))
			fmt.Fprintln(out, s.doc.ID())
			return nil
		},
	}

	cmd.Flags().StringVarP(&title, "title", "t", "", "Document title")
	cmd.Flags().StringVarP(&author, "author", "a", "", "Author reference")
	_ = cmd.MarkFlagRequired("title")
	return cmd
}

func listCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List stored documents, newest first",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			Banner(out, "documents")

			docs, err := a.container.Store.List(cmd.Context())
			if err != nil {
				return err
			}
			if len(docs) == 0 {
				fmt.Fprintln(out, "  No documents yet. Create one with `board new --title NAME`")
				return nil
			}

			rows := make([][]string, 0, len(docs))
			for _, d := range docs {
				rows = append(rows, []string{
					d.ID,
					d.Title,
					d.AuthorID,
					fmt.Sprintf("%d", d.NodeCount),
					d.UpdatedAt.Local().Format("Jan 02 15:04"),
				})
			}
			Table(out, []string{"ID", "Title", "Author", "Nodes", "Updated"}, rows)
			return nil
		},
	}
}

func deleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "delete ID",
		Aliases: []string{"rm"},
		Short:   "Delete a stored document",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.container.Store.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "  %s deleted %s\n", StatusIcon(true), args[0])
			return nil
		},
	}
}

func renderCmd(a *app) *cobra.Command {
	var view viewFlags

	cmd := &cobra.Command{
		Use:   "render ID",
		Short: "Print the scene of a stored document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.openSession(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			Banner(out, s.doc.Title())
			view.print(out, s.editor)
			return nil
		},
	}

	view.register(cmd)
	return cmd
}

// printStats prints counters gathered from this process
func printStats(w io.Writer, metrics *observability.Collector) error {
	samples, err := metrics.Gather()
	if err != nil {
		return err
	}

	rows := make([][]string, 0, len(samples))
	for _, s := range samples {
		keys := make([]string, 0, len(s.Labels))
		for k := range s.Labels {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		labels := make([]string, 0, len(keys))
		for _, k := range keys {
			labels = append(labels, k+"="+s.Labels[k])
		}
		rows = append(rows, []string{s.Name, strings.Join(labels, ","), fmt.Sprintf("%g", s.Value)})
	}

	if len(rows) == 0 {
		fmt.Fprintln(w, "  No metrics recorded yet.")
		return nil
	}
	Table(w, []string{"Metric", "Labels", "Value"}, rows)
	return nil
}
