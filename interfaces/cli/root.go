// Package cli implements the board command line.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"mindboard/application/commands"
	"mindboard/application/editor"
	"mindboard/domain/core/aggregates"
	"mindboard/infrastructure/config"
	"mindboard/infrastructure/di"
)

var version = "0.3.0"

// app carries state shared by subcommands for one invocation
type app struct {
	configPath  string
	storeDriver string

	loader    *config.Loader
	cfg       *config.Config
	container *di.Container
	cleanup   func()
}

// newRoot builds the command tree
func newRoot() (*cobra.Command, *app) {
	a := &app{}

	root := &cobra.Command{
		Use:           "board",
		Short:         "board, an infinite-canvas mind map editor",
		Long:          Brand.Sprint("board") + " edits node-graph documents on an infinite canvas\n" + Subtle.Sprint("Replay scripted input, render scenes, and manage stored boards"),
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.open(cmd.Context())
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			a.close()
		},
	}

	root.SetVersionTemplate("board {{ .Version }}\n")
	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "YAML config file (default "+config.DefaultPath+" if present)")
	root.PersistentFlags().StringVar(&a.storeDriver, "store", "", "Store driver override: memory, sqlite or dynamodb")

	root.AddCommand(
		newCmd(a),
		listCmd(a),
		deleteCmd(a),
		renderCmd(a),
		replayCmd(a),
		replCmd(a),
	)
	return root, a
}

// Execute runs the command line against the process streams.
func Execute(ctx context.Context) error {
	return Run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
}

// Run executes one invocation. Resources are released even when the
// command fails, so queued saves are always flushed.
func Run(ctx context.Context, args []string, in io.Reader, out, errOut io.Writer) error {
	root, a := newRoot()
	defer a.close()

	root.SetArgs(args)
	root.SetIn(in)
	root.SetOut(out)
	root.SetErr(errOut)

	err := root.ExecuteContext(ctx)
	if err != nil {
		Bad.Fprintf(errOut, "board: %v\n", err)
	}
	return err
}

func (a *app) open(ctx context.Context) error {
	if a.container != nil {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	a.loader = config.NewLoader(a.configPath)
	cfg, err := a.loader.Load()
	if err != nil {
		return err
	}
	if a.storeDriver != "" {
		cfg.Store.Driver = config.StoreDriver(a.storeDriver)
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid --store: %w", err)
		}
	}
	a.cfg = cfg

	container, cleanup, err := di.InitializeContainer(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize: %w", err)
	}
	a.container = container
	a.cleanup = cleanup

	container.Logger.Debug("Configuration loaded",
		zap.Strings("sources", cfg.LoadedFrom),
		zap.String("store", string(cfg.Store.Driver)),
	)
	return nil
}

func (a *app) close() {
	if a.cleanup != nil {
		a.cleanup()
		a.cleanup = nil
	}
	a.container = nil
}

// session is one document opened in an editor wired to the command bus
type session struct {
	doc    *aggregates.Document
	editor *editor.Editor
}

func (a *app) openSession(ctx context.Context, id string) (*session, error) {
	doc, err := a.container.Store.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	return a.attach(doc)
}

func (a *app) createSession(ctx context.Context, title, author string) (*session, error) {
	doc, err := aggregates.NewDocument(title, author)
	if err != nil {
		return nil, err
	}
	doc.SeedRoot(a.container.Domain)
	if err := a.container.Store.Create(ctx, doc); err != nil {
		return nil, err
	}
	return a.attach(doc)
}

func (a *app) attach(doc *aggregates.Document) (*session, error) {
	c := a.container
	ed := editor.New(doc, c.Saver.SaveFunc(), c.Domain, c.Logger, editor.WithMetrics(c.Metrics))
	if err := commands.Register(c.CommandBus, ed); err != nil {
		return nil, err
	}
	return &session{doc: doc, editor: ed}, nil
}
