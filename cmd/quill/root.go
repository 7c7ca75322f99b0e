package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aretw0/quill"
	"github.com/aretw0/quill/internal/cli"
	"github.com/aretw0/quill/internal/config"
	"github.com/aretw0/quill/pkg/domain"
	"github.com/spf13/cobra"
)

var errNoActive = errors.New("no active essay; pass an id or run 'quill use <id>'")

// app carries what every command needs once the configuration is loaded.
type app struct {
	cfgFile string
	debug   bool

	cfg     config.Config
	logger  *slog.Logger
	backend *cli.Backend
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "quill",
		Short: "Quill walks an essay through a nine-step writing wizard",
		Long: `Quill keeps essays in a key-value store and guides each one from a plan
through outline, draft, refinement and reordering to a finished piece.

Commands act on the active essay unless an id is given.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.teardown()
		},
	}

	root.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (default: ./quill.yaml or ~/.config/quill/quill.yaml)")
	root.PersistentFlags().BoolVar(&a.debug, "debug", false, "log debug output to stderr")
	root.PersistentFlags().String("session", "", "session namespace for the active essay pointer")
	root.PersistentFlags().String("store", "", "store backend: memory, file, redis or sqlite")

	root.AddCommand(
		newNewCmd(a),
		newListCmd(a),
		newShowCmd(a),
		newRemoveCmd(a),
		newUseCmd(a),
		newTitleCmd(a),
		newStatusCmd(a),
		newAdvanceCmd(a),
		newGotoCmd(a),
		newGraphCmd(a),
		newOutlineCmd(a),
		newDraftCmd(a),
		newRefineCmd(a),
		newSuggestCmd(a),
		newSnapshotCmd(a),
		newExportCmd(a),
		newServeCmd(a),
		newMCPCmd(a),
		newVersionCmd(),
	)
	return root
}

func (a *app) setup(cmd *cobra.Command) error {
	v := config.New(a.cfgFile)
	flags := cmd.Root().PersistentFlags()
	if err := v.BindPFlag("session", flags.Lookup("session")); err != nil {
		return err
	}
	if err := v.BindPFlag("store.backend", flags.Lookup("store")); err != nil {
		return err
	}

	cfg, err := config.Load(v)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = cli.NewLogger(cfg.Log, a.debug)
	if used := v.ConfigFileUsed(); used != "" {
		a.logger.Debug("using config file", "path", used)
	}

	a.backend, err = cli.OpenBackend(cmd.Context(), cfg, a.logger)
	return err
}

func (a *app) teardown() error {
	if a.backend == nil {
		return nil
	}
	err := a.backend.Close()
	a.backend = nil
	return err
}

func (a *app) hooks() domain.LifecycleHooks {
	if a.debug {
		return cli.DebugHooks(a.logger)
	}
	return domain.LifecycleHooks{}
}

func (a *app) editor() *quill.Editor {
	return cli.NewEditor(a.cfg, a.backend, a.logger, a.hooks())
}

// withEssay opens the essay named by args[0], or the active one, runs fn and
// closes the editor, saving pending edits.
func (a *app) withEssay(ctx context.Context, args []string, fn func(*quill.Editor, *domain.EssayData) error) (err error) {
	ed := a.editor()

	var d *domain.EssayData
	if len(args) > 0 && strings.TrimSpace(args[0]) != "" {
		d, err = ed.Open(ctx, args[0])
	} else {
		d, err = ed.Resume(ctx)
		if err == nil && d == nil {
			err = errNoActive
		}
	}
	if err != nil {
		return err
	}
	defer func() {
		if cerr := ed.Close(ctx); cerr != nil && err == nil {
			err = fmt.Errorf("save essay: %w", cerr)
		}
	}()
	return fn(ed, d)
}

// essayFlag registers --essay for commands whose positional args are taken.
func essayFlag(cmd *cobra.Command) {
	cmd.Flags().StringP("essay", "e", "", "essay id (default: the active essay)")
}

func essayArgs(cmd *cobra.Command) []string {
	id, _ := cmd.Flags().GetString("essay")
	if id == "" {
		return nil
	}
	return []string{id}
}
