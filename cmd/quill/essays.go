package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/aretw0/quill"
	"github.com/aretw0/quill/internal/presentation/tui"
	"github.com/aretw0/quill/pkg/domain"
	"github.com/aretw0/quill/pkg/export"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func newNewCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "new [title]",
		Short: "Create an essay and make it active",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			ed := a.editor()
			d, err := ed.Create(ctx, strings.Join(args, " "))
			if err != nil {
				return err
			}
			if err := ed.Close(ctx); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created %s %q\n", d.Essay.ID, d.Essay.Title)
			return nil
		},
	}
}

func newListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List essays, most recently updated first",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			repo := a.editor().Repository()
			essays, err := repo.GetAllEssays(ctx)
			if err != nil {
				return err
			}
			active, err := repo.GetActiveEssay(ctx)
			if err != nil {
				return err
			}
			tui.PrintEssays(cmd.OutOrStdout(), essays, active)
			return nil
		},
	}
}

func newShowCmd(a *app) *cobra.Command {
	var raw bool
	cmd := &cobra.Command{
		Use:   "show [id]",
		Short: "Show the essay as it reads so far",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withEssay(cmd.Context(), args, func(_ *quill.Editor, d *domain.EssayData) error {
				md, err := export.Markdown(export.Compose(d), export.Options{})
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if raw || !isTerminal(out) {
					_, err = fmt.Fprint(out, md)
					return err
				}
				r, err := export.NewRenderer()
				if err != nil {
					return err
				}
				styled, err := r.Render(md)
				if err != nil {
					return err
				}
				_, err = fmt.Fprint(out, styled)
				return err
			})
		},
	}
	cmd.Flags().BoolVar(&raw, "raw", false, "print Markdown without terminal styling")
	return cmd
}

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w any) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func newRemoveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"delete"},
		Short:   "Delete an essay and its draft snapshots",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.editor().Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
			return nil
		},
	}
}

func newUseCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "use <id>",
		Short: "Make an essay the active one",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withEssay(cmd.Context(), args, func(_ *quill.Editor, d *domain.EssayData) error {
				fmt.Fprintf(cmd.OutOrStdout(), "active: %s %q (%s)\n", d.Essay.ID, d.Essay.Title, d.Essay.CurrentStep)
				return nil
			})
		},
	}
}

func newTitleCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "title <title>",
		Short: "Rename the essay",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			title := strings.Join(args, " ")
			return a.withEssay(cmd.Context(), essayArgs(cmd), func(ed *quill.Editor, _ *domain.EssayData) error {
				if err := ed.SetTitle(title); err != nil {
					return err
				}
				return ed.Save(cmd.Context())
			})
		},
	}
	essayFlag(cmd)
	return cmd
}

func newSnapshotCmd(a *app) *cobra.Command {
	var list bool
	cmd := &cobra.Command{
		Use:   "snapshot [id]",
		Short: "Save the current draft as a do-over snapshot",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withEssay(cmd.Context(), args, func(ed *quill.Editor, d *domain.EssayData) error {
				out := cmd.OutOrStdout()
				if list {
					snaps, err := ed.Repository().GetDraftSnapshots(cmd.Context(), d.Essay.ID)
					if err != nil {
						return err
					}
					for _, s := range snaps {
						fmt.Fprintf(out, "%s  %d words\n", s.CreatedAt.Local().Format("2006-01-02 15:04:05"), len(strings.Fields(s.Content)))
					}
					return nil
				}
				snap, err := ed.SnapshotDraft(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "snapshot saved at %s\n", snap.CreatedAt.Local().Format("15:04:05"))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&list, "list", false, "list saved snapshots instead")
	return cmd
}
