package main

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/aretw0/quill"
	"github.com/aretw0/quill/pkg/domain"
	"github.com/aretw0/quill/pkg/workflow"
	"github.com/spf13/cobra"
)

var errNoChange = errors.New("nothing changed; check the position")

// position parses a 1-based position argument into an index.
func position(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("invalid position %q: want a number from 1", s)
	}
	return n - 1, nil
}

// edit applies fn to the essay and saves it, failing when nothing changed.
func (a *app) edit(cmd *cobra.Command, fn func(d *domain.EssayData) bool) error {
	return a.withEssay(cmd.Context(), essayArgs(cmd), func(ed *quill.Editor, _ *domain.EssayData) error {
		changed := false
		if err := ed.Edit(func(d *domain.EssayData) bool {
			changed = fn(d)
			return changed
		}); err != nil {
			return err
		}
		if !changed {
			return errNoChange
		}
		return ed.Save(cmd.Context())
	})
}

func printNumbered(w io.Writer, lines []string) {
	for i, l := range lines {
		fmt.Fprintf(w, "%3d  %s\n", i+1, l)
	}
}

func newOutlineCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "outline",
		Short: "Edit the topic sentences of the outline",
	}

	add := &cobra.Command{
		Use:   "add <sentence>",
		Short: "Append a topic sentence",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sentence := strings.Join(args, " ")
			return a.edit(cmd, func(d *domain.EssayData) bool {
				return workflow.AddOutlineSentence(d, sentence)
			})
		},
	}
	set := &cobra.Command{
		Use:   "set <n> <sentence>",
		Short: "Rewrite topic sentence n and its paragraph opening",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			i, err := position(args[0])
			if err != nil {
				return err
			}
			sentence := strings.Join(args[1:], " ")
			return a.edit(cmd, func(d *domain.EssayData) bool {
				return workflow.SetOutlineSentence(d, i, sentence)
			})
		},
	}
	rm := &cobra.Command{
		Use:   "rm <n>",
		Short: "Remove topic sentence n",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			i, err := position(args[0])
			if err != nil {
				return err
			}
			return a.edit(cmd, func(d *domain.EssayData) bool {
				return workflow.RemoveOutlineSentence(d, i)
			})
		},
	}
	ls := &cobra.Command{
		Use:   "ls",
		Short: "List the topic sentences",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withEssay(cmd.Context(), essayArgs(cmd), func(_ *quill.Editor, d *domain.EssayData) error {
				if o := d.Outline(); o != nil {
					printNumbered(cmd.OutOrStdout(), o.OutlineSentences)
				}
				return nil
			})
		},
	}
	for _, c := range []*cobra.Command{add, set, rm, ls} {
		essayFlag(c)
		cmd.AddCommand(c)
	}
	return cmd
}

func newDraftCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "draft",
		Short: "Write the paragraphs of the draft",
	}

	set := &cobra.Command{
		Use:   "set <n> <text>",
		Short: "Replace paragraph n",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			i, err := position(args[0])
			if err != nil {
				return err
			}
			text := strings.Join(args[1:], " ")
			return a.edit(cmd, func(d *domain.EssayData) bool {
				draft := d.Draft()
				if draft == nil || i >= len(draft.Paragraphs) || draft.Paragraphs[i] == text {
					return false
				}
				draft.Paragraphs[i] = text
				return true
			})
		},
	}
	ls := &cobra.Command{
		Use:   "ls",
		Short: "List the paragraphs with their word counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withEssay(cmd.Context(), essayArgs(cmd), func(_ *quill.Editor, d *domain.EssayData) error {
				draft := d.Draft()
				if draft == nil {
					return nil
				}
				out := cmd.OutOrStdout()
				for i, p := range draft.Paragraphs {
					moved := ""
					if orig := workflow.OriginalIndex(d, i); orig != i {
						moved = fmt.Sprintf(" (originally %d)", orig+1)
					}
					fmt.Fprintf(out, "%3d  (%d words)%s  %s\n", i+1, workflow.WordCount(p), moved, p)
				}
				return nil
			})
		},
	}
	move := &cobra.Command{
		Use:   "move <from> <to>",
		Short: "Move a paragraph, keeping the reorder step in step",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			from, err := position(args[0])
			if err != nil {
				return err
			}
			to, err := position(args[1])
			if err != nil {
				return err
			}
			return a.edit(cmd, func(d *domain.EssayData) bool {
				return workflow.MoveParagraph(d, from, to)
			})
		},
	}
	restore := &cobra.Command{
		Use:   "restore",
		Short: "Put the paragraphs back in the order they were drafted in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.edit(cmd, workflow.RestoreOrder)
		},
	}
	for _, c := range []*cobra.Command{set, ls, move, restore} {
		essayFlag(c)
		cmd.AddCommand(c)
	}
	return cmd
}

func newRefineCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "refine",
		Short: "Rewrite, delete or move single sentences",
	}

	ls := &cobra.Command{
		Use:   "ls <paragraph>",
		Short: "List the sentences of a paragraph",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			para, err := position(args[0])
			if err != nil {
				return err
			}
			return a.withEssay(cmd.Context(), essayArgs(cmd), func(_ *quill.Editor, d *domain.EssayData) error {
				printNumbered(cmd.OutOrStdout(), workflow.Sentences(d, para))
				return nil
			})
		},
	}
	edit := &cobra.Command{
		Use:   "edit <paragraph> <sentence> <text>",
		Short: "Rewrite one sentence",
		Args:  cobra.MinimumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			para, idx, err := sentencePosition(args)
			if err != nil {
				return err
			}
			text := strings.Join(args[2:], " ")
			return a.withEssay(cmd.Context(), essayArgs(cmd), func(ed *quill.Editor, _ *domain.EssayData) error {
				changed, err := ed.EditSentence(para, idx, text)
				return saveIfChanged(cmd, ed, changed, err)
			})
		},
	}
	rm := &cobra.Command{
		Use:   "rm <paragraph> <sentence>",
		Short: "Delete one sentence",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			para, idx, err := sentencePosition(args)
			if err != nil {
				return err
			}
			return a.withEssay(cmd.Context(), essayArgs(cmd), func(ed *quill.Editor, _ *domain.EssayData) error {
				changed, err := ed.DeleteSentence(para, idx)
				return saveIfChanged(cmd, ed, changed, err)
			})
		},
	}
	mv := &cobra.Command{
		Use:   "mv <paragraph> <sentence> <to>",
		Short: "Move one sentence within its paragraph",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			para, from, err := sentencePosition(args)
			if err != nil {
				return err
			}
			to, err := position(args[2])
			if err != nil {
				return err
			}
			return a.withEssay(cmd.Context(), essayArgs(cmd), func(ed *quill.Editor, _ *domain.EssayData) error {
				changed, err := ed.MoveSentence(para, from, to)
				return saveIfChanged(cmd, ed, changed, err)
			})
		},
	}
	for _, c := range []*cobra.Command{ls, edit, rm, mv} {
		essayFlag(c)
		cmd.AddCommand(c)
	}
	return cmd
}

func sentencePosition(args []string) (int, int, error) {
	para, err := position(args[0])
	if err != nil {
		return 0, 0, err
	}
	idx, err := position(args[1])
	if err != nil {
		return 0, 0, err
	}
	return para, idx, nil
}

func saveIfChanged(cmd *cobra.Command, ed *quill.Editor, changed bool, err error) error {
	if err != nil {
		return err
	}
	if !changed {
		return errNoChange
	}
	return ed.Save(cmd.Context())
}

func newSuggestCmd(a *app) *cobra.Command {
	var pick int
	cmd := &cobra.Command{
		Use:   "suggest <paragraph> <sentence>",
		Short: "Ask the suggestion service for rewrites of one sentence",
		Long: `Lists rewrites of the sentence. With --apply N the N-th rewrite replaces the
sentence and is recorded in the edit history.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			para, idx, err := sentencePosition(args)
			if err != nil {
				return err
			}
			return a.withEssay(cmd.Context(), essayArgs(cmd), func(ed *quill.Editor, _ *domain.EssayData) error {
				rewrites, err := ed.Suggest(cmd.Context(), para, idx)
				if err != nil {
					var sugErr *domain.SuggestionError
					if errors.As(err, &sugErr) {
						return errors.New(sugErr.Message)
					}
					return err
				}
				if pick == 0 {
					printNumbered(cmd.OutOrStdout(), rewrites)
					return nil
				}
				if pick < 1 || pick > len(rewrites) {
					return fmt.Errorf("--apply %d: only %d suggestions", pick, len(rewrites))
				}
				changed, err := ed.ApplySuggestion(para, idx, rewrites[pick-1])
				return saveIfChanged(cmd, ed, changed, err)
			})
		},
	}
	cmd.Flags().IntVar(&pick, "apply", 0, "apply the n-th suggestion")
	essayFlag(cmd)
	return cmd
}
