package main

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/aretw0/quill"
	"github.com/aretw0/quill/internal/presentation/graph"
	"github.com/aretw0/quill/internal/presentation/tui"
	"github.com/aretw0/quill/pkg/domain"
	"github.com/aretw0/quill/pkg/workflow"
	"github.com/spf13/cobra"
)

func newStatusCmd(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "status [id]",
		Short: "Show the wizard progress of an essay",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withEssay(cmd.Context(), args, func(ed *quill.Editor, d *domain.EssayData) error {
				st := ed.Thresholds().Report(d)
				if asJSON {
					enc := json.NewEncoder(cmd.OutOrStdout())
					enc.SetIndent("", "  ")
					return enc.Encode(st)
				}
				tui.PrintStatus(cmd.OutOrStdout(), st)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the status as JSON")
	return cmd
}

func newAdvanceCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "advance [id]",
		Short: "Move to the next step if the current one is complete",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withEssay(cmd.Context(), args, func(ed *quill.Editor, d *domain.EssayData) error {
				from := d.Essay.CurrentStep
				to, err := ed.Advance(cmd.Context())
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if from == domain.LastStep {
					fmt.Fprintf(out, "%s completed\n", d.Essay.ID)
					return nil
				}
				info, _ := workflow.Describe(to)
				fmt.Fprintf(out, "%s -> %d. %s\n", from, int(to), info.Title)
				return nil
			})
		},
	}
}

// parseStep accepts a step number or name.
func parseStep(s string) (domain.Step, error) {
	if n, err := strconv.Atoi(s); err == nil {
		step := domain.Step(n)
		if !step.Valid() {
			return 0, fmt.Errorf("%w: %d", domain.ErrInvalidStep, n)
		}
		return step, nil
	}
	for _, step := range domain.Steps() {
		if strings.EqualFold(step.String(), s) {
			return step, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", domain.ErrInvalidStep, s)
}

func newGotoCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "goto <step>",
		Short: "Open any step by number or name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			step, err := parseStep(args[0])
			if err != nil {
				return err
			}
			return a.withEssay(cmd.Context(), essayArgs(cmd), func(ed *quill.Editor, _ *domain.EssayData) error {
				if err := ed.GoTo(cmd.Context(), step); err != nil {
					return err
				}
				info, _ := workflow.Describe(step)
				fmt.Fprintf(cmd.OutOrStdout(), "%d. %s: %s\n", int(step), info.Title, info.Summary)
				return nil
			})
		},
	}
	essayFlag(cmd)
	return cmd
}

func newGraphCmd(a *app) *cobra.Command {
	var plain bool
	cmd := &cobra.Command{
		Use:   "graph [id]",
		Short: "Print the wizard as a Mermaid diagram with the essay's progress",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if plain {
				fmt.Fprint(cmd.OutOrStdout(), graph.GenerateMermaid(a.cfg.Workflow, nil))
				return nil
			}
			return a.withEssay(cmd.Context(), args, func(ed *quill.Editor, d *domain.EssayData) error {
				fmt.Fprint(cmd.OutOrStdout(), graph.GenerateMermaid(ed.Thresholds(), graph.OverlayFor(d)))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&plain, "plain", false, "omit the essay overlay")
	return cmd
}
