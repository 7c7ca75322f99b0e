package main

import (
	"fmt"
	"os"

	"github.com/aretw0/quill"
	"github.com/aretw0/quill/pkg/domain"
	"github.com/aretw0/quill/pkg/export"
	"github.com/spf13/cobra"
)

func newExportCmd(a *app) *cobra.Command {
	var (
		output      string
		frontMatter bool
	)
	cmd := &cobra.Command{
		Use:   "export [id]",
		Short: "Write the essay as Markdown",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withEssay(cmd.Context(), args, func(_ *quill.Editor, d *domain.EssayData) error {
				md, err := export.Markdown(export.Compose(d), export.Options{FrontMatter: frontMatter})
				if err != nil {
					return err
				}
				if output == "" || output == "-" {
					_, err = fmt.Fprint(cmd.OutOrStdout(), md)
					return err
				}
				if err := os.WriteFile(output, []byte(md), 0o644); err != nil {
					return fmt.Errorf("write %s: %w", output, err)
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s\n", output)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "file to write (default: stdout)")
	cmd.Flags().BoolVar(&frontMatter, "front-matter", true, "prepend YAML metadata")
	return cmd
}
