package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/mmrzaf/tabgen/internal/domain"
	"github.com/mmrzaf/tabgen/internal/infra/repos/docfile"
	"github.com/mmrzaf/tabgen/internal/infra/repos/specs"
	"github.com/mmrzaf/tabgen/internal/validation"
)

// looksLikePath reports whether a CLI argument names a file rather than
// a stored id.
func looksLikePath(arg string) bool {
	return strings.Contains(arg, "/") || docfile.IsDocument(arg)
}

func specCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "spec",
		Short: "Manage table specs",
	}

	var format string

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List table specs",
		RunE: func(cmd *cobra.Command, args []string) error {
			list, err := specs.NewFileRepository(specsDir).List()
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()

			if format == "json" {
				data, _ := json.MarshalIndent(list, "", "  ")
				fmt.Fprintln(w, string(data))
				return nil
			}

			tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tVERSION\tROWS\tCOLS")
			for _, s := range list {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\n", s.ID, s.Name, s.Version, s.Request.Rows, s.Request.Cols)
			}
			return tw.Flush()
		},
	}
	listCmd.Flags().StringVar(&format, "format", "table", "Output format (table|json)")

	showCmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a table spec",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			spec, err := specs.NewFileRepository(specsDir).Get(args[0])
			if err != nil {
				return err
			}
			data, _ := yaml.Marshal(spec)
			fmt.Fprint(cmd.OutOrStdout(), string(data))
			return nil
		},
	}

	validateCmd := &cobra.Command{
		Use:   "validate <id|path>",
		Short: "Validate a table spec and print its resolved columns",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			repo := specs.NewFileRepository(specsDir)
			var spec *domain.TableSpec
			var err error
			if looksLikePath(args[0]) {
				spec, err = repo.GetByPath(args[0])
			} else {
				spec, err = repo.Get(args[0])
			}
			if err != nil {
				return err
			}

			v := validation.NewValidator(nil)
			if err := v.ValidateTableSpec(spec, defaultCat); err != nil {
				return fmt.Errorf("spec %q is invalid: %w", spec.Name, err)
			}
			columns, err := v.Normalize(&spec.Request, validation.EffectiveDefaults(spec.DefaultCategories, defaultCat))
			if err != nil {
				return fmt.Errorf("spec %q is invalid: %w", spec.Name, err)
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Spec '%s' is valid\n", spec.Name)
			renderColumns(w, columns)
			return nil
		},
	}

	cmd.AddCommand(listCmd, showCmd, validateCmd)
	return cmd
}
