package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/mmrzaf/tabgen/internal/app"
	"github.com/mmrzaf/tabgen/internal/domain"
	"github.com/mmrzaf/tabgen/internal/infra/repos/targets"
	"github.com/mmrzaf/tabgen/internal/validation"
)

func loadTargetArg(arg string) (*domain.TargetConfig, error) {
	repo := targets.NewFileRepository(targetsDir)
	if looksLikePath(arg) {
		return repo.GetByPath(arg)
	}
	return repo.Get(arg)
}

func targetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "target",
		Short: "Manage targets",
	}

	var format string

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List targets",
		RunE: func(cmd *cobra.Command, args []string) error {
			list, err := targets.NewFileRepository(targetsDir).List()
			if err != nil {
				return err
			}
			list = targets.RedactTargets(list)
			w := cmd.OutOrStdout()

			if format == "json" {
				data, _ := json.MarshalIndent(list, "", "  ")
				fmt.Fprintln(w, string(data))
				return nil
			}

			tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tKIND\tDSN")
			for _, t := range list {
				dsn := t.DSN
				if len(dsn) > 50 {
					dsn = dsn[:47] + "..."
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", t.ID, t.Name, t.Kind, dsn)
			}
			return tw.Flush()
		},
	}
	listCmd.Flags().StringVar(&format, "format", "table", "Output format (table|json)")

	showCmd := &cobra.Command{
		Use:   "show <id|path>",
		Short: "Show target details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := loadTargetArg(args[0])
			if err != nil {
				return err
			}
			data, _ := yaml.Marshal(targets.RedactTarget(target))
			fmt.Fprint(cmd.OutOrStdout(), string(data))
			return nil
		},
	}

	validateCmd := &cobra.Command{
		Use:   "validate <id|path>",
		Short: "Validate a target",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := loadTargetArg(args[0])
			if err != nil {
				return err
			}
			if err := validation.NewValidator(nil).ValidateTarget(target); err != nil {
				return fmt.Errorf("target %q is invalid: %w", target.Name, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Target '%s' is valid\n", target.Name)
			return nil
		},
	}

	testCmd := &cobra.Command{
		Use:   "test <id|path>",
		Short: "Connect to a target and check its capabilities",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := loadTargetArg(args[0])
			if err != nil {
				return err
			}
			check, err := app.CheckTarget(cmd.Context(), target)
			w := cmd.OutOrStdout()
			if err != nil {
				fmt.Fprintf(w, "Target '%s' failed after %dms: %s\n", target.Name, check.LatencyMS, check.Error)
				return err
			}
			fmt.Fprintf(w, "Target '%s' reachable in %dms\n", target.Name, check.LatencyMS)
			if check.ServerVer != "" {
				fmt.Fprintf(w, "Server version: %s\n", check.ServerVer)
			}
			c := check.Capabilities
			fmt.Fprintf(w, "create=%t insert=%t truncate=%t\n", c.CanCreate, c.CanInsert, c.CanTruncate)
			return nil
		},
	}

	cmd.AddCommand(listCmd, showCmd, validateCmd, testCmd)
	return cmd
}
