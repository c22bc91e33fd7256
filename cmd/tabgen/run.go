package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/mmrzaf/tabgen/internal/app"
	"github.com/mmrzaf/tabgen/internal/config"
	"github.com/mmrzaf/tabgen/internal/domain"
	"github.com/mmrzaf/tabgen/internal/infra/repos/runs"
	"github.com/mmrzaf/tabgen/internal/infra/repos/specs"
	"github.com/mmrzaf/tabgen/internal/infra/repos/targets"
)

const pollInterval = 500 * time.Millisecond

func openRunRepo() (*runs.SQLiteRepository, error) {
	repo := runs.NewSQLiteRepository(runsDBPath)
	if err := repo.Init(); err != nil {
		return nil, err
	}
	return repo, nil
}

func newCLIRunService(runRepo runs.Repository) (*app.RunService, error) {
	svc := app.NewRunService(
		specs.NewFileRepository(specsDir),
		targets.NewFileRepository(targetsDir),
		runRepo,
		nil,
		newLogger(),
		batchSize,
	)
	if err := svc.SetDefaultCategories(defaultCat); err != nil {
		return nil, err
	}
	return svc, nil
}

func runCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Write generated tables into targets",
	}

	var (
		specID     string
		specPath   string
		targetID   string
		targetDSN  string
		targetKind string
		seed       int64
		rows       int
		table      string
		mode       string
		planOnly   bool
	)

	startCmd := &cobra.Command{
		Use:   "start",
		Short: "Start a run and wait for it to finish",
		RunE: func(cmd *cobra.Command, args []string) error {
			runRepo, err := openRunRepo()
			if err != nil {
				return err
			}
			defer runRepo.Close()

			svc, err := newCLIRunService(runRepo)
			if err != nil {
				return err
			}

			req := &domain.RunRequest{TargetTable: table, Mode: mode}
			switch {
			case specPath != "":
				spec, err := specs.LoadFile(specPath)
				if err != nil {
					return err
				}
				req.Spec = spec
			case specID != "":
				req.SpecID = specID
			default:
				return fmt.Errorf("either --spec or --spec-path required")
			}

			switch {
			case targetDSN != "":
				if targetKind == "" {
					return fmt.Errorf("--target-kind required when using --target DSN")
				}
				req.Target = &domain.TargetConfig{Name: "inline-target", Kind: targetKind, DSN: targetDSN}
			case targetID != "":
				req.TargetID = targetID
			default:
				return fmt.Errorf("either --target-id or --target required")
			}

			if cmd.Flags().Changed("seed") {
				req.Seed = &seed
			}
			if cmd.Flags().Changed("rows") {
				req.Rows = &rows
			}

			w := cmd.OutOrStdout()
			if planOnly {
				plan, err := svc.PlanRun(req)
				if err != nil {
					return err
				}
				data, _ := yaml.Marshal(plan)
				fmt.Fprint(w, string(data))
				return nil
			}

			run, err := svc.StartRun(cmd.Context(), req)
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "Run started: %s (seed %d)\n", run.ID, run.Seed)
			return waitForRun(cmd, svc, run.ID)
		},
	}

	startCmd.Flags().StringVar(&specID, "spec", "", "Spec ID or name")
	startCmd.Flags().StringVar(&specPath, "spec-path", "", "Spec file path")
	startCmd.Flags().StringVar(&targetID, "target-id", "", "Target ID")
	startCmd.Flags().StringVar(&targetDSN, "target", "", "Target DSN (or directory for file targets)")
	startCmd.Flags().StringVar(&targetKind, "target-kind", "", "Target kind (required with --target)")
	startCmd.Flags().Int64VarP(&seed, "seed", "s", 0, "Seed (default: spec seed, else random)")
	startCmd.Flags().IntVarP(&rows, "rows", "r", 0, "Override the spec's row count")
	startCmd.Flags().StringVar(&table, "table", "", "Target table name (default: spec target_table, else spec name)")
	startCmd.Flags().StringVar(&mode, "mode", cfg.DefaultMode, "Table mode (create|truncate|append)")
	startCmd.Flags().BoolVar(&planOnly, "plan", false, "Print the resolved plan without writing anything")

	var (
		limit  int
		status string
		format string
	)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			runRepo, err := openRunRepo()
			if err != nil {
				return err
			}
			defer runRepo.Close()

			list, err := runRepo.List(limit, status)
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
			fmt.Fprintln(tw, "ID\tSPEC\tTARGET\tTABLE\tROWS\tSTATUS\tSTARTED")
			for _, r := range list {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
					shortID(r.ID), r.SpecName, r.TargetName, r.TargetTable,
					humanize.Comma(int64(r.Rows)), r.Status, humanize.Time(r.StartedAt))
			}
			return tw.Flush()
		},
	}
	listCmd.Flags().IntVar(&limit, "limit", 20, "Limit results")
	listCmd.Flags().StringVar(&status, "status", "", "Filter by status")
	listCmd.Flags().StringVar(&format, "format", "table", "Output format (table|json)")

	showCmd := &cobra.Command{
		Use:   "show <run_id>",
		Short: "Show run details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			runRepo, err := openRunRepo()
			if err != nil {
				return err
			}
			defer runRepo.Close()

			run, err := runRepo.Get(args[0])
			if err != nil {
				return err
			}
			data, _ := yaml.Marshal(run)
			fmt.Fprint(cmd.OutOrStdout(), string(data))
			return nil
		},
	}

	var logLimit int
	logsCmd := &cobra.Command{
		Use:   "logs <run_id>",
		Short: "Show a run's log, oldest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			runRepo, err := openRunRepo()
			if err != nil {
				return err
			}
			defer runRepo.Close()

			svc, err := newCLIRunService(runRepo)
			if err != nil {
				return err
			}
			logs, err := svc.ListRunLogs(args[0], logLimit)
			if err != nil {
				return err
			}
			printRunLogs(cmd.OutOrStdout(), logs)
			return nil
		},
	}
	logsCmd.Flags().IntVar(&logLimit, "limit", 200, "Limit entries")

	cmd.AddCommand(startCmd, listCmd, showCmd, logsCmd)
	return cmd
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// printRunLogs prints entries in chronological order; the store returns
// newest first.
func printRunLogs(w io.Writer, logs []*domain.RunLog) {
	for i := len(logs) - 1; i >= 0; i-- {
		l := logs[i]
		fmt.Fprintf(w, "%s  %-5s  %s\n", l.CreatedAt.Local().Format(time.DateTime), l.Level, l.Message)
	}
}

func waitForRun(cmd *cobra.Command, svc *app.RunService, id string) error {
	w := cmd.OutOrStdout()
	var lastWritten int64 = -1
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-cmd.Context().Done():
			return cmd.Context().Err()
		case <-ticker.C:
		}

		run, err := svc.GetRun(id)
		if err != nil {
			return err
		}
		if run.ProgressRowsWritten != lastWritten && run.Status == domain.RunStatusRunning {
			lastWritten = run.ProgressRowsWritten
			fmt.Fprintf(w, "  %s / %s rows\n",
				humanize.Comma(run.ProgressRowsWritten), humanize.Comma(run.ProgressRowsTotal))
		}

		switch run.Status {
		case domain.RunStatusSuccess:
			fmt.Fprintln(w, "Run completed successfully")
			if run.Stats != nil {
				var st domain.RunStats
				if err := json.Unmarshal(run.Stats, &st); err == nil {
					fmt.Fprintf(w, "Rows written: %s in %d batches\n", humanize.Comma(st.RowsWritten), st.Batches)
					fmt.Fprintf(w, "Duration: %.2fs (generate %.2fs, write %.2fs)\n",
						st.DurationSeconds, st.GenerateSeconds, st.WriteSeconds)
				}
			}
			return nil
		case domain.RunStatusFailed:
			fmt.Fprintf(w, "Run failed: %s\n", run.Error)
			return fmt.Errorf("run failed")
		}
	}
}
