package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/mmrzaf/tabgen/internal/app"
	"github.com/mmrzaf/tabgen/internal/domain"
	"github.com/mmrzaf/tabgen/internal/exec"
	"github.com/mmrzaf/tabgen/internal/infra/cache"
	"github.com/mmrzaf/tabgen/internal/infra/repos/specs"
	"github.com/mmrzaf/tabgen/internal/infra/targets/csvfile"
	"github.com/mmrzaf/tabgen/internal/infra/targets/parquet"
	"github.com/mmrzaf/tabgen/internal/stats"
)

// genFlags are the request flags shared by generate and describe.
type genFlags struct {
	rows        int
	cols        int
	types       []string
	names       []string
	noise       float64
	seed        int64
	numeric     []string
	categorical []string
	specPath    string
	indexStart  string
	indexStep   string
}

func (f *genFlags) bind(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.IntVarP(&f.rows, "rows", "r", 100, "Number of rows")
	fl.IntVarP(&f.cols, "cols", "c", 3, "Number of columns")
	fl.StringSliceVarP(&f.types, "types", "t", nil, "Column types, left to right (numeric|categorical)")
	fl.StringSliceVarP(&f.names, "names", "n", nil, "Column names")
	fl.Float64Var(&f.noise, "noise", 0, "Noise in [0,1) for numeric columns without their own")
	fl.Int64VarP(&f.seed, "seed", "s", 0, "Seed for reproducible output")
	fl.StringArrayVar(&f.numeric, "numeric", nil, "Params for the next numeric column: mean:std:noise (repeatable)")
	fl.StringArrayVar(&f.categorical, "categorical", nil, "Params for the next categorical column: A|B|C=0.2|0.5|0.3 (repeatable)")
	fl.StringVar(&f.specPath, "spec", "", "Read the request from a table spec file")
	fl.StringVar(&f.indexStart, "index-start", "", "Attach a time index starting here (RFC3339, date or -30d)")
	fl.StringVar(&f.indexStep, "index-step", "1d", "Time index step")
}

func (f *genFlags) request(cmd *cobra.Command) (*domain.GenerateRequest, error) {
	fl := cmd.Flags()
	out := &domain.GenerateRequest{DefaultCategories: defaultCat}

	if f.specPath != "" {
		spec, err := specs.LoadFile(f.specPath)
		if err != nil {
			return nil, err
		}
		out.Request = spec.Request
		out.Seed = spec.Seed
		if len(spec.DefaultCategories) > 0 {
			out.DefaultCategories = spec.DefaultCategories
		}
		if fl.Changed("rows") {
			out.Request.Rows = f.rows
		}
	} else {
		req := domain.TabularRequest{
			Rows:     f.rows,
			Cols:     f.cols,
			ColTypes: f.types,
			ColNames: f.names,
		}
		if !fl.Changed("cols") && len(f.types) > 0 {
			req.Cols = len(f.types)
		}
		if fl.Changed("noise") {
			noise := f.noise
			req.Noise = &noise
		}
		for _, s := range f.numeric {
			o, err := parseNumericParam(s)
			if err != nil {
				return nil, err
			}
			req.NumericParams = append(req.NumericParams, o)
		}
		for _, s := range f.categorical {
			o, err := parseCategoricalParam(s)
			if err != nil {
				return nil, err
			}
			req.CategoricalParams = append(req.CategoricalParams, o)
		}
		out.Request = req
	}

	if f.indexStart != "" {
		out.Request.Index = &domain.IndexSpec{Start: f.indexStart, Step: f.indexStep}
	}
	if fl.Changed("seed") {
		seed := f.seed
		out.Seed = &seed
	}
	return out, nil
}

func generateTable(ctx context.Context, req *domain.GenerateRequest) (*app.GenerateResult, error) {
	var tc cache.TableCache = cache.Nop{}
	if cacheDB != "" {
		c, err := cache.OpenBolt(cacheDB)
		if err != nil {
			return nil, err
		}
		tc = c
	}
	defer tc.Close()

	svc := app.NewRunService(nil, nil, nil, tc, newLogger(), batchSize)
	return svc.Generate(ctx, req)
}

func generateCmd() *cobra.Command {
	var (
		f      genFlags
		format string
		out    string
		head   int
	)
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a table",
		Example: `  tabgen generate -r 200 -t numeric,categorical,numeric -n price,category,quantity --noise 0.1
  tabgen generate -t numeric,categorical --numeric 1000:200:0.05 --categorical "Low|Medium|High=0.2|0.5|0.3" -s 42
  tabgen generate --spec specs/sales.yaml --format parquet --out out/sales.parquet`,
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := f.request(cmd)
			if err != nil {
				return err
			}
			res, err := generateTable(cmd.Context(), req)
			if err != nil {
				return err
			}
			return emit(cmd, res, format, out, head)
		},
	}
	f.bind(cmd)
	cmd.Flags().StringVarP(&format, "format", "f", "table", "Output format (table|csv|json|parquet)")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Write to this file instead of stdout")
	cmd.Flags().IntVar(&head, "head", 10, "Rows to print in table format (0 prints all)")
	return cmd
}

func emit(cmd *cobra.Command, res *app.GenerateResult, format, out string, head int) error {
	w := cmd.OutOrStdout()
	switch format {
	case "table":
		renderTable(w, res.Table, head)
	case "json":
		if out != "" {
			return writeFile(out, func(f *os.File) error { return writeTableJSON(f, res) })
		}
		return writeTableJSON(w, res)
	case "csv":
		if out != "" {
			return exportFile(cmd, res.Table, out, domain.TargetKindCSV)
		}
		return writeTableCSV(w, res.Table)
	case "parquet":
		if out == "" {
			return fmt.Errorf("parquet output requires --out")
		}
		return exportFile(cmd, res.Table, out, domain.TargetKindParquet)
	default:
		return fmt.Errorf("unknown format %q", format)
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "%s rows x %d columns, seed %d%s\n",
		humanize.Comma(int64(res.Table.RowCount)), len(res.Table.Columns), res.Seed, cachedNote(res.Cached))
	return nil
}

func cachedNote(cached bool) string {
	if cached {
		return " (cached)"
	}
	return ""
}

func writeFile(path string, fn func(*os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := fn(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// exportFile writes through the file targets, replacing any existing file.
func exportFile(cmd *cobra.Command, table *domain.Table, path, kind string) error {
	dir := filepath.Dir(path)
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	var target exec.Target
	switch kind {
	case domain.TargetKindCSV:
		target = csvfile.NewCSVTarget(dir)
	default:
		target = parquet.NewParquetTarget(dir)
	}
	st, err := exec.NewExecutor(batchSize).Execute(cmd.Context(), table, target, name, domain.TableModeTruncate, nil)
	if err != nil {
		return err
	}

	written := filepath.Join(dir, name+"."+kind)
	size := "?"
	if info, err := os.Stat(written); err == nil {
		size = humanize.Bytes(uint64(info.Size()))
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s rows to %s (%s, %d batches)\n",
		humanize.Comma(st.RowsWritten), written, size, st.Batches)
	return nil
}

func describeCmd() *cobra.Command {
	var (
		f           genFlags
		groupBy     string
		aggCols     []string
		valueCounts string
		resample    []string
		resampleAll bool
		corr        []string
	)
	cmd := &cobra.Command{
		Use:   "describe",
		Short: "Generate a table and print summary statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := f.request(cmd)
			if err != nil {
				return err
			}
			res, err := generateTable(cmd.Context(), req)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			t := res.Table

			renderSummaries(w, stats.Describe(t))

			if valueCounts != "" {
				col, ok := t.Column(valueCounts)
				if !ok {
					return fmt.Errorf("%w: %s", stats.ErrUnknownColumn, valueCounts)
				}
				fmt.Fprintf(w, "\nValue counts for %s:\n", valueCounts)
				renderValueCounts(w, stats.ValueCounts(col))
			}
			if groupBy != "" {
				groups, err := stats.GroupAgg(t, groupBy, aggCols)
				if err != nil {
					return err
				}
				fmt.Fprintf(w, "\nSummary by %s:\n", groupBy)
				renderGroups(w, groups)
			}
			if resampleAll || len(resample) > 0 {
				buckets, err := stats.Resample(t, resample, "month")
				if err != nil {
					return err
				}
				fmt.Fprintln(w, "\nMonthly averages:")
				renderBuckets(w, buckets)
			}
			if len(corr) > 0 {
				if len(corr) != 2 {
					return fmt.Errorf("--corr takes exactly two numeric columns")
				}
				r, err := correlation(t, corr[0], corr[1])
				if err != nil {
					return err
				}
				fmt.Fprintf(w, "\nPearson r(%s, %s) = %.4f\n", corr[0], corr[1], r)
			}
			return nil
		},
	}
	f.bind(cmd)
	cmd.Flags().StringVar(&groupBy, "group-by", "", "Categorical column to group numeric columns by")
	cmd.Flags().StringSliceVar(&aggCols, "agg", nil, "Numeric columns to aggregate (default: all)")
	cmd.Flags().StringVar(&valueCounts, "value-counts", "", "Categorical column to count values of")
	cmd.Flags().StringSliceVar(&resample, "resample", nil, "Numeric columns to average per month (needs --index-start)")
	cmd.Flags().BoolVar(&resampleAll, "resample-all", false, "Average every numeric column per month (needs --index-start)")
	cmd.Flags().StringSliceVar(&corr, "corr", nil, "Two numeric columns to correlate")
	return cmd
}

func correlation(t *domain.Table, a, b string) (float64, error) {
	ca, ok := t.Column(a)
	if !ok {
		return 0, fmt.Errorf("%w: %s", stats.ErrUnknownColumn, a)
	}
	cb, ok := t.Column(b)
	if !ok {
		return 0, fmt.Errorf("%w: %s", stats.ErrUnknownColumn, b)
	}
	if ca.Kind != domain.ColumnKindNumeric || cb.Kind != domain.ColumnKindNumeric {
		return 0, fmt.Errorf("%w: correlation needs numeric columns", stats.ErrColumnKind)
	}
	return stats.Correlation(ca.Floats, cb.Floats)
}
