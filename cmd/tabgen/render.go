package main

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/mmrzaf/tabgen/internal/app"
	"github.com/mmrzaf/tabgen/internal/domain"
	"github.com/mmrzaf/tabgen/internal/infra/targets/files"
	"github.com/mmrzaf/tabgen/internal/stats"
)

// renderTable prints the first head rows (all when head <= 0) aligned in
// columns, with the index as the leading column when present.
func renderTable(w io.Writer, t *domain.Table, head int) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	names := t.Schema("").ColumnNames()
	for _, n := range names {
		fmt.Fprintf(tw, "%s\t", n)
	}
	fmt.Fprintln(tw)

	n := t.RowCount
	if head > 0 && head < n {
		n = head
	}
	for i := 0; i < n; i++ {
		for _, v := range t.Row(i) {
			fmt.Fprintf(tw, "%s\t", cell(v))
		}
		fmt.Fprintln(tw)
	}
	_ = tw.Flush()
	if n < t.RowCount {
		fmt.Fprintf(w, "... %d more rows\n", t.RowCount-n)
	}
}

func cell(v any) string {
	switch x := v.(type) {
	case float64:
		return strconv.FormatFloat(x, 'f', 4, 64)
	case time.Time:
		return x.UTC().Format(time.DateTime)
	default:
		return files.FormatValue(v)
	}
}

func writeTableCSV(w io.Writer, t *domain.Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Schema("").ColumnNames()); err != nil {
		return err
	}
	for i := 0; i < t.RowCount; i++ {
		row := t.Row(i)
		rec := make([]string, len(row))
		for j, v := range row {
			rec[j] = files.FormatValue(v)
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

type jsonColumn struct {
	Name   string            `json:"name"`
	Kind   domain.ColumnKind `json:"kind"`
	Values any               `json:"values"`
}

type jsonTable struct {
	Seed     int64        `json:"seed"`
	RowCount int          `json:"row_count"`
	Index    []time.Time  `json:"index,omitempty"`
	Columns  []jsonColumn `json:"columns"`
}

func writeTableJSON(w io.Writer, res *app.GenerateResult) error {
	t := res.Table
	out := jsonTable{Seed: res.Seed, RowCount: t.RowCount, Index: t.Index}
	for _, c := range t.Columns {
		jc := jsonColumn{Name: c.Name, Kind: c.Kind, Values: c.Floats}
		if c.Kind == domain.ColumnKindCategorical {
			jc.Values = c.Strings
		}
		out.Columns = append(out.Columns, jc)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func renderSummaries(w io.Writer, summaries []stats.Summary) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "COLUMN\tKIND\tCOUNT\tMEAN\tSTD\tMIN\t25%\t50%\t75%\tMAX\tUNIQUE\tTOP\tFREQ")
	for _, s := range summaries {
		if s.Numeric != nil {
			n := s.Numeric
			fmt.Fprintf(tw, "%s\t%s\t%d\t%.4f\t%.4f\t%.4f\t%.4f\t%.4f\t%.4f\t%.4f\t\t\t\n",
				s.Column, s.Kind, s.Count, n.Mean, n.Std, n.Min, n.Q25, n.Median, n.Q75, n.Max)
			continue
		}
		c := s.Categorical
		fmt.Fprintf(tw, "%s\t%s\t%d\t\t\t\t\t\t\t\t%d\t%s\t%d\n",
			s.Column, s.Kind, s.Count, c.Unique, c.Top, c.Freq)
	}
	_ = tw.Flush()
}

func renderValueCounts(w io.Writer, counts []stats.ValueCount) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, vc := range counts {
		fmt.Fprintf(tw, "%s\t%d\t%.3f\n", vc.Value, vc.Count, vc.Fraction)
	}
	_ = tw.Flush()
}

func renderGroups(w io.Writer, groups []stats.Group) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "KEY\tCOLUMN\tCOUNT\tMEAN\tSTD")
	for _, g := range groups {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%.2f\t%.2f\n", g.Key, g.Column, g.Count, g.Mean, g.Std)
	}
	_ = tw.Flush()
}

func renderBuckets(w io.Writer, buckets []stats.Bucket) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "COLUMN\tPERIOD\tCOUNT\tMEAN")
	for _, b := range buckets {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%.2f\n", b.Column, b.Period.Format("2006-01"), b.Count, b.Mean)
	}
	_ = tw.Flush()
}

func renderColumns(w io.Writer, columns []domain.ColumnSpec) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "COLUMN\tKIND\tPARAMS")
	for _, c := range columns {
		var params string
		if c.Numeric != nil {
			params = fmt.Sprintf("mean=%g std=%g noise=%g", c.Numeric.Mean, c.Numeric.Std, c.Numeric.Noise)
		} else {
			params = fmt.Sprintf("categories=%v probabilities=%v", c.Categorical.Categories, c.Categorical.Probabilities)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", c.Name, c.Kind, params)
	}
	_ = tw.Flush()
}
