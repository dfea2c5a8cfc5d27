package batch

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/sweetpotato0/company-researcher/pkg/logging"
)

// Table is the pivoted batch output: one row per company, a value column
// and a comment column per metric.
type Table struct {
	Header []string
	Rows   [][]string
}

// Pivot reshapes flat results into a company-by-metric table. Metric column
// order follows the metrics argument; company row order follows companies.
// Failed or empty results leave their cells blank, with a warning.
func Pivot(results []Result, companies, metrics []string) *Table {
	logger := logging.WithComponent("batch")

	header := []string{"company"}
	for _, m := range metrics {
		header = append(header, m+" value", m+" comment")
	}

	type cell struct {
		value, comment string
	}
	cells := make(map[string]map[string]cell, len(companies))
	for _, r := range results {
		if r.Err != nil {
			logger.Warn("skipping failed result",
				"company", r.Company, "metric", r.MetricID, "error", r.Err)
			continue
		}
		if r.Metric == nil {
			logger.Warn("skipping result without metric",
				"company", r.Company, "metric", r.MetricID)
			continue
		}
		byMetric, ok := cells[r.Company]
		if !ok {
			byMetric = make(map[string]cell, len(metrics))
			cells[r.Company] = byMetric
		}
		byMetric[r.MetricID] = cell{
			value:   r.Metric.ValueString(),
			comment: r.Metric.Comment,
		}
	}

	rows := make([][]string, 0, len(companies))
	for _, company := range companies {
		row := []string{company}
		for _, m := range metrics {
			c := cells[company][m]
			row = append(row, c.value, c.comment)
		}
		rows = append(rows, row)
	}
	return &Table{Header: header, Rows: rows}
}

// WriteCSV writes the table as CSV.
func (t *Table) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, row := range t.Rows {
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}
