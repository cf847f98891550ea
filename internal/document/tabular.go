package document

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/shakinm/xlsReader/xls"
	"github.com/xuri/excelize/v2"
	"gonum.org/v1/gonum/stat"
)

const (
	// maxListedColumns bounds how many column names the summary lists.
	maxListedColumns = 20
	// maxNumericColumns bounds how many numeric columns get statistics.
	maxNumericColumns = 10
)

// table is an in-memory row/column view of one tabular source (one
// CSV file or one spreadsheet sheet).
type table struct {
	columns []string
	rows    [][]string
}

// csvUnits builds the summary unit plus row-chunk units for a CSV file.
// The first record is treated as the header row.
func (b *Builder) csvUnits(path string) ([]Unit, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv file: %w", err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv file: %w", err)
	}

	tbl := table{}
	if len(records) > 0 {
		tbl.columns = records[0]
		tbl.rows = records[1:]
	}
	return tabularUnits(path, "", tbl), nil
}

// excelUnits builds summary and chunk units per sheet of a workbook.
func (b *Builder) excelUnits(path string) ([]Unit, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	var units []Unit
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
		}
		tbl := table{}
		if len(rows) > 0 {
			tbl.columns = rows[0]
			tbl.rows = padRows(rows[1:], len(rows[0]))
		}
		units = append(units, tabularUnits(path, sheet, tbl)...)
	}
	return units, nil
}

// legacyExcelUnits builds summary and chunk units per sheet of a
// BIFF-format workbook. excelize reads only OOXML zip containers, so
// pre-2007 .xls files go through a dedicated reader feeding the same
// table pipeline.
func (b *Builder) legacyExcelUnits(path string) ([]Unit, error) {
	workbook, err := xls.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}

	var units []Unit
	for i := 0; i < workbook.GetNumberSheets(); i++ {
		sheet, err := workbook.GetSheet(i)
		if err != nil {
			return nil, fmt.Errorf("read sheet %d: %w", i, err)
		}

		var rows [][]string
		for r := 0; r <= sheet.GetNumberRows(); r++ {
			row, err := sheet.GetRow(r)
			if err != nil {
				continue
			}
			cells := row.GetCols()
			record := make([]string, len(cells))
			empty := true
			for c, cell := range cells {
				record[c] = cell.GetString()
				if strings.TrimSpace(record[c]) != "" {
					empty = false
				}
			}
			// GetRows-style trimming: blank records carry no data.
			if empty {
				continue
			}
			rows = append(rows, record)
		}

		tbl := table{}
		if len(rows) > 0 {
			tbl.columns = rows[0]
			tbl.rows = padRows(rows[1:], len(rows[0]))
		}
		units = append(units, tabularUnits(path, sheet.GetName(), tbl)...)
	}
	return units, nil
}

// tabularUnits renders one summary unit followed by one chunk unit per
// ChunkRows contiguous rows. The summary lets a single retrieval hit
// answer shape/statistics questions without pulling many chunks.
func tabularUnits(path, sheet string, tbl table) []Unit {
	source := sourceLabel(filepath.Base(path), sheet)

	units := []Unit{{
		Content: summaryText(source, tbl),
		Metadata: Metadata{
			Source:   path,
			UnitType: UnitSummary,
			Sheet:    sheet,
		},
	}}

	for start := 0; start < len(tbl.rows); start += ChunkRows {
		end := start + ChunkRows
		if end > len(tbl.rows) {
			end = len(tbl.rows)
		}
		body, err := renderMarkdownTable(tbl.columns, tbl.rows[start:end])
		if err != nil {
			body = renderDelimited(tbl.columns, tbl.rows[start:end])
		}
		units = append(units, Unit{
			Content: fmt.Sprintf("%s - rows %d to %d:\n%s", source, start, end-1, body),
			Metadata: Metadata{
				Source:     path,
				UnitType:   UnitChunk,
				RangeStart: start,
				RangeEnd:   end - 1,
				Sheet:      sheet,
			},
		})
	}
	return units
}

func sourceLabel(name, sheet string) string {
	if sheet == "" {
		return fmt.Sprintf("File %s", name)
	}
	return fmt.Sprintf("File %s, Sheet %s", name, sheet)
}

// summaryText renders the aggregate description of one table: row
// count, the leading column names, and rounded descriptive statistics
// for up to maxNumericColumns numeric columns.
func summaryText(source string, tbl table) string {
	listed := len(tbl.columns)
	if listed > maxListedColumns {
		listed = maxListedColumns
	}

	lines := []string{
		source + ":",
		fmt.Sprintf("- Rows: %d", len(tbl.rows)),
		fmt.Sprintf("- Columns (%d of %d): %s", listed, len(tbl.columns), strings.Join(tbl.columns[:listed], ", ")),
	}

	numeric := numericColumns(tbl)
	if len(numeric) > 0 {
		if len(numeric) > maxNumericColumns {
			numeric = numeric[:maxNumericColumns]
		}
		names := make([]string, len(numeric))
		for i, col := range numeric {
			names[i] = tbl.columns[col]
		}
		lines = append(lines, "- Numeric columns: "+strings.Join(names, ", "))
		lines = append(lines, "- Basic numeric statistics:")
		for _, col := range numeric {
			lines = append(lines, "  "+columnStats(tbl.columns[col], columnValues(tbl, col)))
		}
	}

	return strings.Join(lines, "\n")
}

// numericColumns returns indices of columns whose non-empty cells all
// parse as numbers, with at least one such cell.
func numericColumns(tbl table) []int {
	var numeric []int
	for col := range tbl.columns {
		seen := false
		ok := true
		for _, row := range tbl.rows {
			if col >= len(row) {
				continue
			}
			cell := strings.TrimSpace(row[col])
			if cell == "" {
				continue
			}
			if _, err := strconv.ParseFloat(cell, 64); err != nil {
				ok = false
				break
			}
			seen = true
		}
		if ok && seen {
			numeric = append(numeric, col)
		}
	}
	return numeric
}

func columnValues(tbl table, col int) []float64 {
	var vals []float64
	for _, row := range tbl.rows {
		if col >= len(row) {
			continue
		}
		cell := strings.TrimSpace(row[col])
		if cell == "" {
			continue
		}
		v, err := strconv.ParseFloat(cell, 64)
		if err != nil {
			continue
		}
		vals = append(vals, v)
	}
	return vals
}

// columnStats renders count/mean/std/min/quartiles/max for one column,
// rounded to two decimals.
func columnStats(name string, vals []float64) string {
	sorted := append([]float64(nil), vals...)
	sort.Float64s(sorted)

	std := 0.0
	if len(vals) > 1 {
		std = stat.StdDev(vals, nil)
	}

	return fmt.Sprintf("%s: count=%s, mean=%s, std=%s, min=%s, 25%%=%s, 50%%=%s, 75%%=%s, max=%s",
		name,
		strconv.Itoa(len(vals)),
		round2(stat.Mean(vals, nil)),
		round2(std),
		round2(sorted[0]),
		round2(stat.Quantile(0.25, stat.LinInterp, sorted, nil)),
		round2(stat.Quantile(0.5, stat.LinInterp, sorted, nil)),
		round2(stat.Quantile(0.75, stat.LinInterp, sorted, nil)),
		round2(sorted[len(sorted)-1]),
	)
}

func round2(v float64) string {
	s := strconv.FormatFloat(v, 'f', 2, 64)
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}

// renderMarkdownTable renders a pipe-delimited table with a header
// separator row.
func renderMarkdownTable(columns []string, rows [][]string) (string, error) {
	if len(columns) == 0 {
		return "", errors.New("no columns to render")
	}
	var buf bytes.Buffer
	tw := tablewriter.NewWriter(&buf)
	tw.SetHeader(columns)
	tw.SetAutoFormatHeaders(false)
	tw.SetAutoWrapText(false)
	tw.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	tw.SetAlignment(tablewriter.ALIGN_LEFT)
	tw.SetBorders(tablewriter.Border{Left: true, Top: false, Right: true, Bottom: false})
	tw.SetCenterSeparator("|")
	tw.AppendBulk(rows)
	tw.Render()
	return buf.String(), nil
}

// renderDelimited is the fallback rendering: plain comma-separated
// header and rows.
func renderDelimited(columns []string, rows [][]string) string {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if len(columns) > 0 {
		_ = w.Write(columns)
	}
	_ = w.WriteAll(rows)
	w.Flush()
	return buf.String()
}

// padRows extends short rows with empty cells so every row has width
// cells. Spreadsheet readers trim trailing empties per row.
func padRows(rows [][]string, width int) [][]string {
	for i, row := range rows {
		for len(row) < width {
			row = append(row, "")
		}
		rows[i] = row
	}
	return rows
}
