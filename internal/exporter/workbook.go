package exporter

import (
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/xuri/excelize/v2"

	"MarketSeasonality/internal/model"
)

const (
	sheetMonthly = "Monthly"
	sheetDaily   = "Daily"
	sheetChart   = "Chart"
)

// WriteWorkbook writes the formatted tables and the chart series of report
// as an XLSX workbook with the sheets Monthly, Daily and Chart.
func WriteWorkbook(w io.Writer, report *model.PeriodReport) error {
	if report == nil {
		return errors.New("exporter: nil report")
	}
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), sheetMonthly); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	for _, name := range []string{sheetDaily, sheetChart} {
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("create sheet %s: %w", name, err)
		}
	}
	header, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"D3D3D3"}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}

	if err := writeTable(f, sheetMonthly, report.Monthly, header); err != nil {
		return err
	}
	if err := writeTable(f, sheetDaily, report.Daily, header); err != nil {
		return err
	}
	if err := writeChart(f, report.Chart, header); err != nil {
		return err
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeTable(f *excelize.File, sheet string, t *model.Table, header int) error {
	if t == nil {
		return nil
	}
	head := []interface{}{t.IndexName}
	for _, c := range t.Columns {
		head = append(head, c)
	}
	if err := f.SetSheetRow(sheet, "A1", &head); err != nil {
		return fmt.Errorf("%s header: %w", sheet, err)
	}
	for i, r := range t.Rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		row := []interface{}{r.Label, r.Avg, r.Max, r.Freq}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("%s row %s: %w", sheet, r.Label, err)
		}
	}
	lastCol, _ := excelize.ColumnNumberToName(len(head))
	if err := f.SetCellStyle(sheet, "A1", lastCol+"1", header); err != nil {
		return err
	}
	return f.SetColWidth(sheet, "B", lastCol, 26)
}

func writeChart(f *excelize.File, points []model.ChartPoint, header int) error {
	head := []interface{}{"Day", "Average YTD %", "Moving average %"}
	if err := f.SetSheetRow(sheetChart, "A1", &head); err != nil {
		return fmt.Errorf("chart header: %w", err)
	}
	for i, p := range points {
		row := []interface{}{p.Label, round2(p.Average * 100)}
		if p.MovingAverage != nil {
			row = append(row, round2(*p.MovingAverage*100))
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(sheetChart, cell, &row); err != nil {
			return fmt.Errorf("chart row %s: %w", p.Label, err)
		}
	}
	return f.SetCellStyle(sheetChart, "A1", "C1", header)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
