package store

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/cliffyan/go-problem-search/internal/engine"
)

// SheetName XLSX 导出的工作表名称
const SheetName = "Problems"

var exportHeaders = []string{"Platform", "Title", "Link", "Difficulty", "Language", "Topic"}

func exportRow(p engine.Problem) []string {
	return []string{p.Platform, p.Title, p.Link, p.Difficulty, p.Language, p.Topic}
}

// ExportCSV 以 CSV 格式导出题库
func ExportCSV(w io.Writer, problems []engine.Problem) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(exportHeaders); err != nil {
		return fmt.Errorf("write csv header failed: %w", err)
	}
	for _, p := range problems {
		if err := cw.Write(exportRow(p)); err != nil {
			return fmt.Errorf("write csv row failed: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ExportXLSX 以 Excel 格式导出题库
func ExportXLSX(filename string, problems []engine.Problem) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("failed to rename sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	for i, header := range exportHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(SheetName, cell, header)
		f.SetCellStyle(SheetName, cell, cell, headerStyle)
	}

	for rowIdx, p := range problems {
		for colIdx, value := range exportRow(p) {
			cell, _ := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			f.SetCellValue(SheetName, cell, value)
		}
	}

	for i := range exportHeaders {
		col, _ := excelize.ColumnNumberToName(i + 1)
		width := 15.0
		if exportHeaders[i] == "Title" || exportHeaders[i] == "Link" {
			width = 40
		}
		f.SetColWidth(SheetName, col, col, width)
	}

	if err := f.SaveAs(filename); err != nil {
		return fmt.Errorf("failed to save Excel file: %w", err)
	}

	return nil
}
