// Package report renders supervisor exports.
package report

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	patrol "guardpatrol.com/patrol/patrol/core"
	"guardpatrol.com/patrol/patrol/model"
	"guardpatrol.com/patrol/patrol/store"
	"guardpatrol.com/patrol/utils"
)

const roundSheet = "Rounds"

var RoundReportHeader = []string{
	"Date",
	"Scheduled",
	"Guard RUT",
	"Guard",
	"Route",
	"Status",
	"Marked",
	"Total",
	"Progress %",
	"Completed",
}

// RoundReport builds an XLSX workbook with one row per round and a totals
// row at the bottom.
func RoundReport(rounds []store.RoundListing) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(roundSheet)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	f.DeleteSheet("Sheet1")
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E6F3FF"}, Pattern: 1},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	for i, h := range RoundReportHeader {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(roundSheet, cell, h); err != nil {
			return nil, err
		}
	}
	last, _ := excelize.CoordinatesToCellName(len(RoundReportHeader), 1)
	if err := f.SetCellStyle(roundSheet, "A1", last, headerStyle); err != nil {
		return nil, err
	}

	completed := 0
	for i, r := range rounds {
		done := r.Status == model.RoundCompleted
		if done {
			completed++
		}
		row := []any{
			r.Date,
			r.ScheduledTime,
			r.GuardRut,
			r.GuardName,
			r.RouteName,
			r.Status.String(),
			r.MarkedPoints,
			r.TotalPoints,
			patrol.NewProgress(r.MarkedPoints, r.TotalPoints).Percentage,
			utils.FormatBoolean(done, "Yes", "No"),
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(roundSheet, cell, &row); err != nil {
			return nil, fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	totalRow := len(rounds) + 3
	summary := []any{"Completed", fmt.Sprintf("%d/%d", completed, len(rounds))}
	cell, _ := excelize.CoordinatesToCellName(1, totalRow)
	if err := f.SetSheetRow(roundSheet, cell, &summary); err != nil {
		return nil, err
	}

	_ = f.SetColWidth(roundSheet, "C", "E", 20)
	if err := f.AutoFilter(roundSheet, fmt.Sprintf("A1:%s", last), nil); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}
