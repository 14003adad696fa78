// Package report writes statistics to an Excel workbook.
package report

import (
	"fmt"
	"io"

	"github.com/conorfennell/srs/internal/stats"
	"github.com/xuri/excelize/v2"
)

const (
	GlobalSheet = "Global"
	DecksSheet  = "Decks"
)

var deckHeader = []interface{}{"Deck", "Active", "Suspended", "Leech", "Total", "Correct", "Wrong", "Accuracy %"}

// Write renders r as an xlsx workbook to w.
func Write(w io.Writer, r stats.Report) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", GlobalSheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}
	if _, err := f.NewSheet(DecksSheet); err != nil {
		return fmt.Errorf("failed to add sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	global := [][]interface{}{
		{"Metric", "Cards"},
		{"Active", r.Global.ActiveCount},
		{"Suspended", r.Global.SuspendedCount},
		{"Leech", r.Global.LeechCount},
		{"Due next day", r.Global.ForReviewCount},
	}
	if err := writeRows(f, GlobalSheet, global); err != nil {
		return err
	}

	decks := [][]interface{}{deckHeader}
	for _, d := range r.Decks {
		decks = append(decks, []interface{}{
			d.Name,
			d.ActiveCount,
			d.SuspendedCount,
			d.LeechCount,
			d.TotalCount(),
			d.CorrectCount,
			d.WrongCount,
			stats.Accuracy(d),
		})
	}
	if err := writeRows(f, DecksSheet, decks); err != nil {
		return err
	}

	for _, sheet := range []string{GlobalSheet, DecksSheet} {
		if err := f.SetRowStyle(sheet, 1, 1, bold); err != nil {
			return fmt.Errorf("failed to style header of %s: %w", sheet, err)
		}
	}
	if err := f.SetColWidth(DecksSheet, "A", "A", 30); err != nil {
		return fmt.Errorf("failed to size deck column: %w", err)
	}
	if err := f.SetColWidth(GlobalSheet, "A", "A", 16); err != nil {
		return fmt.Errorf("failed to size metric column: %w", err)
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func writeRows(f *excelize.File, sheet string, rows [][]interface{}) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write row %d of %s: %w", i+1, sheet, err)
		}
	}
	return nil
}
