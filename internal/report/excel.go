// Package report builds Excel exports of the availability resolve log.
package report

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/AdiYohanes/mge-booking/internal/store"
)

var occupancyColumns = []string{
	"Date", "Unit ID", "Unit", "Resolves", "Slots", "Min Available", "Degraded",
}

// WriteOccupancy renders per-unit occupancy stats as an Excel workbook,
// one sheet for the whole period.
func WriteOccupancy(w io.Writer, stats []store.DayStat) error {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Occupancy"
	f.SetSheetName("Sheet1", sheet)

	for i, col := range occupancyColumns {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, col); err != nil {
			return err
		}
	}

	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err == nil {
		startCell, _ := excelize.CoordinatesToCellName(1, 1)
		endCell, _ := excelize.CoordinatesToCellName(len(occupancyColumns), 1)
		_ = f.SetCellStyle(sheet, startCell, endCell, style)
	}

	for rowIdx, st := range stats {
		values := []interface{}{
			st.Date, st.UnitID, st.UnitName, st.Resolves,
			st.SlotCount, st.AvailableCount, st.DegradedCount,
		}
		for colIdx, val := range values {
			cell, err := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cell, val); err != nil {
				return err
			}
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
