package report

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/AdiYohanes/mge-booking/internal/store"
)

func TestWriteOccupancy(t *testing.T) {
	stats := []store.DayStat{
		{Date: "2025-03-07", UnitID: 1, UnitName: "PS5 Ruang 1", Resolves: 4, SlotCount: 22, AvailableCount: 10, DegradedCount: 0},
		{Date: "2025-03-08", UnitID: 2, UnitName: "VIP Room", Resolves: 2, SlotCount: 30, AvailableCount: 28, DegradedCount: 1},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteOccupancy(&buf, stats))

	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	defer f.Close()

	header, err := f.GetCellValue("Occupancy", "A1")
	require.NoError(t, err)
	assert.Equal(t, "Date", header)

	date, _ := f.GetCellValue("Occupancy", "A2")
	assert.Equal(t, "2025-03-07", date)

	name, _ := f.GetCellValue("Occupancy", "C3")
	assert.Equal(t, "VIP Room", name)

	degraded, _ := f.GetCellValue("Occupancy", "G3")
	assert.Equal(t, "1", degraded)
}

func TestWriteOccupancyEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteOccupancy(&buf, nil))

	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Occupancy")
	require.NoError(t, err)
	assert.Len(t, rows, 1, "only the header row")
}
