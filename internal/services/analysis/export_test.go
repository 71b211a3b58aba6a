package analysis

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/bobmcallan/stockmatrix/internal/models"
)

func subCentSeries() models.PriceSeries {
	return models.PriceSeries{{
		Date:   time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC),
		Open:   0.0119,
		High:   0.0123,
		Low:    0.0117,
		Close:  0.0120,
		Volume: 1,
	}, {
		Date:   time.Date(2025, 1, 7, 0, 0, 0, 0, time.UTC),
		Open:   3890.125,
		High:   3901.3375,
		Low:    3850,
		Close:  3899.95,
		Volume: 1500000,
	}}
}

func TestRenderExport_CSVKeepsProviderPrecision(t *testing.T) {
	export, err := RenderExport(&models.AnalysisResponse{Symbol: "PENNY.NS", Series: subCentSeries()}, FormatCSV)
	require.NoError(t, err)

	rows, err := csv.NewReader(bytes.NewReader(export.Body)).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"2025-01-06", "0.0119", "0.0123", "0.0117", "0.012", "1"}, rows[1])
	assert.Equal(t, []string{"2025-01-07", "3890.125", "3901.3375", "3850", "3899.95", "1500000"}, rows[2])
}

func TestRenderExport_ExcelKeepsProviderPrecision(t *testing.T) {
	export, err := RenderExport(&models.AnalysisResponse{Symbol: "PENNY.NS", Series: subCentSeries()}, FormatExcel)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(export.Body))
	require.NoError(t, err)
	defer f.Close()

	raw := excelize.Options{RawCellValue: true}
	cells := map[string]string{
		"B2": "0.0119",
		"E2": "0.012",
		"C3": "3901.3375",
		"F3": "1500000",
	}
	for cell, expected := range cells {
		got, err := f.GetCellValue(excelSheet, cell, raw)
		require.NoError(t, err)
		assert.Equal(t, expected, got, "cell %s", cell)
	}
}
