package analysis

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/bobmcallan/stockmatrix/internal/common"
	"github.com/bobmcallan/stockmatrix/internal/models"
)

// Format is a requested tabular export encoding
type Format string

const (
	FormatNone  Format = ""
	FormatCSV   Format = "csv"
	FormatExcel Format = "excel"
)

const (
	ContentTypeCSV   = "text/csv"
	ContentTypeExcel = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	excelSheet = "Data"
)

var exportHeader = []string{"Date", "Open", "High", "Low", "Close", "Volume"}

// ParseFormat validates a requested format. Matching is case-insensitive and
// "xlsx" is accepted for excel. Anything else non-empty is ErrUnsupportedFormat.
func ParseFormat(raw string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "":
		return FormatNone, nil
	case "csv":
		return FormatCSV, nil
	case "excel", "xlsx":
		return FormatExcel, nil
	default:
		return FormatNone, fmt.Errorf("%w %q (expected csv or excel)", common.ErrUnsupportedFormat, raw)
	}
}

// Export is a rendered file ready to be sent as an attachment
type Export struct {
	Filename    string
	ContentType string
	Body        []byte
}

// ContentDisposition returns the attachment header value
func (e *Export) ContentDisposition() string {
	return fmt.Sprintf("attachment; filename=%q", e.Filename)
}

// RenderExport serializes the raw price series of response (never the
// computed indicators) in the requested format
func RenderExport(response *models.AnalysisResponse, format Format) (*Export, error) {
	if response == nil {
		return nil, fmt.Errorf("no analysis to export")
	}

	switch format {
	case FormatCSV:
		body, err := encodeCSV(response.Series)
		if err != nil {
			return nil, err
		}
		return &Export{
			Filename:    fmt.Sprintf("%s_data.csv", response.Symbol),
			ContentType: ContentTypeCSV,
			Body:        body,
		}, nil
	case FormatExcel:
		body, err := encodeExcel(response.Series)
		if err != nil {
			return nil, err
		}
		return &Export{
			Filename:    fmt.Sprintf("%s_data.xlsx", response.Symbol),
			ContentType: ContentTypeExcel,
			Body:        body,
		}, nil
	default:
		return nil, fmt.Errorf("%w %q", common.ErrUnsupportedFormat, string(format))
	}
}

func encodeCSV(series models.PriceSeries) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(exportHeader); err != nil {
		return nil, fmt.Errorf("failed to write csv header: %w", err)
	}
	for _, q := range series {
		row := []string{
			q.Date.Format("2006-01-02"),
			price(q.Open),
			price(q.High),
			price(q.Low),
			price(q.Close),
			strconv.FormatInt(q.Volume, 10),
		}
		if err := w.Write(row); err != nil {
			return nil, fmt.Errorf("failed to write csv row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("failed to flush csv: %w", err)
	}
	return buf.Bytes(), nil
}

func encodeExcel(series models.PriceSeries) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", excelSheet); err != nil {
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}

	header := make([]interface{}, len(exportHeader))
	for i, h := range exportHeader {
		header[i] = h
	}
	if err := f.SetSheetRow(excelSheet, "A1", &header); err != nil {
		return nil, fmt.Errorf("failed to write header: %w", err)
	}

	for i, q := range series {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		row := []interface{}{
			q.Date.Format("2006-01-02"),
			q.Open,
			q.High,
			q.Low,
			q.Close,
			q.Volume,
		}
		if err := f.SetSheetRow(excelSheet, cell, &row); err != nil {
			return nil, fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to encode workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// price formats a value at the precision the provider supplied, without
// float artifacts
func price(v float64) string {
	return decimal.NewFromFloat(v).String()
}
