package export

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/i474232898/weerlive-forecast/internal/weather"
)

const (
	hourlySheet = "Hourly"
	dailySheet  = "Daily"
)

var (
	hourlyHeaders = []string{
		"Location", "Date", "Hour", "Temperature (°C)", "Precipitation (mm)",
		"Irradiance (W/m²)", "Condition", "Icon", "Lat", "Lon",
	}
	dailyHeaders = []string{"Location", "Date", "Max (°C)", "Min (°C)", "Mean (°C)", "Samples"}
)

// Workbook renders a dataset as an xlsx workbook with an hourly and a daily
// sheet. Null values are written as empty cells.
func Workbook(ds *weather.Dataset) ([]byte, error) {
	if ds == nil {
		return nil, fmt.Errorf("no dataset to export")
	}

	f := excelize.NewFile()
	defer f.Close()

	f.SetDocProps(&excelize.DocProperties{
		Title:       "Weerlive forecast",
		Subject:     "Hourly forecast",
		Creator:     "weerlive-forecast",
		Description: fmt.Sprintf("Session %s fetched %s", ds.SessionID, ds.FetchedAt.Format(time.RFC3339)),
		Created:     ds.FetchedAt.Format(time.RFC3339),
	})

	if err := f.SetSheetName("Sheet1", hourlySheet); err != nil {
		return nil, fmt.Errorf("failed to rename sheet: %w", err)
	}
	if err := writeHourly(f, ds.Table.Rows); err != nil {
		return nil, fmt.Errorf("failed to create hourly sheet: %w", err)
	}

	if _, err := f.NewSheet(dailySheet); err != nil {
		return nil, fmt.Errorf("failed to create daily sheet: %w", err)
	}
	if err := writeDaily(f, ds.Daily); err != nil {
		return nil, fmt.Errorf("failed to create daily sheet: %w", err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write excel to buffer: %w", err)
	}
	return buf.Bytes(), nil
}

func writeHourly(f *excelize.File, rows []weather.HourRow) error {
	if err := writeHeader(f, hourlySheet, hourlyHeaders); err != nil {
		return err
	}
	for i, r := range rows {
		row := i + 2
		values := []any{
			string(r.Location), r.Date, r.Hour,
			r.Temperature, r.Precipitation, r.Irradiance,
			r.Condition, r.Icon, r.Lat, r.Lon,
		}
		for col, v := range values {
			if err := setCell(f, hourlySheet, col+1, row, v); err != nil {
				return err
			}
		}
	}
	return nil
}

func writeDaily(f *excelize.File, daily []weather.DailyAggregate) error {
	if err := writeHeader(f, dailySheet, dailyHeaders); err != nil {
		return err
	}
	for i, d := range daily {
		row := i + 2
		values := []any{string(d.Location), d.Date, d.Max, d.Min, d.Mean, d.Samples}
		for col, v := range values {
			if err := setCell(f, dailySheet, col+1, row, v); err != nil {
				return err
			}
		}
	}
	return nil
}

func writeHeader(f *excelize.File, sheet string, headers []string) error {
	for i, h := range headers {
		if err := setCell(f, sheet, i+1, 1, h); err != nil {
			return err
		}
	}
	return nil
}

// setCell writes v unless it is a nil *float64, which leaves the cell empty.
func setCell(f *excelize.File, sheet string, col, row int, v any) error {
	if p, ok := v.(*float64); ok {
		if p == nil {
			return nil
		}
		v = *p
	}
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return err
	}
	return f.SetCellValue(sheet, cell, v)
}
