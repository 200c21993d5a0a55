// Package export renders schedules as XLSX workbooks.
package export

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/xuri/excelize/v2"

	"clinicgrid/internal/model"
)

const maxSheetName = 31

// sheetWriter appends rows to the sheets of one workbook.
type sheetWriter struct {
	file         *excelize.File
	currentSheet string
	currentRow   int
	headerStyle  int
}

func newSheetWriter() (*sheetWriter, error) {
	f := excelize.NewFile()
	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return &sheetWriter{file: f, headerStyle: style}, nil
}

func (w *sheetWriter) addSheet(name string) error {
	if len(name) > maxSheetName {
		name = name[:maxSheetName]
	}

	if w.currentSheet == "" {
		if err := w.file.SetSheetName("Sheet1", name); err != nil {
			return err
		}
	} else if _, err := w.file.NewSheet(name); err != nil {
		return fmt.Errorf("create sheet %s: %w", name, err)
	}

	w.currentSheet = name
	w.currentRow = 1
	return nil
}

func (w *sheetWriter) writeHeader(columns ...string) error {
	row := make([]any, len(columns))
	for i, c := range columns {
		row[i] = c
	}
	if err := w.writeRow(row...); err != nil {
		return err
	}
	start, _ := excelize.CoordinatesToCellName(1, w.currentRow-1)
	end, _ := excelize.CoordinatesToCellName(len(columns), w.currentRow-1)
	if err := w.file.SetCellStyle(w.currentSheet, start, end, w.headerStyle); err != nil {
		return err
	}
	return w.file.SetPanes(w.currentSheet, &excelize.Panes{
		Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft",
	})
}

func (w *sheetWriter) writeRow(values ...any) error {
	if w.currentSheet == "" {
		return fmt.Errorf("no active sheet")
	}
	cell, err := excelize.CoordinatesToCellName(1, w.currentRow)
	if err != nil {
		return err
	}
	if err := w.file.SetSheetRow(w.currentSheet, cell, &values); err != nil {
		return err
	}
	w.currentRow++
	return nil
}

// fill paints one cell of the previous row.
func (w *sheetWriter) fill(col int, color string) error {
	if color == "" {
		return nil
	}
	style, err := w.file.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{strings.TrimPrefix(color, "#")}},
	})
	if err != nil {
		return err
	}
	cell, err := excelize.CoordinatesToCellName(col, w.currentRow-1)
	if err != nil {
		return err
	}
	return w.file.SetCellStyle(w.currentSheet, cell, cell, style)
}

// WriteSchedule writes a workbook with a Visits and a Shifts sheet, in date
// order, to out. Status cells are filled with the status colour.
func WriteSchedule(out io.Writer, data model.MultiDayScheduleData, statuses []model.PatientStatus) error {
	w, err := newSheetWriter()
	if err != nil {
		return err
	}
	defer w.file.Close()

	dates := make([]string, 0, len(data))
	for d := range data {
		dates = append(dates, d)
	}
	sort.Strings(dates)

	if err := w.addSheet("Visits"); err != nil {
		return err
	}
	if err := w.writeHeader("Date", "Cabinet", "Start", "End", "Patient", "Doctor", "Status", "Note"); err != nil {
		return err
	}
	for _, date := range dates {
		for _, cab := range data[date].Cabinets {
			for _, sh := range cab.Shifts {
				for _, v := range sh.Visits {
					doctor := v.DoctorName
					if doctor == "" {
						doctor = sh.StaffName
					}
					if err := w.writeRow(date, cab.Name, v.StartTime, v.EndTime, v.PatientName, doctor, string(v.Status), v.Note); err != nil {
						return err
					}
					if err := w.fill(7, model.StatusColor(statuses, v.Status)); err != nil {
						return err
					}
				}
			}
		}
	}

	if err := w.addSheet("Shifts"); err != nil {
		return err
	}
	if err := w.writeHeader("Date", "Cabinet", "Staff", "Role", "Start", "End", "Visits", "Reserved"); err != nil {
		return err
	}
	for _, date := range dates {
		for _, cab := range data[date].Cabinets {
			for _, sh := range cab.Shifts {
				if err := w.writeRow(date, cab.Name, sh.StaffName, string(sh.Role), sh.StartTime, sh.EndTime, len(sh.Visits), len(sh.Reserved)); err != nil {
					return err
				}
				if err := w.fill(2, cab.Color); err != nil {
					return err
				}
			}
		}
	}

	return w.file.Write(out)
}
