// Package report exports a progress snapshot as an XLSX workbook.
package report

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/p-n-ai/pai-tracker/internal/model"
)

// Sheet names, in workbook order.
const (
	SheetSummary  = "Summary"
	SheetTopics   = "Topics"
	SheetSubjects = "Core Subjects"
	SheetCalendar = "Calendar"
)

// Write renders s as a workbook and writes it to w.
func Write(w io.Writer, s model.AppState, generatedAt time.Time) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetSummary); err != nil {
		return fmt.Errorf("naming summary sheet: %w", err)
	}
	for _, name := range []string{SheetTopics, SheetSubjects, SheetCalendar} {
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("creating sheet %q: %w", name, err)
		}
	}

	header, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("creating header style: %w", err)
	}

	sheets := []struct {
		name string
		rows [][]any
	}{
		{SheetSummary, summaryRows(s, generatedAt)},
		{SheetTopics, topicRows(s)},
		{SheetSubjects, subjectRows(s)},
		{SheetCalendar, calendarRows(s)},
	}
	for _, sh := range sheets {
		if err := writeRows(f, sh.name, sh.rows, header); err != nil {
			return err
		}
	}

	f.SetActiveSheet(0)
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

func writeRows(f *excelize.File, sheet string, rows [][]any, headerStyle int) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("writing %s row %d: %w", sheet, i+1, err)
		}
	}
	if len(rows) == 0 {
		return nil
	}
	if err := f.SetRowStyle(sheet, 1, 1, headerStyle); err != nil {
		return fmt.Errorf("styling %s header: %w", sheet, err)
	}
	last, err := excelize.ColumnNumberToName(len(rows[0]))
	if err != nil {
		return err
	}
	return f.SetColWidth(sheet, "A", last, 18)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func summaryRows(s model.AppState, generatedAt time.Time) [][]any {
	sum := model.Summarize(s)
	return [][]any{
		{"Metric", "Value"},
		{"Generated at", generatedAt.Format(time.RFC3339)},
		{"Streak", s.Streak},
		{"Last visit", s.LastVisit},
		{"DSA completion %", sum.DSA},
		{"Core subjects completion %", sum.Core},
		{"Overall completion %", sum.Overall},
		{"Subtopics completed", fmt.Sprintf("%d/%d", sum.CompletedSubtopics, sum.TotalSubtopics)},
		{"Core items completed", fmt.Sprintf("%d/%d", sum.CompletedItems, sum.TotalItems)},
	}
}

func topicRows(s model.AppState) [][]any {
	rows := [][]any{{"Topic ID", "Topic", "Category", "Subtopic ID", "Subtopic", "Completed", "Topic progress %"}}
	for _, t := range s.Topics {
		for _, st := range t.Subtopics {
			rows = append(rows, []any{t.ID, t.Name, t.Category, st.ID, st.Name, yesNo(st.Completed), t.Progress})
		}
	}
	return rows
}

func subjectRows(s model.AppState) [][]any {
	rows := [][]any{{"Subject ID", "Subject", "Item ID", "Item", "Completed", "Subject progress %"}}
	for _, sub := range s.InterviewSubjects {
		for _, it := range sub.Items {
			rows = append(rows, []any{sub.ID, sub.Name, it.ID, it.Name, yesNo(it.Completed), sub.Progress})
		}
	}
	return rows
}

// calendarRows lists one row per task in date order. Days with notes but no
// tasks still get a row.
func calendarRows(s model.AppState) [][]any {
	rows := [][]any{{"Date", "Task ID", "Task", "Completed", "Notes"}}

	dates := make([]string, 0, len(s.CalendarData))
	for d := range s.CalendarData {
		dates = append(dates, d)
	}
	sort.Strings(dates)

	for _, d := range dates {
		rec := s.CalendarData[d]
		if len(rec.Tasks) == 0 {
			if rec.Notes != "" {
				rows = append(rows, []any{d, "", "", "", rec.Notes})
			}
			continue
		}
		for _, t := range rec.Tasks {
			rows = append(rows, []any{d, t.ID, t.Text, yesNo(t.Completed), rec.Notes})
		}
	}
	return rows
}
