package excel

import (
	"fmt"

	"adinsight/domain/summary"

	"github.com/xuri/excelize/v2"
)

// WriteWorkbook writes s to path in the layout WorkbookReader reads
func WriteWorkbook(path string, s *summary.PerformanceSummary) error {
	f, err := NewWorkbook(s)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return nil
}

// NewWorkbook builds an in-memory workbook for s. The caller closes it.
func NewWorkbook(s *summary.PerformanceSummary) (*excelize.File, error) {
	if s == nil {
		return nil, fmt.Errorf("summary cannot be nil")
	}

	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", sheetOrder[0]); err != nil {
		f.Close()
		return nil, err
	}
	for _, name := range sheetOrder[1:] {
		if _, err := f.NewSheet(name); err != nil {
			f.Close()
			return nil, err
		}
	}

	w := &sheetWriter{f: f}
	for _, name := range sheetOrder {
		w.row(name, toCells(headers(name)))
	}

	for _, win := range []struct {
		name string
		w    *summary.Window
	}{{summary.WindowRecent, s.Windows.Recent}, {summary.WindowPrior, s.Windows.Prior}} {
		if win.w == nil {
			continue
		}
		w.row(SheetWindows, append([]interface{}{string(s.SummaryID), win.name, win.w.Label, win.w.Start, win.w.End}, metricCells(win.w.Metrics)...))
		for _, d := range win.w.Daily {
			w.row(SheetDaily, append([]interface{}{win.name, d.Date}, metricCells(d.Metrics)...))
		}
	}

	for _, c := range s.Campaigns {
		w.row(SheetCampaigns, append([]interface{}{c.CampaignID, c.CampaignName, summary.WindowRecent}, metricCells(c.Recent)...))
		if c.Prior != nil {
			w.row(SheetCampaigns, append([]interface{}{c.CampaignID, c.CampaignName, summary.WindowPrior}, metricCells(*c.Prior)...))
		}
	}
	for _, c := range s.Creatives {
		w.row(SheetCreatives, append([]interface{}{c.CreativeType, c.CreativeMessage, summary.WindowRecent}, metricCells(c.Recent)...))
		if c.Prior != nil {
			w.row(SheetCreatives, append([]interface{}{c.CreativeType, c.CreativeMessage, summary.WindowPrior}, metricCells(*c.Prior)...))
		}
	}

	if w.err != nil {
		f.Close()
		return nil, w.err
	}
	f.SetActiveSheet(0)
	return f, nil
}

// sheetWriter appends rows per sheet and keeps the first error
type sheetWriter struct {
	f    *excelize.File
	next map[string]int
	err  error
}

func (w *sheetWriter) row(sheet string, cells []interface{}) {
	if w.err != nil {
		return
	}
	if w.next == nil {
		w.next = make(map[string]int)
	}
	w.next[sheet]++
	cell, err := excelize.CoordinatesToCellName(1, w.next[sheet])
	if err != nil {
		w.err = err
		return
	}
	if err := w.f.SetSheetRow(sheet, cell, &cells); err != nil {
		w.err = fmt.Errorf("failed to write %s row %d: %w", sheet, w.next[sheet], err)
	}
}

func metricCells(m summary.Metrics) []interface{} {
	out := make([]interface{}, len(summary.MetricNames))
	for i, name := range summary.MetricNames {
		if v, ok := m.Get(name); ok {
			out[i] = v
		}
	}
	return out
}

func toCells(values []string) []interface{} {
	out := make([]interface{}, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
