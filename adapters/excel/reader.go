package excel

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"adinsight/domain/core"
	"adinsight/domain/summary"
	"adinsight/internal"

	"github.com/xuri/excelize/v2"
)

// WorkbookReader reads a performance summary from an .xlsx workbook
type WorkbookReader struct {
	filePath string
	logger   *internal.Logger
}

// NewWorkbookReader creates a reader for the workbook at filePath
func NewWorkbookReader(filePath string) *WorkbookReader {
	return &WorkbookReader{
		filePath: filePath,
		logger:   internal.DefaultLogger.Named("WorkbookReader"),
	}
}

// ReadSummary implements ports.SummaryReader
func (r *WorkbookReader) ReadSummary(ctx context.Context) (*summary.PerformanceSummary, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if _, err := os.Stat(r.filePath); os.IsNotExist(err) {
		return nil, fmt.Errorf("workbook not found: %s", r.filePath)
	}

	startTime := time.Now()
	f, err := excelize.OpenFile(r.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	s, err := decodeWorkbook(f)
	if err != nil {
		return nil, err
	}
	r.logger.Debug("%s read in %.2fms", r.filePath, float64(time.Since(startTime).Microseconds())/1e3)
	return s, nil
}

// ReadWorkbook decodes a workbook from a stream
func ReadWorkbook(rd io.Reader) (*summary.PerformanceSummary, error) {
	f, err := excelize.OpenReader(rd)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()
	return decodeWorkbook(f)
}

func decodeWorkbook(f *excelize.File) (*summary.PerformanceSummary, error) {
	windows, err := readSheet(f, SheetWindows)
	if err != nil {
		return nil, err
	}
	if windows == nil {
		return nil, fmt.Errorf("%w: workbook has no %q sheet", core.ErrInputContract, SheetWindows)
	}

	s := &summary.PerformanceSummary{}
	var errs []error
	for i, row := range windows.Rows {
		w := &summary.Window{Label: row[ColLabel], Start: row[ColStart], End: row[ColEnd]}
		w.Metrics, err = parseMetrics(SheetWindows, i, row)
		errs = append(errs, err)
		if id := row[ColSummaryID]; id != "" && s.SummaryID == "" {
			s.SummaryID = core.SummaryID(id)
		}
		switch row[ColWindow] {
		case summary.WindowRecent:
			s.Windows.Recent = w
		case summary.WindowPrior:
			s.Windows.Prior = w
		default:
			errs = append(errs, rowError(SheetWindows, i, "unknown window %q", row[ColWindow]))
		}
	}

	errs = append(errs, decodeDaily(f, s)...)
	errs = append(errs, decodeCampaigns(f, s)...)
	errs = append(errs, decodeCreatives(f, s)...)

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return s, nil
}

func decodeDaily(f *excelize.File, s *summary.PerformanceSummary) []error {
	sheet, err := readSheet(f, SheetDaily)
	if err != nil || sheet == nil {
		return []error{err}
	}
	var errs []error
	for i, row := range sheet.Rows {
		m, err := parseMetrics(SheetDaily, i, row)
		errs = append(errs, err)
		var w *summary.Window
		switch row[ColWindow] {
		case summary.WindowRecent:
			w = s.Windows.Recent
		case summary.WindowPrior:
			w = s.Windows.Prior
		}
		if w == nil {
			errs = append(errs, rowError(SheetDaily, i, "window %q is not defined on the %s sheet", row[ColWindow], SheetWindows))
			continue
		}
		w.Daily = append(w.Daily, summary.DailyPoint{Date: row[ColDate], Metrics: m})
	}
	return errs
}

func decodeCampaigns(f *excelize.File, s *summary.PerformanceSummary) []error {
	sheet, err := readSheet(f, SheetCampaigns)
	if err != nil || sheet == nil {
		return []error{err}
	}
	var errs []error
	index := make(map[string]int)
	for i, row := range sheet.Rows {
		m, err := parseMetrics(SheetCampaigns, i, row)
		errs = append(errs, err)

		key := row[ColCampaignID] + "\x00" + row[ColCampaignName]
		pos, ok := index[key]
		if !ok {
			pos = len(s.Campaigns)
			index[key] = pos
			s.Campaigns = append(s.Campaigns, summary.CampaignBreakdown{
				CampaignID:   row[ColCampaignID],
				CampaignName: row[ColCampaignName],
			})
		}
		c := &s.Campaigns[pos]
		switch row[ColWindow] {
		case summary.WindowRecent:
			c.Recent = m
		case summary.WindowPrior:
			c.Prior = &m
		default:
			errs = append(errs, rowError(SheetCampaigns, i, "unknown window %q", row[ColWindow]))
		}
	}
	return errs
}

func decodeCreatives(f *excelize.File, s *summary.PerformanceSummary) []error {
	sheet, err := readSheet(f, SheetCreatives)
	if err != nil || sheet == nil {
		return []error{err}
	}
	var errs []error
	index := make(map[string]int)
	for i, row := range sheet.Rows {
		m, err := parseMetrics(SheetCreatives, i, row)
		errs = append(errs, err)

		key := row[ColCreativeType] + "\x00" + row[ColCreativeMessage]
		pos, ok := index[key]
		if !ok {
			pos = len(s.Creatives)
			index[key] = pos
			s.Creatives = append(s.Creatives, summary.CreativeBreakdown{
				CreativeType:    row[ColCreativeType],
				CreativeMessage: row[ColCreativeMessage],
			})
		}
		c := &s.Creatives[pos]
		switch row[ColWindow] {
		case summary.WindowRecent:
			c.Recent = m
		case summary.WindowPrior:
			c.Prior = &m
		default:
			errs = append(errs, rowError(SheetCreatives, i, "unknown window %q", row[ColWindow]))
		}
	}
	return errs
}

// readSheet returns nil when the sheet does not exist
func readSheet(f *excelize.File, name string) (*SheetData, error) {
	idx, err := f.GetSheetIndex(name)
	if err != nil {
		return nil, fmt.Errorf("failed to look up sheet %s: %w", name, err)
	}
	if idx == -1 {
		return nil, nil
	}
	rows, err := f.GetRows(name, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", name, err)
	}
	return processRows(name, rows), nil
}

// processRows converts raw string rows into SheetData. Blank rows are skipped.
func processRows(name string, rows [][]string) *SheetData {
	data := &SheetData{Name: name}
	if len(rows) == 0 {
		return data
	}

	headerRow := rows[0]
	data.Headers = make([]string, len(headerRow))
	for i, header := range headerRow {
		data.Headers[i] = strings.ToLower(strings.TrimSpace(header))
	}

	for i := 1; i < len(rows); i++ {
		rowData := make(RawRowData)
		for j, cell := range rows[i] {
			if j < len(data.Headers) {
				if v := strings.TrimSpace(cell); v != "" {
					rowData[data.Headers[j]] = v
				}
			}
		}
		if len(rowData) > 0 {
			data.Rows = append(data.Rows, rowData)
		}
	}
	return data
}

func parseMetrics(sheet string, i int, row RawRowData) (summary.Metrics, error) {
	var m summary.Metrics
	var errs []error
	for _, name := range summary.MetricNames {
		raw, ok := row[name]
		if !ok {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			errs = append(errs, rowError(sheet, i, "%s=%q is not a number", name, raw))
			continue
		}
		_ = m.Set(name, v)
	}
	return m, errors.Join(errs...)
}

// rowError reports the spreadsheet row number, counting the header as row 1
func rowError(sheet string, i int, format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s row %d: %s", core.ErrInputContract, sheet, i+2, fmt.Sprintf(format, args...))
}
