package excel

import "adinsight/domain/summary"

// Sheet names of a summary workbook
const (
	SheetWindows   = "windows"
	SheetDaily     = "daily"
	SheetCampaigns = "campaigns"
	SheetCreatives = "creatives"
)

// Key columns. Every sheet also carries one column per metric, named as in
// summary.MetricNames; an empty cell means the metric was not reported.
const (
	ColSummaryID       = "summary_id"
	ColWindow          = "window"
	ColLabel           = "label"
	ColStart           = "start"
	ColEnd             = "end"
	ColDate            = "date"
	ColCampaignID      = "campaign_id"
	ColCampaignName    = "campaign_name"
	ColCreativeType    = "creative_type"
	ColCreativeMessage = "creative_message"
)

// RawRowData represents a row of raw Excel data as string key-value pairs
type RawRowData map[string]string

// SheetData represents one sheet of the workbook
type SheetData struct {
	Name    string
	Headers []string     // Column headers
	Rows    []RawRowData // Data rows
}

var sheetKeyColumns = map[string][]string{
	SheetWindows:   {ColSummaryID, ColWindow, ColLabel, ColStart, ColEnd},
	SheetDaily:     {ColWindow, ColDate},
	SheetCampaigns: {ColCampaignID, ColCampaignName, ColWindow},
	SheetCreatives: {ColCreativeType, ColCreativeMessage, ColWindow},
}

// sheetOrder is the order sheets are written in
var sheetOrder = []string{SheetWindows, SheetDaily, SheetCampaigns, SheetCreatives}

// headers returns the full header row of a sheet
func headers(sheet string) []string {
	keys := sheetKeyColumns[sheet]
	out := make([]string, 0, len(keys)+len(summary.MetricNames))
	out = append(out, keys...)
	return append(out, summary.MetricNames...)
}
