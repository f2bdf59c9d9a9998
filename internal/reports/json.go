package reports

import "encoding/json"

// FormatDailyJSON formats a daily report as indented JSON.
func FormatDailyJSON(report *DailyReport) ([]byte, error) {
	return json.MarshalIndent(report, "", "  ")
}

// FormatWeeklyJSON formats a weekly report as indented JSON.
func FormatWeeklyJSON(report *WeeklyReport) ([]byte, error) {
	return json.MarshalIndent(report, "", "  ")
}
