package service

import "time"

const dateFormat = "2006-01-02"

func normalizeToDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func formatDate(t time.Time) string {
	return t.Format(dateFormat)
}

// weekStart 返回所在周的周一（周视图统一按周一开始）
func weekStart(t time.Time) time.Time {
	day := normalizeToDate(t)
	weekday := int(day.Weekday())
	if weekday == 0 {
		weekday = 7
	}
	return day.AddDate(0, 0, -weekday+1)
}

// weekDates 生成指定偏移周的周一到周日共 7 个日期字符串
// offset 为相对当前周的周数（0=本周，-1=上周，1=下周）
func weekDates(now time.Time, offset int) []string {
	start := weekStart(now).AddDate(0, 0, 7*offset)

	dates := make([]string, 0, 7)
	for i := 0; i < 7; i++ {
		dates = append(dates, formatDate(start.AddDate(0, 0, i)))
	}
	return dates
}
