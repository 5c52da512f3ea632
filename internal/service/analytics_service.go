package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/routinelog/internal/db"
	"gorm.io/gorm"
)

const (
	completionWindowDays = 30
	historyWindowDays    = 180
	monthlyBuckets       = 6
	weeklyBuckets        = 4
)

// AnalyticsService 基于完成日志计算总体与单任务统计。
// 全部计算以注入的时钟为“今天”锚点，纯读取、按需重算，不做缓存。
type AnalyticsService struct {
	db    *gorm.DB
	store *LogStore
	now   func() time.Time
}

// MonthCount 表示单个月份的完成数
type MonthCount struct {
	Month string
	Count int
}

// WeekCount 表示单个周（周一开始）的完成数
type WeekCount struct {
	Label     string
	StartDate string
	Count     int
}

// OverallStats 汇总全局统计数据
type OverallStats struct {
	RoutineCount      int
	CompletionRate    int
	ActiveStreakCount int
	MonthlyCounts     []MonthCount
	WeeklyCounts      []WeekCount
	DayOfWeek         [7]int
	Advice            string
}

// RoutineStats 汇总单个任务的统计数据
type RoutineStats struct {
	RoutineID      uint
	Title          string
	CurrentStreak  int
	CompletionRate int
	WeeklyTrend    []WeekCount
}

// NewAnalyticsService 构造 AnalyticsService
func NewAnalyticsService(gdb *gorm.DB) *AnalyticsService {
	return &AnalyticsService{db: gdb, store: NewLogStore(gdb), now: time.Now}
}

// WithClock 允许在测试中固定“今天”
func (s *AnalyticsService) WithClock(now func() time.Time) *AnalyticsService {
	if now != nil {
		s.now = now
	}
	return s
}

// CurrentStreak 返回任务当前的连续完成天数
func (s *AnalyticsService) CurrentStreak(routineID uint) (int, error) {
	return calculateCurrentStreak(s.store, routineID, s.now())
}

// Overall 计算全局统计：近 30 天完成率、活跃连胜数、
// 近 6 个月的月度直方图、近 4 周的周完成数、星期分布和建议文案
func (s *AnalyticsService) Overall() (*OverallStats, error) {
	today := normalizeToDate(s.now())

	var routines []db.Routine
	if err := s.db.Find(&routines).Error; err != nil {
		return nil, fmt.Errorf("list routines: %w", err)
	}

	stats := &OverallStats{RoutineCount: len(routines)}

	// 近 30 天完成率：完成日志数 /（任务数 × 30），向下取整的百分比。
	// 分母不按创建时间折算，新建任务同样按 30 天计
	rateStart := formatDate(today.AddDate(0, 0, -(completionWindowDays - 1)))
	completed, err := s.store.CompletedCountBetween(rateStart, formatDate(today))
	if err != nil {
		return nil, err
	}
	if len(routines) > 0 {
		stats.CompletionRate = int(completed * 100 / int64(len(routines)*completionWindowDays))
	}

	for _, routine := range routines {
		streak, err := calculateCurrentStreak(s.store, routine.ID, today)
		if err != nil {
			return nil, err
		}
		if streak > 0 {
			stats.ActiveStreakCount++
		}
	}

	// 月度直方图以 180 天窗口近似 6 个自然月，月份键完整枚举、零值保留
	historyStart := today.AddDate(0, 0, -(historyWindowDays - 1))
	monthCounts, err := s.store.MonthlyCompletedCounts(formatDate(historyStart), formatDate(today))
	if err != nil {
		return nil, err
	}

	firstOfMonth := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, today.Location())
	stats.MonthlyCounts = make([]MonthCount, 0, monthlyBuckets)
	for i := monthlyBuckets - 1; i >= 0; i-- {
		key := firstOfMonth.AddDate(0, -i, 0).Format("2006-01")
		stats.MonthlyCounts = append(stats.MonthlyCounts, MonthCount{Month: key, Count: monthCounts[key]})
	}

	weekly, err := s.weeklyCounts(today, 0)
	if err != nil {
		return nil, err
	}
	stats.WeeklyCounts = weekly

	dates, err := s.store.CompletedDatesBetween(formatDate(historyStart), formatDate(today))
	if err != nil {
		return nil, err
	}
	for _, date := range dates {
		t, err := time.ParseInLocation(dateFormat, date, today.Location())
		if err != nil {
			continue
		}
		stats.DayOfWeek[int(t.Weekday())]++
	}

	stats.Advice = adviceFor(stats.CompletionRate, stats.ActiveStreakCount)
	return stats, nil
}

// StatsForRoutine 计算单个任务的连胜、创建以来的完成率和近 4 周趋势
func (s *AnalyticsService) StatsForRoutine(routineID uint) (*RoutineStats, error) {
	var routine db.Routine
	if err := s.db.First(&routine, routineID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRoutineNotFound
		}
		return nil, fmt.Errorf("get routine: %w", err)
	}

	today := normalizeToDate(s.now())

	streak, err := calculateCurrentStreak(s.store, routineID, today)
	if err != nil {
		return nil, err
	}

	completed, err := s.store.CompletedCountForRoutine(routineID)
	if err != nil {
		return nil, err
	}

	// 完成率按创建日到今天的天数（含两端）计算，分母至少为 1
	days := int(today.Sub(normalizeToDate(routine.CreatedAt)).Hours()/24) + 1
	if days < 1 {
		days = 1
	}

	trend, err := s.weeklyCounts(today, routineID)
	if err != nil {
		return nil, err
	}

	return &RoutineStats{
		RoutineID:      routine.ID,
		Title:          routine.Title,
		CurrentStreak:  streak,
		CompletionRate: int(completed * 100 / int64(days)),
		WeeklyTrend:    trend,
	}, nil
}

// weeklyCounts 统计包含本周在内的最近 4 个周一开始的周，最旧在前。
// routineID 为 0 时统计全部任务。
func (s *AnalyticsService) weeklyCounts(today time.Time, routineID uint) ([]WeekCount, error) {
	thisMonday := weekStart(today)

	counts := make([]WeekCount, 0, weeklyBuckets)
	for i := weeklyBuckets - 1; i >= 0; i-- {
		start := thisMonday.AddDate(0, 0, -7*i)
		end := start.AddDate(0, 0, 6)

		var count int64
		var err error
		if routineID == 0 {
			count, err = s.store.CompletedCountBetween(formatDate(start), formatDate(end))
		} else {
			count, err = s.store.CompletedCountForRoutineBetween(routineID, formatDate(start), formatDate(end))
		}
		if err != nil {
			return nil, err
		}

		counts = append(counts, WeekCount{
			Label:     start.Format("1/2"),
			StartDate: formatDate(start),
			Count:     int(count),
		})
	}
	return counts, nil
}

// adviceFor 按优先级挑选唯一一条建议文案
func adviceFor(completionRate, activeStreaks int) string {
	switch {
	case completionRate > 80:
		return "完成率超过 80%，状态非常好，继续保持！"
	case completionRate > 50:
		return "完成率已经过半，再加把劲就能更进一步。"
	case activeStreaks > 0:
		return fmt.Sprintf("目前有 %d 个任务正在连续打卡，别让它中断。", activeStreaks)
	default:
		return "千里之行始于足下，从今天的第一次打卡开始吧。"
	}
}
