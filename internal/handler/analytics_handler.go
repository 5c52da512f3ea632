package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/routinelog/internal/service"
)

// GetOverallAnalytics 返回全局统计数据
func (a *API) GetOverallAnalytics(c *gin.Context) {
	stats, err := a.analytics.Overall()
	if err != nil {
		respondError(c, http.StatusInternalServerError, "统计计算失败")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"routine_count":       stats.RoutineCount,
		"completion_rate":     stats.CompletionRate,
		"active_streak_count": stats.ActiveStreakCount,
		"monthly_counts":      monthCountsToPayload(stats.MonthlyCounts),
		"weekly_counts":       weekCountsToPayload(stats.WeeklyCounts),
		"day_of_week":         stats.DayOfWeek,
		"advice":              stats.Advice,
	})
}

// GetRoutineAnalytics 返回单个任务的统计数据
func (a *API) GetRoutineAnalytics(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的任务ID")
		return
	}

	stats, err := a.analytics.StatsForRoutine(id)
	if err != nil {
		handleRoutineError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"routine_id":      stats.RoutineID,
		"title":           stats.Title,
		"current_streak":  stats.CurrentStreak,
		"completion_rate": stats.CompletionRate,
		"weekly_trend":    weekCountsToPayload(stats.WeeklyTrend),
	})
}

func monthCountsToPayload(counts []service.MonthCount) []gin.H {
	items := make([]gin.H, 0, len(counts))
	for _, count := range counts {
		items = append(items, gin.H{"month": count.Month, "count": count.Count})
	}
	return items
}

func weekCountsToPayload(counts []service.WeekCount) []gin.H {
	items := make([]gin.H, 0, len(counts))
	for _, count := range counts {
		items = append(items, gin.H{
			"label":      count.Label,
			"start_date": count.StartDate,
			"count":      count.Count,
		})
	}
	return items
}
