package handler

import (
	"bytes"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/microcosm-cc/bluemonday"
	"github.com/routinelog/internal/db"
	"github.com/routinelog/internal/service"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

var (
	markdownEngine = goldmark.New(
		goldmark.WithExtensions(extension.GFM, extension.Linkify),
		goldmark.WithRendererOptions(html.WithHardWraps(), html.WithXHTML()),
	)
	sanitizer = bluemonday.UGCPolicy()
)

type routinePayload struct {
	Title      string `json:"title"`
	TargetDays string `json:"target_days"`
	Note       string `json:"note"`
}

type togglePayload struct {
	Date string `json:"date"`
}

// ListRoutines 返回指定偏移周的任务列表，含周日志、子任务与当前连胜
func (a *API) ListRoutines(c *gin.Context) {
	offset := 0
	if raw := c.DefaultQuery("offset", "0"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			offset = parsed
		}
	}

	view, err := a.routines.WeekView(offset)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "获取任务列表失败")
		return
	}

	routines := make([]gin.H, 0, len(view.Routines))
	for _, week := range view.Routines {
		routines = append(routines, routineWeekToPayload(week))
	}

	c.JSON(http.StatusOK, gin.H{
		"week_dates": view.Dates,
		"routines":   routines,
	})
}

// CreateRoutine 创建例行任务
func (a *API) CreateRoutine(c *gin.Context) {
	var payload routinePayload
	if !bindJSON(c, &payload, "请求参数不合法") {
		return
	}

	routine, err := a.routines.Create(service.RoutineInput{
		Title:      payload.Title,
		TargetDays: payload.TargetDays,
		Note:       payload.Note,
	})
	if err != nil {
		handleRoutineError(c, err)
		return
	}

	c.JSON(http.StatusCreated, routineToPayload(*routine))
}

// UpdateRoutine 更新任务标题与备注
func (a *API) UpdateRoutine(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的任务ID")
		return
	}

	var payload routinePayload
	if !bindJSON(c, &payload, "请求参数不合法") {
		return
	}

	routine, err := a.routines.Update(id, service.RoutineInput{
		Title:      payload.Title,
		TargetDays: payload.TargetDays,
		Note:       payload.Note,
	})
	if err != nil {
		handleRoutineError(c, err)
		return
	}

	c.JSON(http.StatusOK, routineToPayload(*routine))
}

// DeleteRoutine 删除任务并级联清理子任务与日志
func (a *API) DeleteRoutine(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的任务ID")
		return
	}

	if err := a.routines.Delete(id); err != nil {
		handleRoutineError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

// ToggleRoutine 切换任务单日完成状态
func (a *API) ToggleRoutine(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的任务ID")
		return
	}

	var payload togglePayload
	if !bindJSON(c, &payload, "请求参数不合法") {
		return
	}

	date, ok := parseDateField(payload.Date)
	if !ok {
		respondError(c, http.StatusBadRequest, "请提供合法的打卡日期")
		return
	}

	completed, err := a.routines.Toggle(id, date)
	if err != nil {
		handleRoutineError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"date": date, "completed": completed})
}

// GetRoutineHistory 返回任务在指定年份的完成日期，缺省为当前年
func (a *API) GetRoutineHistory(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的任务ID")
		return
	}

	year := time.Now().Year()
	if raw := c.Query("year"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			year = parsed
		}
	}

	history, err := a.routines.History(id, year)
	if err != nil {
		handleRoutineError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"routine_title":   history.RoutineTitle,
		"year":            history.Year,
		"completed_dates": history.CompletedDates,
	})
}

// GetAllHistory 返回全部日志及任务标题，按日期倒序
func (a *API) GetAllHistory(c *gin.Context) {
	entries, err := a.routines.AllHistory()
	if err != nil {
		respondError(c, http.StatusInternalServerError, "获取历史记录失败")
		return
	}

	items := make([]gin.H, 0, len(entries))
	for _, entry := range entries {
		items = append(items, gin.H{
			"date":       entry.Date,
			"routine_id": entry.RoutineID,
			"title":      entry.Title,
			"completed":  entry.Completed,
		})
	}

	c.JSON(http.StatusOK, items)
}

func routineToPayload(routine db.Routine) gin.H {
	item := gin.H{
		"id":          routine.ID,
		"title":       routine.Title,
		"target_days": routine.TargetDays,
		"note":        routine.Note,
		"created_at":  routine.CreatedAt.Format(time.RFC3339),
	}
	if routine.Note != "" {
		item["note_html"] = renderRoutineNote(routine.Note)
	}
	return item
}

func routineWeekToPayload(week service.RoutineWeek) gin.H {
	item := routineToPayload(week.Routine)
	item["current_streak"] = week.CurrentStreak
	item["week_logs"] = dayLogsToPayload(week.WeekLogs)

	subtasks := make([]gin.H, 0, len(week.Subtasks))
	for _, subtask := range week.Subtasks {
		subtasks = append(subtasks, gin.H{
			"id":         subtask.Subtask.ID,
			"title":      subtask.Subtask.Title,
			"sort_order": subtask.Subtask.SortOrder,
			"week_logs":  dayLogsToPayload(subtask.WeekLogs),
		})
	}
	item["subtasks"] = subtasks

	return item
}

func dayLogsToPayload(logs []service.DayLog) []gin.H {
	items := make([]gin.H, 0, len(logs))
	for _, log := range logs {
		items = append(items, gin.H{"date": log.Date, "completed": log.Completed})
	}
	return items
}

// renderRoutineNote 将 Markdown 备注渲染为净化后的 HTML
func renderRoutineNote(note string) string {
	var buf bytes.Buffer
	if err := markdownEngine.Convert([]byte(note), &buf); err != nil {
		return ""
	}
	return sanitizer.Sanitize(buf.String())
}

func handleRoutineError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrRoutineNotFound):
		respondError(c, http.StatusNotFound, "任务不存在")
	case errors.Is(err, service.ErrRoutineTitleRequired):
		respondError(c, http.StatusBadRequest, "任务标题不能为空")
	case errors.Is(err, service.ErrSubtaskNotFound):
		respondError(c, http.StatusNotFound, "子任务不存在")
	case errors.Is(err, service.ErrSubtaskTitleRequired):
		respondError(c, http.StatusBadRequest, "子任务标题不能为空")
	default:
		respondError(c, http.StatusInternalServerError, "操作失败")
	}
}
