package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type subtaskPayload struct {
	Title string `json:"title"`
}

// CreateSubtask 为任务追加子任务
func (a *API) CreateSubtask(c *gin.Context) {
	routineID, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的任务ID")
		return
	}

	var payload subtaskPayload
	if !bindJSON(c, &payload, "请求参数不合法") {
		return
	}

	subtask, err := a.subtasks.Add(routineID, payload.Title)
	if err != nil {
		handleRoutineError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"id":         subtask.ID,
		"routine_id": subtask.RoutineID,
		"title":      subtask.Title,
		"sort_order": subtask.SortOrder,
	})
}

// DeleteSubtask 删除子任务并级联清理其日志
func (a *API) DeleteSubtask(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的子任务ID")
		return
	}

	if err := a.subtasks.Remove(id); err != nil {
		handleRoutineError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

// ToggleSubtask 切换子任务单日状态并返回父任务重算结果
func (a *API) ToggleSubtask(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的子任务ID")
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

	result, err := a.subtasks.Toggle(id, date)
	if err != nil {
		handleRoutineError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"date":                     result.Date,
		"completed":                result.Completed,
		"parent_routine_completed": result.ParentCompleted,
	})
}
