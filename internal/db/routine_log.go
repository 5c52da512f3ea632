package db

import (
	"gorm.io/gorm"
)

// RoutineLog 记录例行任务的单日完成状态
// RoutineID + DateStr 采用唯一索引：同一任务同一天最多一条记录，
// 重复切换只翻转布尔值不会新增行
// 日期统一使用 YYYY-MM-DD 字符串，字典序即时间序，方便范围与年份前缀查询
type RoutineLog struct {
	gorm.Model
	RoutineID uint   `gorm:"index;index:idx_routine_log_unique,unique"`
	DateStr   string `gorm:"size:10;index:idx_routine_log_unique,unique"`
	Completed bool
}

// TableName 重写确保唯一索引作用到 routine_id + date_str
func (RoutineLog) TableName() string {
	return "routine_logs"
}

// SubtaskLog 记录子任务的单日完成状态，约束与 RoutineLog 相同
type SubtaskLog struct {
	gorm.Model
	SubtaskID uint   `gorm:"index;index:idx_subtask_log_unique,unique"`
	DateStr   string `gorm:"size:10;index:idx_subtask_log_unique,unique"`
	Completed bool
}

// TableName 重写确保唯一索引作用到 subtask_id + date_str
func (SubtaskLog) TableName() string {
	return "subtask_logs"
}
