package db

import (
	"gorm.io/gorm"
)

// DefaultTargetDays 表示每天都需要执行的默认配置（0=周日..6=周六）
const DefaultTargetDays = "0,1,2,3,4,5,6"

// Routine 定义了例行任务模型
// TargetDays 以逗号分隔的星期索引描述目标执行日，仅作展示用途，
// 连胜与统计逻辑目前不参考它
// Note 为可选的 Markdown 备注，渲染后随列表接口返回
type Routine struct {
	gorm.Model
	Title      string
	TargetDays string `gorm:"default:'0,1,2,3,4,5,6'"`
	Note       string
	Subtasks   []Subtask    `gorm:"constraint:OnDelete:CASCADE"`
	Logs       []RoutineLog `gorm:"constraint:OnDelete:CASCADE"`
}

// Subtask 定义了例行任务的子任务
// SortOrder 控制展示顺序，新增时取当前最大值加一
type Subtask struct {
	gorm.Model
	RoutineID uint `gorm:"index"`
	Title     string
	SortOrder int
	Logs      []SubtaskLog `gorm:"constraint:OnDelete:CASCADE"`
}
