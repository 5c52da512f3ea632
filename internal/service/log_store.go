package service

import (
	"errors"
	"fmt"

	"github.com/routinelog/internal/db"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LogStore 封装按天的稀疏完成日志访问。
// 缺失的日志行语义上等于“未完成”，读取默认返回 false，只有写入才落行；
// 所有查询都走 (entity_id, date_str) 组合索引。
type LogStore struct {
	db *gorm.DB
}

// NewLogStore 构造 LogStore
func NewLogStore(gdb *gorm.DB) *LogStore {
	return &LogStore{db: gdb}
}

// RoutineCompleted 返回指定任务在指定日期是否已完成，无记录视为 false
func (s *LogStore) RoutineCompleted(routineID uint, date string) (bool, error) {
	var log db.RoutineLog
	err := s.db.Where("routine_id = ? AND date_str = ?", routineID, date).First(&log).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("get routine log: %w", err)
	}
	return log.Completed, nil
}

// HasRoutineLog 返回指定日期是否存在日志行（无论完成与否）
func (s *LogStore) HasRoutineLog(routineID uint, date string) (bool, error) {
	var count int64
	if err := s.db.Model(&db.RoutineLog{}).
		Where("routine_id = ? AND date_str = ?", routineID, date).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("count routine logs: %w", err)
	}
	return count > 0, nil
}

// SetRoutineCompleted 写入指定日期的完成状态，存在即更新，不存在则创建
func (s *LogStore) SetRoutineCompleted(routineID uint, date string, completed bool) error {
	record := db.RoutineLog{RoutineID: routineID, DateStr: date, Completed: completed}

	if err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "routine_id"}, {Name: "date_str"}},
		DoUpdates: clause.AssignmentColumns([]string{"completed", "updated_at"}),
	}).Create(&record).Error; err != nil {
		return fmt.Errorf("upsert routine log: %w", err)
	}
	return nil
}

// SubtaskCompleted 返回子任务在指定日期是否已完成，无记录视为 false
func (s *LogStore) SubtaskCompleted(subtaskID uint, date string) (bool, error) {
	var log db.SubtaskLog
	err := s.db.Where("subtask_id = ? AND date_str = ?", subtaskID, date).First(&log).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("get subtask log: %w", err)
	}
	return log.Completed, nil
}

// RoutineLogsBetween 返回若干任务在日期区间内的全部日志行
func (s *LogStore) RoutineLogsBetween(routineIDs []uint, start, end string) ([]db.RoutineLog, error) {
	var logs []db.RoutineLog
	if len(routineIDs) == 0 {
		return logs, nil
	}

	if err := s.db.Where("routine_id IN ?", routineIDs).
		Where("date_str BETWEEN ? AND ?", start, end).
		Find(&logs).Error; err != nil {
		return nil, fmt.Errorf("list routine logs: %w", err)
	}
	return logs, nil
}

// SubtaskLogsBetween 返回若干子任务在日期区间内的全部日志行
func (s *LogStore) SubtaskLogsBetween(subtaskIDs []uint, start, end string) ([]db.SubtaskLog, error) {
	var logs []db.SubtaskLog
	if len(subtaskIDs) == 0 {
		return logs, nil
	}

	if err := s.db.Where("subtask_id IN ?", subtaskIDs).
		Where("date_str BETWEEN ? AND ?", start, end).
		Find(&logs).Error; err != nil {
		return nil, fmt.Errorf("list subtask logs: %w", err)
	}
	return logs, nil
}

// CompletedDatesByYear 返回任务在指定年份的全部完成日期，按日期升序
func (s *LogStore) CompletedDatesByYear(routineID uint, year int) ([]string, error) {
	dates := make([]string, 0)
	if err := s.db.Model(&db.RoutineLog{}).
		Where("routine_id = ? AND completed = ?", routineID, true).
		Where("date_str LIKE ?", fmt.Sprintf("%d-%%", year)).
		Order("date_str ASC").
		Pluck("date_str", &dates).Error; err != nil {
		return nil, fmt.Errorf("list completed dates: %w", err)
	}
	return dates, nil
}

// CompletedCountBetween 统计全部任务在区间内的完成日志数
func (s *LogStore) CompletedCountBetween(start, end string) (int64, error) {
	var count int64
	if err := s.db.Model(&db.RoutineLog{}).
		Where("completed = ? AND date_str BETWEEN ? AND ?", true, start, end).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count completed logs: %w", err)
	}
	return count, nil
}

// CompletedCountForRoutineBetween 统计单个任务在区间内的完成日志数
func (s *LogStore) CompletedCountForRoutineBetween(routineID uint, start, end string) (int64, error) {
	var count int64
	if err := s.db.Model(&db.RoutineLog{}).
		Where("routine_id = ? AND completed = ?", routineID, true).
		Where("date_str BETWEEN ? AND ?", start, end).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count completed logs: %w", err)
	}
	return count, nil
}

// CompletedCountForRoutine 统计单个任务历史上全部完成日志数
func (s *LogStore) CompletedCountForRoutine(routineID uint) (int64, error) {
	var count int64
	if err := s.db.Model(&db.RoutineLog{}).
		Where("routine_id = ? AND completed = ?", routineID, true).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count completed logs: %w", err)
	}
	return count, nil
}

// CompletedDatesBetween 返回区间内全部任务的完成日期（可重复，用于分布统计）
func (s *LogStore) CompletedDatesBetween(start, end string) ([]string, error) {
	dates := make([]string, 0)
	if err := s.db.Model(&db.RoutineLog{}).
		Where("completed = ? AND date_str BETWEEN ? AND ?", true, start, end).
		Pluck("date_str", &dates).Error; err != nil {
		return nil, fmt.Errorf("list completed dates: %w", err)
	}
	return dates, nil
}

// MonthlyCompletedCounts 按 YYYY-MM 聚合区间内的完成日志数
func (s *LogStore) MonthlyCompletedCounts(start, end string) (map[string]int, error) {
	var rows []struct {
		Month string
		Count int
	}

	if err := s.db.Model(&db.RoutineLog{}).
		Select("substr(date_str, 1, 7) AS month, COUNT(*) AS count").
		Where("completed = ? AND date_str BETWEEN ? AND ?", true, start, end).
		Group("month").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("aggregate monthly counts: %w", err)
	}

	counts := make(map[string]int, len(rows))
	for _, row := range rows {
		counts[row.Month] = row.Count
	}
	return counts, nil
}

// HistoryEntry 描述全局历史视图中的一条日志
type HistoryEntry struct {
	Date      string
	RoutineID uint
	Title     string
	Completed bool
}

// AllHistory 返回全部日志并关联任务标题，按日期倒序
func (s *LogStore) AllHistory() ([]HistoryEntry, error) {
	entries := make([]HistoryEntry, 0)
	if err := s.db.Table("routine_logs rl").
		Select("rl.date_str AS date, rl.routine_id AS routine_id, r.title AS title, rl.completed AS completed").
		Joins("JOIN routines r ON r.id = rl.routine_id").
		Where("rl.deleted_at IS NULL AND r.deleted_at IS NULL").
		Order("rl.date_str DESC").
		Scan(&entries).Error; err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	return entries, nil
}
