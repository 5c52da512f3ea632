package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/routinelog/internal/db"
	"gorm.io/gorm"
)

var (
	// ErrSubtaskNotFound 在指定子任务不存在时返回
	ErrSubtaskNotFound = errors.New("subtask not found")
	// ErrSubtaskTitleRequired 在子任务标题缺失时返回
	ErrSubtaskTitleRequired = errors.New("subtask title is required")
)

// SubtaskService 负责子任务的结构变更与打卡聚合：
// 子任务打卡后全量重扫兄弟子任务推导父任务当日状态，
// 不维护增量计数器，重复计算结果恒定
type SubtaskService struct {
	db *gorm.DB
}

// SubtaskToggleResult 返回子任务打卡后的自身状态与父任务推导状态
type SubtaskToggleResult struct {
	Date            string
	Completed       bool
	ParentCompleted bool
}

// NewSubtaskService 构造 SubtaskService
func NewSubtaskService(gdb *gorm.DB) *SubtaskService {
	return &SubtaskService{db: gdb}
}

// Add 为任务追加子任务，显示顺序取当前最大值加一。
// 追加不会回算历史的父任务日志，只影响之后的打卡重算。
func (s *SubtaskService) Add(routineID uint, title string) (*db.Subtask, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, ErrSubtaskTitleRequired
	}

	var routine db.Routine
	if err := s.db.First(&routine, routineID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRoutineNotFound
		}
		return nil, fmt.Errorf("find routine: %w", err)
	}

	var maxOrder int
	if err := s.db.Model(&db.Subtask{}).
		Where("routine_id = ?", routineID).
		Select("COALESCE(MAX(sort_order), 0)").
		Scan(&maxOrder).Error; err != nil {
		return nil, fmt.Errorf("resolve sort order: %w", err)
	}

	subtask := db.Subtask{
		RoutineID: routineID,
		Title:     title,
		SortOrder: maxOrder + 1,
	}

	if err := s.db.Create(&subtask).Error; err != nil {
		return nil, fmt.Errorf("create subtask: %w", err)
	}
	return &subtask, nil
}

// Remove 删除子任务并级联清理其日志。
// 与 Add 一样不回算历史的父任务日志。
func (s *SubtaskService) Remove(id uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var subtask db.Subtask
		if err := tx.First(&subtask, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrSubtaskNotFound
			}
			return fmt.Errorf("find subtask: %w", err)
		}

		if err := tx.Where("subtask_id = ?", id).Delete(&db.SubtaskLog{}).Error; err != nil {
			return fmt.Errorf("delete subtask logs: %w", err)
		}

		if err := tx.Delete(&subtask).Error; err != nil {
			return fmt.Errorf("delete subtask: %w", err)
		}
		return nil
	})
}

// Toggle 切换子任务在指定日期的完成状态并重算父任务当日状态。
// 父任务“完成”当且仅当全部兄弟子任务当日都有已完成日志，
// 从未打卡的兄弟视为未完成。重算值写回父任务日志时遵循稀疏策略：
// 已有记录就地更新；没有记录且结果为 true 才新建，结果为 false 不落行。
func (s *SubtaskService) Toggle(id uint, date string) (*SubtaskToggleResult, error) {
	result := &SubtaskToggleResult{Date: date}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var subtask db.Subtask
		if err := tx.First(&subtask, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrSubtaskNotFound
			}
			return fmt.Errorf("find subtask: %w", err)
		}

		var log db.SubtaskLog
		err := tx.Where("subtask_id = ? AND date_str = ?", id, date).First(&log).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			log = db.SubtaskLog{SubtaskID: id, DateStr: date, Completed: true}
			if err := tx.Create(&log).Error; err != nil {
				return fmt.Errorf("create subtask log: %w", err)
			}
		case err != nil:
			return fmt.Errorf("find subtask log: %w", err)
		default:
			log.Completed = !log.Completed
			if err := tx.Save(&log).Error; err != nil {
				return fmt.Errorf("update subtask log: %w", err)
			}
		}
		result.Completed = log.Completed

		parentCompleted, err := recomputeParent(tx, subtask.RoutineID, date)
		if err != nil {
			return err
		}
		result.ParentCompleted = parentCompleted
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func recomputeParent(tx *gorm.DB, routineID uint, date string) (bool, error) {
	var siblings []db.Subtask
	if err := tx.Where("routine_id = ?", routineID).Find(&siblings).Error; err != nil {
		return false, fmt.Errorf("list sibling subtasks: %w", err)
	}

	siblingIDs := make([]uint, 0, len(siblings))
	for _, sibling := range siblings {
		siblingIDs = append(siblingIDs, sibling.ID)
	}

	done := make(map[uint]bool, len(siblingIDs))
	if len(siblingIDs) > 0 {
		var logs []db.SubtaskLog
		if err := tx.Where("subtask_id IN ? AND date_str = ?", siblingIDs, date).
			Find(&logs).Error; err != nil {
			return false, fmt.Errorf("list sibling logs: %w", err)
		}
		for _, log := range logs {
			done[log.SubtaskID] = log.Completed
		}
	}

	completed := len(siblings) > 0
	for _, sibling := range siblings {
		if !done[sibling.ID] {
			completed = false
			break
		}
	}

	var parentLog db.RoutineLog
	err := tx.Where("routine_id = ? AND date_str = ?", routineID, date).First(&parentLog).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		if !completed {
			return completed, nil
		}
		parentLog = db.RoutineLog{RoutineID: routineID, DateStr: date, Completed: true}
		if err := tx.Create(&parentLog).Error; err != nil {
			return false, fmt.Errorf("create routine log: %w", err)
		}
	case err != nil:
		return false, fmt.Errorf("find routine log: %w", err)
	default:
		parentLog.Completed = completed
		if err := tx.Save(&parentLog).Error; err != nil {
			return false, fmt.Errorf("update routine log: %w", err)
		}
	}

	return completed, nil
}
