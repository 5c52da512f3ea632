package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/routinelog/internal/db"
	"gorm.io/gorm"
)

var (
	// ErrRoutineNotFound 在指定例行任务不存在时返回
	ErrRoutineNotFound = errors.New("routine not found")
	// ErrRoutineTitleRequired 在任务标题缺失时返回
	ErrRoutineTitleRequired = errors.New("routine title is required")
)

// RoutineService 负责例行任务的增删改查、直接打卡与周视图查询
type RoutineService struct {
	db    *gorm.DB
	store *LogStore
	now   func() time.Time
}

// RoutineInput 定义创建/更新任务时可配置字段
type RoutineInput struct {
	Title      string
	TargetDays string
	Note       string
}

// DayLog 表示周视图中的单日完成状态
type DayLog struct {
	Date      string
	Completed bool
}

// SubtaskWeek 表示子任务及其一周的完成状态
type SubtaskWeek struct {
	Subtask  db.Subtask
	WeekLogs []DayLog
}

// RoutineWeek 表示任务及其一周的完成状态、当前连胜与子任务明细
type RoutineWeek struct {
	Routine       db.Routine
	CurrentStreak int
	WeekLogs      []DayLog
	Subtasks      []SubtaskWeek
}

// WeekView 汇总一周的日期与全部任务的周数据
type WeekView struct {
	Dates    []string
	Routines []RoutineWeek
}

// HistoryView 汇总单个任务某一年的完成日期
type HistoryView struct {
	RoutineTitle   string
	Year           int
	CompletedDates []string
}

// NewRoutineService 构造 RoutineService
func NewRoutineService(gdb *gorm.DB) *RoutineService {
	return &RoutineService{db: gdb, store: NewLogStore(gdb), now: time.Now}
}

// WithClock 允许在测试中固定“今天”
func (s *RoutineService) WithClock(now func() time.Time) *RoutineService {
	if now != nil {
		s.now = now
	}
	return s
}

// Create 新建例行任务，target_days 缺省为每天
func (s *RoutineService) Create(input RoutineInput) (*db.Routine, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, ErrRoutineTitleRequired
	}

	targetDays := strings.TrimSpace(input.TargetDays)
	if targetDays == "" {
		targetDays = db.DefaultTargetDays
	}

	routine := db.Routine{
		Title:      title,
		TargetDays: targetDays,
		Note:       strings.TrimSpace(input.Note),
	}

	if err := s.db.Create(&routine).Error; err != nil {
		return nil, fmt.Errorf("create routine: %w", err)
	}
	return &routine, nil
}

// Get 根据 ID 获取任务
func (s *RoutineService) Get(id uint) (*db.Routine, error) {
	var routine db.Routine
	if err := s.db.First(&routine, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRoutineNotFound
		}
		return nil, fmt.Errorf("get routine: %w", err)
	}
	return &routine, nil
}

// Update 更新任务标题与备注
func (s *RoutineService) Update(id uint, input RoutineInput) (*db.Routine, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, ErrRoutineTitleRequired
	}

	routine, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	routine.Title = title
	routine.Note = strings.TrimSpace(input.Note)
	if days := strings.TrimSpace(input.TargetDays); days != "" {
		routine.TargetDays = days
	}

	if err := s.db.Save(routine).Error; err != nil {
		return nil, fmt.Errorf("update routine: %w", err)
	}
	return routine, nil
}

// Delete 删除任务并级联清理子任务与全部日志
func (s *RoutineService) Delete(id uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var routine db.Routine
		if err := tx.First(&routine, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrRoutineNotFound
			}
			return fmt.Errorf("find routine: %w", err)
		}

		var subtaskIDs []uint
		if err := tx.Model(&db.Subtask{}).
			Where("routine_id = ?", id).
			Pluck("id", &subtaskIDs).Error; err != nil {
			return fmt.Errorf("list subtasks: %w", err)
		}

		if len(subtaskIDs) > 0 {
			if err := tx.Where("subtask_id IN ?", subtaskIDs).Delete(&db.SubtaskLog{}).Error; err != nil {
				return fmt.Errorf("delete subtask logs: %w", err)
			}
			if err := tx.Where("routine_id = ?", id).Delete(&db.Subtask{}).Error; err != nil {
				return fmt.Errorf("delete subtasks: %w", err)
			}
		}

		if err := tx.Where("routine_id = ?", id).Delete(&db.RoutineLog{}).Error; err != nil {
			return fmt.Errorf("delete routine logs: %w", err)
		}

		if err := tx.Delete(&routine).Error; err != nil {
			return fmt.Errorf("delete routine: %w", err)
		}
		return nil
	})
}

// Toggle 切换任务在指定日期的完成状态：有记录则翻转，没有则创建为已完成。
// 对带子任务的任务同样生效，此时写入的值可能与子任务推导值不一致，
// 直到下一次子任务打卡触发重算为止。
func (s *RoutineService) Toggle(id uint, date string) (bool, error) {
	if _, err := s.Get(id); err != nil {
		return false, err
	}

	var completed bool
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var log db.RoutineLog
		err := tx.Where("routine_id = ? AND date_str = ?", id, date).First(&log).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			log = db.RoutineLog{RoutineID: id, DateStr: date, Completed: true}
			if err := tx.Create(&log).Error; err != nil {
				return fmt.Errorf("create routine log: %w", err)
			}
		case err != nil:
			return fmt.Errorf("find routine log: %w", err)
		default:
			log.Completed = !log.Completed
			if err := tx.Save(&log).Error; err != nil {
				return fmt.Errorf("update routine log: %w", err)
			}
		}

		completed = log.Completed
		return nil
	})
	if err != nil {
		return false, err
	}
	return completed, nil
}

// WeekView 返回指定偏移周的任务列表：一周七天的完成状态、
// 子任务明细及当前连胜，任务按创建时间倒序排列
func (s *RoutineService) WeekView(offset int) (*WeekView, error) {
	now := s.now()
	dates := weekDates(now, offset)
	start, end := dates[0], dates[len(dates)-1]

	var routines []db.Routine
	if err := s.db.Preload("Subtasks", func(tx *gorm.DB) *gorm.DB {
		return tx.Order("sort_order ASC, id ASC")
	}).Order("created_at DESC").Find(&routines).Error; err != nil {
		return nil, fmt.Errorf("list routines: %w", err)
	}

	routineIDs := make([]uint, 0, len(routines))
	subtaskIDs := make([]uint, 0)
	for _, routine := range routines {
		routineIDs = append(routineIDs, routine.ID)
		for _, subtask := range routine.Subtasks {
			subtaskIDs = append(subtaskIDs, subtask.ID)
		}
	}

	routineLogs, err := s.store.RoutineLogsBetween(routineIDs, start, end)
	if err != nil {
		return nil, err
	}
	subtaskLogs, err := s.store.SubtaskLogsBetween(subtaskIDs, start, end)
	if err != nil {
		return nil, err
	}

	routineDone := make(map[uint]map[string]bool, len(routineLogs))
	for _, log := range routineLogs {
		if routineDone[log.RoutineID] == nil {
			routineDone[log.RoutineID] = make(map[string]bool)
		}
		routineDone[log.RoutineID][log.DateStr] = log.Completed
	}

	subtaskDone := make(map[uint]map[string]bool, len(subtaskLogs))
	for _, log := range subtaskLogs {
		if subtaskDone[log.SubtaskID] == nil {
			subtaskDone[log.SubtaskID] = make(map[string]bool)
		}
		subtaskDone[log.SubtaskID][log.DateStr] = log.Completed
	}

	view := &WeekView{Dates: dates, Routines: make([]RoutineWeek, 0, len(routines))}
	for _, routine := range routines {
		streak, err := calculateCurrentStreak(s.store, routine.ID, now)
		if err != nil {
			return nil, err
		}

		week := RoutineWeek{
			Routine:       routine,
			CurrentStreak: streak,
			WeekLogs:      buildWeekLogs(dates, routineDone[routine.ID]),
			Subtasks:      make([]SubtaskWeek, 0, len(routine.Subtasks)),
		}

		for _, subtask := range routine.Subtasks {
			week.Subtasks = append(week.Subtasks, SubtaskWeek{
				Subtask:  subtask,
				WeekLogs: buildWeekLogs(dates, subtaskDone[subtask.ID]),
			})
		}

		view.Routines = append(view.Routines, week)
	}

	return view, nil
}

// History 返回任务在指定年份的完成日期列表
func (s *RoutineService) History(id uint, year int) (*HistoryView, error) {
	routine, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	dates, err := s.store.CompletedDatesByYear(id, year)
	if err != nil {
		return nil, err
	}

	return &HistoryView{
		RoutineTitle:   routine.Title,
		Year:           year,
		CompletedDates: dates,
	}, nil
}

// AllHistory 返回全部日志及任务标题，按日期倒序
func (s *RoutineService) AllHistory() ([]HistoryEntry, error) {
	return s.store.AllHistory()
}

func buildWeekLogs(dates []string, done map[string]bool) []DayLog {
	logs := make([]DayLog, 0, len(dates))
	for _, date := range dates {
		logs = append(logs, DayLog{Date: date, Completed: done[date]})
	}
	return logs
}
