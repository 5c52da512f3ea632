package service

import (
	"errors"
	"testing"
	"time"

	"github.com/routinelog/internal/db"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupServiceTestDB(t *testing.T) func() {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	if err := gdb.AutoMigrate(&db.Routine{}, &db.Subtask{}, &db.RoutineLog{}, &db.SubtaskLog{}); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	db.DB = gdb

	return func() {
		sqlDB, err := db.DB.DB()
		if err == nil {
			sqlDB.Close()
		}
	}
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestRoutineServiceCreate(t *testing.T) {
	cleanup := setupServiceTestDB(t)
	defer cleanup()

	svc := NewRoutineService(db.DB)

	routine, err := svc.Create(RoutineInput{Title: "晨跑"})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	if routine.ID == 0 {
		t.Fatal("expected routine to have ID")
	}

	if routine.TargetDays != db.DefaultTargetDays {
		t.Fatalf("expected default target days, got %s", routine.TargetDays)
	}

	if _, err := svc.Create(RoutineInput{Title: "   "}); !errors.Is(err, ErrRoutineTitleRequired) {
		t.Fatalf("expected ErrRoutineTitleRequired, got %v", err)
	}

	custom, err := svc.Create(RoutineInput{Title: "阅读", TargetDays: "1,2,3,4,5"})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if custom.TargetDays != "1,2,3,4,5" {
		t.Fatalf("expected custom target days, got %s", custom.TargetDays)
	}
}

func TestRoutineServiceUpdate(t *testing.T) {
	cleanup := setupServiceTestDB(t)
	defer cleanup()

	svc := NewRoutineService(db.DB)
	routine, err := svc.Create(RoutineInput{Title: "冥想"})
	if err != nil {
		t.Fatalf("failed to create routine: %v", err)
	}

	updated, err := svc.Update(routine.ID, RoutineInput{Title: "晚间冥想", Note: "睡前 **10 分钟**"})
	if err != nil {
		t.Fatalf("Update returned error: %v", err)
	}

	if updated.Title != "晚间冥想" {
		t.Fatalf("expected title to update, got %s", updated.Title)
	}

	if _, err := svc.Update(routine.ID, RoutineInput{Title: ""}); !errors.Is(err, ErrRoutineTitleRequired) {
		t.Fatalf("expected ErrRoutineTitleRequired, got %v", err)
	}

	if _, err := svc.Update(9999, RoutineInput{Title: "不存在"}); !errors.Is(err, ErrRoutineNotFound) {
		t.Fatalf("expected ErrRoutineNotFound, got %v", err)
	}
}

func TestRoutineToggleFlipsWithoutDuplicateRows(t *testing.T) {
	cleanup := setupServiceTestDB(t)
	defer cleanup()

	svc := NewRoutineService(db.DB)
	routine, err := svc.Create(RoutineInput{Title: "写日记"})
	if err != nil {
		t.Fatalf("failed to create routine: %v", err)
	}

	date := "2025-03-10"

	completed, err := svc.Toggle(routine.ID, date)
	if err != nil {
		t.Fatalf("Toggle returned error: %v", err)
	}
	if !completed {
		t.Fatal("expected first toggle to create completed log")
	}

	completed, err = svc.Toggle(routine.ID, date)
	if err != nil {
		t.Fatalf("Toggle returned error: %v", err)
	}
	if completed {
		t.Fatal("expected second toggle to flip back to false")
	}

	// 两次切换只允许存在一行日志
	var count int64
	if err := db.DB.Model(&db.RoutineLog{}).
		Where("routine_id = ? AND date_str = ?", routine.ID, date).
		Count(&count).Error; err != nil {
		t.Fatalf("failed to count logs: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected exactly 1 log row, got %d", count)
	}

	if _, err := svc.Toggle(9999, date); !errors.Is(err, ErrRoutineNotFound) {
		t.Fatalf("expected ErrRoutineNotFound, got %v", err)
	}
}

func TestRoutineServiceDeleteCascades(t *testing.T) {
	cleanup := setupServiceTestDB(t)
	defer cleanup()

	routineSvc := NewRoutineService(db.DB)
	subtaskSvc := NewSubtaskService(db.DB)

	routine, err := routineSvc.Create(RoutineInput{Title: "健身"})
	if err != nil {
		t.Fatalf("failed to create routine: %v", err)
	}

	subtask, err := subtaskSvc.Add(routine.ID, "热身")
	if err != nil {
		t.Fatalf("failed to create subtask: %v", err)
	}

	if _, err := subtaskSvc.Toggle(subtask.ID, "2025-03-10"); err != nil {
		t.Fatalf("failed to toggle subtask: %v", err)
	}
	if _, err := routineSvc.Toggle(routine.ID, "2025-03-11"); err != nil {
		t.Fatalf("failed to toggle routine: %v", err)
	}

	if err := routineSvc.Delete(routine.ID); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}

	if _, err := routineSvc.Get(routine.ID); !errors.Is(err, ErrRoutineNotFound) {
		t.Fatalf("expected ErrRoutineNotFound after delete, got %v", err)
	}

	var subtaskCount, routineLogCount, subtaskLogCount int64
	db.DB.Model(&db.Subtask{}).Where("routine_id = ?", routine.ID).Count(&subtaskCount)
	db.DB.Model(&db.RoutineLog{}).Where("routine_id = ?", routine.ID).Count(&routineLogCount)
	db.DB.Model(&db.SubtaskLog{}).Where("subtask_id = ?", subtask.ID).Count(&subtaskLogCount)

	if subtaskCount != 0 || routineLogCount != 0 || subtaskLogCount != 0 {
		t.Fatalf("expected cascade delete, got subtasks=%d routineLogs=%d subtaskLogs=%d",
			subtaskCount, routineLogCount, subtaskLogCount)
	}

	if _, err := routineSvc.History(routine.ID, 2025); !errors.Is(err, ErrRoutineNotFound) {
		t.Fatalf("expected history lookup to fail after delete, got %v", err)
	}

	if err := routineSvc.Delete(9999); !errors.Is(err, ErrRoutineNotFound) {
		t.Fatalf("expected ErrRoutineNotFound, got %v", err)
	}
}

func TestRoutineServiceWeekView(t *testing.T) {
	cleanup := setupServiceTestDB(t)
	defer cleanup()

	// 2025-08-20 是周三，所在周的周一是 2025-08-18
	today := time.Date(2025, 8, 20, 15, 0, 0, 0, time.Local)
	svc := NewRoutineService(db.DB).WithClock(fixedClock(today))
	subtaskSvc := NewSubtaskService(db.DB)

	routine, err := svc.Create(RoutineInput{Title: "背单词"})
	if err != nil {
		t.Fatalf("failed to create routine: %v", err)
	}
	subtask, err := subtaskSvc.Add(routine.ID, "复习旧词")
	if err != nil {
		t.Fatalf("failed to create subtask: %v", err)
	}

	if _, err := svc.Toggle(routine.ID, "2025-08-19"); err != nil {
		t.Fatalf("failed to toggle routine: %v", err)
	}
	if _, err := subtaskSvc.Toggle(subtask.ID, "2025-08-11"); err != nil {
		t.Fatalf("failed to toggle subtask: %v", err)
	}

	view, err := svc.WeekView(0)
	if err != nil {
		t.Fatalf("WeekView returned error: %v", err)
	}

	if len(view.Dates) != 7 {
		t.Fatalf("expected 7 week dates, got %d", len(view.Dates))
	}
	if view.Dates[0] != "2025-08-18" || view.Dates[6] != "2025-08-24" {
		t.Fatalf("unexpected week span: %s .. %s", view.Dates[0], view.Dates[6])
	}

	if len(view.Routines) != 1 {
		t.Fatalf("expected 1 routine, got %d", len(view.Routines))
	}

	week := view.Routines[0]
	if !week.WeekLogs[1].Completed {
		t.Fatal("expected Tuesday log to be completed")
	}
	if week.WeekLogs[2].Completed {
		t.Fatal("expected Wednesday log to be incomplete")
	}
	if len(week.Subtasks) != 1 {
		t.Fatalf("expected 1 subtask, got %d", len(week.Subtasks))
	}

	// 上一周视图包含子任务 8-11 的打卡
	lastWeek, err := svc.WeekView(-1)
	if err != nil {
		t.Fatalf("WeekView returned error: %v", err)
	}
	if lastWeek.Dates[0] != "2025-08-11" {
		t.Fatalf("unexpected previous week start: %s", lastWeek.Dates[0])
	}
	if !lastWeek.Routines[0].Subtasks[0].WeekLogs[0].Completed {
		t.Fatal("expected subtask log on previous Monday")
	}
}

func TestRoutineServiceHistoryByYear(t *testing.T) {
	cleanup := setupServiceTestDB(t)
	defer cleanup()

	svc := NewRoutineService(db.DB)
	routine, err := svc.Create(RoutineInput{Title: "弹吉他"})
	if err != nil {
		t.Fatalf("failed to create routine: %v", err)
	}

	for _, date := range []string{"2024-12-31", "2025-01-01", "2025-06-15"} {
		if _, err := svc.Toggle(routine.ID, date); err != nil {
			t.Fatalf("failed to toggle routine: %v", err)
		}
	}
	// 切回未完成的日期不应出现在历史里
	if _, err := svc.Toggle(routine.ID, "2025-06-15"); err != nil {
		t.Fatalf("failed to toggle routine: %v", err)
	}

	history, err := svc.History(routine.ID, 2025)
	if err != nil {
		t.Fatalf("History returned error: %v", err)
	}

	if history.RoutineTitle != "弹吉他" || history.Year != 2025 {
		t.Fatalf("unexpected history header: %+v", history)
	}
	if len(history.CompletedDates) != 1 || history.CompletedDates[0] != "2025-01-01" {
		t.Fatalf("unexpected completed dates: %v", history.CompletedDates)
	}

	entries, err := svc.AllHistory()
	if err != nil {
		t.Fatalf("AllHistory returned error: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 history entries, got %d", len(entries))
	}
	if entries[0].Date != "2025-06-15" {
		t.Fatalf("expected newest date first, got %s", entries[0].Date)
	}
	if entries[0].Completed {
		t.Fatal("expected toggled-off date to read incomplete")
	}
}
