package service

import (
	"testing"

	"github.com/routinelog/internal/db"
)

func TestLogStoreDefaultsToFalse(t *testing.T) {
	cleanup := setupServiceTestDB(t)
	defer cleanup()

	store := NewLogStore(db.DB)
	routine := seedRoutine(t, "晨跑")

	done, err := store.RoutineCompleted(routine.ID, "2025-05-01")
	if err != nil {
		t.Fatalf("RoutineCompleted returned error: %v", err)
	}
	if done {
		t.Fatal("expected missing log to read false")
	}

	has, err := store.HasRoutineLog(routine.ID, "2025-05-01")
	if err != nil {
		t.Fatalf("HasRoutineLog returned error: %v", err)
	}
	if has {
		t.Fatal("expected no log row before first write")
	}
}

func TestLogStoreUpsertKeepsSingleRow(t *testing.T) {
	cleanup := setupServiceTestDB(t)
	defer cleanup()

	store := NewLogStore(db.DB)
	routine := seedRoutine(t, "阅读")
	date := "2025-05-02"

	if err := store.SetRoutineCompleted(routine.ID, date, true); err != nil {
		t.Fatalf("SetRoutineCompleted returned error: %v", err)
	}
	if err := store.SetRoutineCompleted(routine.ID, date, false); err != nil {
		t.Fatalf("SetRoutineCompleted returned error: %v", err)
	}

	var count int64
	if err := db.DB.Model(&db.RoutineLog{}).
		Where("routine_id = ? AND date_str = ?", routine.ID, date).
		Count(&count).Error; err != nil {
		t.Fatalf("failed to count logs: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 row after repeated writes, got %d", count)
	}

	done, err := store.RoutineCompleted(routine.ID, date)
	if err != nil {
		t.Fatalf("RoutineCompleted returned error: %v", err)
	}
	if done {
		t.Fatal("expected latest write to win")
	}
}

func TestLogStoreCompletedDatesByYear(t *testing.T) {
	cleanup := setupServiceTestDB(t)
	defer cleanup()

	store := NewLogStore(db.DB)
	routine := seedRoutine(t, "弹琴")

	seedCompleted(t, store, routine.ID, "2024-12-31", "2025-02-01", "2025-09-09")
	if err := store.SetRoutineCompleted(routine.ID, "2025-03-03", false); err != nil {
		t.Fatalf("SetRoutineCompleted returned error: %v", err)
	}

	dates, err := store.CompletedDatesByYear(routine.ID, 2025)
	if err != nil {
		t.Fatalf("CompletedDatesByYear returned error: %v", err)
	}

	if len(dates) != 2 || dates[0] != "2025-02-01" || dates[1] != "2025-09-09" {
		t.Fatalf("unexpected dates: %v", dates)
	}
}
