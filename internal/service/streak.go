package service

import "time"

// calculateCurrentStreak 从今天起向前回溯，统计连续完成天数。
// 今天还没打卡不算断档：此时从昨天开始数；昨天也没有记录则连胜为 0。
// 回溯一旦开始就要求逐日连续，不考虑任务配置的 target_days。
func calculateCurrentStreak(store *LogStore, routineID uint, today time.Time) (int, error) {
	cursor := normalizeToDate(today)

	done, err := store.RoutineCompleted(routineID, formatDate(cursor))
	if err != nil {
		return 0, err
	}

	if !done {
		cursor = cursor.AddDate(0, 0, -1)
		done, err = store.RoutineCompleted(routineID, formatDate(cursor))
		if err != nil {
			return 0, err
		}
		if !done {
			return 0, nil
		}
	}

	streak := 0
	for done {
		streak++
		cursor = cursor.AddDate(0, 0, -1)
		done, err = store.RoutineCompleted(routineID, formatDate(cursor))
		if err != nil {
			return 0, err
		}
	}

	return streak, nil
}
