package main

import (
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/routinelog/internal/config"
	"github.com/routinelog/internal/db"
	"github.com/routinelog/internal/service"
)

// 演示数据生成器：创建几个例行任务并补齐过去 90 天的稀疏打卡记录
func main() {
	cfg := config.Load()
	if err := db.Init(cfg.DatabasePath); err != nil {
		log.Fatal("数据库初始化失败:", err)
	}

	fmt.Println("开始生成演示数据...")

	routineSvc := service.NewRoutineService(db.DB)
	subtaskSvc := service.NewSubtaskService(db.DB)

	seeds := []struct {
		input       service.RoutineInput
		subtasks    []string
		probability float64
	}{
		{
			input:       service.RoutineInput{Title: "晨跑", Note: "每天 **5 公里**，雨天改室内"},
			probability: 0.8,
		},
		{
			input:       service.RoutineInput{Title: "阅读", TargetDays: "1,2,3,4,5"},
			probability: 0.6,
		},
		{
			input:    service.RoutineInput{Title: "晚间复盘"},
			subtasks: []string{"记录今日完成事项", "规划明日三件事"},
		},
	}

	today := time.Now()
	for _, seed := range seeds {
		routine, err := routineSvc.Create(seed.input)
		if err != nil {
			log.Fatal("创建任务失败:", err)
		}
		fmt.Printf("创建任务: %s (id=%d)\n", routine.Title, routine.ID)

		subtaskIDs := make([]uint, 0, len(seed.subtasks))
		for _, title := range seed.subtasks {
			subtask, err := subtaskSvc.Add(routine.ID, title)
			if err != nil {
				log.Fatal("创建子任务失败:", err)
			}
			subtaskIDs = append(subtaskIDs, subtask.ID)
		}

		for i := 90; i >= 1; i-- {
			date := today.AddDate(0, 0, -i).Format("2006-01-02")

			if len(subtaskIDs) > 0 {
				// 子任务逐个打卡，父任务状态由聚合逻辑推导
				for _, subtaskID := range subtaskIDs {
					if rand.Float64() < 0.7 {
						if _, err := subtaskSvc.Toggle(subtaskID, date); err != nil {
							log.Fatal("子任务打卡失败:", err)
						}
					}
				}
				continue
			}

			if rand.Float64() < seed.probability {
				if _, err := routineSvc.Toggle(routine.ID, date); err != nil {
					log.Fatal("打卡失败:", err)
				}
			}
		}
	}

	fmt.Println("演示数据生成完成")
}
