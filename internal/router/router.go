package router

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/routinelog/internal/db"
	"github.com/routinelog/internal/handler"
)

// SetupRouter 配置 Gin 引擎和路由
func SetupRouter() *gin.Engine {
	r := gin.Default()
	r.Use(requestID())

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "pong",
		})
	})

	a := handler.NewAPI(db.DB)

	api := r.Group("/api")
	{
		api.GET("/routines", a.ListRoutines)
		api.POST("/routines", a.CreateRoutine)
		api.PUT("/routines/:id", a.UpdateRoutine)
		api.DELETE("/routines/:id", a.DeleteRoutine)
		api.POST("/routines/:id/toggle", a.ToggleRoutine)
		api.GET("/routines/:id/history", a.GetRoutineHistory)
		api.POST("/routines/:id/subtasks", a.CreateSubtask)

		api.DELETE("/subtasks/:id", a.DeleteSubtask)
		api.POST("/subtasks/:id/toggle", a.ToggleSubtask)

		api.GET("/history/all", a.GetAllHistory)

		api.GET("/analytics/overall", a.GetOverallAnalytics)
		api.GET("/analytics/routine/:id", a.GetRoutineAnalytics)
	}

	return r
}

// requestID 为每个请求补齐 X-Request-ID，方便日志关联
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		c.Writer.Header().Set("X-Request-ID", id)
		c.Next()
	}
}
