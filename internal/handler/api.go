package handler

import (
	"github.com/routinelog/internal/service"
	"gorm.io/gorm"
)

// API bundles shared dependencies for HTTP handlers.
type API struct {
	db        *gorm.DB
	routines  *service.RoutineService
	subtasks  *service.SubtaskService
	analytics *service.AnalyticsService
}

// NewAPI constructs a handler set with shared services.
func NewAPI(db *gorm.DB) *API {
	return &API{
		db:        db,
		routines:  service.NewRoutineService(db),
		subtasks:  service.NewSubtaskService(db),
		analytics: service.NewAnalyticsService(db),
	}
}

// DB exposes the underlying gorm instance.
func (a *API) DB() *gorm.DB {
	return a.db
}
