package httpapi

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/admission-desk/backend/internal/config"
	"github.com/admission-desk/backend/internal/db"
	"github.com/admission-desk/backend/internal/http/handlers"
	"github.com/admission-desk/backend/internal/http/middleware"
	"github.com/admission-desk/backend/internal/service"

	_ "github.com/admission-desk/backend/docs"
)

func Router(cfg config.Config, store *db.Store, coord *service.Coordinator, tracker *service.Tracker, logger zerolog.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.MaxMultipartMemory = cfg.MaxUploadSizeMB << 20

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "X-Request-Id", middleware.EmployeeIDHeader, middleware.EmployeeAdminHeader, middleware.EmployeeQueuesHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if cfg.CORSAllowed == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = []string{cfg.CORSAllowed}
	}
	r.Use(cors.New(corsCfg))

	h := &handlers.Handler{
		Store:       store,
		Coordinator: coord,
		Tracker:     tracker,
		Validator:   validator.New(),
		Logger:      logger,
	}

	r.GET("/healthz", h.Healthz)

	api := r.Group("/api")
	api.Use(middleware.Identity())
	{
		api.GET("/queues/:queue", h.QueueList)
		api.GET("/queues/:queue/search", h.QueueSearch)
		api.POST("/queues/:queue/take", h.TakeNext)
		api.POST("/applications/:id/process", h.ProcessApplication)

		api.POST("/workday/start", h.WorkdayEvent(h.Tracker.StartDay))
		api.POST("/workday/pause", h.WorkdayEvent(h.Tracker.Pause))
		api.POST("/workday/resume", h.WorkdayEvent(h.Tracker.Resume))
		api.POST("/workday/finish", h.WorkdayEvent(h.Tracker.FinishDay))
		api.POST("/workday/break/start", h.WorkdayEvent(h.Tracker.StartBreak))
		api.POST("/workday/break/end", h.WorkdayEvent(h.Tracker.EndBreak))
		api.GET("/workday", h.CurrentWorkDay)

		api.GET("/employees/status", h.EmployeeStatus)
		api.GET("/statistics/queues", h.QueueStatistics)
		api.GET("/reports/full", h.FullReport)
	}

	admin := api.Group("")
	admin.Use(middleware.AdminOnly())
	{
		admin.POST("/applications/:id/release", h.ForceRelease)
		admin.PUT("/workdays/:id/worktime", h.SetWorkTime)
		admin.PUT("/workdays/:id/applications-processed", h.SetApplicationsProcessed)
		admin.POST("/import", h.Import)
	}

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return r
}
