package httpapi

import (
	"context"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/fractracker/complaints/internal/config"
	"github.com/fractracker/complaints/internal/http/handlers"
	"github.com/fractracker/complaints/internal/http/middleware"

	_ "github.com/fractracker/complaints/docs"
)

// Deps are the services behind the API. Runs, Health and Shutdown may be nil.
type Deps struct {
	Shutdown context.Context
	Batch    handlers.BatchRunner
	Ledger   handlers.LedgerReader
	Runs     handlers.RunReader
	Health   handlers.Pinger
}

func Router(cfg config.Config, deps Deps, logger zerolog.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "X-Admin-Key", "X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if cfg.CORSAllowed == "*" {
		corsCfg.AllowAllOrigins = true
		corsCfg.AllowCredentials = false
	} else {
		corsCfg.AllowOrigins = []string{cfg.CORSAllowed}
	}
	r.Use(cors.New(corsCfg))

	h := &handlers.Handler{
		Shutdown:  deps.Shutdown,
		Batch:     deps.Batch,
		Ledger:    deps.Ledger,
		Runs:      deps.Runs,
		Health:    deps.Health,
		Validator: validator.New(),
		Logger:    logger,
	}

	r.GET("/healthz", h.Healthz)
	r.POST("/", middleware.AdminKey(cfg.AdminKey), h.Run)

	api := r.Group("/api")
	{
		api.GET("/submissions", h.SubmissionsList)
		api.GET("/runs/latest", h.RunsLatest)
	}

	admin := api.Group("")
	admin.Use(middleware.AdminKey(cfg.AdminKey))
	{
		admin.POST("/submissions/run", h.Run)
	}

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return r
}
