package httpapi

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/CouSixz/Ciborg/internal/config"
	"github.com/CouSixz/Ciborg/internal/db"
	"github.com/CouSixz/Ciborg/internal/http/handlers"
	"github.com/CouSixz/Ciborg/internal/http/middleware"
	"github.com/CouSixz/Ciborg/internal/metrics"
	"github.com/CouSixz/Ciborg/internal/service"

	_ "github.com/CouSixz/Ciborg/docs"
)

func Router(cfg config.Config, store db.Store, processing *service.ProcessingService, logger zerolog.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.MaxMultipartMemory = cfg.MaxUploadSizeMB << 20

	corsCfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "X-Request-Id"},
		ExposeHeaders: []string{"Content-Disposition", "X-Request-Id"},
		MaxAge:        12 * time.Hour,
	}
	origins := cfg.AllowedOrigins()
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = origins
		corsCfg.AllowCredentials = true
	}
	r.Use(cors.New(corsCfg))

	h := &handlers.Handler{
		Store:      store,
		Processing: processing,
		Validator:  validator.New(),
		Logger:     logger,
		DateLayout: cfg.OrderDateLayout,
		TopN:       cfg.SummaryTopN,
	}

	r.GET("/healthz", h.Healthz)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{})))

	api := r.Group("/api")
	api.Use(middleware.Timeout(cfg.RequestTimeout))
	{
		api.POST("/import", h.Import)
		api.GET("/orders", h.OrdersList)
		api.GET("/agents", h.AgentsList)
		api.GET("/summary", h.Summary)
		api.POST("/distribute", h.Distribute)
		api.GET("/runs/latest", h.RunsLatest)
		api.GET("/runs/latest/export", h.ExportLatest)
	}

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return r
}
