package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/church-ops-api/api/swagger"
	"github.com/noah-isme/church-ops-api/internal/handler"
	internalmiddleware "github.com/noah-isme/church-ops-api/internal/middleware"
	"github.com/noah-isme/church-ops-api/internal/models"
	"github.com/noah-isme/church-ops-api/internal/repository"
	"github.com/noah-isme/church-ops-api/internal/service"
	"github.com/noah-isme/church-ops-api/pkg/cache"
	"github.com/noah-isme/church-ops-api/pkg/config"
	"github.com/noah-isme/church-ops-api/pkg/database"
	"github.com/noah-isme/church-ops-api/pkg/export"
	"github.com/noah-isme/church-ops-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/church-ops-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/church-ops-api/pkg/middleware/requestid"
)

// @title Church Ops API
// @version 0.1.0
// @description Event templates, agendas, staffing requirements and event instantiation
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect database", "error", err)
	}
	defer db.Close() //nolint:errcheck

	var metricsSvc *service.MetricsService
	if cfg.Metrics.Enabled {
		metricsSvc = service.NewMetricsService()
	}

	var cacheRepo service.CacheRepository
	if cfg.Redis.Enabled {
		client, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, template cache disabled", zap.Error(err))
		} else {
			redisRepo := repository.NewCacheRepository(client, logr)
			defer redisRepo.Close() //nolint:errcheck
			cacheRepo = redisRepo
		}
	}
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Templates.CacheTTL, logr, cfg.Templates.CacheEnabled)
	// Snapshots written by an older build may not decode into the current shape.
	_ = cacheSvc.Invalidate(context.Background(), "template:*")

	templateRepo := repository.NewTemplateRepository(db)
	agendaRepo := repository.NewAgendaItemRepository(db)
	positionRepo := repository.NewPositionRepository(db)
	eventRepo := repository.NewEventRepository(db)
	ministryRepo := repository.NewMinistryRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	rank := models.DefaultRank
	validate := validator.New()
	access := service.NewTemplateAccess(rank, cfg.Templates.WriteRole, cfg.Templates.DeleteRole)
	location := cfg.Church.Location()

	snapshots := service.NewTemplateSnapshotter(templateRepo, agendaRepo, positionRepo, db, cacheSvc, metricsSvc, cfg.Templates.CacheTTL, logr)
	templateSvc := service.NewTemplateService(templateRepo, agendaRepo, positionRepo, snapshots, db, access, validate, logr)
	agendaSvc := service.NewAgendaService(templateRepo, agendaRepo, ministryRepo, snapshots, db, access, validate, logr)
	positionSvc := service.NewPositionService(templateRepo, positionRepo, ministryRepo, snapshots, db, access, validate, logr)
	instantiationSvc := service.NewInstantiationService(snapshots, eventRepo, db, access, metricsSvc, validate, service.InstantiationConfig{
		Location: location,
		MaxDates: cfg.Templates.MaxInstantiationDays,
	}, logr)
	eventSvc := service.NewEventService(eventRepo, access.Policy, export.NewCSVExporter(), export.NewPDFExporter(), location, logr)
	identitySvc := service.NewIdentityService(service.IdentityConfig{
		Secret:    cfg.JWT.Secret,
		Issuer:    cfg.JWT.Issuer,
		Audience:  cfg.JWT.Audience,
		AccessTTL: cfg.JWT.AccessTTL,
	}, rank, logr)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	if metricsSvc != nil {
		r.Use(internalmiddleware.Metrics(metricsSvc, "/metrics", "/health"))
	}

	metricsHandler := handler.NewMetricsHandler(metricsSvc, db)
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	if metricsSvc != nil {
		r.GET("/metrics", metricsHandler.Prometheus)
	}
	if cfg.Swagger.Enabled {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	handler.Routes{
		Verifier:      identitySvc,
		Audit:         auditRepo,
		Logger:        logr,
		Rank:          rank,
		Templates:     handler.NewTemplateHandler(templateSvc, service.NewTemplateDuplicator(templateSvc)),
		Agenda:        handler.NewAgendaHandler(agendaSvc),
		Positions:     handler.NewPositionHandler(positionSvc),
		Instantiation: handler.NewInstantiationHandler(instantiationSvc),
		Events:        handler.NewEventHandler(eventSvc),
	}.Register(r.Group(cfg.APIPrefix))

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": gin.H{"code": "NOT_FOUND", "message": "route not found"}})
	})

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env, "timezone", location.String())
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
