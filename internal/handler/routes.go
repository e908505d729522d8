package handler

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/church-ops-api/internal/middleware"
	"github.com/noah-isme/church-ops-api/internal/models"
)

// Routes bundles everything needed to mount the API.
type Routes struct {
	Verifier      middleware.TokenVerifier
	Audit         middleware.AuditWriter
	Logger        *zap.Logger
	Rank          models.RankFunc
	Templates     *TemplateHandler
	Agenda        *AgendaHandler
	Positions     *PositionHandler
	Instantiation *InstantiationHandler
	Events        *EventHandler
}

// Register mounts the authenticated API under group.
func (r Routes) Register(group *gin.RouterGroup) {
	api := group.Group("")
	api.Use(middleware.JWT(r.Verifier), middleware.RequireRole(r.Rank, models.RoleMember), middleware.WithResponseMeta())

	audit := func(action, idParam string) gin.HandlerFunc {
		return middleware.Audit(r.Audit, r.Logger, action, models.AuditResourceTemplate, idParam)
	}

	templates := api.Group("/event-templates")
	templates.GET("", r.Templates.List)
	templates.POST("", audit(models.AuditActionTemplateCreate, ""), r.Templates.Create)
	templates.GET("/:id", r.Templates.Get)
	templates.PUT("/:id", audit(models.AuditActionTemplateUpdate, "id"), r.Templates.Update)
	templates.DELETE("/:id", audit(models.AuditActionTemplateDelete, "id"), r.Templates.Delete)
	templates.POST("/:id/duplicate", audit(models.AuditActionTemplateDuplicate, "id"), r.Templates.Duplicate)

	templates.GET("/:id/agenda", r.Agenda.List)
	templates.POST("/:id/agenda", audit(models.AuditActionAgendaAdd, "id"), r.Agenda.Add)
	templates.PUT("/:id/agenda/order", audit(models.AuditActionAgendaReorder, "id"), r.Agenda.Reorder)
	templates.PUT("/:id/agenda/:itemId", audit(models.AuditActionAgendaUpdate, "id"), r.Agenda.Update)
	templates.DELETE("/:id/agenda/:itemId", audit(models.AuditActionAgendaRemove, "id"), r.Agenda.Remove)
	templates.POST("/:id/agenda/:itemId/move", audit(models.AuditActionAgendaMove, "id"), r.Agenda.Move)

	templates.GET("/:id/positions", r.Positions.List)
	templates.POST("/:id/positions", audit(models.AuditActionPositionAdd, "id"), r.Positions.Add)
	templates.POST("/:id/positions/batch", audit(models.AuditActionPositionAddBatch, "id"), r.Positions.AddBatch)
	templates.PUT("/:id/positions/order", audit(models.AuditActionPositionReorder, "id"), r.Positions.Reorder)
	templates.PATCH("/:id/positions/:positionId/quantity", audit(models.AuditActionPositionQuantity, "id"), r.Positions.UpdateQuantity)
	templates.POST("/:id/positions/:positionId/move", audit(models.AuditActionPositionMove, "id"), r.Positions.Move)
	templates.DELETE("/:id/positions/:positionId", audit(models.AuditActionPositionRemove, "id"), r.Positions.Remove)

	templates.POST("/:id/instantiate", audit(models.AuditActionTemplateInstantiate, "id"), r.Instantiation.Instantiate)

	events := api.Group("/events")
	events.GET("", r.Events.List)
	events.GET("/feed.ics", r.Events.Feed)
	events.GET("/:id", r.Events.Get)
	events.GET("/:id/run-sheet", r.Events.RunSheet)
}
