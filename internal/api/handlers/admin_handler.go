package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/C-Ford17/eventos-app-sub001/internal/api/middleware"
	"github.com/C-Ford17/eventos-app-sub001/internal/models"
	"github.com/C-Ford17/eventos-app-sub001/internal/repositories"
	"github.com/C-Ford17/eventos-app-sub001/internal/services"
)

// AdminHandler handles moderation and manual reconciliation routes
type AdminHandler struct {
	moderationService  *services.ModerationService
	reservationService *services.ReservationService
	auditRepo          *repositories.AuditoriaRepository
}

func NewAdminHandler(
	moderationService *services.ModerationService,
	reservationService *services.ReservationService,
	auditRepo *repositories.AuditoriaRepository,
) *AdminHandler {
	return &AdminHandler{
		moderationService:  moderationService,
		reservationService: reservationService,
		auditRepo:          auditRepo,
	}
}

// RegisterRoutes registers moderation routes
func (h *AdminHandler) RegisterRoutes(router *gin.Engine, jwtSecret string) {
	// Any authenticated user can file a report
	authed := router.Group("/api/v1", middleware.JWTAuth(jwtSecret))
	{
		authed.POST("/reportes", h.CrearReporte)
	}

	admin := router.Group("/api/v1/admin", middleware.JWTAuth(jwtSecret),
		middleware.RequireRol(models.RolAdmin))
	{
		admin.POST("/bloqueos", h.SetBloqueo)
		admin.POST("/reservas/:id/confirmar", h.ConfirmarReserva)
		admin.POST("/reservas/:id/rechazar", h.RechazarReserva)
		admin.GET("/reportes", h.ListReportes)
		admin.POST("/reportes/:id/revisar", h.RevisarReporte)
		admin.GET("/auditoria", h.ListAuditoria)
	}
}

// BloqueoRequest is the block/unblock payload
type BloqueoRequest struct {
	Tabla    string    `json:"tabla" binding:"required"`
	TargetID uuid.UUID `json:"target_id" binding:"required"`
	Bloquear bool      `json:"bloquear"`
	Motivo   string    `json:"motivo"`
}

// SetBloqueo toggles the blocked flag on a user, event or service
func (h *AdminHandler) SetBloqueo(c *gin.Context) {
	claims, err := middleware.GetClaims(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	var req BloqueoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.moderationService.SetBloqueo(c.Request.Context(), claims.UsuarioID, req.Tabla, req.TargetID, req.Bloquear, req.Motivo); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"bloqueado": req.Bloquear})
}

// ConfirmarReserva manually drives a reservation to confirmada
func (h *AdminHandler) ConfirmarReserva(c *gin.Context) {
	h.manualTransition(c, h.reservationService.ConfirmarManual, models.ReservaConfirmada)
}

// RechazarReserva manually drives a reservation to rechazada
func (h *AdminHandler) RechazarReserva(c *gin.Context) {
	h.manualTransition(c, h.reservationService.RechazarManual, models.ReservaRechazada)
}

func (h *AdminHandler) manualTransition(c *gin.Context, fn func(ctx context.Context, actorID, reservaID uuid.UUID) error, estado string) {
	claims, err := middleware.GetClaims(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	reservaID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid reservation id"})
		return
	}

	if err := fn(c.Request.Context(), claims.UsuarioID, reservaID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"estado_reserva": estado})
}

// ReporteRequest is the report creation payload
type ReporteRequest struct {
	Tabla      string `json:"tabla" binding:"required"`
	RegistroID string `json:"registro_id" binding:"required"`
	Motivo     string `json:"motivo" binding:"required"`
}

// CrearReporte files a report against a platform entity
func (h *AdminHandler) CrearReporte(c *gin.Context) {
	claims, err := middleware.GetClaims(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	var req ReporteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	reporte, err := h.moderationService.CrearReporte(c.Request.Context(), claims.UsuarioID, req.Tabla, req.RegistroID, req.Motivo)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, reporte)
}

// ListReportes lists reports, optionally filtered by estado
func (h *AdminHandler) ListReportes(c *gin.Context) {
	limit, _ := pagination(c)
	reportes, err := h.moderationService.ListReportes(c.Request.Context(), c.Query("estado"), limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"reportes": reportes})
}

// RevisarRequest is the report review payload
type RevisarRequest struct {
	Destino string `json:"destino" binding:"required"`
}

// RevisarReporte advances a report through its review progression
func (h *AdminHandler) RevisarReporte(c *gin.Context) {
	claims, err := middleware.GetClaims(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	reporteID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid report id"})
		return
	}

	var req RevisarRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.moderationService.RevisarReporte(c.Request.Context(), claims.UsuarioID, reporteID, req.Destino); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"estado": req.Destino})
}

// ListAuditoria lists audit log entries, most recent first
func (h *AdminHandler) ListAuditoria(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	entradas, err := h.auditRepo.List(c.Request.Context(), limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"auditoria": entradas})
}
