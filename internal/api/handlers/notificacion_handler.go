package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/C-Ford17/eventos-app-sub001/internal/api/middleware"
	"github.com/C-Ford17/eventos-app-sub001/internal/repositories"
)

// NotificacionHandler lists a user's notifications and marks them read
type NotificacionHandler struct {
	notificacionRepo *repositories.NotificacionRepository
}

func NewNotificacionHandler(notificacionRepo *repositories.NotificacionRepository) *NotificacionHandler {
	return &NotificacionHandler{notificacionRepo: notificacionRepo}
}

// RegisterRoutes registers notification routes
func (h *NotificacionHandler) RegisterRoutes(router *gin.Engine, jwtSecret string) {
	authed := router.Group("/api/v1/notificaciones", middleware.JWTAuth(jwtSecret))
	{
		authed.GET("", h.List)
		authed.POST("/:id/leida", h.MarkLeida)
	}
}

// List returns the logged-in user's notifications, most recent first
func (h *NotificacionHandler) List(c *gin.Context) {
	claims, err := middleware.GetClaims(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	limit, _ := pagination(c)
	notificaciones, err := h.notificacionRepo.ListByUsuario(c.Request.Context(), claims.UsuarioID, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"notificaciones": notificaciones})
}

// MarkLeida flags one of the user's notifications as read
func (h *NotificacionHandler) MarkLeida(c *gin.Context) {
	claims, err := middleware.GetClaims(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	notificacionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid notification id"})
		return
	}

	if err := h.notificacionRepo.MarkLeida(c.Request.Context(), notificacionID, claims.UsuarioID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"leida": true})
}
