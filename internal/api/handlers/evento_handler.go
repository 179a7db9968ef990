package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/C-Ford17/eventos-app-sub001/internal/api/middleware"
	"github.com/C-Ford17/eventos-app-sub001/internal/models"
	"github.com/C-Ford17/eventos-app-sub001/internal/services"
)

// EventoHandler handles the event catalog routes
type EventoHandler struct {
	eventService *services.EventService
}

func NewEventoHandler(eventService *services.EventService) *EventoHandler {
	return &EventoHandler{eventService: eventService}
}

// RegisterRoutes registers event catalog routes
func (h *EventoHandler) RegisterRoutes(router *gin.Engine, jwtSecret string) {
	public := router.Group("/api/v1")
	{
		public.GET("/eventos", h.ListPublicados)
		public.GET("/eventos/buscar", h.Buscar)
		public.GET("/eventos/:id", h.GetEvento)
		public.GET("/categorias", h.ListCategorias)
		public.GET("/servicios", h.ListServicios)
	}

	organizador := router.Group("/api/v1", middleware.JWTAuth(jwtSecret),
		middleware.RequireRol(models.RolOrganizador, models.RolAdmin))
	{
		organizador.POST("/eventos", h.CrearEvento)
		organizador.PUT("/eventos/:id", h.ActualizarEvento)
		organizador.POST("/eventos/:id/publicar", h.PublicarEvento)
		organizador.GET("/mis-eventos", h.ListByOrganizador)
	}

	proveedor := router.Group("/api/v1", middleware.JWTAuth(jwtSecret),
		middleware.RequireRol(models.RolProveedor, models.RolAdmin))
	{
		proveedor.POST("/servicios", h.CrearServicio)
	}
}

// EventoRequest is the event create/update payload
type EventoRequest struct {
	Nombre        string     `json:"nombre" binding:"required"`
	Descripcion   string     `json:"descripcion"`
	Lugar         string     `json:"lugar"`
	FechaInicio   time.Time  `json:"fecha_inicio" binding:"required"`
	FechaFin      time.Time  `json:"fecha_fin" binding:"required"`
	Capacidad     int        `json:"capacidad" binding:"required,gt=0"`
	PrecioEntrada float64    `json:"precio_entrada"`
	CategoriaID   *uuid.UUID `json:"categoria_id"`
}

func (r *EventoRequest) toInput() services.EventoInput {
	return services.EventoInput{
		Nombre:        r.Nombre,
		Descripcion:   r.Descripcion,
		Lugar:         r.Lugar,
		FechaInicio:   r.FechaInicio,
		FechaFin:      r.FechaFin,
		Capacidad:     r.Capacidad,
		PrecioEntrada: r.PrecioEntrada,
		CategoriaID:   r.CategoriaID,
	}
}

// CrearEvento creates a draft event for the logged-in organizer
func (h *EventoHandler) CrearEvento(c *gin.Context) {
	claims, err := middleware.GetClaims(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	var req EventoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	evento, err := h.eventService.CrearEvento(c.Request.Context(), claims.UsuarioID, req.toInput())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, evento)
}

// ActualizarEvento updates an event owned by the logged-in organizer
func (h *EventoHandler) ActualizarEvento(c *gin.Context) {
	claims, err := middleware.GetClaims(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	eventoID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid event id"})
		return
	}

	var req EventoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	evento, err := h.eventService.ActualizarEvento(c.Request.Context(), claims.UsuarioID, eventoID, req.toInput())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, evento)
}

// PublicarEvento moves a draft event to publicado
func (h *EventoHandler) PublicarEvento(c *gin.Context) {
	claims, err := middleware.GetClaims(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	eventoID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid event id"})
		return
	}

	if err := h.eventService.PublicarEvento(c.Request.Context(), claims.UsuarioID, eventoID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"estado": models.EventoPublicado})
}

// GetEvento returns one event
func (h *EventoHandler) GetEvento(c *gin.Context) {
	eventoID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid event id"})
		return
	}

	evento, err := h.eventService.GetEvento(c.Request.Context(), eventoID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, evento)
}

// ListPublicados lists published events
func (h *EventoHandler) ListPublicados(c *gin.Context) {
	limit, offset := pagination(c)
	eventos, err := h.eventService.ListPublicados(c.Request.Context(), limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"eventos": eventos})
}

// ListByOrganizador lists the logged-in organizer's events, drafts included
func (h *EventoHandler) ListByOrganizador(c *gin.Context) {
	claims, err := middleware.GetClaims(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	eventos, err := h.eventService.ListByOrganizador(c.Request.Context(), claims.UsuarioID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"eventos": eventos})
}

// Buscar runs a full-text search over published events
func (h *EventoHandler) Buscar(c *gin.Context) {
	texto := c.Query("q")
	if texto == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "q query parameter is required"})
		return
	}

	limit, _ := pagination(c)
	resultados, err := h.eventService.Buscar(c.Request.Context(), texto, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"resultados": resultados})
}

// ListCategorias lists event categories
func (h *EventoHandler) ListCategorias(c *gin.Context) {
	categorias, err := h.eventService.ListCategorias(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"categorias": categorias})
}

// ServicioRequest is the provider service creation payload
type ServicioRequest struct {
	Nombre      string  `json:"nombre" binding:"required"`
	Descripcion string  `json:"descripcion"`
	Precio      float64 `json:"precio" binding:"gte=0"`
}

// CrearServicio creates an auxiliary service for the logged-in provider
func (h *EventoHandler) CrearServicio(c *gin.Context) {
	claims, err := middleware.GetClaims(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	var req ServicioRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	servicio, err := h.eventService.CrearServicio(c.Request.Context(), claims.UsuarioID, req.Nombre, req.Descripcion, req.Precio)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, servicio)
}

// ListServicios lists auxiliary services
func (h *EventoHandler) ListServicios(c *gin.Context) {
	limit, offset := pagination(c)
	servicios, err := h.eventService.ListServicios(c.Request.Context(), limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"servicios": servicios})
}

func pagination(c *gin.Context) (limit, offset int) {
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ = strconv.Atoi(c.DefaultQuery("offset", "0"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
