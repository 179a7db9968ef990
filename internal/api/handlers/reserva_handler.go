package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/C-Ford17/eventos-app-sub001/internal/api/middleware"
	"github.com/C-Ford17/eventos-app-sub001/internal/models"
	"github.com/C-Ford17/eventos-app-sub001/internal/qr"
	"github.com/C-Ford17/eventos-app-sub001/internal/services"
)

// ReservaHandler handles reservation lifecycle and credential routes
type ReservaHandler struct {
	reservationService *services.ReservationService
	validationService  *services.ValidationService
}

func NewReservaHandler(reservationService *services.ReservationService, validationService *services.ValidationService) *ReservaHandler {
	return &ReservaHandler{
		reservationService: reservationService,
		validationService:  validationService,
	}
}

// RegisterRoutes registers reservation routes
func (h *ReservaHandler) RegisterRoutes(router *gin.Engine, jwtSecret string) {
	authed := router.Group("/api/v1", middleware.JWTAuth(jwtSecret))
	{
		authed.POST("/reservas", h.CrearReserva)
		authed.GET("/reservas", h.ListReservas)
		authed.GET("/reservas/:id", h.GetReserva)
		authed.POST("/reservas/:id/cancelar", h.Cancelar)
		authed.GET("/reservas/:id/entrada", h.GetCredencialQR)
	}

	staff := router.Group("/api/v1", middleware.JWTAuth(jwtSecret),
		middleware.RequireRol(models.RolStaff, models.RolAdmin))
	{
		staff.POST("/entradas/validar", h.ValidarEntrada)
	}
}

// ReservaRequest is the reservation creation payload
type ReservaRequest struct {
	EventoID uuid.UUID `json:"evento_id" binding:"required"`
	Cantidad int       `json:"cantidad" binding:"required,gt=0"`
}

// CrearReserva starts checkout: creates the reservation in pendiente and
// returns the gateway redirect target.
func (h *ReservaHandler) CrearReserva(c *gin.Context) {
	claims, err := middleware.GetClaims(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	var req ReservaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.reservationService.CrearReserva(c.Request.Context(), claims.UsuarioID, req.EventoID, req.Cantidad)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"reserva":    result.Reserva,
		"init_point": result.InitPoint,
	})
}

// ListReservas lists the logged-in attendee's reservations
func (h *ReservaHandler) ListReservas(c *gin.Context) {
	claims, err := middleware.GetClaims(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	reservas, err := h.reservationService.ListReservas(c.Request.Context(), claims.UsuarioID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"reservas": reservas})
}

// GetReserva returns one reservation, owner or admin/staff only
func (h *ReservaHandler) GetReserva(c *gin.Context) {
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

	reserva, err := h.reservationService.GetReserva(c.Request.Context(), claims.UsuarioID, claims.Rol, reservaID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, reserva)
}

// CancelarRequest is the cancellation payload
type CancelarRequest struct {
	Motivo string `json:"motivo"`
}

// Cancelar cancels a confirmed reservation and opens a refund request
func (h *ReservaHandler) Cancelar(c *gin.Context) {
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

	var req CancelarRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	solicitud, err := h.reservationService.Cancelar(c.Request.Context(), claims.UsuarioID, reservaID, req.Motivo)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"estado_reserva":      models.ReservaCancelada,
		"solicitud_reembolso": solicitud,
	})
}

// GetCredencialQR renders the reservation's access credential as a PNG
func (h *ReservaHandler) GetCredencialQR(c *gin.Context) {
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

	size, _ := strconv.Atoi(c.DefaultQuery("size", strconv.Itoa(qr.DefaultSize)))
	png, err := h.reservationService.RenderCredencialQR(c.Request.Context(), claims.UsuarioID, reservaID, size)
	if err != nil {
		respondError(c, err)
		return
	}

	c.Data(http.StatusOK, "image/png", png)
}

// ValidarRequest is the staff scan payload
type ValidarRequest struct {
	Codigo   string    `json:"codigo" binding:"required"`
	EventoID uuid.UUID `json:"evento_id" binding:"required"`
}

// ValidarEntrada processes a staff scan of an access credential. The
// response always carries the resultado taxonomy so the scanning client can
// distinguish a bad code from an already-used one.
func (h *ReservaHandler) ValidarEntrada(c *gin.Context) {
	claims, err := middleware.GetClaims(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	var req ValidarRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resultado, err := h.validationService.Validar(c.Request.Context(), req.Codigo, req.EventoID, &claims.UsuarioID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resultado)
}
