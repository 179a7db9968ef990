package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/C-Ford17/eventos-app-sub001/internal/api/middleware"
	"github.com/C-Ford17/eventos-app-sub001/internal/services"
)

// AuthHandler handles registration, login and gateway account linking
type AuthHandler struct {
	accountService *services.AccountService
}

func NewAuthHandler(accountService *services.AccountService) *AuthHandler {
	return &AuthHandler{accountService: accountService}
}

// RegisterRoutes registers auth routes
func (h *AuthHandler) RegisterRoutes(router *gin.Engine, jwtSecret string) {
	api := router.Group("/api/v1/auth")
	{
		api.POST("/registro", h.Registrar)
		api.POST("/login", h.Login)
	}

	linked := router.Group("/api/v1/auth", middleware.JWTAuth(jwtSecret))
	{
		linked.GET("/mercadopago/callback", h.CallbackPasarela)
	}
}

// RegistroRequest is the account creation payload
type RegistroRequest struct {
	Nombre   string `json:"nombre" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Rol      string `json:"rol"`
}

// Registrar creates a new account
func (h *AuthHandler) Registrar(c *gin.Context) {
	var req RegistroRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	usuario, err := h.accountService.Registrar(c.Request.Context(), req.Nombre, req.Email, req.Password, req.Rol)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, usuario)
}

// LoginRequest is the login payload
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Login verifies credentials and returns a signed access token
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	token, usuario, err := h.accountService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token, "usuario": usuario})
}

// CallbackPasarela completes the gateway OAuth flow for the logged-in
// organizer, exchanging the authorization code and storing the tokens
// encrypted.
func (h *AuthHandler) CallbackPasarela(c *gin.Context) {
	claims, err := middleware.GetClaims(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	code := c.Query("code")
	if code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "code query parameter is required"})
		return
	}

	if err := h.accountService.VincularPasarela(c.Request.Context(), claims.UsuarioID, code); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "linked"})
}
