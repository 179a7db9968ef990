package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/C-Ford17/eventos-app-sub001/internal/repositories"
	"github.com/C-Ford17/eventos-app-sub001/internal/services"
)

// respondError maps domain errors to HTTP statuses. Anything unmapped is a
// 500 with a generic body; the full detail stays in the server log.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "resource not found"})
	case errors.Is(err, services.ErrNoAutorizado):
		c.JSON(http.StatusForbidden, gin.H{"error": "not authorized for this resource"})
	case errors.Is(err, services.ErrCredencialesInvalidas):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
	case errors.Is(err, services.ErrCuentaBloqueada):
		c.JSON(http.StatusForbidden, gin.H{"error": "account is blocked"})
	case errors.Is(err, services.ErrEventoNoDisponible),
		errors.Is(err, services.ErrCapacidadAgotada),
		errors.Is(err, services.ErrEstadoInvalido),
		errors.Is(err, services.ErrTransicionInvalida):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		log.Error().Err(err).Str("path", c.FullPath()).Msg("Request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
