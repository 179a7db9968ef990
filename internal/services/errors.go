package services

import "errors"

// Domain errors surfaced to the API layer for status mapping
var (
	ErrNoAutorizado       = errors.New("actor does not control the target resource")
	ErrEventoNoDisponible = errors.New("event is not open for reservations")
	ErrCapacidadAgotada   = errors.New("event has no remaining capacity")
	ErrEstadoInvalido     = errors.New("entity is not in a state that allows this operation")
	ErrTransicionInvalida = errors.New("invalid state transition")
)
