package domain

import "errors"

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound     = errors.New("recurso no encontrado")
	ErrInvalidInput = errors.New("entrada inválida")
	ErrDuplicate    = errors.New("recurso duplicado")
	ErrUnauthorized = errors.New("no autorizado")
	ErrForbidden    = errors.New("acceso denegado")
	// ErrStateConflict la factura cambió desde la lectura (versión desactualizada).
	// El llamador debe reintentar con una lectura nueva; no es un error de validación.
	ErrStateConflict = errors.New("conflicto con el estado actual, reintente")
	// ErrHierarchy una empresa no puede ser convención padre e hija a la vez.
	ErrHierarchy = errors.New("jerarquía de convenciones inválida")
	// ErrEmptySelection ninguna factura corresponde a la selección (bordereau vacío).
	ErrEmptySelection = errors.New("ninguna factura corresponde a la selección")
)
