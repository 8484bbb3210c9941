package domain

import (
	"errors"
	"fmt"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound          = errors.New("recurso no encontrado")
	ErrInvalidInput      = errors.New("entrada inválida")
	ErrDuplicate         = errors.New("recurso duplicado")
	ErrUnauthorized      = errors.New("no autorizado")
	ErrForbidden         = errors.New("acceso denegado")
	ErrConflict          = errors.New("conflicto con el estado actual")
	ErrInsufficientStock = errors.New("stock insuficiente")
	// ErrUnavailable agrupa fallas transitorias de almacenamiento (deadlock, serialización,
	// timeout de lock, conexión). El caller puede reintentar.
	ErrUnavailable = errors.New("servicio no disponible, reintente")
)

// InsufficientStockError reporta la cantidad pedida y la disponible leída bajo el lock de fila.
type InsufficientStockError struct {
	ProductID string
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("stock insuficiente para producto %s: solicitado %d, disponible %d",
		e.ProductID, e.Requested, e.Available)
}

func (e *InsufficientStockError) Unwrap() error { return ErrInsufficientStock }

// ItemError identifica el ítem del lote que provocó el rechazo.
// Index es la posición (base 0) en el lote enviado por el caller.
type ItemError struct {
	Index     int
	ProductID string
	Err       error
}

func (e *ItemError) Error() string {
	return fmt.Sprintf("ítem %d (producto %s): %v", e.Index, e.ProductID, e.Err)
}

func (e *ItemError) Unwrap() error { return e.Err }
