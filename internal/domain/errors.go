package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Tipos de error de dominio. Los errores estructurados de abajo responden a errors.Is
// con su sentinel para que los adaptadores (HTTP) solo dependan del tipo.
var (
	ErrValidation        = errors.New("datos inválidos")
	ErrNotFound          = errors.New("recurso no encontrado")
	ErrInsufficientStock = errors.New("stock insuficiente")
	ErrInvalidTransition = errors.New("transición de estado inválida")
	ErrAlreadyReversed   = errors.New("movimiento ya revertido")
	ErrConflict          = errors.New("conflicto con el estado actual")
	ErrPersistence       = errors.New("error de persistencia")
	ErrUnauthorized      = errors.New("no autorizado")
	ErrForbidden         = errors.New("acceso denegado")
)

// ValidationError campo requerido ausente o con valor inválido.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// NewValidationError atajo para construir un ValidationError.
func NewValidationError(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// InsufficientStockError la cantidad solicitada supera la existencia del producto.
type InsufficientStockError struct {
	ProductID   string
	ProductName string
	Requested   decimal.Decimal
	Available   decimal.Decimal
}

func (e *InsufficientStockError) Error() string {
	name := e.ProductName
	if name == "" {
		name = e.ProductID
	}
	return fmt.Sprintf("stock insuficiente para %s: solicitado %s, disponible %s",
		name, e.Requested.String(), e.Available.String())
}

func (e *InsufficientStockError) Is(target error) bool { return target == ErrInsufficientStock }

// InvalidTransitionError el cambio de estado no es legal desde el estado actual.
type InvalidTransitionError struct {
	OrderID string
	From    string
	To      string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("orden %s: no se puede pasar de %s a %s", e.OrderID, e.From, e.To)
}

func (e *InvalidTransitionError) Is(target error) bool { return target == ErrInvalidTransition }

// AlreadyReversedError intento de revertir dos veces el mismo movimiento.
type AlreadyReversedError struct {
	MovementID string
}

func (e *AlreadyReversedError) Error() string {
	return fmt.Sprintf("el movimiento %s ya fue revertido", e.MovementID)
}

func (e *AlreadyReversedError) Is(target error) bool { return target == ErrAlreadyReversed }

// NotFoundError orden, producto, evento o vehículo inexistente.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s no encontrado", e.Resource, e.ID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// NewNotFoundError atajo para construir un NotFoundError.
func NewNotFoundError(resource, id string) error {
	return &NotFoundError{Resource: resource, ID: id}
}

// ConflictError la operación choca con registros que dependen del recurso.
type ConflictError struct {
	Reason string
}

func (e *ConflictError) Error() string { return e.Reason }

func (e *ConflictError) Is(target error) bool { return target == ErrConflict }

// PersistenceError fallo del almacenamiento subyacente.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

func (e *PersistenceError) Is(target error) bool { return target == ErrPersistence }

// NewPersistenceError envuelve err; si ya es un error de dominio lo devuelve tal cual.
func NewPersistenceError(op string, err error) error {
	if err == nil {
		return nil
	}
	if IsDomainError(err) {
		return err
	}
	return &PersistenceError{Op: op, Err: err}
}

// IsDomainError indica si err pertenece a alguno de los tipos de dominio.
func IsDomainError(err error) bool {
	for _, k := range []error{
		ErrValidation, ErrNotFound, ErrInsufficientStock, ErrInvalidTransition,
		ErrAlreadyReversed, ErrConflict, ErrPersistence, ErrUnauthorized, ErrForbidden,
	} {
		if errors.Is(err, k) {
			return true
		}
	}
	return false
}
