package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tipos de movimiento del libro de inventario.
const (
	MovementEntry = "entry" // entrada
	MovementExit  = "exit"  // salida
)

// QuantityPlaces decimales que admite una cantidad de inventario (NUMERIC(14,3)).
const QuantityPlaces = 3

// FitsPlaces indica si d se representa sin pérdida con places decimales.
func FitsPlaces(d decimal.Decimal, places int32) bool {
	return d.Equal(d.Truncate(places))
}

// Origin referencia libre del movimiento: quién lo pidió, a dónde fue y qué registro lo originó.
type Origin struct {
	Reference      string // solicitante, destino o nota libre
	OrderID        string // orden de mantenimiento atendida (opcional)
	ServiceEventID string // cambio de aceite / mantenimiento que consumió el repuesto (opcional)
}

// StockMovement movimiento inmutable del libro. Solo Reversed cambia, para impedir la doble reversión.
type StockMovement struct {
	ID         string
	ProductID  string
	Kind       string
	Quantity   decimal.Decimal // siempre positiva; el signo lo da Kind
	OccurredAt time.Time
	Origin     Origin
	ReversalOf string // ID del movimiento que compensa (vacío si no es compensatorio)
	Reversed   bool
	CreatedBy  string
}

// Signed devuelve la cantidad con signo (+entrada, -salida).
func (m *StockMovement) Signed() decimal.Decimal {
	if m.Kind == MovementExit {
		return m.Quantity.Neg()
	}
	return m.Quantity
}

// OppositeKind tipo del movimiento compensatorio.
func (m *StockMovement) OppositeKind() string {
	if m.Kind == MovementExit {
		return MovementEntry
	}
	return MovementExit
}
