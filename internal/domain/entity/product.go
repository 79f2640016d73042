package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product repuesto o insumo del almacén. OnHand solo cambia a través del libro de inventario,
// y cada cambio queda explicado por exactamente un StockMovement.
type Product struct {
	ID          string
	Name        string
	Category    string
	UnitMeasure string
	OnHand      decimal.Decimal
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Covers indica si la existencia alcanza para la cantidad pedida.
func (p *Product) Covers(qty decimal.Decimal) bool {
	return p.OnHand.GreaterThanOrEqual(qty)
}
