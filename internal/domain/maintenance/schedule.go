// Package maintenance contiene los cálculos de programación de servicios: intervalo por tipo
// de medición, próxima lectura de servicio y clasificación de vencimiento.
package maintenance

import (
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Flota-api/internal/domain/entity"
)

// Intervals intervalos por defecto según el tipo de medición del vehículo.
type Intervals struct {
	Distance decimal.Decimal
	Hours    decimal.Decimal
	Months   decimal.Decimal
}

// DefaultIntervals 5000 km, 250 horas, 6 meses.
func DefaultIntervals() Intervals {
	return Intervals{
		Distance: decimal.NewFromInt(5000),
		Hours:    decimal.NewFromInt(250),
		Months:   decimal.NewFromInt(6),
	}
}

// For devuelve el intervalo aplicable: el configurado en el vehículo si es positivo,
// si no el valor por defecto de su tipo.
func (iv Intervals) For(kind entity.MeasurementKind, override *decimal.Decimal) decimal.Decimal {
	if override != nil && override.IsPositive() {
		return *override
	}
	switch kind {
	case entity.MeasureHours:
		return iv.Hours
	case entity.MeasureMonths:
		return iv.Months
	default:
		return iv.Distance
	}
}

// NextDue lectura a la que corresponde el próximo servicio.
func (iv Intervals) NextDue(reading decimal.Decimal, kind entity.MeasurementKind, override *decimal.Decimal) decimal.Decimal {
	return reading.Add(iv.For(kind, override))
}

// DueLevel clasificación del vencimiento de un vehículo.
type DueLevel string

const (
	DueNeverServiced DueLevel = "never_serviced"
	DueNormal        DueLevel = "normal"
	DueWarning       DueLevel = "warning"
	DueCritical      DueLevel = "critical"
	DueOverdue       DueLevel = "overdue"
)

var (
	hundred           = decimal.NewFromInt(100)
	warningThreshold  = decimal.NewFromInt(75)
	criticalThreshold = decimal.NewFromInt(90)
)

// DueStatus resultado de la clasificación. Percent es el avance del intervalo consumido.
type DueStatus struct {
	Level       DueLevel
	Current     decimal.Decimal
	LastService decimal.Decimal
	NextDue     decimal.Decimal
	Percent     decimal.Decimal
	Remaining   decimal.Decimal
}

// NeverServiced estado para un vehículo sin eventos de servicio.
func NeverServiced(current decimal.Decimal) DueStatus {
	return DueStatus{Level: DueNeverServiced, Current: current}
}

// Classify aplica: overdue si current >= nextDue; si no, % = (current-last)/(nextDue-last)*100,
// critical >= 90, warning >= 75, normal en otro caso. Una lectura anterior al último servicio cuenta como 0%.
func Classify(current, lastService, nextDue decimal.Decimal) DueStatus {
	st := DueStatus{
		Current:     current,
		LastService: lastService,
		NextDue:     nextDue,
		Remaining:   nextDue.Sub(current),
	}
	if current.GreaterThanOrEqual(nextDue) {
		st.Level = DueOverdue
		st.Percent = hundred
		st.Remaining = decimal.Zero
		return st
	}
	span := nextDue.Sub(lastService)
	if !span.IsPositive() {
		// nextDue <= lastService sin haber llegado a nextDue: intervalo degenerado.
		st.Level = DueNormal
		return st
	}
	// Los umbrales se comparan sin redondear; solo el valor informado se redondea.
	pct := current.Sub(lastService).Div(span).Mul(hundred)
	if pct.IsNegative() {
		pct = decimal.Zero
	}
	switch {
	case pct.GreaterThanOrEqual(criticalThreshold):
		st.Level = DueCritical
	case pct.GreaterThanOrEqual(warningThreshold):
		st.Level = DueWarning
	default:
		st.Level = DueNormal
	}
	st.Percent = pct.Round(2)
	return st
}
