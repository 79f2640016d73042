package entity

import "github.com/shopspring/decimal"

// Vehicle vista de solo lectura del registro de vehículos (mantenido fuera de este servicio).
type Vehicle struct {
	ID              string
	Plate           string
	MeasurementKind MeasurementKind
	CurrentReading  decimal.Decimal
	// ServiceInterval intervalo configurado para el vehículo; nil usa el valor por defecto del tipo.
	ServiceInterval *decimal.Decimal
}

// Employee vista de solo lectura del registro de empleados.
type Employee struct {
	ID     string
	Name   string
	Role   string
	Active bool
}
