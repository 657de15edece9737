package entity

import "github.com/shopspring/decimal"

// InvoiceDetail representa una línea de detalle de una factura.
// Pertenece a exactamente una factura (borrado en cascada). Position
// conserva el orden de inserción; las líneas no tienen identidad estable
// entre actualizaciones, se reemplazan en bloque.
type InvoiceDetail struct {
	ID          string
	InvoiceID   string
	Position    int
	Description string
	Quantity    int64
	Price       decimal.Decimal
	LineTotal   decimal.Decimal
}
