package entity

import "time"

// Invoice representa la cabecera de una factura.
// InvoiceNumber es la clave de negocio: única globalmente y usada para
// localizar la factura en las actualizaciones.
type Invoice struct {
	ID            string
	InvoiceNumber string
	CustomerName  string
	Date          time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
