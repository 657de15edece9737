package repository

import (
	"context"

	"github.com/jhoicas/Facturacion-api/internal/domain/entity"
)

// InvoiceRepository define el puerto de persistencia para Invoice y sus detalles.
type InvoiceRepository interface {
	Create(ctx context.Context, invoice *entity.Invoice) error
	CreateDetail(ctx context.Context, detail *entity.InvoiceDetail) error
	// Update actualiza los campos escalares de la cabecera (customer_name, date, updated_at).
	Update(ctx context.Context, invoice *entity.Invoice) error
	// GetByNumber busca por clave de negocio. Devuelve (nil, nil) si no existe.
	GetByNumber(ctx context.Context, invoiceNumber string) (*entity.Invoice, error)
	// GetDetailsByInvoiceID devuelve las líneas en orden de inserción (position).
	GetDetailsByInvoiceID(ctx context.Context, invoiceID string) ([]*entity.InvoiceDetail, error)
	// DeleteDetailsByInvoiceID elimina todas las líneas de la factura (reemplazo destructivo).
	DeleteDetailsByInvoiceID(ctx context.Context, invoiceID string) error
}
