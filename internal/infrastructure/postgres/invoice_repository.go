package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/jhoicas/Facturacion-api/internal/domain/entity"
	"github.com/jhoicas/Facturacion-api/internal/domain/repository"
)

var _ repository.InvoiceRepository = (*InvoiceRepo)(nil)

// InvoiceRepo implementación de InvoiceRepository (usable con pool o tx).
type InvoiceRepo struct {
	q Querier
}

// NewInvoiceRepository construye el adaptador. Pasar pool o tx (Querier).
func NewInvoiceRepository(q Querier) *InvoiceRepo {
	return &InvoiceRepo{q: q}
}

// Create persiste la cabecera de la factura. La unicidad de invoice_number
// la impone el constraint de la tabla.
func (r *InvoiceRepo) Create(ctx context.Context, invoice *entity.Invoice) error {
	if invoice.ID == "" {
		invoice.ID = uuid.New().String()
	}
	query := `
		INSERT INTO invoices (id, invoice_number, customer_name, date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.q.Exec(ctx, query,
		invoice.ID, invoice.InvoiceNumber, invoice.CustomerName,
		invoice.Date, invoice.CreatedAt, invoice.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("invoice_number ya existe: %w", err)
		}
		return fmt.Errorf("insert invoice: %w", err)
	}
	return nil
}

// CreateDetail persiste una línea de detalle en su posición.
func (r *InvoiceRepo) CreateDetail(ctx context.Context, detail *entity.InvoiceDetail) error {
	if detail.ID == "" {
		detail.ID = uuid.New().String()
	}
	query := `
		INSERT INTO invoice_details (id, invoice_id, line_no, description, quantity, price, line_total)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.q.Exec(ctx, query,
		detail.ID, detail.InvoiceID, detail.Position, detail.Description,
		detail.Quantity, detail.Price, detail.LineTotal,
	)
	if err != nil {
		return fmt.Errorf("insert invoice detail: %w", err)
	}
	return nil
}

// Update actualiza los campos escalares de la cabecera.
func (r *InvoiceRepo) Update(ctx context.Context, invoice *entity.Invoice) error {
	query := `
		UPDATE invoices
		SET invoice_number = $2,
		    customer_name  = $3,
		    date           = $4,
		    updated_at     = $5
		WHERE id = $1`
	_, err := r.q.Exec(ctx, query,
		invoice.ID, invoice.InvoiceNumber, invoice.CustomerName,
		invoice.Date, invoice.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("invoice_number ya existe: %w", err)
		}
		return fmt.Errorf("update invoice: %w", err)
	}
	return nil
}

// GetByNumber busca una factura por su clave de negocio. Devuelve (nil, nil)
// si no existe.
func (r *InvoiceRepo) GetByNumber(ctx context.Context, invoiceNumber string) (*entity.Invoice, error) {
	query := `
		SELECT id, invoice_number, customer_name, date, created_at, updated_at
		FROM invoices WHERE invoice_number = $1`
	var inv entity.Invoice
	err := r.q.QueryRow(ctx, query, invoiceNumber).Scan(
		&inv.ID, &inv.InvoiceNumber, &inv.CustomerName,
		&inv.Date, &inv.CreatedAt, &inv.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get invoice: %w", err)
	}
	return &inv, nil
}

// GetDetailsByInvoiceID obtiene las líneas de una factura en orden de inserción.
func (r *InvoiceRepo) GetDetailsByInvoiceID(ctx context.Context, invoiceID string) ([]*entity.InvoiceDetail, error) {
	query := `
		SELECT id, invoice_id, line_no, description, quantity, price, line_total
		FROM invoice_details WHERE invoice_id = $1 ORDER BY line_no`
	rows, err := r.q.Query(ctx, query, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("list invoice details: %w", err)
	}
	defer rows.Close()
	var list []*entity.InvoiceDetail
	for rows.Next() {
		var d entity.InvoiceDetail
		if err := rows.Scan(&d.ID, &d.InvoiceID, &d.Position, &d.Description, &d.Quantity, &d.Price, &d.LineTotal); err != nil {
			return nil, fmt.Errorf("scan detail: %w", err)
		}
		list = append(list, &d)
	}
	return list, rows.Err()
}

// DeleteDetailsByInvoiceID elimina todas las líneas de la factura.
func (r *InvoiceRepo) DeleteDetailsByInvoiceID(ctx context.Context, invoiceID string) error {
	_, err := r.q.Exec(ctx, `DELETE FROM invoice_details WHERE invoice_id = $1`, invoiceID)
	if err != nil {
		return fmt.Errorf("delete invoice details: %w", err)
	}
	return nil
}

// isUniqueViolation verifica si un error es una violación de constraint único (23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" // unique_violation
	}
	return strings.Contains(err.Error(), "23505")
}
