package billing

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/Facturacion-api/internal/application/dto"
	"github.com/jhoicas/Facturacion-api/internal/domain"
	"github.com/jhoicas/Facturacion-api/internal/domain/entity"
	"github.com/jhoicas/Facturacion-api/internal/domain/repository"
)

const dateLayout = "2006-01-02"

// InvoiceUseCase traduce documentos externos al modelo de datos: creación
// con líneas anidadas y reemplazo destructivo de líneas en actualizaciones.
type InvoiceUseCase struct {
	txRunner TxRunner
	repo     repository.InvoiceRepository
}

// NewInvoiceUseCase construye el caso de uso.
func NewInvoiceUseCase(txRunner TxRunner, repo repository.InvoiceRepository) *InvoiceUseCase {
	return &InvoiceUseCase{txRunner: txRunner, repo: repo}
}

// Create valida el documento en modo completo y persiste la cabecera más una
// línea por entrada de details, en el orden recibido y en una sola
// transacción. Una lista details vacía produce una factura sin líneas.
// La unicidad de invoice_number la impone la base de datos: una violación
// retorna como error de persistencia, no como error de validación.
func (uc *InvoiceUseCase) Create(ctx context.Context, doc dto.InvoiceDocument) (*dto.InvoiceResponse, error) {
	if verr := validateDocument(&doc, false); verr != nil {
		return nil, verr
	}
	date, err := time.Parse(dateLayout, *doc.Date)
	if err != nil {
		verr := domain.NewValidationError()
		verr.Add("date", "la fecha debe tener el formato YYYY-MM-DD")
		return nil, verr
	}

	now := time.Now().UTC()
	inv := &entity.Invoice{
		ID:            uuid.New().String(),
		InvoiceNumber: *doc.InvoiceNumber,
		CustomerName:  *doc.CustomerName,
		Date:          date,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	details := buildDetails(inv.ID, *doc.Details)

	err = uc.txRunner.Run(ctx, func(repo repository.InvoiceRepository) error {
		if err := repo.Create(ctx, inv); err != nil {
			return err
		}
		for _, d := range details {
			if err := repo.CreateDetail(ctx, d); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return serializeInvoice(inv, details), nil
}

// Update localiza la factura por invoice_number y aplica el documento campo a
// campo. En modo completo se exigen todos los campos de nivel superior; en
// merge-patch (partial=true) solo se validan y aplican los presentes.
// Si details viene en el documento (incluso vacío), las líneas existentes se
// eliminan y se recrean desde la lista en una sola transacción con la
// cabecera; si viene ausente, las líneas se conservan intactas.
func (uc *InvoiceUseCase) Update(ctx context.Context, doc dto.InvoiceDocument, partial bool) (*dto.InvoiceResponse, error) {
	if doc.InvoiceNumber == nil || *doc.InvoiceNumber == "" {
		return nil, domain.ErrMissingInvoiceNumber
	}
	inv, err := uc.repo.GetByNumber(ctx, *doc.InvoiceNumber)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, domain.ErrNotFound
	}
	if verr := validateDocument(&doc, partial); verr != nil {
		return nil, verr
	}

	inv.InvoiceNumber = *doc.InvoiceNumber
	if doc.CustomerName != nil {
		inv.CustomerName = *doc.CustomerName
	}
	if doc.Date != nil {
		date, perr := time.Parse(dateLayout, *doc.Date)
		if perr != nil {
			verr := domain.NewValidationError()
			verr.Add("date", "la fecha debe tener el formato YYYY-MM-DD")
			return nil, verr
		}
		inv.Date = date
	}
	inv.UpdatedAt = time.Now().UTC()

	var details []*entity.InvoiceDetail
	err = uc.txRunner.Run(ctx, func(repo repository.InvoiceRepository) error {
		if err := repo.Update(ctx, inv); err != nil {
			return err
		}
		if doc.Details == nil {
			return nil
		}
		if err := repo.DeleteDetailsByInvoiceID(ctx, inv.ID); err != nil {
			return err
		}
		details = buildDetails(inv.ID, *doc.Details)
		for _, d := range details {
			if err := repo.CreateDetail(ctx, d); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if doc.Details == nil {
		details, err = uc.repo.GetDetailsByInvoiceID(ctx, inv.ID)
		if err != nil {
			return nil, err
		}
	}
	return serializeInvoice(inv, details), nil
}

// buildDetails construye las líneas con posición secuencial (orden de inserción).
func buildDetails(invoiceID string, docs []dto.InvoiceDetailDocument) []*entity.InvoiceDetail {
	details := make([]*entity.InvoiceDetail, 0, len(docs))
	for i, d := range docs {
		details = append(details, &entity.InvoiceDetail{
			ID:          uuid.New().String(),
			InvoiceID:   invoiceID,
			Position:    i,
			Description: d.Description,
			Quantity:    d.Quantity,
			Price:       d.Price,
			LineTotal:   d.LineTotal,
		})
	}
	return details
}

// serializeInvoice produce la representación externa de la factura, espejo
// exacto del esquema de entrada.
func serializeInvoice(inv *entity.Invoice, details []*entity.InvoiceDetail) *dto.InvoiceResponse {
	out := &dto.InvoiceResponse{
		InvoiceNumber: inv.InvoiceNumber,
		CustomerName:  inv.CustomerName,
		Date:          inv.Date.Format(dateLayout),
		Details:       make([]dto.InvoiceDetailResponse, 0, len(details)),
	}
	for _, d := range details {
		out.Details = append(out.Details, dto.InvoiceDetailResponse{
			Description: d.Description,
			Quantity:    d.Quantity,
			Price:       dto.Decimal2{Decimal: d.Price},
			LineTotal:   dto.Decimal2{Decimal: d.LineTotal},
		})
	}
	return out
}
