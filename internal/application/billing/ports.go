package billing

import (
	"context"

	"github.com/jhoicas/Facturacion-api/internal/domain/repository"
)

// TxRunner ejecuta fn dentro de una transacción; el repositorio que recibe
// fn está atado a esa transacción. Si fn retorna error se hace rollback.
type TxRunner interface {
	Run(ctx context.Context, fn func(invoiceRepo repository.InvoiceRepository) error) error
}
