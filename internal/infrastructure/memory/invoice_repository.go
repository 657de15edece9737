package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/jhoicas/Facturacion-api/internal/application/billing"
	"github.com/jhoicas/Facturacion-api/internal/domain/entity"
	"github.com/jhoicas/Facturacion-api/internal/domain/repository"
)

var _ repository.InvoiceRepository = (*Store)(nil)
var _ billing.TxRunner = (*Store)(nil)

// Store implementación en memoria de InvoiceRepository con transacciones por
// snapshot. Respalda los tests de aplicación y HTTP; impone las mismas
// restricciones que el esquema (unicidad de invoice_number).
type Store struct {
	mu       sync.Mutex
	invoices map[string]*entity.Invoice         // por ID
	details  map[string][]*entity.InvoiceDetail // por invoice ID, en orden de inserción
}

// NewStore construye un almacén vacío.
func NewStore() *Store {
	return &Store{
		invoices: make(map[string]*entity.Invoice),
		details:  make(map[string][]*entity.InvoiceDetail),
	}
}

// Run ejecuta fn contra el almacén y, si falla, restaura el estado previo
// (rollback por snapshot).
func (s *Store) Run(_ context.Context, fn func(invoiceRepo repository.InvoiceRepository) error) error {
	invoices, details := s.snapshot()
	if err := fn(s); err != nil {
		s.restore(invoices, details)
		return err
	}
	return nil
}

// Create inserta la cabecera. Un invoice_number repetido falla como lo haría
// el constraint único de la tabla.
func (s *Store) Create(_ context.Context, invoice *entity.Invoice) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, inv := range s.invoices {
		if inv.InvoiceNumber == invoice.InvoiceNumber {
			return fmt.Errorf("insert invoice: ERROR: duplicate key value violates unique constraint \"invoices_invoice_number_key\" (SQLSTATE 23505)")
		}
	}
	cp := *invoice
	s.invoices[invoice.ID] = &cp
	return nil
}

// CreateDetail agrega una línea al final de la lista de su factura.
func (s *Store) CreateDetail(_ context.Context, detail *entity.InvoiceDetail) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *detail
	s.details[detail.InvoiceID] = append(s.details[detail.InvoiceID], &cp)
	return nil
}

// Update reescribe los campos escalares de la cabecera.
func (s *Store) Update(_ context.Context, invoice *entity.Invoice) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.invoices[invoice.ID]
	if !ok {
		return fmt.Errorf("update invoice: no existe %s", invoice.ID)
	}
	for id, inv := range s.invoices {
		if id != invoice.ID && inv.InvoiceNumber == invoice.InvoiceNumber {
			return fmt.Errorf("update invoice: ERROR: duplicate key value violates unique constraint \"invoices_invoice_number_key\" (SQLSTATE 23505)")
		}
	}
	cp := *invoice
	cp.CreatedAt = current.CreatedAt
	s.invoices[invoice.ID] = &cp
	return nil
}

// GetByNumber devuelve una copia de la factura o (nil, nil) si no existe.
func (s *Store) GetByNumber(_ context.Context, invoiceNumber string) (*entity.Invoice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, inv := range s.invoices {
		if inv.InvoiceNumber == invoiceNumber {
			cp := *inv
			return &cp, nil
		}
	}
	return nil, nil
}

// GetDetailsByInvoiceID devuelve copias de las líneas en orden de inserción.
func (s *Store) GetDetailsByInvoiceID(_ context.Context, invoiceID string) ([]*entity.InvoiceDetail, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := make([]*entity.InvoiceDetail, 0, len(s.details[invoiceID]))
	for _, d := range s.details[invoiceID] {
		cp := *d
		list = append(list, &cp)
	}
	sort.SliceStable(list, func(i, j int) bool { return list[i].Position < list[j].Position })
	return list, nil
}

// DeleteDetailsByInvoiceID elimina todas las líneas de la factura.
func (s *Store) DeleteDetailsByInvoiceID(_ context.Context, invoiceID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.details, invoiceID)
	return nil
}

// DetailCount devuelve cuántas líneas tiene la factura (inspección en tests).
func (s *Store) DetailCount(invoiceID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.details[invoiceID])
}

func (s *Store) snapshot() (map[string]*entity.Invoice, map[string][]*entity.InvoiceDetail) {
	s.mu.Lock()
	defer s.mu.Unlock()
	invoices := make(map[string]*entity.Invoice, len(s.invoices))
	for id, inv := range s.invoices {
		cp := *inv
		invoices[id] = &cp
	}
	details := make(map[string][]*entity.InvoiceDetail, len(s.details))
	for id, list := range s.details {
		cps := make([]*entity.InvoiceDetail, 0, len(list))
		for _, d := range list {
			cp := *d
			cps = append(cps, &cp)
		}
		details[id] = cps
	}
	return invoices, details
}

func (s *Store) restore(invoices map[string]*entity.Invoice, details map[string][]*entity.InvoiceDetail) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.invoices = invoices
	s.details = details
}
