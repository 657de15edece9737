package dto

import (
	"bytes"
	"encoding/json"
	"strconv"

	"github.com/shopspring/decimal"
)

// Decimal2 envuelve decimal.Decimal y se serializa siempre con dos
// decimales ("50.00", nunca "50"), igual que NUMERIC(10,2) en la base.
type Decimal2 struct {
	decimal.Decimal
}

// MarshalJSON serializa el valor como string con dos decimales fijos.
func (d Decimal2) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(d.Decimal.StringFixed(2))), nil
}

// String devuelve el valor con dos decimales fijos.
func (d Decimal2) String() string {
	return d.Decimal.StringFixed(2)
}

// InvoiceDocument documento de factura de entrada (POST/PUT/PATCH).
// Los campos de nivel superior son punteros para distinguir "ausente" de
// "presente con valor cero": en merge-patch solo se validan y aplican los
// campos presentes en el documento.
type InvoiceDocument struct {
	InvoiceNumber *string                  `json:"invoice_number" validate:"omitempty,max=20"`
	CustomerName  *string                  `json:"customer_name" validate:"omitempty,max=100"`
	Date          *string                  `json:"date" validate:"omitempty,datetime=2006-01-02"`
	Details       *[]InvoiceDetailDocument `json:"details" validate:"omitempty,dive"`

	// nulls registra los campos que vinieron presentes con valor null,
	// que no es lo mismo que ausentes: null se rechaza en validación.
	nulls map[string]bool
}

// UnmarshalJSON decodifica el documento y registra qué campos de nivel
// superior vinieron como null explícito (un puntero nil no distingue
// "ausente" de "presente con null" por sí solo).
func (d *InvoiceDocument) UnmarshalJSON(data []byte) error {
	type alias InvoiceDocument
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	for _, f := range []string{"invoice_number", "customer_name", "date", "details"} {
		if v, ok := raw[f]; ok && bytes.Equal(bytes.TrimSpace(v), []byte("null")) {
			if a.nulls == nil {
				a.nulls = make(map[string]bool)
			}
			a.nulls[f] = true
		}
	}
	*d = InvoiceDocument(a)
	return nil
}

// ExplicitNull indica si el campo de nivel superior vino presente con null.
func (d *InvoiceDocument) ExplicitNull(field string) bool {
	return d.nulls[field]
}

// InvoiceDetailDocument línea de detalle del documento.
// line_total se almacena tal cual llega: no se valida contra quantity*price.
type InvoiceDetailDocument struct {
	Description string          `json:"description" validate:"max=255"`
	Quantity    int64           `json:"quantity" validate:"min=0"`
	Price       decimal.Decimal `json:"price" validate:"decimal10_2" swaggertype:"string" example:"50.00"`
	LineTotal   decimal.Decimal `json:"line_total" validate:"decimal10_2" swaggertype:"string" example:"100.00"`
}

// InvoiceResponse factura serializada. El conjunto de campos es simétrico
// al documento de entrada (mismo esquema de lectura y escritura).
type InvoiceResponse struct {
	InvoiceNumber string                  `json:"invoice_number"`
	CustomerName  string                  `json:"customer_name"`
	Date          string                  `json:"date"` // YYYY-MM-DD
	Details       []InvoiceDetailResponse `json:"details"`
}

// InvoiceDetailResponse línea de detalle en la respuesta, en orden de inserción.
type InvoiceDetailResponse struct {
	Description string   `json:"description"`
	Quantity    int64    `json:"quantity"`
	Price       Decimal2 `json:"price" swaggertype:"string" example:"50.00"`
	LineTotal   Decimal2 `json:"line_total" swaggertype:"string" example:"100.00"`
}
