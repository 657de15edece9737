package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound             = errors.New("factura no encontrada")
	ErrMissingInvoiceNumber = errors.New("invoice_number es requerido para actualizar")
	ErrInvalidInput         = errors.New("entrada inválida")
)

// ValidationError agrupa violaciones de restricciones por campo.
// La clave es el nombre JSON del campo (para líneas: "details[i].campo");
// el valor es la lista de mensajes. Nunca es fatal: el cliente puede
// corregir el documento y reintentar.
type ValidationError struct {
	Fields map[string][]string
}

// NewValidationError crea un error de validación vacío.
func NewValidationError() *ValidationError {
	return &ValidationError{Fields: make(map[string][]string)}
}

// Add acumula un mensaje para el campo indicado.
func (e *ValidationError) Add(field, message string) {
	e.Fields[field] = append(e.Fields[field], message)
}

// Empty indica si no se acumuló ninguna violación.
func (e *ValidationError) Empty() bool {
	return len(e.Fields) == 0
}

// Error implementa error con un resumen determinista (campos ordenados).
func (e *ValidationError) Error() string {
	if e.Empty() {
		return "validación: sin errores"
	}
	fields := make([]string, 0, len(e.Fields))
	for f := range e.Fields {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	var b strings.Builder
	b.WriteString("validación: ")
	for i, f := range fields {
		if i > 0 {
			b.WriteString("; ")
		}
		fmt.Fprintf(&b, "%s: %s", f, strings.Join(e.Fields[f], ", "))
	}
	return b.String()
}
