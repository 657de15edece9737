package billing

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Facturacion-api/internal/application/dto"
	"github.com/jhoicas/Facturacion-api/internal/domain"
)

// Instancia global del validador, configurada una sola vez.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()

	// Reportar errores con el nombre JSON del campo, no el de Go.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// Exponer decimal.Decimal como string para las reglas custom.
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			return d.String()
		}
		return nil
	}, decimal.Decimal{})

	// decimal10_2: máximo 10 dígitos en total, 2 decimales (NUMERIC(10,2)).
	if err := v.RegisterValidation("decimal10_2", isDecimal10_2); err != nil {
		panic("registrar validación decimal10_2: " + err.Error())
	}
	return v
}

// isDecimal10_2 valida precisión: hasta 8 dígitos enteros y 2 decimales.
func isDecimal10_2(fl validator.FieldLevel) bool {
	s, ok := fl.Field().Interface().(string)
	if !ok {
		return false
	}
	if _, err := decimal.NewFromString(s); err != nil {
		return false
	}
	s = strings.TrimPrefix(s, "-")
	intPart, fracPart, _ := strings.Cut(s, ".")
	if len(fracPart) > 2 {
		return false
	}
	intPart = strings.TrimLeft(intPart, "0")
	return len(intPart) <= 8
}

// requiredFields campos de nivel superior exigidos en modo completo
// (create y full update). En merge-patch los ausentes se omiten.
var requiredFields = []string{"invoice_number", "customer_name", "date", "details"}

// validateDocument valida el documento contra las restricciones del modelo.
// En modo parcial los campos ausentes no se validan; en modo completo la
// ausencia de cualquier campo de nivel superior es una violación.
// Devuelve nil si el documento es válido.
func validateDocument(doc *dto.InvoiceDocument, partial bool) *domain.ValidationError {
	verr := domain.NewValidationError()

	if !partial {
		present := map[string]bool{
			"invoice_number": doc.InvoiceNumber != nil,
			"customer_name":  doc.CustomerName != nil,
			"date":           doc.Date != nil,
			"details":        doc.Details != nil,
		}
		for _, f := range requiredFields {
			if !present[f] && !doc.ExplicitNull(f) {
				verr.Add(f, "este campo es requerido")
			}
		}
	}

	// null explícito no es lo mismo que ausente: se rechaza siempre,
	// también en merge-patch.
	for _, f := range requiredFields {
		if doc.ExplicitNull(f) {
			verr.Add(f, "este campo no puede ser nulo")
		}
	}

	// Cadenas presentes pero vacías: el campo existe pero no tiene valor
	// utilizable (una factura con invoice_number "" sería inalcanzable
	// para actualizaciones).
	if doc.InvoiceNumber != nil && *doc.InvoiceNumber == "" {
		verr.Add("invoice_number", "este campo no puede estar en blanco")
	}
	if doc.CustomerName != nil && *doc.CustomerName == "" {
		verr.Add("customer_name", "este campo no puede estar en blanco")
	}

	if err := validate.Struct(doc); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			// Error de uso del validador, no de datos: propagar como violación genérica.
			verr.Add("non_field_errors", err.Error())
		} else {
			for _, fe := range fieldErrs {
				verr.Add(fieldName(fe), fieldMessage(fe))
			}
		}
	}

	if verr.Empty() {
		return nil
	}
	return verr
}

// fieldName recorta el tipo raíz del namespace del error:
// "InvoiceDocument.details[2].price" -> "details[2].price".
func fieldName(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

// fieldMessage traduce el tag violado a un mensaje por campo.
func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "max":
		return fmt.Sprintf("asegúrese de que este campo no tenga más de %s caracteres", fe.Param())
	case "min":
		return fmt.Sprintf("asegúrese de que este valor sea mayor o igual a %s", fe.Param())
	case "datetime":
		return "la fecha debe tener el formato YYYY-MM-DD"
	case "decimal10_2":
		return "asegúrese de que no haya más de 10 dígitos en total y 2 decimales"
	default:
		return "valor inválido"
	}
}
