package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Facturacion-api/internal/application/billing"
	"github.com/jhoicas/Facturacion-api/internal/application/dto"
	"github.com/jhoicas/Facturacion-api/internal/domain"
)

// InvoiceHandler maneja las peticiones HTTP de facturas.
type InvoiceHandler struct {
	uc *billing.InvoiceUseCase
}

// NewInvoiceHandler construye el handler.
func NewInvoiceHandler(uc *billing.InvoiceUseCase) *InvoiceHandler {
	return &InvoiceHandler{uc: uc}
}

// Create godoc
// @Summary      Crear una factura con sus líneas de detalle
// @Tags         invoices
// @Accept       json
// @Produce      json
// @Param        body  body  dto.InvoiceDocument  true  "invoice_number, customer_name, date, details (la lista puede ser vacía)"
// @Success      201   {object}  dto.InvoiceResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/invoices [post]
func (h *InvoiceHandler) Create(c *fiber.Ctx) error {
	var doc dto.InvoiceDocument
	if err := c.BodyParser(&doc); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	resp, err := h.uc.Create(c.Context(), doc)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(resp)
}

// Update godoc
// @Summary      Reemplazar una factura existente (todos los campos requeridos)
// @Description  Localiza la factura por el invoice_number del cuerpo. Si details viene en el documento, las líneas existentes se eliminan y se recrean.
// @Tags         invoices
// @Accept       json
// @Produce      json
// @Param        body  body  dto.InvoiceDocument  true  "documento completo de la factura, incluido invoice_number"
// @Success      200   {object}  dto.InvoiceResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/invoices [put]
// @Router       /api/invoices/{number} [put]
func (h *InvoiceHandler) Update(c *fiber.Ctx) error {
	return h.update(c, false)
}

// Patch godoc
// @Summary      Actualizar parcialmente una factura (merge-patch)
// @Description  Solo se validan y aplican los campos presentes. details, si viene, sigue reemplazando todas las líneas.
// @Tags         invoices
// @Accept       json
// @Produce      json
// @Param        body  body  dto.InvoiceDocument  true  "documento parcial, incluido invoice_number"
// @Success      200   {object}  dto.InvoiceResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/invoices [patch]
// @Router       /api/invoices/{number} [patch]
func (h *InvoiceHandler) Patch(c *fiber.Ctx) error {
	return h.update(c, true)
}

// update comparte el contrato de PUT y PATCH: la factura siempre se localiza
// por el invoice_number del cuerpo. La variante de ruta con :number existe
// por forma REST; el parámetro no participa en la búsqueda.
func (h *InvoiceHandler) update(c *fiber.Ctx, partial bool) error {
	var doc dto.InvoiceDocument
	if err := c.BodyParser(&doc); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	resp, err := h.uc.Update(c.Context(), doc, partial)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(resp)
}

// writeError mapea errores de dominio a estados HTTP. Los fallos de
// persistencia (incluida la violación de unicidad de invoice_number) no se
// tratan de forma especial: llegan al caso final como 500.
func writeError(c *fiber.Ctx, err error) error {
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Code: "VALIDATION", Message: "datos inválidos", Errors: verr.Fields,
		})
	}
	if errors.Is(err, domain.ErrMissingInvoiceNumber) {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Code: "MISSING_INVOICE_NUMBER", Message: "invoice_number es requerido para actualizar",
		})
	}
	if errors.Is(err, domain.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
			Code: "NOT_FOUND", Message: "factura no encontrada",
		})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
		Code: "INTERNAL", Message: err.Error(),
	})
}
