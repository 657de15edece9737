package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Facturacion-api/internal/application/billing"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	InvoiceUC *billing.InvoiceUseCase
}

// Router registra las rutas de la API. PUT y PATCH aceptan también la
// variante con :number, pero el contrato localiza la factura por el
// invoice_number del cuerpo.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	invoices := api.Group("/invoices")
	invoiceHandler := NewInvoiceHandler(deps.InvoiceUC)
	invoices.Post("/", invoiceHandler.Create)
	invoices.Put("/", invoiceHandler.Update)
	invoices.Put("/:number", invoiceHandler.Update)
	invoices.Patch("/", invoiceHandler.Patch)
	invoices.Patch("/:number", invoiceHandler.Patch)
}
