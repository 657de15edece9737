package dto

// ErrorResponse cuerpo de error HTTP. Errors solo se llena en errores de
// validación: mapa campo -> mensajes.
type ErrorResponse struct {
	Code    string              `json:"code"`
	Message string              `json:"message"`
	Errors  map[string][]string `json:"errors,omitempty"`
}
