package dto

// ErrorResponse cuerpo de error HTTP.
type ErrorResponse struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// ItemErrorDetails detalle del ítem que provocó el rechazo de un lote.
type ItemErrorDetails struct {
	Index     int    `json:"index"`
	ProductID string `json:"product_id"`
	Requested *int   `json:"requested,omitempty"`
	Available *int   `json:"available,omitempty"`
}
