package dto

// PageRequest paginación 1-indexada para listados.
type PageRequest struct {
	Page int `query:"page"`
	Size int `query:"size"`
}

// DefaultPage aplica valores por defecto si Page/Size no vinieron en la query.
// Valores explícitos inválidos (page=0) se dejan para que el caso de uso los rechace.
func (p *PageRequest) DefaultPage(pageSet, sizeSet bool) {
	if !pageSet {
		p.Page = 1
	}
	if !sizeSet {
		p.Size = 20
	}
}

// PageResponse metadatos de página en respuestas.
type PageResponse struct {
	Page       int   `json:"page"`
	Size       int   `json:"size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
}

// ErrorResponse cuerpo de error HTTP.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
