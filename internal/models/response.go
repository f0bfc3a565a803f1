package models

// Pagination describes one page of a list response.
type Pagination struct {
	Page            int  `json:"page"`
	Limit           int  `json:"limit"`
	PageCount       int  `json:"pageCount"`
	Total           int  `json:"total"`
	HasNextPage     bool `json:"hasNextPage"`
	HasPreviousPage bool `json:"hasPreviousPage"`
}

// NewPagination computes page metadata for total items.
func NewPagination(page, limit, total int) Pagination {
	if limit <= 0 {
		limit = total
	}
	pageCount := 0
	if limit > 0 {
		pageCount = (total + limit - 1) / limit
	}
	return Pagination{
		Page:            page,
		Limit:           limit,
		PageCount:       pageCount,
		Total:           total,
		HasNextPage:     page < pageCount,
		HasPreviousPage: page > 1,
	}
}

type Meta struct {
	Pagination Pagination `json:"pagination"`
}

// ListResponse is the envelope of every collection endpoint.
type ListResponse[T any] struct {
	Data []T  `json:"data"`
	Meta *Meta `json:"meta,omitempty"`
}

// DataResponse is the envelope of single-item endpoints.
type DataResponse[T any] struct {
	Message string `json:"message,omitempty"`
	Data    T      `json:"data"`
}

// MessageResponse carries a bare message, used for deletes and errors.
type MessageResponse struct {
	Message string `json:"message"`
}
