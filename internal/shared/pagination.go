package shared

import "math"

// Pagination contains metadata for paginated listings. Pages are 0-based to
// match the listing API.
type Pagination struct {
	Page       int `json:"page"`
	Size       int `json:"size"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// NewPagination computes pagination metadata.
func NewPagination(page, size, total int) Pagination {
	if size <= 0 {
		size = 10
	}
	if page < 0 {
		page = 0
	}
	totalPages := int(math.Ceil(float64(total) / float64(size)))
	return Pagination{Page: page, Size: size, Total: total, TotalPages: totalPages}
}
