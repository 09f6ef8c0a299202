package dto

type ProductFilters struct {
	UserID      string
	SearchQuery string // case-insensitive substring match on name
	SortBy      string // name, price, stock, created_at
	SortOrder   string // asc, desc
	Page        int
	PageSize    int
}
