package shared

// Filter carries list options from services to repositories.
// PageSize zero means the whole result set.
type Filter struct {
	Page     int
	PageSize int
	OrderBy  string
	OrderDir string
	Search   string
	// Filters holds column equality filters; each repository documents the keys it honours
	Filters map[string]any
}

// Paged reports whether the filter limits the result set to one page
func (f Filter) Paged() bool {
	return f.PageSize > 0
}

// Offset returns the row offset for the filter's page
func (f Filter) Offset() int {
	if f.Page <= 1 {
		return 0
	}
	return (f.Page - 1) * f.PageSize
}
