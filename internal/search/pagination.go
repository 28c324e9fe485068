package search

import "torrentstream/webclient/internal/domain"

// Page is a derived view over an already-fetched result set. Building one
// never touches the backend.
type Page struct {
	Items     []domain.SearchResult `json:"items"`
	Number    int                   `json:"page"`
	PageCount int                   `json:"pageCount"`
	Total     int                   `json:"total"`
	HasPrev   bool                  `json:"hasPrev"`
	HasNext   bool                  `json:"hasNext"`
	// Window lists the page numbers to render: at most two before and two
	// after the current page.
	Window []int `json:"window"`
}

// Paginate slices results into the requested page. Page numbers are
// one-based and clamped into the valid range.
func Paginate(results []domain.SearchResult, page, size int) Page {
	if size <= 0 {
		size = 1
	}
	count := (len(results) + size - 1) / size
	if count == 0 {
		count = 1
	}
	if page < 1 {
		page = 1
	}
	if page > count {
		page = count
	}

	start := (page - 1) * size
	end := start + size
	if start > len(results) {
		start = len(results)
	}
	if end > len(results) {
		end = len(results)
	}

	return Page{
		Items:     results[start:end],
		Number:    page,
		PageCount: count,
		Total:     len(results),
		HasPrev:   page > 1,
		HasNext:   page < count,
		Window:    pageWindow(page, count),
	}
}

func pageWindow(current, count int) []int {
	first := current - 2
	if first < 1 {
		first = 1
	}
	last := current + 2
	if last > count {
		last = count
	}
	window := make([]int, 0, last-first+1)
	for n := first; n <= last; n++ {
		window = append(window, n)
	}
	return window
}
