package model

// PageSize is the number of articles shown per listing page.
const PageSize = 10

// Page is one client-side page of an article listing.
type Page struct {
	Number     int       `json:"number"`
	TotalPages int       `json:"total_pages"`
	Articles   []Article `json:"articles"`
}

// Paginate slices articles into the requested 1-based page. Out of range page
// numbers are clamped so the caller always gets a renderable page.
func Paginate(articles []Article, number int) Page {
	total := (len(articles) + PageSize - 1) / PageSize
	if total == 0 {
		return Page{Number: 1, TotalPages: 0, Articles: []Article{}}
	}
	if number < 1 {
		number = 1
	}
	if number > total {
		number = total
	}

	start := (number - 1) * PageSize
	end := start + PageSize
	if end > len(articles) {
		end = len(articles)
	}
	return Page{Number: number, TotalPages: total, Articles: articles[start:end]}
}

func (p Page) HasNext() bool {
	return p.Number < p.TotalPages
}

func (p Page) HasPrev() bool {
	return p.Number > 1
}
