package services

import (
	"strconv"
	"strings"

	"yatube/app/models"
)

// DefaultPerPage is how many posts a listing page shows.
const DefaultPerPage = 10

// Page is one page of a post listing.
type Page struct {
	Number   int            `json:"number"`
	PerPage  int            `json:"per_page"`
	Count    int            `json:"count"`
	NumPages int            `json:"num_pages"`
	Posts    []*models.Post `json:"results"`
}

// NewPage resolves the requested page number against count items.
// A missing or non-numeric number yields the first page; a number out
// of range yields the last page. An empty listing still has one page.
func NewPage(raw string, count, perPage int) *Page {
	if perPage < 1 {
		perPage = DefaultPerPage
	}
	numPages := (count + perPage - 1) / perPage
	if numPages < 1 {
		numPages = 1
	}

	number := ParsePageNumber(raw)
	if number < 1 || number > numPages {
		number = numPages
	}

	return &Page{Number: number, PerPage: perPage, Count: count, NumPages: numPages}
}

// ParsePageNumber reads a requested page number. Anything that is not an
// integer asks for the first page.
func ParsePageNumber(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 1
	}
	return n
}

// Offset is the index of the first item on the page.
func (p *Page) Offset() int {
	return (p.Number - 1) * p.PerPage
}

func (p *Page) HasNext() bool     { return p.Number < p.NumPages }
func (p *Page) HasPrevious() bool { return p.Number > 1 }

func (p *Page) HasOtherPages() bool {
	return p.HasNext() || p.HasPrevious()
}

func (p *Page) NextPageNumber() int {
	if !p.HasNext() {
		return p.Number
	}
	return p.Number + 1
}

func (p *Page) PreviousPageNumber() int {
	if !p.HasPrevious() {
		return p.Number
	}
	return p.Number - 1
}

// PageRange lists every page number, for the paginator links.
func (p *Page) PageRange() []int {
	r := make([]int, p.NumPages)
	for i := range r {
		r[i] = i + 1
	}
	return r
}
