package transfer

import (
	"net/url"
	"strconv"
)

type Meta struct {
	CurrentPage int  `json:"current_page"`
	From        *int `json:"from"`
	LastPage    int  `json:"last_page"`
	PerPage     int  `json:"per_page"`
	To          *int `json:"to"`
	Total       int  `json:"total"`
}

type Links struct {
	First string  `json:"first"`
	Last  string  `json:"last"`
	Prev  *string `json:"prev"`
	Next  *string `json:"next"`
}

type Paginated[T any] struct {
	Data  []T   `json:"data"`
	Meta  Meta  `json:"meta"`
	Links Links `json:"links"`
}

// NewPaginated builds the list envelope. baseURL is the absolute endpoint
// URL; query carries the request's filters and is reused for every link with
// only "page" replaced. From and To are null on an empty page.
func NewPaginated[T any](data []T, page, perPage, total int, baseURL string, query url.Values) Paginated[T] {
	lastPage := 1
	if perPage > 0 && total > 0 {
		lastPage = (total + perPage - 1) / perPage
	}

	meta := Meta{CurrentPage: page, LastPage: lastPage, PerPage: perPage, Total: total}
	if len(data) > 0 {
		from := (page-1)*perPage + 1
		to := from + len(data) - 1
		meta.From, meta.To = &from, &to
	}

	link := func(n int) string {
		q := url.Values{}
		for k, v := range query {
			q[k] = v
		}
		q.Set("page", strconv.Itoa(n))
		return baseURL + "?" + q.Encode()
	}

	links := Links{First: link(1), Last: link(lastPage)}
	if page > 1 {
		prev := link(page - 1)
		links.Prev = &prev
	}
	if page < lastPage {
		next := link(page + 1)
		links.Next = &next
	}

	if data == nil {
		data = []T{}
	}
	return Paginated[T]{Data: data, Meta: meta, Links: links}
}
