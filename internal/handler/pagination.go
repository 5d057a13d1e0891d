// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"net/http"
	"net/url"
	"strconv"
)

// pageWindow is how many numbered links surround the current page.
const pageWindow = 2

// Pagination is the view model for partials/pagination.html.
type Pagination struct {
	CurrentPage int
	TotalPages  int
	TotalItems  int
	HasPrev     bool
	HasNext     bool
	Pages       []PaginationPage

	base  string
	query string // encoded filters, without page
}

// PaginationPage is one numbered link or an ellipsis gap.
type PaginationPage struct {
	Number     int
	URL        string
	IsCurrent  bool
	IsEllipsis bool
}

// BuildPagination pages totalItems at perPage per page under baseURL. Every
// non-empty query parameter except page is carried into the links.
func BuildPagination(currentPage, totalItems, perPage int, baseURL string, query url.Values) Pagination {
	perPage = max(perPage, 1)
	total := max((totalItems+perPage-1)/perPage, 1)
	current := max(currentPage, 1)

	kept := url.Values{}
	for k, v := range query {
		if k != "page" && len(v) > 0 && v[0] != "" {
			kept[k] = v
		}
	}

	p := Pagination{
		CurrentPage: current,
		TotalPages:  total,
		TotalItems:  totalItems,
		HasPrev:     current > 1,
		HasNext:     current < total,
		base:        baseURL,
		query:       kept.Encode(),
	}

	lo := max(1, min(current-pageWindow, total-2*pageWindow))
	hi := min(total, lo+2*pageWindow)
	if lo > 1 {
		p.link(1)
		if lo > 2 {
			p.Pages = append(p.Pages, PaginationPage{IsEllipsis: true})
		}
	}
	for n := lo; n <= hi; n++ {
		p.link(n)
	}
	if hi < total {
		if hi < total-1 {
			p.Pages = append(p.Pages, PaginationPage{IsEllipsis: true})
		}
		p.link(total)
	}
	return p
}

func (p *Pagination) link(n int) {
	p.Pages = append(p.Pages, PaginationPage{Number: n, URL: p.PageURL(n), IsCurrent: n == p.CurrentPage})
}

// PageURL links to page n. Page 1 carries no page parameter.
func (p Pagination) PageURL(n int) string {
	q := p.query
	if n > 1 {
		if q != "" {
			q += "&"
		}
		q += "page=" + strconv.Itoa(n)
	}
	if q == "" {
		return p.base
	}
	return p.base + "?" + q
}

func (p Pagination) PrevURL() string { return p.PageURL(p.CurrentPage - 1) }
func (p Pagination) NextURL() string { return p.PageURL(p.CurrentPage + 1) }

// ShouldShow hides the control for a single page.
func (p Pagination) ShouldShow() bool { return p.TotalPages > 1 }

// pageParam reads ?page=, defaulting to 1.
func pageParam(r *http.Request) int {
	if n, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && n > 0 {
		return n
	}
	return 1
}

// limitOffset reads ?limit= (capped at maxLimit) and ?offset= for JSON listings.
func limitOffset(r *http.Request, defaultLimit, maxLimit int) (limit, offset int) {
	q := r.URL.Query()
	limit = defaultLimit
	if n, err := strconv.Atoi(q.Get("limit")); err == nil && n > 0 {
		limit = min(n, maxLimit)
	}
	if n, err := strconv.Atoi(q.Get("offset")); err == nil && n > 0 {
		offset = n
	}
	return limit, offset
}
