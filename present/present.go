// Copyright 2024 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package present holds the small pieces of view logic shared by every
// surface: pagination math, breadcrumbs and status labels.
package present

import (
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const DefaultPageSize = 10

type Page struct {
	Page     int  `json:"page"`
	PageSize int  `json:"pageSize"`
	Pages    int  `json:"pages"`
	Total    int  `json:"total"`
	Offset   int  `json:"offset"`
	HasPrev  bool `json:"hasPrev"`
	HasNext  bool `json:"hasNext"`
}

// Paginate computes the window for a 1-based page. Out of range pages are
// clamped to the first or last page.
func Paginate(total, page, size int) Page {
	if size <= 0 {
		size = DefaultPageSize
	}
	if total < 0 {
		total = 0
	}
	pages := (total + size - 1) / size
	if pages == 0 {
		pages = 1
	}
	if page < 1 {
		page = 1
	}
	if page > pages {
		page = pages
	}
	return Page{
		Page:     page,
		PageSize: size,
		Pages:    pages,
		Total:    total,
		Offset:   (page - 1) * size,
		HasPrev:  page > 1,
		HasNext:  page < pages,
	}
}

// Window returns the slice bounds of p within a list of length n.
func (p Page) Window(n int) (start, end int) {
	start = min(p.Offset, n)
	end = min(p.Offset+p.PageSize, n)
	return start, end
}

type Crumb struct {
	Label string `json:"label"`
	Href  string `json:"href"`
}

// Breadcrumbs builds one crumb per path segment, home first. labels maps a
// segment to its display label; unknown segments are title-cased.
func Breadcrumbs(path string, labels map[string]string) []Crumb {
	crumbs := []Crumb{{Label: label("", labels), Href: "/"}}
	href := ""
	for _, seg := range strings.Split(path, "/") {
		if seg == "" {
			continue
		}
		href += "/" + seg
		crumbs = append(crumbs, Crumb{Label: label(seg, labels), Href: href})
	}
	return crumbs
}

func label(seg string, labels map[string]string) string {
	if l, ok := labels[seg]; ok {
		return l
	}
	if seg == "" {
		return "Home"
	}
	words := strings.FieldsFunc(seg, func(r rune) bool { return r == '-' || r == '_' })
	return cases.Title(language.Und, cases.NoLower).String(strings.Join(words, " "))
}

// Stars renders a 0..5 review score.
func Stars(score int32) string {
	score = max(0, min(score, 5))
	return strings.Repeat("★", int(score)) + strings.Repeat("☆", int(5-score)) +
		" (" + strconv.Itoa(int(score)) + "/5)"
}
