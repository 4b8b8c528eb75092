// Copyright 2025 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
)

const (
	DefaultPageSize = 100
	MaxPageSize     = 100

	OrderAsc  = "asc"
	OrderDesc = "desc"
)

var ErrInvalidPaginationParameters = errors.New(
	"invalid pagination parameters",
)

// PaginationParams contains parsed pagination query values
type PaginationParams struct {
	Count int
	Page  int
	Order string
}

// Descending reports whether the listing is requested newest first
func (p PaginationParams) Descending() bool {
	return p.Order == OrderDesc
}

func queryInt(r *http.Request, name string, def int) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, ErrInvalidPaginationParameters
	}
	return n, nil
}

// ParsePagination parses the count, page and order query parameters,
// applying defaults and clamping count and page into range
func ParsePagination(r *http.Request) (PaginationParams, error) {
	count, err := queryInt(r, "count", DefaultPageSize)
	if err != nil {
		return PaginationParams{}, err
	}
	page, err := queryInt(r, "page", 1)
	if err != nil {
		return PaginationParams{}, err
	}
	order := OrderAsc
	if v := r.URL.Query().Get("order"); v != "" {
		order = strings.ToLower(v)
		if order != OrderAsc && order != OrderDesc {
			return PaginationParams{}, ErrInvalidPaginationParameters
		}
	}
	return PaginationParams{
		Count: min(max(count, 1), MaxPageSize),
		Page:  max(page, 1),
		Order: order,
	}, nil
}

// SetPaginationHeaders reports the total item and page counts of a listing
func SetPaginationHeaders(
	w http.ResponseWriter,
	totalItems int,
	params PaginationParams,
) {
	totalItems = max(totalItems, 0)
	if params.Count < 1 {
		params.Count = DefaultPageSize
	}
	totalPages := (totalItems + params.Count - 1) / params.Count
	w.Header().Set(
		"X-Pagination-Count-Total",
		strconv.Itoa(totalItems),
	)
	w.Header().Set(
		"X-Pagination-Page-Total",
		strconv.Itoa(totalPages),
	)
}

// Paginate returns the page of items selected by params
func Paginate[T any](items []T, params PaginationParams) []T {
	start := (params.Page - 1) * params.Count
	if start >= len(items) {
		return []T{}
	}
	end := min(start+params.Count, len(items))
	return items[start:end]
}
