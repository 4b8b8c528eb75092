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
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePaginationDefaults(t *testing.T) {
	params, err := ParsePagination(
		httptest.NewRequest(http.MethodGet, "/api/v0/proposals", nil),
	)
	require.NoError(t, err)
	assert.Equal(t, DefaultPageSize, params.Count)
	assert.Equal(t, 1, params.Page)
	assert.Equal(t, OrderAsc, params.Order)
	assert.False(t, params.Descending())
}

func TestParsePagination(t *testing.T) {
	tests := []struct {
		query string
		want  PaginationParams
	}{
		{"count=25&page=3&order=DESC", PaginationParams{25, 3, OrderDesc}},
		{"count=999&page=0", PaginationParams{MaxPageSize, 1, OrderAsc}},
		{"count=-5&page=-2", PaginationParams{1, 1, OrderAsc}},
	}
	for _, tc := range tests {
		params, err := ParsePagination(
			httptest.NewRequest(http.MethodGet, "/api/v0/proposals?"+tc.query, nil),
		)
		require.NoError(t, err, tc.query)
		assert.Equal(t, tc.want, params, tc.query)
	}
}

func TestParsePaginationInvalid(t *testing.T) {
	for _, query := range []string{"count=abc", "page=1.5", "order=random"} {
		_, err := ParsePagination(
			httptest.NewRequest(http.MethodGet, "/api/v0/proposals?"+query, nil),
		)
		require.ErrorIs(t, err, ErrInvalidPaginationParameters, query)
	}
}

func TestSetPaginationHeaders(t *testing.T) {
	tests := []struct {
		total, count int
		pages        string
	}{
		{0, 10, "0"},
		{10, 10, "1"},
		{11, 10, "2"},
		{5, 0, "1"},
	}
	for _, tc := range tests {
		w := httptest.NewRecorder()
		SetPaginationHeaders(w, tc.total, PaginationParams{Count: tc.count, Page: 1})
		assert.Equal(t, tc.pages, w.Header().Get("X-Pagination-Page-Total"))
	}
}

func TestPaginate(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}
	assert.Equal(t, []int{1, 2}, Paginate(items, PaginationParams{Count: 2, Page: 1}))
	assert.Equal(t, []int{5}, Paginate(items, PaginationParams{Count: 2, Page: 3}))
	assert.Empty(t, Paginate(items, PaginationParams{Count: 2, Page: 4}))
}
