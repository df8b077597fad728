package api

import (
	"math"
	"net/url"
	"strconv"

	"foodgram/orm"

	"github.com/gin-gonic/gin"
)

const (
	defaultPageSize = 6
	maxPageSize     = 100
	// maxPageNumber keeps (page-1)*limit well inside an int
	maxPageNumber = math.MaxInt32 / maxPageSize
)

// Paginated is the envelope of every list endpoint that supports paging.
type Paginated[T any] struct {
	Count    int64   `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  []T     `json:"results"`
}

type pageRequest struct {
	number int
	limit  int
}

func (p pageRequest) toPage() orm.Page {
	return orm.Page{Limit: p.limit, Offset: (p.number - 1) * p.limit}
}

// pageParams reads the 1-based "page" and the "limit" query parameters.
func (s *Server) pageParams(c *gin.Context) (pageRequest, bool) {
	p := pageRequest{number: 1, limit: s.pageSize}

	if raw := c.Query("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxPageNumber {
			abortInvalid(c, "page must be between 1 and "+strconv.Itoa(maxPageNumber))

			return p, false
		}
		p.number = n
	}

	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxPageSize {
			abortInvalid(c, "limit must be between 1 and "+strconv.Itoa(maxPageSize))

			return p, false
		}
		p.limit = n
	}

	return p, true
}

func paginate[T any](c *gin.Context, p pageRequest, total int64, results []T) Paginated[T] {
	out := Paginated[T]{Count: total, Results: results}
	if out.Results == nil {
		out.Results = []T{}
	}

	if int64(p.number*p.limit) < total {
		next := pageURL(c, p.number+1)
		out.Next = &next
	}
	if p.number > 1 {
		previous := pageURL(c, p.number-1)
		out.Previous = &previous
	}

	return out
}

// pageURL returns the absolute URL of the current request with its page
// parameter replaced.
func pageURL(c *gin.Context, number int) string {
	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	if forwarded := c.GetHeader("X-Forwarded-Proto"); forwarded != "" {
		scheme = forwarded
	}

	query := c.Request.URL.Query()
	query.Set("page", strconv.Itoa(number))

	u := url.URL{
		Scheme:   scheme,
		Host:     c.Request.Host,
		Path:     c.Request.URL.Path,
		RawQuery: query.Encode(),
	}

	return u.String()
}
