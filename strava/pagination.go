package strava

import (
	"net/url"
	"strconv"
	"strings"
)

const DefaultPerPage = 30

// Pagination selects a window of a list endpoint. Before and After are
// epoch-second time cursors, Page and PerPage are page cursors. A zero
// value means the field is left out of the query.
type Pagination struct {
	Before  int64
	After   int64
	Page    int
	PerPage int
}

func DefaultPagination() Pagination {
	return Pagination{
		PerPage: DefaultPerPage,
	}
}

type QueryParam struct {
	Key   string
	Value int64
}

// Params returns the non-zero fields in the order before, after, page,
// per_page.
func (p Pagination) Params() []QueryParam {
	var params []QueryParam
	if p.Before != 0 {
		params = append(params, QueryParam{"before", p.Before})
	}
	if p.After != 0 {
		params = append(params, QueryParam{"after", p.After})
	}
	if p.Page != 0 {
		params = append(params, QueryParam{"page", int64(p.Page)})
	}
	if p.PerPage != 0 {
		params = append(params, QueryParam{"per_page", int64(p.PerPage)})
	}
	return params
}

// Encode renders Params as a query string. Unlike url.Values.Encode it
// keeps the parameter order.
func (p Pagination) Encode() string {
	params := p.Params()
	parts := make([]string, len(params))
	for i, param := range params {
		parts[i] = url.QueryEscape(param.Key) + "=" + strconv.FormatInt(param.Value, 10)
	}
	return strings.Join(parts, "&")
}
