package sql

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// DefaultPerPage is used when a non-positive page size is requested.
const DefaultPerPage = 15

// PageResolver returns the requested page for the given query parameter
// name. Invalid or missing pages resolve to 1.
type PageResolver func(pageName string) int

// PathResolver returns the base URL used to build page links.
type PathResolver func() string

type pageConfig struct {
	page         int
	pageName     string
	columns      []string
	path         string
	query        url.Values
	fragment     string
	pageResolver PageResolver
	pathResolver PathResolver
}

// PageOption configures Paginate.
type PageOption func(*pageConfig)

// WithPage requests an explicit page instead of resolving it.
func WithPage(page int) PageOption {
	return func(c *pageConfig) { c.page = page }
}

// WithPageName sets the query parameter carrying the page number.
func WithPageName(name string) PageOption {
	return func(c *pageConfig) { c.pageName = name }
}

// WithColumns sets the columns selected for the page and counted.
func WithColumns(columns ...string) PageOption {
	return func(c *pageConfig) { c.columns = columns }
}

// WithPath sets the base URL of page links.
func WithPath(path string) PageOption {
	return func(c *pageConfig) { c.path = path }
}

// WithQuery adds query parameters carried by every page link.
func WithQuery(query url.Values) PageOption {
	return func(c *pageConfig) { c.query = query }
}

// WithFragment sets the URL fragment appended to page links.
func WithFragment(fragment string) PageOption {
	return func(c *pageConfig) { c.fragment = fragment }
}

// WithPageResolver sets the resolver used when no page is given.
func WithPageResolver(r PageResolver) PageOption {
	return func(c *pageConfig) { c.pageResolver = r }
}

// WithPathResolver sets the resolver used when no path is given.
func WithPathResolver(r PathResolver) PageOption {
	return func(c *pageConfig) { c.pathResolver = r }
}

// WithRequest resolves the page, the path and the extra query parameters
// from an HTTP request.
func WithRequest(r *http.Request) PageOption {
	return func(c *pageConfig) {
		c.pageResolver = RequestPageResolver(r)
		c.pathResolver = RequestPathResolver(r)
		c.query = r.URL.Query()
	}
}

// RequestPageResolver reads the page from the request query string.
func RequestPageResolver(r *http.Request) PageResolver {
	return func(pageName string) int {
		n, err := strconv.Atoi(r.URL.Query().Get(pageName))
		if err != nil || n < 1 {
			return 1
		}
		return n
	}
}

// RequestPathResolver builds "scheme://host/path" from the request.
func RequestPathResolver(r *http.Request) PathResolver {
	return func() string {
		scheme := "http://"
		if r.TLS != nil {
			scheme = "https://"
		}
		return scheme + r.Host + "/" + strings.TrimPrefix(r.URL.Path, "/")
	}
}

func newPageConfig(opts []PageOption) *pageConfig {
	c := &pageConfig{
		pageName:     "page",
		columns:      []string{"*"},
		pageResolver: func(string) int { return 1 },
		pathResolver: func() string { return "/" },
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.page == 0 {
		c.page = c.pageResolver(c.pageName)
	}
	if c.page < 1 {
		c.page = 1
	}
	if c.path == "" {
		c.path = c.pathResolver()
	}
	if c.path != "/" {
		c.path = strings.TrimRight(c.path, "/")
	}
	return c
}

// Paginate counts the matching rows and fetches one page of them. A zero
// total skips the page query.
func (b *Builder) Paginate(ctx context.Context, perPage int, opts ...PageOption) (*Paginator, error) {
	c := newPageConfig(opts)
	if perPage <= 0 {
		perPage = DefaultPerPage
	}
	total, err := b.CountForPagination(ctx, c.columns...)
	if err != nil {
		return nil, err
	}
	var items []Row
	if total > 0 {
		if items, err = b.Clone().ForPage(c.page, perPage).Get(ctx, c.columns...); err != nil {
			return nil, err
		}
	}
	return newPaginator(items, total, perPage, c), nil
}

// SimplePaginate fetches one page without counting. It over-fetches one
// row to learn whether a next page exists.
func (b *Builder) SimplePaginate(ctx context.Context, perPage int, opts ...PageOption) (*Paginator, error) {
	c := newPageConfig(opts)
	if perPage <= 0 {
		perPage = DefaultPerPage
	}
	items, err := b.Clone().Offset((c.page-1)*perPage).Limit(perPage+1).Get(ctx, c.columns...)
	if err != nil {
		return nil, err
	}
	p := &Paginator{
		PerPage:     perPage,
		CurrentPage: c.page,
		simple:      true,
		path:        c.path,
		pageName:    c.pageName,
		query:       c.query,
		fragment:    c.fragment,
	}
	p.setItems(items)
	p.LastPage = p.CurrentPage
	if p.HasMore {
		p.LastPage++
	}
	return p, nil
}

// CountForPagination returns the total used by Paginate. Grouped queries
// are counted through a derived table.
func (b *Builder) CountForPagination(ctx context.Context, columns ...string) (int64, error) {
	rows, err := b.PaginationCountQuery(columns...).Get(ctx)
	if err != nil || len(rows) == 0 {
		return 0, err
	}
	return rows[0].Int64("aggregate")
}

// PaginationCountQuery returns the query CountForPagination runs.
func (b *Builder) PaginationCountQuery(columns ...string) *Builder {
	if len(columns) == 0 {
		columns = []string{"*"}
	}
	columns = withoutSelectAliases(columns)
	if len(b.groups) > 0 || len(b.havings) > 0 {
		inner := b.CloneWithout(ClauseOrders, ClauseLimit, ClauseOffset).
			CloneWithoutBindings(BindOrder, BindUnionOrder)
		if len(inner.columns) == 0 && len(b.joins) > 0 {
			inner.Select(b.qualify("*"))
		}
		// The source tables are out of scope of the derived table.
		return b.newQuery().FromSub(inner, "aggregate_table").setAggregate("count", []string{"*"})
	}
	if len(b.unions) > 0 {
		return b.CloneWithout(ClauseOrders, ClauseLimit, ClauseOffset).
			CloneWithoutBindings(BindOrder, BindUnionOrder).
			setAggregate("count", columns)
	}
	return b.CloneWithout(ClauseColumns, ClauseOrders, ClauseLimit, ClauseOffset).
		CloneWithoutBindings(BindSelect, BindOrder).
		setAggregate("count", columns)
}

// withoutSelectAliases strips "as alias" suffixes, which break counts.
func withoutSelectAliases(columns []string) []string {
	out := make([]string, len(columns))
	for i, c := range columns {
		if j := aliasIndex(c); j >= 0 {
			c = c[:j]
		}
		out[i] = c
	}
	return out
}

// Paginator is one page of results with the links to its neighbours.
type Paginator struct {
	Items       []Row
	Total       int64
	PerPage     int
	CurrentPage int
	LastPage    int
	HasMore     bool

	simple   bool
	path     string
	pageName string
	query    url.Values
	fragment string
}

func newPaginator(items []Row, total int64, perPage int, c *pageConfig) *Paginator {
	p := &Paginator{
		Total:       total,
		PerPage:     perPage,
		CurrentPage: c.page,
		LastPage:    max(int(math.Ceil(float64(total)/float64(perPage))), 1),
		path:        c.path,
		pageName:    c.pageName,
		query:       c.query,
		fragment:    c.fragment,
	}
	p.setItems(items)
	if p.CurrentPage < p.LastPage {
		p.HasMore = true
	}
	return p
}

// setItems keeps at most PerPage items and notes whether more exist.
func (p *Paginator) setItems(items []Row) {
	p.HasMore = len(items) > p.PerPage
	if len(items) > p.PerPage {
		items = items[:p.PerPage]
	}
	p.Items = items
}

// Path returns the base URL of page links.
func (p *Paginator) Path() string { return p.path }

// PageName returns the query parameter carrying the page number.
func (p *Paginator) PageName() string { return p.pageName }

// Count returns the number of items on the page.
func (p *Paginator) Count() int { return len(p.Items) }

// URL returns the link to the given page. Pages below 1 link to page 1.
func (p *Paginator) URL(page int) string {
	page = max(page, 1)
	params := url.Values{}
	for k, vs := range p.query {
		params[k] = append([]string(nil), vs...)
	}
	params.Set(p.pageName, strconv.Itoa(page))
	sep := "?"
	if strings.Contains(p.path, "?") {
		sep = "&"
	}
	u := p.path + sep + params.Encode()
	if p.fragment != "" {
		u += "#" + p.fragment
	}
	return u
}

// HasMorePages reports whether a page follows the current one.
func (p *Paginator) HasMorePages() bool { return p.HasMore }

// OnFirstPage reports whether the current page is the first.
func (p *Paginator) OnFirstPage() bool { return p.CurrentPage <= 1 }

// NextPageURL returns the link to the next page, or "" on the last page.
func (p *Paginator) NextPageURL() string {
	if !p.HasMorePages() {
		return ""
	}
	return p.URL(p.CurrentPage + 1)
}

// PreviousPageURL returns the link to the previous page, or "" on the
// first page.
func (p *Paginator) PreviousPageURL() string {
	if p.CurrentPage <= 1 {
		return ""
	}
	return p.URL(p.CurrentPage - 1)
}

// FirstItem returns the 1-based position of the first item, or 0 when the
// page is empty.
func (p *Paginator) FirstItem() int {
	if len(p.Items) == 0 {
		return 0
	}
	return (p.CurrentPage-1)*p.PerPage + 1
}

// LastItem returns the 1-based position of the last item, or 0 when the
// page is empty.
func (p *Paginator) LastItem() int {
	if len(p.Items) == 0 {
		return 0
	}
	return p.FirstItem() + len(p.Items) - 1
}

type paginatorJSON struct {
	CurrentPage  int     `json:"current_page"`
	Data         []Row   `json:"data"`
	FirstPageURL string  `json:"first_page_url"`
	From         *int    `json:"from"`
	LastPage     *int    `json:"last_page,omitempty"`
	LastPageURL  *string `json:"last_page_url,omitempty"`
	NextPageURL  *string `json:"next_page_url"`
	Path         string  `json:"path"`
	PerPage      int     `json:"per_page"`
	PrevPageURL  *string `json:"prev_page_url"`
	To           *int    `json:"to"`
	Total        *int64  `json:"total,omitempty"`
}

// MarshalJSON encodes the page in the conventional paginator layout.
// Absent links and positions are null.
func (p *Paginator) MarshalJSON() ([]byte, error) {
	v := paginatorJSON{
		CurrentPage:  p.CurrentPage,
		Data:         p.Items,
		FirstPageURL: p.URL(1),
		From:         nonZero(p.FirstItem()),
		NextPageURL:  nonEmpty(p.NextPageURL()),
		Path:         p.path,
		PerPage:      p.PerPage,
		PrevPageURL:  nonEmpty(p.PreviousPageURL()),
		To:           nonZero(p.LastItem()),
	}
	if v.Data == nil {
		v.Data = []Row{}
	}
	if !p.simple {
		last, total, lastURL := p.LastPage, p.Total, p.URL(p.LastPage)
		v.LastPage, v.Total, v.LastPageURL = &last, &total, &lastURL
	}
	return json.Marshal(v)
}

func nonZero(n int) *int {
	if n == 0 {
		return nil
	}
	return &n
}

func nonEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
