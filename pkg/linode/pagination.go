package linode

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"

	"github.com/fivetwenty-io/linode-client/internal/constants"
)

// End can be passed as the stop bound of Slice to mean "through the last
// element".
const End = math.MaxInt

// ListOptions tunes a listing.
type ListOptions struct {
	// PageSize requests a custom page size. It is sent with every page
	// fetch so page boundaries stay consistent. 0 keeps the API default.
	PageSize int
}

// listPage is one decoded page of a listing in either response shape.
type listPage struct {
	items   []json.RawMessage
	pages   int
	results int
}

// PaginatedList is a random-access view of a server-side paged listing.
// Page 1 is fetched on creation; every other page is fetched once, on first
// access. The totals recorded from page 1 are checked against every later
// page, and a mismatch fails with *StaleListError.
//
// A PaginatedList is not safe for concurrent use.
type PaginatedList[T any] struct {
	client  *Client
	schema  *Schema
	path    string
	parents []interface{}
	filter  *Filter
	wrap    func(*Resource) T

	pageSize       int
	customPageSize bool
	totalItems     int
	totalPages     int

	pages   [][]T
	fetched []bool
}

// listResources fetches the first page of a collection and wraps it.
func listResources[T any](ctx context.Context, client *Client, schema *Schema, parents []interface{},
	opts *ListOptions, filters []*Filter, wrap func(*Resource) T,
) (*PaginatedList[T], error) {
	resolved, err := schema.resolveParents(parents)
	if err != nil {
		return nil, err
	}

	var filter *Filter
	if len(filters) > 0 {
		filter = And(filters...)
		if filter.Err() != nil {
			return nil, filter.Err()
		}
	}

	list := &PaginatedList[T]{
		client:  client,
		schema:  schema,
		path:    schema.expand(schema.CollectionPath, nil, resolved),
		parents: resolved,
		filter:  filter,
		wrap:    wrap,
	}

	if opts != nil && opts.PageSize > 0 {
		if opts.PageSize < constants.MinPageSize || opts.PageSize > constants.MaxPageSize {
			return nil, fmt.Errorf("%w: page size %d outside [%d, %d]",
				ErrInvalidPageSize, opts.PageSize, constants.MinPageSize, constants.MaxPageSize)
		}

		list.pageSize = opts.PageSize
		list.customPageSize = true
	}

	first, err := list.request(ctx, 1)
	if err != nil {
		return nil, err
	}

	items, err := list.materialize(first)
	if err != nil {
		return nil, err
	}

	list.totalItems = first.results
	list.totalPages = first.pages

	if !list.customPageSize {
		list.pageSize = len(items)
		if list.pageSize == 0 {
			list.pageSize = constants.StandardPageSize
		}
	}

	slots := list.totalPages
	if slots < 1 {
		slots = 1
	}

	list.pages = make([][]T, slots)
	list.fetched = make([]bool, slots)
	list.pages[0] = items
	list.fetched[0] = true

	return list, nil
}

// request performs one page fetch.
func (l *PaginatedList[T]) request(ctx context.Context, page int) (*listPage, error) {
	query := url.Values{}
	if page > 1 {
		query.Set(constants.QueryPage, strconv.Itoa(page))
	}

	if l.customPageSize {
		query.Set(constants.QueryPageSize, strconv.Itoa(l.pageSize))
	}

	l.client.logger.Debug("Fetching page", map[string]interface{}{
		"type": l.schema.Name,
		"path": l.path,
		"page": page,
	})

	object, err := l.client.call(ctx, &Request{
		Method: http.MethodGet,
		Path:   l.path,
		Query:  query,
		Filter: l.filter,
	})
	if err != nil {
		return nil, fmt.Errorf("listing %s page %d: %w", l.schema.Name, page, err)
	}

	if object == nil {
		return nil, &UnexpectedResponseError{Message: fmt.Sprintf("listing %s page %d returned no body", l.schema.Name, page)}
	}

	return parsePage(l.schema, page, object)
}

// parsePage detects the response shape: "pages"/"results" with a "data"
// array, or the legacy "total_pages"/"total_results" with an array under
// the type's legacy key. A "page" field, when present, must echo the page
// that was requested.
func parsePage(schema *Schema, requested int, object map[string]json.RawMessage) (*listPage, error) {
	var (
		itemsKey, pagesKey, resultsKey string
		page                           listPage
	)

	_, hasPages := object["pages"]
	_, hasResults := object["results"]
	_, hasTotalPages := object["total_pages"]
	_, hasTotalResults := object["total_results"]

	switch {
	case hasPages || hasResults:
		itemsKey, pagesKey, resultsKey = "data", "pages", "results"
	case hasTotalPages || hasTotalResults:
		itemsKey, pagesKey, resultsKey = schema.LegacyListKey, "total_pages", "total_results"
		if itemsKey == "" {
			itemsKey = "data"
		}
	default:
		return nil, &UnexpectedResponseError{Message: fmt.Sprintf("%s listing has no paging fields", schema.Name)}
	}

	fields := []struct {
		key    string
		target interface{}
	}{
		{itemsKey, &page.items},
		{pagesKey, &page.pages},
		{resultsKey, &page.results},
	}

	for _, field := range fields {
		raw, ok := object[field.key]
		if !ok {
			return nil, &UnexpectedResponseError{Message: fmt.Sprintf("%s listing has no %q field", schema.Name, field.key)}
		}

		err := json.Unmarshal(raw, field.target)
		if err != nil {
			return nil, &UnexpectedResponseError{Message: fmt.Sprintf("%s listing field %q: %v", schema.Name, field.key, err)}
		}
	}

	if raw, ok := object["page"]; ok {
		var echoed int

		err := json.Unmarshal(raw, &echoed)
		if err != nil {
			return nil, &UnexpectedResponseError{Message: fmt.Sprintf("%s listing field \"page\": %v", schema.Name, err)}
		}

		if echoed != requested {
			return nil, &UnexpectedResponseError{
				Message: fmt.Sprintf("%s listing returned page %d for page %d", schema.Name, echoed, requested),
			}
		}
	}

	return &page, nil
}

func (l *PaginatedList[T]) materialize(page *listPage) ([]T, error) {
	items := make([]T, 0, len(page.items))

	for _, raw := range page.items {
		var object map[string]json.RawMessage

		err := json.Unmarshal(raw, &object)
		if err != nil {
			return nil, &UnexpectedResponseError{Message: fmt.Sprintf("%s list item is not an object: %v", l.schema.Name, err)}
		}

		resource, err := l.client.fromJSON(l.schema, l.parents, object)
		if err != nil {
			return nil, err
		}

		items = append(items, l.wrap(resource))
	}

	return items, nil
}

// loadPage fetches page slot index (0-based) unless it is cached.
func (l *PaginatedList[T]) loadPage(ctx context.Context, index int) ([]T, error) {
	if l.fetched[index] {
		return l.pages[index], nil
	}

	page, err := l.request(ctx, index+1)
	if err != nil {
		return nil, err
	}

	if page.pages != l.totalPages || page.results != l.totalItems {
		return nil, &StaleListError{
			Page:            index + 1,
			ExpectedPages:   l.totalPages,
			ExpectedResults: l.totalItems,
			ActualPages:     page.pages,
			ActualResults:   page.results,
		}
	}

	items, err := l.materialize(page)
	if err != nil {
		return nil, err
	}

	l.pages[index] = items
	l.fetched[index] = true

	return items, nil
}

// Len returns the total item count recorded from the first page. It never
// makes a request.
func (l *PaginatedList[T]) Len() int {
	return l.totalItems
}

// Pages returns the total page count recorded from the first page.
func (l *PaginatedList[T]) Pages() int {
	return l.totalPages
}

// PageSize returns the page size fixed when the list was created.
func (l *PaginatedList[T]) PageSize() int {
	return l.pageSize
}

// Filter returns the filter sent with every page fetch, or nil.
func (l *PaginatedList[T]) Filter() *Filter {
	return l.filter
}

// locate maps an element index to its page slot and in-page offset.
func (l *PaginatedList[T]) locate(i int) (int, int) {
	return i / l.pageSize, i % l.pageSize
}

// At returns element i. Negative indices count from the end.
func (l *PaginatedList[T]) At(ctx context.Context, i int) (T, error) {
	var zero T

	index := i
	if index < 0 {
		index += l.totalItems
	}

	if index < 0 || index >= l.totalItems {
		return zero, fmt.Errorf("%w: %d (length %d)", ErrIndexOutOfRange, i, l.totalItems)
	}

	slot, offset := l.locate(index)
	if slot >= len(l.pages) {
		return zero, &UnexpectedResponseError{Message: fmt.Sprintf("index %d maps to page %d of %d", index, slot+1, len(l.pages))}
	}

	items, err := l.loadPage(ctx, slot)
	if err != nil {
		return zero, err
	}

	if offset >= len(items) {
		return zero, &UnexpectedResponseError{
			Message: fmt.Sprintf("page %d has %d items, wanted offset %d", slot+1, len(items), offset),
		}
	}

	return items[offset], nil
}

// First returns element 0.
func (l *PaginatedList[T]) First(ctx context.Context) (T, error) {
	return l.At(ctx, 0)
}

// Last returns the final element.
func (l *PaginatedList[T]) Last(ctx context.Context) (T, error) {
	return l.At(ctx, -1)
}

// Only returns the single element of a list of length one.
func (l *PaginatedList[T]) Only(ctx context.Context) (T, error) {
	if l.totalItems != 1 {
		var zero T

		return zero, fmt.Errorf("%w: length %d", ErrListNotSingular, l.totalItems)
	}

	return l.At(ctx, 0)
}

// sliceBounds resolves negative bounds relative to length and clamps both
// to [0, length].
func sliceBounds(start, stop, length int) (int, int) {
	resolve := func(v int) int {
		if v < 0 {
			v += length
		}

		if v < 0 {
			return 0
		}

		if v > length {
			return length
		}

		return v
	}

	return resolve(start), resolve(stop)
}

// Slice returns elements [start, stop). Negative bounds count from the end,
// bounds are clamped to the list, and stop <= start yields an empty slice.
// Only the pages the range touches are fetched.
func (l *PaginatedList[T]) Slice(ctx context.Context, start, stop int) ([]T, error) {
	return l.SliceStep(ctx, start, stop, 1)
}

// SliceStep is Slice with an explicit step. Only a step of 1 is supported.
func (l *PaginatedList[T]) SliceStep(ctx context.Context, start, stop, step int) ([]T, error) {
	if step != 1 {
		return nil, fmt.Errorf("%w: slice step %d", ErrNotImplemented, step)
	}

	from, to := sliceBounds(start, stop, l.totalItems)
	if to <= from {
		return []T{}, nil
	}

	out := make([]T, 0, to-from)

	for index := from; index < to; {
		slot, offset := l.locate(index)
		if slot >= len(l.pages) {
			return nil, &UnexpectedResponseError{Message: fmt.Sprintf("index %d maps to page %d of %d", index, slot+1, len(l.pages))}
		}

		items, err := l.loadPage(ctx, slot)
		if err != nil {
			return nil, err
		}

		if offset >= len(items) {
			return nil, &UnexpectedResponseError{
				Message: fmt.Sprintf("page %d has %d items, wanted offset %d", slot+1, len(items), offset),
			}
		}

		take := len(items) - offset
		if remaining := to - index; take > remaining {
			take = remaining
		}

		out = append(out, items[offset:offset+take]...)
		index += take
	}

	return out, nil
}

// All fetches every remaining page and returns all elements in order.
func (l *PaginatedList[T]) All(ctx context.Context) ([]T, error) {
	return l.Slice(ctx, 0, End)
}

// Set always fails: lists are read-only views.
func (l *PaginatedList[T]) Set(int, T) error {
	return ErrIndexMutation
}

// Delete always fails: lists are read-only views.
func (l *PaginatedList[T]) Delete(int) error {
	return ErrIndexMutation
}

// Iterator returns a forward iterator over the list. It is not rewindable;
// call Iterator again to start over.
func (l *PaginatedList[T]) Iterator(ctx context.Context) *Iterator[T] {
	return &Iterator[T]{ctx: ctx, list: l}
}

// Iterator walks a PaginatedList, fetching pages as it reaches them.
type Iterator[T any] struct {
	ctx  context.Context //nolint:containedctx
	list *PaginatedList[T]
	next int
}

// HasNext reports whether Next will return another element.
func (it *Iterator[T]) HasNext() bool {
	return it.next < it.list.Len()
}

// Next returns the next element.
func (it *Iterator[T]) Next() (T, error) {
	if !it.HasNext() {
		var zero T

		return zero, fmt.Errorf("%w: iterator exhausted", ErrIndexOutOfRange)
	}

	item, err := it.list.At(it.ctx, it.next)
	if err != nil {
		var zero T

		return zero, err
	}

	it.next++

	return item, nil
}

// ForEach calls fn for every remaining element, stopping at the first error.
func (it *Iterator[T]) ForEach(fn func(T) error) error {
	for it.HasNext() {
		item, err := it.Next()
		if err != nil {
			return err
		}

		err = fn(item)
		if err != nil {
			return err
		}
	}

	return nil
}

// All collects every remaining element.
func (it *Iterator[T]) All() ([]T, error) {
	var items []T

	err := it.ForEach(func(item T) error {
		items = append(items, item)

		return nil
	})
	if err != nil {
		return nil, err
	}

	return items, nil
}
