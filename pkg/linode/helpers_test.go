package linode_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/linode-client/pkg/linode"
)

// HandlerFunc answers one fake API call.
type HandlerFunc func(req *linode.Request) (*linode.Response, error)

// FakeTransport is an in-memory linode.Transport keyed by "METHOD path".
type FakeTransport struct {
	mu       sync.Mutex
	routes   map[string]HandlerFunc
	requests []*linode.Request
}

func NewFakeTransport() *FakeTransport {
	return &FakeTransport{routes: make(map[string]HandlerFunc)}
}

func (f *FakeTransport) Handle(method, path string, handler HandlerFunc) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.routes[method+" "+path] = handler
}

// JSON registers a fixed JSON answer.
func (f *FakeTransport) JSON(method, path string, body interface{}) {
	f.Handle(method, path, func(*linode.Request) (*linode.Response, error) {
		return jsonResponse(body), nil
	})
}

// Pages registers a paged listing: pages[n] is the body of page n+1.
func (f *FakeTransport) Pages(path string, pages ...interface{}) {
	f.Handle(http.MethodGet, path, func(req *linode.Request) (*linode.Response, error) {
		page := 1
		if value := req.Query.Get("page"); value != "" {
			_, _ = fmt.Sscan(value, &page)
		}

		if page < 1 || page > len(pages) {
			return nil, &linode.APIError{StatusCode: http.StatusNotFound}
		}

		return jsonResponse(pages[page-1]), nil
	})
}

func (f *FakeTransport) Do(ctx context.Context, req *linode.Request) (*linode.Response, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	handler, ok := f.routes[req.Method+" "+req.Path]
	f.mu.Unlock()

	if !ok {
		return nil, &linode.APIError{StatusCode: http.StatusNotFound}
	}

	return handler(req)
}

// Requests returns the recorded requests.
func (f *FakeTransport) Requests() []*linode.Request {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]*linode.Request(nil), f.requests...)
}

// Calls counts requests for method and path.
func (f *FakeTransport) Calls(method, path string) int {
	count := 0

	for _, req := range f.Requests() {
		if req.Method == method && req.Path == path {
			count++
		}
	}

	return count
}

func jsonResponse(body interface{}) *linode.Response {
	if body == nil {
		return &linode.Response{StatusCode: http.StatusOK}
	}

	data, err := json.Marshal(body)
	if err != nil {
		panic(err)
	}

	return &linode.Response{StatusCode: http.StatusOK, Body: data}
}

// fakeClock is a settable clock.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.now = c.now.Add(d)
}

func newTestClient(t *testing.T, transport linode.Transport, opts ...linode.Option) *linode.Client {
	t.Helper()

	client, err := linode.NewClient(transport, opts...)
	require.NoError(t, err)

	return client
}

// listBody builds a page of the current response shape.
func listBody(page, pages, results int, items ...map[string]interface{}) map[string]interface{} {
	data := make([]interface{}, 0, len(items))
	for _, item := range items {
		data = append(data, item)
	}

	return map[string]interface{}{
		"data":    data,
		"page":    page,
		"pages":   pages,
		"results": results,
	}
}

// numbered returns count items with ids from..from+count-1.
func numbered(from, count int) []map[string]interface{} {
	items := make([]map[string]interface{}, 0, count)
	for id := from; id < from+count; id++ {
		items = append(items, map[string]interface{}{"id": id, "label": fmt.Sprintf("item-%d", id)})
	}

	return items
}

func instanceJSON(id int, label string) map[string]interface{} {
	return map[string]interface{}{
		"id":      id,
		"label":   label,
		"group":   "",
		"tags":    []string{},
		"status":  "running",
		"region":  "us-east",
		"image":   "linode/debian12",
		"type":    "g6-standard-1",
		"specs":   map[string]interface{}{"vcpus": 1, "memory": 2048},
		"alerts":  map[string]interface{}{"cpu": 90},
		"created": "2024-01-01T10:00:00",
		"updated": "2024-01-01T11:00:00",
	}
}
