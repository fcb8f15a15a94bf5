package linode_test

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/linode-client/pkg/linode"
)

var errStop = errors.New("stop")

type recordedLog struct {
	level  string
	msg    string
	fields map[string]interface{}
}

type recordingLogger struct {
	mu   sync.Mutex
	logs []recordedLog
}

func (l *recordingLogger) record(level, msg string, fields map[string]interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.logs = append(l.logs, recordedLog{level: level, msg: msg, fields: fields})
}

func (l *recordingLogger) Debug(msg string, fields map[string]interface{}) { l.record("debug", msg, fields) }
func (l *recordingLogger) Info(msg string, fields map[string]interface{})  { l.record("info", msg, fields) }
func (l *recordingLogger) Warn(msg string, fields map[string]interface{})  { l.record("warn", msg, fields) }
func (l *recordingLogger) Error(msg string, fields map[string]interface{}) { l.record("error", msg, fields) }

func (l *recordingLogger) entries() []recordedLog {
	l.mu.Lock()
	defer l.mu.Unlock()

	return append([]recordedLog(nil), l.logs...)
}

func TestInterceptorChain(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("runs in order", func(t *testing.T) {
		t.Parallel()

		var order []string

		chain := linode.NewInterceptorChain()
		chain.AddRequestInterceptor(func(context.Context, *linode.Request) error {
			order = append(order, "first")

			return nil
		})
		chain.AddRequestInterceptor(func(context.Context, *linode.Request) error {
			order = append(order, "second")

			return nil
		})

		require.NoError(t, chain.ExecuteRequestInterceptors(ctx, &linode.Request{}))
		assert.Equal(t, []string{"first", "second"}, order)
	})

	t.Run("stops at first error", func(t *testing.T) {
		t.Parallel()

		called := false

		chain := linode.NewInterceptorChain()
		chain.AddRequestInterceptor(func(context.Context, *linode.Request) error { return errStop })
		chain.AddRequestInterceptor(func(context.Context, *linode.Request) error {
			called = true

			return nil
		})

		err := chain.ExecuteRequestInterceptors(ctx, &linode.Request{})
		require.ErrorIs(t, err, errStop)
		assert.False(t, called)
	})

	t.Run("response interceptors see the call error", func(t *testing.T) {
		t.Parallel()

		var seen error

		chain := linode.NewInterceptorChain()
		chain.AddResponseInterceptor(func(_ context.Context, _ *linode.Request, _ *linode.Response, callErr error) error {
			seen = callErr

			return nil
		})

		callErr := &linode.APIError{StatusCode: http.StatusNotFound}
		require.NoError(t, chain.ExecuteResponseInterceptors(ctx, &linode.Request{}, nil, callErr))
		assert.Same(t, callErr, seen)
	})
}

func TestHeaderInterceptor(t *testing.T) {
	t.Parallel()

	req := &linode.Request{}
	err := linode.HeaderInterceptor(map[string]string{"X-Trace": "abc"})(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "abc", req.Headers.Get("X-Trace"))
}

func TestLoggingInterceptors(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	logger := &recordingLogger{}

	req := &linode.Request{
		Method: http.MethodGet,
		Path:   "/linode/instances",
		Filter: linode.InstanceSchema.Field("label").Eq("web"),
	}

	require.NoError(t, linode.LoggingInterceptor(logger)(ctx, req))
	require.NoError(t, linode.LoggingResponseInterceptor(logger)(ctx, req, &linode.Response{StatusCode: http.StatusOK}, nil))
	require.NoError(t, linode.LoggingResponseInterceptor(logger)(ctx, req, nil, &linode.APIError{StatusCode: http.StatusForbidden}))

	entries := logger.entries()
	require.Len(t, entries, 3)

	assert.Equal(t, "API Request", entries[0].msg)
	assert.JSONEq(t, `{"label":"web"}`, entries[0].fields["filter"].(string))
	assert.Equal(t, "debug", entries[1].level)
	assert.Equal(t, http.StatusOK, entries[1].fields["status_code"])
	assert.Equal(t, "error", entries[2].level)
	assert.Equal(t, http.StatusForbidden, entries[2].fields["status_code"])
}

func TestMetricsCollector(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	collector := linode.NewMetricsCollector()
	chain := linode.NewInterceptorChain()
	collector.Install(chain)

	var changes int

	collector.SetOnChange(func(endpoint string, metrics linode.Metrics) {
		changes++

		assert.Equal(t, "GET /regions", endpoint)
	})

	for _, callErr := range []error{nil, &linode.APIError{StatusCode: http.StatusTooManyRequests}} {
		req := &linode.Request{Method: http.MethodGet, Path: "/regions"}

		require.NoError(t, chain.ExecuteRequestInterceptors(ctx, req))

		var resp *linode.Response
		if callErr == nil {
			resp = &linode.Response{StatusCode: http.StatusOK}
		}

		require.NoError(t, chain.ExecuteResponseInterceptors(ctx, req, resp, callErr))
	}

	metrics, ok := collector.GetMetrics("GET /regions")
	require.True(t, ok)
	assert.Equal(t, int64(2), metrics.TotalRequests)
	assert.Equal(t, int64(1), metrics.TotalErrors)
	assert.False(t, metrics.LastRequestTime.IsZero())
	assert.Equal(t, 2, changes)

	_, ok = collector.GetMetrics("GET /volumes")
	assert.False(t, ok)
}

func TestClient_LogsPageFetches(t *testing.T) {
	t.Parallel()

	transport := NewFakeTransport()
	transport.Pages(typesPath, pagedBodies(30, 25)...)

	logger := &recordingLogger{}
	client := newTestClient(t, transport, linode.WithLogger(logger))

	list, err := client.Types().List(context.Background(), nil)
	require.NoError(t, err)

	_, err = list.Last(context.Background())
	require.NoError(t, err)

	var pages []interface{}

	for _, entry := range logger.entries() {
		if entry.msg == "Fetching page" {
			pages = append(pages, entry.fields["page"])
		}
	}

	assert.Equal(t, []interface{}{1, 2}, pages)
}
