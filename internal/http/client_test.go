package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	lnhttp "github.com/fivetwenty-io/linode-client/internal/http"
	"github.com/fivetwenty-io/linode-client/pkg/linode"
)

// MockTokenManager for testing.
type MockTokenManager struct {
	token string
	err   error
}

func (m *MockTokenManager) GetToken(ctx context.Context) (string, error) {
	return m.token, m.err
}

func (m *MockTokenManager) RefreshToken(ctx context.Context) error {
	return nil
}

func (m *MockTokenManager) SetToken(token string, expiresAt time.Time) {
	m.token = token
}

// MockLogger for testing.
type MockLogger struct {
	mu   sync.Mutex
	logs []map[string]interface{}
}

func (l *MockLogger) record(level, msg string, fields map[string]interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.logs = append(l.logs, map[string]interface{}{"level": level, "msg": msg, "fields": fields})
}

func (l *MockLogger) Debug(msg string, fields map[string]interface{}) { l.record("debug", msg, fields) }
func (l *MockLogger) Info(msg string, fields map[string]interface{})  { l.record("info", msg, fields) }
func (l *MockLogger) Warn(msg string, fields map[string]interface{})  { l.record("warn", msg, fields) }
func (l *MockLogger) Error(msg string, fields map[string]interface{}) { l.record("error", msg, fields) }

var errTokenUnavailable = errors.New("token unavailable")

// statusSequence answers with the given statuses in order, then 200.
func statusSequence(attempts *atomic.Int32, statuses ...int) http.HandlerFunc {
	return func(writer http.ResponseWriter, request *http.Request) {
		attempt := int(attempts.Add(1))
		if attempt <= len(statuses) {
			writer.WriteHeader(statuses[attempt-1])
			_, _ = writer.Write([]byte(`{"errors":[{"reason":"try again"}]}`))

			return
		}

		writer.WriteHeader(http.StatusOK)
		_, _ = writer.Write([]byte(`{"id":1}`))
	}
}

//nolint:funlen // Test functions can be longer for comprehensive testing
func TestClient_Do(t *testing.T) {
	t.Parallel()
	t.Run("successful request", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			assert.Equal(t, "/v4/linode/instances/123", request.URL.Path)
			assert.Equal(t, "GET", request.Method)
			assert.Equal(t, "Bearer test-token", request.Header.Get("Authorization"))
			assert.Equal(t, "application/json", request.Header.Get("Accept"))
			assert.Equal(t, "linode-client-go", request.Header.Get("User-Agent"))

			response := map[string]interface{}{"id": 123, "label": "web-1"}
			_ = json.NewEncoder(writer).Encode(response)
		}))
		defer server.Close()

		tokenManager := &MockTokenManager{token: "test-token"}
		client := lnhttp.NewClient(server.URL+"/v4", tokenManager)

		req := &lnhttp.Request{
			Method: "GET",
			Path:   "/linode/instances/123",
		}

		resp, err := client.Do(context.Background(), req)
		require.NoError(t, err)
		assert.Equal(t, 200, resp.StatusCode)

		var result map[string]interface{}

		err = json.Unmarshal(resp.Body, &result)
		require.NoError(t, err)
		assert.InDelta(t, 123, result["id"], 0)
		assert.Equal(t, "web-1", result["label"])
	})

	t.Run("request with query parameters", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			assert.Equal(t, "/linode/instances", request.URL.Path)
			assert.Equal(t, "page=2", request.URL.RawQuery)
			writer.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		client := lnhttp.NewClient(server.URL, nil)

		req := &lnhttp.Request{
			Method: "GET",
			Path:   "/linode/instances",
			Query:  url.Values{"page": []string{"2"}},
		}

		resp, err := client.Do(context.Background(), req)
		require.NoError(t, err)
		assert.Equal(t, 200, resp.StatusCode)
	})

	t.Run("request with body", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			assert.Equal(t, "POST", request.Method)
			assert.Equal(t, "application/json", request.Header.Get("Content-Type"))

			var body map[string]string

			_ = json.NewDecoder(request.Body).Decode(&body)
			assert.Equal(t, "web-1", body["label"])

			writer.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		client := lnhttp.NewClient(server.URL, nil)

		req := &lnhttp.Request{
			Method: "POST",
			Path:   "/linode/instances",
			Body:   map[string]string{"label": "web-1"},
		}

		resp, err := client.Do(context.Background(), req)
		require.NoError(t, err)
		assert.Equal(t, 200, resp.StatusCode)
	})

	t.Run("filter header", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			assert.JSONEq(t, `{"label":"web-1"}`, request.Header.Get("X-Filter"))
			writer.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		client := lnhttp.NewClient(server.URL, nil)

		_, err := client.Do(context.Background(), &lnhttp.Request{
			Method: "GET",
			Path:   "/linode/instances",
			Filter: map[string]string{"label": "web-1"},
		})
		require.NoError(t, err)
	})

	t.Run("empty filter sends no header", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			assert.Empty(t, request.Header.Get("X-Filter"))
			writer.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		client := lnhttp.NewClient(server.URL, nil)

		_, err := client.Do(context.Background(), &lnhttp.Request{
			Method: "GET",
			Path:   "/linode/instances",
			Filter: map[string]string{},
		})
		require.NoError(t, err)
	})

	t.Run("error response", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			writer.WriteHeader(http.StatusNotFound)

			response := linode.ResponseError{
				Errors: []linode.Reason{{Reason: "Not found"}},
			}
			_ = json.NewEncoder(writer).Encode(response)
		}))
		defer server.Close()

		client := lnhttp.NewClient(server.URL, nil)

		req := &lnhttp.Request{
			Method: "GET",
			Path:   "/linode/instances/999",
		}

		resp, err := client.Do(context.Background(), req)
		require.Error(t, err)
		assert.Equal(t, 404, resp.StatusCode)

		var apiErr *linode.APIError

		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, 404, apiErr.StatusCode)
		require.Len(t, apiErr.Reasons, 1)
		assert.Equal(t, "Not found", apiErr.Reasons[0].Reason)
		assert.True(t, linode.IsNotFound(err))
	})

	t.Run("token failure", func(t *testing.T) {
		t.Parallel()

		client := lnhttp.NewClient("http://127.0.0.1:1", &MockTokenManager{err: errTokenUnavailable})

		_, err := client.Get(context.Background(), "/profile", nil)
		require.ErrorIs(t, err, errTokenUnavailable)
	})

	t.Run("custom headers", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			assert.Equal(t, "custom-value", request.Header.Get("X-Custom-Header"))
			assert.Equal(t, "my-agent/1.0", request.Header.Get("User-Agent"))
			writer.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		client := lnhttp.NewClient(server.URL, nil, lnhttp.WithUserAgent("my-agent/1.0"))

		req := &lnhttp.Request{
			Method: "GET",
			Path:   "/linode/instances",
			Headers: map[string]string{
				"X-Custom-Header": "custom-value",
			},
		}

		resp, err := client.Do(context.Background(), req)
		require.NoError(t, err)
		assert.Equal(t, 200, resp.StatusCode)
	})

	t.Run("with debug logging", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			writer.WriteHeader(http.StatusOK)
			_ = json.NewEncoder(writer).Encode(map[string]string{"result": "ok"})
		}))
		defer server.Close()

		logger := &MockLogger{}
		client := lnhttp.NewClient(server.URL, nil, lnhttp.WithLogger(logger), lnhttp.WithDebug(true))

		req := &lnhttp.Request{
			Method: "GET",
			Path:   "/linode/instances",
		}

		_, err := client.Do(context.Background(), req)
		require.NoError(t, err)

		// Should have logged request and response
		assert.Len(t, logger.logs, 2)
		assert.Equal(t, "HTTP Request", logger.logs[0]["msg"])
		assert.Equal(t, "HTTP Response", logger.logs[1]["msg"])
	})
}

//nolint:funlen // Test functions can be longer for comprehensive testing
func TestClient_Methods(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		method string
		fn     func(*lnhttp.Client, context.Context) (*lnhttp.Response, error)
	}{
		{
			name:   "GET",
			method: "GET",
			fn: func(c *lnhttp.Client, ctx context.Context) (*lnhttp.Response, error) {
				return c.Get(ctx, "/test", nil)
			},
		},
		{
			name:   "POST",
			method: "POST",
			fn: func(c *lnhttp.Client, ctx context.Context) (*lnhttp.Response, error) {
				return c.Post(ctx, "/test", map[string]string{"key": "value"})
			},
		},
		{
			name:   "PUT",
			method: "PUT",
			fn: func(c *lnhttp.Client, ctx context.Context) (*lnhttp.Response, error) {
				return c.Put(ctx, "/test", map[string]string{"key": "value"})
			},
		},
		{
			name:   "PATCH",
			method: "PATCH",
			fn: func(c *lnhttp.Client, ctx context.Context) (*lnhttp.Response, error) {
				return c.Patch(ctx, "/test", map[string]string{"key": "value"})
			},
		},
		{
			name:   "DELETE",
			method: "DELETE",
			fn: func(c *lnhttp.Client, ctx context.Context) (*lnhttp.Response, error) {
				return c.Delete(ctx, "/test")
			},
		},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
				assert.Equal(t, testCase.method, request.Method)
				assert.Equal(t, "/test", request.URL.Path)
				writer.WriteHeader(http.StatusOK)
			}))
			defer server.Close()

			client := lnhttp.NewClient(server.URL, nil)
			resp, err := testCase.fn(client, context.Background())
			require.NoError(t, err)
			assert.Equal(t, 200, resp.StatusCode)
		})
	}
}

//nolint:funlen // Test functions can be longer for comprehensive testing
func TestClient_RetryLogic(t *testing.T) {
	t.Parallel()
	t.Run("retries 408 and 429 within budget", func(t *testing.T) {
		t.Parallel()

		var attempts atomic.Int32

		server := httptest.NewServer(statusSequence(&attempts, http.StatusRequestTimeout, http.StatusTooManyRequests))
		defer server.Close()

		client := lnhttp.NewClient(server.URL, nil, lnhttp.WithRetryConfig(2, time.Millisecond, 10*time.Millisecond))

		resp, err := client.Get(context.Background(), "/test", nil)
		require.NoError(t, err)
		assert.Equal(t, 200, resp.StatusCode)
		assert.Equal(t, int32(3), attempts.Load())
	})

	t.Run("surfaces last status when budget runs out", func(t *testing.T) {
		t.Parallel()

		var attempts atomic.Int32

		server := httptest.NewServer(statusSequence(&attempts, http.StatusRequestTimeout, http.StatusTooManyRequests))
		defer server.Close()

		client := lnhttp.NewClient(server.URL, nil, lnhttp.WithRetryConfig(1, time.Millisecond, 10*time.Millisecond))

		resp, err := client.Get(context.Background(), "/test", nil)
		require.Error(t, err)
		assert.Equal(t, 429, resp.StatusCode)
		assert.Equal(t, int32(2), attempts.Load())

		var apiErr *linode.APIError

		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, 429, apiErr.StatusCode)
	})

	t.Run("does not retry other errors", func(t *testing.T) {
		t.Parallel()

		var attempts atomic.Int32

		server := httptest.NewServer(statusSequence(&attempts, http.StatusInternalServerError))
		defer server.Close()

		client := lnhttp.NewClient(server.URL, nil, lnhttp.WithRetryConfig(3, time.Millisecond, 10*time.Millisecond))

		resp, err := client.Get(context.Background(), "/test", nil)
		require.Error(t, err)
		assert.Equal(t, 500, resp.StatusCode)
		assert.Equal(t, int32(1), attempts.Load())
	})

	t.Run("custom retry statuses", func(t *testing.T) {
		t.Parallel()

		var attempts atomic.Int32

		server := httptest.NewServer(statusSequence(&attempts, http.StatusServiceUnavailable))
		defer server.Close()

		client := lnhttp.NewClient(server.URL, nil,
			lnhttp.WithRetryConfig(3, time.Millisecond, 10*time.Millisecond),
			lnhttp.WithRetryStatuses(http.StatusServiceUnavailable),
		)

		resp, err := client.Get(context.Background(), "/test", nil)
		require.NoError(t, err)
		assert.Equal(t, 200, resp.StatusCode)
		assert.Equal(t, int32(2), attempts.Load())
	})

	t.Run("retry disabled", func(t *testing.T) {
		t.Parallel()

		var attempts atomic.Int32

		server := httptest.NewServer(statusSequence(&attempts, http.StatusTooManyRequests))
		defer server.Close()

		client := lnhttp.NewClient(server.URL, nil, lnhttp.WithRetryDisabled())

		resp, err := client.Get(context.Background(), "/test", nil)
		require.Error(t, err)
		assert.Equal(t, 429, resp.StatusCode)
		assert.Equal(t, int32(1), attempts.Load())
	})

	t.Run("retry-after is capped by wait max", func(t *testing.T) {
		t.Parallel()

		var attempts atomic.Int32

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			if attempts.Add(1) == 1 {
				writer.Header().Set("Retry-After", "60")
				writer.WriteHeader(http.StatusTooManyRequests)

				return
			}

			writer.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		client := lnhttp.NewClient(server.URL, nil, lnhttp.WithRetryConfig(2, time.Millisecond, 20*time.Millisecond))

		start := time.Now()
		resp, err := client.Get(context.Background(), "/test", nil)
		require.NoError(t, err)
		assert.Equal(t, 200, resp.StatusCode)
		assert.Less(t, time.Since(start), 5*time.Second)
	})

	t.Run("retries are logged", func(t *testing.T) {
		t.Parallel()

		var attempts atomic.Int32

		server := httptest.NewServer(statusSequence(&attempts, http.StatusTooManyRequests))
		defer server.Close()

		logger := &MockLogger{}
		client := lnhttp.NewClient(server.URL, nil,
			lnhttp.WithLogger(logger),
			lnhttp.WithRetryConfig(2, time.Millisecond, 10*time.Millisecond),
		)

		_, err := client.Get(context.Background(), "/test", nil)
		require.NoError(t, err)

		require.Len(t, logger.logs, 1)
		assert.Equal(t, "Retrying request", logger.logs[0]["msg"])
		assert.Equal(t, "warn", logger.logs[0]["level"])
	})

	t.Run("connection errors are not retried", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
		serverURL := server.URL
		server.Close()

		client := lnhttp.NewClient(serverURL, nil, lnhttp.WithRetryConfig(3, time.Second, time.Second))

		start := time.Now()
		_, err := client.Get(context.Background(), "/test", nil)
		require.Error(t, err)
		assert.Less(t, time.Since(start), time.Second)
	})
}

func TestClient_Backoff(t *testing.T) {
	t.Parallel()

	var (
		mu    sync.Mutex
		times []time.Time
	)

	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		mu.Lock()
		times = append(times, time.Now())
		count := len(times)
		mu.Unlock()

		if count < 3 {
			writer.WriteHeader(http.StatusTooManyRequests)

			return
		}

		writer.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := lnhttp.NewClient(server.URL, nil,
		lnhttp.WithRetryConfig(3, 20*time.Millisecond, time.Second),
		lnhttp.WithBackoff("exponential"),
	)

	_, err := client.Get(context.Background(), "/test", nil)
	require.NoError(t, err)

	require.Len(t, times, 3)
	assert.GreaterOrEqual(t, times[1].Sub(times[0]), 20*time.Millisecond)
	assert.GreaterOrEqual(t, times[2].Sub(times[1]), 40*time.Millisecond)
}

func TestClient_RateLimit(t *testing.T) {
	t.Parallel()

	var attempts atomic.Int32

	server := httptest.NewServer(statusSequence(&attempts))
	defer server.Close()

	client := lnhttp.NewClient(server.URL, nil, lnhttp.WithRateLimit(20, 1))

	start := time.Now()

	for range 3 {
		_, err := client.Get(context.Background(), "/test", nil)
		require.NoError(t, err)
	}

	assert.GreaterOrEqual(t, time.Since(start), 90*time.Millisecond)
	assert.Equal(t, int32(3), attempts.Load())
}

func TestValidateBackoff(t *testing.T) {
	t.Parallel()

	require.NoError(t, lnhttp.ValidateBackoff("constant"))
	require.NoError(t, lnhttp.ValidateBackoff("exponential"))
	require.NoError(t, lnhttp.ValidateBackoff(""))
	require.ErrorIs(t, lnhttp.ValidateBackoff("fibonacci"), lnhttp.ErrUnknownBackoff)
}
