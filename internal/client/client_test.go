package client_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	. "github.com/fivetwenty-io/linode-client/internal/client"
	"github.com/fivetwenty-io/linode-client/pkg/linode"
)

var errRejected = errors.New("rejected by interceptor")

//nolint:funlen // Test functions can be longer for comprehensive testing
func TestNew(t *testing.T) {
	t.Parallel()
	t.Run("requires config", func(t *testing.T) {
		t.Parallel()

		_, err := New(nil)
		require.ErrorIs(t, err, linode.ErrConfigRequired)
	})

	t.Run("requires API endpoint", func(t *testing.T) {
		t.Parallel()

		config := &linode.Config{}
		_, err := New(config)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "API endpoint is required")
	})

	t.Run("creates client with access token", func(t *testing.T) {
		t.Parallel()

		config := &linode.Config{
			APIEndpoint: "https://api.example.com/v4",
			Token:       "test-token",
		}

		client, err := New(config)
		require.NoError(t, err)
		assert.NotNil(t, client)
	})

	t.Run("creates client without authentication", func(t *testing.T) {
		t.Parallel()

		config := &linode.Config{
			APIEndpoint: "https://api.example.com/v4",
		}

		client, err := New(config)
		require.NoError(t, err)
		assert.NotNil(t, client)
	})

	t.Run("rejects unknown backoff", func(t *testing.T) {
		t.Parallel()

		config := &linode.Config{
			APIEndpoint:  "https://api.example.com/v4",
			RetryBackoff: "fibonacci",
		}

		_, err := New(config)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown backoff strategy")
	})
}

func TestNew_Authentication(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		config func(url string) *linode.Config
		want   string
	}{
		{
			name: "static token",
			config: func(url string) *linode.Config {
				return &linode.Config{APIEndpoint: url, Token: "pat-token"}
			},
			want: "Bearer pat-token",
		},
		{
			name: "token source wins over token",
			config: func(url string) *linode.Config {
				return &linode.Config{
					APIEndpoint: url,
					Token:       "pat-token",
					TokenSource: oauth2.StaticTokenSource(&oauth2.Token{
						AccessToken: "oauth-token",
						Expiry:      time.Now().Add(time.Hour),
					}),
				}
			},
			want: "Bearer oauth-token",
		},
		{
			name: "no credentials",
			config: func(url string) *linode.Config {
				return &linode.Config{APIEndpoint: url}
			},
			want: "",
		},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
				assert.Equal(t, testCase.want, request.Header.Get("Authorization"))
				_ = json.NewEncoder(writer).Encode(map[string]interface{}{"id": "us-east", "country": "us"})
			}))
			defer server.Close()

			client, err := New(testCase.config(server.URL))
			require.NoError(t, err)

			_, err = client.Get(context.Background(), "/regions/us-east", nil)
			require.NoError(t, err)
		})
	}
}

//nolint:funlen // Test functions can be longer for comprehensive testing
func TestTransport_Do(t *testing.T) {
	t.Parallel()
	t.Run("sends filter header", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			assert.JSONEq(t, `{"label":"web-1"}`, request.Header.Get("X-Filter"))
			_, _ = writer.Write([]byte(`{"data":[],"page":1,"pages":1,"results":0}`))
		}))
		defer server.Close()

		client, err := New(&linode.Config{APIEndpoint: server.URL})
		require.NoError(t, err)

		list, err := client.Instances().List(context.Background(), nil, linode.InstanceSchema.Field("label").Eq("web-1"))
		require.NoError(t, err)
		assert.Equal(t, 0, list.Len())
	})

	t.Run("omits empty filter", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			_, present := request.Header["X-Filter"]
			assert.False(t, present)
			_, _ = writer.Write([]byte(`{"data":[],"page":1,"pages":1,"results":0}`))
		}))
		defer server.Close()

		client, err := New(&linode.Config{APIEndpoint: server.URL})
		require.NoError(t, err)

		_, err = client.Instances().List(context.Background(), nil)
		require.NoError(t, err)
	})

	t.Run("runs interceptors", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			assert.Equal(t, "yes", request.Header.Get("X-Intercepted"))
			_ = json.NewEncoder(writer).Encode(map[string]interface{}{"id": 7, "label": "web"})
		}))
		defer server.Close()

		chain := linode.NewInterceptorChain()
		chain.AddRequestInterceptor(linode.HeaderInterceptor(map[string]string{"X-Intercepted": "yes"}))

		var seen atomic.Int32

		chain.AddResponseInterceptor(func(ctx context.Context, req *linode.Request, resp *linode.Response, callErr error) error {
			seen.Add(1)
			assert.NoError(t, callErr)
			assert.Equal(t, 200, resp.StatusCode)

			return nil
		})

		client, err := New(&linode.Config{APIEndpoint: server.URL, Interceptors: chain})
		require.NoError(t, err)

		instance, err := client.Instances().Ref(7)
		require.NoError(t, err)

		label, err := instance.Label(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "web", label)
		assert.Equal(t, int32(1), seen.Load())
	})

	t.Run("request interceptor can abort", func(t *testing.T) {
		t.Parallel()

		var calls atomic.Int32

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			calls.Add(1)
		}))
		defer server.Close()

		chain := linode.NewInterceptorChain()
		chain.AddRequestInterceptor(func(ctx context.Context, req *linode.Request) error {
			return errRejected
		})

		client, err := New(&linode.Config{APIEndpoint: server.URL, Interceptors: chain})
		require.NoError(t, err)

		_, err = client.Get(context.Background(), "/regions", nil)
		require.ErrorIs(t, err, errRejected)
		assert.Equal(t, int32(0), calls.Load())
	})

	t.Run("response interceptors see API errors", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			writer.WriteHeader(http.StatusNotFound)
			_, _ = writer.Write([]byte(`{"errors":[{"reason":"Not found"}]}`))
		}))
		defer server.Close()

		collector := linode.NewMetricsCollector()
		chain := linode.NewInterceptorChain()
		collector.Install(chain)

		client, err := New(&linode.Config{APIEndpoint: server.URL, Interceptors: chain})
		require.NoError(t, err)

		_, err = client.Get(context.Background(), "/linode/instances/1", nil)
		require.Error(t, err)
		assert.True(t, linode.IsNotFound(err))

		metrics, ok := collector.GetMetrics("GET /linode/instances/1")
		require.True(t, ok)
		assert.Equal(t, int64(1), metrics.TotalRequests)
		assert.Equal(t, int64(1), metrics.TotalErrors)
	})

	t.Run("retry disabled", func(t *testing.T) {
		t.Parallel()

		var calls atomic.Int32

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			calls.Add(1)
			writer.WriteHeader(http.StatusTooManyRequests)
		}))
		defer server.Close()

		client, err := New(&linode.Config{APIEndpoint: server.URL, DisableRetry: true})
		require.NoError(t, err)

		_, err = client.Get(context.Background(), "/regions", nil)
		require.Error(t, err)
		assert.True(t, linode.IsRateLimited(err))
		assert.Equal(t, int32(1), calls.Load())
	})
}
