package http

import (
	"fmt"
	"net/http"

	"golang.org/x/time/rate"

	"github.com/fivetwenty-io/linode-client/pkg/linode"
)

// rateLimitedTransport waits for the limiter before every attempt.
type rateLimitedTransport struct {
	base    http.RoundTripper
	limiter *rate.Limiter
}

func (t *rateLimitedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	err := t.limiter.Wait(req.Context())
	if err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
	}

	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}

	return base.RoundTrip(req)
}

// leveledLogger routes go-retryablehttp's log output. Its per-attempt debug
// lines are dropped; Do logs requests itself.
type leveledLogger struct {
	logger linode.Logger
}

func keysAndValues(pairs []interface{}) map[string]interface{} {
	fields := make(map[string]interface{}, len(pairs)/2)

	for i := 0; i+1 < len(pairs); i += 2 {
		fields[fmt.Sprint(pairs[i])] = pairs[i+1]
	}

	return fields
}

func (l *leveledLogger) Error(msg string, keysAndVals ...interface{}) {
	l.logger.Error(msg, keysAndValues(keysAndVals))
}

func (l *leveledLogger) Info(msg string, keysAndVals ...interface{}) {
	l.logger.Info(msg, keysAndValues(keysAndVals))
}

func (l *leveledLogger) Debug(string, ...interface{}) {}

func (l *leveledLogger) Warn(msg string, keysAndVals ...interface{}) {
	l.logger.Warn(msg, keysAndValues(keysAndVals))
}
