package constants

import "time"

// File and directory permissions.
const (
	// ConfigDirPerm is the permission for configuration directories.
	ConfigDirPerm = 0750

	// ConfigFilePerm is the permission for configuration files.
	ConfigFilePerm = 0600
)

// API endpoint defaults.
const (
	// DefaultAPIEndpoint is the base URL used when none is configured.
	DefaultAPIEndpoint = "https://api.linode.com/v4"

	// DefaultUserAgent is sent when the caller does not override it.
	DefaultUserAgent = "linode-client-go"
)

// HTTP and network timeouts.
const (
	// DefaultHTTPTimeout is the default timeout for HTTP requests.
	DefaultHTTPTimeout = 30 * time.Second

	// ShortHTTPTimeout bounds OAuth token exchanges.
	ShortHTTPTimeout = 10 * time.Second
)

// Retry limits.
const (
	// DefaultRetryMax is the default maximum number of retries.
	DefaultRetryMax = 5

	// DefaultRetryWaitMin is the fixed delay between retries when the
	// server does not send a Retry-After hint.
	DefaultRetryWaitMin = 1 * time.Second

	// DefaultRetryWaitMax caps any computed or server-provided delay.
	DefaultRetryWaitMax = 30 * time.Second
)

// Retry delay strategies.
const (
	// RetryBackoffConstant sleeps RetryWaitMin between attempts.
	RetryBackoffConstant = "constant"

	// RetryBackoffExponential doubles the delay each attempt up to RetryWaitMax.
	RetryBackoffExponential = "exponential"
)

// HTTP status codes commonly used.
const (
	// HTTPStatusRequestTimeout is retried by default.
	HTTPStatusRequestTimeout = 408

	// HTTPStatusTooManyRequests is retried by default.
	HTTPStatusTooManyRequests = 429

	// HTTPStatusBadRequest is the lowest error status.
	HTTPStatusBadRequest = 400

	// HTTPStatusMaxError is the highest error status.
	HTTPStatusMaxError = 599
)

// Header names.
const (
	// HeaderFilter carries the serialized filter expression.
	HeaderFilter = "X-Filter"

	// HeaderRetryAfter is the server's retry delay hint.
	HeaderRetryAfter = "Retry-After"

	// HeaderAuthorization carries the bearer token.
	HeaderAuthorization = "Authorization"
)

// Pagination query parameters and limits.
const (
	// QueryPage is the 1-based page number parameter.
	QueryPage = "page"

	// QueryPageSize is the page size parameter.
	QueryPageSize = "page_size"

	// MinPageSize is the smallest page size the API accepts.
	MinPageSize = 25

	// MaxPageSize is the largest page size the API accepts.
	MaxPageSize = 500

	// StandardPageSize is the API's default page size.
	StandardPageSize = 100
)

// Resource model defaults.
const (
	// DefaultVolatileRefresh is how long volatile attributes stay fresh.
	DefaultVolatileRefresh = 15 * time.Second

	// DatetimeLayout is the API's timestamp format (UTC, no zone suffix).
	DatetimeLayout = "2006-01-02T15:04:05"
)

// Concurrency limits.
const (
	// DefaultConcurrencyLimit limits concurrent batch saves.
	DefaultConcurrencyLimit = 3
)

// UI and display constants.
const (
	// NotAvailable is used when information is not available.
	NotAvailable = "N/A"

	// MaskedSecret is used to hide sensitive information.
	MaskedSecret = "***"
)

// Format constants.
const (
	// FormatJSON for JSON output format.
	FormatJSON = "json"

	// FormatYAML for YAML output format.
	FormatYAML = "yaml"

	// FormatTable for table output format.
	FormatTable = "table"
)
