package linode

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Reason is a single entry of an API error response.
type Reason struct {
	Field  string `json:"field,omitempty" yaml:"field,omitempty"`
	Reason string `json:"reason"          yaml:"reason"`
}

// Error implements the error interface.
func (r Reason) Error() string {
	if r.Field == "" {
		return r.Reason
	}

	return fmt.Sprintf("%s: %s", r.Field, r.Reason)
}

// ResponseError is the body of an error response from the API.
type ResponseError struct {
	Errors []Reason `json:"errors"`
}

// APIError is returned when the API answers with a status in [400, 599]
// that was not retried, or after the retry budget ran out.
type APIError struct {
	StatusCode int
	Reasons    []Reason
	Headers    http.Header
	Body       []byte
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if len(e.Reasons) == 0 {
		return fmt.Sprintf("[%03d] %s", e.StatusCode, http.StatusText(e.StatusCode))
	}

	parts := make([]string, 0, len(e.Reasons))
	for _, reason := range e.Reasons {
		parts = append(parts, reason.Error())
	}

	return fmt.Sprintf("[%03d] %s", e.StatusCode, strings.Join(parts, "; "))
}

// FirstReason returns the first reason or nil.
func (e *APIError) FirstReason() *Reason {
	if len(e.Reasons) > 0 {
		return &e.Reasons[0]
	}

	return nil
}

// NewAPIError builds an APIError from a raw response. A body that is not a
// JSON error document leaves Reasons empty.
func NewAPIError(statusCode int, headers http.Header, body []byte) *APIError {
	apiErr := &APIError{
		StatusCode: statusCode,
		Headers:    headers,
		Body:       body,
	}

	errResp, err := ParseResponseError(body)
	if err == nil {
		apiErr.Reasons = errResp.Errors
	}

	return apiErr
}

// ParseResponseError parses an error response from JSON.
func ParseResponseError(data []byte) (*ResponseError, error) {
	var errResp ResponseError

	err := json.Unmarshal(data, &errResp)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal response error: %w", err)
	}

	return &errResp, nil
}

// UnexpectedResponseError means the request succeeded but the payload did
// not satisfy the resource contract (for example a missing identifier).
type UnexpectedResponseError struct {
	Message    string
	StatusCode int
	Body       []byte
}

// Error implements the error interface.
func (e *UnexpectedResponseError) Error() string {
	return "unexpected response: " + e.Message
}

// UsageError is a caller mistake. Retrying it is never useful.
type UsageError struct {
	msg string
}

// Error implements the error interface.
func (e *UsageError) Error() string {
	return e.msg
}

func newUsageError(msg string) *UsageError {
	return &UsageError{msg: msg}
}

// Usage errors. Each is a *UsageError so callers can match a specific one
// with errors.Is or the whole kind with IsUsageError.
var (
	ErrOrderByAlreadySet     = newUsageError("order_by may only be applied once per filter")
	ErrLimitAlreadySet       = newUsageError("limit may only be applied once per filter")
	ErrInvalidLimit          = newUsageError("limit must be a non-negative integer")
	ErrInvalidPageSize       = newUsageError("page size out of range")
	ErrFieldNotFilterable    = newUsageError("field is not filterable")
	ErrNotAnExpression       = newUsageError("operand is not a filter expression")
	ErrMixedSchemas          = newUsageError("filters on different resource types cannot be combined")
	ErrUnsupportedOperator   = newUsageError("unsupported filter operator")
	ErrAmbiguousParent       = newUsageError("ambiguous parent identity for derived resource")
	ErrMissingIdentity       = newUsageError("resource identity is required")
	ErrNotImplemented        = newUsageError("not implemented")
	ErrIndexMutation         = newUsageError("paginated lists are read-only")
	ErrIndexOutOfRange       = newUsageError("index out of range")
	ErrListNotSingular       = newUsageError("list has more than one element")
	ErrUnknownAttribute      = newUsageError("unknown attribute")
	ErrImmutableAttribute    = newUsageError("attribute is not mutable")
	ErrAttributeType         = newUsageError("attribute has a different type")
	ErrNotDerivedCollection  = newUsageError("attribute is not a derived collection")
	ErrNotRelationship       = newUsageError("attribute is not a relationship")
	ErrTransportRequired     = newUsageError("transport is required")
	ErrSchemaAlreadyDeclared = newUsageError("schema already registered")
)

// ErrListChanged is matched by every *StaleListError.
var ErrListChanged = errors.New("list has changed since creation")

// StaleListError reports that a later page fetch disagreed with the totals
// recorded when the list was created. The caller must list again.
type StaleListError struct {
	Page            int
	ExpectedPages   int
	ExpectedResults int
	ActualPages     int
	ActualResults   int
}

// Error implements the error interface.
func (e *StaleListError) Error() string {
	return fmt.Sprintf("%s: page %d reported %d results in %d pages, expected %d results in %d pages",
		ErrListChanged, e.Page, e.ActualResults, e.ActualPages, e.ExpectedResults, e.ExpectedPages)
}

// Is makes errors.Is(err, ErrListChanged) work.
func (e *StaleListError) Is(target error) bool {
	return target == ErrListChanged
}

func statusOf(err error) int {
	apiErr := &APIError{}
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}

	return 0
}

// IsNotFound checks if the error is a 404 API error.
func IsNotFound(err error) bool {
	return statusOf(err) == http.StatusNotFound
}

// IsUnauthorized checks if the error is a 401 API error.
func IsUnauthorized(err error) bool {
	return statusOf(err) == http.StatusUnauthorized
}

// IsForbidden checks if the error is a 403 API error.
func IsForbidden(err error) bool {
	return statusOf(err) == http.StatusForbidden
}

// IsRateLimited checks if the error is a 429 API error, which means the
// retry budget was exhausted.
func IsRateLimited(err error) bool {
	return statusOf(err) == http.StatusTooManyRequests
}

// IsUsageError checks if the error is a caller mistake.
func IsUsageError(err error) bool {
	usageErr := &UsageError{}

	return errors.As(err, &usageErr)
}

// IsStale checks if a paginated list detected server-side drift.
func IsStale(err error) bool {
	return errors.Is(err, ErrListChanged)
}

// IsUnexpectedResponse checks if a successful response violated the
// resource contract.
func IsUnexpectedResponse(err error) bool {
	unexpected := &UnexpectedResponseError{}

	return errors.As(err, &unexpected)
}
