package linode_test

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fivetwenty-io/linode-client/pkg/linode"
)

func TestAPIError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		status    int
		body      string
		message   string
		reasons   int
		predicate func(error) bool
	}{
		{
			name:      "reasons",
			status:    http.StatusBadRequest,
			body:      `{"errors":[{"field":"label","reason":"too long"},{"reason":"try again"}]}`,
			message:   "[400] label: too long; try again",
			reasons:   2,
			predicate: func(error) bool { return true },
		},
		{
			name:      "not found without body",
			status:    http.StatusNotFound,
			message:   "[404] Not Found",
			predicate: linode.IsNotFound,
		},
		{
			name:      "unauthorized",
			status:    http.StatusUnauthorized,
			body:      `{"errors":[{"reason":"Invalid Token"}]}`,
			message:   "[401] Invalid Token",
			reasons:   1,
			predicate: linode.IsUnauthorized,
		},
		{
			name:      "forbidden with non-json body",
			status:    http.StatusForbidden,
			body:      `<html>nope</html>`,
			message:   "[403] Forbidden",
			predicate: linode.IsForbidden,
		},
		{
			name:      "rate limited",
			status:    http.StatusTooManyRequests,
			message:   "[429] Too Many Requests",
			predicate: linode.IsRateLimited,
		},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			apiErr := linode.NewAPIError(testCase.status, http.Header{}, []byte(testCase.body))
			assert.Equal(t, testCase.message, apiErr.Error())
			assert.Len(t, apiErr.Reasons, testCase.reasons)

			wrapped := fmt.Errorf("GET /x: %w", apiErr)
			assert.True(t, testCase.predicate(wrapped))
			assert.False(t, linode.IsUsageError(wrapped))
		})
	}
}

func TestAPIError_FirstReason(t *testing.T) {
	t.Parallel()

	assert.Nil(t, (&linode.APIError{StatusCode: http.StatusInternalServerError}).FirstReason())

	apiErr := linode.NewAPIError(http.StatusBadRequest, nil, []byte(`{"errors":[{"field":"region","reason":"required"}]}`))
	require.NotNil(t, apiErr.FirstReason())
	assert.Equal(t, "region: required", apiErr.FirstReason().Error())
}

func TestStaleListError(t *testing.T) {
	t.Parallel()

	err := fmt.Errorf("listing: %w", &linode.StaleListError{
		Page: 2, ExpectedPages: 3, ExpectedResults: 57, ActualPages: 3, ActualResults: 56,
	})

	require.ErrorIs(t, err, linode.ErrListChanged)
	assert.True(t, linode.IsStale(err))
	assert.Contains(t, err.Error(), "page 2 reported 56 results in 3 pages, expected 57 results in 3 pages")
	assert.False(t, linode.IsUsageError(err))
}

func TestUsageErrors(t *testing.T) {
	t.Parallel()

	for _, err := range []error{
		linode.ErrOrderByAlreadySet,
		linode.ErrInvalidPageSize,
		linode.ErrAmbiguousParent,
		linode.ErrNotImplemented,
		linode.ErrIndexMutation,
		linode.ErrImmutableAttribute,
	} {
		assert.True(t, linode.IsUsageError(fmt.Errorf("wrapped: %w", err)), err.Error())
		assert.False(t, linode.IsNotFound(err))
	}

	assert.False(t, linode.IsUsageError(nil))
	assert.False(t, linode.IsStale(nil))
}

func TestUnexpectedResponseError(t *testing.T) {
	t.Parallel()

	err := fmt.Errorf("loading: %w", &linode.UnexpectedResponseError{Message: "no id"})
	assert.True(t, linode.IsUnexpectedResponse(err))
	assert.Equal(t, "loading: unexpected response: no id", err.Error())
}
