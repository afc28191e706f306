package remote

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusError_Sentinels(t *testing.T) {
	cases := []struct {
		code int
		want error
	}{
		{http.StatusUnauthorized, ErrUnauthorized},
		{http.StatusForbidden, ErrForbidden},
		{http.StatusNotFound, ErrNotFound},
	}
	for _, tc := range cases {
		err := statusError(tc.code, "body")
		assert.ErrorIs(t, err, tc.want, "status %d", tc.code)

		var se *StatusError
		assert.ErrorAs(t, err, &se, "the status must stay inspectable")
		assert.Equal(t, tc.code, se.Code)
	}
}

func TestStatusError_OtherCodesHaveNoSentinel(t *testing.T) {
	err := statusError(http.StatusBadRequest, "bad email")
	assert.NotErrorIs(t, err, ErrUnauthorized)

	var se *StatusError
	assert.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusBadRequest, se.Code)
}

func TestIsTransient(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"server error", statusError(503, "down"), true},
		{"rate limited", statusError(429, "slow down"), true},
		{"unauthorized", statusError(401, "nope"), false},
		{"validation", statusError(400, "bad"), false},
		{"not found", statusError(404, "gone"), false},
		{"transport failure", errors.New("dial tcp: connection refused"), true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, IsTransient(tc.err))
		})
	}
}
