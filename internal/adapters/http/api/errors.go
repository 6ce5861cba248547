package api

import (
	"context"
	"net/http"

	"github.com/cockroachdb/errors"
	"github.com/okian/podium/internal/adapters/repository"
	"github.com/okian/podium/internal/domain/types"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest    = errors.New("bad request")
	ErrLimitExceeded = errors.New("limit exceeded")
)

// Error codes not taken from the domain kinds.
const (
	codeBadRequest    = "BAD_REQUEST"
	codeLimitExceeded = "LIMIT_EXCEEDED"
	codeNotFound      = "NOT_FOUND"
	codeUnavailable   = "UNAVAILABLE"
	codeInternal      = "INTERNAL"
)

// classify maps an error to an HTTP status and the code carried in the body.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, ErrLimitExceeded):
		return http.StatusBadRequest, codeLimitExceeded
	case errors.Is(err, ErrBadRequest), errors.Is(err, repository.ErrInvalidLimit):
		return http.StatusBadRequest, codeBadRequest
	case errors.Is(err, types.ErrMissingValue), errors.Is(err, types.ErrInvalidValues):
		return http.StatusBadRequest, types.KindOf(err)
	case errors.Is(err, types.ErrMissingTournamentRecord):
		return http.StatusUnprocessableEntity, types.KindMissingTournamentRecord
	case errors.Is(err, repository.ErrNotFound), errors.Is(err, repository.ErrNoSnapshot):
		return http.StatusNotFound, codeNotFound
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, codeUnavailable
	default:
		return http.StatusInternalServerError, codeInternal
	}
}
