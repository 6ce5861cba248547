// Package types holds primitives shared by the ranking-points domain packages.
package types

import (
	"github.com/cockroachdb/errors"
)

// Error kinds. Every error returned by the domain packages wraps exactly one of
// these so callers can classify with errors.Is or KindOf.
var (
	// ErrMissingValue reports an absent required parameter.
	ErrMissingValue = errors.New("missing value")

	// ErrInvalidValues reports a policy or input document that fails shape checks.
	ErrInvalidValues = errors.New("invalid values")

	// ErrMissingTournamentRecord reports a lookup that needs externally supplied
	// context (e.g. a ranking store) which was not provided.
	ErrMissingTournamentRecord = errors.New("missing tournament record")
)

// Kind codes as exchanged with callers.
const (
	KindMissingValue            = "MISSING_VALUE"
	KindInvalidValues           = "INVALID_VALUES"
	KindMissingTournamentRecord = "MISSING_TOURNAMENT_RECORD"
	KindUnknown                 = "UNKNOWN"
)

// KindOf returns the kind code of err, or an empty string for nil.
func KindOf(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrMissingValue):
		return KindMissingValue
	case errors.Is(err, ErrInvalidValues):
		return KindInvalidValues
	case errors.Is(err, ErrMissingTournamentRecord):
		return KindMissingTournamentRecord
	default:
		return KindUnknown
	}
}

// MissingValue wraps ErrMissingValue with the name of the absent parameter.
func MissingValue(param string) error {
	return errors.Wrapf(ErrMissingValue, "%s is required", param)
}

// InvalidValues wraps ErrInvalidValues with a formatted reason.
func InvalidValues(format string, args ...any) error {
	return errors.Wrapf(ErrInvalidValues, format, args...)
}
