package repository

import "github.com/cockroachdb/errors"

// Sentinel kinds for standings errors.
var (
	ErrNotFound        = errors.New("participant not found")
	ErrInvalidLimit    = errors.New("invalid leaderboard limit")
	ErrNoSnapshot      = errors.New("no standings published")
	ErrInvalidSnapshot = errors.New("invalid standings snapshot")
)
