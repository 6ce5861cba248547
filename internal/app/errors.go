package service

import "github.com/cockroachdb/errors"

// ErrNotStarted is returned by operations called before Start.
var ErrNotStarted = errors.New("service not started")
