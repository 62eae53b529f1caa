package interfaces

import "github.com/m-mizutani/goerr/v2"

var (
	// ErrNotFound is returned by repositories when the requested record does
	// not exist or lies outside the given scope
	ErrNotFound = goerr.New("not found")

	// ErrConflict is returned when a unique constraint would be violated
	ErrConflict = goerr.New("conflict")
)
