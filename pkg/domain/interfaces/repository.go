package interfaces

import (
	"context"
	"time"
)

// Repository defines the interface for data persistence
type Repository interface {
	Action() ActionRepository
	User() UserRepository
	Site() SiteRepository
	Team() TeamRepository
	Task() TaskRepository

	// Ping checks connectivity and returns the data store's current time
	Ping(ctx context.Context) (time.Time, error)

	Close() error
}
