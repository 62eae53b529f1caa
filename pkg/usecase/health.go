package usecase

import (
	"context"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/entelligence/pkg/domain/interfaces"
)

type HealthUseCase struct {
	repo      interfaces.Repository
	startedAt time.Time
}

func NewHealthUseCase(repo interfaces.Repository, startedAt time.Time) *HealthUseCase {
	return &HealthUseCase{
		repo:      repo,
		startedAt: startedAt,
	}
}

// Uptime returns the time elapsed since the process started
func (uc *HealthUseCase) Uptime(now time.Time) time.Duration {
	return now.Sub(uc.startedAt)
}

// DatabaseTime asks the backing store for its clock
func (uc *HealthUseCase) DatabaseTime(ctx context.Context) (time.Time, error) {
	t, err := uc.repo.Ping(ctx)
	if err != nil {
		return time.Time{}, goerr.Wrap(err, "database unavailable")
	}
	return t, nil
}
