package worker

import (
	"context"

	"go.uber.org/zap"

	"chiaotu/internal/domain"
)

type job struct {
	index  int
	source domain.Source
}

// scheduler hands sources to the workers in caller order and closes the
// jobs channel once every source was sent or the context is done.
type scheduler struct {
	sources []domain.Source
	logger  *zap.Logger
}

func newScheduler(sources []domain.Source, logger *zap.Logger) *scheduler {
	return &scheduler{
		sources: sources,
		logger:  logger.With(zap.String("component", "scheduler")),
	}
}

// Start returns the number of jobs sent.
func (s *scheduler) Start(ctx context.Context, jobs chan<- job) int {
	defer close(jobs)

	for i, src := range s.sources {
		select {
		case jobs <- job{index: i, source: src}:
			s.logger.Debug("sent job", zap.String("source", src.Vendor))
		case <-ctx.Done():
			s.logger.Debug("scheduler stopped", zap.Error(ctx.Err()))
			return i
		}
	}
	return len(s.sources)
}
