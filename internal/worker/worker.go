package worker

import (
	"context"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"chiaotu/internal/clash"
	"chiaotu/internal/domain"
)

// Worker represents a single worker that decodes sources. Start returns once
// the jobs channel is closed or the context is done.
type Worker interface {
	Start(context.Context)
}

type worker struct {
	id      int
	jobs    <-chan job
	results []Result
	decode  DecodeFunc
	logger  *zap.Logger
	metrics domain.MetricsCollector
}

// NewWorker creates a worker that stores the outcome of every job at the
// job's index in results. Distinct jobs never share an index.
func NewWorker(
	id int,
	jobs <-chan job,
	results []Result,
	decode DecodeFunc,
	metrics domain.MetricsCollector,
	logger *zap.Logger,
) Worker {
	return &worker{
		id:      id,
		jobs:    jobs,
		results: results,
		decode:  decode,
		logger:  logger.With(zap.Int("worker_id", id)),
		metrics: metrics,
	}
}

func (w *worker) Start(ctx context.Context) {
	workerID := strconv.Itoa(w.id)
	w.metrics.RecordWorkerStart(workerID)
	w.logger.Debug("worker started")
	defer func() {
		w.metrics.RecordWorkerStop(workerID)
		w.logger.Debug("worker stopped")
	}()

	for {
		select {
		case j, ok := <-w.jobs:
			if !ok {
				return
			}
			w.results[j.index] = w.process(ctx, j)
		case <-ctx.Done():
			w.logger.Debug("context cancelled", zap.Error(ctx.Err()))
			return
		}
	}
}

func (w *worker) process(ctx context.Context, j job) (result Result) {
	result = Result{Source: j.source, done: true}

	defer func() {
		if r := recover(); r != nil {
			w.logger.Error("worker panic recovered",
				zap.String("source", j.source.Vendor),
				zap.Any("panic", r),
				zap.Stack("stack"))
			result.Proxies = nil
			result.Err = NewJobError(j.source.Vendor, "panic", fmt.Errorf("%v", r))
		}
	}()

	proxies, err := w.decode(ctx, j.source)
	if err != nil {
		result.Err = NewJobError(j.source.Vendor, "decode", err)
		return result
	}
	result.Proxies = proxies
	return result
}

// DecodeFunc turns one source into Clash proxies.
type DecodeFunc func(ctx context.Context, src domain.Source) ([]clash.Proxy, error)
