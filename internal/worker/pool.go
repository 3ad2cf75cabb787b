package worker

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"chiaotu/internal/clash"
	"chiaotu/internal/config"
	"chiaotu/internal/domain"
)

// Result is the outcome of decoding one source.
type Result struct {
	Source  domain.Source
	Proxies []clash.Proxy
	Err     error

	done bool
}

type Pool struct {
	workerCount int
	logger      *zap.Logger
	metrics     domain.MetricsCollector
	mu          sync.Mutex
	isRunning   bool
}

func NewPool(
	cfg *config.Config,
	metrics domain.MetricsCollector,
	logger *zap.Logger,
) *Pool {
	return &Pool{
		workerCount: cfg.Workers.Count,
		logger:      logger.With(zap.String("component", "worker_pool")),
		metrics:     metrics,
	}
}

// Run decodes sources in parallel and returns one result per source, in the
// order the sources were given. A failing source does not stop the others.
// When ctx ends early the unfinished sources carry ctx's error and Run
// returns it as well.
func (p *Pool) Run(ctx context.Context, sources []domain.Source, decode DecodeFunc) ([]Result, error) {
	p.mu.Lock()
	if p.isRunning {
		p.mu.Unlock()
		return nil, fmt.Errorf("worker pool already running")
	}
	p.isRunning = true
	p.mu.Unlock()

	defer func() {
		p.mu.Lock()
		p.isRunning = false
		p.mu.Unlock()
	}()

	results := make([]Result, len(sources))
	if len(sources) == 0 {
		return results, nil
	}

	count := min(max(p.workerCount, 1), len(sources))
	jobs := make(chan job, count)

	poolCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	workers := make([]Worker, count)
	for i := range workers {
		workers[i] = NewWorker(i, jobs, results, decode, p.metrics, p.logger)
	}

	var wg sync.WaitGroup
	for _, w := range workers {
		wg.Add(1)
		go func(w Worker) {
			defer wg.Done()
			w.Start(poolCtx)
		}(w)
	}

	p.logger.Debug("worker pool started",
		zap.Int("worker_count", count),
		zap.Int("sources", len(sources)))

	sent := newScheduler(sources, p.logger).Start(poolCtx, jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		for i := range results {
			if !results[i].done {
				results[i] = Result{Source: sources[i], Err: NewJobError(sources[i].Vendor, "cancelled", err)}
			}
		}
		p.logger.Debug("worker pool cancelled",
			zap.Int("sent", sent),
			zap.Error(err))
		return results, err
	}

	return results, nil
}
