// Package bench fires the same call many times through the client and
// summarizes latency and outcome kinds.
package bench

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/wesleyorama2/fetchx/http"
)

// Config describes one benchmark run.
type Config struct {
	Method string
	URL    string
	Body   any

	// Options are applied to every call
	Options []http.Option

	// Requests is the total number of calls to make
	Requests int

	// Concurrency is the number of workers issuing calls
	Concurrency int
}

// Validate checks the run parameters.
func (c Config) Validate() error {
	if c.URL == "" {
		return errors.New("url is required")
	}
	if c.Requests < 1 {
		return errors.New("requests must be at least 1")
	}
	if c.Concurrency < 1 {
		return errors.New("concurrency must be at least 1")
	}
	return nil
}

// Doer is the part of *http.Client the runner needs.
type Doer interface {
	Do(ctx context.Context, method, url string, body any, opts ...http.Option) (*http.Response, error)
}

// Runner executes benchmark runs.
type Runner struct {
	client Doer
	logger zerolog.Logger
}

// NewRunner creates a runner that issues calls through client.
func NewRunner(client Doer, logger zerolog.Logger) *Runner {
	return &Runner{client: client, logger: logger}
}

// Run issues cfg.Requests calls across cfg.Concurrency workers and blocks
// until they finish or ctx is cancelled. Calls not yet started when ctx is
// cancelled are skipped.
func (r *Runner) Run(ctx context.Context, cfg Config) (Snapshot, error) {
	if err := cfg.Validate(); err != nil {
		return Snapshot{}, err
	}

	workers := cfg.Concurrency
	if workers > cfg.Requests {
		workers = cfg.Requests
	}

	r.logger.Info().
		Str("method", cfg.Method).
		Str("url", cfg.URL).
		Int("requests", cfg.Requests).
		Int("concurrency", workers).
		Msg("starting benchmark")

	recorder := NewRecorder()
	jobs := make(chan struct{}, cfg.Requests)
	for i := 0; i < cfg.Requests; i++ {
		jobs <- struct{}{}
	}
	close(jobs)

	start := time.Now()
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range jobs {
				if ctx.Err() != nil {
					return
				}
				callStart := time.Now()
				_, err := r.client.Do(ctx, cfg.Method, cfg.URL, cfg.Body, cfg.Options...)
				recorder.Record(time.Since(callStart), err)
			}
		}()
	}
	wg.Wait()

	snapshot := recorder.Snapshot(time.Since(start))
	r.logger.Info().
		Int64("total", snapshot.Total).
		Int64("failed", snapshot.Failed).
		Dur("p99", snapshot.Latency.P99).
		Msg("benchmark finished")

	return snapshot, ctx.Err()
}
