package download

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/glorpus-work/imagehunter/internal/logger"
	pkgerrors "github.com/glorpus-work/imagehunter/pkg/errors"
)

// Scheduler fetches thumbnails into a Store on a fixed-size worker pool.
//
// Submit never blocks. Every submitted job yields exactly one Outcome on
// Results, in no particular order. Outcomes are delivered from worker
// goroutines; a worker only waits when the Results buffer is full, so the
// consumer must keep draining Results until it is closed.
//
// Identical URLs in flight at the same time are downloaded independently.
// Their writes cannot corrupt each other because every writer uses its own
// temp file.
type Scheduler struct {
	store   Store
	fetcher Fetcher
	opts    Options

	ctx    context.Context
	cancel context.CancelFunc

	mu    sync.Mutex
	queue []Job
	wake  chan struct{}

	group    errgroup.Group
	results  chan Outcome
	done     chan struct{}
	stopOnce sync.Once
}

// NewScheduler creates a scheduler and starts its dispatcher.
func NewScheduler(store Store, fetcher Fetcher, opts Options) *Scheduler {
	if opts.Workers <= 0 {
		opts.Workers = DefaultWorkers
	}
	if opts.MaxBytes <= 0 {
		opts.MaxBytes = DefaultMaxBytes
	}
	if opts.ResultBuffer <= 0 {
		opts.ResultBuffer = DefaultResultBuffer
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		store:   store,
		fetcher: fetcher,
		opts:    opts,
		ctx:     ctx,
		cancel:  cancel,
		wake:    make(chan struct{}, 1),
		results: make(chan Outcome, opts.ResultBuffer),
		done:    make(chan struct{}),
	}
	s.group.SetLimit(opts.Workers)

	go s.dispatch()
	return s
}

// Results returns the outcome stream. It is closed after Stop returns.
func (s *Scheduler) Results() <-chan Outcome {
	return s.results
}

// Submit enqueues jobs and returns immediately. After Stop it enqueues
// nothing and returns ErrSchedulerStopped.
func (s *Scheduler) Submit(jobs []Job) error {
	s.mu.Lock()
	if s.ctx.Err() != nil {
		s.mu.Unlock()
		return pkgerrors.ErrSchedulerStopped
	}
	s.queue = append(s.queue, jobs...)
	s.mu.Unlock()

	logger.Debug("Submitted thumbnail jobs", logger.Fields{"count": len(jobs)})

	select {
	case s.wake <- struct{}{}:
	default:
	}
	return nil
}

// Stop cancels in-flight downloads between chunks, fails jobs that were
// still queued with ErrSchedulerStopped, waits for every outcome to be
// delivered and closes Results. It is safe to call more than once.
//
// Stop blocks until every pending outcome fits into Results. When more
// outcomes are pending than ResultBuffer holds, Results must be drained
// concurrently or Stop never returns.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		s.mu.Lock()
		s.cancel()
		s.mu.Unlock()
	})
	<-s.done
}

func (s *Scheduler) dispatch() {
	defer close(s.done)

	for {
		job, ok := s.next()
		if !ok {
			break
		}
		s.group.Go(func() error {
			s.emit(s.process(job))
			return nil
		})
	}
	_ = s.group.Wait()

	s.mu.Lock()
	leftover := s.queue
	s.queue = nil
	s.mu.Unlock()
	for _, job := range leftover {
		s.emit(Outcome{Index: job.Index, URL: job.URL, Err: pkgerrors.ErrSchedulerStopped})
	}
	close(s.results)
}

// next blocks until a job is queued or the scheduler is stopped.
func (s *Scheduler) next() (Job, bool) {
	for {
		s.mu.Lock()
		if s.ctx.Err() != nil {
			s.mu.Unlock()
			return Job{}, false
		}
		if len(s.queue) > 0 {
			job := s.queue[0]
			s.queue[0] = Job{}
			s.queue = s.queue[1:]
			s.mu.Unlock()
			return job, true
		}
		s.mu.Unlock()

		select {
		case <-s.wake:
		case <-s.ctx.Done():
		}
	}
}

// process runs the cache check, download and atomic write for one job.
func (s *Scheduler) process(job Job) Outcome {
	out := Outcome{Index: job.Index, URL: job.URL}
	if s.ctx.Err() != nil {
		out.Err = pkgerrors.ErrSchedulerStopped
		return out
	}

	path := s.store.PathFor(job.URL)
	if s.store.Exists(path) {
		out.Path = path
		out.Cached = true
		return out
	}

	resp, err := s.fetcher.Get(s.ctx, job.URL)
	if err != nil {
		out.Err = s.failure(err)
		return out
	}
	err = s.store.WriteAtomically(s.ctx, path, resp.Body, resp.ContentLength, s.opts.MaxBytes)
	_ = resp.Body.Close()
	if err != nil {
		out.Err = s.failure(err)
		return out
	}

	out.Path = path
	return out
}

// failure attributes errors caused by Stop to the scheduler.
func (s *Scheduler) failure(err error) error {
	if s.ctx.Err() != nil {
		return fmt.Errorf("%w: %w", pkgerrors.ErrSchedulerStopped, err)
	}
	return err
}

func (s *Scheduler) emit(out Outcome) {
	if out.Loaded() {
		logger.Debug("Thumbnail loaded", logger.Fields{
			"index":  out.Index,
			"url":    out.URL,
			"path":   out.Path,
			"cached": out.Cached,
		})
	} else {
		logger.Warn("Thumbnail failed", logger.Fields{
			"index":  out.Index,
			"url":    out.URL,
			"reason": out.Reason(),
		})
	}
	s.results <- out
}

// Run fetches jobs on a private scheduler and returns one outcome per job.
// Cancelling ctx stops the scheduler; jobs that did not finish are reported
// as failed.
func Run(ctx context.Context, store Store, fetcher Fetcher, opts Options, jobs []Job) []Outcome {
	if len(jobs) == 0 {
		return nil
	}
	if opts.ResultBuffer <= 0 {
		opts.ResultBuffer = len(jobs)
	}

	s := NewScheduler(store, fetcher, opts)
	_ = s.Submit(jobs)

	outcomes := make([]Outcome, 0, len(jobs))
	cancelled := ctx.Done()
	for len(outcomes) < len(jobs) {
		select {
		case out, ok := <-s.Results():
			if !ok {
				return outcomes
			}
			outcomes = append(outcomes, out)
		case <-cancelled:
			cancelled = nil
			go s.Stop()
		}
	}
	s.Stop()
	return outcomes
}
