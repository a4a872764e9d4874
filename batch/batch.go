// Package batch runs many sessions' decode-through-metrics pipelines
// concurrently: a bounded worker pool with back-pressure, cancellation that
// is checked between files, and a bounded LRU cache of parsed sessions
// shared across workers. Grounded on rohankatakam-coderisk's dependency on
// golang.org/x/sync for the worker-pool/cancellation shape; the bounded LRU
// is a hand-rolled container/list+map+sync.Mutex structure, justified in
// DESIGN.md as the one stdlib-only exception in this package (no LRU cache
// library appears anywhere in the retrieval pack).
package batch

import (
	"container/list"
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/lucasjlepore/trainload/model"
)

// Job is one unit of work: decode-through-metrics for a single session,
// identified by a caller-chosen key (typically a file path).
type Job struct {
	Key string
	Run func(ctx context.Context) (*model.Workout, error)
}

// Result pairs a Job's key with its outcome.
type Result struct {
	Key     string
	Workout *model.Workout
	Err     error
}

// Options configures the pool.
type Options struct {
	// Workers bounds the number of jobs run concurrently. Defaults to 4.
	Workers int
	// CacheSize bounds the shared LRU cache of parsed workouts. 0 disables
	// caching.
	CacheSize int
}

// Run executes jobs with bounded concurrency (Options.Workers), blocking
// producers on a queue sized 2×Workers, and returns one Result per job run,
// in completion order. A job error is recorded in that job's Result and the
// remaining jobs still run; only cancellation of ctx stops the pool, and
// jobs not yet started when that happens get no Result. Each worker checks
// ctx between jobs, per spec §5's "cancellation checked between files"
// requirement.
func Run(ctx context.Context, jobs []Job, opts Options) []Result {
	workers := opts.Workers
	if workers <= 0 {
		workers = 4
	}
	queueSize := 2 * workers

	cache := newLRU(opts.CacheSize)

	queue := make(chan Job, queueSize)
	results := make(chan Result, len(jobs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i := 0; i < workers; i++ {
		g.Go(func() error {
			for {
				select {
				case <-gctx.Done():
					return gctx.Err()
				case job, ok := <-queue:
					if !ok {
						return nil
					}
					if cached, ok := cache.get(job.Key); ok {
						results <- Result{Key: job.Key, Workout: cached}
						continue
					}
					w, err := job.Run(gctx)
					if err != nil {
						results <- Result{Key: job.Key, Err: err}
						continue
					}
					cache.put(job.Key, w)
					results <- Result{Key: job.Key, Workout: w}
				}
			}
		})
	}

	go func() {
		for _, j := range jobs {
			select {
			case queue <- j:
			case <-gctx.Done():
				close(queue)
				return
			}
		}
		close(queue)
	}()

	_ = g.Wait()
	close(results)

	out := make([]Result, 0, len(jobs))
	for r := range results {
		out = append(out, r)
	}
	return out
}

// lru is a bounded, thread-safe least-recently-used cache of parsed
// workouts, guarded by a single mutex. Evicted entries are simply dropped;
// callers that need a session again after eviction re-run the job. A cache
// hit hands back a cloned workout (model.Workout.Clone), per spec §5, so
// concurrent jobs sharing a key never alias the cached samples/summary.
type lru struct {
	mu       sync.Mutex
	capacity int
	ll       *list.List
	items    map[string]*list.Element
}

type lruEntry struct {
	key   string
	value *model.Workout
}

func newLRU(capacity int) *lru {
	return &lru{
		capacity: capacity,
		ll:       list.New(),
		items:    make(map[string]*list.Element),
	}
}

func (c *lru) get(key string) (*model.Workout, bool) {
	if c.capacity <= 0 {
		return nil, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	el, ok := c.items[key]
	if !ok {
		return nil, false
	}
	c.ll.MoveToFront(el)
	return el.Value.(*lruEntry).value.Clone(), true
}

func (c *lru) put(key string, value *model.Workout) {
	if c.capacity <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[key]; ok {
		c.ll.MoveToFront(el)
		el.Value.(*lruEntry).value = value
		return
	}

	el := c.ll.PushFront(&lruEntry{key: key, value: value})
	c.items[key] = el

	if c.ll.Len() > c.capacity {
		oldest := c.ll.Back()
		if oldest != nil {
			c.ll.Remove(oldest)
			delete(c.items, oldest.Value.(*lruEntry).key)
		}
	}
}
