package raster

import (
	"context"
	"errors"
	"sync"
	"time"

	"youtube-card/domain/model"
	"youtube-card/domain/repository"
	"youtube-card/infrastructure/logger"

	"github.com/google/uuid"
)

type task struct {
	id    string
	svg   []byte
	width int
}

type result struct {
	id    string
	image *model.RasterImage
	err   error
}

// Pool runs a fixed number of rasterizer workers behind a bounded queue.
// Every request carries a correlation id; results are routed back by id and
// results whose caller has gone away are dropped.
type Pool struct {
	workers int
	timeout time.Duration
	load    func() (*Fonts, error)

	mu      sync.RWMutex
	tasks   chan task
	started bool
	stopped bool
	fontErr error

	pendingMu sync.Mutex
	pending   map[string]chan result

	wg sync.WaitGroup
}

var _ repository.IRasterizer = (*Pool)(nil)

// NewPool sizes the pool; nothing runs until Start.
func NewPool(workers, queueDepth int, timeout time.Duration) *Pool {
	if workers <= 0 {
		workers = 1
	}
	if queueDepth < 0 {
		queueDepth = 0
	}
	return &Pool{
		workers: workers,
		timeout: timeout,
		load:    LoadFonts,
		tasks:   make(chan task, queueDepth),
		pending: make(map[string]chan result),
	}
}

// Start loads the fonts once and launches the workers. It returns the fonts so text can be
// measured with the faces that paint it, or nil when they failed to load; the pool then
// answers every request with WorkerUnavailable.
func (p *Pool) Start() *Fonts {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started {
		return nil
	}
	p.started = true

	fonts, err := p.load()
	if err != nil {
		p.fontErr = err
		logger.GetLogger().WithField("error", err).Error("Raster fonts failed to load, rendering is unavailable")
		return nil
	}
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.work(i, NewRasterizer(fonts))
	}
	logger.GetLogger().WithField("workers", p.workers).Info("Raster pool started")
	return fonts
}

// Stop rejects new requests, lets queued ones finish and waits for the workers.
func (p *Pool) Stop() {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	p.stopped = true
	close(p.tasks)
	p.mu.Unlock()

	p.wg.Wait()
	logger.GetLogger().Info("Raster pool stopped")
}

// Rasterize hands svg to a worker and waits for its result, the context or the pool timeout.
// Giving up does not cancel the worker; its late result is discarded.
func (p *Pool) Rasterize(ctx context.Context, svg []byte, width int) (*model.RasterImage, error) {
	id := uuid.NewString()
	reply := make(chan result, 1)
	p.register(id, reply)

	if err := p.enqueue(task{id: id, svg: svg, width: width}); err != nil {
		p.unregister(id)
		return nil, err
	}

	wait := ctx
	if p.timeout > 0 {
		var cancel context.CancelFunc
		wait, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	select {
	case res := <-reply:
		return res.image, res.err
	case <-wait.Done():
		p.unregister(id)
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return nil, &model.WorkerUnavailableError{Reason: "timed out waiting for a worker"}
	}
}

func (p *Pool) enqueue(t task) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	switch {
	case p.fontErr != nil:
		return &model.WorkerUnavailableError{Reason: "fonts failed to load"}
	case !p.started || p.stopped:
		return &model.WorkerUnavailableError{Reason: "pool is not running"}
	}
	select {
	case p.tasks <- t:
		return nil
	default:
		return &model.WorkerUnavailableError{Reason: "queue is full"}
	}
}

func (p *Pool) register(id string, reply chan result) {
	p.pendingMu.Lock()
	p.pending[id] = reply
	p.pendingMu.Unlock()
}

func (p *Pool) unregister(id string) {
	p.pendingMu.Lock()
	delete(p.pending, id)
	p.pendingMu.Unlock()
}

// deliver routes a result to its waiting caller, if any is still waiting.
func (p *Pool) deliver(res result) {
	p.pendingMu.Lock()
	reply, ok := p.pending[res.id]
	delete(p.pending, res.id)
	p.pendingMu.Unlock()

	if !ok {
		logger.GetLogger().WithField("id", res.id).Debug("Dropping raster result for abandoned request")
		return
	}
	reply <- res // buffered, never blocks
}

func (p *Pool) work(n int, r *Rasterizer) {
	defer p.wg.Done()
	defer r.Close()
	for t := range p.tasks {
		img, err := p.render(r, t)
		if err != nil {
			logger.GetLogger().WithFields(map[string]interface{}{
				"worker": n,
				"id":     t.id,
				"error":  err,
			}).Warn("Rasterization failed")
		}
		p.deliver(result{id: t.id, image: img, err: err})
	}
}

// render turns a rasterizer panic into an error.
func (p *Pool) render(r *Rasterizer, t task) (img *model.RasterImage, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			img = nil
			err = errors.New("rasterizer panic")
			logger.GetLogger().WithField("panic", rec).Error("Recovered rasterizer panic")
		}
	}()
	return r.Render(t.svg, t.width)
}
