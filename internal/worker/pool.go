package worker

import (
	"context"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"botonic-backend/internal/models"
)

type usageInserter interface {
	Insert(ctx context.Context, e *models.UsageEvent) error
}

// Pool drains usage events into storage off the request path.
type Pool struct {
	repo        usageInserter
	events      chan models.UsageEvent
	workerCount int
	stopChan    chan struct{}
	wg          sync.WaitGroup
	dropped     atomic.Int64
	stopOnce    sync.Once
}

func NewPool(repo usageInserter, workerCount, buffer int) *Pool {
	if workerCount <= 0 {
		workerCount = 2
	}
	if buffer <= 0 {
		buffer = 256
	}
	return &Pool{
		repo:        repo,
		events:      make(chan models.UsageEvent, buffer),
		workerCount: workerCount,
		stopChan:    make(chan struct{}),
	}
}

func (p *Pool) Start() {
	p.wg.Add(p.workerCount)
	for i := 0; i < p.workerCount; i++ {
		go p.worker(i)
	}

	log.Printf("Started %d usage worker goroutines", p.workerCount)
}

// Stop signals the workers, lets them flush what is already buffered, and waits.
func (p *Pool) Stop() {
	p.stopOnce.Do(func() { close(p.stopChan) })
	p.wg.Wait()
}

// Record enqueues an event without blocking. Events are dropped when the buffer is full.
func (p *Pool) Record(event models.UsageEvent) {
	select {
	case p.events <- event:
	default:
		if n := p.dropped.Add(1); n%100 == 1 {
			log.Printf("usage buffer full, dropped %d events so far", n)
		}
	}
}

func (p *Pool) Dropped() int64 { return p.dropped.Load() }

func (p *Pool) worker(id int) {
	defer p.wg.Done()
	for {
		select {
		case e := <-p.events:
			p.insert(id, e)
		case <-p.stopChan:
			for {
				select {
				case e := <-p.events:
					p.insert(id, e)
				default:
					log.Printf("Usage worker %d shutting down", id)
					return
				}
			}
		}
	}
}

func (p *Pool) insert(id int, e models.UsageEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := p.repo.Insert(ctx, &e); err != nil {
		log.Printf("Usage worker %d: failed to store event identity=%s outcome=%s: %v", id, e.Identity, e.Outcome, err)
	}
}
