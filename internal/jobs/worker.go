package jobs

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"
)

// JobProcessor defines the interface for processing jobs
type JobProcessor interface {
	ProcessJobs(ctx context.Context) error
}

// Worker represents a background job worker
type Worker struct {
	name         string
	processor    JobProcessor
	pollInterval time.Duration
	stopChan     chan struct{}
	doneChan     chan struct{}
}

// NewWorker creates a new Worker instance
func NewWorker(name string, processor JobProcessor, pollInterval time.Duration) *Worker {
	return &Worker{
		name:         name,
		processor:    processor,
		pollInterval: pollInterval,
		stopChan:     make(chan struct{}),
		doneChan:     make(chan struct{}),
	}
}

// Start begins the worker's polling loop
func (w *Worker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()
	defer close(w.doneChan)

	log.Printf("Worker %s started with poll interval: %v", w.name, w.pollInterval)

	for {
		select {
		case <-ctx.Done():
			log.Printf("Worker %s stopped: context cancelled", w.name)
			return
		case <-w.stopChan:
			log.Printf("Worker %s stopped: stop signal received", w.name)
			return
		case <-ticker.C:
			if err := w.processor.ProcessJobs(ctx); err != nil {
				log.Printf("Worker %s error processing jobs: %v", w.name, err)
			}
		}
	}
}

// Stop gracefully stops the worker
func (w *Worker) Stop() {
	close(w.stopChan)
	<-w.doneChan
	log.Printf("Worker %s shutdown complete", w.name)
}

// Pool runs a fixed number of workers against the same processor.
// Workers share no state; each claims its own jobs from the durable
// queue.
type Pool struct {
	workers []*Worker
	wg      sync.WaitGroup
}

// NewPool creates count workers polling the processor.
func NewPool(processor JobProcessor, count int, pollInterval time.Duration) *Pool {
	if count < 1 {
		count = 1
	}
	p := &Pool{}
	for i := 0; i < count; i++ {
		p.workers = append(p.workers, NewWorker(fmt.Sprintf("pipeline-%d", i+1), processor, pollInterval))
	}
	return p
}

// Start launches all workers in the background.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		p.wg.Add(1)
		go func(w *Worker) {
			defer p.wg.Done()
			w.Start(ctx)
		}(w)
	}
}

// Stop stops all workers and waits for them to finish.
func (p *Pool) Stop() {
	for _, w := range p.workers {
		w.Stop()
	}
	p.wg.Wait()
}
