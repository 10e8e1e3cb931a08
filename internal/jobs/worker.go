// Package jobs runs the asynchronous document ingestion pipeline: a polling
// loop that drains pending ingest jobs and a processor that turns uploaded
// files into ready knowledge items.
package jobs

import (
	"context"
	"log"
	"time"
)

// JobProcessor drains one batch of pending work per call.
type JobProcessor interface {
	ProcessJobs(ctx context.Context) error
}

// Worker calls a JobProcessor on a fixed interval. Batch errors are logged
// and the loop keeps going; only Stop or context cancellation ends it.
type Worker struct {
	processor    JobProcessor
	pollInterval time.Duration
	stopChan     chan struct{}
	doneChan     chan struct{}
}

func NewWorker(processor JobProcessor, pollInterval time.Duration) *Worker {
	return &Worker{
		processor:    processor,
		pollInterval: pollInterval,
		stopChan:     make(chan struct{}),
		doneChan:     make(chan struct{}),
	}
}

// Start runs the polling loop until Stop is called or ctx is cancelled.
func (w *Worker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()
	defer close(w.doneChan)

	log.Printf("ingest worker polling every %v", w.pollInterval)

	for {
		select {
		case <-ctx.Done():
			log.Println("ingest worker stopped: context cancelled")
			return
		case <-w.stopChan:
			log.Println("ingest worker stopped")
			return
		case <-ticker.C:
			if err := w.processor.ProcessJobs(ctx); err != nil {
				log.Printf("ingest batch failed: %v", err)
			}
		}
	}
}

// Stop signals the loop and blocks until it exits.
func (w *Worker) Stop() {
	close(w.stopChan)
	<-w.doneChan
}
