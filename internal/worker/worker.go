// SPDX-License-Identifier: AGPL-3.0-only
package worker

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/fluffyriot/statsync/internal/config"
	"github.com/fluffyriot/statsync/internal/fetcher"
	"github.com/fluffyriot/statsync/internal/store"
)

// Worker drives periodic fetch-all runs on a ticker. Manual triggers
// share the running guard with scheduled runs, so at most one fetch-all
// is in flight at a time.
type Worker struct {
	Store    *store.Store
	Fetcher  *fetcher.Client
	Config   *config.AppConfig
	Ticker   *time.Ticker
	StopChan chan bool
	mu       sync.Mutex
	running  bool
	active   bool
}

func NewWorker(st *store.Store, fetcher *fetcher.Client, cfg *config.AppConfig) *Worker {
	return &Worker{
		Store:    st,
		Fetcher:  fetcher,
		Config:   cfg,
		StopChan: make(chan bool),
	}
}

func (w *Worker) Start(interval time.Duration) {
	w.mu.Lock()
	if w.active {
		w.mu.Unlock()
		log.Println("Worker: Scheduler already active, use Restart to change interval")
		return
	}
	w.active = true
	w.mu.Unlock()

	w.Ticker = time.NewTicker(interval)
	go func() {
		defer func() {
			w.mu.Lock()
			w.active = false
			w.mu.Unlock()
		}()
		for {
			select {
			case <-w.Ticker.C:
				w.FetchAll()
			case <-w.StopChan:
				w.Ticker.Stop()
				return
			}
		}
	}()
	log.Printf("Background worker started with interval: %v", interval)
}

func (w *Worker) Stop() {
	w.mu.Lock()
	if !w.active {
		w.mu.Unlock()
		log.Println("Worker: Scheduler not active")
		return
	}
	w.mu.Unlock()

	w.StopChan <- true
	log.Println("Background worker stopped")
}

func (w *Worker) Restart(interval time.Duration) {
	w.mu.Lock()
	isActive := w.active
	w.mu.Unlock()

	if isActive {
		w.Stop()
		time.Sleep(100 * time.Millisecond)
	}
	w.Start(interval)
}

func (w *Worker) IsActive() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.active
}

// FetchAll runs one cycle per tracked account, sequentially. Overlapping
// invocations are skipped rather than queued.
func (w *Worker) FetchAll() {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		log.Println("Worker: Fetch already in progress, skipping...")
		return
	}
	w.running = true
	w.mu.Unlock()

	defer func() {
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
	}()

	start := time.Now()
	w.Fetcher.FetchAll(context.Background())
	log.Printf("Worker: Fetch-all finished in %v", time.Since(start).Round(time.Second))
}
