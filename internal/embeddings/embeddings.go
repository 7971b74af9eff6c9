// Package embeddings generates text embeddings for record-store similarity
// search, behind a worker pool with a result cache.
package embeddings

import (
	"context"
	"fmt"
	"sync"
)

// Generator produces a vector embedding for a piece of text. The concrete
// backend (Ollama's embeddings endpoint in this repo) is injected so the
// service stays testable.
type Generator func(ctx context.Context, text string) ([]float32, error)

// Result is the outcome of one embedding request.
type Result struct {
	Content   string
	Embedding []float32
	Error     error
}

type work struct {
	ctx     context.Context
	content string
	result  chan<- Result
}

// Service fans embedding requests out to a bounded worker pool and caches
// successful results by content.
type Service struct {
	gen       Generator
	workQueue chan work
	cache     sync.Map
	wg        sync.WaitGroup
}

// NewService starts numWorkers goroutines serving embedding requests.
func NewService(gen Generator, numWorkers int) *Service {
	if numWorkers <= 0 {
		numWorkers = 4
	}
	s := &Service{
		gen:       gen,
		workQueue: make(chan work, 100),
	}
	for i := 0; i < numWorkers; i++ {
		s.wg.Add(1)
		go s.worker()
	}
	return s
}

func (s *Service) worker() {
	defer s.wg.Done()
	for w := range s.workQueue {
		if cached, ok := s.cache.Load(w.content); ok {
			if embedding, valid := cached.([]float32); valid {
				w.result <- Result{Content: w.content, Embedding: embedding}
				continue
			}
		}
		embedding, err := s.gen(w.ctx, w.content)
		if err == nil {
			s.cache.Store(w.content, embedding)
		}
		w.result <- Result{Content: w.content, Embedding: embedding, Error: err}
	}
}

// Get requests an embedding asynchronously; the returned channel receives
// exactly one Result. A full queue fails fast instead of blocking the caller.
func (s *Service) Get(ctx context.Context, content string) <-chan Result {
	resultChan := make(chan Result, 1)
	select {
	case s.workQueue <- work{ctx: ctx, content: content, result: resultChan}:
	default:
		resultChan <- Result{
			Content: content,
			Error:   fmt.Errorf("embedding queue is full, try again later"),
		}
		close(resultChan)
	}
	return resultChan
}

// GetSync is a blocking convenience wrapper around Get.
func (s *Service) GetSync(ctx context.Context, content string) ([]float32, error) {
	res := <-s.Get(ctx, content)
	return res.Embedding, res.Error
}

// Close shuts down the service and waits for in-flight work.
func (s *Service) Close() {
	close(s.workQueue)
	s.wg.Wait()
}
