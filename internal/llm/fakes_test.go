package llm

import (
	"context"
	"sync"
)

// scriptedClient replays a fixed sequence of results, one per call.
type scriptedClient struct {
	mu      sync.Mutex
	results []scriptedResult
	calls   int
}

type scriptedResult struct {
	resp *ChatResponse
	err  error
}

func (s *scriptedClient) Chat(_ context.Context, _ ChatRequest) (*ChatResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.calls
	s.calls++
	if i >= len(s.results) {
		i = len(s.results) - 1
	}
	return s.results[i].resp, s.results[i].err
}

func (s *scriptedClient) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func overloaded() scriptedResult { return scriptedResult{err: NewAPIError(429, "Resource has been exhausted")} }

func ok(text string) scriptedResult {
	return scriptedResult{resp: &ChatResponse{Content: text}}
}
