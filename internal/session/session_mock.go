package session

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/UnendingLoop/PhotoAnimator/internal/model"
)

// MOCK TRANSFORMER

type mockTransformer struct {
	calls    atomic.Int32
	submitFn func(ctx context.Context, req model.TransformRequest) (model.TransformResult, error)
}

func (m *mockTransformer) Submit(ctx context.Context, req model.TransformRequest) (model.TransformResult, error) {
	m.calls.Add(1)
	return m.submitFn(ctx, req)
}

// gatedTransformer отдает результат только после release
type gatedTransformer struct {
	mockTransformer
	gate chan struct{}
}

func newGatedTransformer(res model.TransformResult, err error) *gatedTransformer {
	g := &gatedTransformer{gate: make(chan struct{})}
	g.submitFn = func(ctx context.Context, req model.TransformRequest) (model.TransformResult, error) {
		<-g.gate
		return res, err
	}
	return g
}

func (g *gatedTransformer) release() { close(g.gate) }

// MOCK OBSERVER

type mockObserver struct {
	mu       sync.Mutex
	attempts []model.Attempt
}

func (m *mockObserver) AttemptSettled(ctx context.Context, a model.Attempt) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.attempts = append(m.attempts, a)
}

func (m *mockObserver) all() []model.Attempt {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.Attempt(nil), m.attempts...)
}
