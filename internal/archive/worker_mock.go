package archive

import (
	"context"
	"io"

	"github.com/UnendingLoop/PhotoAnimator/internal/model"
	"github.com/wb-go/wbf/retry"
)

type mockStorage struct {
	putFn func(ctx context.Context, key string, size int64, ct string, r io.Reader) error
}

func (m *mockStorage) Put(ctx context.Context, key string, size int64, ct string, r io.Reader) error {
	return m.putFn(ctx, key, size, ct, r)
}

//----------------------------------

type mockRepo struct {
	createFn func(ctx context.Context, a *model.Attempt) error
}

func (m *mockRepo) Create(ctx context.Context, a *model.Attempt) error {
	return m.createFn(ctx, a)
}

//----------------------------------

type mockPublisher struct {
	sendFn func(ctx context.Context, s retry.Strategy, key []byte, v []byte) error
}

func (m *mockPublisher) SendWithRetry(ctx context.Context, s retry.Strategy, key []byte, v []byte) error {
	return m.sendFn(ctx, s, key, v)
}
