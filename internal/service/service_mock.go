package service

import (
	"context"
	"io"

	"github.com/UnendingLoop/PhotoAnimator/internal/model"
)

// MOCK RESPOSITORY

type mockRepo struct {
	createFn  func(ctx context.Context, a *model.Attempt) error
	getFn     func(ctx context.Context, id string) (*model.Attempt, error)
	getListFn func(ctx context.Context, req *model.ListRequest) ([]model.Attempt, error)
	deleteFn  func(ctx context.Context, id string) error
}

func (m *mockRepo) Create(ctx context.Context, a *model.Attempt) error {
	return m.createFn(ctx, a)
}

func (m *mockRepo) Get(ctx context.Context, id string) (*model.Attempt, error) {
	return m.getFn(ctx, id)
}

func (m *mockRepo) GetList(ctx context.Context, req *model.ListRequest) ([]model.Attempt, error) {
	return m.getListFn(ctx, req)
}

func (m *mockRepo) Delete(ctx context.Context, id string) error {
	return m.deleteFn(ctx, id)
}

// MOCK STORAGE

type mockStorage struct {
	getFn    func(ctx context.Context, key string) (io.ReadCloser, string, error)
	deleteFn func(ctx context.Context, key string) error
}

func (m *mockStorage) Get(ctx context.Context, key string) (io.ReadCloser, string, error) {
	return m.getFn(ctx, key)
}

func (m *mockStorage) Delete(ctx context.Context, key string) error {
	return m.deleteFn(ctx, key)
}

// MOCK TRANSFORMER

type mockTransformer struct {
	submitFn func(ctx context.Context, req model.TransformRequest) (model.TransformResult, error)
}

func (m *mockTransformer) Submit(ctx context.Context, req model.TransformRequest) (model.TransformResult, error) {
	return m.submitFn(ctx, req)
}

// MOCK для чтения файла, который всегда падает
type brokenReader struct{}

func (brokenReader) Read([]byte) (int, error) { return 0, io.ErrUnexpectedEOF }
