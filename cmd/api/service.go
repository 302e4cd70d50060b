package main

import (
	"context"
	"io"

	"github.com/UnendingLoop/PhotoAnimator/internal/model"
)

type SessionAPIService interface {
	Create(ctx context.Context) (model.SessionState, error)
	Snapshot(ctx context.Context, id string, wait bool) (model.SessionState, error)
	Upload(ctx context.Context, id string, r io.Reader, name, mime string) (model.SessionState, error)
	Remove(ctx context.Context, id string) (model.SessionState, error)
	Animate(ctx context.Context, id string) (model.SessionState, error)
	Result(ctx context.Context, id string) ([]byte, string, error)
	Delete(ctx context.Context, id string) error
}

type HistoryAPIService interface {
	GetList(ctx context.Context, req *model.ListRequest) ([]model.Attempt, error)
	Get(ctx context.Context, id string) (*model.Attempt, error)
	LoadResult(ctx context.Context, id string) (io.ReadCloser, string, error)
	LoadThumbnail(ctx context.Context, id string) (io.ReadCloser, string, error)
	Delete(ctx context.Context, id string) error
}

// storageClient - хранилище, нужное и архиву, и истории
type storageClient interface {
	Put(ctx context.Context, key string, size int64, contentType string, r io.Reader) error
	Get(ctx context.Context, key string) (io.ReadCloser, string, error)
	Delete(ctx context.Context, key string) error
}
