package transport

import (
	"context"
	"io"

	"github.com/UnendingLoop/PhotoAnimator/internal/model"
	"github.com/gin-gonic/gin"
)

type mockSessionService struct {
	createFn   func(ctx context.Context) (model.SessionState, error)
	snapshotFn func(ctx context.Context, id string, wait bool) (model.SessionState, error)
	uploadFn   func(ctx context.Context, id string, r io.Reader, name, mime string) (model.SessionState, error)
	removeFn   func(ctx context.Context, id string) (model.SessionState, error)
	animateFn  func(ctx context.Context, id string) (model.SessionState, error)
	resultFn   func(ctx context.Context, id string) ([]byte, string, error)
	deleteFn   func(ctx context.Context, id string) error
}

func (m *mockSessionService) Create(ctx context.Context) (model.SessionState, error) {
	return m.createFn(ctx)
}

func (m *mockSessionService) Snapshot(ctx context.Context, id string, wait bool) (model.SessionState, error) {
	return m.snapshotFn(ctx, id, wait)
}

func (m *mockSessionService) Upload(ctx context.Context, id string, r io.Reader, name, mime string) (model.SessionState, error) {
	return m.uploadFn(ctx, id, r, name, mime)
}

func (m *mockSessionService) Remove(ctx context.Context, id string) (model.SessionState, error) {
	return m.removeFn(ctx, id)
}

func (m *mockSessionService) Animate(ctx context.Context, id string) (model.SessionState, error) {
	return m.animateFn(ctx, id)
}

func (m *mockSessionService) Result(ctx context.Context, id string) ([]byte, string, error) {
	return m.resultFn(ctx, id)
}

func (m *mockSessionService) Delete(ctx context.Context, id string) error {
	return m.deleteFn(ctx, id)
}

//----------------------------------

type mockHistoryService struct {
	getListFn       func(ctx context.Context, req *model.ListRequest) ([]model.Attempt, error)
	getFn           func(ctx context.Context, id string) (*model.Attempt, error)
	loadResultFn    func(ctx context.Context, id string) (io.ReadCloser, string, error)
	loadThumbnailFn func(ctx context.Context, id string) (io.ReadCloser, string, error)
	deleteFn        func(ctx context.Context, id string) error
}

func (m *mockHistoryService) GetList(ctx context.Context, req *model.ListRequest) ([]model.Attempt, error) {
	return m.getListFn(ctx, req)
}

func (m *mockHistoryService) Get(ctx context.Context, id string) (*model.Attempt, error) {
	return m.getFn(ctx, id)
}

func (m *mockHistoryService) LoadResult(ctx context.Context, id string) (io.ReadCloser, string, error) {
	return m.loadResultFn(ctx, id)
}

func (m *mockHistoryService) LoadThumbnail(ctx context.Context, id string) (io.ReadCloser, string, error) {
	return m.loadThumbnailFn(ctx, id)
}

func (m *mockHistoryService) Delete(ctx context.Context, id string) error {
	return m.deleteFn(ctx, id)
}

func init() {
	gin.SetMode(gin.TestMode)
}
