package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/UnendingLoop/PhotoAnimator/internal/model"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// GETLIST - SUCCESS
func TestHistoryService_GetList_OK(t *testing.T) {
	repo := &mockRepo{
		getListFn: func(ctx context.Context, req *model.ListRequest) ([]model.Attempt, error) {
			require.Equal(t, 1, req.Page)
			require.Equal(t, 30, req.Limit)
			require.Equal(t, "created_at", req.Sort)
			require.Equal(t, "DESC", req.Order)
			return []model.Attempt{{UID: uuid.New()}}, nil
		},
	}

	svc := HistoryService{repo: repo}

	res, err := svc.GetList(context.Background(), &model.ListRequest{})
	require.NoError(t, err)
	require.Len(t, res, 1)
}

// GETLIST - FAIL
func TestHistoryService_GetList_DBError(t *testing.T) {
	repo := &mockRepo{
		getListFn: func(ctx context.Context, req *model.ListRequest) ([]model.Attempt, error) {
			return nil, errors.New("db is down")
		},
	}

	svc := HistoryService{repo: repo}
	_, err := svc.GetList(context.Background(), &model.ListRequest{})
	require.ErrorIs(t, err, model.ErrCommon500)
}

// GET - SUCCESS
func TestHistoryService_Get_OK(t *testing.T) {
	id := uuid.New().String()

	repo := &mockRepo{
		getFn: func(ctx context.Context, uid string) (*model.Attempt, error) {
			return &model.Attempt{UID: uuid.MustParse(uid)}, nil
		},
	}

	svc := HistoryService{repo: repo}

	a, err := svc.Get(context.Background(), id)
	require.NoError(t, err)
	require.Equal(t, id, a.UID.String())
}

// GET - FAIL
func TestHistoryService_Get_Errors(t *testing.T) {
	svc := HistoryService{repo: &mockRepo{
		getFn: func(ctx context.Context, id string) (*model.Attempt, error) {
			return nil, model.ErrAttemptNotFound
		},
	}}

	_, err := svc.Get(context.Background(), "bad-id")
	require.ErrorIs(t, err, model.ErrIncorrectID)

	_, err = svc.Get(context.Background(), uuid.NewString())
	require.ErrorIs(t, err, model.ErrAttemptNotFound)
}

// LOADRESULT / LOADTHUMBNAIL
func TestHistoryService_Load(t *testing.T) {
	archived := &model.Attempt{Status: model.StatusDone, ResultKey: "results/a.png", ThumbnailKey: "thumbs/a.png"}
	failed := &model.Attempt{Status: model.StatusFailed}

	tests := []struct {
		name    string
		attempt *model.Attempt
		thumb   bool
		wantKey string
		wantErr error
	}{
		{name: "result", attempt: archived, wantKey: "results/a.png"},
		{name: "thumbnail", attempt: archived, thumb: true, wantKey: "thumbs/a.png"},
		{name: "failed attempt has no result", attempt: failed, wantErr: model.ErrResultNotArchived},
		{name: "failed attempt has no thumbnail", attempt: failed, thumb: true, wantErr: model.ErrResultNotArchived},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := HistoryService{
				repo: &mockRepo{getFn: func(ctx context.Context, id string) (*model.Attempt, error) {
					return tt.attempt, nil
				}},
				storage: &mockStorage{getFn: func(ctx context.Context, key string) (io.ReadCloser, string, error) {
					require.Equal(t, tt.wantKey, key)
					return io.NopCloser(strings.NewReader("img")), model.PNG, nil
				}},
			}

			load := svc.LoadResult
			if tt.thumb {
				load = svc.LoadThumbnail
			}
			rc, ct, err := load(context.Background(), uuid.NewString())
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, model.PNG, ct)
			data, _ := io.ReadAll(rc)
			require.Equal(t, "img", string(data))
		})
	}
}

// LOADRESULT - STORAGE FAIL
func TestHistoryService_LoadResult_StorageError(t *testing.T) {
	svc := HistoryService{
		repo: &mockRepo{getFn: func(ctx context.Context, id string) (*model.Attempt, error) {
			return &model.Attempt{ResultKey: "results/x.png"}, nil
		}},
		storage: &mockStorage{getFn: func(ctx context.Context, key string) (io.ReadCloser, string, error) {
			return nil, "", errors.New("minio is down")
		}},
	}

	_, _, err := svc.LoadResult(context.Background(), uuid.NewString())
	require.ErrorIs(t, err, model.ErrCommon500)
}

// LOADRESULT - FILE GONE FROM STORAGE
func TestHistoryService_LoadResult_MissingObject(t *testing.T) {
	svc := HistoryService{
		repo: &mockRepo{getFn: func(ctx context.Context, id string) (*model.Attempt, error) {
			return &model.Attempt{ResultKey: "results/x.png"}, nil
		}},
		storage: &mockStorage{getFn: func(ctx context.Context, key string) (io.ReadCloser, string, error) {
			return nil, "", fmt.Errorf("%w: %s", model.ErrResultNotArchived, key)
		}},
	}

	_, _, err := svc.LoadResult(context.Background(), uuid.NewString())
	require.Equal(t, model.ErrResultNotArchived, err)
}

// DELETE - SUCCESS
func TestHistoryService_Delete_OK(t *testing.T) {
	var deleted []string
	svc := HistoryService{
		repo: &mockRepo{
			getFn: func(ctx context.Context, id string) (*model.Attempt, error) {
				return &model.Attempt{ResultKey: "results/a.png", ThumbnailKey: "thumbs/a.png"}, nil
			},
			deleteFn: func(ctx context.Context, id string) error { return nil },
		},
		storage: &mockStorage{deleteFn: func(ctx context.Context, key string) error {
			deleted = append(deleted, key)
			return nil
		}},
	}

	require.NoError(t, svc.Delete(context.Background(), uuid.NewString()))
	require.Equal(t, []string{"results/a.png", "thumbs/a.png"}, deleted)
}

// DELETE - FAILED ATTEMPT: в хранилище нечего удалять
func TestHistoryService_Delete_NoStoredFiles(t *testing.T) {
	svc := HistoryService{
		repo: &mockRepo{
			getFn: func(ctx context.Context, id string) (*model.Attempt, error) {
				return &model.Attempt{Status: model.StatusFailed}, nil
			},
			deleteFn: func(ctx context.Context, id string) error { return nil },
		},
		storage: &mockStorage{deleteFn: func(ctx context.Context, key string) error {
			t.Fatal("storage must not be touched")
			return nil
		}},
	}

	require.NoError(t, svc.Delete(context.Background(), uuid.NewString()))
}

// DELETE - FAIL
func TestHistoryService_Delete_Errors(t *testing.T) {
	tests := []struct {
		name    string
		id      string
		getErr  error
		delErr  error
		wantErr error
	}{
		{name: "bad id", id: "x", wantErr: model.ErrIncorrectID},
		{name: "not found", id: uuid.NewString(), getErr: model.ErrAttemptNotFound, wantErr: model.ErrAttemptNotFound},
		{name: "db get fails", id: uuid.NewString(), getErr: errors.New("boom"), wantErr: model.ErrCommon500},
		{name: "db delete fails", id: uuid.NewString(), delErr: errors.New("boom"), wantErr: model.ErrCommon500},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := HistoryService{
				repo: &mockRepo{
					getFn: func(ctx context.Context, id string) (*model.Attempt, error) {
						if tt.getErr != nil {
							return nil, tt.getErr
						}
						return &model.Attempt{}, nil
					},
					deleteFn: func(ctx context.Context, id string) error { return tt.delErr },
				},
			}
			require.ErrorIs(t, svc.Delete(context.Background(), tt.id), tt.wantErr)
		})
	}
}

func TestValidateQueryParams(t *testing.T) {
	tests := []struct {
		in        model.ListRequest
		wantSort  string
		wantOrder string
		wantLimit int
	}{
		{in: model.ListRequest{}, wantSort: "created_at", wantOrder: "DESC", wantLimit: 30},
		{in: model.ListRequest{Sort: " UID ", Order: "ascend", Limit: 10}, wantSort: "attempt_uid", wantOrder: "ASC", wantLimit: 10},
		{in: model.ListRequest{Sort: "; DROP TABLE", Order: "sideways", Limit: 1000}, wantSort: "created_at", wantOrder: "DESC", wantLimit: 30},
	}

	for _, tt := range tests {
		req := tt.in
		validateQueryParams(&req)
		require.Equal(t, tt.wantSort, req.Sort)
		require.Equal(t, tt.wantOrder, req.Order)
		require.Equal(t, tt.wantLimit, req.Limit)
		require.Equal(t, 1, req.Page)
	}
}
