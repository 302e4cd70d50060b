package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/UnendingLoop/PhotoAnimator/internal/model"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/wb-go/wbf/retry"
)

func doneAttempt(data []byte, mime string) model.Attempt {
	now := time.Now().UTC()
	return model.Attempt{
		UID:        uuid.New(),
		SessionID:  uuid.New(),
		Status:     model.StatusDone,
		SourceMime: model.JPEG,
		SourceSize: 100,
		ResultMime: mime,
		ResultData: data,
		StartedAt:  &now,
		SettledAt:  &now,
	}
}

func TestWorker_processAttempt_Done(t *testing.T) {
	var mu sync.Mutex
	stored := map[string]string{}

	storage := &mockStorage{
		putFn: func(ctx context.Context, key string, size int64, ct string, r io.Reader) error {
			data, err := io.ReadAll(r)
			require.NoError(t, err)
			require.EqualValues(t, len(data), size)
			mu.Lock()
			stored[key] = ct
			mu.Unlock()
			return nil
		},
	}

	var saved *model.Attempt
	repo := &mockRepo{
		createFn: func(ctx context.Context, a *model.Attempt) error {
			saved = a
			return nil
		},
	}

	var event model.AttemptEvent
	pub := &mockPublisher{
		sendFn: func(ctx context.Context, s retry.Strategy, key []byte, v []byte) error {
			require.Equal(t, 5, s.Attempts)
			require.NoError(t, json.Unmarshal(v, &event))
			require.Equal(t, event.UID, string(key))
			return nil
		},
	}

	w := NewWorker(storage, repo, pub, 1)
	a := doneAttempt(validPNG(), model.PNG)

	require.NoError(t, w.processAttempt(context.Background(), a))

	resKey := ResultPrefix + a.UID.String() + ".png"
	thumbKey := ThumbPrefix + a.UID.String() + ".png"
	require.Equal(t, model.PNG, stored[resKey])
	require.Equal(t, model.PNG, stored[thumbKey])

	require.NotNil(t, saved)
	require.Equal(t, resKey, saved.ResultKey)
	require.Equal(t, thumbKey, saved.ThumbnailKey)

	require.Equal(t, model.StatusDone, event.Status)
	require.Equal(t, resKey, event.ResultKey)
}

func TestWorker_processAttempt_ThumbnailFailureIsSoft(t *testing.T) {
	puts := 0
	storage := &mockStorage{
		putFn: func(ctx context.Context, key string, size int64, ct string, r io.Reader) error {
			puts++
			return nil
		},
	}
	var saved *model.Attempt
	repo := &mockRepo{createFn: func(ctx context.Context, a *model.Attempt) error { saved = a; return nil }}
	pub := &mockPublisher{sendFn: func(ctx context.Context, s retry.Strategy, key []byte, v []byte) error { return nil }}

	w := NewWorker(storage, repo, pub, 1)
	// не декодируемые байты: результат сохраняется, превью нет
	require.NoError(t, w.processAttempt(context.Background(), doneAttempt([]byte("not-an-image"), model.WEBP)))
	require.Equal(t, 1, puts)
	require.NotEmpty(t, saved.ResultKey)
	require.Empty(t, saved.ThumbnailKey)
}

func TestWorker_processAttempt_Failed(t *testing.T) {
	storage := &mockStorage{
		putFn: func(ctx context.Context, key string, size int64, ct string, r io.Reader) error {
			t.Fatal("failed attempts have nothing to store")
			return nil
		},
	}
	repo := &mockRepo{createFn: func(ctx context.Context, a *model.Attempt) error {
		require.Equal(t, model.StatusFailed, a.Status)
		require.Empty(t, a.ResultKey)
		return nil
	}}
	sent := false
	pub := &mockPublisher{sendFn: func(ctx context.Context, s retry.Strategy, key []byte, v []byte) error {
		sent = true
		return nil
	}}

	w := NewWorker(storage, repo, pub, 1)
	a := model.Attempt{UID: uuid.New(), SessionID: uuid.New(), Status: model.StatusFailed, ErrMsg: model.MsgAnimationFailed}
	require.NoError(t, w.processAttempt(context.Background(), a))
	require.True(t, sent)
}

func TestWorker_processAttempt_Errors(t *testing.T) {
	okStorage := &mockStorage{putFn: func(ctx context.Context, key string, size int64, ct string, r io.Reader) error { return nil }}
	okRepo := &mockRepo{createFn: func(ctx context.Context, a *model.Attempt) error { return nil }}
	okPub := &mockPublisher{sendFn: func(ctx context.Context, s retry.Strategy, key []byte, v []byte) error { return nil }}

	tests := []struct {
		name string
		w    *Worker
	}{
		{
			name: "storage down",
			w: NewWorker(&mockStorage{putFn: func(ctx context.Context, key string, size int64, ct string, r io.Reader) error {
				return errors.New("storage down")
			}}, okRepo, okPub, 1),
		},
		{
			name: "db down",
			w: NewWorker(okStorage, &mockRepo{createFn: func(ctx context.Context, a *model.Attempt) error {
				return errors.New("db down")
			}}, okPub, 1),
		},
		{
			name: "kafka down",
			w: NewWorker(okStorage, okRepo, &mockPublisher{sendFn: func(ctx context.Context, s retry.Strategy, key []byte, v []byte) error {
				return errors.New("kafka down")
			}}, 1),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Error(t, tt.w.processAttempt(context.Background(), doneAttempt(validPNG(), model.PNG)))
		})
	}
}

func TestWorker_AttemptSettled_DropsWhenFull(t *testing.T) {
	w := NewWorker(nil, nil, nil, 1)

	w.AttemptSettled(context.Background(), model.Attempt{UID: uuid.New()})
	w.AttemptSettled(context.Background(), model.Attempt{UID: uuid.New()})

	require.Len(t, w.queue, 1)
	require.EqualValues(t, 1, w.Dropped())
}

func TestWorker_StartWorker(t *testing.T) {
	saved := make(chan uuid.UUID, 1)
	w := NewWorker(
		&mockStorage{putFn: func(ctx context.Context, key string, size int64, ct string, r io.Reader) error { return nil }},
		&mockRepo{createFn: func(ctx context.Context, a *model.Attempt) error { saved <- a.UID; return nil }},
		&mockPublisher{sendFn: func(ctx context.Context, s retry.Strategy, key []byte, v []byte) error { return nil }},
		4,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.StartWorker(ctx)

	a := model.Attempt{UID: uuid.New(), Status: model.StatusFailed}
	w.AttemptSettled(ctx, a)

	select {
	case id := <-saved:
		require.Equal(t, a.UID, id)
	case <-time.After(2 * time.Second):
		t.Fatal("attempt was not archived")
	}
}

func validPNG() []byte {
	img := image.NewRGBA(image.Rect(0, 0, 32, 32))
	for y := 0; y < 32; y++ {
		for x := 0; x < 32; x++ {
			img.Set(x, y, color.RGBA{R: 100, G: 100, B: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	_ = png.Encode(&buf, img)
	return buf.Bytes()
}
