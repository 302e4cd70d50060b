// Package archive persists settled attempts: images to object storage, rows to Postgres, events to Kafka
package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"sync/atomic"
	"time"

	"github.com/UnendingLoop/PhotoAnimator/internal/imageproc"
	"github.com/UnendingLoop/PhotoAnimator/internal/model"
	"github.com/UnendingLoop/PhotoAnimator/internal/mwlogger"
	"github.com/wb-go/wbf/retry"
)

type AttemptStorage interface {
	Put(ctx context.Context, key string, size int64, contentType string, r io.Reader) error
}

type AttemptRepo interface {
	Create(ctx context.Context, a *model.Attempt) error
}

// EventPublisher - контракт для работы с очередью
type EventPublisher interface {
	SendWithRetry(ctx context.Context, strategy retry.Strategy, key []byte, v []byte) error
}

// Стратегия ретрая отправки в очередь
var retryStrategy = retry.Strategy{
	Attempts: 5,
	Delay:    3 * time.Second,
	Backoff:  1.5,
}

const (
	ResultPrefix = "results/"
	ThumbPrefix  = "thumbs/"
)

type Worker struct {
	storage   AttemptStorage
	repo      AttemptRepo
	publisher EventPublisher
	queue     chan model.Attempt
	dropped   atomic.Int64
}

func NewWorker(strg AttemptStorage, repo AttemptRepo, pub EventPublisher, buffer int) *Worker {
	return &Worker{storage: strg, repo: repo, publisher: pub, queue: make(chan model.Attempt, buffer)}
}

// AttemptSettled is called from session actors, so it never blocks: when the buffer is full the attempt is dropped
func (w *Worker) AttemptSettled(ctx context.Context, a model.Attempt) {
	select {
	case w.queue <- a:
	default:
		w.dropped.Add(1)
		logger := mwlogger.LoggerFromContext(ctx)
		logger.Warn().Str("attempt", a.UID.String()).Msg("Archive queue is full, attempt not archived")
	}
}

func (w *Worker) Dropped() int64 { return w.dropped.Load() }

func (w *Worker) StartWorker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case a := <-w.queue:
			if err := w.processAttempt(ctx, a); err != nil {
				log.Printf("Archiving attempt %s failed: %v", a.UID, err)
			}
		}
	}
}

func (w *Worker) processAttempt(ctx context.Context, a model.Attempt) error {
	id := a.UID.String()

	// кладем в хранилище результат и превью - только для успешных попыток
	if a.Status == model.StatusDone && len(a.ResultData) > 0 {
		resKey := ResultPrefix + id + fileExt(a.ResultMime)
		if err := w.storage.Put(ctx, resKey, int64(len(a.ResultData)), a.ResultMime, bytes.NewReader(a.ResultData)); err != nil {
			return fmt.Errorf("failed to put result image to storage: %w", err)
		}
		a.ResultKey = resKey

		thumbKey, err := w.putThumbnail(ctx, id, a.ResultData, a.ResultMime)
		if err != nil {
			// без превью архив все равно полезен
			log.Printf("Failed to build thumbnail for attempt %s: %v", id, err)
		}
		a.ThumbnailKey = thumbKey
	}

	// пишем в базу
	if err := w.repo.Create(ctx, &a); err != nil {
		return fmt.Errorf("failed to save attempt to DB: %w", err)
	}

	// шлем событие в кафку
	payload, err := json.Marshal(newEvent(a))
	if err != nil {
		return fmt.Errorf("failed to marshal attempt event: %w", err)
	}
	if err := w.publisher.SendWithRetry(ctx, retryStrategy, []byte(id), payload); err != nil {
		return fmt.Errorf("failed to publish attempt event: %w", err)
	}
	return nil
}

func (w *Worker) putThumbnail(ctx context.Context, id string, data []byte, mime string) (string, error) {
	format, thumbMime := imageproc.FormatFor(mime)
	thumb, size, err := imageproc.Thumbnailer(bytes.NewReader(data), imageproc.ThumbSide, imageproc.ThumbSide, format)
	if err != nil {
		return "", err
	}

	key := ThumbPrefix + id + fileExt(thumbMime)
	if err := w.storage.Put(ctx, key, size, thumbMime, thumb); err != nil {
		return "", err
	}
	return key, nil
}

func newEvent(a model.Attempt) model.AttemptEvent {
	ev := model.AttemptEvent{
		UID:        a.UID.String(),
		SessionID:  a.SessionID.String(),
		Status:     a.Status,
		ResultMime: a.ResultMime,
		ResultKey:  a.ResultKey,
	}
	if a.SettledAt != nil {
		ev.SettledAt = *a.SettledAt
	}
	return ev
}

func fileExt(mime string) string {
	if ext, ok := model.GetImageFileExt[mime]; ok {
		return ext
	}
	return ".bin"
}
