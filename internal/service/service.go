// Package service provides business-logic for the app
package service

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/UnendingLoop/PhotoAnimator/internal/model"
	"github.com/UnendingLoop/PhotoAnimator/internal/mwlogger"
	"github.com/UnendingLoop/PhotoAnimator/internal/repository"
	"github.com/google/uuid"
)

// HistoryService - чтение и удаление архива завершенных попыток
type HistoryService struct {
	repo    repository.AttemptRepo
	storage ImageStorage
}

func NewHistoryService(attemptRep repository.AttemptRepo, strg ImageStorage) *HistoryService {
	return &HistoryService{
		repo:    attemptRep,
		storage: strg,
	}
}

// ImageStorage - контракт для работы с хранилищем
type ImageStorage interface {
	Delete(ctx context.Context, key string) error
	Get(ctx context.Context, key string) (output io.ReadCloser, ctype string, err error)
}

func (c HistoryService) GetList(ctx context.Context, req *model.ListRequest) ([]model.Attempt, error) {
	logger := mwlogger.LoggerFromContext(ctx)
	validateQueryParams(req)

	res, err := c.repo.GetList(ctx, req)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to fetch attempts list from DB")
		return nil, model.ErrCommon500
	}

	return res, nil
}

func (c HistoryService) Get(ctx context.Context, id string) (*model.Attempt, error) {
	if err := uuid.Validate(id); err != nil {
		return nil, model.ErrIncorrectID
	}

	return c.fetch(ctx, id)
}

func (c HistoryService) LoadResult(ctx context.Context, id string) (io.ReadCloser, string, error) {
	return c.load(ctx, id, func(a *model.Attempt) string { return a.ResultKey })
}

func (c HistoryService) LoadThumbnail(ctx context.Context, id string) (io.ReadCloser, string, error) {
	return c.load(ctx, id, func(a *model.Attempt) string { return a.ThumbnailKey })
}

func (c HistoryService) load(ctx context.Context, id string, keyOf func(a *model.Attempt) string) (io.ReadCloser, string, error) {
	logger := mwlogger.LoggerFromContext(ctx)
	if err := uuid.Validate(id); err != nil {
		return nil, "", model.ErrIncorrectID
	}

	res, err := c.fetch(ctx, id)
	if err != nil {
		return nil, "", err
	}
	key := keyOf(res)
	if key == "" {
		return nil, "", model.ErrResultNotArchived
	}

	// достаем из хранилища
	data, cType, err := c.storage.Get(ctx, key)
	if errors.Is(err, model.ErrResultNotArchived) {
		logger.Warn().Err(err).Msg(fmt.Sprintf("Archived file of attempt %q is missing in Storage", id))
		return nil, "", model.ErrResultNotArchived // 404
	}
	if err != nil {
		logger.Error().Err(err).Msg(fmt.Sprintf("Failed to fetch %q of attempt %q from Storage", key, id))
		return nil, "", model.ErrCommon500
	}
	return data, cType, nil
}

func (c HistoryService) Delete(ctx context.Context, id string) error {
	logger := mwlogger.LoggerFromContext(ctx)
	if err := uuid.Validate(id); err != nil {
		return model.ErrIncorrectID
	}

	// читаем из базы
	res, err := c.fetch(ctx, id)
	if err != nil {
		return err
	}

	// удаляем из базы
	if err := c.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, model.ErrAttemptNotFound) {
			return err // 404
		}
		logger.Error().Err(err).Msg("Failed to delete attempt from DB")
		return model.ErrCommon500
	}

	// удаляем из хранилища результат и превью(если они есть)
	for _, key := range []string{res.ResultKey, res.ThumbnailKey} {
		if key == "" {
			continue
		}
		if err := c.storage.Delete(ctx, key); err != nil {
			logger.Error().Err(err).Msg(fmt.Sprintf("Failed to delete %q from Storage", key))
			return model.ErrCommon500
		}
	}

	return nil
}

func (c HistoryService) fetch(ctx context.Context, id string) (*model.Attempt, error) {
	res, err := c.repo.Get(ctx, id)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrAttemptNotFound):
			return nil, err // 404
		default:
			logger := mwlogger.LoggerFromContext(ctx)
			logger.Error().Err(err).Msg(fmt.Sprintf("Failed to fetch attempt %q from DB", id))
			return nil, model.ErrCommon500
		}
	}
	return res, nil
}
