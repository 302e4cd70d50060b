package service

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/UnendingLoop/PhotoAnimator/internal/codec"
	"github.com/UnendingLoop/PhotoAnimator/internal/model"
	"github.com/UnendingLoop/PhotoAnimator/internal/mwlogger"
	"github.com/UnendingLoop/PhotoAnimator/internal/session"
)

// SessionStore - контракт реестра сессий
type SessionStore interface {
	Create() *session.Controller
	Get(id string) (*session.Controller, error)
	Delete(id string) error
}

// SessionService связывает HTTP-фронт с акторами сессий
type SessionService struct {
	store       SessionStore
	waitTimeout time.Duration
}

const defaultWaitTimeout = 60 * time.Second

func NewSessionService(store SessionStore) *SessionService {
	return &SessionService{store: store, waitTimeout: defaultWaitTimeout}
}

func (s SessionService) Create(ctx context.Context) (model.SessionState, error) {
	c := s.store.Create()
	logger := mwlogger.LoggerFromContext(ctx)
	logger.Info().Str("session_id", c.ID().String()).Msg("Session created")
	return s.wrap(c.Snapshot(ctx))
}

// Snapshot with wait=true long-polls until the session is not animating.
// When the wait window ends first, the current state is returned.
func (s SessionService) Snapshot(ctx context.Context, id string, wait bool) (model.SessionState, error) {
	c, err := s.store.Get(id)
	if err != nil {
		return model.SessionState{}, err
	}
	if !wait {
		return s.wrap(c.Snapshot(ctx))
	}

	waitCtx, cancel := context.WithTimeout(ctx, s.waitTimeout)
	defer cancel()
	st, err := c.Await(waitCtx)
	if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
		return s.wrap(c.Snapshot(ctx))
	}
	return s.wrap(st, err)
}

// Upload reads the file and hands it to the session. Nil r means no file was chosen.
func (s SessionService) Upload(ctx context.Context, id string, r io.Reader, name, mime string) (model.SessionState, error) {
	c, err := s.store.Get(id)
	if err != nil {
		return model.SessionState{}, err
	}

	var img *model.UploadedImage
	if r != nil {
		if img, err = codec.Read(r, name, mime); err != nil {
			logger := mwlogger.LoggerFromContext(ctx)
			logger.Warn().Err(err).Msg("Failed to read uploaded file")
			return model.SessionState{}, model.ErrUnreadableFile
		}
	}
	return s.wrap(c.Upload(ctx, img))
}

func (s SessionService) Remove(ctx context.Context, id string) (model.SessionState, error) {
	c, err := s.store.Get(id)
	if err != nil {
		return model.SessionState{}, err
	}
	return s.wrap(c.Remove(ctx))
}

// Animate returns the state right after the request was accepted or refused
func (s SessionService) Animate(ctx context.Context, id string) (model.SessionState, error) {
	c, err := s.store.Get(id)
	if err != nil {
		return model.SessionState{}, err
	}
	return s.wrap(c.Animate(ctx))
}

func (s SessionService) Result(ctx context.Context, id string) ([]byte, string, error) {
	c, err := s.store.Get(id)
	if err != nil {
		return nil, "", err
	}
	data, mime, err := c.Result(ctx)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrSessionClosed):
			return nil, "", model.ErrSessionNotFound
		case errors.Is(err, model.ErrResultNotReady):
			return nil, "", err
		default:
			logger := mwlogger.LoggerFromContext(ctx)
			logger.Error().Err(err).Msg("Failed to decode session result")
			return nil, "", model.ErrCommon500
		}
	}
	return data, mime, nil
}

func (s SessionService) Delete(ctx context.Context, id string) error {
	if err := s.store.Delete(id); err != nil {
		return err
	}
	logger := mwlogger.LoggerFromContext(ctx)
	logger.Info().Str("session_id", id).Msg("Session deleted")
	return nil
}

// wrap - сессия, закрытая джанитором между Get и командой, для клиента просто не существует
func (s SessionService) wrap(st model.SessionState, err error) (model.SessionState, error) {
	if errors.Is(err, model.ErrSessionClosed) {
		return model.SessionState{}, model.ErrSessionNotFound
	}
	return st, err
}
