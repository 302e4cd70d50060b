// Package session holds the per-user animate workflow: one actor goroutine owns one SessionState
package session

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/UnendingLoop/PhotoAnimator/internal/codec"
	"github.com/UnendingLoop/PhotoAnimator/internal/model"
	"github.com/UnendingLoop/PhotoAnimator/internal/mwlogger"
	"github.com/google/uuid"
)

// Transformer - контракт клиента внешнего сервиса генерации
type Transformer interface {
	Submit(ctx context.Context, req model.TransformRequest) (model.TransformResult, error)
}

// AttemptObserver gets every settled attempt. Must not block.
type AttemptObserver interface {
	AttemptSettled(ctx context.Context, a model.Attempt)
}

type command func(st *state)

type state struct {
	image      *model.UploadedImage
	preview    model.PreviewHandle
	result     *model.TransformResult
	loading    bool
	pending    bool // запрос к сервису еще не вернулся, даже если его результат уже не нужен
	errMsg     string
	generation uint64
	startedAt  time.Time
	updatedAt  time.Time
	waiters    []chan model.SessionState
}

type Controller struct {
	id          uuid.UUID
	transformer Transformer
	observer    AttemptObserver
	instruction string

	ctx      context.Context
	cancel   context.CancelFunc
	cmds     chan command
	done     chan struct{}
	lastSeen atomic.Int64
}

func newController(parent context.Context, id uuid.UUID, tr Transformer, obs AttemptObserver) *Controller {
	ctx, cancel := context.WithCancel(parent)
	c := &Controller{
		id:          id,
		transformer: tr,
		observer:    obs,
		instruction: model.AnimateInstruction,
		ctx:         ctx,
		cancel:      cancel,
		cmds:        make(chan command),
		done:        make(chan struct{}),
	}
	c.touch()
	go c.run()
	return c
}

func (c *Controller) ID() uuid.UUID { return c.id }

// LastSeen - время последней команды от пользователя
func (c *Controller) LastSeen() time.Time { return time.Unix(0, c.lastSeen.Load()) }

// Close stops the actor. An in-flight attempt is left to finish, its settlement is dropped.
func (c *Controller) Close() {
	c.cancel()
	<-c.done
}

func (c *Controller) run() {
	defer close(c.done)
	st := &state{updatedAt: time.Now().UTC()}

	for {
		select {
		case <-c.ctx.Done():
			return
		case cmd := <-c.cmds:
			cmd(st)
		}
	}
}

func (c *Controller) touch() { c.lastSeen.Store(time.Now().UnixNano()) }

// call отправляет команду актору и ждет, пока он ее выполнит
func (c *Controller) call(ctx context.Context, fn command) error {
	c.touch()
	executed := make(chan struct{})
	cmd := func(st *state) {
		fn(st)
		close(executed)
	}

	select {
	case c.cmds <- cmd:
	case <-c.done:
		return model.ErrSessionClosed
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case <-executed:
		return nil
	case <-c.done:
		return model.ErrSessionClosed
	}
}

// Upload replaces the image; nil img means "no file" and resets the session to idle.
func (c *Controller) Upload(ctx context.Context, img *model.UploadedImage) (model.SessionState, error) {
	var snap model.SessionState
	err := c.call(ctx, func(st *state) {
		c.reset(st)
		if img != nil {
			st.image = img
			st.preview = codec.Preview(img)
		}
		c.notifyWaiters(st)
		snap = c.snapshot(st)
	})
	return snap, err
}

// Remove discards image, preview, result and error
func (c *Controller) Remove(ctx context.Context) (model.SessionState, error) {
	var snap model.SessionState
	err := c.call(ctx, func(st *state) {
		c.reset(st)
		c.notifyWaiters(st)
		snap = c.snapshot(st)
	})
	return snap, err
}

// Animate starts one transform attempt. Returns the state right after the transition.
func (c *Controller) Animate(ctx context.Context) (model.SessionState, error) {
	var snap model.SessionState
	var opErr error
	err := c.call(ctx, func(st *state) {
		switch {
		case st.image == nil:
			st.errMsg = model.MsgUploadFirst
			st.updatedAt = time.Now().UTC()
			opErr = model.ErrNoImage
		case st.loading, st.pending:
			opErr = model.ErrAnimationInProgress
		default:
			c.startAttempt(st)
		}
		snap = c.snapshot(st)
	})
	if err != nil {
		return model.SessionState{}, err
	}
	return snap, opErr
}

func (c *Controller) Snapshot(ctx context.Context) (model.SessionState, error) {
	var snap model.SessionState
	err := c.call(ctx, func(st *state) {
		snap = c.snapshot(st)
	})
	return snap, err
}

// Await blocks until no attempt is in flight and returns the state at that moment
func (c *Controller) Await(ctx context.Context) (model.SessionState, error) {
	var snap model.SessionState
	var wait chan model.SessionState
	err := c.call(ctx, func(st *state) {
		if st.loading {
			wait = make(chan model.SessionState, 1)
			st.waiters = append(st.waiters, wait)
			return
		}
		snap = c.snapshot(st)
	})
	if err != nil || wait == nil {
		return snap, err
	}

	select {
	case snap = <-wait:
		return snap, nil
	case <-ctx.Done():
		return model.SessionState{}, ctx.Err()
	case <-c.done:
		return model.SessionState{}, model.ErrSessionClosed
	}
}

// Result returns decoded bytes of the current animated image
func (c *Controller) Result(ctx context.Context) ([]byte, string, error) {
	var dataURI string
	err := c.call(ctx, func(st *state) {
		if st.result != nil {
			dataURI = st.result.DataURI
		}
	})
	if err != nil {
		return nil, "", err
	}
	if dataURI == "" {
		return nil, "", model.ErrResultNotReady
	}
	return codec.DecodeDataURI(dataURI)
}

//-------------------- всё ниже выполняется только внутри актора

func (c *Controller) reset(st *state) {
	// попытка в полёте становится устаревшей - её результат будет выброшен,
	// но pending остается до settle: второй запрос параллельно не уходит
	if st.loading {
		st.generation++
		st.loading = false
	}
	st.image = nil
	st.preview = ""
	st.result = nil
	st.errMsg = ""
	st.updatedAt = time.Now().UTC()
}

func (c *Controller) startAttempt(st *state) {
	st.generation++
	st.loading = true
	st.pending = true
	st.result = nil
	st.errMsg = ""
	st.startedAt = time.Now().UTC()
	st.updatedAt = st.startedAt

	gen := st.generation
	img := st.image
	started := st.startedAt
	req := model.TransformRequest{
		Payload:     codec.Encode(img),
		MimeType:    img.MimeType,
		Instruction: c.instruction,
	}

	go func() {
		// закрытие сессии не обрывает уже отправленный запрос
		res, err := c.transformer.Submit(context.WithoutCancel(c.ctx), req)
		c.settle(gen, img, started, res, err)
	}()
}

// settle возвращает результат попытки актору отдельным сообщением
func (c *Controller) settle(gen uint64, img *model.UploadedImage, started time.Time, res model.TransformResult, err error) {
	cmd := func(st *state) {
		st.pending = false
		if st.generation != gen || !st.loading {
			logger := mwlogger.LoggerFromContext(c.ctx)
			logger.Info().Uint64("generation", gen).Msg("Dropping settlement of a stale attempt")
			st.updatedAt = time.Now().UTC()
			return
		}

		st.loading = false
		st.updatedAt = time.Now().UTC()
		if err != nil {
			st.result = nil
			st.errMsg = model.MsgAnimationFailed
		} else {
			st.result = &res
			st.errMsg = ""
		}
		c.report(img, started, st)
		c.notifyWaiters(st)
	}

	select {
	case c.cmds <- cmd:
	case <-c.done:
	}
}

func (c *Controller) report(img *model.UploadedImage, started time.Time, st *state) {
	if c.observer == nil {
		return
	}
	settled := st.updatedAt
	a := model.Attempt{
		UID:        uuid.New(),
		SessionID:  c.id,
		SourceMime: img.MimeType,
		SourceSize: img.Size(),
		StartedAt:  &started,
		SettledAt:  &settled,
	}
	if st.result == nil {
		a.Status = model.StatusFailed
		a.ErrMsg = st.errMsg
	} else {
		a.Status = model.StatusDone
		data, mime, err := codec.DecodeDataURI(st.result.DataURI)
		if err != nil {
			logger := mwlogger.LoggerFromContext(c.ctx)
			logger.Error().Err(err).Msg("Failed to decode result for archive")
		}
		a.ResultData = data
		a.ResultMime = mime
	}
	c.observer.AttemptSettled(c.ctx, a)
}

func (c *Controller) notifyWaiters(st *state) {
	if len(st.waiters) == 0 {
		return
	}
	snap := c.snapshot(st)
	for _, w := range st.waiters {
		w <- snap
	}
	st.waiters = nil
}

func (c *Controller) snapshot(st *state) model.SessionState {
	s := model.SessionState{
		ID:         c.id,
		Preview:    st.preview,
		IsLoading:  st.loading,
		CanAnimate: st.image != nil && !st.loading && !st.pending,
		ErrMsg:     st.errMsg,
		UpdatedAt:  st.updatedAt,
	}
	if st.image != nil {
		s.ImageName = st.image.Name
		s.ImageMime = st.image.MimeType
		s.ImageSize = st.image.Size()
	}
	if st.result != nil {
		s.Result = st.result.DataURI
	}
	s.Status = statusOf(st)
	return s
}

func statusOf(st *state) model.Status {
	switch {
	case st.image == nil:
		return model.StatusIdle
	case st.loading:
		return model.StatusAnimating
	case st.result != nil:
		return model.StatusDone
	case st.errMsg != "":
		return model.StatusFailed
	default:
		return model.StatusReady
	}
}
