package session

import (
	"context"
	"sync"
	"time"

	"github.com/UnendingLoop/PhotoAnimator/internal/model"
	"github.com/UnendingLoop/PhotoAnimator/internal/mwlogger"
	"github.com/google/uuid"
	"github.com/wb-go/wbf/zlog"
)

// Registry keeps live controllers by session id
type Registry struct {
	mu          sync.RWMutex
	sessions    map[uuid.UUID]*Controller
	transformer Transformer
	observer    AttemptObserver
	ttl         time.Duration
	ctx         context.Context
	cancel      context.CancelFunc
}

func NewRegistry(tr Transformer, obs AttemptObserver, ttl time.Duration) *Registry {
	ctx, cancel := context.WithCancel(context.Background())
	return &Registry{
		sessions:    make(map[uuid.UUID]*Controller),
		transformer: tr,
		observer:    obs,
		ttl:         ttl,
		ctx:         ctx,
		cancel:      cancel,
	}
}

func (r *Registry) Create() *Controller {
	return r.GetOrCreate(uuid.New())
}

// GetOrCreate - для фронтов с собственным ключом сессии (telegram chat)
func (r *Registry) GetOrCreate(id uuid.UUID) *Controller {
	r.mu.Lock()
	defer r.mu.Unlock()

	if c, ok := r.sessions[id]; ok {
		return c
	}

	logger := zlog.Logger.With().Str("session_id", id.String()).Logger()
	c := newController(mwlogger.WithLogger(r.ctx, logger), id, r.transformer, r.observer)
	r.sessions[id] = c
	return c
}

func (r *Registry) Get(id string) (*Controller, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, model.ErrIncorrectID
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.sessions[uid]
	if !ok {
		return nil, model.ErrSessionNotFound
	}
	return c, nil
}

func (r *Registry) Delete(id string) error {
	uid, err := uuid.Parse(id)
	if err != nil {
		return model.ErrIncorrectID
	}

	r.mu.Lock()
	c, ok := r.sessions[uid]
	delete(r.sessions, uid)
	r.mu.Unlock()

	if !ok {
		return model.ErrSessionNotFound
	}
	c.Close()
	return nil
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// EvictIdle closes sessions without commands for longer than ttl. Returns how many were closed.
func (r *Registry) EvictIdle(now time.Time) int {
	if r.ttl <= 0 {
		return 0
	}

	r.mu.Lock()
	stale := make([]*Controller, 0)
	for id, c := range r.sessions {
		if now.Sub(c.LastSeen()) > r.ttl {
			stale = append(stale, c)
			delete(r.sessions, id)
		}
	}
	r.mu.Unlock()

	for _, c := range stale {
		c.Close()
	}
	return len(stale)
}

// Close stops every actor
func (r *Registry) Close() {
	r.cancel()

	r.mu.Lock()
	all := make([]*Controller, 0, len(r.sessions))
	for id, c := range r.sessions {
		all = append(all, c)
		delete(r.sessions, id)
	}
	r.mu.Unlock()

	for _, c := range all {
		<-c.done
	}
}
