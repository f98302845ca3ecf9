package repositories

import (
	"context"
	"sync"
	"time"

	"github.com/biniyamkassa/Gondar-City-Centralized-Dahboard/internal/models"
)

// MemorySessionRepository is the per-process session map used when no Redis
// address is configured.
type MemorySessionRepository struct {
	mu       sync.RWMutex
	sessions map[string]models.Session
	now      func() time.Time
}

func NewMemorySessionRepository() *MemorySessionRepository {
	return &MemorySessionRepository{
		sessions: make(map[string]models.Session),
		now:      time.Now,
	}
}

func (r *MemorySessionRepository) Store(_ context.Context, session models.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sweep()
	r.sessions[session.ID] = session
	return nil
}

func (r *MemorySessionRepository) Find(_ context.Context, id string) (*models.Session, error) {
	r.mu.RLock()
	session, ok := r.sessions[id]
	r.mu.RUnlock()

	if !ok || session.Expired(r.now()) {
		return nil, nil
	}
	return &session, nil
}

func (r *MemorySessionRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	delete(r.sessions, id)
	r.mu.Unlock()
	return nil
}

// sweep drops expired sessions. Callers hold mu.
func (r *MemorySessionRepository) sweep() {
	now := r.now()
	for id, s := range r.sessions {
		if s.Expired(now) {
			delete(r.sessions, id)
		}
	}
}
