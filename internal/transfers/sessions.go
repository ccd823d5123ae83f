package transfers

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var ErrWizardNotFound = errors.New("transfer wizard not found")

// Sessions keeps open wizards by id and drops the ones left idle.
type Sessions struct {
	validator Validator
	creator   Creator
	logger    *zap.Logger
	idle      time.Duration

	mu      sync.Mutex
	wizards map[uuid.UUID]*Wizard
}

func NewSessions(validator Validator, creator Creator, idle time.Duration, logger *zap.Logger) *Sessions {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sessions{
		validator: validator,
		creator:   creator,
		logger:    logger,
		idle:      idle,
		wizards:   make(map[uuid.UUID]*Wizard),
	}
}

func (s *Sessions) Open() *Wizard {
	w := NewWizard(s.validator, s.creator, s.logger)

	s.mu.Lock()
	s.wizards[w.ID] = w
	s.mu.Unlock()

	return w
}

func (s *Sessions) Get(id uuid.UUID) (*Wizard, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.wizards[id]
	if !ok {
		return nil, ErrWizardNotFound
	}
	return w, nil
}

func (s *Sessions) Close(id uuid.UUID) {
	s.mu.Lock()
	w, ok := s.wizards[id]
	delete(s.wizards, id)
	s.mu.Unlock()

	if ok {
		w.coordinator.Reset()
	}
}

func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.wizards)
}

// Sweep closes wizards idle since before now minus the idle window. Busy wizards are kept.
func (s *Sessions) Sweep(now time.Time) int {
	cutoff := now.Add(-s.idle)
	var expired []uuid.UUID

	s.mu.Lock()
	for id, w := range s.wizards {
		w.mu.Lock()
		stale := !w.busy && w.lastActivity.Before(cutoff)
		w.mu.Unlock()
		if stale {
			expired = append(expired, id)
		}
	}
	s.mu.Unlock()

	for _, id := range expired {
		s.Close(id)
	}
	if len(expired) > 0 {
		s.logger.Debug("Closed idle transfer wizards", zap.Int("count", len(expired)))
	}
	return len(expired)
}

// CleanupLoop sweeps every interval until ctx is done.
func (s *Sessions) CleanupLoop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			s.Sweep(now)
		}
	}
}
