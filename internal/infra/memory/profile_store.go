package memory

import (
	"context"
	"sort"
	"sync"

	"ffquiz-service/internal/domain"
)

// ProfileStore keeps profiles in a map. A single mutex covers every
// read-mutate-write, which makes AtomicUpdate trivially atomic.
type ProfileStore struct {
	mu       sync.Mutex
	profiles map[string]domain.Profile
	byGameID map[string]string
	byEmail  map[string]string
}

func NewProfileStore() *ProfileStore {
	return &ProfileStore{
		profiles: make(map[string]domain.Profile),
		byGameID: make(map[string]string),
		byEmail:  make(map[string]string),
	}
}

func (s *ProfileStore) Get(_ context.Context, userID string) (domain.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[userID]
	if !ok {
		return domain.Profile{}, domain.ErrProfileNotFound
	}
	return p.Clone(), nil
}

func (s *ProfileStore) Create(_ context.Context, p domain.Profile) (domain.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.profiles[p.UserID]; ok {
		return existing.Clone(), nil
	}
	if p.GameID != "" {
		if _, taken := s.byGameID[p.GameID]; taken {
			return domain.Profile{}, domain.ErrGameIDRegistered
		}
	}
	if p.Email != "" {
		if _, taken := s.byEmail[p.Email]; taken {
			return domain.Profile{}, domain.ErrEmailRegistered
		}
	}
	s.profiles[p.UserID] = p.Clone()
	if p.GameID != "" {
		s.byGameID[p.GameID] = p.UserID
	}
	if p.Email != "" {
		s.byEmail[p.Email] = p.UserID
	}
	return p.Clone(), nil
}

func (s *ProfileStore) AtomicUpdate(_ context.Context, userID string, mutate func(*domain.Profile) error) (domain.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.profiles[userID]
	if !ok {
		return domain.Profile{}, domain.ErrProfileNotFound
	}
	next := current.Clone()
	if err := mutate(&next); err != nil {
		return domain.Profile{}, err
	}
	next.UserID = userID
	s.profiles[userID] = next.Clone()
	return next, nil
}

func (s *ProfileStore) TopByField(_ context.Context, field domain.ProfileField, limit int) ([]domain.Profile, error) {
	s.mu.Lock()
	out := make([]domain.Profile, 0, len(s.profiles))
	for _, p := range s.profiles {
		out = append(out, p.Clone())
	}
	s.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		vi, vj := field.Value(out[i]), field.Value(out[j])
		if vi != vj {
			return vi > vj
		}
		return out[i].UserID < out[j].UserID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *ProfileStore) FindByGameID(ctx context.Context, gameID string) (domain.Profile, error) {
	s.mu.Lock()
	userID, ok := s.byGameID[gameID]
	s.mu.Unlock()
	if !ok {
		return domain.Profile{}, domain.ErrProfileNotFound
	}
	return s.Get(ctx, userID)
}

func (s *ProfileStore) FindByEmail(ctx context.Context, email string) (domain.Profile, error) {
	s.mu.Lock()
	userID, ok := s.byEmail[email]
	s.mu.Unlock()
	if !ok {
		return domain.Profile{}, domain.ErrProfileNotFound
	}
	return s.Get(ctx, userID)
}
