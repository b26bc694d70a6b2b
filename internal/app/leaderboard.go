package app

import (
	"context"
	"log"
	"sync"
	"time"

	"ffquiz-service/internal/domain"
)

const (
	DefaultLeaderboardLimit = 50
	MaxLeaderboardLimit     = 100
)

// LeaderboardService ranks profiles and pushes fresh rankings to subscribers
// after every balance change.
type LeaderboardService struct {
	profiles ProfileStore
	now      func() time.Time

	mu          sync.Mutex
	subscribers map[chan domain.Leaderboard]domain.ProfileField
}

func NewLeaderboardService(profiles ProfileStore) *LeaderboardService {
	return NewLeaderboardServiceWithClock(profiles, time.Now)
}

// NewLeaderboardServiceWithClock is test-only for deterministic timestamps.
func NewLeaderboardServiceWithClock(profiles ProfileStore, now func() time.Time) *LeaderboardService {
	return &LeaderboardService{
		profiles:    profiles,
		now:         now,
		subscribers: make(map[chan domain.Leaderboard]domain.ProfileField),
	}
}

// Top returns up to limit profiles ranked by field. Profiles with a zero
// value for the field are left out.
func (s *LeaderboardService) Top(ctx context.Context, field domain.ProfileField, limit int) (domain.Leaderboard, error) {
	if !field.Valid() {
		field = domain.FieldTotalCoins
	}
	if limit <= 0 {
		limit = DefaultLeaderboardLimit
	}
	if limit > MaxLeaderboardLimit {
		limit = MaxLeaderboardLimit
	}
	profiles, err := s.profiles.TopByField(ctx, field, limit)
	if err != nil {
		return domain.Leaderboard{}, storeError("leaderboard", err)
	}
	entries := make([]domain.LeaderboardEntry, 0, len(profiles))
	for _, p := range profiles {
		if field.Value(p) <= 0 {
			continue
		}
		entries = append(entries, domain.LeaderboardEntry{
			Rank:             len(entries) + 1,
			UserID:           p.UserID,
			DisplayName:      p.DisplayName,
			TotalCoins:       p.TotalCoins,
			QuizzesCompleted: p.QuizzesCompleted,
		})
	}
	return domain.Leaderboard{Field: field, Entries: entries, UpdatedAt: s.now()}, nil
}

// Subscribe returns a channel primed with the current ranking for field.
// The caller must invoke the returned cancel function to avoid leaks.
func (s *LeaderboardService) Subscribe(ctx context.Context, field domain.ProfileField) (<-chan domain.Leaderboard, func(), error) {
	initial, err := s.Top(ctx, field, DefaultLeaderboardLimit)
	if err != nil {
		return nil, nil, err
	}
	ch := make(chan domain.Leaderboard, 8)
	ch <- initial

	s.mu.Lock()
	s.subscribers[ch] = initial.Field
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		if _, ok := s.subscribers[ch]; ok {
			delete(s.subscribers, ch)
			close(ch)
		}
		s.mu.Unlock()
	}
	return ch, cancel, nil
}

// Publish recomputes the rankings that have subscribers and fans them out.
func (s *LeaderboardService) Publish(ctx context.Context) {
	s.mu.Lock()
	fields := make(map[domain.ProfileField]struct{})
	for _, f := range s.subscribers {
		fields[f] = struct{}{}
	}
	s.mu.Unlock()

	for field := range fields {
		lb, err := s.Top(ctx, field, DefaultLeaderboardLimit)
		if err != nil {
			log.Printf("leaderboard publish %s: %v", field, err)
			continue
		}
		s.mu.Lock()
		s.broadcastLocked(lb)
		s.mu.Unlock()
	}
}

func (s *LeaderboardService) broadcastLocked(lb domain.Leaderboard) {
	for ch, field := range s.subscribers {
		if field != lb.Field {
			continue
		}
		select {
		case ch <- lb:
		default:
			// Drop the oldest update so a slow reader never blocks the publisher.
			select {
			case <-ch:
			default:
			}
			ch <- lb
		}
	}
}
