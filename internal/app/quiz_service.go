package app

import (
	"context"
	"hash/fnv"
	"log"
	"sync"
	"time"

	"ffquiz-service/internal/domain"
)

// SessionRepository abstracts how active sessions are stored (in-memory, Redis, etc).
type SessionRepository interface {
	// Load returns domain.ErrSessionNotFound when the user has no session.
	Load(ctx context.Context, userID string) (domain.SessionRecord, error)
	Save(ctx context.Context, rec domain.SessionRecord) error
	Delete(ctx context.Context, userID string) error
}

// Catalog resolves quizzes by id.
type Catalog interface {
	Quiz(id string) (domain.Quiz, error)
}

const userLockStripes = 64

// QuizService contains the quiz-taking use cases.
type QuizService struct {
	catalog    Catalog
	sessions   SessionRepository
	profiles   ProfileStore
	settlement *Settlement
	board      *LeaderboardService
	now        func() time.Time

	// Operations for one user run one at a time.
	locks [userLockStripes]sync.Mutex
}

func NewQuizService(catalog Catalog, sessions SessionRepository, profiles ProfileStore, settlement *Settlement, board *LeaderboardService) *QuizService {
	return &QuizService{
		catalog:    catalog,
		sessions:   sessions,
		profiles:   profiles,
		settlement: settlement,
		board:      board,
		now:        time.Now,
	}
}

func (s *QuizService) lock(userID string) func() {
	h := fnv.New32a()
	_, _ = h.Write([]byte(userID))
	mu := &s.locks[h.Sum32()%userLockStripes]
	mu.Lock()
	return mu.Unlock
}

// Start begins quizID for the user, replacing any session they already have.
// Quizzes the user has completed cannot be retaken.
func (s *QuizService) Start(ctx context.Context, userID, quizID string) (domain.SessionView, error) {
	if userID == "" {
		return domain.SessionView{}, domain.ErrAuthenticationRequired
	}
	quiz, err := s.catalog.Quiz(quizID)
	if err != nil {
		return domain.SessionView{}, err
	}

	unlock := s.lock(userID)
	defer unlock()

	profile, err := s.profiles.Get(ctx, userID)
	if err != nil {
		return domain.SessionView{}, storeError("start", err)
	}
	if prior, ok := profile.Attempt(quizID); ok {
		return domain.SessionView{}, &domain.AlreadyCompletedError{Attempt: prior}
	}

	session := NewSession(userID, quiz, s.now().UTC())
	if err := s.sessions.Save(ctx, session.Record()); err != nil {
		return domain.SessionView{}, storeError("start", err)
	}
	return session.View(s.settlement.Threshold(quiz)), nil
}

// Current returns the user's session as the UI renders it.
func (s *QuizService) Current(ctx context.Context, userID string) (domain.SessionView, error) {
	if userID == "" {
		return domain.SessionView{}, domain.ErrAuthenticationRequired
	}
	session, err := s.load(ctx, userID)
	if err != nil {
		return domain.SessionView{}, err
	}
	return session.View(s.settlement.Threshold(session.Quiz())), nil
}

// SelectAnswer records the tentative option for the current question.
func (s *QuizService) SelectAnswer(ctx context.Context, userID string, option int) (domain.SessionView, error) {
	return s.mutate(ctx, userID, "select", func(session *Session) error {
		return session.SelectAnswer(option)
	})
}

// Advance scores the selection and moves to the next question or finishes.
func (s *QuizService) Advance(ctx context.Context, userID string) (domain.SessionView, error) {
	return s.mutate(ctx, userID, "advance", func(session *Session) error {
		return session.Advance()
	})
}

// Settle records the finished session. It runs detached from ctx cancellation
// so a client that goes away mid-request does not abort the write. On failure
// the session stays finished and unsaved so the call can be retried.
func (s *QuizService) Settle(ctx context.Context, userID string) (domain.SettlementResult, error) {
	if userID == "" {
		return domain.SettlementResult{}, domain.ErrAuthenticationRequired
	}
	ctx = context.WithoutCancel(ctx)

	unlock := s.lock(userID)
	defer unlock()

	session, err := s.load(ctx, userID)
	if err != nil {
		return domain.SettlementResult{}, err
	}
	if !session.Finished() {
		return domain.SettlementResult{}, domain.ErrSessionInProgress
	}

	result, err := s.settlement.Settle(ctx, userID, session.Quiz().ID, session.Score(), session.Total())
	if err != nil {
		log.Printf("settle %s/%s: %v", userID, session.Quiz().ID, err)
		return domain.SettlementResult{}, err
	}

	session.MarkSaved(result)
	if err := s.sessions.Save(ctx, session.Record()); err != nil {
		// The attempt is durable; a stale unsaved flag only means a retry sees AlreadyCompleted.
		log.Printf("save settled session %s: %v", userID, err)
	}
	if s.board != nil {
		s.board.Publish(ctx)
	}
	return result, nil
}

// Abandon discards the user's session. Nothing about an unfinished attempt is kept.
func (s *QuizService) Abandon(ctx context.Context, userID string) error {
	if userID == "" {
		return domain.ErrAuthenticationRequired
	}
	unlock := s.lock(userID)
	defer unlock()
	return storeError("abandon", s.sessions.Delete(ctx, userID))
}

func (s *QuizService) mutate(ctx context.Context, userID, op string, fn func(*Session) error) (domain.SessionView, error) {
	if userID == "" {
		return domain.SessionView{}, domain.ErrAuthenticationRequired
	}
	unlock := s.lock(userID)
	defer unlock()

	session, err := s.load(ctx, userID)
	if err != nil {
		return domain.SessionView{}, err
	}
	if err := fn(session); err != nil {
		return domain.SessionView{}, err
	}
	if err := s.sessions.Save(ctx, session.Record()); err != nil {
		return domain.SessionView{}, storeError(op, err)
	}
	return session.View(s.settlement.Threshold(session.Quiz())), nil
}

func (s *QuizService) load(ctx context.Context, userID string) (*Session, error) {
	rec, err := s.sessions.Load(ctx, userID)
	if err != nil {
		return nil, storeError("load session", err)
	}
	quiz, err := s.catalog.Quiz(rec.QuizID)
	if err != nil {
		return nil, err
	}
	session, err := RestoreSession(rec, quiz)
	if err != nil {
		log.Printf("discarding session for %s: %v", userID, err)
		_ = s.sessions.Delete(ctx, userID)
		return nil, domain.ErrSessionNotFound
	}
	return session, nil
}
