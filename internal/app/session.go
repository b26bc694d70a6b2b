package app

import (
	"fmt"
	"time"

	"ffquiz-service/internal/domain"
)

// Session drives one user through one quiz. It is not safe for concurrent
// use; callers serialize operations per user.
type Session struct {
	quiz domain.Quiz
	rec  domain.SessionRecord
}

// NewSession starts quiz at question 0 with a zero score.
func NewSession(userID string, quiz domain.Quiz, now time.Time) *Session {
	return &Session{
		quiz: quiz,
		rec: domain.SessionRecord{
			UserID:    userID,
			QuizID:    quiz.ID,
			StartedAt: now,
		},
	}
}

// RestoreSession rebuilds a session from its stored record.
func RestoreSession(rec domain.SessionRecord, quiz domain.Quiz) (*Session, error) {
	if rec.QuizID != quiz.ID {
		return nil, fmt.Errorf("session quiz %s does not match %s", rec.QuizID, quiz.ID)
	}
	total := len(quiz.Questions)
	if rec.Score < 0 || rec.Score > total || rec.QuestionIndex < 0 || rec.QuestionIndex > total {
		return nil, fmt.Errorf("session for quiz %s is out of range", quiz.ID)
	}
	if !rec.Finished && rec.QuestionIndex == total {
		return nil, fmt.Errorf("session for quiz %s ran past the last question", quiz.ID)
	}
	return &Session{quiz: quiz, rec: rec}, nil
}

// Record returns the storable state.
func (s *Session) Record() domain.SessionRecord {
	rec := s.rec
	if s.rec.Selected != nil {
		v := *s.rec.Selected
		rec.Selected = &v
	}
	return rec
}

func (s *Session) Quiz() domain.Quiz { return s.quiz }

func (s *Session) Finished() bool { return s.rec.Finished }

func (s *Session) Score() int { return s.rec.Score }

func (s *Session) Total() int { return len(s.quiz.Questions) }

// SelectAnswer records the tentative choice for the current question.
// It may be called repeatedly before Advance.
func (s *Session) SelectAnswer(option int) error {
	if s.rec.Finished {
		return domain.ErrSessionFinished
	}
	if option < 0 || option >= domain.OptionCount {
		return domain.ErrInvalidOption
	}
	s.rec.Selected = &option
	return nil
}

// Advance scores the current selection and moves on, finishing after the
// last question. Without a selection nothing changes.
func (s *Session) Advance() error {
	if s.rec.Finished {
		return domain.ErrSessionFinished
	}
	if s.rec.Selected == nil {
		return domain.ErrNoSelection
	}
	if *s.rec.Selected == s.quiz.Questions[s.rec.QuestionIndex].Correct {
		s.rec.Score++
	}
	s.rec.Selected = nil
	if s.rec.QuestionIndex+1 < len(s.quiz.Questions) {
		s.rec.QuestionIndex++
		return nil
	}
	s.rec.QuestionIndex = len(s.quiz.Questions)
	s.rec.Finished = true
	return nil
}

// MarkSaved records the settlement outcome on a finished session.
func (s *Session) MarkSaved(result domain.SettlementResult) {
	s.rec.Saved = true
	s.rec.Result = &result
}

// Passed applies the absolute threshold to the current score.
func Passed(score, threshold int) bool {
	return score >= threshold
}

// View renders the session for the UI without exposing answer keys.
func (s *Session) View(threshold int) domain.SessionView {
	total := len(s.quiz.Questions)
	rec := s.Record()
	view := domain.SessionView{
		QuizID:         s.quiz.ID,
		QuizTitle:      s.quiz.Title,
		Status:         domain.SessionInProgress,
		QuestionIndex:  rec.QuestionIndex,
		TotalQuestions: total,
		Score:          rec.Score,
		Selected:       rec.Selected,
		Saved:          rec.Saved,
		Result:         rec.Result,
	}
	if total > 0 {
		view.Progress = float64(rec.QuestionIndex) / float64(total)
	}
	if rec.Finished {
		passed := Passed(rec.Score, threshold)
		view.Status = domain.SessionFinished
		view.Passed = &passed
		view.Progress = 1
		return view
	}

	q := s.quiz.Questions[rec.QuestionIndex]
	qv := &domain.QuestionView{ID: q.ID, Number: rec.QuestionIndex + 1, Prompt: q.Prompt}
	for i, text := range q.Options {
		qv.Options = append(qv.Options, domain.OptionView{Label: domain.OptionLabel(i), Text: text})
	}
	view.Question = qv
	return view
}
