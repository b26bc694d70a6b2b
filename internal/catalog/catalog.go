package catalog

import (
	"fmt"
	"strconv"

	"ffquiz-service/internal/domain"
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
)

// Catalog is the immutable set of quizzes loaded at startup.
// It is safe for concurrent reads without locking.
type Catalog struct {
	order   []string
	quizzes map[string]domain.Quiz
	issues  error
}

// Build converts source quizzes into a catalog. Structural problems fail the
// build; answer letters outside A-D fall back to option A and are kept as issues.
func Build(src []SourceQuiz) (*Catalog, error) {
	c := &Catalog{quizzes: make(map[string]domain.Quiz, len(src))}
	var hard, soft *multierror.Error

	for _, sq := range src {
		quiz, issues, err := buildQuiz(sq)
		if err != nil {
			hard = multierror.Append(hard, err)
			continue
		}
		if issues != nil {
			soft = multierror.Append(soft, issues)
		}
		if _, dup := c.quizzes[quiz.ID]; dup {
			hard = multierror.Append(hard, errors.Errorf("quiz %s: duplicate id", quiz.ID))
			continue
		}
		c.quizzes[quiz.ID] = quiz
		c.order = append(c.order, quiz.ID)
	}
	if err := hard.ErrorOrNil(); err != nil {
		return nil, err
	}
	c.issues = soft.ErrorOrNil()
	return c, nil
}

func buildQuiz(sq SourceQuiz) (domain.Quiz, *multierror.Error, error) {
	id := sq.QuizID()
	if !sq.Category.Valid() {
		return domain.Quiz{}, nil, errors.Errorf("quiz %s: unknown category %q", id, sq.Category)
	}
	if sq.Name == "" {
		return domain.Quiz{}, nil, errors.Errorf("quiz %s: name is required", id)
	}
	if len(sq.Questions) == 0 {
		return domain.Quiz{}, nil, errors.Errorf("quiz %s: no questions", id)
	}
	if sq.PassThreshold < 0 || sq.PassThreshold > len(sq.Questions) {
		return domain.Quiz{}, nil, errors.Errorf("quiz %s: pass threshold %d outside 0..%d", id, sq.PassThreshold, len(sq.Questions))
	}

	var issues *multierror.Error
	questions := make([]domain.Question, 0, len(sq.Questions))
	for i, src := range sq.Questions {
		qid := src.ID
		if qid == "" {
			qid = strconv.Itoa(i + 1)
		}
		if len(src.Options) != domain.OptionCount {
			return domain.Quiz{}, nil, errors.Errorf("quiz %s question %s: want %d options, got %d", id, qid, domain.OptionCount, len(src.Options))
		}
		correct, ok := DecodeAnswer(src.Answer)
		if !ok {
			issues = multierror.Append(issues, fmt.Errorf("quiz %s question %s: answer %q is not A-D, using A", id, qid, src.Answer))
		}
		q := domain.Question{ID: qid, Prompt: src.Question, Correct: correct}
		copy(q.Options[:], src.Options)
		questions = append(questions, q)
	}

	details, err := sq.Details.Decode(sq.Category)
	if err != nil {
		return domain.Quiz{}, nil, errors.Wrapf(err, "quiz %s", id)
	}

	title := sq.Title
	if title == "" {
		title = sq.Name
	}
	return domain.Quiz{
		ID:            id,
		Category:      sq.Category,
		Name:          sq.Name,
		Title:         title,
		Description:   sq.Description,
		Questions:     questions,
		PassThreshold: sq.PassThreshold,
		Details:       details,
	}, issues, nil
}

// Issues returns the non-fatal decoding problems found while building, or nil.
func (c *Catalog) Issues() error {
	return c.issues
}

// Len returns the number of quizzes.
func (c *Catalog) Len() int {
	return len(c.order)
}

// Quiz looks up a quiz by id.
func (c *Catalog) Quiz(id string) (domain.Quiz, error) {
	q, ok := c.quizzes[id]
	if !ok {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	return q, nil
}

// List returns quizzes in source order, filtered by category when non-empty.
func (c *Catalog) List(category domain.Category) []domain.Quiz {
	out := make([]domain.Quiz, 0, len(c.order))
	for _, id := range c.order {
		q := c.quizzes[id]
		if category != "" && q.Category != category {
			continue
		}
		out = append(out, q)
	}
	return out
}

// Details resolves item details by category and display name (or slug).
func (c *Catalog) Details(category domain.Category, name string) (domain.ItemDetails, error) {
	q, err := c.Quiz(string(category) + "-" + Slug(name))
	if err != nil {
		return nil, err
	}
	if q.Details == nil {
		return nil, domain.ErrQuizNotFound
	}
	return q.Details, nil
}
