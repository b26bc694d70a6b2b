package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"ffquiz-service/internal/domain"
	"github.com/goccy/go-json"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/driver/pgdriver"
)

// profileRow stores the profile document as JSONB next to the columns that
// are queried or constrained directly.
type profileRow struct {
	bun.BaseModel `bun:"table:profiles"`

	UserID           string    `bun:"user_id,pk"`
	GameID           string    `bun:"game_id,nullzero"`
	Email            string    `bun:"email,nullzero"`
	TotalCoins       int       `bun:"total_coins,notnull"`
	QuizzesCompleted int       `bun:"quizzes_completed,notnull"`
	Doc              string    `bun:"doc,type:jsonb,notnull"`
	CreatedAt        time.Time `bun:"created_at,notnull"`
	UpdatedAt        time.Time `bun:"updated_at,notnull"`
}

func toRow(p domain.Profile) (*profileRow, error) {
	doc, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("encode profile: %w", err)
	}
	return &profileRow{
		UserID:           p.UserID,
		GameID:           p.GameID,
		Email:            p.Email,
		TotalCoins:       p.TotalCoins,
		QuizzesCompleted: p.QuizzesCompleted,
		Doc:              string(doc),
		CreatedAt:        p.CreatedAt,
		UpdatedAt:        p.UpdatedAt,
	}, nil
}

func (r *profileRow) profile() (domain.Profile, error) {
	var p domain.Profile
	if err := json.Unmarshal([]byte(r.Doc), &p); err != nil {
		return domain.Profile{}, fmt.Errorf("decode profile %s: %w", r.UserID, err)
	}
	p.UserID = r.UserID
	return p, nil
}

// ProfileStore persists profiles in Postgres through bun. AtomicUpdate locks
// the row with SELECT ... FOR UPDATE for the length of one transaction.
type ProfileStore struct {
	db *bun.DB
}

func NewProfileStore(db *bun.DB) *ProfileStore {
	return &ProfileStore{db: db}
}

func (s *ProfileStore) Get(ctx context.Context, userID string) (domain.Profile, error) {
	return s.findOne(ctx, s.db, "user_id = ?", userID)
}

func (s *ProfileStore) Create(ctx context.Context, p domain.Profile) (domain.Profile, error) {
	row, err := toRow(p)
	if err != nil {
		return domain.Profile{}, err
	}
	res, err := s.db.NewInsert().Model(row).On("CONFLICT (user_id) DO NOTHING").Exec(ctx)
	if err != nil {
		return domain.Profile{}, mapIntegrity(err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return s.Get(ctx, p.UserID)
	}
	return p.Clone(), nil
}

func (s *ProfileStore) AtomicUpdate(ctx context.Context, userID string, mutate func(*domain.Profile) error) (domain.Profile, error) {
	var out domain.Profile
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		row := new(profileRow)
		err := tx.NewSelect().Model(row).Where("user_id = ?", userID).For("UPDATE").Scan(ctx)
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrProfileNotFound
		}
		if err != nil {
			return fmt.Errorf("lock profile: %w", err)
		}
		current, err := row.profile()
		if err != nil {
			return err
		}
		if err := mutate(&current); err != nil {
			return err
		}
		current.UserID = userID
		next, err := toRow(current)
		if err != nil {
			return err
		}
		if _, err := tx.NewUpdate().Model(next).WherePK().Exec(ctx); err != nil {
			return mapIntegrity(err)
		}
		out = current
		return nil
	})
	if err != nil {
		return domain.Profile{}, err
	}
	return out, nil
}

func (s *ProfileStore) TopByField(ctx context.Context, field domain.ProfileField, limit int) ([]domain.Profile, error) {
	column := "total_coins"
	if field == domain.FieldQuizzesCompleted {
		column = "quizzes_completed"
	}
	var rows []profileRow
	err := s.db.NewSelect().
		Model(&rows).
		OrderExpr("? DESC", bun.Ident(column)).
		OrderExpr("user_id ASC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("top profiles by %s: %w", column, err)
	}
	out := make([]domain.Profile, 0, len(rows))
	for i := range rows {
		p, err := rows[i].profile()
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func (s *ProfileStore) FindByGameID(ctx context.Context, gameID string) (domain.Profile, error) {
	return s.findOne(ctx, s.db, "game_id = ?", gameID)
}

func (s *ProfileStore) FindByEmail(ctx context.Context, email string) (domain.Profile, error) {
	return s.findOne(ctx, s.db, "email = ?", email)
}

func (s *ProfileStore) findOne(ctx context.Context, db bun.IDB, where string, arg string) (domain.Profile, error) {
	row := new(profileRow)
	err := db.NewSelect().Model(row).Where(where, arg).Limit(1).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Profile{}, domain.ErrProfileNotFound
	}
	if err != nil {
		return domain.Profile{}, fmt.Errorf("find profile: %w", err)
	}
	return row.profile()
}

// mapIntegrity turns unique-index violations into the registration errors.
func mapIntegrity(err error) error {
	var pgErr pgdriver.Error
	if !errors.As(err, &pgErr) || !pgErr.IntegrityViolation() {
		return fmt.Errorf("write profile: %w", err)
	}
	switch pgErr.Field('n') {
	case "profiles_game_id_key":
		return domain.ErrGameIDRegistered
	case "profiles_email_key":
		return domain.ErrEmailRegistered
	}
	return fmt.Errorf("write profile: %w", err)
}
