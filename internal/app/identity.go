package app

import (
	"context"
	"errors"
	"strings"
	"time"

	"ffquiz-service/internal/domain"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Verifier checks a game account against the external account API.
type Verifier interface {
	Verify(ctx context.Context, gameID, region string) (domain.VerificationRecord, error)
}

// TokenIssuer mints bearer tokens for authenticated users.
type TokenIssuer interface {
	Issue(userID string) (string, error)
}

// AuthResult is returned by every signup and login path.
type AuthResult struct {
	Token   string         `json:"token"`
	Profile domain.Profile `json:"profile"`
}

// IdentityService signs users up and in, creating their profile on first contact.
type IdentityService struct {
	profiles   ProfileStore
	verifier   Verifier
	tokens     TokenIssuer
	bcryptCost int
	now        func() time.Time
}

func NewIdentityService(profiles ProfileStore, verifier Verifier, tokens TokenIssuer) *IdentityService {
	return &IdentityService{
		profiles:   profiles,
		verifier:   verifier,
		tokens:     tokens,
		bcryptCost: bcrypt.DefaultCost,
		now:        time.Now,
	}
}

// WithBcryptCost lowers the hashing cost, for tests.
func (s *IdentityService) WithBcryptCost(cost int) *IdentityService {
	s.bcryptCost = cost
	return s
}

// SignupWithGameID verifies the game account and creates a profile named after it.
func (s *IdentityService) SignupWithGameID(ctx context.Context, gameID, region string) (AuthResult, error) {
	gameID, region, err := normalizeGameLogin(gameID, region)
	if err != nil {
		return AuthResult{}, err
	}
	if _, err := s.profiles.FindByGameID(ctx, gameID); err == nil {
		return AuthResult{}, domain.ErrGameIDRegistered
	} else if !errors.Is(err, domain.ErrProfileNotFound) {
		return AuthResult{}, storeError("signup", err)
	}

	rec, err := s.verify(ctx, gameID, region)
	if err != nil {
		return AuthResult{}, err
	}

	now := s.now().UTC()
	profile, err := s.profiles.Create(ctx, domain.Profile{
		UserID:           uuid.NewString(),
		DisplayName:      displayName(rec, gameID),
		GameID:           gameID,
		Region:           region,
		GameData:         rec.Raw,
		CompletedQuizzes: []domain.CompletedAttempt{},
		CreatedAt:        now,
		UpdatedAt:        now,
	})
	if err != nil {
		return AuthResult{}, storeError("signup", err)
	}
	return s.issue(profile)
}

// LoginWithGameID verifies the account again and refreshes the stored nickname.
func (s *IdentityService) LoginWithGameID(ctx context.Context, gameID, region string) (AuthResult, error) {
	gameID, region, err := normalizeGameLogin(gameID, region)
	if err != nil {
		return AuthResult{}, err
	}
	rec, err := s.verify(ctx, gameID, region)
	if err != nil {
		return AuthResult{}, err
	}

	existing, err := s.profiles.FindByGameID(ctx, gameID)
	if err != nil {
		return AuthResult{}, storeError("login", err)
	}
	if existing.Region != region {
		return AuthResult{}, domain.ErrRegionMismatch
	}

	profile, err := s.profiles.AtomicUpdate(ctx, existing.UserID, func(p *domain.Profile) error {
		p.DisplayName = displayName(rec, gameID)
		p.GameData = rec.Raw
		p.UpdatedAt = s.now().UTC()
		return nil
	})
	if err != nil {
		return AuthResult{}, storeError("login", err)
	}
	return s.issue(profile)
}

// SignupWithEmail creates a password-backed profile.
func (s *IdentityService) SignupWithEmail(ctx context.Context, email, password, name string) (AuthResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	name = strings.TrimSpace(name)
	if email == "" || !strings.Contains(email, "@") || len(password) < 6 {
		return AuthResult{}, domain.ErrInvalidInput
	}
	if _, err := s.profiles.FindByEmail(ctx, email); err == nil {
		return AuthResult{}, domain.ErrEmailRegistered
	} else if !errors.Is(err, domain.ErrProfileNotFound) {
		return AuthResult{}, storeError("signup", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return AuthResult{}, err
	}
	if name == "" {
		name = email[:strings.Index(email, "@")]
	}
	now := s.now().UTC()
	profile, err := s.profiles.Create(ctx, domain.Profile{
		UserID:           uuid.NewString(),
		DisplayName:      name,
		Email:            email,
		PasswordHash:     string(hash),
		CompletedQuizzes: []domain.CompletedAttempt{},
		CreatedAt:        now,
		UpdatedAt:        now,
	})
	if err != nil {
		return AuthResult{}, storeError("signup", err)
	}
	return s.issue(profile)
}

// LoginWithEmail checks the password against the stored hash.
func (s *IdentityService) LoginWithEmail(ctx context.Context, email, password string) (AuthResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	profile, err := s.profiles.FindByEmail(ctx, email)
	if errors.Is(err, domain.ErrProfileNotFound) {
		return AuthResult{}, domain.ErrInvalidCredentials
	}
	if err != nil {
		return AuthResult{}, storeError("login", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(profile.PasswordHash), []byte(password)) != nil {
		return AuthResult{}, domain.ErrInvalidCredentials
	}
	return s.issue(profile)
}

func (s *IdentityService) verify(ctx context.Context, gameID, region string) (domain.VerificationRecord, error) {
	rec, err := s.verifier.Verify(ctx, gameID, region)
	if err == nil {
		return rec, nil
	}
	if errors.Is(err, domain.ErrVerificationFailed) {
		return domain.VerificationRecord{}, err
	}
	return domain.VerificationRecord{}, &domain.ExternalVerificationError{Reason: "Failed to verify game ID: " + err.Error(), Err: err}
}

func (s *IdentityService) issue(p domain.Profile) (AuthResult, error) {
	token, err := s.tokens.Issue(p.UserID)
	if err != nil {
		return AuthResult{}, err
	}
	p.PasswordHash = ""
	return AuthResult{Token: token, Profile: p}, nil
}

func normalizeGameLogin(gameID, region string) (string, string, error) {
	gameID = strings.TrimSpace(gameID)
	region = strings.ToLower(strings.TrimSpace(region))
	if gameID == "" {
		return "", "", domain.ErrInvalidInput
	}
	if !domain.KnownRegion(region) {
		return "", "", domain.ErrUnknownRegion
	}
	return gameID, region, nil
}

func displayName(rec domain.VerificationRecord, gameID string) string {
	if rec.Nickname != "" {
		return rec.Nickname
	}
	return gameID
}
