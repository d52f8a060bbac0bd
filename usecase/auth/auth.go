package auth

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/fastygo/focus/domain"
	"github.com/fastygo/focus/pkg/clock"
	"github.com/fastygo/focus/repository"
)

const minPasswordLength = 8

// Config holds token issuing settings.
type Config struct {
	Secret string
	Issuer string
	TTL    time.Duration
}

// Claims is the JWT payload issued on sign-in.
type Claims struct {
	UserID    string `json:"user_id"`
	Email     string `json:"email,omitempty"`
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

// Token is returned by SignIn and Refresh.
type Token struct {
	AccessToken string          `json:"access_token"`
	TokenType   string          `json:"token_type"`
	ExpiresAt   time.Time       `json:"expires_at"`
	Identity    domain.Identity `json:"identity"`
}

type UseCase struct {
	users    repository.UserRepository
	sessions repository.AuthSessionRepository
	streaks  repository.StreakRepository
	cfg      Config
	clock    clock.Clock
	logger   *zap.Logger
}

func New(users repository.UserRepository, sessions repository.AuthSessionRepository, streaks repository.StreakRepository, cfg Config, clk clock.Clock, logger *zap.Logger) *UseCase {
	if cfg.TTL <= 0 {
		cfg.TTL = 24 * time.Hour
	}
	if clk == nil {
		clk = clock.SystemClock{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		users:    users,
		sessions: sessions,
		streaks:  streaks,
		cfg:      cfg,
		clock:    clk,
		logger:   logger,
	}
}

// SignUp registers a user and seeds an empty streak row.
func (uc *UseCase) SignUp(ctx context.Context, email, password string, displayName *string) (*domain.User, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}
	if len(password) < minPasswordLength {
		return nil, domain.Invalid("password must be at least %d characters", minPasswordLength)
	}
	if displayName != nil {
		trimmed := strings.TrimSpace(*displayName)
		displayName = &trimmed
		if trimmed == "" {
			displayName = nil
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return nil, domain.Invalid("password is too long")
		}
		return nil, err
	}

	now := uc.clock.Now()
	user := &domain.User{
		ID:           uuid.NewString(),
		Email:        email,
		DisplayName:  displayName,
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := uc.users.Create(ctx, user); err != nil {
		return nil, err
	}
	if uc.streaks != nil {
		if err := uc.streaks.Upsert(ctx, &domain.Streak{UserID: user.ID}); err != nil {
			uc.logger.Warn("failed to seed streak", zap.String("user_id", user.ID), zap.Error(err))
		}
	}
	uc.logger.Info("user signed up", zap.String("user_id", user.ID))
	return user, nil
}

// SignIn checks credentials and issues a token backed by a revocable session.
func (uc *UseCase) SignIn(ctx context.Context, email, password string, ttl time.Duration) (*Token, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, domain.ErrInvalidCredentials
	}
	user, err := uc.users.GetByEmail(ctx, email)
	if err != nil {
		if domain.IsDomainError(err, domain.ErrCodeNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, domain.ErrInvalidCredentials
	}

	if ttl <= 0 {
		ttl = uc.cfg.TTL
	}
	now := uc.clock.Now()
	session := &domain.AuthSession{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
	if err := uc.sessions.Save(ctx, session); err != nil {
		return nil, err
	}
	return uc.issue(domain.Identity{UserID: user.ID, Email: user.Email, SessionID: session.ID}, session.ExpiresAt)
}

// SignOut revokes the session behind identity.
func (uc *UseCase) SignOut(ctx context.Context, identity domain.Identity) error {
	if !identity.Valid() || identity.SessionID == "" {
		return domain.ErrUnauthorized
	}
	if err := uc.sessions.Delete(ctx, identity.SessionID); err != nil {
		return err
	}
	uc.logger.Info("user signed out", zap.String("user_id", identity.UserID))
	return nil
}

// CurrentUser verifies token and the session it names.
func (uc *UseCase) CurrentUser(ctx context.Context, token string) (domain.Identity, error) {
	claims, err := uc.parse(token)
	if err != nil {
		return domain.Identity{}, err
	}
	session, err := uc.sessions.Get(ctx, claims.SessionID)
	if err != nil {
		if domain.IsDomainError(err, domain.ErrCodeNotFound) {
			return domain.Identity{}, domain.ErrUnauthorized
		}
		return domain.Identity{}, err
	}
	if session.UserID != claims.UserID {
		return domain.Identity{}, domain.ErrUnauthorized
	}
	if session.IsExpired(uc.clock.Now()) {
		_ = uc.sessions.Delete(ctx, session.ID)
		return domain.Identity{}, domain.ErrUnauthorized
	}
	return domain.Identity{UserID: claims.UserID, Email: claims.Email, SessionID: claims.SessionID}, nil
}

// Refresh extends the session behind identity and issues a new token.
func (uc *UseCase) Refresh(ctx context.Context, identity domain.Identity, ttl time.Duration) (*Token, error) {
	if !identity.Valid() || identity.SessionID == "" {
		return nil, domain.ErrUnauthorized
	}
	if ttl <= 0 {
		ttl = uc.cfg.TTL
	}
	if err := uc.sessions.Extend(ctx, identity.SessionID, int(ttl.Seconds())); err != nil {
		if domain.IsDomainError(err, domain.ErrCodeNotFound) {
			return nil, domain.ErrUnauthorized
		}
		return nil, err
	}
	return uc.issue(identity, uc.clock.Now().Add(ttl))
}

func (uc *UseCase) issue(identity domain.Identity, expiresAt time.Time) (*Token, error) {
	now := uc.clock.Now()
	claims := Claims{
		UserID:    identity.UserID,
		Email:     identity.Email,
		SessionID: identity.SessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.UserID,
			Issuer:    uc.cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        uuid.NewString(),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(uc.cfg.Secret))
	if err != nil {
		return nil, err
	}
	return &Token{AccessToken: signed, TokenType: "Bearer", ExpiresAt: expiresAt, Identity: identity}, nil
}

func (uc *UseCase) parse(raw string) (*Claims, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, domain.ErrUnauthorized
	}
	claims := &Claims{}
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	token, err := parser.ParseWithClaims(raw, claims, func(*jwt.Token) (interface{}, error) {
		return []byte(uc.cfg.Secret), nil
	})
	if err != nil || !token.Valid {
		uc.logger.Debug("rejected token", zap.Error(err))
		return nil, domain.ErrUnauthorized
	}
	if uc.cfg.Issuer != "" && !claims.VerifyIssuer(uc.cfg.Issuer, true) {
		return nil, domain.ErrUnauthorized
	}
	if claims.UserID == "" {
		claims.UserID = claims.Subject
	}
	if claims.UserID == "" || claims.SessionID == "" {
		return nil, domain.ErrUnauthorized
	}
	return claims, nil
}

func normalizeEmail(raw string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(raw))
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || !strings.Contains(email[strings.LastIndex(email, "@")+1:], ".") {
		return "", domain.Invalid("invalid email address")
	}
	return email, nil
}
