// Package service implements the demo login: any password is accepted, a
// known email logs in and an unknown one signs up.
package service

import (
	"context"
	"errors"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"trustlessid/internal/audit"
	"trustlessid/internal/auth/device"
	"trustlessid/internal/auth/models"
	id "trustlessid/pkg/domain"
	dErrors "trustlessid/pkg/domain-errors"
	emailutil "trustlessid/pkg/email"
	authmw "trustlessid/pkg/platform/middleware/auth"
	"trustlessid/pkg/platform/sentinel"
	"trustlessid/pkg/requestcontext"
)

// UserStore persists demo users.
type UserStore interface {
	Save(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, userID id.UserID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
}

// TokenIssuer signs session tokens.
type TokenIssuer interface {
	GenerateSessionToken(userID id.UserID, email string, expiresIn time.Duration) (string, time.Time, error)
}

// TokenParser resolves a presented token to its claims.
type TokenParser interface {
	ValidateToken(ctx context.Context, tokenString string) (*authmw.Claims, error)
}

// RevocationList records tokens ended by logout.
type RevocationList interface {
	RevokeToken(ctx context.Context, jti string, ttl time.Duration) error
}

// ActivityRecorder receives login and signup activity.
type ActivityRecorder interface {
	Emit(ctx context.Context, event audit.Event) error
}

// LoginRequest carries the login form. Password is accepted but not checked.
type LoginRequest struct {
	Email     string
	Password  string
	UserAgent string
}

// LoginResult is returned on successful login.
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	User      models.User
	Created   bool
}

type Service struct {
	users      UserStore
	tokens     TokenIssuer
	parser     TokenParser
	revocation RevocationList
	activity   ActivityRecorder
	logger     *slog.Logger
	tokenTTL   time.Duration
}

// Option configures the Service.
type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithActivity(a ActivityRecorder) Option {
	return func(s *Service) { s.activity = a }
}

// WithRevocation enables logout. Tokens are parsed with p and their ids
// recorded in r until they expire.
func WithRevocation(p TokenParser, r RevocationList) Option {
	return func(s *Service) {
		s.parser = p
		s.revocation = r
	}
}

func WithTokenTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.tokenTTL = ttl
		}
	}
}

func New(users UserStore, tokens TokenIssuer, opts ...Option) *Service {
	s := &Service{
		users:    users,
		tokens:   tokens,
		logger:   slog.Default(),
		tokenTTL: 24 * time.Hour,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Login signs in the user owning email, creating the account on first use.
func (s *Service) Login(ctx context.Context, req LoginRequest) (LoginResult, error) {
	email, err := ValidateEmail(req.Email)
	if err != nil {
		return LoginResult{}, err
	}

	user, created, err := s.findOrCreate(ctx, email)
	if err != nil {
		return LoginResult{}, err
	}

	token, expiresAt, err := s.tokens.GenerateSessionToken(user.ID, user.Email, s.tokenTTL)
	if err != nil {
		return LoginResult{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to issue session token")
	}

	deviceName := device.ParseUserAgent(req.UserAgent)
	if created {
		s.record(ctx, audit.Event{
			UserID:      user.ID,
			Action:      audit.ActionSignup,
			Description: "Account created",
			Device:      deviceName,
		})
	}
	s.record(ctx, audit.Event{
		UserID:      user.ID,
		Action:      audit.ActionLogin,
		Description: "Logged in from " + deviceName,
		Device:      deviceName,
	})

	s.logger.InfoContext(ctx, "user logged in",
		"request_id", requestcontext.RequestID(ctx),
		"user_id", user.ID,
		"created", created,
	)
	return LoginResult{Token: token, ExpiresAt: expiresAt, User: *user, Created: created}, nil
}

// Logout revokes the presented token until it would have expired anyway.
func (s *Service) Logout(ctx context.Context, token string) error {
	if s.revocation == nil || s.parser == nil {
		return nil
	}
	claims, err := s.parser.ValidateToken(ctx, token)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeUnauthorized, "Invalid or expired token")
	}
	ttl := claims.ExpiresAt.Sub(requestcontext.Now(ctx))
	if claims.JTI == "" || ttl <= 0 {
		return nil
	}
	if err := s.revocation.RevokeToken(ctx, claims.JTI, ttl); err != nil {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to revoke token")
	}
	return nil
}

// CurrentUser returns the authenticated user's profile.
func (s *Service) CurrentUser(ctx context.Context, userID id.UserID) (models.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return models.User{}, dErrors.Wrap(err, dErrors.CodeNotFound, "user not found")
		}
		return models.User{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load user")
	}
	return *user, nil
}

func (s *Service) findOrCreate(ctx context.Context, email string) (*models.User, bool, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err == nil {
		return user, false, nil
	}
	if !errors.Is(err, sentinel.ErrNotFound) {
		return nil, false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load user")
	}

	user = &models.User{
		ID:        id.NewUserID(),
		Name:      emailutil.DisplayName(email),
		Email:     email,
		CreatedAt: requestcontext.Now(ctx),
	}
	if err := s.users.Save(ctx, user); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			// Lost a race with a concurrent signup for the same email.
			existing, findErr := s.users.FindByEmail(ctx, email)
			if findErr == nil {
				return existing, false, nil
			}
		}
		return nil, false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create user")
	}
	return user, true, nil
}

func (s *Service) record(ctx context.Context, event audit.Event) {
	if s.activity == nil {
		return
	}
	if err := s.activity.Emit(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "failed to record auth activity",
			"action", event.Action,
			"error", err,
		)
	}
}

// ValidateEmail trims and checks an email address. The address must contain
// exactly one "@" with a non-empty domain.
func ValidateEmail(raw string) (string, error) {
	email := strings.TrimSpace(raw)
	if email == "" {
		return "", dErrors.New(dErrors.CodeValidation, "email is required")
	}
	if strings.Count(email, "@") != 1 {
		return "", dErrors.New(dErrors.CodeValidation, "email is invalid")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", dErrors.New(dErrors.CodeValidation, "email is invalid")
	}
	local, domain, _ := strings.Cut(email, "@")
	if local == "" || domain == "" {
		return "", dErrors.New(dErrors.CodeValidation, "email is invalid")
	}
	return email, nil
}
