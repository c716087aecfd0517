package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/bearerauth/bearerauth/internal/credentials"
	"github.com/bearerauth/bearerauth/internal/identity"
	"github.com/bearerauth/bearerauth/internal/notification"
)

const bearerPrefix = "Bearer "

// Service implements sign-up and token login on top of the user directory.
type Service struct {
	users         identity.Repository
	tokens        *TokenService
	policy        credentials.PasswordPolicy
	hashCost      int
	strictSession bool
	notifier      notification.Notifier
	logger        *slog.Logger
	now           func() time.Time
}

// Option customises a Service.
type Option func(*Service)

// WithPasswordPolicy selects the password rule applied on sign-up.
func WithPasswordPolicy(p credentials.PasswordPolicy) Option {
	return func(s *Service) { s.policy = p }
}

// WithHashCost overrides the bcrypt cost.
func WithHashCost(cost int) Option {
	return func(s *Service) { s.hashCost = cost }
}

// WithStrictSession makes CurrentUser accept only the last token issued to the user.
func WithStrictSession(strict bool) Option {
	return func(s *Service) { s.strictSession = strict }
}

// WithNotifier publishes sign-up and login events to n.
func WithNotifier(n notification.Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

// WithLogger sets the logger used for internal failures.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService wires the auth service.
func NewService(users identity.Repository, tokens *TokenService, opts ...Option) *Service {
	s := &Service{
		users:    users,
		tokens:   tokens,
		policy:   credentials.PolicyStandard,
		hashCost: bcrypt.DefaultCost,
		logger:   slog.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// PhoneInput is a phone entry supplied on sign-up.
type PhoneInput struct {
	Number      int64
	CityCode    int
	CountryCode string
}

// SignUpRequest carries the sign-up payload.
type SignUpRequest struct {
	Name     string
	Email    string
	Password string
	Phones   []PhoneInput
}

// SignUpResponse is the outward view of a newly created user. It never
// carries the email, password or phones.
type SignUpResponse struct {
	ID          string
	Token       string
	CreatedAt   time.Time
	LastLoginAt time.Time
	IsActive    bool
}

// SignUp validates the request, creates an active user and issues its first token.
func (s *Service) SignUp(ctx context.Context, req SignUpRequest) (SignUpResponse, error) {
	if !credentials.IsValidEmail(req.Email) {
		return SignUpResponse{}, fmt.Errorf("%w: wrong email format", ErrInvalidFormat)
	}

	existing, err := s.users.FindByEmail(ctx, req.Email)
	switch {
	case err == nil && existing.IsActive:
		return SignUpResponse{}, ErrDuplicateEmail
	case err != nil && !errors.Is(err, identity.ErrNotFound):
		return SignUpResponse{}, s.internal(ctx, "sign-up lookup failed", err)
	}

	if err := s.policy.Validate(req.Password); err != nil {
		return SignUpResponse{}, fmt.Errorf("%w: wrong password format: %v", ErrInvalidFormat, err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.hashCost)
	if err != nil {
		return SignUpResponse{}, s.internal(ctx, "hash password", err)
	}

	token, err := s.tokens.Generate(req.Email)
	if err != nil {
		return SignUpResponse{}, s.internal(ctx, "issue token", err)
	}

	now := s.now().UTC()
	user := identity.User{
		ID:           uuid.NewString(),
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hash,
		Token:        token,
		CreatedAt:    now,
		LastLoginAt:  now,
		IsActive:     true,
		Phones:       make([]identity.Phone, 0, len(req.Phones)),
	}
	for _, p := range req.Phones {
		user.Phones = append(user.Phones, identity.Phone{Number: p.Number, CityCode: p.CityCode, CountryCode: p.CountryCode})
	}

	saved, err := s.users.Save(ctx, user)
	if err != nil {
		if errors.Is(err, identity.ErrDuplicateEmail) {
			return SignUpResponse{}, ErrDuplicateEmail
		}
		return SignUpResponse{}, s.internal(ctx, "save new user", err)
	}
	s.notify(ctx, notification.KindSignUp, saved)

	return SignUpResponse{
		ID:          saved.ID,
		Token:       saved.Token,
		CreatedAt:   saved.CreatedAt,
		LastLoginAt: saved.LastLoginAt,
		IsActive:    saved.IsActive,
	}, nil
}

// Authenticate resolves the bearer token in header to an active user, rotates
// the user's token and records the login time.
func (s *Service) Authenticate(ctx context.Context, header string) (identity.User, error) {
	token := strings.TrimPrefix(header, bearerPrefix)
	user, err := s.resolve(ctx, token)
	if err != nil {
		return identity.User{}, err
	}

	rotated, err := s.tokens.Generate(user.Email)
	if err != nil {
		return identity.User{}, s.internal(ctx, "rotate token", err)
	}
	user.Token = rotated
	user.LastLoginAt = s.now().UTC()

	saved, err := s.users.Save(ctx, user)
	if err != nil {
		return identity.User{}, s.internal(ctx, "save rotated token", err, slog.String("user_id", user.ID))
	}
	s.notify(ctx, notification.KindLogin, saved)
	return saved, nil
}

// CurrentUser resolves the bearer token in header to an active user without
// rotating it. With strict sessions only the most recently issued token is
// accepted.
func (s *Service) CurrentUser(ctx context.Context, header string) (identity.User, error) {
	token := strings.TrimPrefix(header, bearerPrefix)
	user, err := s.resolve(ctx, token)
	if err != nil {
		return identity.User{}, err
	}
	if s.strictSession && user.Token != token {
		return identity.User{}, fmt.Errorf("%w: superseded by a newer token", ErrInvalidToken)
	}
	return user, nil
}

func (s *Service) resolve(ctx context.Context, token string) (identity.User, error) {
	if !s.tokens.IsValid(token) {
		return identity.User{}, ErrInvalidToken
	}
	subject, err := s.tokens.ExtractSubject(token)
	if err != nil {
		return identity.User{}, err
	}

	user, err := s.users.FindByEmail(ctx, subject)
	if err != nil {
		if errors.Is(err, identity.ErrNotFound) {
			return identity.User{}, ErrUserNotFound
		}
		return identity.User{}, s.internal(ctx, "login lookup failed", err)
	}
	if !user.IsActive {
		return identity.User{}, ErrUserNotFound
	}
	return user, nil
}

// notify never fails the caller; delivery errors are only logged.
func (s *Service) notify(ctx context.Context, kind string, user identity.User) {
	if s.notifier == nil {
		return
	}
	msg := notification.Message{Kind: kind, Destination: user.ID, OccurredAt: user.LastLoginAt}
	if err := s.notifier.Send(ctx, msg); err != nil {
		s.logger.WarnContext(ctx, "notification failed", slog.String("kind", kind), slog.String("user_id", user.ID), slog.Any("error", err))
	}
}

func (s *Service) internal(ctx context.Context, msg string, err error, attrs ...any) error {
	s.logger.ErrorContext(ctx, msg, append(attrs, slog.Any("error", err))...)
	return fmt.Errorf("%w: %s", ErrInternal, msg)
}
