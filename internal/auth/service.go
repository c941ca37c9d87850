package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"edubook.org/internal/college"
	"edubook.org/internal/ids"
	"edubook.org/internal/obs"
	"edubook.org/internal/session"
	"edubook.org/internal/token"
	"edubook.org/internal/user"
)

// Service implements registration, login, logout, refresh, and the
// authentication gate.
type Service struct {
	users      user.Store
	colleges   college.Store
	sessions   *session.Manager
	codec      *token.Codec
	tokenTTL   time.Duration
	bcryptCost int
	now        func() time.Time
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithServiceClock overrides the time source (useful for tests).
func WithServiceClock(fn func() time.Time) ServiceOption {
	return func(s *Service) {
		if fn != nil {
			s.now = fn
		}
	}
}

// WithBcryptCost sets the password hashing cost.
func WithBcryptCost(cost int) ServiceOption {
	return func(s *Service) { s.bcryptCost = cost }
}

// NewService wires the auth service.
func NewService(users user.Store, colleges college.Store, sessions *session.Manager, codec *token.Codec, tokenTTL time.Duration, opts ...ServiceOption) *Service {
	s := &Service{
		users:    users,
		colleges: colleges,
		sessions: sessions,
		codec:    codec,
		tokenTTL: tokenTTL,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RegisterInput carries the fields accepted at registration.
type RegisterInput struct {
	Name         string
	Email        string
	Password     string
	Role         string
	CollegeID    string
	AcademicYear int
}

// Register creates an account and, like the original flow, signs the
// caller straight in: the response carries the first token and its
// session is already recorded. College-bound roles must reference an
// existing college.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*LoginResult, error) {
	role, err := user.ParseRole(in.Role)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	u := &user.User{
		ID:           ids.New(),
		Name:         strings.TrimSpace(in.Name),
		Email:        strings.ToLower(strings.TrimSpace(in.Email)),
		Role:         role,
		CollegeID:    strings.TrimSpace(in.CollegeID),
		AcademicYear: in.AcademicYear,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := u.Validate(); err != nil {
		return nil, err
	}
	if u.CollegeID != "" {
		if _, err := s.colleges.FindByID(ctx, u.CollegeID); err != nil {
			if errors.Is(err, college.ErrNotFound) {
				return nil, fmt.Errorf("user: college %s does not exist", u.CollegeID)
			}
			return nil, fmt.Errorf("register: %w", err)
		}
	}

	hash, err := user.HashPassword(in.Password, s.bcryptCost)
	if err != nil {
		return nil, err
	}
	u.PasswordHash = hash

	if err := s.users.Insert(ctx, u); err != nil {
		return nil, err
	}
	return s.startSession(ctx, u)
}

// LoginResult is a freshly issued token with its session context.
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	User      *user.User
}

// Login verifies credentials and issues a token, displacing any session
// the user already had. Unknown email, wrong password, and deactivated
// account are reported identically.
func (s *Service) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	u, err := s.users.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("login: %w", err)
	}
	if !u.Active || !user.CheckPassword(u.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	return s.startSession(ctx, u)
}

// startSession issues a token and records its session, then stamps
// last_login. The stamp is bookkeeping: a failure there is logged, never
// surfaced.
func (s *Service) startSession(ctx context.Context, u *user.User) (*LoginResult, error) {
	raw, expiresAt, err := s.issue(u)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	if _, err := s.sessions.Create(ctx, u.ID, raw, expiresAt); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSessionCreation, err)
	}
	now := s.now().UTC()
	if err := s.users.RecordLogin(ctx, u.ID, now); err != nil {
		obs.Logger().Warn().Err(err).Str("user_id", u.ID).Msg("could not record last login")
	} else {
		u.LastLogin = &now
	}
	return &LoginResult{Token: raw, ExpiresAt: expiresAt, User: u}, nil
}

// Logout revokes the session the token arrived on. It never fails the
// caller: a token that is already dead is a successful logout, and a
// storage hiccup is logged rather than surfaced, since the token would
// have expired on its own anyway.
func (s *Service) Logout(ctx context.Context, rawToken string) {
	if rawToken == "" {
		return
	}
	if _, err := s.sessions.Revoke(ctx, rawToken); err != nil {
		obs.Logger().Warn().Err(err).Msg("logout revocation failed; session will lapse at expiry")
	}
}

// Refresh issues a replacement token for an authenticated caller and
// repoints the live session row backing rawToken at it. The old token
// dies with the rewrite. The rotation itself re-checks the row: if the
// session was revoked or displaced after the gate admitted this request,
// or the account was deactivated, refresh reads as a revoked session
// rather than resurrecting a dead row.
func (s *Service) Refresh(ctx context.Context, p *Principal, rawToken string) (*LoginResult, error) {
	u, err := s.users.FindByID(ctx, p.UserID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, Deny(DenialSessionInactive)
		}
		return nil, fmt.Errorf("refresh: %w", err)
	}
	if !u.Active {
		return nil, Deny(DenialSessionInactive)
	}

	raw, expiresAt, err := s.issue(u)
	if err != nil {
		return nil, fmt.Errorf("refresh: %w", err)
	}
	if err := s.sessions.Rotate(ctx, rawToken, raw, expiresAt); err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return nil, Deny(DenialSessionInactive)
		}
		return nil, fmt.Errorf("refresh: %w", err)
	}
	return &LoginResult{Token: raw, ExpiresAt: expiresAt, User: u}, nil
}

// Authenticate is the gate every protected request passes through. Checks
// run cheapest first: token presence, then signature and expiry, then the
// session record. All session-level rejections read the same from
// outside, so a probe cannot tell revoked from displaced from purged.
func (s *Service) Authenticate(ctx context.Context, rawToken string) (*Principal, error) {
	if strings.TrimSpace(rawToken) == "" {
		return nil, Deny(DenialNoToken)
	}

	claims, err := s.codec.Verify(rawToken)
	if err != nil {
		if errors.Is(err, token.ErrTokenExpired) {
			return nil, Deny(DenialTokenExpired)
		}
		return nil, Deny(DenialInvalidToken)
	}

	sess, err := s.sessions.Validate(ctx, rawToken)
	if err != nil {
		return nil, fmt.Errorf("authenticate: session lookup: %w", err)
	}
	if sess == nil || sess.UserID != claims.Subject {
		return nil, Deny(DenialSessionInactive)
	}

	return &Principal{
		UserID:       claims.Subject,
		Email:        claims.Email,
		Role:         user.Role(claims.Role),
		CollegeID:    claims.CollegeID,
		AcademicYear: claims.AcademicYear,
		SessionID:    sess.ID,
	}, nil
}

func (s *Service) issue(u *user.User) (string, time.Time, error) {
	claims := token.Claims{
		Email:        u.Email,
		Role:         string(u.Role),
		CollegeID:    u.CollegeID,
		AcademicYear: u.AcademicYear,
	}
	claims.Subject = u.ID
	return s.codec.Sign(claims, s.tokenTTL)
}
