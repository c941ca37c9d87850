package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"edubook.org/internal/college"
	"edubook.org/internal/session"
	"edubook.org/internal/token"
	"edubook.org/internal/user"
)

type fixture struct {
	svc      *Service
	users    *user.MemoryStore
	sessions *session.MemoryStore
	colleges *college.MemoryStore
	now      time.Time
	advance  func(d time.Duration)
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		users:    user.NewMemoryStore(),
		sessions: session.NewMemoryStore(),
		colleges: college.NewMemoryStore(),
		now:      time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	clock := func() time.Time { return f.now }
	f.advance = func(d time.Duration) { f.now = f.now.Add(d) }

	codec, err := token.NewCodec("test-secret", "edubook-api", token.WithClock(clock))
	require.NoError(t, err)

	mgr := session.NewManager(f.sessions, session.WithManagerClock(clock))
	f.svc = NewService(f.users, f.colleges, mgr, codec, time.Hour,
		WithServiceClock(clock), WithBcryptCost(4))
	return f
}

func (f *fixture) register(t *testing.T, in RegisterInput) *user.User {
	t.Helper()
	res, err := f.svc.Register(context.Background(), in)
	require.NoError(t, err)
	return res.User
}

func studentInput(email string) RegisterInput {
	return RegisterInput{
		Name:         "Aruzhan",
		Email:        email,
		Password:     "long enough pass",
		Role:         "student",
		CollegeID:    "col-1",
		AcademicYear: 2,
	}
}

func (f *fixture) seedCollege(t *testing.T) {
	t.Helper()
	require.NoError(t, f.colleges.Insert(context.Background(), &college.College{
		ID: "col-1", Name: "Almaty Polytechnic", CreatedAt: f.now,
	}))
}

func TestRegisterAndLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedCollege(t)

	u := f.register(t, studentInput("aru@example.com"))
	assert.NotEqual(t, "long enough pass", u.PasswordHash)

	res, err := f.svc.Login(ctx, "ARU@example.com", "long enough pass")
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)
	assert.Equal(t, f.now.Add(time.Hour), res.ExpiresAt)

	p, err := f.svc.Authenticate(ctx, res.Token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, p.UserID)
	assert.Equal(t, user.RoleStudent, p.Role)
	assert.Equal(t, "col-1", p.CollegeID)
}

func TestRegisterRejectsUnknownCollege(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Register(context.Background(), studentInput("aru@example.com"))
	assert.Error(t, err)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	f := newFixture(t)
	f.seedCollege(t)
	f.register(t, studentInput("aru@example.com"))
	_, err := f.svc.Register(context.Background(), studentInput("aru@example.com"))
	assert.ErrorIs(t, err, user.ErrEmailTaken)
}

func TestLoginWrongCredentials(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedCollege(t)
	f.register(t, studentInput("aru@example.com"))

	_, err := f.svc.Login(ctx, "aru@example.com", "wrong password!")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = f.svc.Login(ctx, "nobody@example.com", "long enough pass")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestReLoginDisplacesOldToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedCollege(t)
	u := f.register(t, studentInput("aru@example.com"))

	first, err := f.svc.Login(ctx, "aru@example.com", "long enough pass")
	require.NoError(t, err)
	second, err := f.svc.Login(ctx, "aru@example.com", "long enough pass")
	require.NoError(t, err)

	// The old token still carries a valid signature but its session is gone.
	_, err = f.svc.Authenticate(ctx, first.Token)
	d, ok := AsDenial(err)
	require.True(t, ok, "expected a denial, got %v", err)
	assert.Equal(t, DenialSessionInactive, d.Cause)

	_, err = f.svc.Authenticate(ctx, second.Token)
	require.NoError(t, err)

	assert.Equal(t, 1, f.sessions.ActiveCount(u.ID, f.now))
}

func TestLogoutRevokesSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedCollege(t)
	f.register(t, studentInput("aru@example.com"))

	res, err := f.svc.Login(ctx, "aru@example.com", "long enough pass")
	require.NoError(t, err)

	f.svc.Logout(ctx, res.Token)
	_, err = f.svc.Authenticate(ctx, res.Token)
	d, ok := AsDenial(err)
	require.True(t, ok)
	assert.Equal(t, DenialSessionInactive, d.Cause)

	// Logging out again is still a no-op, not a failure.
	f.svc.Logout(ctx, res.Token)
}

func TestRefreshRotatesToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedCollege(t)
	f.register(t, studentInput("aru@example.com"))

	res, err := f.svc.Login(ctx, "aru@example.com", "long enough pass")
	require.NoError(t, err)
	p, err := f.svc.Authenticate(ctx, res.Token)
	require.NoError(t, err)

	f.advance(time.Minute)
	refreshed, err := f.svc.Refresh(ctx, p, res.Token)
	require.NoError(t, err)
	assert.NotEqual(t, res.Token, refreshed.Token)
	assert.Equal(t, f.now.Add(time.Hour), refreshed.ExpiresAt)

	// Old token's session row was rewritten in place.
	_, err = f.svc.Authenticate(ctx, res.Token)
	d, ok := AsDenial(err)
	require.True(t, ok)
	assert.Equal(t, DenialSessionInactive, d.Cause)

	p2, err := f.svc.Authenticate(ctx, refreshed.Token)
	require.NoError(t, err)
	assert.Equal(t, p.SessionID, p2.SessionID)
}

func TestRefreshAfterLogoutIsDenied(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedCollege(t)
	f.register(t, studentInput("aru@example.com"))

	res, err := f.svc.Login(ctx, "aru@example.com", "long enough pass")
	require.NoError(t, err)
	p, err := f.svc.Authenticate(ctx, res.Token)
	require.NoError(t, err)

	f.svc.Logout(ctx, res.Token)

	// The gate admitted this request before the logout landed; refresh must
	// notice the revoked row itself and refuse, never issue a token.
	refreshed, err := f.svc.Refresh(ctx, p, res.Token)
	require.Nil(t, refreshed, "refresh issued a token for a revoked session")
	d, ok := AsDenial(err)
	require.True(t, ok, "expected a denial, got %v", err)
	assert.Equal(t, DenialSessionInactive, d.Cause)
}

func TestRefreshAfterDisplacementIsDenied(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedCollege(t)
	f.register(t, studentInput("aru@example.com"))

	first, err := f.svc.Login(ctx, "aru@example.com", "long enough pass")
	require.NoError(t, err)
	p, err := f.svc.Authenticate(ctx, first.Token)
	require.NoError(t, err)

	// A second login displaces the first session between gate and handler.
	second, err := f.svc.Login(ctx, "aru@example.com", "long enough pass")
	require.NoError(t, err)

	refreshed, err := f.svc.Refresh(ctx, p, first.Token)
	require.Nil(t, refreshed)
	d, ok := AsDenial(err)
	require.True(t, ok, "expected a denial, got %v", err)
	assert.Equal(t, DenialSessionInactive, d.Cause)

	// The displacing session is untouched by the refused refresh.
	_, err = f.svc.Authenticate(ctx, second.Token)
	require.NoError(t, err)
}

func TestRegisterStartsFirstSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedCollege(t)

	res, err := f.svc.Register(ctx, studentInput("aru@example.com"))
	require.NoError(t, err)
	require.NotEmpty(t, res.Token)
	assert.Equal(t, f.now.Add(time.Hour), res.ExpiresAt)

	// The registration token is immediately usable.
	p, err := f.svc.Authenticate(ctx, res.Token)
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, p.UserID)
	assert.Equal(t, 1, f.sessions.ActiveCount(res.User.ID, f.now))
}

func TestLoginDeactivatedAccount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedCollege(t)
	u := f.register(t, studentInput("aru@example.com"))

	require.NoError(t, f.users.SetActive(ctx, u.ID, false))

	// Same answer as a wrong password; the caller learns nothing extra.
	_, err := f.svc.Login(ctx, "aru@example.com", "long enough pass")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginRecordsLastLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedCollege(t)
	u := f.register(t, studentInput("aru@example.com"))

	f.advance(time.Minute)
	_, err := f.svc.Login(ctx, "aru@example.com", "long enough pass")
	require.NoError(t, err)

	stored, err := f.users.FindByID(ctx, u.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.LastLogin)
	assert.Equal(t, f.now, *stored.LastLogin)
}

func TestAuthenticateDenialOrdering(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	cases := []struct {
		name  string
		token func(t *testing.T) string
		cause DenialCause
	}{
		{"missing token", func(t *testing.T) string { return "" }, DenialNoToken},
		{"garbage token", func(t *testing.T) string { return "not.a.jwt" }, DenialInvalidToken},
		{"foreign signature", func(t *testing.T) string {
			other, err := token.NewCodec("other-secret", "edubook-api")
			require.NoError(t, err)
			claims := token.Claims{Role: "student"}
			claims.Subject = "user-1"
			raw, _, err := other.Sign(claims, time.Hour)
			require.NoError(t, err)
			return raw
		}, DenialInvalidToken},
		{"well-signed but no session", func(t *testing.T) string {
			codec, err := token.NewCodec("test-secret", "edubook-api",
				token.WithClock(func() time.Time { return f.now }))
			require.NoError(t, err)
			claims := token.Claims{Role: "student"}
			claims.Subject = "user-1"
			raw, _, err := codec.Sign(claims, time.Hour)
			require.NoError(t, err)
			return raw
		}, DenialSessionInactive},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.Authenticate(ctx, tc.token(t))
			d, ok := AsDenial(err)
			require.True(t, ok, "expected a denial, got %v", err)
			assert.Equal(t, tc.cause, d.Cause)
		})
	}
}

func TestAuthenticateExpiredToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedCollege(t)
	f.register(t, studentInput("aru@example.com"))

	res, err := f.svc.Login(ctx, "aru@example.com", "long enough pass")
	require.NoError(t, err)

	// Past expiry the signature check itself rejects, before any session
	// lookup.
	f.advance(2 * time.Hour)
	_, err = f.svc.Authenticate(ctx, res.Token)
	d, ok := AsDenial(err)
	require.True(t, ok)
	assert.Equal(t, DenialTokenExpired, d.Cause)
}
