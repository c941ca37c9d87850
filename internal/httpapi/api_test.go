package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"edubook.org/internal/auth"
	"edubook.org/internal/college"
	"edubook.org/internal/session"
	"edubook.org/internal/token"
	"edubook.org/internal/user"
)

type testEnv struct {
	api      *API
	handler  http.Handler
	svc      *auth.Service
	users    *user.MemoryStore
	colleges *college.MemoryStore
	now      *time.Time
}

func newTestEnv(t *testing.T) *testEnv {
	return newTestEnvWithSessions(t, session.NewMemoryStore())
}

func newTestEnvWithSessions(t *testing.T, sessions session.Store) *testEnv {
	t.Helper()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	env := &testEnv{now: &now}
	clock := func() time.Time { return *env.now }

	codec, err := token.NewCodec("test-secret", "edubook-api", token.WithClock(clock))
	if err != nil {
		t.Fatalf("NewCodec: %v", err)
	}
	mgr := session.NewManager(sessions, session.WithManagerClock(clock))
	env.users = user.NewMemoryStore()
	env.colleges = college.NewMemoryStore()
	env.svc = auth.NewService(env.users, env.colleges, mgr, codec, time.Hour,
		auth.WithServiceClock(clock), auth.WithBcryptCost(4))

	env.api = New(ReadyProbe{}, env.svc, env.colleges, "test")
	env.handler = RequestID(env.api.Handler())
	return env
}

func (e *testEnv) seedCollege(t *testing.T) string {
	t.Helper()
	c := &college.College{ID: "col-1", Name: "Almaty Polytechnic", CreatedAt: *e.now}
	if err := e.colleges.Insert(context.Background(), c); err != nil {
		t.Fatalf("seed college: %v", err)
	}
	return c.ID
}

func (e *testEnv) do(t *testing.T, method, path, bearerToken string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(buf)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearerToken != "" {
		req.Header.Set("Authorization", "Bearer "+bearerToken)
	}
	rr := httptest.NewRecorder()
	e.handler.ServeHTTP(rr, req)
	return rr
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body %q: %v", rr.Body.String(), err)
	}
	return body
}

func (e *testEnv) register(t *testing.T, email, role, collegeID string, year int) string {
	t.Helper()
	rr := e.do(t, http.MethodPost, "/v1/auth/register", "", map[string]any{
		"name":          "Test User",
		"email":         email,
		"password":      "long enough pass",
		"role":          role,
		"college_id":    collegeID,
		"academic_year": year,
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("register %s: status %d, body %s", email, rr.Code, rr.Body.String())
	}
	tok, _ := decodeBody(t, rr)["token"].(string)
	if tok == "" {
		t.Fatalf("register %s returned no token", email)
	}
	return tok
}

func (e *testEnv) login(t *testing.T, email string) string {
	t.Helper()
	rr := e.do(t, http.MethodPost, "/v1/auth/login", "", map[string]any{
		"email":    email,
		"password": "long enough pass",
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("login %s: status %d, body %s", email, rr.Code, rr.Body.String())
	}
	tok, _ := decodeBody(t, rr)["token"].(string)
	if tok == "" {
		t.Fatal("login returned no token")
	}
	return tok
}
