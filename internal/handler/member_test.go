package handler_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minjae/membership/internal/domain"
	"github.com/minjae/membership/internal/handler"
	"github.com/minjae/membership/internal/provider"
	"github.com/minjae/membership/internal/service"
)

// memStore is a minimal in-memory MemberStore for driving the handlers.
type memStore struct {
	mu      sync.Mutex
	seq     int64
	byEmail map[string]domain.Member
}

func newMemStore() *memStore {
	return &memStore{byEmail: make(map[string]domain.Member)}
}

func (s *memStore) FindByID(ctx context.Context, id int64) (*domain.Member, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.byEmail {
		if m.ID == id {
			out := m
			return &out, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (s *memStore) FindByEmail(ctx context.Context, email string) (*domain.Member, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.byEmail[email]
	if !ok {
		return nil, domain.ErrNotFound
	}
	out := m
	return &out, nil
}

func (s *memStore) Create(ctx context.Context, member domain.Member) (*domain.Member, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byEmail[member.Email]; ok {
		return nil, fmt.Errorf("%w: member %s already exists", domain.ErrConflict, member.Email)
	}
	s.seq++
	member.ID = s.seq
	member.CreatedAt = time.Now()
	member.UpdatedAt = member.CreatedAt
	s.byEmail[member.Email] = member
	out := member
	return &out, nil
}

func (s *memStore) UpdateUsername(ctx context.Context, id int64, username string) (*domain.Member, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for email, m := range s.byEmail {
		if m.ID == id {
			m.Username = username
			s.byEmail[email] = m
			out := m
			return &out, nil
		}
	}
	return nil, domain.ErrNotFound
}

func newTestServer(t *testing.T) (*echo.Echo, *service.AuthService) {
	t.Helper()

	store := newMemStore()
	authSvc := service.NewAuthService(store, provider.DefaultRegistry(), service.AuthConfig{
		JWTSecret: "test-secret",
		BaseURL:   "http://localhost:8080",
	})
	memberSvc := service.NewMemberService(store)

	authHandler := handler.NewAuthHandler(authSvc)
	memberHandler := handler.NewMemberHandler(memberSvc, authSvc)

	e := echo.New()
	e.Validator = handler.NewAppValidator()
	e.HTTPErrorHandler = handler.HTTPErrorHandler

	e.GET("/auth/:provider", authHandler.Redirect)
	e.POST("/auth/refresh", authHandler.Refresh)
	e.POST("/auth/login", memberHandler.Login)
	e.POST("/members", memberHandler.Join)

	protected := e.Group("/members", handler.JWTAuth(authSvc))
	protected.GET("/me", memberHandler.Me)
	protected.PATCH("/me", memberHandler.Modify)

	return e, authSvc
}

func doJSON(e *echo.Echo, method, path, body, bearer string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if bearer != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestJoinAndLogin(t *testing.T) {
	e, _ := newTestServer(t)

	rec := doJSON(e, http.MethodPost, "/members",
		`{"email":"hong@b.com","username":"hong","password":"secret-pass"}`, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created struct {
		Data domain.Member `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "hong@b.com", created.Data.Email)
	assert.Empty(t, created.Data.Password, "password hash must not leak")

	t.Run("duplicate email conflicts", func(t *testing.T) {
		rec := doJSON(e, http.MethodPost, "/members",
			`{"email":"hong@b.com","username":"other","password":"secret-pass"}`, "")
		require.Equal(t, http.StatusConflict, rec.Code)

		var resp struct {
			Error handler.APIError `json:"error"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "conflict", resp.Error.Code)
	})

	t.Run("short password fails validation", func(t *testing.T) {
		rec := doJSON(e, http.MethodPost, "/members",
			`{"email":"new@b.com","username":"new","password":"short"}`, "")
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("login returns token pair", func(t *testing.T) {
		rec := doJSON(e, http.MethodPost, "/auth/login",
			`{"email":"hong@b.com","password":"secret-pass"}`, "")
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var resp struct {
			Data struct {
				Tokens service.TokenPair `json:"tokens"`
			} `json:"data"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.NotEmpty(t, resp.Data.Tokens.AccessToken)
		assert.NotEmpty(t, resp.Data.Tokens.RefreshToken)
	})

	t.Run("wrong password is unauthorized", func(t *testing.T) {
		rec := doJSON(e, http.MethodPost, "/auth/login",
			`{"email":"hong@b.com","password":"wrong-pass"}`, "")
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestProfileEndpoints(t *testing.T) {
	e, authSvc := newTestServer(t)

	rec := doJSON(e, http.MethodPost, "/members",
		`{"email":"hong@b.com","username":"hong","password":"secret-pass"}`, "")
	require.Equal(t, http.StatusCreated, rec.Code)

	var created struct {
		Data domain.Member `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	pair, err := authSvc.GenerateTokenPair(created.Data.ID)
	require.NoError(t, err)

	t.Run("me requires a token", func(t *testing.T) {
		rec := doJSON(e, http.MethodGet, "/members/me", "", "")
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("me returns the profile", func(t *testing.T) {
		rec := doJSON(e, http.MethodGet, "/members/me", "", pair.AccessToken)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var resp struct {
			Data domain.Member `json:"data"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "hong", resp.Data.Username)
	})

	t.Run("modify changes only the username", func(t *testing.T) {
		rec := doJSON(e, http.MethodPatch, "/members/me",
			`{"username":"gildong"}`, pair.AccessToken)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var resp struct {
			Data domain.Member `json:"data"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "gildong", resp.Data.Username)
		assert.Equal(t, "hong@b.com", resp.Data.Email)
	})
}

func TestAuthRedirect(t *testing.T) {
	e, _ := newTestServer(t)

	t.Run("known provider redirects with state cookie", func(t *testing.T) {
		rec := doJSON(e, http.MethodGet, "/auth/kakao", "", "")
		require.Equal(t, http.StatusTemporaryRedirect, rec.Code)
		assert.Contains(t, rec.Header().Get("Location"), "kauth.kakao.com")

		cookies := rec.Result().Cookies()
		require.NotEmpty(t, cookies)
		assert.Equal(t, "oauth_state", cookies[0].Name)
		assert.Contains(t, rec.Header().Get("Location"), cookies[0].Value)
	})

	t.Run("unknown provider is an auth failure", func(t *testing.T) {
		rec := doJSON(e, http.MethodGet, "/auth/naver", "", "")
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}
