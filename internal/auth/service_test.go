package auth

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	pkgAuth "github.com/printforge/printforge-backend/pkg/auth"
	"github.com/printforge/printforge-backend/pkg/auth/session"
	"github.com/printforge/printforge-backend/pkg/config"
	"github.com/printforge/printforge-backend/pkg/db/models"
	"github.com/printforge/printforge-backend/pkg/enums"
	pkgerrors "github.com/printforge/printforge-backend/pkg/errors"
	"github.com/printforge/printforge-backend/pkg/security"
)

var testJWTConfig = config.JWTConfig{
	Secret:                 "test-secret",
	Issuer:                 "printforge",
	ExpirationMinutes:      30,
	RefreshTokenTTLMinutes: 43200,
}

type fakeUserRepo struct {
	user      *models.User
	lastLogin time.Time
}

func (f *fakeUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if f.user == nil || f.user.Email != email {
		return nil, gorm.ErrRecordNotFound
	}
	return f.user, nil
}

func (f *fakeUserRepo) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	f.lastLogin = at
	return nil
}

type fakeSessionManager struct {
	sessions map[string]string
	rotated  int
}

func newFakeSessionManager() *fakeSessionManager {
	return &fakeSessionManager{sessions: make(map[string]string)}
}

func (f *fakeSessionManager) Generate(ctx context.Context, accessID string) (string, error) {
	token := uuid.NewString()
	f.sessions[accessID] = token
	return token, nil
}

func (f *fakeSessionManager) Rotate(ctx context.Context, oldAccessID, provided string) (string, string, error) {
	stored, ok := f.sessions[oldAccessID]
	if !ok || stored != provided {
		return "", "", session.ErrInvalidRefreshToken
	}
	delete(f.sessions, oldAccessID)
	f.rotated++
	newID := session.NewAccessID()
	newToken := uuid.NewString()
	f.sessions[newID] = newToken
	return newID, newToken, nil
}

func (f *fakeSessionManager) Revoke(ctx context.Context, accessID string) error {
	delete(f.sessions, accessID)
	return nil
}

func seedUser(t *testing.T, password string) *models.User {
	t.Helper()
	hash, err := security.HashPassword(password, config.PasswordConfig{
		ArgonMemoryKB: 8192, ArgonTime: 1, ArgonParallelism: 1, ArgonSaltLen: 16, ArgonKeyLen: 32,
	})
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	return &models.User{
		ID:           uuid.New(),
		TenantID:     uuid.New(),
		Email:        "owner@forge.example",
		PasswordHash: hash,
		Name:         "Owner",
		Role:         enums.UserRoleOwner,
		IsActive:     true,
	}
}

func newTestService(t *testing.T, repo userRepository, sessions sessionManager) Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		UserRepo:       repo,
		SessionManager: sessions,
		JWTConfig:      testJWTConfig,
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func TestLoginIssuesTenantToken(t *testing.T) {
	t.Parallel()

	user := seedUser(t, "hunter2!")
	repo := &fakeUserRepo{user: user}
	sessions := newFakeSessionManager()
	svc := newTestService(t, repo, sessions)

	resp, err := svc.Login(context.Background(), LoginRequest{Email: "owner@forge.example", Password: "hunter2!"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if resp.AccessToken == "" || resp.RefreshToken == "" {
		t.Fatal("expected token pair")
	}
	if resp.User == nil || resp.User.Email != user.Email {
		t.Fatalf("unexpected user payload: %+v", resp.User)
	}
	if repo.lastLogin.IsZero() {
		t.Fatal("expected last login recorded")
	}

	claims, err := pkgAuth.ParseAccessToken(testJWTConfig, resp.AccessToken)
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	if claims.TenantID != user.TenantID || claims.UserID != user.ID {
		t.Fatalf("claims do not match user: %+v", claims)
	}
	if claims.Role != enums.UserRoleOwner {
		t.Fatalf("unexpected role %s", claims.Role)
	}
	if _, ok := sessions.sessions[claims.ID]; !ok {
		t.Fatal("refresh session not stored under jti")
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	t.Parallel()

	user := seedUser(t, "hunter2!")
	svc := newTestService(t, &fakeUserRepo{user: user}, newFakeSessionManager())
	ctx := context.Background()

	cases := []LoginRequest{
		{Email: "owner@forge.example", Password: "wrong"},
		{Email: "nobody@forge.example", Password: "hunter2!"},
		{Email: "", Password: "hunter2!"},
	}
	for _, req := range cases {
		_, err := svc.Login(ctx, req)
		typed := pkgerrors.As(err)
		if typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
			t.Fatalf("expected unauthorized for %+v, got %v", req, err)
		}
	}
}

func TestLoginRejectsInactiveUser(t *testing.T) {
	t.Parallel()

	user := seedUser(t, "hunter2!")
	user.IsActive = false
	svc := newTestService(t, &fakeUserRepo{user: user}, newFakeSessionManager())

	_, err := svc.Login(context.Background(), LoginRequest{Email: "owner@forge.example", Password: "hunter2!"})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestRefreshRotatesSession(t *testing.T) {
	t.Parallel()

	user := seedUser(t, "hunter2!")
	sessions := newFakeSessionManager()
	svc := newTestService(t, &fakeUserRepo{user: user}, sessions)
	ctx := context.Background()

	login, err := svc.Login(ctx, LoginRequest{Email: "owner@forge.example", Password: "hunter2!"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	refreshed, err := svc.Refresh(ctx, RefreshRequest{AccessToken: login.AccessToken, RefreshToken: login.RefreshToken})
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if sessions.rotated != 1 {
		t.Fatalf("expected one rotation, got %d", sessions.rotated)
	}
	claims, err := pkgAuth.ParseAccessToken(testJWTConfig, refreshed.AccessToken)
	if err != nil {
		t.Fatalf("parse rotated token: %v", err)
	}
	if claims.TenantID != user.TenantID {
		t.Fatalf("tenant lost in rotation: %+v", claims)
	}

	// The old pair is burned.
	_, err = svc.Refresh(ctx, RefreshRequest{AccessToken: login.AccessToken, RefreshToken: login.RefreshToken})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized replay, got %v", err)
	}
}

func TestLogoutRevokesSession(t *testing.T) {
	t.Parallel()

	user := seedUser(t, "hunter2!")
	sessions := newFakeSessionManager()
	svc := newTestService(t, &fakeUserRepo{user: user}, sessions)
	ctx := context.Background()

	login, err := svc.Login(ctx, LoginRequest{Email: "owner@forge.example", Password: "hunter2!"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if err := svc.Logout(ctx, login.AccessToken); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if len(sessions.sessions) != 0 {
		t.Fatalf("expected sessions cleared, got %d", len(sessions.sessions))
	}
}
