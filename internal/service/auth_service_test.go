package service

import (
	"errors"
	"testing"
	"time"

	"study_planner_backend/internal/config"
	"study_planner_backend/internal/repository"
	"study_planner_backend/internal/util"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

func testConfig() *config.Config {
	return &config.Config{
		JWT: config.JWTConfig{
			Secret:     "test-secret",
			ExpireTime: time.Hour,
		},
	}
}

func newTestAuth(t *testing.T, db *gorm.DB) *AuthService {
	t.Helper()
	return NewAuthService(repository.NewUserRepository(db), testConfig(), zap.NewNop())
}

func validRegisterInput() *RegisterInput {
	return &RegisterInput{
		Name:     "Alice",
		Email:    "alice@example.com",
		Password: "secret123",
	}
}

func TestRegister(t *testing.T) {
	db := newTestDB(t)
	svc := newTestAuth(t, db)

	result, err := svc.Register(validRegisterInput())
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if result.Token == "" {
		t.Error("register should issue a token")
	}
	if result.User.UserID == "" {
		t.Error("user id should be assigned")
	}
	if result.User.Password == "secret123" {
		t.Error("password must not be stored in plaintext")
	}
	if result.User.PreferredSessionDuration != 60 {
		t.Errorf("default session duration = %d, want 60", result.User.PreferredSessionDuration)
	}

	// 注册时初始化默认偏好
	pref, err := repository.NewUserRepository(db).FindPreference(result.User.UserID)
	if err != nil {
		t.Fatalf("preference not created: %v", err)
	}
	if pref.FocusLevel != 3 || pref.BreakFrequencyMinutes != 5 {
		t.Errorf("preference defaults wrong: %+v", pref)
	}
}

func TestRegisterExplicitUserID(t *testing.T) {
	svc := newTestAuth(t, newTestDB(t))

	in := validRegisterInput()
	in.UserID = "alice-01"
	result, err := svc.Register(in)
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if result.User.UserID != "alice-01" {
		t.Errorf("user id = %q, want alice-01", result.User.UserID)
	}

	// 相同 user_id 再注册被拒绝
	in2 := validRegisterInput()
	in2.UserID = "alice-01"
	in2.Email = "alice2@example.com"
	if _, err := svc.Register(in2); !errors.Is(err, util.ErrUserExists) {
		t.Errorf("expected ErrUserExists, got %v", err)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc := newTestAuth(t, newTestDB(t))

	if _, err := svc.Register(validRegisterInput()); err != nil {
		t.Fatalf("first register: %v", err)
	}
	if _, err := svc.Register(validRegisterInput()); !errors.Is(err, util.ErrEmailRegistered) {
		t.Errorf("expected ErrEmailRegistered, got %v", err)
	}
}

func TestLogin(t *testing.T) {
	svc := newTestAuth(t, newTestDB(t))
	if _, err := svc.Register(validRegisterInput()); err != nil {
		t.Fatalf("register: %v", err)
	}

	result, err := svc.Login(&LoginInput{Email: "alice@example.com", Password: "secret123"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if result.Token == "" {
		t.Error("login should issue a token")
	}

	claims, err := util.ParseJWT(result.Token, "test-secret")
	if err != nil {
		t.Fatalf("token not parseable: %v", err)
	}
	if claims.UserID != result.User.UserID {
		t.Errorf("token user = %q, want %q", claims.UserID, result.User.UserID)
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	svc := newTestAuth(t, newTestDB(t))
	if _, err := svc.Register(validRegisterInput()); err != nil {
		t.Fatalf("register: %v", err)
	}

	if _, err := svc.Login(&LoginInput{Email: "alice@example.com", Password: "wrong"}); !errors.Is(err, util.ErrInvalidCredentials) {
		t.Errorf("wrong password: expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := svc.Login(&LoginInput{Email: "nobody@example.com", Password: "secret123"}); !errors.Is(err, util.ErrInvalidCredentials) {
		t.Errorf("unknown email: expected ErrInvalidCredentials, got %v", err)
	}
}
