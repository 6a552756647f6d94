package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/shyammm53/wardrobe-backend/api/middleware"
	"github.com/shyammm53/wardrobe-backend/internal/auth"
	"github.com/shyammm53/wardrobe-backend/internal/users"
	pkgerrors "github.com/shyammm53/wardrobe-backend/pkg/errors"
)

type stubAuthService struct {
	resp *auth.AuthResponse
	user *users.UserDTO
	err  error
}

func (s stubAuthService) Signup(ctx context.Context, req auth.SignupRequest) (*auth.AuthResponse, error) {
	return s.resp, s.err
}

func (s stubAuthService) Login(ctx context.Context, req auth.LoginRequest) (*auth.AuthResponse, error) {
	return s.resp, s.err
}

func (s stubAuthService) Me(ctx context.Context, userID uuid.UUID) (*users.UserDTO, error) {
	return s.user, s.err
}

func TestAuthSignupSuccess(t *testing.T) {
	user := &users.UserDTO{ID: uuid.New(), Email: "ana@example.com"}
	handler := AuthSignup(stubAuthService{resp: &auth.AuthResponse{Token: "jwt-token", User: user}}, nil)

	body := []byte(`{"email":"ana@example.com","password":"longenough"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/auth/signup", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()

	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d body %s", resp.Code, resp.Body.String())
	}

	var envelope struct {
		Data struct {
			Token string         `json:"token"`
			User  *users.UserDTO `json:"user"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.Token != "jwt-token" {
		t.Fatalf("expected token in payload got %q", envelope.Data.Token)
	}
	if envelope.Data.User == nil || envelope.Data.User.Email != "ana@example.com" {
		t.Fatalf("expected user in payload got %+v", envelope.Data.User)
	}
}

func TestAuthSignupValidation(t *testing.T) {
	handler := AuthSignup(stubAuthService{}, nil)

	body := []byte(`{"email":"not-an-email","password":"short"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/auth/signup", bytes.NewReader(body))
	resp := httptest.NewRecorder()

	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestAuthLoginRejected(t *testing.T) {
	handler := AuthLogin(stubAuthService{
		err: pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid email or password"),
	}, nil)

	body := []byte(`{"email":"ana@example.com","password":"wrongpassword"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewReader(body))
	resp := httptest.NewRecorder()

	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}

	var envelope struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Error.Code != "UNAUTHORIZED" {
		t.Fatalf("expected UNAUTHORIZED got %q", envelope.Error.Code)
	}
	if envelope.Error.Message != "invalid email or password" {
		t.Fatalf("unexpected message %q", envelope.Error.Message)
	}
}

func TestAuthMeRequiresUser(t *testing.T) {
	handler := AuthMe(stubAuthService{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	resp := httptest.NewRecorder()

	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without auth context got %d", resp.Code)
	}
}

func TestAuthMeSuccess(t *testing.T) {
	userID := uuid.New()
	handler := AuthMe(stubAuthService{user: &users.UserDTO{ID: userID, Email: "ana@example.com"}}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req = req.WithContext(middleware.WithUserID(req.Context(), userID.String()))
	resp := httptest.NewRecorder()

	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d body %s", resp.Code, resp.Body.String())
	}
}
