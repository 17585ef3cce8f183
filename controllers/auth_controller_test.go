package controller

import (
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"

	"telereach/config"
	"telereach/models"
)

func newAuthApp(t *testing.T) *fiber.App {
	t.Helper()
	config.AppConfig.EncryptionKey = "test-key"
	config.DB = openTestDB(t)

	app := fiber.New()
	app.Post("/auth/signup", Signup)
	app.Post("/auth/login", Login)
	app.Post("/auth/refresh", RefreshToken)
	return app
}

func TestSignupAndLogin(t *testing.T) {
	app := newAuthApp(t)

	resp := doJSON(t, app, http.MethodPost, "/auth/signup", map[string]string{
		"email":    "a@example.com",
		"password": "hunter2hunter2",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("signup status = %d, want 201", resp.StatusCode)
	}
	body := decodeBody(t, resp)
	if tok, _ := body["access_token"].(string); tok == "" {
		t.Fatalf("access token missing: %v", body)
	}
	if tok, _ := body["refresh_token"].(string); tok == "" {
		t.Fatalf("refresh token missing: %v", body)
	}

	var account models.Account
	if err := config.DB.First(&account, "email = ?", "a@example.com").Error; err != nil {
		t.Fatalf("account not persisted: %v", err)
	}
	if account.PasswordHash == "hunter2hunter2" {
		t.Fatal("password stored as plaintext")
	}
	if account.PlanType != "basic" || !account.IsActive {
		t.Fatalf("account defaults wrong: %+v", account)
	}

	resp = doJSON(t, app, http.MethodPost, "/auth/login", map[string]string{
		"email":    "a@example.com",
		"password": "hunter2hunter2",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login status = %d, want 200", resp.StatusCode)
	}
	loginBody := decodeBody(t, resp)
	refresh, _ := loginBody["refresh_token"].(string)
	if refresh == "" {
		t.Fatal("login returned no refresh token")
	}

	resp = doJSON(t, app, http.MethodPost, "/auth/refresh", map[string]string{
		"refresh_token": refresh,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("refresh status = %d, want 200", resp.StatusCode)
	}
}

func TestSignupDuplicateEmail(t *testing.T) {
	app := newAuthApp(t)

	payload := map[string]string{"email": "a@example.com", "password": "hunter2hunter2"}
	resp := doJSON(t, app, http.MethodPost, "/auth/signup", payload)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("first signup status = %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = doJSON(t, app, http.MethodPost, "/auth/signup", payload)
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("duplicate signup status = %d, want 409", resp.StatusCode)
	}
	body := decodeBody(t, resp)
	if body["error"] != "account exists" {
		t.Fatalf("error = %v", body["error"])
	}
}

func TestSignupRejectsShortPasswordAndBadEmail(t *testing.T) {
	app := newAuthApp(t)

	resp := doJSON(t, app, http.MethodPost, "/auth/signup", map[string]string{
		"email":    "a@example.com",
		"password": "short",
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("short password status = %d, want 400", resp.StatusCode)
	}
	resp.Body.Close()

	resp = doJSON(t, app, http.MethodPost, "/auth/signup", map[string]string{
		"email":    "not-an-email",
		"password": "hunter2hunter2",
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("bad email status = %d, want 400", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestLoginWrongPassword(t *testing.T) {
	app := newAuthApp(t)

	resp := doJSON(t, app, http.MethodPost, "/auth/signup", map[string]string{
		"email":    "a@example.com",
		"password": "hunter2hunter2",
	})
	resp.Body.Close()

	resp = doJSON(t, app, http.MethodPost, "/auth/login", map[string]string{
		"email":    "a@example.com",
		"password": "wrong-password",
	})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.StatusCode)
	}
	body := decodeBody(t, resp)
	if body["error"] != "invalid credentials" {
		t.Fatalf("error = %v", body["error"])
	}

	resp = doJSON(t, app, http.MethodPost, "/auth/login", map[string]string{
		"email":    "ghost@example.com",
		"password": "whatever123",
	})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("unknown account status = %d, want 401", resp.StatusCode)
	}
	resp.Body.Close()
}
