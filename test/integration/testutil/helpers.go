//go:build integration

package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/campuspoints/platform/internal/domain"
	"github.com/google/uuid"
)

// RegisterUser creates a new account and returns the auth token and user ID.
func (env *TestEnv) RegisterUser(name, email, password string) (token string, userID uuid.UUID) {
	env.t.Helper()
	resp := env.POST("/auth/register", map[string]string{
		"name":     name,
		"email":    email,
		"password": password,
	}, "")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		env.t.Fatalf("RegisterUser: expected 201, got %d", resp.StatusCode)
	}

	var result struct {
		Token  string    `json:"token"`
		UserID uuid.UUID `json:"user_id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		env.t.Fatalf("RegisterUser: decode: %v", err)
	}
	return result.Token, result.UserID
}

// LoginUser authenticates an existing account and returns the auth token.
func (env *TestEnv) LoginUser(email, password string) string {
	env.t.Helper()
	resp := env.POST("/auth/login", map[string]string{
		"email":    email,
		"password": password,
	}, "")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		env.t.Fatalf("LoginUser: expected 200, got %d", resp.StatusCode)
	}

	var result struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		env.t.Fatalf("LoginUser: decode: %v", err)
	}
	return result.Token
}

// PromoteUser sets a user's role directly and returns a fresh token
// carrying it. Tokens embed the role, so the old token keeps the old
// floor.
func (env *TestEnv) PromoteUser(userID uuid.UUID, role domain.Role, email, password string) string {
	env.t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := env.Pool.Exec(ctx,
		"UPDATE users SET role = $1, updated_at = now() WHERE id = $2", int(role), userID)
	if err != nil {
		env.t.Fatalf("PromoteUser: %v", err)
	}
	return env.LoginUser(email, password)
}

// VerifyUser marks a user verified. Transfers and redemptions require it.
func (env *TestEnv) VerifyUser(userID uuid.UUID) {
	env.t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := env.Pool.Exec(ctx,
		"UPDATE users SET verified = true, updated_at = now() WHERE id = $1", userID)
	if err != nil {
		env.t.Fatalf("VerifyUser: %v", err)
	}
}

// DirectCredit credits a user's balance directly, posting an adjustment
// row so the ledger identity still holds for audits.
func (env *TestEnv) DirectCredit(userID uuid.UUID, amount int64) {
	env.t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	tx, err := env.Pool.Begin(ctx)
	if err != nil {
		env.t.Fatalf("DirectCredit: begin tx: %v", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, "SELECT id FROM users WHERE id = $1 FOR UPDATE", userID)
	if err != nil {
		env.t.Fatalf("DirectCredit: lock: %v", err)
	}

	_, err = tx.Exec(ctx,
		"UPDATE users SET balance = balance + $2, updated_at = now() WHERE id = $1",
		userID, amount)
	if err != nil {
		env.t.Fatalf("DirectCredit: update balance: %v", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO transactions (id, user_id, type, amount, remark, created_by)
		VALUES ($1, $2, 'adjustment', $3, 'test credit', $2)`,
		uuid.New(), userID, amount)
	if err != nil {
		env.t.Fatalf("DirectCredit: insert tx: %v", err)
	}

	if err := tx.Commit(ctx); err != nil {
		env.t.Fatalf("DirectCredit: commit: %v", err)
	}
}

// CreateEventRow inserts an event directly and returns its id.
func (env *TestEnv) CreateEventRow(name string, totalPoints int64, endTime time.Time) uuid.UUID {
	env.t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	id := uuid.New()
	_, err := env.Pool.Exec(ctx, `
		INSERT INTO events (id, name, end_time, total_points, points_awarded)
		VALUES ($1, $2, $3, $4, 0)`,
		id, name, endTime, totalPoints)
	if err != nil {
		env.t.Fatalf("CreateEventRow: %v", err)
	}
	return id
}

// GET performs an unauthenticated GET request.
func (env *TestEnv) GET(path string) *http.Response {
	env.t.Helper()
	resp, err := http.Get(env.Server.URL + path)
	if err != nil {
		env.t.Fatalf("GET %s: %v", path, err)
	}
	return resp
}

// POST performs a POST request with optional auth token.
func (env *TestEnv) POST(path string, body interface{}, token string) *http.Response {
	env.t.Helper()
	return env.request("POST", path, body, token, "")
}

// AuthGET performs an authenticated GET request.
func (env *TestEnv) AuthGET(path, token string) *http.Response {
	env.t.Helper()
	return env.request("GET", path, nil, token, "")
}

// AuthPOST performs an authenticated POST request.
func (env *TestEnv) AuthPOST(path string, body interface{}, token string) *http.Response {
	env.t.Helper()
	return env.request("POST", path, body, token, "")
}

// AuthPATCH performs an authenticated PATCH request.
func (env *TestEnv) AuthPATCH(path string, body interface{}, token string) *http.Response {
	env.t.Helper()
	return env.request("PATCH", path, body, token, "")
}

// IdempotentPOST performs an authenticated POST carrying an Idempotency-Key.
func (env *TestEnv) IdempotentPOST(path string, body interface{}, token, key string) *http.Response {
	env.t.Helper()
	return env.request("POST", path, body, token, key)
}

func (env *TestEnv) request(method, path string, body interface{}, token, idempotencyKey string) *http.Response {
	env.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			env.t.Fatalf("%s %s: encode: %v", method, path, err)
		}
	}
	req, err := http.NewRequest(method, env.Server.URL+path, &buf)
	if err != nil {
		env.t.Fatalf("%s %s: new request: %v", method, path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if idempotencyKey != "" {
		req.Header.Set("Idempotency-Key", idempotencyKey)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		env.t.Fatalf("%s %s: %v", method, path, err)
	}
	return resp
}

// UniqueEmail returns an email unique across a test run.
func UniqueEmail(prefix string) string {
	return fmt.Sprintf("%s-%s@campus.edu", prefix, uuid.New().String()[:8])
}
