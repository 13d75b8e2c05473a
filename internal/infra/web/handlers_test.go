//go:build !integration

package web

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/farinchan/chatery-whatsapp/internal/config"
	"github.com/farinchan/chatery-whatsapp/internal/domain"
	"github.com/farinchan/chatery-whatsapp/internal/domain/model"
	"github.com/farinchan/chatery-whatsapp/internal/infra/adapters/channel"
	"github.com/farinchan/chatery-whatsapp/internal/infra/memstore"
	"github.com/farinchan/chatery-whatsapp/internal/usecase"
)

const testMasterKey = "master-key"

type noopNotifier struct{}

func (noopNotifier) Notify(model.SessionInfo, string, any) {}

type stubUsers struct {
	users map[string]*model.User
}

func (s *stubUsers) Authenticate(_ context.Context, username, password string) (*model.User, error) {
	u, ok := s.users[username]
	if !ok || usecase.HashPassword(password) != u.PasswordHash {
		return nil, domain.ErrInvalidCredentials
	}
	return u, nil
}

func (s *stubUsers) ResolveAPIKey(_ context.Context, apiKey string) (*model.User, error) {
	for _, u := range s.users {
		if u.APIKey == apiKey {
			return u, nil
		}
	}
	return nil, domain.ErrNotFound
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	logger := zerolog.Nop()
	mgr := channel.NewManager(0, &logger)
	sessions := usecase.NewSessionUseCase(mgr, noopNotifier{}, &logger)
	store := memstore.NewBulkJobStore(100)
	bulk := usecase.NewBulkUseCase(store, mgr, noopNotifier{}, usecase.BulkOptions{}, &logger)
	users := &stubUsers{users: map[string]*model.User{
		"alice": {
			ID:           "u-1",
			Username:     "alice",
			PasswordHash: usecase.HashPassword("s3cret"),
			APIKey:       "alice-key",
			Role:         model.RoleUser,
		},
	}}
	tokens := NewTokenManager("test-secret", time.Hour)
	auth := NewAuthenticator(users, tokens, testMasterKey, "dashboard", &logger)
	return NewServer(sessions, bulk, users, auth, "/api/whatsapp", config.BulkConfig{
		DefaultPacingMs: 0,
		DefaultTypingMs: 0,
	}, &logger)
}

func doJSON(t *testing.T, h http.Handler, method, path, apiKey string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if apiKey != "" {
		req.Header.Set("X-Api-Key", apiKey)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) (bool, string, map[string]any) {
	t.Helper()
	var env struct {
		Success bool           `json:"success"`
		Message string         `json:"message"`
		Data    map[string]any `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope: %v (body %q)", err, rec.Body.String())
	}
	return env.Success, env.Message, env.Data
}

func connectSession(t *testing.T, h http.Handler, id string) {
	t.Helper()
	rec := doJSON(t, h, http.MethodPost, "/api/whatsapp/sessions/"+id+"/connect", testMasterKey, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("connect session: status %d body %s", rec.Code, rec.Body.String())
	}
}

func TestAuthRequired(t *testing.T) {
	h := newTestServer(t).Router()

	t.Run("missing key", func(t *testing.T) {
		rec := doJSON(t, h, http.MethodGet, "/api/whatsapp/sessions", "", nil)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d, want 401", rec.Code)
		}
		ok, msg, _ := decodeEnvelope(t, rec)
		if ok || msg != "Missing X-Api-Key header" {
			t.Fatalf("envelope = %v %q", ok, msg)
		}
	})

	t.Run("bad key", func(t *testing.T) {
		rec := doJSON(t, h, http.MethodGet, "/api/whatsapp/sessions", "nope", nil)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d, want 401", rec.Code)
		}
	})

	t.Run("user api key", func(t *testing.T) {
		rec := doJSON(t, h, http.MethodGet, "/api/whatsapp/sessions", "alice-key", nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
	})

	t.Run("health is public", func(t *testing.T) {
		rec := doJSON(t, h, http.MethodGet, "/health", "", nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
	})
}

func TestLogin(t *testing.T) {
	h := newTestServer(t).Router()

	t.Run("valid credentials", func(t *testing.T) {
		rec := doJSON(t, h, http.MethodPost, "/api/whatsapp/auth/login", "", map[string]string{
			"username": "alice", "password": "s3cret",
		})
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d body %s", rec.Code, rec.Body.String())
		}
		_, _, data := decodeEnvelope(t, rec)
		token, _ := data["token"].(string)
		if token == "" {
			t.Fatal("no token in response")
		}

		req := httptest.NewRequest(http.MethodGet, "/api/whatsapp/sessions", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		if rr.Code != http.StatusOK {
			t.Fatalf("bearer request status = %d", rr.Code)
		}
	})

	t.Run("wrong password", func(t *testing.T) {
		rec := doJSON(t, h, http.MethodPost, "/api/whatsapp/auth/login", "", map[string]string{
			"username": "alice", "password": "wrong",
		})
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d, want 401", rec.Code)
		}
	})
}

func TestSessionLifecycle(t *testing.T) {
	h := newTestServer(t).Router()
	connectSession(t, h, "store-1")

	rec := doJSON(t, h, http.MethodGet, "/api/whatsapp/sessions/store-1/status", testMasterKey, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status route: %d", rec.Code)
	}
	_, _, data := decodeEnvelope(t, rec)
	if data["status"] != string(model.SessionConnected) {
		t.Fatalf("session status = %v", data["status"])
	}

	rec = doJSON(t, h, http.MethodPost, "/api/whatsapp/sessions/store-1/webhooks", testMasterKey, map[string]any{
		"url": "https://example.com/hook",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("add webhook: %d body %s", rec.Code, rec.Body.String())
	}

	t.Run("delete requires admin", func(t *testing.T) {
		rec := doJSON(t, h, http.MethodDelete, "/api/whatsapp/sessions/store-1", "alice-key", nil)
		if rec.Code != http.StatusForbidden {
			t.Fatalf("status = %d, want 403", rec.Code)
		}
	})

	t.Run("delete as admin", func(t *testing.T) {
		rec := doJSON(t, h, http.MethodDelete, "/api/whatsapp/sessions/store-1", testMasterKey, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d body %s", rec.Code, rec.Body.String())
		}
		rec = doJSON(t, h, http.MethodGet, "/api/whatsapp/sessions/store-1/status", testMasterKey, nil)
		if rec.Code != http.StatusNotFound {
			t.Fatalf("status after delete = %d, want 404", rec.Code)
		}
	})
}

func TestSendSingleMessage(t *testing.T) {
	h := newTestServer(t).Router()
	connectSession(t, h, "store-1")

	rec := doJSON(t, h, http.MethodPost, "/api/whatsapp/chats/send", testMasterKey, map[string]any{
		"sessionId": "store-1",
		"chatId":    "628111",
		"message":   "hello",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body %s", rec.Code, rec.Body.String())
	}
	_, _, data := decodeEnvelope(t, rec)
	if data["messageId"] == "" || data["chatId"] != "628111" {
		t.Fatalf("data = %v", data)
	}
}

func TestSendBulkFlow(t *testing.T) {
	h := newTestServer(t).Router()
	connectSession(t, h, "store-1")

	rec := doJSON(t, h, http.MethodPost, "/api/whatsapp/chats/send-bulk", testMasterKey, map[string]any{
		"sessionId":            "store-1",
		"recipients":           []string{"628111", "628222", "fail628333"},
		"message":              "promo",
		"delayBetweenMessages": 0,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("submit status = %d body %s", rec.Code, rec.Body.String())
	}
	_, msg, data := decodeEnvelope(t, rec)
	if msg != "Bulk send started" {
		t.Fatalf("message = %q", msg)
	}
	jobID, _ := data["jobId"].(string)
	if jobID == "" {
		t.Fatal("no jobId in response")
	}
	if data["total"] != float64(3) {
		t.Fatalf("total = %v", data["total"])
	}
	wantURL := "/api/whatsapp/chats/bulk-status/" + jobID
	if data["statusUrl"] != wantURL {
		t.Fatalf("statusUrl = %v, want %s", data["statusUrl"], wantURL)
	}

	deadline := time.Now().Add(5 * time.Second)
	var status map[string]any
	for {
		rec := doJSON(t, h, http.MethodGet, wantURL, testMasterKey, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("poll status = %d", rec.Code)
		}
		_, _, status = decodeEnvelope(t, rec)
		if status["status"] == string(model.JobStatusCompleted) {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("job did not complete, last status %v", status)
		}
		time.Sleep(10 * time.Millisecond)
	}

	if status["sent"] != float64(2) || status["failed"] != float64(1) {
		t.Fatalf("sent/failed = %v/%v", status["sent"], status["failed"])
	}
	if status["progress"] != float64(100) {
		t.Fatalf("progress = %v", status["progress"])
	}
	details, _ := status["details"].([]any)
	if len(details) != 3 {
		t.Fatalf("details len = %d", len(details))
	}

	t.Run("job listing", func(t *testing.T) {
		rec := doJSON(t, h, http.MethodPost, "/api/whatsapp/chats/bulk-jobs", testMasterKey, map[string]any{
			"sessionId": "store-1",
		})
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
		_, _, data := decodeEnvelope(t, rec)
		if data["total"] != float64(1) {
			t.Fatalf("total = %v", data["total"])
		}
	})
}

func TestSendBulkValidation(t *testing.T) {
	h := newTestServer(t).Router()
	connectSession(t, h, "store-1")

	cases := []struct {
		name     string
		body     map[string]any
		wantCode int
		wantMsg  string
	}{
		{
			name:     "no recipients",
			body:     map[string]any{"sessionId": "store-1", "message": "hi"},
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "no message",
			body:     map[string]any{"sessionId": "store-1", "recipients": []string{"628111"}},
			wantCode: http.StatusBadRequest,
		},
		{
			name: "too many recipients",
			body: map[string]any{
				"sessionId":  "store-1",
				"recipients": manyRecipients(101),
				"message":    "hi",
			},
			wantCode: http.StatusBadRequest,
			wantMsg:  "Maximum 100 recipients per request",
		},
		{
			name: "unknown session",
			body: map[string]any{
				"sessionId":  "ghost",
				"recipients": []string{"628111"},
				"message":    "hi",
			},
			wantCode: http.StatusNotFound,
			wantMsg:  "Session not found",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := doJSON(t, h, http.MethodPost, "/api/whatsapp/chats/send-bulk", testMasterKey, tc.body)
			if rec.Code != tc.wantCode {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tc.wantCode, rec.Body.String())
			}
			ok, msg, _ := decodeEnvelope(t, rec)
			if ok {
				t.Fatal("success = true on error response")
			}
			if tc.wantMsg != "" && msg != tc.wantMsg {
				t.Fatalf("message = %q, want %q", msg, tc.wantMsg)
			}
		})
	}
}

func TestBulkStatusUnknownJob(t *testing.T) {
	h := newTestServer(t).Router()
	rec := doJSON(t, h, http.MethodGet, "/api/whatsapp/chats/bulk-status/bulk_nope", testMasterKey, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	ok, msg, _ := decodeEnvelope(t, rec)
	if ok || msg != "Job not found" {
		t.Fatalf("envelope = %v %q", ok, msg)
	}
}

func manyRecipients(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("62811%04d", i)
	}
	return out
}
