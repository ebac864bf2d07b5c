package api

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"grandpa/config"
	"grandpa/internal/auth"
	"grandpa/internal/chat"
	"grandpa/internal/database/dbtest"
	"grandpa/internal/files"
	"grandpa/internal/follow"
	"grandpa/internal/journal"
	"grandpa/internal/messaging"
	"grandpa/internal/profile"
	"grandpa/internal/summary"
	"grandpa/internal/user"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(newServer(t).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func newServer(t *testing.T) *Server {
	t.Helper()

	cfg := &config.Config{
		JWTSecret:       []byte("test-secret"),
		AccessTokenTTL:  time.Hour,
		RefreshTokenTTL: 24 * time.Hour,
		MediaRoot:       t.TempDir(),
		MediaURL:        "/media/",
	}
	db := dbtest.New(t)
	hub := messaging.NewHub()

	tokens := auth.ProvideJWT(cfg)
	authMiddleware := auth.NewAuthMiddleware(tokens)
	storage := files.NewLocalStorage(cfg)
	attachments := files.NewAttachmentService(db, storage)
	follows := follow.NewUseCase(follow.NewRepository(db))
	chatService := chat.NewChatService(chat.NewRepository(db), follows, hub)
	profiles := profile.NewService(profile.NewRepository(db), attachments)

	handlers := Handlers{
		Auth:     auth.NewJSONAuthHandler(auth.NewAuthUseCase(auth.NewRepository(db), tokens)),
		User:     user.NewJSONHandler(user.NewUserAccountUseCase(user.NewRepository(db), nil)),
		Follow:   follow.NewJSONHandler(follows),
		Chat:     chat.NewJSONHandler(chatService),
		Socket:   chat.NewWSHandler(chatService, authMiddleware, hub),
		Files:    files.NewJSONHandler(attachments),
		Profiles: profile.NewHandler(profiles),
		Journal: journal.NewJSONHandler(journal.NewService(journal.NewRepository(db), profiles, attachments,
			summary.NewService(nil, cfg))),
	}

	grpcWeb := NewGRPCWeb(NewGRPCServer(ProvideHealthServer()))
	return NewServer(cfg, db, nil, storage, authMiddleware, handlers, grpcWeb)
}

type client struct {
	t     *testing.T
	base  string
	token string
}

func (c *client) do(method, path string, body any, out any) int {
	c.t.Helper()

	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req, err := http.NewRequest(method, c.base+path, &buf)
	if err != nil {
		c.t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		c.t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	if out != nil {
		json.NewDecoder(resp.Body).Decode(out)
	}
	return resp.StatusCode
}

func signUp(t *testing.T, base, username string) (*client, uint) {
	t.Helper()
	c := &client{t: t, base: base}

	var u struct {
		ID uint `json:"id"`
	}
	password := "correct horse battery staple"
	if code := c.do(http.MethodPost, "/api/register/", map[string]string{"username": username, "password": password}, &u); code != http.StatusCreated {
		t.Fatalf("register %s: status %d", username, code)
	}

	var tokens map[string]string
	if code := c.do(http.MethodPost, "/api/token/", map[string]string{"username": username, "password": password}, &tokens); code != http.StatusOK {
		t.Fatalf("token %s: status %d", username, code)
	}
	c.token = tokens["access"]
	return c, u.ID
}

func TestChatFlow(t *testing.T) {
	srv := newTestServer(t)
	alice, aliceID := signUp(t, srv.URL, "alice")
	bob, bobID := signUp(t, srv.URL, "bob")

	var conv struct {
		ID uint `json:"id"`
	}
	if code := alice.do(http.MethodPost, "/api/conversations/create/", map[string]uint{"participant_user_id": bobID}, nil); code != http.StatusForbidden {
		t.Errorf("create before mutual follow = %d, want 403", code)
	}

	alice.do(http.MethodPost, "/api/users/follow/", map[string]uint{"user_id": bobID}, nil)
	bob.do(http.MethodPost, "/api/users/follow/", map[string]uint{"user_id": aliceID}, nil)

	if code := alice.do(http.MethodPost, "/api/conversations/create/", map[string]uint{"participant_user_id": bobID}, &conv); code != http.StatusCreated {
		t.Fatalf("create conversation = %d", code)
	}
	if code := bob.do(http.MethodPost, "/api/conversations/create/", map[string]uint{"participant_user_id": aliceID}, nil); code != http.StatusOK {
		t.Errorf("repeat create = %d, want 200", code)
	}

	path := fmt.Sprintf("/api/conversations/%d/messages/", conv.ID)
	if code := alice.do(http.MethodPost, path, map[string]string{"text": "hi"}, nil); code != http.StatusCreated {
		t.Fatalf("send = %d", code)
	}

	var messages []struct {
		SenderID uint   `json:"sender_id"`
		Text     string `json:"text"`
	}
	if code := bob.do(http.MethodGet, path, nil, &messages); code != http.StatusOK {
		t.Fatalf("list = %d", code)
	}
	if len(messages) != 1 || messages[0].Text != "hi" || messages[0].SenderID != aliceID {
		t.Errorf("messages = %+v", messages)
	}

	carol, _ := signUp(t, srv.URL, "carol")
	if code := carol.do(http.MethodGet, path, nil, nil); code != http.StatusForbidden {
		t.Errorf("outsider list = %d, want 403", code)
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	srv := newTestServer(t)
	anon := &client{t: t, base: srv.URL}

	for _, path := range []string{"/api/conversations/", "/api/profiles/", "/api/users/search/?q=a"} {
		if code := anon.do(http.MethodGet, path, nil, nil); code != http.StatusUnauthorized {
			t.Errorf("GET %s = %d, want 401", path, code)
		}
	}
	anon.token = "garbage"
	if code := anon.do(http.MethodGet, "/api/profiles/", nil, nil); code != http.StatusUnauthorized {
		t.Errorf("bad token = %d, want 401", code)
	}
	if code := anon.do(http.MethodGet, "/api/nowhere/", nil, nil); code != http.StatusNotFound {
		t.Errorf("unknown route = %d, want 404", code)
	}
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t)

	var body map[string]string
	code := (&client{t: t, base: srv.URL}).do(http.MethodGet, "/health", nil, &body)
	if code != http.StatusOK || body["status"] != "ok" || body["redis"] != "disabled" {
		t.Errorf("health = %d %v", code, body)
	}
}

func TestHealthGivesUpWithRequest(t *testing.T) {
	s := newServer(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := httptest.NewRequest(http.MethodGet, "/health", nil).WithContext(ctx)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	var body map[string]string
	json.Unmarshal(rec.Body.Bytes(), &body)
	if rec.Code != http.StatusServiceUnavailable || !strings.Contains(body["database"], context.Canceled.Error()) {
		t.Errorf("health with cancelled request = %d %v", rec.Code, body)
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	h := RateLimitMiddleware(2)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	var codes []int
	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		codes = append(codes, rec.Code)
	}
	if codes[0] != http.StatusNoContent || codes[1] != http.StatusNoContent || codes[2] != http.StatusTooManyRequests {
		t.Errorf("codes = %v", codes)
	}

	open := RateLimitMiddleware(0)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	for i := 0; i < 10; i++ {
		rec := httptest.NewRecorder()
		open.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("unlimited request %d = %d", i, rec.Code)
		}
	}
}

func TestLoggerKeepsHijack(t *testing.T) {
	srv := httptest.NewServer(Logger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, rw, err := w.(http.Hijacker).Hijack()
		if err != nil {
			t.Errorf("Hijack: %v", err)
			return
		}
		defer conn.Close()
		rw.WriteString("HTTP/1.1 200 OK\r\nContent-Length: 2\r\nConnection: close\r\n\r\nok")
		rw.Flush()
	})))
	defer srv.Close()

	conn, err := net.Dial("tcp", srv.Listener.Addr().String())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	fmt.Fprintf(conn, "GET / HTTP/1.1\r\nHost: test\r\n\r\n")

	resp, err := http.ReadResponse(bufio.NewReader(conn), nil)
	if err != nil {
		t.Fatalf("read response: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d", resp.StatusCode)
	}
}
