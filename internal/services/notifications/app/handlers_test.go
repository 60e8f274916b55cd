package server

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/mangacollab/mangacollab/internal/services/notifications/domain"
	"github.com/mangacollab/mangacollab/internal/services/notifications/render"
	"github.com/mangacollab/mangacollab/internal/services/notifications/storage/sqlite"
)

const testInternalToken = "internal-secret"

type staticMemberResolver struct {
	members []domain.User
}

func (r staticMemberResolver) ListTeamMembers(_ context.Context, _ string) ([]domain.User, error) {
	return r.members, nil
}

type recordingMailer struct {
	mu   sync.Mutex
	sent []domain.EmailInput
}

func (m *recordingMailer) Send(_ context.Context, input domain.EmailInput) domain.EmailResult {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, input)
	return domain.EmailResult{Status: domain.EmailSent}
}

// steppingClock hands out strictly increasing instants so created_at ordering
// is deterministic at millisecond storage resolution.
type steppingClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *steppingClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

type testEnv struct {
	http    *httptest.Server
	service *domain.Service
	signKey ed25519.PrivateKey
}

func newTestEnv(t *testing.T, members ...domain.User) *testEnv {
	t.Helper()

	store, err := sqlite.Open(filepath.Join(t.TempDir(), "notifications.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Errorf("close store: %v", err)
		}
	})

	public, private := newTestKeyPair(t)
	adapter := newDomainStoreAdapter(store, store)
	clock := &steppingClock{now: time.Date(2026, 2, 10, 9, 0, 0, 0, time.UTC)}
	service := domain.NewService(adapter, adapter, clock.Now, nil)
	dispatcher := domain.NewDispatcher(service, staticMemberResolver{members: members}, render.New(nil), &recordingMailer{})

	server, err := NewServer(Config{
		HTTPAddr:      "127.0.0.1:0",
		AccessTokens:  testTokenConfig(public),
		InternalToken: testInternalToken,
	}, service, dispatcher)
	if err != nil {
		t.Fatalf("NewServer() error = %v", err)
	}

	ts := httptest.NewServer(server.handler())
	t.Cleanup(ts.Close)
	return &testEnv{http: ts, service: service, signKey: private}
}

func (e *testEnv) request(t *testing.T, method string, path string, token string, body any) (*http.Response, []byte) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode request body: %v", err)
		}
	}
	req, err := http.NewRequest(method, e.http.URL+path, &buf)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := e.http.Client().Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	var out bytes.Buffer
	if _, err := out.ReadFrom(resp.Body); err != nil {
		t.Fatalf("read response body: %v", err)
	}
	return resp, out.Bytes()
}

func (e *testEnv) userToken(t *testing.T, userID string) string {
	t.Helper()
	return signTestToken(t, e.signKey, tokenOverrides{subject: userID})
}

func (e *testEnv) seedNotification(t *testing.T, recipient string, kind domain.Kind, title string) domain.Notification {
	t.Helper()
	notification, err := e.service.Create(context.Background(), domain.CreateInput{
		RecipientUserID: recipient,
		Kind:            kind,
		Title:           title,
		Message:         "message for " + title,
	})
	if err != nil {
		t.Fatalf("seed notification: %v", err)
	}
	return notification
}

func TestHealthEndpoint(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	resp, body := env.request(t, http.MethodGet, "/health", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET /health status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	if !strings.Contains(string(body), `"ok"`) {
		t.Fatalf("GET /health body = %s", body)
	}
}

func TestAPIRoutesRequireBearerToken(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	resp, _ := env.request(t, http.MethodGet, "/api/v1/notifications", "", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("missing token status = %d, want %d", resp.StatusCode, http.StatusUnauthorized)
	}
	resp, _ = env.request(t, http.MethodGet, "/api/v1/notifications", "not-a-jwt", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("bad token status = %d, want %d", resp.StatusCode, http.StatusUnauthorized)
	}
}

func TestInternalRoutesRequireInternalToken(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	resp, _ := env.request(t, http.MethodPost, "/internal/v1/notify", "", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("missing token status = %d, want %d", resp.StatusCode, http.StatusUnauthorized)
	}
	resp, _ = env.request(t, http.MethodPost, "/internal/v1/notify", env.userToken(t, "alice"), nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("user token status = %d, want %d", resp.StatusCode, http.StatusUnauthorized)
	}
}

func TestListNotificationsEndpoint(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	first := env.seedNotification(t, "alice", domain.KindTaskAssigned, "first")
	second := env.seedNotification(t, "alice", domain.KindCommentMention, "second")
	env.seedNotification(t, "bob", domain.KindTaskAssigned, "other inbox")

	token := env.userToken(t, "alice")
	resp, body := env.request(t, http.MethodGet, "/api/v1/notifications", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list status = %d, body = %s", resp.StatusCode, body)
	}
	var page struct {
		Notifications []notificationPayload `json:"notifications"`
		NextPageToken string                `json:"next_page_token"`
	}
	if err := json.Unmarshal(body, &page); err != nil {
		t.Fatalf("decode list response: %v", err)
	}
	if len(page.Notifications) != 2 {
		t.Fatalf("list returned %d notifications, want 2", len(page.Notifications))
	}
	if page.Notifications[0].ID != second.ID || page.Notifications[1].ID != first.ID {
		t.Fatalf("list order = %q, %q; want newest first", page.Notifications[0].ID, page.Notifications[1].ID)
	}
	if page.Notifications[0].IsRead {
		t.Fatal("fresh notification reported as read")
	}
	if string(page.Notifications[0].Extra) != "{}" {
		t.Fatalf("extra = %s, want {}", page.Notifications[0].Extra)
	}

	resp, body = env.request(t, http.MethodGet, "/api/v1/notifications?type="+string(domain.KindTaskAssigned), token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("filtered list status = %d", resp.StatusCode)
	}
	if err := json.Unmarshal(body, &page); err != nil {
		t.Fatalf("decode filtered list: %v", err)
	}
	if len(page.Notifications) != 1 || page.Notifications[0].ID != first.ID {
		t.Fatalf("type filter returned %d notifications", len(page.Notifications))
	}
}

func TestListNotificationsEndpointPaginates(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	for i := 0; i < 3; i++ {
		env.seedNotification(t, "alice", domain.KindProjectUpdate, fmt.Sprintf("update %d", i))
	}

	token := env.userToken(t, "alice")
	resp, body := env.request(t, http.MethodGet, "/api/v1/notifications?page_size=2", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("page 1 status = %d", resp.StatusCode)
	}
	var page struct {
		Notifications []notificationPayload `json:"notifications"`
		NextPageToken string                `json:"next_page_token"`
	}
	if err := json.Unmarshal(body, &page); err != nil {
		t.Fatalf("decode page 1: %v", err)
	}
	if len(page.Notifications) != 2 || page.NextPageToken == "" {
		t.Fatalf("page 1 = %d notifications, token %q", len(page.Notifications), page.NextPageToken)
	}

	resp, body = env.request(t, http.MethodGet, "/api/v1/notifications?page_size=2&page_token="+page.NextPageToken, token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("page 2 status = %d", resp.StatusCode)
	}
	if err := json.Unmarshal(body, &page); err != nil {
		t.Fatalf("decode page 2: %v", err)
	}
	if len(page.Notifications) != 1 || page.NextPageToken != "" {
		t.Fatalf("page 2 = %d notifications, token %q", len(page.Notifications), page.NextPageToken)
	}
}

func TestListNotificationsEndpointRejectsBadQuery(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	token := env.userToken(t, "alice")

	resp, _ := env.request(t, http.MethodGet, "/api/v1/notifications?status=bogus", token, nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("bad status filter status = %d, want %d", resp.StatusCode, http.StatusBadRequest)
	}
	resp, _ = env.request(t, http.MethodGet, "/api/v1/notifications?page_size=nope", token, nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("bad page_size status = %d, want %d", resp.StatusCode, http.StatusBadRequest)
	}
}

func TestMarkReadEndpoint(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	notification := env.seedNotification(t, "alice", domain.KindTaskAssigned, "review chapter 12")
	token := env.userToken(t, "alice")

	resp, body := env.request(t, http.MethodPost, "/api/v1/notifications/"+notification.ID+"/read", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("mark read status = %d, body = %s", resp.StatusCode, body)
	}
	var payload notificationPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		t.Fatalf("decode mark read response: %v", err)
	}
	if !payload.IsRead || payload.ReadAt == "" {
		t.Fatalf("mark read payload = %+v, want read with timestamp", payload)
	}

	resp, body = env.request(t, http.MethodPost, "/api/v1/notifications/"+notification.ID+"/read", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("repeat mark read status = %d", resp.StatusCode)
	}
	var repeat notificationPayload
	if err := json.Unmarshal(body, &repeat); err != nil {
		t.Fatalf("decode repeat response: %v", err)
	}
	if repeat.ReadAt != payload.ReadAt {
		t.Fatalf("repeat ReadAt = %q, want %q", repeat.ReadAt, payload.ReadAt)
	}

	resp, _ = env.request(t, http.MethodPost, "/api/v1/notifications/"+notification.ID+"/read", env.userToken(t, "bob"), nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("foreign recipient status = %d, want %d", resp.StatusCode, http.StatusNotFound)
	}
	resp, _ = env.request(t, http.MethodPost, "/api/v1/notifications/missing/read", token, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("missing notification status = %d, want %d", resp.StatusCode, http.StatusNotFound)
	}
}

func TestReadAllAndUnreadCountEndpoints(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.seedNotification(t, "alice", domain.KindTaskAssigned, "one")
	env.seedNotification(t, "alice", domain.KindProjectUpdate, "two")
	token := env.userToken(t, "alice")

	resp, body := env.request(t, http.MethodGet, "/api/v1/notifications/unread-count", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unread-count status = %d", resp.StatusCode)
	}
	var count struct {
		UnreadCount int `json:"unread_count"`
	}
	if err := json.Unmarshal(body, &count); err != nil {
		t.Fatalf("decode unread-count: %v", err)
	}
	if count.UnreadCount != 2 {
		t.Fatalf("unread_count = %d, want 2", count.UnreadCount)
	}

	resp, body = env.request(t, http.MethodPost, "/api/v1/notifications/read-all", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("read-all status = %d", resp.StatusCode)
	}
	var affected struct {
		Count int `json:"count"`
	}
	if err := json.Unmarshal(body, &affected); err != nil {
		t.Fatalf("decode read-all: %v", err)
	}
	if affected.Count != 2 {
		t.Fatalf("read-all count = %d, want 2", affected.Count)
	}

	_, body = env.request(t, http.MethodGet, "/api/v1/notifications/unread-count", token, nil)
	if err := json.Unmarshal(body, &count); err != nil {
		t.Fatalf("decode unread-count after read-all: %v", err)
	}
	if count.UnreadCount != 0 {
		t.Fatalf("unread_count after read-all = %d, want 0", count.UnreadCount)
	}
}

func TestPreferencesEndpoints(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	token := env.userToken(t, "alice")

	resp, body := env.request(t, http.MethodGet, "/api/v1/notifications/preferences", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get preferences status = %d", resp.StatusCode)
	}
	var prefs preferencesPayload
	if err := json.Unmarshal(body, &prefs); err != nil {
		t.Fatalf("decode preferences: %v", err)
	}
	if prefs.UserID != "alice" {
		t.Fatalf("preferences user_id = %q, want %q", prefs.UserID, "alice")
	}
	if !prefs.EmailTeamStatusChanges || prefs.EmailProjectUpdates {
		t.Fatalf("default email flags = %+v", prefs)
	}
	if !prefs.WebProjectUpdates {
		t.Fatal("default web_project_updates = false, want true")
	}

	update := prefs
	update.EmailTeamStatusChanges = false
	update.EmailProjectUpdates = true
	resp, body = env.request(t, http.MethodPut, "/api/v1/notifications/preferences", token, update)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("put preferences status = %d, body = %s", resp.StatusCode, body)
	}
	if err := json.Unmarshal(body, &prefs); err != nil {
		t.Fatalf("decode updated preferences: %v", err)
	}
	if prefs.EmailTeamStatusChanges || !prefs.EmailProjectUpdates {
		t.Fatalf("updated email flags = %+v", prefs)
	}
	if prefs.CreatedAt != update.CreatedAt {
		t.Fatalf("update changed created_at from %q to %q", update.CreatedAt, prefs.CreatedAt)
	}
}

func TestDispatchTeamStatusEndpoint(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t,
		domain.User{ID: "lead", Username: "anna", Email: "anna@example.com"},
		domain.User{ID: "bob", Username: "bob", Email: "bob@example.com"},
	)

	payload := teamStatusDispatchPayload{
		Change: "deactivated",
		Actor:  userPayload{ID: "lead", Username: "anna"},
		Reason: "перерыв",
	}
	payload.Team.ID = "team-1"
	payload.Team.Name = "Сканлейт"

	resp, body := env.request(t, http.MethodPost, "/internal/v1/dispatch/team-status", testInternalToken, payload)
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("dispatch status = %d, body = %s", resp.StatusCode, body)
	}

	resp, body = env.request(t, http.MethodGet, "/api/v1/notifications", env.userToken(t, "bob"), nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("bob list status = %d", resp.StatusCode)
	}
	var page struct {
		Notifications []notificationPayload `json:"notifications"`
	}
	if err := json.Unmarshal(body, &page); err != nil {
		t.Fatalf("decode bob inbox: %v", err)
	}
	if len(page.Notifications) != 1 {
		t.Fatalf("bob inbox = %d notifications, want 1", len(page.Notifications))
	}
	got := page.Notifications[0]
	if got.Kind != string(domain.KindTeamDeactivated) {
		t.Fatalf("kind = %q, want %q", got.Kind, domain.KindTeamDeactivated)
	}
	if got.Title != `Команда "Сканлейт" приостановлена` {
		t.Fatalf("title = %q", got.Title)
	}
	if !strings.Contains(got.Message, "Причина: перерыв") {
		t.Fatalf("message = %q, want reason suffix", got.Message)
	}

	resp, body = env.request(t, http.MethodGet, "/api/v1/notifications", env.userToken(t, "lead"), nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("lead list status = %d", resp.StatusCode)
	}
	if err := json.Unmarshal(body, &page); err != nil {
		t.Fatalf("decode lead inbox: %v", err)
	}
	if len(page.Notifications) != 0 {
		t.Fatalf("actor inbox = %d notifications, want 0", len(page.Notifications))
	}
}

func TestNotifyEndpoint(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	payload := notifyPayload{
		Recipient: userPayload{ID: "carol", Username: "carol", Email: "carol@example.com"},
		Kind:      string(domain.KindTaskAssigned),
		Title:     "New assignment",
		Message:   "Chapter 3 cleanup",
		Extra:     json.RawMessage(`{"task_id":"t-9"}`),
	}
	resp, body := env.request(t, http.MethodPost, "/internal/v1/notify", testInternalToken, payload)
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("notify status = %d, body = %s", resp.StatusCode, body)
	}

	resp, body = env.request(t, http.MethodGet, "/api/v1/notifications", env.userToken(t, "carol"), nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("carol list status = %d", resp.StatusCode)
	}
	var page struct {
		Notifications []notificationPayload `json:"notifications"`
	}
	if err := json.Unmarshal(body, &page); err != nil {
		t.Fatalf("decode carol inbox: %v", err)
	}
	if len(page.Notifications) != 1 {
		t.Fatalf("carol inbox = %d notifications, want 1", len(page.Notifications))
	}
	if string(page.Notifications[0].Extra) != `{"task_id":"t-9"}` {
		t.Fatalf("extra = %s", page.Notifications[0].Extra)
	}
}

func TestUnreadAllEndpoint(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	notification := env.seedNotification(t, "alice", domain.KindTaskAssigned, "one")
	token := env.userToken(t, "alice")
	if _, body := env.request(t, http.MethodPost, "/api/v1/notifications/"+notification.ID+"/read", token, nil); len(body) == 0 {
		t.Fatal("mark read returned empty body")
	}

	resp, body := env.request(t, http.MethodPost, "/internal/v1/notifications/unread-all", testInternalToken, map[string]string{"user_id": "alice"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unread-all status = %d, body = %s", resp.StatusCode, body)
	}
	var affected struct {
		Count int `json:"count"`
	}
	if err := json.Unmarshal(body, &affected); err != nil {
		t.Fatalf("decode unread-all: %v", err)
	}
	if affected.Count != 1 {
		t.Fatalf("unread-all count = %d, want 1", affected.Count)
	}

	_, body = env.request(t, http.MethodGet, "/api/v1/notifications/unread-count", token, nil)
	var count struct {
		UnreadCount int `json:"unread_count"`
	}
	if err := json.Unmarshal(body, &count); err != nil {
		t.Fatalf("decode unread-count: %v", err)
	}
	if count.UnreadCount != 1 {
		t.Fatalf("unread_count = %d, want 1", count.UnreadCount)
	}
}

func TestPurgeRecipientEndpoint(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.seedNotification(t, "alice", domain.KindTaskAssigned, "one")
	env.seedNotification(t, "alice", domain.KindProjectUpdate, "two")

	resp, body := env.request(t, http.MethodPost, "/internal/v1/recipients/alice/purge", testInternalToken, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("purge status = %d, body = %s", resp.StatusCode, body)
	}
	var removed struct {
		Removed int `json:"removed"`
	}
	if err := json.Unmarshal(body, &removed); err != nil {
		t.Fatalf("decode purge response: %v", err)
	}
	if removed.Removed != 2 {
		t.Fatalf("purge removed = %d, want 2", removed.Removed)
	}

	_, body = env.request(t, http.MethodGet, "/api/v1/notifications", env.userToken(t, "alice"), nil)
	var page struct {
		Notifications []notificationPayload `json:"notifications"`
	}
	if err := json.Unmarshal(body, &page); err != nil {
		t.Fatalf("decode inbox after purge: %v", err)
	}
	if len(page.Notifications) != 0 {
		t.Fatalf("inbox after purge = %d notifications, want 0", len(page.Notifications))
	}
}

func TestNewServerValidatesConfig(t *testing.T) {
	t.Parallel()

	service := domain.NewService(nil, nil, nil, nil)
	if _, err := NewServer(Config{}, service, nil); err == nil {
		t.Fatal("NewServer() with empty address expected error")
	}
	if _, err := NewServer(Config{HTTPAddr: "127.0.0.1:0"}, nil, nil); err == nil {
		t.Fatal("NewServer() with nil service expected error")
	}
}
