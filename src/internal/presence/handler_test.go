package presence

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"geopulse-relay-svc/src/internal/config"
	"geopulse-relay-svc/src/internal/models"

	"github.com/gin-gonic/gin"
)

type fakeReadCache struct {
	mu      sync.Mutex
	failGet bool
	stored  []models.Session
}

func (f *fakeReadCache) SaveActiveUsers(_ context.Context, sessions []models.Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stored = sessions
	return nil
}

func (f *fakeReadCache) GetActiveUsers(_ context.Context) ([]models.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failGet {
		return nil, models.ErrRedisGet
	}
	return f.stored, nil
}

func (f *fakeReadCache) snapshot() []models.Session {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stored
}

func newHandlerFixture() (*fixture, *fakeReadCache, *gin.Engine) {
	gin.SetMode(gin.TestMode)
	f := newFixture()
	readCache := &fakeReadCache{}
	cfg := &config.Configuration{
		App:     config.Application{Timeout: 5},
		History: config.HistoryConfig{DefaultLimit: 50, MaxLimit: 500},
	}
	h := NewHandler(cfg, f.service, f.locations, f.presence, readCache)

	router := gin.New()
	router.GET("/api/v1/users/active", h.GetActiveUsers)
	router.GET("/api/v1/users/active/count", h.GetActiveUserCount)
	router.GET("/api/v1/presence/:userId", h.GetUserPresence)
	router.GET("/api/v1/locations/:userId", h.GetLocationHistory)
	return f, readCache, router
}

func doGet(t *testing.T, router *gin.Engine, path string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	router.ServeHTTP(w, req)
	return w
}

type activeUsersResponse struct {
	Success bool             `json:"success"`
	Count   int              `json:"count"`
	Data    []models.Session `json:"data"`
}

func TestGetActiveUsersServedFromCache(t *testing.T) {
	_, readCache, router := newHandlerFixture()
	readCache.stored = []models.Session{{SocketID: "sock-9", UserID: "cached-user", Name: "Cached"}}

	w := doGet(t, router, "/api/v1/users/active")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var body activeUsersResponse
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("bad response body: %v", err)
	}
	if body.Count != 1 || len(body.Data) != 1 || body.Data[0].UserID != "cached-user" {
		t.Errorf("expected cached snapshot, got %+v", body)
	}
}

func TestGetActiveUsersFallsBackToRegistry(t *testing.T) {
	f, readCache, router := newHandlerFixture()

	f.service.Register("sock-1", &RegisterEvent{UserID: "u1", Name: "Alice"})

	w := doGet(t, router, "/api/v1/users/active")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var body activeUsersResponse
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("bad response body: %v", err)
	}
	if body.Count != 1 || len(body.Data) != 1 || body.Data[0].UserID != "u1" {
		t.Errorf("expected registry snapshot, got %+v", body)
	}

	refilled := readCache.snapshot()
	if len(refilled) != 1 || refilled[0].UserID != "u1" {
		t.Errorf("expected mirror repopulated from registry, got %+v", refilled)
	}
}

func TestGetActiveUsersFallsBackWhenCacheErrors(t *testing.T) {
	f, readCache, router := newHandlerFixture()
	readCache.failGet = true

	f.service.Register("sock-1", &RegisterEvent{UserID: "u1", Name: "Alice"})

	w := doGet(t, router, "/api/v1/users/active")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var body activeUsersResponse
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("bad response body: %v", err)
	}
	if body.Count != 1 || len(body.Data) != 1 || body.Data[0].UserID != "u1" {
		t.Errorf("expected registry snapshot despite cache error, got %+v", body)
	}
}

func TestGetUserPresenceWithLiveSession(t *testing.T) {
	f, _, router := newHandlerFixture()
	f.presence.records["u1"] = &models.PresenceRecord{
		ID:       "u1",
		Name:     "Alice",
		IsOnline: true,
		LastSeen: time.Now().UTC(),
		SocketID: "sock-1",
	}

	f.service.Register("sock-1", &RegisterEvent{UserID: "u1", Name: "Alice"})
	f.service.UpdateLocation("sock-1", locationEvent(t, `{"latitude":41.0082,"longitude":28.9784}`))

	w := doGet(t, router, "/api/v1/presence/u1")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var body struct {
		Success   bool                         `json:"success"`
		Connected bool                         `json:"connected"`
		Data      models.PresenceRecord        `json:"data"`
		Position  map[string]models.Coordinate `json:"position"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("bad response body: %v", err)
	}
	if !body.Connected {
		t.Error("expected connected user")
	}
	if body.Data.ID != "u1" || body.Data.Name != "Alice" {
		t.Errorf("unexpected presence record %+v", body.Data)
	}
	if body.Position["latitude"].Float64() != 41.0082 || body.Position["longitude"].Float64() != 28.9784 {
		t.Errorf("unexpected live position %+v", body.Position)
	}
}

func TestGetUserPresenceOfflineRecord(t *testing.T) {
	f, _, router := newHandlerFixture()
	f.presence.records["u2"] = &models.PresenceRecord{
		ID:       "u2",
		Name:     "Bob",
		IsOnline: false,
		LastSeen: time.Now().UTC(),
	}

	w := doGet(t, router, "/api/v1/presence/u2")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var body struct {
		Connected bool            `json:"connected"`
		Position  json.RawMessage `json:"position"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("bad response body: %v", err)
	}
	if body.Connected {
		t.Error("expected disconnected user")
	}
	if body.Position != nil {
		t.Errorf("expected no position for offline user, got %s", body.Position)
	}
}

func TestGetUserPresenceNotFound(t *testing.T) {
	_, _, router := newHandlerFixture()

	w := doGet(t, router, "/api/v1/presence/nobody")
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}
