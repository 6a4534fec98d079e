package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"geopulse-relay-svc/src/internal/config"
	"geopulse-relay-svc/src/internal/models"

	"github.com/redis/go-redis/v9"
)

const testKey = "presence:active-users"

type fakeRedis struct {
	store  map[string]string
	setErr error
	getErr error
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{store: make(map[string]string)}
}

func (f *fakeRedis) Set(ctx context.Context, key string, value interface{}, _ time.Duration) *redis.StatusCmd {
	cmd := redis.NewStatusCmd(ctx)
	if f.setErr != nil {
		cmd.SetErr(f.setErr)
		return cmd
	}
	f.store[key] = string(value.([]byte))
	cmd.SetVal("OK")
	return cmd
}

func (f *fakeRedis) Get(ctx context.Context, key string) *redis.StringCmd {
	cmd := redis.NewStringCmd(ctx)
	if f.getErr != nil {
		cmd.SetErr(f.getErr)
		return cmd
	}
	value, ok := f.store[key]
	if !ok {
		cmd.SetErr(redis.Nil)
		return cmd
	}
	cmd.SetVal(value)
	return cmd
}

func newTestService(client redisCommands) Service {
	cfg := &config.Configuration{
		Cache: config.CacheConfig{
			ActiveUsersKey:               testKey,
			ActiveUsersExpirationMinutes: 5,
		},
	}
	return NewCacheService(client, cfg)
}

func TestSaveAndGetRoundTrip(t *testing.T) {
	client := newFakeRedis()
	svc := newTestService(client)
	ctx := context.Background()

	sessions := []models.Session{
		{SocketID: "sock-1", UserID: "u1", Name: "Alice", LastSeen: time.Now().UTC().Truncate(time.Second)},
		{SocketID: "sock-2", UserID: "u2", Name: "Bob", LastSeen: time.Now().UTC().Truncate(time.Second)},
	}

	if err := svc.SaveActiveUsers(ctx, sessions); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	got, err := svc.GetActiveUsers(ctx)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 sessions, got %d", len(got))
	}
	if got[0].UserID != "u1" || got[0].SocketID != "sock-1" || got[1].Name != "Bob" {
		t.Errorf("snapshot did not round-trip: %+v", got)
	}
}

func TestGetMissingSnapshotReturnsNil(t *testing.T) {
	svc := newTestService(newFakeRedis())

	got, err := svc.GetActiveUsers(context.Background())
	if err != nil {
		t.Fatalf("expected no error on cache miss, got %v", err)
	}
	if got != nil {
		t.Errorf("expected nil snapshot on miss, got %+v", got)
	}
}

func TestGetFailureReturnsSentinel(t *testing.T) {
	client := newFakeRedis()
	client.getErr = errors.New("connection refused")
	svc := newTestService(client)

	_, err := svc.GetActiveUsers(context.Background())
	if !errors.Is(err, models.ErrRedisGet) {
		t.Errorf("expected %v, got %v", models.ErrRedisGet, err)
	}
}

func TestSaveFailureReturnsSentinel(t *testing.T) {
	client := newFakeRedis()
	client.setErr = errors.New("connection refused")
	svc := newTestService(client)

	err := svc.SaveActiveUsers(context.Background(), []models.Session{{UserID: "u1"}})
	if !errors.Is(err, models.ErrRedisSet) {
		t.Errorf("expected %v, got %v", models.ErrRedisSet, err)
	}
}

func TestCorruptSnapshotRejected(t *testing.T) {
	client := newFakeRedis()
	client.store[testKey] = "{not json"
	svc := newTestService(client)

	_, err := svc.GetActiveUsers(context.Background())
	if !errors.Is(err, models.ErrRedisGet) {
		t.Errorf("expected %v, got %v", models.ErrRedisGet, err)
	}
}
