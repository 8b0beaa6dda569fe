package bootstrap

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"github.com/wolfman30/contractor-leads/internal/chat"
	appconfig "github.com/wolfman30/contractor-leads/internal/config"
	"github.com/wolfman30/contractor-leads/internal/dashboard"
	"github.com/wolfman30/contractor-leads/internal/leads"
	"github.com/wolfman30/contractor-leads/pkg/logging"
)

func TestBuildRedisClientDisabledWithoutAddr(t *testing.T) {
	if client := BuildRedisClient(context.Background(), &appconfig.Config{}, nil, true); client != nil {
		t.Fatalf("expected nil client without REDIS_ADDR")
	}
	if client := BuildRedisClient(context.Background(), nil, nil, true); client != nil {
		t.Fatalf("expected nil client for nil config")
	}
}

func TestBuildRedisClientVerifiesPing(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := &appconfig.Config{RedisAddr: mr.Addr()}

	client := BuildRedisClient(context.Background(), cfg, logging.New("error"), true)
	if client == nil {
		t.Fatalf("expected client for reachable redis")
	}
	defer client.Close()

	store := BuildHistoryStore(client, time.Hour)
	if _, ok := store.(*chat.RedisHistoryStore); !ok {
		t.Fatalf("expected redis history store, got %T", store)
	}
	if err := store.Save(context.Background(), "s1", []chat.Message{{Role: chat.RoleUser, Text: "hi"}}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if !mr.Exists("chat_session:s1") {
		t.Fatalf("expected history key in redis")
	}
}

func TestBuildRedisClientUnreachableReturnsNil(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	cfg := &appconfig.Config{RedisAddr: addr}
	if client := BuildRedisClient(context.Background(), cfg, logging.New("error"), true); client != nil {
		t.Fatalf("expected nil client when ping fails")
	}
}

func TestBuildHistoryStoreFallsBackToMemory(t *testing.T) {
	if _, ok := BuildHistoryStore(nil, time.Minute).(*chat.MemoryHistoryStore); !ok {
		t.Fatalf("expected in-memory history store")
	}
}

func TestConnectPostgresPoolEmptyURLReturnsNil(t *testing.T) {
	pool, err := ConnectPostgresPool(context.Background(), "  ", logging.New("error"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pool != nil {
		t.Fatalf("expected nil pool for empty URL")
	}
}

func TestBuildStoresWithoutPoolUsesMemory(t *testing.T) {
	stores := BuildStores(nil, nil)
	if _, ok := stores.Leads.(*leads.InMemoryRepository); !ok {
		t.Fatalf("expected in-memory lead repository, got %T", stores.Leads)
	}
	if _, ok := stores.Profiles.(*dashboard.MemoryProfileStore); !ok {
		t.Fatalf("expected in-memory profile store, got %T", stores.Profiles)
	}
}
