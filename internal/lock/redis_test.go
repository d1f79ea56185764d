package lock

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Runs only when REDIS_ADDR points at a disposable Redis instance.
func TestRedisLockerExclusive(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { client.Close() })

	l := NewRedisLocker(client, 5*time.Second)
	key := "test:" + uuid.NewString()

	release, err := l.Lock(context.Background(), key)
	if err != nil {
		t.Fatalf("Lock returned error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	if _, err := l.Lock(ctx, key); err == nil {
		t.Fatalf("expected second Lock to time out while held")
	}

	release()
	again, err := l.Lock(context.Background(), key)
	if err != nil {
		t.Fatalf("expected lock to be free after release: %v", err)
	}
	again()
}
