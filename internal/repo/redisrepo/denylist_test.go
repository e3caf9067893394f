package redisrepo

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/geocoder89/taskhub/internal/redisclient"
	"github.com/google/uuid"
)

func testDenylist(t *testing.T) *Denylist {
	t.Helper()

	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set; skipping redis integration test")
	}

	c, err := redisclient.Connect(context.Background(), redisclient.Config{Addr: addr})
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })

	return NewDenylist(c.Raw())
}

func TestDenylist_Integration(t *testing.T) {
	d := testDenylist(t)
	ctx := context.Background()

	jti := uuid.NewString()

	revoked, err := d.IsRevoked(ctx, jti)
	if err != nil || revoked {
		t.Fatalf("fresh jti: revoked=%v err=%v", revoked, err)
	}

	if err := d.Revoke(ctx, jti, time.Now().Add(time.Minute)); err != nil {
		t.Fatalf("Revoke: %v", err)
	}

	revoked, err = d.IsRevoked(ctx, jti)
	if err != nil || !revoked {
		t.Fatalf("after revoke: revoked=%v err=%v", revoked, err)
	}

	ttl, err := d.client.TTL(ctx, revokedKey(jti)).Result()
	if err != nil || ttl <= 0 || ttl > time.Minute {
		t.Fatalf("expected key ttl within a minute, got %v err=%v", ttl, err)
	}
}

func TestDenylist_ExpiredTokenNotStored(t *testing.T) {
	d := testDenylist(t)
	ctx := context.Background()

	jti := uuid.NewString()
	if err := d.Revoke(ctx, jti, time.Now().Add(-time.Second)); err != nil {
		t.Fatalf("Revoke: %v", err)
	}

	revoked, err := d.IsRevoked(ctx, jti)
	if err != nil || revoked {
		t.Fatalf("expired jti should not be stored: revoked=%v err=%v", revoked, err)
	}
}
