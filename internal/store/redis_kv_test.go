package store

import (
	"bytes"
	"context"
	"errors"
	"os"
	"slices"
	"testing"
	"time"

	"github.com/google/uuid"
)

type kvBackend interface {
	Put(ctx context.Context, key string, value []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, keys ...string) error
	Keys(ctx context.Context, prefix string) ([]string, error)
}

// checkKVContract runs the behavior every KV backend must share.
func checkKVContract(t *testing.T, kv kvBackend) {
	t.Helper()
	ctx := context.Background()

	if _, err := kv.Get(ctx, "s1:psy_report"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get(absent) error = %v, want ErrNotFound", err)
	}

	for _, k := range []string{"s1:psy_user_profile", "s1:psy_answers", "s2:psy_user_profile", "psy_custom_questions"} {
		if err := kv.Put(ctx, k, []byte(`{"k":"`+k+`"}`)); err != nil {
			t.Fatalf("Put(%s): %v", k, err)
		}
	}
	if err := kv.Put(ctx, "s1:psy_answers", []byte(`[]`)); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	got, err := kv.Get(ctx, "s1:psy_answers")
	if err != nil || !bytes.Equal(got, []byte(`[]`)) {
		t.Fatalf("Get after overwrite = %q, %v", got, err)
	}

	keys, err := kv.Keys(ctx, "s1:")
	if err != nil {
		t.Fatalf("Keys: %v", err)
	}
	if want := []string{"s1:psy_answers", "s1:psy_user_profile"}; !slices.Equal(keys, want) {
		t.Errorf("Keys(s1:) = %v, want %v", keys, want)
	}

	// Deleting absent keys is not an error.
	if err := kv.Delete(ctx, "s1:psy_user_profile", "s1:psy_answers", "s1:psy_report"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := kv.Delete(ctx); err != nil {
		t.Fatalf("Delete(): %v", err)
	}
	if _, err := kv.Get(ctx, "s1:psy_user_profile"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(deleted) error = %v, want ErrNotFound", err)
	}
	if _, err := kv.Get(ctx, "s2:psy_user_profile"); err != nil {
		t.Errorf("other session was touched: %v", err)
	}
}

func TestKV_Contract(t *testing.T) {
	checkKVContract(t, openTestStore(t).KV())
}

// redisTestAddr is an optional Redis server for integration tests, e.g.
// PSYCHOMETRIC_TEST_REDIS_ADDR=localhost:6379.
func redisTestAddr(t *testing.T) string {
	t.Helper()
	addr := os.Getenv("PSYCHOMETRIC_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("PSYCHOMETRIC_TEST_REDIS_ADDR not set")
	}
	return addr
}

func TestRedisKV_Contract(t *testing.T) {
	addr := redisTestAddr(t)
	ctx := context.Background()

	// A unique prefix keeps runs apart on a shared server.
	prefix := "psychometric-test:" + uuid.NewString() + ":"
	kv, err := NewRedisKV(ctx, addr, "", 0, prefix)
	if err != nil {
		t.Fatalf("NewRedisKV: %v", err)
	}
	t.Cleanup(func() {
		keys, _ := kv.Keys(context.Background(), "")
		_ = kv.Delete(context.Background(), keys...)
		kv.Close()
	})

	checkKVContract(t, kv)

	keys, err := kv.Keys(ctx, "")
	if err != nil {
		t.Fatalf("Keys: %v", err)
	}
	for _, k := range keys {
		if len(k) >= len(prefix) && k[:len(prefix)] == prefix {
			t.Errorf("Keys returned %q with the backend prefix still attached", k)
		}
	}
}

func TestNewRedisKV_Unreachable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	// Port 1 is reserved and never has a Redis listening.
	if _, err := NewRedisKV(ctx, "127.0.0.1:1", "", 0, "p:"); err == nil {
		t.Fatal("expected a connection error")
	}
}
