package session

import (
	"context"
	"reflect"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/cansoftinc/vaadin-on-kotlin/internal/testenv"
)

func TestRedisStore(t *testing.T) {
	addr := testenv.Redis(t)
	client := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { _ = client.Close() })
	ctx := context.Background()
	store := NewRedisStore(client, "test:session:", time.Minute)

	s := New("abc")
	Key[int]("visits").Set(s, 7)
	NewScoped("cart", func() *cart { return &cart{Items: []string{"apple"}} }).Get(s)
	if err := store.Save(ctx, s); err != nil {
		t.Fatal(err)
	}
	if ttl := client.TTL(ctx, "test:session:abc").Val(); ttl <= 0 || ttl > time.Minute {
		t.Errorf("TTL = %s", ttl)
	}

	loaded, err := store.Load(ctx, "abc")
	if err != nil || loaded == nil {
		t.Fatalf("Load() = %v, %v", loaded, err)
	}
	if !reflect.DeepEqual(loaded.Keys(), []string{"cart", "visits"}) {
		t.Errorf("Keys() = %v", loaded.Keys())
	}
	if v, ok := Key[int]("visits").Get(loaded); !ok || v != 7 {
		t.Errorf("visits = %d, %v", v, ok)
	}
	c := NewScoped("cart", func() *cart { return &cart{} }).Get(loaded)
	if !reflect.DeepEqual(c.Items, []string{"apple"}) {
		t.Errorf("cart = %+v", c)
	}
	if loaded.CreatedAt().UnixMilli() != s.CreatedAt().UnixMilli() {
		t.Error("creation time not preserved")
	}

	// an empty session still exists
	empty := New("empty")
	if err := store.Save(ctx, empty); err != nil {
		t.Fatal(err)
	}
	if got, _ := store.Load(ctx, "empty"); got == nil {
		t.Error("empty session should load")
	}

	loaded.Invalidate()
	if err := store.Save(ctx, loaded); err != nil {
		t.Fatal(err)
	}
	if got, err := store.Load(ctx, "abc"); err != nil || got != nil {
		t.Errorf("Load() after invalidate = %v, %v", got, err)
	}
}
