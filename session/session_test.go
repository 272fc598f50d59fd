package session

import (
	"context"
	"encoding/json"
	"reflect"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/cansoftinc/vaadin-on-kotlin/components/logging"
)

type cart struct {
	Items []string `json:"items"`
}

func TestSession_Attributes(t *testing.T) {
	s := New("s1")
	s.Set("b", 2)
	s.Set("a", "x")
	if v, ok := s.Get("a"); !ok || v != "x" {
		t.Errorf("Get(a) = %v, %v", v, ok)
	}
	if !reflect.DeepEqual(s.Keys(), []string{"a", "b"}) {
		t.Errorf("Keys() = %v", s.Keys())
	}
	s.Set("a", nil)
	if _, ok := s.Get("a"); ok {
		t.Error("Set(nil) should remove the attribute")
	}
	s.Remove("b")
	if len(s.Keys()) != 0 {
		t.Errorf("Keys() = %v after Remove", s.Keys())
	}
	if !s.Dirty() {
		t.Error("session should be dirty after changes")
	}
}

func TestAttribute_Typed(t *testing.T) {
	s := New("s1")
	visits := Key[int]("visits")
	if _, ok := visits.Get(s); ok {
		t.Error("absent attribute reported present")
	}
	visits.Set(s, 3)
	if v, ok := visits.Get(s); !ok || v != 3 {
		t.Errorf("Get() = %d, %v", v, ok)
	}
	if got := visits.Update(s, func(old int) int { return old + 1 }); got != 4 {
		t.Errorf("Update() = %d", got)
	}

	s.Set("visits", "not a number")
	if _, ok, err := visits.Lookup(s); ok || err == nil {
		t.Errorf("Lookup() on wrong type = %v, %v", ok, err)
	}
	visits.Remove(s)
	if _, ok := s.Get("visits"); ok {
		t.Error("Remove() left the attribute")
	}
}

func TestAttribute_DecodesRawOnce(t *testing.T) {
	s := restore("s1", time.Now(), map[string]json.RawMessage{"cart": json.RawMessage(`{"items":["a","b"]}`)})
	if v, _ := s.Get("cart"); reflect.TypeOf(v) != reflect.TypeOf(json.RawMessage(nil)) {
		t.Errorf("undecoded value = %T, want json.RawMessage", v)
	}
	c, ok := Key[*cart]("cart").Get(s)
	if !ok || !reflect.DeepEqual(c.Items, []string{"a", "b"}) {
		t.Fatalf("Get() = %+v, %v", c, ok)
	}
	c2, _ := Key[*cart]("cart").Get(s)
	if c != c2 {
		t.Error("decoded value should be cached")
	}
	if s.Dirty() {
		t.Error("decoding alone must not dirty the session")
	}
}

func TestScoped_OncePerSession(t *testing.T) {
	var created atomic.Int32
	scoped := NewScoped("cart", func() *cart {
		created.Add(1)
		return &cart{}
	})

	s := New("s1")
	var wg sync.WaitGroup
	results := make([]*cart, 16)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = scoped.Get(s)
		}()
	}
	wg.Wait()
	if created.Load() != 1 {
		t.Fatalf("factory called %d times, want 1", created.Load())
	}
	for _, r := range results {
		if r != results[0] {
			t.Fatal("Scoped.Get returned different instances in one session")
		}
	}

	other := New("s2")
	if scoped.Get(other) == results[0] {
		t.Error("sessions must not share scoped instances")
	}
	scoped.Reset(s)
	if scoped.Get(s) == results[0] {
		t.Error("Reset should force a new instance")
	}
	if created.Load() != 3 {
		t.Errorf("factory called %d times, want 3", created.Load())
	}
}

func TestScoped_DoSerializesMutation(t *testing.T) {
	scoped := NewScoped("cart", func() *cart { return &cart{} })
	s := New("s1")
	s.markClean()

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			scoped.Do(s, func(c *cart) { c.Items = append(c.Items, "x") })
		}()
		go func() {
			defer wg.Done()
			if _, err := s.encode(); err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()
	if n := len(scoped.Get(s).Items); n != 32 {
		t.Errorf("items = %d, want 32", n)
	}
	if !s.Dirty() {
		t.Error("Do should mark the session dirty")
	}
}

func TestAttribute_GetMismatchIsQuiet(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	l := logging.NewZapBacked(zap.New(core))
	logging.SetGlobalLogger(l)
	t.Cleanup(func() { logging.ResetGlobalLogger(l) })

	s := New("s1")
	s.Set("visits", "many")
	if _, ok := Key[int]("visits").Get(s); ok {
		t.Error("mismatched type should read as absent")
	}
	if _, _, err := Key[int]("visits").Lookup(s); err == nil {
		t.Error("Lookup should report the mismatch")
	}
	if logs.Len() != 0 {
		t.Errorf("Get logged %d entries, want none", logs.Len())
	}
}

func TestSession_Invalidate(t *testing.T) {
	s := New("s1")
	s.Set("a", 1)
	s.Invalidate()
	if !s.Invalidated() || len(s.Keys()) != 0 {
		t.Error("Invalidate should clear attributes")
	}
}

func TestFromContext(t *testing.T) {
	if _, ok := FromContext(context.Background()); ok {
		t.Error("empty context has no session")
	}
	s := New("s1")
	got, ok := FromContext(NewContext(context.Background(), s))
	if !ok || got != s {
		t.Error("FromContext should return the stored session")
	}
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	m := NewMemoryStore(time.Minute)
	m.now = func() time.Time { return now }

	a, b := New("a"), New("b")
	_ = m.Save(ctx, a)
	now = now.Add(30 * time.Second)
	_ = m.Save(ctx, b)

	if got, _ := m.Load(ctx, "a"); got != a {
		t.Error("Load(a) should return the saved session")
	}
	if got, _ := m.Load(ctx, "missing"); got != nil {
		t.Error("Load(missing) should be nil")
	}

	now = now.Add(45 * time.Second) // a expired, b alive
	n, err := m.Purge(ctx)
	if err != nil || n != 1 {
		t.Errorf("Purge() = %d, %v, want 1", n, err)
	}
	if m.Len() != 1 {
		t.Errorf("Len() = %d", m.Len())
	}

	now = now.Add(time.Minute)
	if got, _ := m.Load(ctx, "b"); got != nil {
		t.Error("expired session should not load")
	}

	c := New("c")
	_ = m.Save(ctx, c)
	c.Invalidate()
	_ = m.Save(ctx, c)
	if got, _ := m.Load(ctx, "c"); got != nil {
		t.Error("invalidated session should be deleted on save")
	}
}
