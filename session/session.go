// Package session keeps per-user attributes across requests. A Session is
// created by the session component's HTTP middleware and found in the request
// context with FromContext. Values are typed through Attribute and Scoped.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"
)

// Session is one user's attribute map. All methods are safe for concurrent
// use; a factory passed to Scoped runs with the session locked and must not
// call back into the same session.
type Session struct {
	id      string
	created time.Time

	mu          sync.Mutex
	attrs       map[string]any
	raw         map[string]json.RawMessage // loaded from a store, decoded on first typed access
	dirty       bool
	invalidated bool
}

func New(id string) *Session {
	return &Session{id: id, created: time.Now(), attrs: map[string]any{}, raw: map[string]json.RawMessage{}}
}

// restore rebuilds a session from encoded attributes.
func restore(id string, created time.Time, raw map[string]json.RawMessage) *Session {
	s := New(id)
	s.created = created
	maps.Copy(s.raw, raw)
	return s
}

func (s *Session) ID() string { return s.id }

func (s *Session) CreatedAt() time.Time { return s.created }

// Get returns the attribute stored under key. A value loaded from a remote
// store that no typed accessor has read yet is returned as json.RawMessage.
func (s *Session) Get(key string) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.attrs[key]; ok {
		return v, true
	}
	if r, ok := s.raw[key]; ok {
		return r, true
	}
	return nil, false
}

// Set stores value under key; a nil value removes the attribute.
func (s *Session) Set(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setLocked(key, value)
}

func (s *Session) setLocked(key string, value any) {
	delete(s.raw, key)
	if value == nil {
		delete(s.attrs, key)
	} else {
		s.attrs[key] = value
	}
	s.dirty = true
}

func (s *Session) Remove(key string) {
	s.Set(key, nil)
}

// Keys lists attribute names in sorted order.
func (s *Session) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := slices.Collect(maps.Keys(s.attrs))
	for k := range s.raw {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Invalidate drops every attribute; the store deletes the session on save and
// the next request starts a new one.
func (s *Session) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.attrs)
	clear(s.raw)
	s.invalidated = true
	s.dirty = true
}

func (s *Session) Invalidated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.invalidated
}

// Dirty reports whether attributes changed since the session was loaded or saved.
func (s *Session) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirty
}

func (s *Session) markClean() {
	s.mu.Lock()
	s.dirty = false
	s.mu.Unlock()
}

// lookup returns the value under key decoded as T. A raw value is decoded and
// cached in place.
func lookup[T any](s *Session, key string) (T, bool, error) {
	var zero T
	if v, ok := s.attrs[key]; ok {
		t, ok := v.(T)
		if !ok {
			return zero, false, fmt.Errorf("session: attribute %q holds %T", key, v)
		}
		return t, true, nil
	}
	r, ok := s.raw[key]
	if !ok {
		return zero, false, nil
	}
	var t T
	if err := json.Unmarshal(r, &t); err != nil {
		return zero, false, fmt.Errorf("session: decode attribute %q: %w", key, err)
	}
	delete(s.raw, key)
	s.attrs[key] = t
	return t, true, nil
}

// encode serializes every attribute for a remote store.
func (s *Session) encode() (map[string]json.RawMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]json.RawMessage, len(s.attrs)+len(s.raw))
	maps.Copy(out, s.raw)
	for k, v := range s.attrs {
		b, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("session: encode attribute %q: %w", k, err)
		}
		out[k] = b
	}
	return out, nil
}

type ctxKey struct{}

func NewContext(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// FromContext returns the session of the current request.
func FromContext(ctx context.Context) (*Session, bool) {
	s, ok := ctx.Value(ctxKey{}).(*Session)
	return s, ok && s != nil
}
