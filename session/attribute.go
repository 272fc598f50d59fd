package session

// Attribute is a typed view of one session key.
type Attribute[T any] struct {
	Key string
}

func Key[T any](key string) Attribute[T] {
	return Attribute[T]{Key: key}
}

// Get returns the value and whether it was present. A value of another type,
// or one that cannot be decoded as T, is reported as absent; use Lookup to
// see why.
func (a Attribute[T]) Get(s *Session) (T, bool) {
	v, ok, _ := a.Lookup(s)
	return v, ok
}

// Lookup is Get with the type or decoding error.
func (a Attribute[T]) Lookup(s *Session) (T, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return lookup[T](s, a.Key)
}

func (a Attribute[T]) Set(s *Session, value T) {
	s.Set(a.Key, value)
}

func (a Attribute[T]) Remove(s *Session) {
	s.Remove(a.Key)
}

// Update applies fn to the current value (the zero value when absent) and
// stores the result while holding the session lock.
func (a Attribute[T]) Update(s *Session, fn func(old T) T) T {
	s.mu.Lock()
	defer s.mu.Unlock()
	old, _, _ := lookup[T](s, a.Key)
	v := fn(old)
	s.setLocked(a.Key, v)
	return v
}

// Scoped is a per-session singleton: the first Get in a session creates the
// value with the factory, later calls return the stored one.
type Scoped[T any] struct {
	key     string
	factory func() T
}

func NewScoped[T any](key string, factory func() T) Scoped[T] {
	return Scoped[T]{key: key, factory: factory}
}

func (sc Scoped[T]) Key() string { return sc.key }

// Get returns the session's instance. A pointer value is shared by every
// request of the session; mutate it through Do.
func (sc Scoped[T]) Get(s *Session) T {
	s.mu.Lock()
	defer s.mu.Unlock()
	return sc.getLocked(s)
}

// Do runs fn on the session's instance under the session lock and marks the
// session dirty.
func (sc Scoped[T]) Do(s *Session, fn func(v T)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(sc.getLocked(s))
	s.dirty = true
}

func (sc Scoped[T]) getLocked(s *Session) T {
	if v, ok, err := lookup[T](s, sc.key); err == nil && ok {
		return v
	}
	v := sc.factory()
	s.setLocked(sc.key, v)
	return v
}

// Reset removes the instance so the next Get creates a fresh one.
func (sc Scoped[T]) Reset(s *Session) {
	s.Remove(sc.key)
}
