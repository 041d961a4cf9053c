package session

import (
    "sync"
    "time"
)

// MemoryStore keeps sessions in a plain map guarded by a RWMutex.  It is
// the default backend for single-instance deployments.  A janitor goroutine
// evicts sessions idle for longer than the TTL so the map does not grow
// with every user who ever messaged the bot.
type MemoryStore struct {
    mu       sync.RWMutex
    sessions map[int64]Session
    ttl      time.Duration
}

// NewMemoryStore builds a MemoryStore evicting sessions idle past ttl.  A
// non-positive ttl disables eviction.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
    s := &MemoryStore{
        sessions: make(map[int64]Session),
        ttl:      ttl,
    }
    if ttl > 0 {
        go s.janitor()
    }
    return s
}

// Get returns the user's session, or a fresh Idle session when absent or
// expired.  It never fails.
func (s *MemoryStore) Get(userID int64) Session {
    s.mu.RLock()
    sess, ok := s.sessions[userID]
    s.mu.RUnlock()
    if !ok || (s.ttl > 0 && time.Since(sess.UpdatedAt) > s.ttl) {
        return Session{State: Idle, UpdatedAt: time.Now()}
    }
    return sess
}

// Set stores the session, stamping it with the current time for eviction.
func (s *MemoryStore) Set(userID int64, sess Session) {
    sess.UpdatedAt = time.Now()
    s.mu.Lock()
    s.sessions[userID] = sess
    s.mu.Unlock()
}

func (s *MemoryStore) janitor() {
    interval := s.ttl / 2
    if interval < time.Minute {
        interval = time.Minute
    }
    for range time.Tick(interval) {
        cutoff := time.Now().Add(-s.ttl)
        s.mu.Lock()
        for id, sess := range s.sessions {
            if sess.UpdatedAt.Before(cutoff) {
                delete(s.sessions, id)
            }
        }
        s.mu.Unlock()
    }
}
