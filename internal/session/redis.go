package session

import (
    "context"
    "encoding/json"
    "strconv"
    "time"

    "github.com/redis/go-redis/v9"
    log "github.com/sirupsen/logrus"
)

// RedisStore keeps sessions as JSON values with a TTL, for deployments that
// run more than one bot process or want sessions to survive restarts.  The
// Store contract has no error channel, so Redis failures degrade to the
// default Idle session on reads and a logged warning on writes; a transient
// outage costs at worst one restarted conversation flow.
type RedisStore struct {
    client *redis.Client
    ttl    time.Duration
}

// NewRedisStore builds a RedisStore around an already-connected client.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
    return &RedisStore{client: client, ttl: ttl}
}

func (s *RedisStore) key(userID int64) string {
    return "session:" + strconv.FormatInt(userID, 10)
}

// Get returns the user's session, or a fresh Idle session when absent,
// expired or unreadable.
func (s *RedisStore) Get(userID int64) Session {
    ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
    defer cancel()
    raw, err := s.client.Get(ctx, s.key(userID)).Bytes()
    if err != nil {
        if err != redis.Nil {
            log.Warnf("session: redis get failed for user %d: %v", userID, err)
        }
        return Session{State: Idle, UpdatedAt: time.Now()}
    }
    var sess Session
    if err := json.Unmarshal(raw, &sess); err != nil {
        log.Warnf("session: corrupt session for user %d: %v", userID, err)
        return Session{State: Idle, UpdatedAt: time.Now()}
    }
    return sess
}

// Set stores the session under the user's key with the configured TTL.
func (s *RedisStore) Set(userID int64, sess Session) {
    sess.UpdatedAt = time.Now()
    raw, err := json.Marshal(sess)
    if err != nil {
        log.Warnf("session: marshal failed for user %d: %v", userID, err)
        return
    }
    ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
    defer cancel()
    if err := s.client.Set(ctx, s.key(userID), raw, s.ttl).Err(); err != nil {
        log.Warnf("session: redis set failed for user %d: %v", userID, err)
    }
}
