package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const defaultSessionTTL = 2 * time.Hour

// Message is one entry of a visitor's chat session.
type Message struct {
	Role      string    `json:"role"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// HistoryStore holds ephemeral session transcripts. Load returns an empty
// history for unknown or expired sessions.
type HistoryStore interface {
	Load(ctx context.Context, sessionID string) ([]Message, error)
	Save(ctx context.Context, sessionID string, history []Message) error
}

// MemoryHistoryStore keeps sessions in process with a TTL.
type MemoryHistoryStore struct {
	mu       sync.Mutex
	ttl      time.Duration
	now      func() time.Time
	sessions map[string]memorySession
}

type memorySession struct {
	history []Message
	expires time.Time
}

func NewMemoryHistoryStore(ttl time.Duration) *MemoryHistoryStore {
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	return &MemoryHistoryStore{
		ttl:      ttl,
		now:      time.Now,
		sessions: make(map[string]memorySession),
	}
}

func (s *MemoryHistoryStore) Load(ctx context.Context, sessionID string) ([]Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return nil, nil
	}
	if s.now().After(sess.expires) {
		delete(s.sessions, sessionID)
		return nil, nil
	}
	return append([]Message(nil), sess.history...), nil
}

func (s *MemoryHistoryStore) Save(ctx context.Context, sessionID string, history []Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for id, sess := range s.sessions {
		if now.After(sess.expires) {
			delete(s.sessions, id)
		}
	}
	s.sessions[sessionID] = memorySession{
		history: append([]Message(nil), history...),
		expires: now.Add(s.ttl),
	}
	return nil
}

// RedisHistoryStore persists sessions as JSON blobs with a TTL.
type RedisHistoryStore struct {
	redis  *redis.Client
	ttl    time.Duration
	tracer trace.Tracer
}

func NewRedisHistoryStore(client *redis.Client, ttl time.Duration, tracer trace.Tracer) *RedisHistoryStore {
	if client == nil {
		panic("chat: redis client cannot be nil")
	}
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	if tracer == nil {
		tracer = otel.Tracer("contractor.internal.chat.history")
	}
	return &RedisHistoryStore{redis: client, ttl: ttl, tracer: tracer}
}

func (s *RedisHistoryStore) Save(ctx context.Context, sessionID string, history []Message) error {
	ctx, span := s.tracer.Start(ctx, "chat.save_history")
	defer span.End()

	data, err := json.Marshal(history)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("chat: failed to marshal history: %w", err)
	}
	if err := s.redis.Set(ctx, sessionKey(sessionID), data, s.ttl).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("chat: failed to persist history: %w", err)
	}
	return nil
}

func (s *RedisHistoryStore) Load(ctx context.Context, sessionID string) ([]Message, error) {
	ctx, span := s.tracer.Start(ctx, "chat.load_history")
	defer span.End()

	data, err := s.redis.Get(ctx, sessionKey(sessionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("chat: failed to load history: %w", err)
	}

	var history []Message
	if err := json.Unmarshal(data, &history); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("chat: failed to decode history: %w", err)
	}
	return history, nil
}

func sessionKey(id string) string {
	return fmt.Sprintf("chat_session:%s", id)
}
