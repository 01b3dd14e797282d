package service

import (
	"context"
	"sync"
	"time"
)

// Turn is one message in a conversation.
type Turn struct {
	Role    string    `json:"role"` // "user" or "assistant"
	Content string    `json:"content"`
	At      time.Time `json:"at"`
}

// ConversationStore keeps prior turns by conversation id so follow-up
// questions carry context. The query service depends only on this
// interface; any keyed store can back it.
type ConversationStore interface {
	History(ctx context.Context, conversationID string) ([]Turn, error)
	Append(ctx context.Context, conversationID string, turns ...Turn) error
	Expire(ctx context.Context, conversationID string) error
}

// MemoryConversationStore is a TTL'd in-memory ConversationStore.
type MemoryConversationStore struct {
	mu    sync.RWMutex
	ttl   time.Duration
	convs map[string]*conversation

	// now is injectable for tests.
	now func() time.Time
}

type conversation struct {
	turns   []Turn
	touched time.Time
}

// NewMemoryConversationStore creates an in-memory store whose
// conversations expire after ttl of inactivity.
func NewMemoryConversationStore(ttl time.Duration) *MemoryConversationStore {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &MemoryConversationStore{
		ttl:   ttl,
		convs: make(map[string]*conversation),
		now:   time.Now,
	}
}

// History returns the turns of a conversation, oldest first. An
// expired or unknown conversation yields no turns.
func (s *MemoryConversationStore) History(_ context.Context, conversationID string) ([]Turn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	conv, ok := s.convs[conversationID]
	if !ok || s.now().Sub(conv.touched) > s.ttl {
		return nil, nil
	}

	turns := make([]Turn, len(conv.turns))
	copy(turns, conv.turns)
	return turns, nil
}

// Append adds turns to a conversation, resetting its expiry.
func (s *MemoryConversationStore) Append(_ context.Context, conversationID string, turns ...Turn) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, ok := s.convs[conversationID]
	if !ok || s.now().Sub(conv.touched) > s.ttl {
		conv = &conversation{}
		s.convs[conversationID] = conv
	}
	conv.turns = append(conv.turns, turns...)
	conv.touched = s.now()
	return nil
}

// Expire removes a conversation.
func (s *MemoryConversationStore) Expire(_ context.Context, conversationID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.convs, conversationID)
	return nil
}
