package message

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore keeps the message table in process memory behind one mutex,
// so every operation is a single critical section. Ids are assigned from a
// counter that never resets; a hard-deleted id is never reused.
type MemoryStore struct {
	mu       sync.Mutex
	messages map[int64]*Message
	nextID   int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{messages: make(map[int64]*Message)}
}

func (s *MemoryStore) Insert(_ context.Context, m *Message) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	stored := &Message{
		ID:         s.nextID,
		SenderID:   m.SenderID,
		ReceiverID: m.ReceiverID,
		Subject:    m.Subject,
		Body:       m.Body,
		CreatedAt:  time.Now(),
	}
	s.messages[stored.ID] = stored
	m.ID = stored.ID
	m.CreatedAt = stored.CreatedAt
	return stored.ID, nil
}

// collect copies out the matching messages in ascending id order.
func (s *MemoryStore) collect(match func(*Message) bool) []Message {
	var result []Message
	for _, m := range s.messages {
		if match(m) {
			result = append(result, *m)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

func (s *MemoryStore) ListSent(_ context.Context, userID int64) ([]Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.collect(func(m *Message) bool {
		return m.SenderID == userID && !m.DeletedBySender
	}), nil
}

func (s *MemoryStore) ListRead(_ context.Context, userID int64) ([]Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.collect(func(m *Message) bool {
		return m.ReceiverID == userID && m.IsRead && !m.DeletedByReceiver
	}), nil
}

func (s *MemoryStore) ListUnreadAndMarkRead(_ context.Context, userID int64) ([]Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	result := s.collect(func(m *Message) bool {
		return m.ReceiverID == userID && !m.IsRead && !m.DeletedByReceiver
	})
	// Returned records carry the post-transition state, as the SQL
	// UPDATE ... RETURNING does.
	for i := range result {
		s.messages[result[i].ID].IsRead = true
		result[i].IsRead = true
	}
	return result, nil
}

func (s *MemoryStore) NextMessage(_ context.Context, userID int64) (*Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	unread := s.collect(func(m *Message) bool {
		return m.ReceiverID == userID && !m.IsRead && !m.DeletedByReceiver
	})
	if len(unread) > 0 {
		oldest := unread[0]
		s.messages[oldest.ID].IsRead = true
		oldest.IsRead = true
		return &oldest, nil
	}

	read := s.collect(func(m *Message) bool {
		return m.ReceiverID == userID && m.IsRead && !m.DeletedByReceiver
	})
	if len(read) > 0 {
		newest := read[len(read)-1]
		return &newest, nil
	}

	return nil, ErrNoMessage
}

func (s *MemoryStore) DeleteForUser(_ context.Context, messageID, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.messages[messageID]
	if !ok {
		return ErrNotDeleted
	}

	if m.SenderID == m.ReceiverID && userID == m.SenderID {
		delete(s.messages, messageID)
		return nil
	}

	changed := false
	if userID == m.SenderID && !m.DeletedBySender {
		m.DeletedBySender = true
		changed = true
	}
	if userID == m.ReceiverID && !m.DeletedByReceiver {
		m.DeletedByReceiver = true
		changed = true
	}
	if !changed {
		return ErrNotDeleted
	}

	if m.DeletedBySender && m.DeletedByReceiver {
		delete(s.messages, messageID)
	}
	return nil
}
