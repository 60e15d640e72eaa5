package message

import "context"

// Store owns the message rows and the lifecycle transitions on them.
// Implementations must make ListUnreadAndMarkRead and the unread branch of
// NextMessage atomic (the set returned is exactly the set marked read) and
// must run DeleteForUser as one critical section per message row.
type Store interface {
	// Insert creates a message in its initial state and returns its id.
	Insert(ctx context.Context, m *Message) (int64, error)

	// ListSent returns the user's sent, non-sender-deleted messages, id ascending.
	ListSent(ctx context.Context, userID int64) ([]Message, error)

	// ListRead returns the user's read, non-receiver-deleted messages, id ascending.
	ListRead(ctx context.Context, userID int64) ([]Message, error)

	// ListUnreadAndMarkRead returns the user's unread, non-receiver-deleted
	// messages and marks every returned message read. Calling it again
	// immediately returns an empty slice.
	ListUnreadAndMarkRead(ctx context.Context, userID int64) ([]Message, error)

	// NextMessage returns the oldest unread message (marking it read), or
	// failing that the newest read message (no side effect), or ErrNoMessage.
	// Receiver-deleted messages are never candidates.
	NextMessage(ctx context.Context, userID int64) (*Message, error)

	// DeleteForUser applies the per-role deletion policy: nil means a
	// deletion took effect this call, ErrNotDeleted means nothing changed
	// (unknown id, foreign message, or flag already set).
	DeleteForUser(ctx context.Context, messageID, userID int64) error
}
