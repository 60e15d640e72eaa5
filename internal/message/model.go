package message

import (
	"errors"
	"time"
)

// Bounds on message content; anything longer is rejected, not truncated.
const (
	MaxSubjectLen = 500
	MaxBodyLen    = 500
)

var (
	ErrSenderNotRegistered   = errors.New("sender is not registered - message has not been sent, please register first")
	ErrReceiverNotRegistered = errors.New("receiver is not registered - message has not been sent")
	ErrNoMessage             = errors.New("there are no messages to show")
	ErrNotDeleted            = errors.New("message not deleted")
	ErrValidation            = errors.New("subject or body exceeds allowed length")
)

// Message is the stored record. SenderID and ReceiverID never change after
// creation; IsRead only ever goes false to true; once both deletion flags
// are true the row is gone and the id is never reused.
type Message struct {
	ID                int64     `json:"id"`
	SenderID          int64     `json:"sender_id"`
	ReceiverID        int64     `json:"receiver_id"`
	Subject           string    `json:"subject"`
	Body              string    `json:"body"`
	CreatedAt         time.Time `json:"created_at"`
	IsRead            bool      `json:"is_read"`
	DeletedBySender   bool      `json:"-"`
	DeletedByReceiver bool      `json:"-"`
}

// Inbox is the combined view of a user's messages. Unread holds the
// messages that were unread when the summary was taken; taking the
// summary marks them read.
type Inbox struct {
	Sent   []Message
	Read   []Message
	Unread []Message
}
