package message

import (
	"context"
	"errors"

	"go-inbox/internal/user"
)

// Directory is what we need from the user service to validate the parties
// of a message. The interface keeps this package decoupled from it.
type Directory interface {
	ExistsID(ctx context.Context, id int64) (bool, error)
	IDOf(ctx context.Context, username string) (int64, error)
}

// Notifier receives a best-effort signal after a message lands. A nil
// notifier is allowed.
type Notifier interface {
	MessageSent(messageID, receiverID int64, from, subject string)
}

type Service struct {
	store     Store
	directory Directory
	notifier  Notifier
}

func NewService(store Store, directory Directory, notifier Notifier) *Service {
	return &Service{
		store:     store,
		directory: directory,
		notifier:  notifier,
	}
}

// Send validates both parties against the directory (sender first, so a
// request that is wrong on both sides reports the sender error) and creates
// the message in its initial unread state.
func (s *Service) Send(ctx context.Context, senderID int64, senderName, receiverName, subject, body string) (int64, error) {
	if len(subject) > MaxSubjectLen || len(body) > MaxBodyLen {
		return 0, ErrValidation
	}

	ok, err := s.directory.ExistsID(ctx, senderID)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, ErrSenderNotRegistered
	}

	receiverID, err := s.directory.IDOf(ctx, receiverName)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return 0, ErrReceiverNotRegistered
		}
		return 0, err
	}

	m := &Message{
		SenderID:   senderID,
		ReceiverID: receiverID,
		Subject:    subject,
		Body:       body,
	}
	id, err := s.store.Insert(ctx, m)
	if err != nil {
		return 0, err
	}

	if s.notifier != nil {
		s.notifier.MessageSent(id, receiverID, senderName, subject)
	}
	return id, nil
}

// InboxSummary gathers the read messages, then sweeps the unread ones
// (marking them read), then the sent ones. The read bucket is taken before
// the sweep, so a message surfaces as unread exactly once and shows up in
// the read bucket from the next summary on.
func (s *Service) InboxSummary(ctx context.Context, userID int64) (*Inbox, error) {
	read, err := s.store.ListRead(ctx, userID)
	if err != nil {
		return nil, err
	}
	unread, err := s.store.ListUnreadAndMarkRead(ctx, userID)
	if err != nil {
		return nil, err
	}
	sent, err := s.store.ListSent(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &Inbox{Sent: sent, Read: read, Unread: unread}, nil
}

func (s *Service) ListUnreadAndMarkRead(ctx context.Context, userID int64) ([]Message, error) {
	return s.store.ListUnreadAndMarkRead(ctx, userID)
}

func (s *Service) NextMessage(ctx context.Context, userID int64) (*Message, error) {
	return s.store.NextMessage(ctx, userID)
}

func (s *Service) DeleteForUser(ctx context.Context, messageID, userID int64) error {
	return s.store.DeleteForUser(ctx, messageID, userID)
}
