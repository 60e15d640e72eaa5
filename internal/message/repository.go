package message

import (
	"context"
	"database/sql"
	"errors"
	"sort"
)

// Repository is the Postgres-backed Store. The read-marking sweeps are
// single UPDATE ... RETURNING statements and the delete protocol locks the
// row, so every lifecycle transition is atomic per row without any
// process-level locking.
type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const messageColumns = "id, sender_id, receiver_id, subject, body, created_at, is_read, deleted_by_sender, deleted_by_receiver"

func scanMessage(row interface{ Scan(...any) error }, m *Message) error {
	return row.Scan(&m.ID, &m.SenderID, &m.ReceiverID, &m.Subject, &m.Body,
		&m.CreatedAt, &m.IsRead, &m.DeletedBySender, &m.DeletedByReceiver)
}

func collectMessages(rows *sql.Rows) ([]Message, error) {
	defer rows.Close()

	var messages []Message
	for rows.Next() {
		var m Message
		if err := scanMessage(rows, &m); err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

func (r *Repository) Insert(ctx context.Context, m *Message) (int64, error) {
	query := `
		INSERT INTO messages (sender_id, receiver_id, subject, body)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`
	err := r.db.QueryRowContext(ctx, query, m.SenderID, m.ReceiverID, m.Subject, m.Body).
		Scan(&m.ID, &m.CreatedAt)
	if err != nil {
		return 0, err
	}
	return m.ID, nil
}

func (r *Repository) ListSent(ctx context.Context, userID int64) ([]Message, error) {
	query := `
		SELECT ` + messageColumns + `
		FROM messages
		WHERE sender_id = $1 AND deleted_by_sender = FALSE
		ORDER BY id ASC
	`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	return collectMessages(rows)
}

func (r *Repository) ListRead(ctx context.Context, userID int64) ([]Message, error) {
	query := `
		SELECT ` + messageColumns + `
		FROM messages
		WHERE receiver_id = $1 AND is_read = TRUE AND deleted_by_receiver = FALSE
		ORDER BY id ASC
	`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	return collectMessages(rows)
}

func (r *Repository) ListUnreadAndMarkRead(ctx context.Context, userID int64) ([]Message, error) {
	// One statement: the set returned is exactly the set marked read. A
	// send landing after the statement starts is not swept in, and two
	// racing sweeps never return the same message twice.
	query := `
		UPDATE messages SET is_read = TRUE
		WHERE receiver_id = $1 AND is_read = FALSE AND deleted_by_receiver = FALSE
		RETURNING ` + messageColumns
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	messages, err := collectMessages(rows)
	if err != nil {
		return nil, err
	}
	// UPDATE ... RETURNING has no defined order.
	sort.Slice(messages, func(i, j int) bool { return messages[i].ID < messages[j].ID })
	return messages, nil
}

func (r *Repository) NextMessage(ctx context.Context, userID int64) (*Message, error) {
	// Oldest unread first. The outer is_read check makes the mark-read
	// race-safe: if a concurrent caller swept the candidate, this updates
	// nothing and falls through to the read branch.
	unreadQuery := `
		UPDATE messages SET is_read = TRUE
		WHERE is_read = FALSE AND id = (
			SELECT id FROM messages
			WHERE receiver_id = $1 AND is_read = FALSE AND deleted_by_receiver = FALSE
			ORDER BY id ASC
			LIMIT 1
		)
		RETURNING ` + messageColumns

	m := &Message{}
	err := scanMessage(r.db.QueryRowContext(ctx, unreadQuery, userID), m)
	if err == nil {
		return m, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	// No unread backlog: newest read message, no side effect.
	readQuery := `
		SELECT ` + messageColumns + `
		FROM messages
		WHERE receiver_id = $1 AND is_read = TRUE AND deleted_by_receiver = FALSE
		ORDER BY id DESC
		LIMIT 1
	`
	err = scanMessage(r.db.QueryRowContext(ctx, readQuery, userID), m)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoMessage
	}
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (r *Repository) DeleteForUser(ctx context.Context, messageID, userID int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var (
		senderID, receiverID           int64
		deletedBySender, deletedByRecv bool
	)
	// Row lock: the flag update and the both-true hard-delete check below
	// form one critical section against a concurrent delete by the other party.
	err = tx.QueryRowContext(ctx,
		`SELECT sender_id, receiver_id, deleted_by_sender, deleted_by_receiver
		 FROM messages WHERE id = $1 FOR UPDATE`, messageID).
		Scan(&senderID, &receiverID, &deletedBySender, &deletedByRecv)
	if errors.Is(err, sql.ErrNoRows) {
		// Unknown id looks the same as a foreign message: NotDeleted.
		return ErrNotDeleted
	}
	if err != nil {
		return err
	}

	// Self-addressed message: one delete call removes it outright.
	if senderID == receiverID && userID == senderID {
		if _, err := tx.ExecContext(ctx, `DELETE FROM messages WHERE id = $1`, messageID); err != nil {
			return err
		}
		return tx.Commit()
	}

	changed := false
	if userID == senderID && !deletedBySender {
		deletedBySender = true
		changed = true
	}
	if userID == receiverID && !deletedByRecv {
		deletedByRecv = true
		changed = true
	}
	if !changed {
		return ErrNotDeleted
	}

	if deletedBySender && deletedByRecv {
		if _, err := tx.ExecContext(ctx, `DELETE FROM messages WHERE id = $1`, messageID); err != nil {
			return err
		}
	} else {
		_, err := tx.ExecContext(ctx,
			`UPDATE messages SET deleted_by_sender = $2, deleted_by_receiver = $3 WHERE id = $1`,
			messageID, deletedBySender, deletedByRecv)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}
