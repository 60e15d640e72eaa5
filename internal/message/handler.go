package message

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"go-inbox/internal/middleware"
)

// NameResolver turns user ids back into usernames for display. Presentation
// only; the lifecycle engine never needs it.
type NameResolver interface {
	UsernameOf(ctx context.Context, id int64) (string, error)
}

type Handler struct {
	Service  *Service
	resolver NameResolver
}

func NewHandler(s *Service, resolver NameResolver) *Handler {
	return &Handler{Service: s, resolver: resolver}
}

type SendRequest struct {
	Receiver string `json:"receiver"`
	Subject  string `json:"subject"`
	Body     string `json:"body"`
}

// View is the wire shape of a message: ids resolved to usernames.
type View struct {
	ID        int64     `json:"id"`
	Sender    string    `json:"sender"`
	Receiver  string    `json:"receiver"`
	Subject   string    `json:"subject"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

func (h *Handler) render(ctx context.Context, m *Message) (*View, error) {
	sender, err := h.resolver.UsernameOf(ctx, m.SenderID)
	if err != nil {
		return nil, err
	}
	receiver, err := h.resolver.UsernameOf(ctx, m.ReceiverID)
	if err != nil {
		return nil, err
	}
	return &View{
		ID:        m.ID,
		Sender:    sender,
		Receiver:  receiver,
		Subject:   m.Subject,
		Body:      m.Body,
		CreatedAt: m.CreatedAt,
	}, nil
}

func (h *Handler) renderAll(ctx context.Context, messages []Message) ([]View, error) {
	views := make([]View, 0, len(messages))
	for i := range messages {
		v, err := h.render(ctx, &messages[i])
		if err != nil {
			return nil, err
		}
		views = append(views, *v)
	}
	return views, nil
}

func callerID(r *http.Request) (int64, string, bool) {
	id, ok := r.Context().Value(middleware.UserKey).(int64)
	name, ok2 := r.Context().Value(middleware.UsernameKey).(string)
	return id, name, ok && ok2
}

func (h *Handler) Send(w http.ResponseWriter, r *http.Request) {
	userID, username, ok := callerID(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req SendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	id, err := h.Service.Send(r.Context(), userID, username, req.Receiver, req.Subject, req.Body)
	if err != nil {
		switch {
		case errors.Is(err, ErrSenderNotRegistered),
			errors.Is(err, ErrReceiverNotRegistered),
			errors.Is(err, ErrValidation):
			writeJSON(w, http.StatusBadRequest, map[string]string{"message": err.Error()})
		default:
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{"id": id, "message": "message sent"})
}

func (h *Handler) Inbox(w http.ResponseWriter, r *http.Request) {
	userID, _, ok := callerID(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	inbox, err := h.Service.InboxSummary(r.Context(), userID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	sent, err := h.renderAll(r.Context(), inbox.Sent)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	read, err := h.renderAll(r.Context(), inbox.Read)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	unread, err := h.renderAll(r.Context(), inbox.Unread)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string][]View{
		"sent":   sent,
		"read":   read,
		"unread": unread,
	})
}

// Unread returns the unread sweep alone. Same contract as the unread
// bucket of Inbox: everything returned is marked read.
func (h *Handler) Unread(w http.ResponseWriter, r *http.Request) {
	userID, _, ok := callerID(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	unread, err := h.Service.ListUnreadAndMarkRead(r.Context(), userID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	views, err := h.renderAll(r.Context(), unread)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]View{"unread": views})
}

func (h *Handler) Next(w http.ResponseWriter, r *http.Request) {
	userID, _, ok := callerID(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	m, err := h.Service.NextMessage(r.Context(), userID)
	if err != nil {
		if errors.Is(err, ErrNoMessage) {
			writeJSON(w, http.StatusOK, map[string]string{"message": err.Error()})
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	view, err := h.render(r.Context(), m)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, _, ok := callerID(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid message id", http.StatusBadRequest)
		return
	}

	err = h.Service.DeleteForUser(r.Context(), id, userID)
	if err != nil {
		if errors.Is(err, ErrNotDeleted) {
			writeJSON(w, http.StatusOK, map[string]any{
				"deleted": false,
				"message": "message NOT deleted - this Id of a message doesn't exists",
			})
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"deleted": true,
		"message": "message deleted successfully",
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
