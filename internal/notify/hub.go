package notify

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
)

const eventsChannel = "inbox-events"

// Event is pushed to a receiver's connected clients when a message lands
// for them. It carries just enough to show a "new mail" hint; the client
// fetches the message itself over the API.
type Event struct {
	MessageID  int64  `json:"message_id"`
	ReceiverID int64  `json:"receiver_id"`
	From       string `json:"from"`
	Subject    string `json:"subject"`
}

// Hub routes events to websocket clients, keyed by user id. Events go
// through Redis pub/sub so delivery works when the receiver is connected
// to another instance; with no Redis configured the hub delivers locally.
type Hub struct {
	clients    map[int64]map[*Client]bool
	broadcast  chan []byte // Redis -> clients
	register   chan *Client
	unregister chan *Client
	publish    chan Event // message service -> Redis
	redis      *redis.Client
}

func NewHub(redisClient *redis.Client) *Hub {
	return &Hub{
		clients:    make(map[int64]map[*Client]bool),
		broadcast:  make(chan []byte),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		publish:    make(chan Event, 256),
		redis:      redisClient,
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			if h.clients[client.userID] == nil {
				h.clients[client.userID] = make(map[*Client]bool)
			}
			h.clients[client.userID][client] = true

		case client := <-h.unregister:
			if set, ok := h.clients[client.userID]; ok {
				if _, ok := set[client]; ok {
					delete(set, client)
					close(client.send)
					if len(set) == 0 {
						delete(h.clients, client.userID)
					}
				}
			}

		case ev := <-h.publish:
			payload, err := json.Marshal(ev)
			if err != nil {
				continue
			}
			if h.redis != nil {
				h.redis.Publish(context.Background(), eventsChannel, payload)
			} else {
				h.deliver(ev.ReceiverID, payload)
			}

		case payload := <-h.broadcast:
			var ev Event
			if err := json.Unmarshal(payload, &ev); err != nil {
				continue
			}
			h.deliver(ev.ReceiverID, payload)
		}
	}
}

func (h *Hub) deliver(userID int64, payload []byte) {
	set := h.clients[userID]
	for client := range set {
		select {
		case client.send <- payload:
		default:
			close(client.send)
			delete(set, client)
		}
	}
}

// SubscribeToRedis listens for events published by other instances.
func (h *Hub) SubscribeToRedis() {
	if h.redis == nil {
		return
	}
	pubsub := h.redis.Subscribe(context.Background(), eventsChannel)
	for msg := range pubsub.Channel() {
		h.broadcast <- []byte(msg.Payload)
	}
}

// MessageSent implements the message service's Notifier. Best effort and
// non-blocking: a stalled hub never delays or fails a send.
func (h *Hub) MessageSent(messageID, receiverID int64, from, subject string) {
	ev := Event{
		MessageID:  messageID,
		ReceiverID: receiverID,
		From:       from,
		Subject:    subject,
	}
	select {
	case h.publish <- ev:
	default:
	}
}
