package utils

import (
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const writeTimeout = 5 * time.Second

// Socket is the subset of a websocket connection the notifier writes to.
type Socket interface {
	SetWriteDeadline(t time.Time) error
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Client is one registered connection. Writes are serialised per connection.
type Client struct {
	UserID uuid.UUID
	mu     sync.Mutex
	sock   Socket
}

func (c *Client) write(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.sock.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.sock.WriteMessage(websocket.TextMessage, data)
}

// Notifier manages active WebSocket connections and sending notifications.
// A user may hold several connections at once (phone and tablet).
type Notifier struct {
	mu    sync.RWMutex
	conns map[uuid.UUID]map[*Client]struct{}
}

// DefaultNotifier is the package-level notifier instance.
var DefaultNotifier = NewNotifier()

// NewNotifier creates a new Notifier.
func NewNotifier() *Notifier {
	return &Notifier{
		conns: make(map[uuid.UUID]map[*Client]struct{}),
	}
}

// Register registers a websocket connection for a user.
func (n *Notifier) Register(userID uuid.UUID, sock Socket) *Client {
	cl := &Client{UserID: userID, sock: sock}

	n.mu.Lock()
	defer n.mu.Unlock()
	if _, ok := n.conns[userID]; !ok {
		n.conns[userID] = make(map[*Client]struct{})
	}
	n.conns[userID][cl] = struct{}{}
	log.Debug().Str("event", "ws_register").Str("user", userID.String()).Int("user_connections", len(n.conns[userID])).Msg("")
	return cl
}

// Unregister removes and closes one connection.
func (n *Notifier) Unregister(cl *Client) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.removeLocked(cl)
}

func (n *Notifier) removeLocked(cl *Client) {
	set, ok := n.conns[cl.UserID]
	if !ok {
		return
	}
	if _, ok := set[cl]; !ok {
		return
	}
	delete(set, cl)
	if len(set) == 0 {
		delete(n.conns, cl.UserID)
	}
	_ = cl.sock.Close()
	log.Debug().Str("event", "ws_unregister").Str("user", cl.UserID.String()).Msg("")
}

// Send sends a JSON-serializable payload to every connection of the user.
// Connections that fail to write are dropped.
func (n *Notifier) Send(userID uuid.UUID, payload interface{}) error {
	msg, err := json.Marshal(payload)
	if err != nil {
		log.Error().Str("event", "notify_error").Str("user", userID.String()).Err(err).Msg("")
		return err
	}
	return n.SendRaw(userID, msg)
}

// SendRaw sends pre-encoded bytes to every connection of the user.
func (n *Notifier) SendRaw(userID uuid.UUID, msg []byte) error {
	n.mu.RLock()
	set := n.conns[userID]
	clients := make([]*Client, 0, len(set))
	for cl := range set {
		clients = append(clients, cl)
	}
	n.mu.RUnlock()

	if len(clients) == 0 {
		return ErrNoConnection
	}

	var failed []*Client
	for _, cl := range clients {
		if err := cl.write(msg); err != nil {
			log.Warn().Str("event", "notify_error_write").Str("user", userID.String()).Err(err).Msg("")
			failed = append(failed, cl)
		}
	}

	if len(failed) > 0 {
		n.mu.Lock()
		for _, cl := range failed {
			n.removeLocked(cl)
		}
		n.mu.Unlock()
	}
	if len(failed) == len(clients) {
		return ErrNoConnection
	}

	log.Debug().Str("event", "notify_sent").Str("user", userID.String()).Int("payload_len", len(msg)).Msg("")
	return nil
}

// Online reports whether the user currently holds a connection.
func (n *Notifier) Online(userID uuid.UUID) bool {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.conns[userID]) > 0
}

// ActiveUserIDs returns a snapshot of currently connected user IDs.
func (n *Notifier) ActiveUserIDs() []uuid.UUID {
	n.mu.RLock()
	defer n.mu.RUnlock()
	out := make([]uuid.UUID, 0, len(n.conns))
	for id := range n.conns {
		out = append(out, id)
	}
	return out
}

// ErrNoConnection is returned when there is no websocket connection for the user.
var ErrNoConnection = errors.New("no websocket connection for user")
