package inspect

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/vango-dev/elements/pkg/definition"
	"github.com/vango-dev/elements/pkg/dom"
	"github.com/vango-dev/elements/pkg/reactions"
	"github.com/vango-dev/elements/pkg/registry"
)

// EventType identifies a registry or reaction event.
type EventType string

const (
	EventDefined      EventType = "defined"
	EventDefineFailed EventType = "define-failed"
	EventUpgraded     EventType = "upgraded"
	EventCallback     EventType = "callback"
	EventSwept        EventType = "swept"
)

// Event is sent to websocket clients.
type Event struct {
	ID         string    `json:"id"`
	Type       EventType `json:"type"`
	Time       time.Time `json:"time"`
	Name       string    `json:"name,omitempty"`
	LocalName  string    `json:"localName,omitempty"`
	Element    string    `json:"element,omitempty"`
	State      string    `json:"state,omitempty"`
	Callback   string    `json:"callback,omitempty"`
	Kind       string    `json:"kind,omitempty"`
	Count      int       `json:"count,omitempty"`
	Error      string    `json:"error,omitempty"`
	Definition string    `json:"definition,omitempty"`
}

// clientBuffer is the number of events queued per client before it is
// dropped as too slow.
const clientBuffer = 64

type client struct {
	id   string
	conn *websocket.Conn
	send chan []byte
}

// Hub fans registry and reaction events out to websocket clients. It
// implements registry.Observer and reactions.Observer; observer methods
// run on the realm's loop and never block on the network.
type Hub struct {
	clients  map[*client]struct{}
	mu       sync.RWMutex
	upgrader websocket.Upgrader
	logger   *slog.Logger
	now      func() time.Time
}

var (
	_ registry.Observer  = (*Hub)(nil)
	_ reactions.Observer = (*Hub)(nil)
)

// NewHub creates an event hub.
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		clients: make(map[*client]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(*http.Request) bool {
				return true
			},
		},
		logger: logger.With("component", "inspect.events"),
		now:    time.Now,
	}
}

// HandleWebSocket upgrades the request and streams events until the
// client disconnects.
func (h *Hub) HandleWebSocket(w http.ResponseWriter, req *http.Request) {
	conn, err := h.upgrader.Upgrade(w, req, nil)
	if err != nil {
		h.logger.Debug("websocket upgrade failed", "error", err)
		return
	}

	c := &client{id: uuid.NewString(), conn: conn, send: make(chan []byte, clientBuffer)}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	h.logger.Debug("events client connected", "client", c.id, "remote", conn.RemoteAddr().String())

	go h.writePump(c)

	// Clients never send; reading only detects the close.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	h.remove(c)
}

func (h *Hub) writePump(c *client) {
	for data := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			h.remove(c)
			return
		}
	}
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
	c.conn.Close()
}

// Publish sends ev to every connected client.
func (h *Hub) Publish(ev Event) {
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	if ev.Time.IsZero() {
		ev.Time = h.now()
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}

	var slow []*client
	h.mu.RLock()
	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		h.logger.Warn("dropping slow events client", "client", c.id, "remote", c.conn.RemoteAddr().String())
		h.remove(c)
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close closes all client connections.
func (h *Hub) Close() {
	h.mu.Lock()
	clients := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()
	for _, c := range clients {
		h.remove(c)
	}
}

// Defined implements registry.Observer.
func (h *Hub) Defined(def *definition.Definition, candidates int) {
	h.Publish(Event{Type: EventDefined, Name: def.Name(), LocalName: def.LocalName(), Count: candidates})
}

// DefineFailed implements registry.Observer.
func (h *Hub) DefineFailed(name string, err *registry.DefinitionError) {
	h.Publish(Event{Type: EventDefineFailed, Name: name, Kind: err.Kind.String(), Error: err.Error()})
}

// UpgradeSwept implements registry.Observer.
func (h *Hub) UpgradeSwept(root *dom.Node, elements int) {
	h.Publish(Event{Type: EventSwept, Element: root.String(), Count: elements})
}

// ElementUpgraded implements reactions.Observer.
func (h *Hub) ElementUpgraded(el *dom.Node, def *definition.Definition, err error) {
	ev := Event{Type: EventUpgraded, Element: el.String(), State: el.State().String(), Definition: def.Name()}
	if err != nil {
		ev.Error = err.Error()
	}
	h.Publish(ev)
}

// CallbackInvoked implements reactions.Observer.
func (h *Hub) CallbackInvoked(el *dom.Node, callback definition.CallbackName, err error) {
	ev := Event{Type: EventCallback, Element: el.String(), Callback: string(callback)}
	if def := el.Definition(); def != nil {
		ev.Definition = def.Name()
	}
	if err != nil {
		ev.Error = err.Error()
	}
	h.Publish(ev)
}
