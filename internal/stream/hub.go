// internal/stream/hub.go
package stream

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/ghost/internal/events"
	"github.com/xkilldash9x/ghost/internal/geometry"
	"github.com/xkilldash9x/ghost/internal/planner"
	"github.com/xkilldash9x/ghost/internal/scene"
	"github.com/xkilldash9x/ghost/internal/state"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second
	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second
	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10
	// Reference image uploads arrive base64 encoded.
	maxMessageSize = 16 << 20
)

// Frame types sent only by the hub; everything else is an events.Type.
const (
	FrameSnapshot = "SNAPSHOT"
	FrameReply    = "REPLY"
	FrameError    = "ERROR"
)

// Command types accepted from clients.
const (
	CommandInstruction = "instruction"
	CommandAbort       = "abort"
	CommandUpload      = "upload"
	CommandViewport    = "viewport"
	CommandResize      = "resize"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The stream binds to loopback by default; any local page may attach.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Submitter accepts natural-language instructions. planner.Bridge satisfies it.
type Submitter interface {
	Submit(ctx context.Context, instruction string) (planner.Outcome, error)
}

// Command is an inbound client message.
type Command struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	MIMEType string    `json:"mimeType,omitempty"`
	Data     []byte    `json:"data,omitempty"`
	Viewport []float64 `json:"viewport,omitempty"`
	Width    float64   `json:"width,omitempty"`
	Height   float64   `json:"height,omitempty"`
}

// Frame is an outbound message that is not a bus event.
type Frame struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

// Reply reports the outcome of an instruction to the client that sent it.
type Reply struct {
	Text     string   `json:"text"`
	Actions  []string `json:"actions"`
	Dropped  int      `json:"dropped"`
	Error    string   `json:"error,omitempty"`
	Accepted bool     `json:"accepted"`
}

type client struct {
	id   string
	hub  *Hub
	conn *websocket.Conn
	// Buffered channel of outbound messages.
	send chan []byte
}

// Hub fans bus events out to WebSocket viewers and routes their commands
// into the store and the planning bridge.
type Hub struct {
	logger     *zap.Logger
	bus        *events.Bus
	store      *state.Store
	scene      scene.Scene
	submitter  Submitter
	bufferSize int

	clients    map[*client]struct{}
	register   chan *client
	unregister chan *client
	mu         sync.RWMutex

	ctx  context.Context
	done chan struct{}
	wg   sync.WaitGroup
}

// NewHub wires a hub. bufferSize bounds each client's outbound queue; a
// client that falls that far behind is disconnected.
func NewHub(logger *zap.Logger, bus *events.Bus, store *state.Store, sc scene.Scene, sub Submitter, bufferSize int) *Hub {
	if bufferSize <= 0 {
		bufferSize = 256
	}
	return &Hub{
		logger:     logger.Named("stream"),
		bus:        bus,
		store:      store,
		scene:      sc,
		submitter:  sub,
		bufferSize: bufferSize,
		clients:    make(map[*client]struct{}),
		register:   make(chan *client),
		unregister: make(chan *client),
		done:       make(chan struct{}),
	}
}

// Run services registrations and broadcasts until ctx is cancelled. It
// returns once every client goroutine and pending submission has finished.
func (h *Hub) Run(ctx context.Context) error {
	h.ctx = ctx
	evs, unsubscribe := h.bus.Subscribe(events.All()...)
	defer unsubscribe()

	h.logger.Info("Stream hub started.")
	defer h.logger.Info("Stream hub stopped.")

	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for c := range h.clients {
				close(c.send)
				delete(h.clients, c)
			}
			h.mu.Unlock()
			close(h.done)
			h.wg.Wait()
			return nil
		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = struct{}{}
			h.mu.Unlock()
			h.logger.Info("Viewer connected.", zap.String("client_id", c.id))
			c.deliver(Frame{Type: FrameSnapshot, Payload: h.store.View()})
			h.wg.Add(2)
			go c.writePump()
			go c.readPump()
		case c := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
				h.logger.Info("Viewer disconnected.", zap.String("client_id", c.id))
			}
			h.mu.Unlock()
		case ev, ok := <-evs:
			if !ok {
				// Bus shut down; keep serving commands without broadcasts.
				evs = nil
				continue
			}
			h.broadcast(ev)
		}
	}
}

func (h *Hub) broadcast(ev events.Event) {
	msg, err := json.Marshal(ev)
	if err != nil {
		h.logger.Error("Failed to marshal event", zap.String("type", string(ev.Type)), zap.Error(err))
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
			close(c.send)
			delete(h.clients, c)
			h.logger.Warn("Dropping slow viewer.", zap.String("client_id", c.id))
		}
	}
}

// Clients returns the number of connected viewers.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ServeHTTP upgrades the request and hands the connection to Run.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("Failed to upgrade websocket", zap.Error(err))
		return
	}
	c := &client{
		id:   uuid.NewString(),
		hub:  h,
		conn: conn,
		send: make(chan []byte, h.bufferSize),
	}
	select {
	case h.register <- c:
	case <-h.done:
		conn.Close()
	case <-r.Context().Done():
		conn.Close()
	}
}

// deliver queues a frame for this client only. Frames for clients that have
// already been dropped are discarded.
func (c *client) deliver(f Frame) {
	msg, err := json.Marshal(f)
	if err != nil {
		c.hub.logger.Error("Failed to marshal frame", zap.String("type", f.Type), zap.Error(err))
		return
	}
	c.hub.mu.RLock()
	defer c.hub.mu.RUnlock()
	if _, ok := c.hub.clients[c]; !ok {
		return
	}
	select {
	case c.send <- msg:
	default:
	}
}

func (c *client) readPump() {
	defer c.hub.wg.Done()
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error { c.conn.SetReadDeadline(time.Now().Add(pongWait)); return nil })

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.logger.Warn("Viewer read error", zap.String("client_id", c.id), zap.Error(err))
			}
			return
		}
		var cmd Command
		if err := json.Unmarshal(message, &cmd); err != nil {
			c.hub.logger.Warn("Discarding malformed command", zap.String("client_id", c.id), zap.Error(err))
			c.deliver(Frame{Type: FrameError, Payload: "malformed command"})
			continue
		}
		c.handle(cmd)
	}
}

func (c *client) handle(cmd Command) {
	h := c.hub
	switch cmd.Type {
	case CommandInstruction:
		if cmd.Text == "" {
			c.deliver(Frame{Type: FrameError, Payload: "instruction text is required"})
			return
		}
		h.logger.Info("Received instruction from viewer.", zap.String("client_id", c.id), zap.String("instruction", cmd.Text))
		// Planning is slow; keep reading so an abort can get through.
		h.wg.Add(1)
		go func() {
			defer h.wg.Done()
			c.submit(cmd.Text)
		}()
	case CommandAbort:
		h.store.Abort()
	case CommandUpload:
		if len(cmd.Data) == 0 {
			c.deliver(Frame{Type: FrameError, Payload: "upload data is required"})
			return
		}
		mime := cmd.MIMEType
		if mime == "" {
			mime = http.DetectContentType(cmd.Data)
		}
		h.store.SetLastUploadedImage(&state.ReferenceImage{Data: cmd.Data, MIMEType: mime})
		h.store.AddLog("Reference image uploaded")
	case CommandViewport:
		t, err := geometry.FromSlice(cmd.Viewport)
		if err == nil {
			_, err = t.Invert()
		}
		if err != nil {
			c.deliver(Frame{Type: FrameError, Payload: err.Error()})
			return
		}
		h.scene.SetViewport(t)
	case CommandResize:
		if cmd.Width <= 0 || cmd.Height <= 0 {
			c.deliver(Frame{Type: FrameError, Payload: "resize needs a positive width and height"})
			return
		}
		h.scene.Resize(cmd.Width, cmd.Height)
	default:
		c.deliver(Frame{Type: FrameError, Payload: "unknown command: " + cmd.Type})
	}
}

func (c *client) submit(text string) {
	out, err := c.hub.submitter.Submit(c.hub.ctx, text)
	if err != nil {
		msg := err.Error()
		if errors.Is(err, planner.ErrBusy) {
			msg = "still thinking about the previous instruction"
		}
		c.deliver(Frame{Type: FrameReply, Payload: Reply{Error: msg}})
		return
	}
	reply := Reply{Text: out.Reply, Dropped: out.Dropped, Accepted: true, Actions: make([]string, 0, len(out.Enqueued))}
	for _, a := range out.Enqueued {
		reply.Actions = append(reply.Actions, a.ID)
	}
	if out.Err != nil {
		reply.Error = out.Err.Error()
	}
	c.deliver(Frame{Type: FrameReply, Payload: reply})
}

func (c *client) writePump() {
	defer c.hub.wg.Done()
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			// One JSON document per frame; viewers parse each message whole.
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
