package handlers

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"casino-settlement/internal/services"
)

const (
	writeWait   = 10 * time.Second
	pongWait    = 60 * time.Second
	pingPeriod  = (pongWait * 9) / 10
	sendBufSize = 16
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type Message struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

type Client struct {
	AccountID string
	conn      *websocket.Conn
	send      chan *Message
	done      chan struct{}
}

type delivery struct {
	accountID string
	message   *Message
}

// WebSocketHub fans balance updates out to every connection an account has
// open. It satisfies services.BalanceNotifier.
type WebSocketHub struct {
	clients    map[string]map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	broadcast  chan delivery
	done       chan struct{}
	stopOnce   sync.Once
	logger     *zap.Logger
}

func NewWebSocketHub(logger *zap.Logger) *WebSocketHub {
	return &WebSocketHub{
		clients:    make(map[string]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan delivery, 100),
		done:       make(chan struct{}),
		logger:     logger.Named("ws"),
	}
}

// Run serves the hub until Stop is called.
func (hub *WebSocketHub) Run() {
	for {
		select {
		case <-hub.done:
			return

		case client := <-hub.register:
			conns, ok := hub.clients[client.AccountID]
			if !ok {
				conns = make(map[*Client]struct{})
				hub.clients[client.AccountID] = conns
			}
			conns[client] = struct{}{}
			hub.logger.Debug("client registered", zap.String("account_id", client.AccountID))

		case client := <-hub.unregister:
			if conns, ok := hub.clients[client.AccountID]; ok {
				if _, ok := conns[client]; ok {
					delete(conns, client)
					close(client.done)
				}
				if len(conns) == 0 {
					delete(hub.clients, client.AccountID)
				}
			}
			hub.logger.Debug("client unregistered", zap.String("account_id", client.AccountID))

		case d := <-hub.broadcast:
			for client := range hub.clients[d.accountID] {
				select {
				case client.send <- d.message:
				default:
					hub.logger.Warn("dropping slow client", zap.String("account_id", d.accountID))
					delete(hub.clients[d.accountID], client)
					close(client.done)
				}
			}
		}
	}
}

func (hub *WebSocketHub) Stop() {
	hub.stopOnce.Do(func() { close(hub.done) })
}

// join hands the client to the hub. It reports false once the hub stopped.
func (hub *WebSocketHub) join(client *Client) bool {
	select {
	case hub.register <- client:
		return true
	case <-hub.done:
		return false
	}
}

func (hub *WebSocketHub) leave(client *Client) {
	select {
	case hub.unregister <- client:
	case <-hub.done:
	}
}

// NotifyBalance queues a BALANCE_UPDATE. It never blocks settlement; a full
// queue drops the update.
func (hub *WebSocketHub) NotifyBalance(accountID string, balance int64) {
	msg := &Message{
		Type: "BALANCE_UPDATE",
		Data: gin.H{"balance": balance},
	}
	select {
	case hub.broadcast <- delivery{accountID: accountID, message: msg}:
	default:
		hub.logger.Warn("balance update dropped", zap.String("account_id", accountID))
	}
}

type WebSocketHandler struct {
	engine *services.Engine
	hub    *WebSocketHub
	logger *zap.Logger
}

func NewWebSocketHandler(engine *services.Engine, hub *WebSocketHub) *WebSocketHandler {
	return &WebSocketHandler{
		engine: engine,
		hub:    hub,
		logger: hub.logger,
	}
}

func (h *WebSocketHandler) HandleWebSocket(c *gin.Context) {
	accountID := c.GetString("account_id")

	account, err := h.engine.Account(c.Request.Context(), accountID)
	if err != nil {
		respondError(c, err)
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("failed to upgrade to websocket", zap.Error(err))
		return
	}

	client := &Client{
		AccountID: accountID,
		conn:      conn,
		send:      make(chan *Message, sendBufSize),
		done:      make(chan struct{}),
	}
	client.send <- &Message{
		Type: "BALANCE_UPDATE",
		Data: gin.H{"balance": account.Balance},
	}

	if !h.hub.join(client) {
		conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
		conn.Close()
		return
	}
	go h.writePump(client)
	h.readPump(client)
}

func (h *WebSocketHandler) readPump(client *Client) {
	defer func() {
		h.hub.leave(client)
		client.conn.Close()
	}()

	client.conn.SetReadDeadline(time.Now().Add(pongWait))
	client.conn.SetPongHandler(func(string) error {
		return client.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg Message
		if err := client.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.Warn("websocket error", zap.Error(err))
			}
			return
		}

		if msg.Type == "PING" {
			reply := &Message{Type: "PONG", Data: gin.H{"timestamp": time.Now().Unix()}}
			select {
			case client.send <- reply:
			case <-client.done:
				return
			default:
			}
		}
	}
}

// writePump owns every write to the connection.
func (h *WebSocketHandler) writePump(client *Client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		client.conn.Close()
	}()

	for {
		select {
		case <-client.done:
			client.conn.SetWriteDeadline(time.Now().Add(writeWait))
			client.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return

		case <-h.hub.done:
			client.conn.SetWriteDeadline(time.Now().Add(writeWait))
			client.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
			return

		case msg := <-client.send:
			client.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := client.conn.WriteJSON(msg); err != nil {
				return
			}

		case <-ticker.C:
			client.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := client.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
