package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"casino-miniapp-backend/internal/models"
	"casino-miniapp-backend/internal/services"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	clientSendSize = 64
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type Message struct {
	Type    string      `json:"type"`
	RoundID string      `json:"round_id,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

type Client struct {
	AccountID string
	Conn      *websocket.Conn
	send      chan []byte
}

type outbound struct {
	accountID string
	payload   []byte
}

// WebSocketHub fans messages out to every connection of an account.
// It implements services.Broadcaster.
type WebSocketHub struct {
	clients    map[string]map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	broadcast  chan outbound
	done       chan struct{}
	logger     *zap.Logger
}

func NewWebSocketHub(logger *zap.Logger) *WebSocketHub {
	return &WebSocketHub{
		clients:    make(map[string]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan outbound, 256),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

func (hub *WebSocketHub) Run(ctx context.Context) {
	defer close(hub.done)

	for {
		select {
		case <-ctx.Done():
			for _, conns := range hub.clients {
				for client := range conns {
					close(client.send)
				}
			}
			hub.clients = make(map[string]map[*Client]struct{})
			return

		case client := <-hub.register:
			conns, ok := hub.clients[client.AccountID]
			if !ok {
				conns = make(map[*Client]struct{})
				hub.clients[client.AccountID] = conns
			}
			conns[client] = struct{}{}
			hub.logger.Debug("websocket client registered", zap.String("account_id", client.AccountID))

		case client := <-hub.unregister:
			hub.remove(client)

		case msg := <-hub.broadcast:
			for client := range hub.clients[msg.accountID] {
				select {
				case client.send <- msg.payload:
				default:
					hub.remove(client)
				}
			}
		}
	}
}

// Register reports false once the hub has stopped.
func (hub *WebSocketHub) Register(client *Client) bool {
	select {
	case hub.register <- client:
		return true
	case <-hub.done:
		return false
	}
}

func (hub *WebSocketHub) Unregister(client *Client) {
	select {
	case hub.unregister <- client:
	case <-hub.done:
	}
}

func (hub *WebSocketHub) remove(client *Client) {
	conns, ok := hub.clients[client.AccountID]
	if !ok {
		return
	}
	if _, ok := conns[client]; !ok {
		return
	}

	delete(conns, client)
	close(client.send)
	if len(conns) == 0 {
		delete(hub.clients, client.AccountID)
	}
	hub.logger.Debug("websocket client unregistered", zap.String("account_id", client.AccountID))
}

// Send queues msg for the account without blocking the caller.
func (hub *WebSocketHub) Send(accountID string, msg *Message) {
	payload, err := json.Marshal(msg)
	if err != nil {
		hub.logger.Warn("failed to encode websocket message", zap.Error(err))
		return
	}

	select {
	case hub.broadcast <- outbound{accountID: accountID, payload: payload}:
	default:
		hub.logger.Warn("websocket broadcast queue full", zap.String("type", msg.Type))
	}
}

func (hub *WebSocketHub) BroadcastGameUpdate(accountID, roundID string, multiplier decimal.Decimal) {
	hub.Send(accountID, &Message{
		Type:    "GAME_UPDATE",
		RoundID: roundID,
		Data: gin.H{
			"multiplier": multiplier,
			"timestamp":  time.Now().Unix(),
		},
	})
}

func (hub *WebSocketHub) BroadcastGameCrash(accountID, roundID string, crashPoint decimal.Decimal) {
	hub.Send(accountID, &Message{
		Type:    "GAME_CRASH",
		RoundID: roundID,
		Data: gin.H{
			"crash_point": crashPoint,
			"timestamp":   time.Now().Unix(),
		},
	})
}

func (hub *WebSocketHub) BroadcastRoundSettled(accountID string, view *models.RoundView) {
	hub.Send(accountID, &Message{
		Type:    "ROUND_SETTLED",
		RoundID: view.ID,
		Data:    view,
	})
	if view.Balance != nil {
		hub.Send(accountID, &Message{
			Type: "BALANCE_UPDATE",
			Data: gin.H{"balance": view.Balance},
		})
	}
}

var _ services.Broadcaster = (*WebSocketHub)(nil)

type WebSocketHandler struct {
	hub    *WebSocketHub
	ledger *services.LedgerService
	logger *zap.Logger
}

func NewWebSocketHandler(hub *WebSocketHub, ledger *services.LedgerService, logger *zap.Logger) *WebSocketHandler {
	return &WebSocketHandler{hub: hub, ledger: ledger, logger: logger}
}

func (h *WebSocketHandler) HandleWebSocket(c *gin.Context) {
	id := accountID(c)

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("failed to upgrade to websocket", zap.Error(err))
		return
	}

	client := &Client{
		AccountID: id,
		Conn:      conn,
		send:      make(chan []byte, clientSendSize),
	}
	if !h.hub.Register(client) {
		conn.Close()
		return
	}

	go h.writePump(client)

	if balance, err := h.ledger.DisplayBalance(c.Request.Context(), id); err == nil {
		h.hub.Send(id, &Message{Type: "BALANCE_UPDATE", Data: gin.H{"balance": balance}})
	}

	h.readPump(client)
}

func (h *WebSocketHandler) readPump(client *Client) {
	defer func() {
		h.hub.Unregister(client)
		client.Conn.Close()
	}()

	client.Conn.SetReadDeadline(time.Now().Add(pongWait))
	client.Conn.SetPongHandler(func(string) error {
		return client.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg Message
		if err := client.Conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.Info("websocket closed", zap.String("account_id", client.AccountID), zap.Error(err))
			}
			return
		}

		if msg.Type == "PING" {
			h.hub.Send(client.AccountID, &Message{
				Type: "PONG",
				Data: gin.H{"timestamp": time.Now().Unix()},
			})
		}
	}
}

func (h *WebSocketHandler) writePump(client *Client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		client.Conn.Close()
	}()

	for {
		select {
		case payload, ok := <-client.send:
			client.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				client.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := client.Conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}

		case <-ticker.C:
			client.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := client.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
