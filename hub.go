package main

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/gorilla/websocket"
)

// wsMessage is the envelope for every frame pushed to clients.
type wsMessage struct {
	Type    string `json:"type"`
	GameID  string `json:"game_id"`
	Payload any    `json:"payload"`
}

// wsClient is one connected browser tab, subscribed to a single game.
type wsClient struct {
	hub    *Hub
	conn   *websocket.Conn
	gameID string
	send   chan []byte
}

// Hub fans log entries out to the websocket clients watching each game.
type Hub struct {
	clients    map[*wsClient]bool
	broadcast  chan wsFrame
	register   chan *wsClient
	unregister chan *wsClient
}

type wsFrame struct {
	gameID string
	data   []byte
}

func newHub() *Hub {
	return &Hub{
		clients:    map[*wsClient]bool{},
		broadcast:  make(chan wsFrame, 64),
		register:   make(chan *wsClient),
		unregister: make(chan *wsClient),
	}
}

// Run is the hub's event loop; start it with `go hub.Run()`.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.clients[client] = true
		case client := <-h.unregister:
			if h.clients[client] {
				delete(h.clients, client)
				close(client.send)
			}
		case frame := <-h.broadcast:
			for client := range h.clients {
				if client.gameID != frame.gameID {
					continue
				}
				select {
				case client.send <- frame.data:
				default:
					// Slow consumer: drop the connection rather than block.
					close(client.send)
					delete(h.clients, client)
				}
			}
		}
	}
}

// BroadcastLog pushes one log entry to every client watching the game.
// Safe to call from under the store lock: the channel is buffered and
// frames are dropped when the hub is saturated.
func (h *Hub) BroadcastLog(gameID string, entry LogEntry) {
	data, err := json.Marshal(wsMessage{Type: "log", GameID: gameID, Payload: entry})
	if err != nil {
		return
	}
	select {
	case h.broadcast <- wsFrame{gameID: gameID, data: data}:
	default:
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// serveWs upgrades a GET request into a log-feed subscription for one
// game.
func (h *Hub) serveWs(w http.ResponseWriter, r *http.Request, gameID string) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade: %v", err)
		return
	}
	client := &wsClient{hub: h, conn: conn, gameID: gameID, send: make(chan []byte, 256)}
	h.register <- client
	go client.writePump()
	go client.readPump()
}

// readPump drains (and discards) client frames so pings and close
// frames are processed.
func (c *wsClient) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("ws read: %v", err)
			}
			return
		}
	}
}

func (c *wsClient) writePump() {
	defer c.conn.Close()
	for message := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
			return
		}
	}
}
