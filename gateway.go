/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Client is one websocket connection. Outbound messages go through a
// bounded queue; a client that cannot keep up is disconnected.
type Client struct {
	id   ConnID
	conn *websocket.Conn
	send chan any

	done chan struct{}
	once sync.Once
}

func newClient(conn *websocket.Conn, buffer int) *Client {
	return &Client{
		id:   ConnID(uuid.NewString()),
		conn: conn,
		send: make(chan any, buffer),
		done: make(chan struct{}),
	}
}

// enqueue never blocks. It reports false if the client is gone or was
// dropped because its queue was full.
func (c *Client) enqueue(msg any) bool {
	select {
	case <-c.done:
		return false
	default:
	}

	select {
	case c.send <- msg:
		return true
	default:
		c.close()
		return false
	}
}

func (c *Client) close() {
	c.once.Do(func() {
		close(c.done)
		_ = c.conn.Close()
	})
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.close()
	}()

	for {
		select {
		case <-c.done:
			return
		case msg := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

type binding struct {
	room     *Room
	playerID int
}

// Gateway multiplexes websocket clients onto rooms. It owns the side-table
// binding each connection to at most one room and player.
type Gateway struct {
	cfg      *Config
	registry *Registry

	mu       sync.RWMutex
	clients  map[ConnID]*Client
	bindings map[ConnID]binding
}

// newGateway wires registry so that rooms created from now on deliver
// through the gateway.
func newGateway(cfg *Config, registry *Registry) *Gateway {
	gw := &Gateway{
		cfg:      cfg,
		registry: registry,
		clients:  make(map[ConnID]*Client),
		bindings: make(map[ConnID]binding),
	}
	registry.deliver = gw.deliver

	return gw
}

func (gw *Gateway) register(c *Client) {
	gw.mu.Lock()
	gw.clients[c.id] = c
	gw.mu.Unlock()
}

func (gw *Gateway) bound(id ConnID) (binding, bool) {
	gw.mu.RLock()
	defer gw.mu.RUnlock()

	b, ok := gw.bindings[id]

	return b, ok
}

func (gw *Gateway) bind(id ConnID, b binding) {
	gw.mu.Lock()
	gw.bindings[id] = b
	gw.mu.Unlock()
}

func (gw *Gateway) unbind(id ConnID) (binding, bool) {
	gw.mu.Lock()
	defer gw.mu.Unlock()

	b, ok := gw.bindings[id]
	delete(gw.bindings, id)

	return b, ok
}

// deliver enqueues the reply of d, then fans its messages out to every
// recipient still connected. Rooms call it under their own lock, so it
// never blocks and never takes a room lock.
func (gw *Gateway) deliver(d dispatch) {
	if d.empty() {
		return
	}

	gw.mu.RLock()
	reply, hasReply := gw.clients[d.replyTo]
	targets := make([]*Client, 0, len(d.to))
	for _, id := range d.to {
		if c, ok := gw.clients[id]; ok {
			targets = append(targets, c)
		}
	}
	gw.mu.RUnlock()

	if hasReply {
		for _, msg := range d.reply {
			if !reply.enqueue(msg) {
				break
			}
		}
	}

	for _, c := range targets {
		for _, msg := range d.messages {
			if !c.enqueue(msg) {
				logf(gw.cfg, "GAMES: Dropped slow or closed connection %s", c.id)

				break
			}
		}
	}
}

func (gw *Gateway) sendError(c *Client, err error) {
	message := "Something went wrong"
	switch {
	case errors.Is(err, ErrRoomNotFound):
		message = "Room not found"
	case errors.Is(err, ErrRoomFull):
		message = "Room is full"
	case errors.Is(err, ErrCapacityExhausted):
		message = "No rooms available, try again later"
	}

	c.enqueue(ErrorMessage{
		Type:    "error",
		Message: message,
	})
}

// leaveCurrent releases any room c is bound to before it creates or joins another.
func (gw *Gateway) leaveCurrent(c *Client) {
	if b, ok := gw.unbind(c.id); ok {
		gw.registry.leave(b.room, c.id)
	}
}

func (gw *Gateway) createRoom(c *Client, name string) {
	gw.leaveCurrent(c)

	room, err := gw.registry.create()
	if err != nil {
		errorf("create room: %v", err)
		gw.sendError(c, err)

		return
	}

	player, _, err := room.host(c.id, name)
	if err != nil {
		gw.registry.remove(room.code)
		gw.sendError(c, err)

		return
	}

	gw.bind(c.id, binding{room: room, playerID: player.ID})

	logf(gw.cfg, "GAMES: Player %q created room %s", name, room.code)
}

func (gw *Gateway) joinRoom(c *Client, code, name string) {
	// Joining the room c already sits in only repeats the acknowledgement.
	if b, ok := gw.bound(c.id); ok && b.room.code == normalizeCode(code) {
		if player, ok := b.room.member(c.id); ok {
			c.enqueue(AssignedMessage{
				Type:       "joined-room",
				RoomCode:   b.room.code,
				PlayerID:   player.ID,
				PlayerName: player.Name,
			})

			return
		}
	}

	gw.leaveCurrent(c)

	room, ok := gw.registry.get(code)
	if !ok {
		gw.sendError(c, ErrRoomNotFound)

		return
	}

	player, _, err := room.join(c.id, name)
	if err != nil {
		logf(gw.cfg, "GAMES: Player %q could not join %s: %v", name, room.code, err)
		gw.sendError(c, err)

		return
	}

	gw.bind(c.id, binding{room: room, playerID: player.ID})

	logf(gw.cfg, "GAMES: Player %q joined room %s as player %d", name, room.code, player.ID)
}

func (gw *Gateway) handle(c *Client, msg ClientMessage) {
	switch msg.Type {
	case eventCreateRoom:
		gw.createRoom(c, msg.PlayerName)
		return
	case eventJoinRoom:
		gw.joinRoom(c, msg.RoomCode, msg.PlayerName)
		return
	}

	b, ok := gw.bound(c.id)
	if !ok {
		return
	}

	// Rooms deliver their own broadcasts.
	switch msg.Type {
	case eventSelectMode:
		b.room.selectMode(msg.Mode)
	case eventCompleteChallenge:
		b.room.completeChallenge(msg.Completed)
	case eventSkipQuestion:
		b.room.skipQuestion()
	case eventEndGame:
		b.room.endGame()
	case eventResetGame:
		b.room.resetGame()
	default:
		// ignore unknown types
	}
}

func (gw *Gateway) disconnect(c *Client) {
	gw.mu.Lock()
	delete(gw.clients, c.id)
	b, ok := gw.bindings[c.id]
	delete(gw.bindings, c.id)
	gw.mu.Unlock()

	c.close()

	if ok {
		logf(gw.cfg, "GAMES: Player %d left room %s", b.playerID, b.room.code)
		gw.registry.leave(b.room, c.id)
	}
}

// expire drops the bindings of a room removed by the sweep.
func (gw *Gateway) expire(room *Room) {
	for _, id := range room.close() {
		gw.mu.Lock()
		if b, ok := gw.bindings[id]; ok && b.room == room {
			delete(gw.bindings, id)
		}
		gw.mu.Unlock()
	}
}

func (gw *Gateway) readPump(c *Client) {
	defer gw.disconnect(c)

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}

		var msg ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}

		gw.handle(c, msg)
	}
}

// closeAll disconnects every client (used on shutdown).
func (gw *Gateway) closeAll() {
	gw.mu.RLock()
	clients := make([]*Client, 0, len(gw.clients))
	for _, c := range gw.clients {
		clients = append(clients, c)
	}
	gw.mu.RUnlock()

	for _, c := range clients {
		c.close()
	}
}

func serveWS(cfg *Config, gw *Gateway) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			errorf("upgrade: %v", err)

			return
		}

		c := newClient(conn, cfg.sendBuffer)
		gw.register(c)

		logf(cfg, "SERVE: Websocket %s opened from %s", c.id, realIP(r))

		go c.writePump()
		gw.readPump(c)
	}
}
