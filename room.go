/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"slices"
	"sync"
	"time"
)

const (
	maxPlayers      = 2
	challengePoints = 10
)

// ConnID identifies one live gateway connection.
type ConnID string

// Player is one member of a room.
type Player struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Score int    `json:"score"`

	conn ConnID
}

type gameState struct {
	currentPlayerID int
	round           int
	used            map[int]bool
	current         *Question
}

func newGameState() *gameState {
	return &gameState{
		currentPlayerID: 1,
		round:           1,
		used:            make(map[int]bool),
	}
}

// dispatch describes what an operation produced and who should receive it.
// The reply goes to a single connection ahead of the broadcast.
type dispatch struct {
	replyTo ConnID
	reply   []any

	to       []ConnID
	messages []any
}

func (d dispatch) empty() bool {
	return len(d.messages) == 0 && len(d.reply) == 0
}

// Room is the state machine for a single two-player session. Every
// operation takes mu, so operations on the same room never interleave.
type Room struct {
	mu sync.Mutex

	code      string
	createdAt time.Time

	players []*Player
	state   *gameState

	// closed is set once the room has left the registry. A closed room
	// rejects joins and ignores game events from stale bindings.
	closed bool

	intn func(n int) int

	// deliver hands a dispatch to the transport while mu is still held, so
	// every member sees the room's messages in the order they were produced.
	// It must not block.
	deliver func(dispatch)
}

func newRoom(code string, createdAt time.Time, intn func(n int) int) *Room {
	return &Room{
		code:      code,
		createdAt: createdAt,
		players:   make([]*Player, 0, maxPlayers),
		intn:      intn,
	}
}

// occupancy reports the player count and whether the room is still live.
func (r *Room) occupancy() (int, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.players), !r.closed
}

func (r *Room) rosterLocked() []Player {
	out := make([]Player, 0, len(r.players))
	for _, p := range r.players {
		out = append(out, *p)
	}

	return out
}

func (r *Room) membersLocked() []ConnID {
	out := make([]ConnID, 0, len(r.players))
	for _, p := range r.players {
		out = append(out, p.conn)
	}

	return out
}

func (r *Room) gameStateLocked() GameState {
	used := make([]int, 0, len(r.state.used))
	for id := range r.state.used {
		used = append(used, id)
	}
	slices.Sort(used)

	var current *Question
	if r.state.current != nil {
		q := *r.state.current
		current = &q
	}

	return GameState{
		CurrentPlayerID: r.state.currentPlayerID,
		Round:           r.state.round,
		UsedQuestionIDs: used,
		CurrentQuestion: current,
	}
}

func (r *Room) broadcastLocked(messages ...any) dispatch {
	return dispatch{
		to:       r.membersLocked(),
		messages: messages,
	}
}

func (r *Room) emitLocked(d dispatch) dispatch {
	if r.deliver != nil && !d.empty() {
		r.deliver(d)
	}

	return d
}

// freeIDLocked returns the lowest player id not held by a current member.
func (r *Room) freeIDLocked() int {
	for id := 1; id <= maxPlayers; id++ {
		taken := false
		for _, p := range r.players {
			if p.ID == id {
				taken = true
				break
			}
		}
		if !taken {
			return id
		}
	}

	return 0
}

// join adds a player bound to conn, acknowledged with joined-room.
func (r *Room) join(conn ConnID, name string) (Player, dispatch, error) {
	return r.admit(conn, name, "joined-room")
}

// host adds the creator of the room, acknowledged with room-created.
func (r *Room) host(conn ConnID, name string) (Player, dispatch, error) {
	return r.admit(conn, name, "room-created")
}

// admit adds a player and replies to it with ack before the roster
// broadcast. Filling the second seat always starts a fresh game.
func (r *Room) admit(conn ConnID, name, ack string) (Player, dispatch, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return Player{}, dispatch{}, ErrRoomNotFound
	}

	if len(r.players) >= maxPlayers {
		return Player{}, dispatch{}, ErrRoomFull
	}

	// Seats are reused after a leave; a count-based id could collide with
	// the player who stayed.
	p := &Player{
		ID:   r.freeIDLocked(),
		Name: name,
		conn: conn,
	}
	r.players = append(r.players, p)

	roster := r.rosterLocked()

	messages := []any{RosterMessage{
		Type:        "player-joined",
		Players:     roster,
		PlayerCount: len(r.players),
	}}

	if len(r.players) == maxPlayers {
		r.state = newGameState()

		messages = append(messages, GameStartMessage{
			Type:      "game-start",
			Players:   roster,
			GameState: r.gameStateLocked(),
		})
	}

	d := r.broadcastLocked(messages...)
	d.replyTo = conn
	d.reply = []any{AssignedMessage{
		Type:       ack,
		RoomCode:   r.code,
		PlayerID:   p.ID,
		PlayerName: p.Name,
	}}

	return *p, r.emitLocked(d), nil
}

// member returns the player bound to conn, if the room is live.
func (r *Room) member(conn ConnID) (Player, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return Player{}, false
	}

	for _, p := range r.players {
		if p.conn == conn {
			return *p, true
		}
	}

	return Player{}, false
}

// selectMode draws a random unused question of the given type. Once every
// question of that type has been used, the history is cleared for all types.
func (r *Room) selectMode(kind string) (Question, dispatch, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed || r.state == nil {
		return Question{}, dispatch{}, false
	}

	pool := questionsOf(kind)
	if len(pool) == 0 {
		return Question{}, dispatch{}, false
	}

	eligible := r.eligibleLocked(pool)
	if len(eligible) == 0 {
		clear(r.state.used)
		eligible = pool
	}

	q := eligible[r.intn(len(eligible))]
	r.state.used[q.ID] = true
	r.state.current = &q

	return q, r.emitLocked(r.broadcastLocked(QuestionSelectedMessage{
		Type:      "question-selected",
		Question:  q,
		GameState: r.gameStateLocked(),
	})), true
}

func (r *Room) eligibleLocked(pool []Question) []Question {
	out := make([]Question, 0, len(pool))
	for _, q := range pool {
		if !r.state.used[q.ID] {
			out = append(out, q)
		}
	}

	return out
}

// completeChallenge scores the current player when completed is true and
// passes the turn. A round ends each time the turn returns to player 1.
func (r *Room) completeChallenge(completed bool) dispatch {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed || r.state == nil {
		return dispatch{}
	}

	if completed {
		for _, p := range r.players {
			if p.ID == r.state.currentPlayerID {
				p.Score += challengePoints
				break
			}
		}
	}

	if r.state.currentPlayerID == 1 {
		r.state.currentPlayerID = 2
	} else {
		r.state.currentPlayerID = 1
		r.state.round++
	}
	r.state.current = nil

	return r.emitLocked(r.broadcastLocked(ChallengeCompletedMessage{
		Type:      "challenge-completed",
		Completed: completed,
		Players:   r.rosterLocked(),
		GameState: r.gameStateLocked(),
	}))
}

func (r *Room) skipQuestion() dispatch {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed || r.state == nil {
		return dispatch{}
	}

	r.state.current = nil

	return r.emitLocked(r.broadcastLocked(QuestionSkippedMessage{
		Type:      "question-skipped",
		GameState: r.gameStateLocked(),
	}))
}

// endGame only announces the final roster; the room stays playable.
func (r *Room) endGame() dispatch {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return dispatch{}
	}

	return r.emitLocked(r.broadcastLocked(RosterMessage{
		Type:    "game-ended",
		Players: r.rosterLocked(),
	}))
}

func (r *Room) resetGame() dispatch {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed || r.state == nil {
		return dispatch{}
	}

	for _, p := range r.players {
		p.Score = 0
	}
	r.state = newGameState()

	return r.emitLocked(r.broadcastLocked(GameResetMessage{
		Type:      "game-reset",
		Players:   r.rosterLocked(),
		GameState: r.gameStateLocked(),
	}))
}

// leave removes the player bound to conn. When the last player goes the
// room is closed and emptied is true; the caller removes it from the
// registry. The game state stays frozen until the seat is filled again.
func (r *Room) leave(conn ConnID) (d dispatch, emptied bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return dispatch{}, false
	}

	idx := slices.IndexFunc(r.players, func(p *Player) bool {
		return p.conn == conn
	})
	if idx < 0 {
		return dispatch{}, false
	}

	r.players = slices.Delete(r.players, idx, idx+1)

	if len(r.players) == 0 {
		r.closed = true

		return dispatch{}, true
	}

	return r.emitLocked(r.broadcastLocked(RosterMessage{
		Type:        "player-left",
		Players:     r.rosterLocked(),
		PlayerCount: len(r.players),
	})), false
}

// close marks the room dead and returns the connections still bound to it.
func (r *Room) close() []ConnID {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.closed = true

	return r.membersLocked()
}
