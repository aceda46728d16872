/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

// Inbound event types
const (
	eventCreateRoom        = "create-room"
	eventJoinRoom          = "join-room"
	eventSelectMode        = "select-mode"
	eventCompleteChallenge = "complete-challenge"
	eventSkipQuestion      = "skip-question"
	eventEndGame           = "end-game"
	eventResetGame         = "reset-game"
)

// ClientMessage is any frame received from a client.
type ClientMessage struct {
	Type       string `json:"type"`
	RoomCode   string `json:"roomCode,omitempty"`   // join-room
	PlayerName string `json:"playerName,omitempty"` // join-room / create-room
	Mode       string `json:"mode,omitempty"`       // select-mode
	Completed  bool   `json:"completed,omitempty"`  // complete-challenge
}

// GameState is the client view of a room's turn/round/question data.
type GameState struct {
	CurrentPlayerID int       `json:"currentPlayerId"`
	Round           int       `json:"round"`
	UsedQuestionIDs []int     `json:"usedQuestionIds"`
	CurrentQuestion *Question `json:"currentQuestion"`
}

// Sent only to the connection that created or joined a room.
type AssignedMessage struct {
	Type       string `json:"type"` // "room-created" or "joined-room"
	RoomCode   string `json:"roomCode"`
	PlayerID   int    `json:"playerId"`
	PlayerName string `json:"playerName"`
}

// ErrorMessage is sent only to the requester.
type ErrorMessage struct {
	Type    string `json:"type"` // "error"
	Message string `json:"message"`
}

// RosterMessage carries the player list, with a count on join/leave.
type RosterMessage struct {
	Type        string   `json:"type"` // "player-joined", "player-left", "game-ended"
	Players     []Player `json:"players"`
	PlayerCount int      `json:"playerCount,omitempty"`
}

type GameStartMessage struct {
	Type      string    `json:"type"` // "game-start"
	Players   []Player  `json:"players"`
	GameState GameState `json:"gameState"`
}

type QuestionSelectedMessage struct {
	Type      string    `json:"type"` // "question-selected"
	Question  Question  `json:"question"`
	GameState GameState `json:"gameState"`
}

type ChallengeCompletedMessage struct {
	Type      string    `json:"type"` // "challenge-completed"
	Completed bool      `json:"completed"`
	Players   []Player  `json:"players"`
	GameState GameState `json:"gameState"`
}

type QuestionSkippedMessage struct {
	Type      string    `json:"type"` // "question-skipped"
	GameState GameState `json:"gameState"`
}

type GameResetMessage struct {
	Type      string    `json:"type"` // "game-reset"
	Players   []Player  `json:"players"`
	GameState GameState `json:"gameState"`
}
