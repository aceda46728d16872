/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func firstIndex(int) int { return 0 }

func newTestRoom() *Room {
	return newRoom("AB234C", time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC), firstIndex)
}

// activeRoom returns a room with Ana (player 1) and Luis (player 2).
func activeRoom(t *testing.T) *Room {
	t.Helper()

	r := newTestRoom()

	_, _, err := r.join("conn-ana", "Ana")
	require.NoError(t, err)
	_, _, err = r.join("conn-luis", "Luis")
	require.NoError(t, err)

	return r
}

func messageTypes(d dispatch) []string {
	types := make([]string, 0, len(d.messages))
	for _, m := range d.messages {
		switch msg := m.(type) {
		case RosterMessage:
			types = append(types, msg.Type)
		case GameStartMessage:
			types = append(types, msg.Type)
		case QuestionSelectedMessage:
			types = append(types, msg.Type)
		case ChallengeCompletedMessage:
			types = append(types, msg.Type)
		case QuestionSkippedMessage:
			types = append(types, msg.Type)
		case GameResetMessage:
			types = append(types, msg.Type)
		}
	}

	return types
}

func TestRoomJoin(t *testing.T) {
	r := newTestRoom()

	ana, d, err := r.join("conn-ana", "Ana")
	require.NoError(t, err)
	assert.Equal(t, 1, ana.ID)
	assert.Equal(t, 0, ana.Score)
	assert.Nil(t, r.state, "game must not start with one player")
	assert.Equal(t, []string{"player-joined"}, messageTypes(d))
	assert.Equal(t, []ConnID{"conn-ana"}, d.to)
	assert.Equal(t, ConnID("conn-ana"), d.replyTo)
	assert.Equal(t, []any{AssignedMessage{Type: "joined-room", RoomCode: "AB234C", PlayerID: 1, PlayerName: "Ana"}}, d.reply)

	luis, d, err := r.join("conn-luis", "Luis")
	require.NoError(t, err)
	assert.Equal(t, 2, luis.ID)
	require.NotNil(t, r.state)
	assert.Equal(t, []string{"player-joined", "game-start"}, messageTypes(d))
	assert.ElementsMatch(t, []ConnID{"conn-ana", "conn-luis"}, d.to)

	joined := d.messages[0].(RosterMessage)
	assert.Equal(t, 2, joined.PlayerCount)
	assert.Equal(t, "Ana", joined.Players[0].Name)
	assert.Equal(t, "Luis", joined.Players[1].Name)

	start := d.messages[1].(GameStartMessage)
	assert.Equal(t, 1, start.GameState.CurrentPlayerID)
	assert.Equal(t, 1, start.GameState.Round)
	assert.Empty(t, start.GameState.UsedQuestionIDs)
	assert.Nil(t, start.GameState.CurrentQuestion)
}

func TestRoomHostReply(t *testing.T) {
	r := newTestRoom()

	_, d, err := r.host("conn-ana", "Ana")
	require.NoError(t, err)
	assert.Equal(t, []any{AssignedMessage{Type: "room-created", RoomCode: "AB234C", PlayerID: 1, PlayerName: "Ana"}}, d.reply)
}

func TestRoomMember(t *testing.T) {
	r := activeRoom(t)

	p, ok := r.member("conn-luis")
	assert.True(t, ok)
	assert.Equal(t, 2, p.ID)

	_, ok = r.member("conn-other")
	assert.False(t, ok)

	r.close()
	_, ok = r.member("conn-luis")
	assert.False(t, ok)
}

func TestRoomJoinFull(t *testing.T) {
	r := activeRoom(t)

	_, d, err := r.join("conn-third", "Third")
	assert.ErrorIs(t, err, ErrRoomFull)
	assert.True(t, d.empty())
	assert.Len(t, r.players, 2)
}

func TestRoomJoinClosed(t *testing.T) {
	r := newTestRoom()
	r.close()

	_, _, err := r.join("conn-ana", "Ana")
	assert.ErrorIs(t, err, ErrRoomNotFound)
}

func TestRoomConcurrentJoins(t *testing.T) {
	r := newTestRoom()

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		joined int
		full   int
	)

	for i := range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()

			_, _, err := r.join(ConnID(fmt.Sprintf("conn-%d", i)), "player")

			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				joined++
			} else {
				assert.ErrorIs(t, err, ErrRoomFull)
				full++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 2, joined)
	assert.Equal(t, 48, full)
	assert.Len(t, r.players, 2)
	assert.NotNil(t, r.state)
}

func TestRoomTurnScenario(t *testing.T) {
	r := activeRoom(t)

	d := r.completeChallenge(true)
	msg := d.messages[0].(ChallengeCompletedMessage)
	assert.True(t, msg.Completed)
	assert.Equal(t, 10, msg.Players[0].Score)
	assert.Equal(t, 0, msg.Players[1].Score)
	assert.Equal(t, 2, msg.GameState.CurrentPlayerID)
	assert.Equal(t, 1, msg.GameState.Round)

	d = r.completeChallenge(true)
	msg = d.messages[0].(ChallengeCompletedMessage)
	assert.Equal(t, 10, msg.Players[0].Score)
	assert.Equal(t, 10, msg.Players[1].Score)
	assert.Equal(t, 1, msg.GameState.CurrentPlayerID)
	assert.Equal(t, 2, msg.GameState.Round)
}

func TestRoomTurnAlternation(t *testing.T) {
	r := activeRoom(t)

	for i := range 10 {
		wantPlayer := 1 + i%2
		wantRound := 1 + i/2

		assert.Equal(t, wantPlayer, r.state.currentPlayerID, "step %d", i)
		assert.Equal(t, wantRound, r.state.round, "step %d", i)

		r.completeChallenge(false)
	}

	for _, p := range r.players {
		assert.Zero(t, p.Score, "declined challenges must not score")
	}
}

func TestRoomConcurrentTurns(t *testing.T) {
	r := activeRoom(t)

	var wg sync.WaitGroup
	for range 100 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.completeChallenge(true)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, r.state.currentPlayerID)
	assert.Equal(t, 51, r.state.round)
	assert.Equal(t, 500, r.players[0].Score)
	assert.Equal(t, 500, r.players[1].Score)
}

func TestRoomCompleteClearsQuestion(t *testing.T) {
	r := activeRoom(t)

	_, _, ok := r.selectMode(kindDare)
	require.True(t, ok)
	require.NotNil(t, r.state.current)

	r.completeChallenge(true)
	assert.Nil(t, r.state.current)
}

func TestRoomSelectModeExhaustsPool(t *testing.T) {
	r := activeRoom(t)

	dare, _, ok := r.selectMode(kindDare)
	require.True(t, ok)

	pool := questionsOf(kindTruth)
	seen := make(map[int]bool)

	for range pool {
		q, d, ok := r.selectMode(kindTruth)
		require.True(t, ok)
		assert.Equal(t, kindTruth, q.Type)
		assert.False(t, seen[q.ID], "question %d repeated before pool ran out", q.ID)
		seen[q.ID] = true

		msg := d.messages[0].(QuestionSelectedMessage)
		assert.Equal(t, q, msg.Question)
		require.NotNil(t, msg.GameState.CurrentQuestion)
		assert.Equal(t, q.ID, msg.GameState.CurrentQuestion.ID)
		assert.Contains(t, msg.GameState.UsedQuestionIDs, q.ID)
	}
	assert.Len(t, seen, len(pool))
	assert.True(t, r.state.used[dare.ID])

	// The pool is exhausted: history is cleared for every type, so the
	// next pick may repeat and the earlier dare is forgotten.
	q, _, ok := r.selectMode(kindTruth)
	require.True(t, ok)
	assert.True(t, seen[q.ID])
	assert.Equal(t, map[int]bool{q.ID: true}, r.state.used)
}

func TestRoomSelectModeUniformOverEligible(t *testing.T) {
	r := activeRoom(t)

	var sizes []int
	r.intn = func(n int) int {
		sizes = append(sizes, n)
		return n - 1
	}

	for range 3 {
		_, _, ok := r.selectMode(kindDare)
		require.True(t, ok)
	}

	assert.Equal(t, []int{8, 7, 6}, sizes)
}

func TestRoomSelectModeNoOps(t *testing.T) {
	waiting := newTestRoom()
	_, _, err := waiting.join("conn-ana", "Ana")
	require.NoError(t, err)

	_, d, ok := waiting.selectMode(kindTruth)
	assert.False(t, ok)
	assert.True(t, d.empty())

	r := activeRoom(t)
	_, d, ok = r.selectMode("lie")
	assert.False(t, ok)
	assert.True(t, d.empty())
	assert.Empty(t, r.state.used)
}

func TestRoomGameEventsBeforeActive(t *testing.T) {
	r := newTestRoom()
	_, _, err := r.join("conn-ana", "Ana")
	require.NoError(t, err)

	assert.True(t, r.completeChallenge(true).empty())
	assert.True(t, r.skipQuestion().empty())
	assert.True(t, r.resetGame().empty())
	assert.Nil(t, r.state)
	assert.Zero(t, r.players[0].Score)
}

func TestRoomSkipQuestion(t *testing.T) {
	r := activeRoom(t)

	_, _, ok := r.selectMode(kindTruth)
	require.True(t, ok)

	d := r.skipQuestion()
	assert.Equal(t, []string{"question-skipped"}, messageTypes(d))

	msg := d.messages[0].(QuestionSkippedMessage)
	assert.Nil(t, msg.GameState.CurrentQuestion)
	assert.Equal(t, 1, msg.GameState.CurrentPlayerID)
	assert.Equal(t, 1, msg.GameState.Round)
	assert.Len(t, msg.GameState.UsedQuestionIDs, 1)
}

func TestRoomEndGame(t *testing.T) {
	r := activeRoom(t)
	r.completeChallenge(true)

	before := r.gameStateLocked()

	d := r.endGame()
	require.Len(t, d.messages, 1)

	msg := d.messages[0].(RosterMessage)
	assert.Equal(t, "game-ended", msg.Type)
	assert.Equal(t, 10, msg.Players[0].Score)
	assert.Equal(t, before, r.gameStateLocked())

	assert.Equal(t, d, r.endGame())
}

func TestRoomResetGameIdempotent(t *testing.T) {
	r := activeRoom(t)

	_, _, ok := r.selectMode(kindTruth)
	require.True(t, ok)
	r.completeChallenge(true)
	r.completeChallenge(true)

	first := r.resetGame().messages[0].(GameResetMessage)
	second := r.resetGame().messages[0].(GameResetMessage)

	assert.Equal(t, first, second)
	assert.Equal(t, GameState{CurrentPlayerID: 1, Round: 1, UsedQuestionIDs: []int{}}, first.GameState)
	for _, p := range first.Players {
		assert.Zero(t, p.Score)
	}
}

func TestRoomLeave(t *testing.T) {
	r := activeRoom(t)
	r.completeChallenge(true)

	d, emptied := r.leave("conn-ana")
	assert.False(t, emptied)
	assert.Equal(t, []ConnID{"conn-luis"}, d.to)

	msg := d.messages[0].(RosterMessage)
	assert.Equal(t, "player-left", msg.Type)
	assert.Equal(t, 1, msg.PlayerCount)
	assert.Equal(t, "Luis", msg.Players[0].Name)

	// The game state stays as it was.
	require.NotNil(t, r.state)
	assert.Equal(t, 2, r.state.currentPlayerID)

	d, emptied = r.leave("conn-unknown")
	assert.False(t, emptied)
	assert.True(t, d.empty())

	d, emptied = r.leave("conn-luis")
	assert.True(t, emptied)
	assert.True(t, d.empty())
	assert.True(t, r.closed)
}

func TestRoomLeaveWithDepartedCurrentPlayer(t *testing.T) {
	r := activeRoom(t)

	_, emptied := r.leave("conn-ana")
	require.False(t, emptied)

	// Player 1 is gone; completing still flips the turn without scoring.
	d := r.completeChallenge(true)
	msg := d.messages[0].(ChallengeCompletedMessage)
	assert.Equal(t, 0, msg.Players[0].Score)
	assert.Equal(t, 2, msg.GameState.CurrentPlayerID)
}

func TestRoomRejoinStartsFreshGame(t *testing.T) {
	r := activeRoom(t)

	_, _, ok := r.selectMode(kindTruth)
	require.True(t, ok)
	r.completeChallenge(true)

	_, emptied := r.leave("conn-ana")
	require.False(t, emptied)

	p, d, err := r.join("conn-maria", "Maria")
	require.NoError(t, err)
	assert.Equal(t, 1, p.ID, "the free seat is reused")
	assert.Equal(t, []string{"player-joined", "game-start"}, messageTypes(d))

	start := d.messages[1].(GameStartMessage)
	assert.Equal(t, GameState{CurrentPlayerID: 1, Round: 1, UsedQuestionIDs: []int{}}, start.GameState)
	assert.Empty(t, r.state.used)
}

func TestRoomDeliversInOrder(t *testing.T) {
	r := activeRoom(t)

	var (
		mu    sync.Mutex
		turns []int
	)
	r.deliver = func(d dispatch) {
		mu.Lock()
		defer mu.Unlock()

		msg := d.messages[0].(ChallengeCompletedMessage)
		turns = append(turns, 2*msg.GameState.Round+msg.GameState.CurrentPlayerID)
	}

	var wg sync.WaitGroup
	for range 100 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.completeChallenge(true)
		}()
	}
	wg.Wait()

	require.Len(t, turns, 100)
	for i := 1; i < len(turns); i++ {
		assert.Equal(t, turns[i-1]+1, turns[i], "broadcast %d out of order", i)
	}
}
