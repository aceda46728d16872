/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"context"
	"crypto/rand"
	"fmt"
	"io"
	mathrand "math/rand/v2"
	"strings"
	"sync"
	"time"
)

// Registry holds every live room keyed by its upper-case code.
//
// Lock order: a Room's mutex is never acquired while holding the registry
// mutex, and vice versa. Rooms leaving the registry are closed first so a
// concurrent join on the stale pointer fails with ErrRoomNotFound.
type Registry struct {
	cfg *Config

	mu    sync.RWMutex
	rooms map[string]*Room

	random io.Reader
	now    func() time.Time
	intn   func(n int) int

	// deliver is handed to every room this registry creates.
	deliver func(dispatch)
}

func newRegistry(cfg *Config) *Registry {
	return &Registry{
		cfg:    cfg,
		rooms:  make(map[string]*Room),
		random: rand.Reader,
		now:    time.Now,
		intn:   mathrand.IntN,
	}
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// create inserts an empty room under a fresh code.
func (reg *Registry) create() (*Room, error) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	for range maxCodeAttempts {
		code, err := generateCode(reg.random)
		if err != nil {
			return nil, fmt.Errorf("generate room code: %w", err)
		}

		if _, exists := reg.rooms[code]; exists {
			continue
		}

		room := newRoom(code, reg.now(), reg.intn)
		room.deliver = reg.deliver
		reg.rooms[code] = room

		logf(reg.cfg, "ROOMS: Created room %s (%d active)", code, len(reg.rooms))

		return room, nil
	}

	return nil, ErrCapacityExhausted
}

func (reg *Registry) get(code string) (*Room, bool) {
	reg.mu.RLock()
	defer reg.mu.RUnlock()

	room, ok := reg.rooms[normalizeCode(code)]

	return room, ok
}

// remove deletes and closes the room stored under code. Unknown codes are ignored.
func (reg *Registry) remove(code string) {
	code = normalizeCode(code)

	reg.mu.Lock()
	room, ok := reg.rooms[code]
	delete(reg.rooms, code)
	reg.mu.Unlock()

	if ok {
		room.close()
		logf(reg.cfg, "ROOMS: Deleted room %s", code)
	}
}

// forget drops room from the map only if it is still the entry for its code.
func (reg *Registry) forget(room *Room) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	if reg.rooms[room.code] == room {
		delete(reg.rooms, room.code)
	}
}

// leave removes the player on conn from room, deleting the room once empty.
func (reg *Registry) leave(room *Room, conn ConnID) dispatch {
	d, emptied := room.leave(conn)
	if emptied {
		reg.forget(room)
		logf(reg.cfg, "ROOMS: Deleted empty room %s", room.code)
	}

	return d
}

// sweepExpired removes every room at least threshold old, occupied or not,
// and returns them closed.
func (reg *Registry) sweepExpired(now time.Time, threshold time.Duration) []*Room {
	reg.mu.RLock()
	var expired []*Room
	for _, room := range reg.rooms {
		if !now.Before(room.createdAt.Add(threshold)) {
			expired = append(expired, room)
		}
	}
	reg.mu.RUnlock()

	for _, room := range expired {
		room.close()
		reg.forget(room)
	}

	return expired
}

// snapshot returns the live rooms in no particular order.
func (reg *Registry) snapshot() []*Room {
	reg.mu.RLock()
	defer reg.mu.RUnlock()

	out := make([]*Room, 0, len(reg.rooms))
	for _, room := range reg.rooms {
		out = append(out, room)
	}

	return out
}

func (reg *Registry) len() int {
	reg.mu.RLock()
	defer reg.mu.RUnlock()

	return len(reg.rooms)
}

// sweepLoop evicts expired rooms every interval until ctx is done.
func (reg *Registry) sweepLoop(ctx context.Context, interval, threshold time.Duration, onExpire func(*Room)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			expired := reg.sweepExpired(reg.now(), threshold)
			for _, room := range expired {
				logf(reg.cfg, "SWEEP: Expired room %s (created %s)", room.code, room.createdAt.Format(logDate))

				if onExpire != nil {
					onExpire(room)
				}
			}
		}
	}
}
