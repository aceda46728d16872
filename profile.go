/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"net/http"
	"net/http/pprof"
	"slices"
	"time"

	"github.com/julienschmidt/httprouter"
)

// RoomDump is one line of the profiling room listing.
type RoomDump struct {
	Code        string `json:"code"`
	CreatedAt   string `json:"createdAt"`
	Age         string `json:"age"`
	PlayerCount int    `json:"playerCount"`
	Active      bool   `json:"active"`
}

func dumpRooms(reg *Registry) []RoomDump {
	now := reg.now()

	rooms := reg.snapshot()
	slices.SortFunc(rooms, func(a, b *Room) int {
		return a.createdAt.Compare(b.createdAt)
	})

	out := make([]RoomDump, 0, len(rooms))
	for _, room := range rooms {
		room.mu.Lock()
		out = append(out, RoomDump{
			Code:        room.code,
			CreatedAt:   room.createdAt.Format(logDate),
			Age:         now.Sub(room.createdAt).Round(time.Second).String(),
			PlayerCount: len(room.players),
			Active:      room.state != nil,
		})
		room.mu.Unlock()
	}

	return out
}

func serveRoomDump(cfg *Config, reg *Registry, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		if err := writeJSON(w, http.StatusOK, dumpRooms(reg)); err != nil {
			errs <- err

			return
		}

		logf(cfg, "SERVE: Room dump to %s", realIP(r))
	}
}

func registerProfileHandlers(cfg *Config, reg *Registry, mux *httprouter.Router, errs chan<- error) {
	for _, name := range []string{"allocs", "block", "goroutine", "heap", "mutex", "threadcreate"} {
		mux.Handler("GET", cfg.prefix+"/pprof/"+name, pprof.Handler(name))
	}

	mux.HandlerFunc("GET", cfg.prefix+"/pprof/cmdline", pprof.Cmdline)
	mux.HandlerFunc("GET", cfg.prefix+"/pprof/profile", pprof.Profile)
	mux.HandlerFunc("GET", cfg.prefix+"/pprof/symbol", pprof.Symbol)
	mux.HandlerFunc("GET", cfg.prefix+"/pprof/trace", pprof.Trace)

	mux.GET(cfg.prefix+"/pprof/rooms", serveRoomDump(cfg, reg, errs))
}
