/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"encoding/json"
	"net/http"
	"net/url"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/skip2/go-qrcode"
)

const qrSize = 320

// RoomStatus answers whether a code can still be joined.
type RoomStatus struct {
	Exists      bool `json:"exists"`
	Full        bool `json:"full"`
	PlayerCount int  `json:"playerCount"`
}

func lookupRoom(reg *Registry, code string) (RoomStatus, bool) {
	room, ok := reg.get(code)
	if !ok {
		return RoomStatus{}, false
	}

	count, live := room.occupancy()
	if !live {
		return RoomStatus{}, false
	}

	return RoomStatus{
		Exists:      true,
		Full:        count >= maxPlayers,
		PlayerCount: count,
	}, true
}

func writeJSON(w http.ResponseWriter, status int, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)

	_, err = w.Write(data)

	return err
}

func serveRoomStatus(cfg *Config, reg *Registry, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		startTime := time.Now()

		securityHeaders(cfg, w)

		status, ok := lookupRoom(reg, p.ByName("code"))
		code := http.StatusOK
		if !ok {
			code = http.StatusNotFound
		}

		if err := writeJSON(w, code, status); err != nil {
			errs <- err

			return
		}

		logf(cfg, "SERVE: Room status for %q (%t) to %s in %s",
			p.ByName("code"),
			status.Exists,
			realIP(r),
			time.Since(startTime).Round(time.Microsecond),
		)
	}
}

// joinURL is the link a second player opens to land in the room.
func joinURL(cfg *Config, r *http.Request, code string) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}

	u := url.URL{
		Scheme:   scheme,
		Host:     r.Host,
		Path:     cfg.prefix + "/",
		RawQuery: url.Values{"room": {code}}.Encode(),
	}

	return u.String()
}

func serveRoomQR(cfg *Config, reg *Registry, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		room, ok := reg.get(p.ByName("code"))
		if !ok {
			http.Error(w, "room not found", http.StatusNotFound)

			return
		}

		png, err := qrcode.Encode(joinURL(cfg, r, room.code), qrcode.Medium, qrSize)
		if err != nil {
			http.Error(w, "qr generation failed", http.StatusInternalServerError)

			return
		}

		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Cache-Control", "no-store")
		securityHeaders(cfg, w)

		if _, err := w.Write(png); err != nil {
			errs <- err

			return
		}
	}
}

func serveHealthCheck(cfg *Config, reg *Registry, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		securityHeaders(cfg, w)

		err := writeJSON(w, http.StatusOK, map[string]any{
			"status": "ok",
			"rooms":  reg.len(),
		})
		if err != nil {
			errs <- err

			return
		}
	}
}

func registerRooms(cfg *Config, reg *Registry, mux *httprouter.Router, errs chan<- error) {
	mux.GET(cfg.prefix+"/room/:code", serveRoomStatus(cfg, reg, errs))
	mux.GET(cfg.prefix+"/room/:code/qr", serveRoomQR(cfg, reg, errs))
	mux.GET(cfg.prefix+"/healthz", serveHealthCheck(cfg, reg, errs))
}
