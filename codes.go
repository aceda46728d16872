/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"io"
)

const (
	codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	codeLength   = 6

	// maxCodeAttempts bounds the collision retry loop in Registry.create.
	maxCodeAttempts = 1000
)

// generateCode draws a room code from r. The alphabet has 32 symbols, so
// reducing a random byte modulo its length keeps every symbol equally likely.
func generateCode(r io.Reader) (string, error) {
	buf := make([]byte, codeLength)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}

	out := make([]byte, codeLength)
	for i := range out {
		out[i] = codeAlphabet[int(buf[i])%len(codeAlphabet)]
	}

	return string(out), nil
}
