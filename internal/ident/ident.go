// Package ident generates record identifiers: 12 random bytes, hex-encoded
// to 24 characters. The same shape the validate package accepts.
package ident

import (
	"crypto/rand"
	"encoding/hex"
)

func New() string {
	b := make([]byte, 12)
	if _, err := rand.Read(b); err != nil {
		panic(err) // crypto/rand never fails on supported platforms
	}
	return hex.EncodeToString(b)
}
