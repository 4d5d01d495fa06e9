package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Clock returns the current time. Components take one so tests can pin time.
type Clock func() time.Time

func GetCurrentTime() time.Time {
	return time.Now().UTC()
}

// OrDefault returns c, or the wall clock when c is nil.
func (c Clock) OrDefault() Clock {
	if c == nil {
		return GetCurrentTime
	}
	return c
}

// HashKey is the hex SHA-256 of value, used to build fixed-length cache keys from URLs.
func HashKey(value string) string {
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:])
}
