package util

import (
	"crypto/rand"
	"encoding/hex"

	"github.com/google/uuid"
)

// NewID returns a UUID string used as a record identifier.
func NewID() string {
	return uuid.NewString()
}

// NewRequestID returns a short hex token for request correlation.
func NewRequestID() string {
	b := make([]byte, 8)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
