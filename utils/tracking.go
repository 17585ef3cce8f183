package utils

import (
	"crypto/sha256"
	"encoding/base64"

	"github.com/google/uuid"
)

// GenerateTrackingCode returns a short url-safe code for a trackable link.
func GenerateTrackingCode() string {
	hash := sha256.Sum256([]byte(uuid.New().String()))
	return base64.URLEncoding.EncodeToString(hash[:])[:20]
}
