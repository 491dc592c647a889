package utils

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashKey maps arbitrary cache keys (usually request URLs) to a fixed length
// hex string which is safe to use as file name or NATS key.
func HashKey(arg string) string {
	hasher := sha256.New()
	hasher.Write([]byte(arg))
	return hex.EncodeToString(hasher.Sum(nil))
}
