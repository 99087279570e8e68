package security

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"github.com/oklog/ulid/v2"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// GenerateULID generates a new ULID string.
func GenerateULID() string {
	return ulid.Make().String()
}

// NewObjectID generates a 24-character hex record id.
func NewObjectID() string {
	return bson.NewObjectID().Hex()
}

// IsObjectID reports whether s is a well-formed record id.
func IsObjectID(s string) bool {
	_, err := bson.ObjectIDFromHex(s)
	return err == nil
}

// GenerateSecureKey returns hexChars random hex characters. hexChars must be
// a positive even number.
func GenerateSecureKey(hexChars int) (string, error) {
	if hexChars <= 0 || hexChars%2 != 0 {
		return "", fmt.Errorf("secure key length must be a positive even number, got %d", hexChars)
	}
	buf := make([]byte, hexChars/2)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
