package service

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// ContactHasher derives the at-rest form of a client's contact value. The
// hash is keyed and deterministic: the same contact always maps to the same
// digest, which is what lets duplicate detection compare re-submissions.
type ContactHasher struct {
	key []byte
}

// NewContactHasher returns a hasher keyed with key.
func NewContactHasher(key string) ContactHasher {
	return ContactHasher{key: []byte(key)}
}

// Hash returns the hex-encoded HMAC-SHA256 of contact.
func (h ContactHasher) Hash(contact string) string {
	mac := hmac.New(sha256.New, h.key)
	mac.Write([]byte(contact))
	return hex.EncodeToString(mac.Sum(nil))
}
