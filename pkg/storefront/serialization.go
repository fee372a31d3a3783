package storefront

import (
	"encoding/json"
	"fmt"
)

// Serialization helpers for converting between Go structs and Redis hashes
//
// Redis stores data as string-to-string maps (hashes). The guest cart is a
// hash keyed by variant ID, with each value a JSON-encoded record carrying the
// quantity and an add-order counter. The session is a flat hash of string
// fields. Individual fields stay queryable while complex values remain
// flexible.

// guestRecord is the stored form of one guest cart line. AddedAtMs preserves
// insertion order across reads, since Redis hashes are unordered.
type guestRecord struct {
	Quantity  int   `json:"quantity"`
	AddedAtMs int64 `json:"added_at_ms"`
}

func encodeGuestRecord(rec guestRecord) (string, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return "", fmt.Errorf("failed to marshal guest cart record: %w", err)
	}
	return string(data), nil
}

func decodeGuestRecord(value string) (guestRecord, error) {
	var rec guestRecord
	if err := json.Unmarshal([]byte(value), &rec); err != nil {
		return guestRecord{}, fmt.Errorf("failed to unmarshal guest cart record: %w", err)
	}
	return rec, nil
}

// SessionToHash converts a Session to a Redis hash format.
func SessionToHash(s *Session) map[string]interface{} {
	return map[string]interface{}{
		"user_id":       s.UserID,
		"email":         s.Email,
		"access_token":  s.AccessToken,
		"refresh_token": s.RefreshToken,
	}
}

// HashToSession converts a Redis hash to a Session struct.
func HashToSession(hash map[string]string) *Session {
	return &Session{
		UserID:       hash["user_id"],
		Email:        hash["email"],
		AccessToken:  hash["access_token"],
		RefreshToken: hash["refresh_token"],
	}
}
