// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ident

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base32"
	"encoding/hex"

	"github.com/google/uuid"
)

// NewID returns a random UUID for submissions and notes.
func NewID() string {
	return uuid.NewString()
}

// HashSender creates a one-way hash of a transport sender id (a phone
// number, usually) so submissions can be traced without storing it.
// Includes salt to prevent rainbow table attacks
func HashSender(sender, salt string) string {
	if sender == "" {
		return ""
	}
	h := hmac.New(sha256.New, []byte(salt))
	h.Write([]byte(sender))
	sum := h.Sum(nil)
	// Return first 16 hex chars (64 bits) - enough for tracing
	return hex.EncodeToString(sum[:8])
}

// refEncoding is Crockford's base32 alphabet: digits and uppercase letters
// without I, L, O and U, so a reference survives being retyped from an SMS.
var refEncoding = base32.NewEncoding("0123456789ABCDEFGHJKMNPQRSTVWXYZ").WithPadding(base32.NoPadding)

// ShortRef creates a short, deterministic reference for a submission that
// fits in an SMS reply.
func ShortRef(submissionID, salt string) string {
	h := hmac.New(sha256.New, []byte(salt))
	h.Write([]byte(submissionID))
	sum := h.Sum(nil)

	// 5 bytes encode to exactly 8 characters
	return refEncoding.EncodeToString(sum[:5])
}
