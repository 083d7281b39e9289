// Package token implements the signed session token carried inside QR
// codes: an HMAC-SHA256 authenticated payload naming the session it was
// issued for and its validity window.
package token

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/awnumar/memguard"

	"github.com/tebraouisamy/presence-app/internal/util"
)

// prefix versions the wire format so the codec can evolve without
// misinterpreting old tokens.
const prefix = "ATv1"

// MinKeySize is the smallest accepted signing key length.
const MinKeySize = 16

var (
	// ErrMalformedToken indicates the token does not have the expected
	// structure or its payload cannot be parsed.
	ErrMalformedToken = errors.New("malformed token")
	// ErrBadSignature indicates the integrity tag does not match the payload.
	ErrBadSignature = errors.New("token signature mismatch")
)

// Token is the proof-of-presence payload exchanged through a QR code.
// It is immutable once issued. Expiry is enforced by the consumer, not the
// codec: Decode verifies structure and integrity only.
type Token struct {
	SessionID string
	IssuedAt  time.Time
	ValidFor  time.Duration
}

// ExpiresAt returns the instant after which the token is no longer valid.
func (t Token) ExpiresAt() time.Time {
	return t.IssuedAt.Add(t.ValidFor)
}

// Expired reports whether the token's validity window has passed at now.
func (t Token) Expired(now time.Time) bool {
	return now.After(t.ExpiresAt())
}

// payload is the JSON wire form. Validity travels in whole minutes, the
// granularity tokens are issued at.
type payload struct {
	SessionID string `json:"sid"`
	IssuedAt  int64  `json:"iat"`
	ValidMins int64  `json:"vld"`
}

// Codec signs and verifies session tokens with a keyed MAC. The signing key
// lives in a sealed memguard enclave and is only unsealed for the duration
// of a MAC computation.
type Codec struct {
	key *memguard.Enclave
}

// NewCodec returns a Codec signing with the given key. The key is copied
// into a sealed enclave; callers should wipe their own copy when done.
func NewCodec(key []byte) (*Codec, error) {
	if len(key) < MinKeySize {
		return nil, fmt.Errorf("signing key must be at least %d bytes, got %d", MinKeySize, len(key))
	}
	// NewEnclave wipes the slice it is given, so seal a private copy.
	return &Codec{key: memguard.NewEnclave(util.CopyBytes(key))}, nil
}

func (c *Codec) mac(data []byte) ([]byte, error) {
	buf, err := c.key.Open()
	if err != nil {
		return nil, fmt.Errorf("opening signing key enclave: %w", err)
	}
	defer buf.Destroy()
	h := hmac.New(sha256.New, buf.Bytes())
	h.Write(data)
	return h.Sum(nil), nil
}

// Encode serialises and signs tok.
func (c *Codec) Encode(tok Token) (string, error) {
	if tok.SessionID == "" {
		return "", fmt.Errorf("token session ID must not be empty")
	}
	p := payload{
		SessionID: tok.SessionID,
		IssuedAt:  tok.IssuedAt.Unix(),
		ValidMins: int64(tok.ValidFor / time.Minute),
	}
	data, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("encoding token payload: %w", err)
	}
	tag, err := c.mac(data)
	if err != nil {
		return "", err
	}
	enc := base64.RawURLEncoding
	return prefix + "." + enc.EncodeToString(data) + "." + enc.EncodeToString(tag), nil
}

// Decode parses and verifies an encoded token. It fails closed: structural
// problems and signature mismatches both return an error and no partial
// token data is trusted.
func (c *Codec) Decode(s string) (Token, error) {
	parts := strings.Split(s, ".")
	if len(parts) != 3 || parts[0] != prefix {
		return Token{}, ErrMalformedToken
	}
	enc := base64.RawURLEncoding
	data, err := enc.DecodeString(parts[1])
	if err != nil {
		return Token{}, fmt.Errorf("%w: payload is not valid base64", ErrMalformedToken)
	}
	tag, err := enc.DecodeString(parts[2])
	if err != nil {
		return Token{}, fmt.Errorf("%w: signature is not valid base64", ErrMalformedToken)
	}
	// Verify the MAC before looking at the payload at all.
	want, err := c.mac(data)
	if err != nil {
		return Token{}, err
	}
	if !hmac.Equal(tag, want) {
		return Token{}, ErrBadSignature
	}
	var p payload
	if err := json.Unmarshal(data, &p); err != nil {
		return Token{}, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}
	if p.SessionID == "" {
		return Token{}, fmt.Errorf("%w: empty session ID", ErrMalformedToken)
	}
	return Token{
		SessionID: p.SessionID,
		IssuedAt:  time.Unix(p.IssuedAt, 0).UTC(),
		ValidFor:  time.Duration(p.ValidMins) * time.Minute,
	}, nil
}
