// Package qrtoken issues and verifies compact signed tokens for ticket QR codes.
//
// A token is three dot-separated unpadded URL-safe base64 segments:
// a fixed header, the JSON payload, and an HMAC-SHA256 digest over
// "header.payload". Verification is stateless and never panics.
package qrtoken

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
)

const (
	MessageOK               = "OK"
	MessageMalformed        = "Malformed QR: expected 3 segments"
	MessageBadEncoding      = "Malformed QR: invalid base64"
	MessageBadHeader        = "Malformed QR: unsupported header"
	MessageInvalidSignature = "Invalid signature"
	MessageBadPayload       = "Malformed QR: payload is not JSON"
)

var header = []byte(`{"alg":"HS256","typ":"QR"}`)

var enc = base64.RawURLEncoding

// Claims is the payload bound into a ticket's QR code.
type Claims struct {
	TicketID int64 `json:"tid"`
	OrderID  int64 `json:"oid"`
	EventID  int64 `json:"eid"`
}

// Result is the outcome of Verify.
type Result struct {
	Valid   bool
	Payload json.RawMessage
	Message string
}

// Decode unmarshals the verified payload into v.
func (r Result) Decode(v any) error {
	if !r.Valid {
		return errors.New(r.Message)
	}
	return json.Unmarshal(r.Payload, v)
}

type Codec struct {
	secret []byte
}

func New(secret string) *Codec {
	return &Codec{secret: []byte(secret)}
}

func (c *Codec) digest(signingInput string) string {
	m := hmac.New(sha256.New, c.secret)
	m.Write([]byte(signingInput))
	return enc.EncodeToString(m.Sum(nil))
}

// Sign serializes payload to JSON and returns the signed token.
func (c *Codec) Sign(payload any) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	signingInput := enc.EncodeToString(header) + "." + enc.EncodeToString(body)
	return signingInput + "." + c.digest(signingInput), nil
}

// Verify authenticates token and returns its payload.
func (c *Codec) Verify(token string) Result {
	parts := strings.Split(strings.TrimSpace(token), ".")
	if len(parts) != 3 {
		return Result{Message: MessageMalformed}
	}

	h, err := enc.DecodeString(parts[0])
	if err != nil {
		return Result{Message: MessageBadEncoding}
	}
	p, err := enc.DecodeString(parts[1])
	if err != nil {
		return Result{Message: MessageBadEncoding}
	}
	if _, err := enc.DecodeString(parts[2]); err != nil {
		return Result{Message: MessageBadEncoding}
	}

	if !hmac.Equal([]byte(parts[2]), []byte(c.digest(parts[0]+"."+parts[1]))) {
		return Result{Message: MessageInvalidSignature}
	}
	if string(h) != string(header) {
		return Result{Message: MessageBadHeader}
	}
	if !json.Valid(p) {
		return Result{Message: MessageBadPayload}
	}

	return Result{Valid: true, Payload: json.RawMessage(p), Message: MessageOK}
}

// SignClaims is Sign for the ticket payload.
func (c *Codec) SignClaims(claims Claims) (string, error) {
	return c.Sign(claims)
}

// VerifyClaims verifies token and decodes the ticket payload.
func (c *Codec) VerifyClaims(token string) (Claims, Result) {
	var claims Claims
	res := c.Verify(token)
	if !res.Valid {
		return claims, res
	}
	if err := res.Decode(&claims); err != nil {
		return Claims{}, Result{Message: MessageBadPayload}
	}
	return claims, res
}
