// Package signature canonicalizes gateway parameter sets and signs them with a keyed hash.
package signature

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"hash"
	"net/url"
	"sort"
	"strings"
)

// Canonicalizer turns a parameter set into the exact string a gateway signs.
type Canonicalizer interface {
	Canonical(params map[string]string) string
}

// FixedOrder joins key=value pairs in the caller-specified field order.
// Values are trimmed. Empty values are skipped unless KeepEmpty is set,
// in which case they are emitted as "key=".
type FixedOrder struct {
	Fields    []string
	KeepEmpty bool
}

func (f FixedOrder) Canonical(params map[string]string) string {
	parts := make([]string, 0, len(f.Fields))
	for _, k := range f.Fields {
		v := strings.TrimSpace(params[k])
		if v == "" && !f.KeepEmpty {
			continue
		}
		parts = append(parts, k+"="+v)
	}
	return strings.Join(parts, "&")
}

// SortedEncoded joins key=value pairs sorted by key, with values
// form-encoded (space as "+"). Empty values are skipped.
type SortedEncoded struct{}

func (SortedEncoded) Canonical(params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k, v := range params {
		if v == "" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(params[k]))
	}
	return b.String()
}

// Signer computes hex HMAC digests with a gateway-specific secret.
type Signer struct {
	newHash func() hash.Hash
	secret  []byte
}

func NewHMACSHA256(secret string) *Signer {
	return &Signer{newHash: sha256.New, secret: []byte(secret)}
}

func NewHMACSHA512(secret string) *Signer {
	return &Signer{newHash: sha512.New, secret: []byte(secret)}
}

func (s *Signer) mac(message string) []byte {
	m := hmac.New(s.newHash, s.secret)
	m.Write([]byte(message))
	return m.Sum(nil)
}

// Sign returns the lower-case hex digest of message.
func (s *Signer) Sign(message string) string {
	return hex.EncodeToString(s.mac(message))
}

// Verify reports whether digest is exactly the lower-case hex digest of
// message. The comparison is constant-time.
func (s *Signer) Verify(message, digest string) bool {
	return hmac.Equal([]byte(digest), []byte(s.Sign(message)))
}

// Codec pairs a canonicalization rule with a signer.
type Codec struct {
	Canonicalizer Canonicalizer
	Signer        *Signer
}

func NewCodec(c Canonicalizer, s *Signer) *Codec {
	return &Codec{Canonicalizer: c, Signer: s}
}

// Message returns the canonical string for params.
func (c *Codec) Message(params map[string]string) string {
	return c.Canonicalizer.Canonical(params)
}

func (c *Codec) Sign(params map[string]string) string {
	return c.Signer.Sign(c.Message(params))
}

func (c *Codec) Verify(params map[string]string, digest string) bool {
	return c.Signer.Verify(c.Message(params), digest)
}
