package qrtoken

import (
	"encoding/base64"
	"strings"
	"testing"
)

func TestRoundTrip(t *testing.T) {
	c := New("test-secret")

	payloads := []Claims{
		{TicketID: 1, OrderID: 2, EventID: 3},
		{TicketID: 9007199254740, OrderID: 0, EventID: 5},
		{},
	}

	for _, want := range payloads {
		token, err := c.SignClaims(want)
		if err != nil {
			t.Fatalf("SignClaims: %v", err)
		}
		if n := strings.Count(token, "."); n != 2 {
			t.Fatalf("token has %d dots, want 2", n)
		}

		got, res := c.VerifyClaims(token)
		if !res.Valid || res.Message != MessageOK {
			t.Fatalf("VerifyClaims = %+v", res)
		}
		if got != want {
			t.Fatalf("claims = %+v, want %+v", got, want)
		}
	}
}

func TestRoundTripArbitraryPayload(t *testing.T) {
	c := New("s")
	token, err := c.Sign(map[string]string{"k": "v", "unicode": "vé sự kiện"})
	if err != nil {
		t.Fatal(err)
	}
	var got map[string]string
	res := c.Verify(token)
	if err := res.Decode(&got); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got["k"] != "v" || got["unicode"] != "vé sự kiện" {
		t.Fatalf("payload = %v", got)
	}
}

func TestPayloadTamperRejected(t *testing.T) {
	c := New("test-secret")
	token, _ := c.SignClaims(Claims{TicketID: 10, OrderID: 20, EventID: 30})
	parts := strings.Split(token, ".")

	raw, _ := base64.RawURLEncoding.DecodeString(parts[1])
	for i := range raw {
		mutated := append([]byte(nil), raw...)
		mutated[i] ^= 0x01
		forged := parts[0] + "." + base64.RawURLEncoding.EncodeToString(mutated) + "." + parts[2]
		if res := c.Verify(forged); res.Valid {
			t.Fatalf("byte %d mutation accepted", i)
		}
	}
}

func TestVerifyFailureMessages(t *testing.T) {
	c := New("test-secret")
	good, _ := c.SignClaims(Claims{TicketID: 1, OrderID: 1, EventID: 1})
	parts := strings.Split(good, ".")

	notJSON := base64.RawURLEncoding.EncodeToString([]byte("not json"))
	notJSONToken := parts[0] + "." + notJSON + "." + c.digest(parts[0]+"."+notJSON)

	otherHeader := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"none"}`))
	otherHeaderToken := otherHeader + "." + parts[1] + "." + c.digest(otherHeader+"."+parts[1])

	tests := []struct {
		name  string
		token string
		want  string
	}{
		{"empty", "", MessageMalformed},
		{"two segments", parts[0] + "." + parts[1], MessageMalformed},
		{"four segments", good + ".x", MessageMalformed},
		{"bad base64", parts[0] + ".!!!." + parts[2], MessageBadEncoding},
		{"wrong signature", parts[0] + "." + parts[1] + "." + c.digest("other"), MessageInvalidSignature},
		{"other secret", mustSign(t, New("other")), MessageInvalidSignature},
		{"non-json payload", notJSONToken, MessageBadPayload},
		{"unsupported header", otherHeaderToken, MessageBadHeader},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := c.Verify(tt.token)
			if res.Valid {
				t.Fatal("expected invalid")
			}
			if res.Message != tt.want {
				t.Fatalf("message = %q, want %q", res.Message, tt.want)
			}
			if res.Payload != nil {
				t.Fatal("payload must be nil when invalid")
			}
		})
	}
}

func mustSign(t *testing.T, c *Codec) string {
	t.Helper()
	token, err := c.SignClaims(Claims{TicketID: 1, OrderID: 1, EventID: 1})
	if err != nil {
		t.Fatal(err)
	}
	return token
}

func TestSignatureLastCharacterMatters(t *testing.T) {
	c := New("test-secret")
	token, err := c.SignClaims(Claims{TicketID: 7, OrderID: 8, EventID: 9})
	if err != nil {
		t.Fatalf("SignClaims: %v", err)
	}

	const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-_"
	last := token[len(token)-1]
	for i := 0; i < len(alphabet); i++ {
		if alphabet[i] == last {
			continue
		}
		forged := token[:len(token)-1] + string(alphabet[i])
		if res := c.Verify(forged); res.Valid {
			t.Fatalf("token ending %q verified", alphabet[i])
		}
	}
}
