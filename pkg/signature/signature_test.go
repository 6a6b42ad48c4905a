package signature

import (
	"strings"
	"testing"
)

func TestFixedOrderCanonical(t *testing.T) {
	params := map[string]string{
		"orderId":   "1-2",
		"amount":    "300000",
		"accessKey": " AK ",
		"extraData": "",
	}

	got := FixedOrder{Fields: []string{"accessKey", "amount", "extraData", "orderId"}}.Canonical(params)
	if want := "accessKey=AK&amount=300000&orderId=1-2"; got != want {
		t.Fatalf("canonical = %q, want %q", got, want)
	}

	got = FixedOrder{Fields: []string{"accessKey", "amount", "extraData", "orderId"}, KeepEmpty: true}.Canonical(params)
	if want := "accessKey=AK&amount=300000&extraData=&orderId=1-2"; got != want {
		t.Fatalf("canonical keep-empty = %q, want %q", got, want)
	}
}

func TestFixedOrderIgnoresUnlistedFields(t *testing.T) {
	got := FixedOrder{Fields: []string{"b", "a"}}.Canonical(map[string]string{"a": "1", "b": "2", "z": "9"})
	if got != "b=2&a=1" {
		t.Fatalf("canonical = %q", got)
	}
}

func TestSortedEncodedCanonical(t *testing.T) {
	params := map[string]string{
		"vnp_TxnRef":    "TXN-1",
		"vnp_OrderInfo": "Thanh toan 1-2",
		"vnp_Amount":    "30000000",
		"vnp_BankCode":  "",
	}
	got := SortedEncoded{}.Canonical(params)
	want := "vnp_Amount=30000000&vnp_OrderInfo=Thanh+toan+1-2&vnp_TxnRef=TXN-1"
	if got != want {
		t.Fatalf("canonical = %q, want %q", got, want)
	}

	if got := (SortedEncoded{}).Canonical(map[string]string{"k": "a b/c~_.-:"}); got != "k=a+b%2Fc~_.-%3A" {
		t.Fatalf("encoding = %q", got)
	}
}

func TestSignKnownDigests(t *testing.T) {
	tests := []struct {
		name    string
		signer  *Signer
		message string
		want    string
	}{
		{
			name:    "sha256",
			signer:  NewHMACSHA256("secret"),
			message: "accessKey=AK&amount=300000&orderId=1-2",
			want:    "c85a508e92725bbd8dbf7f89f8e5174266bb567c8ed6ffb041c27fbc6fa7e429",
		},
		{
			name:    "sha512",
			signer:  NewHMACSHA512("secret"),
			message: "vnp_Amount=30000000&vnp_OrderInfo=Thanh+toan+1-2&vnp_TxnRef=TXN-1",
			want:    "0bc56a1a713a5342c8f14226fb39f33e7a125420b46b55b0275e3575fa834928c54a40fea2be4641617ce7ef9aaed2e02fca6da2dcbd0b1ee5d5a0b7cd6d1b28",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.signer.Sign(tt.message); got != tt.want {
				t.Fatalf("Sign = %s, want %s", got, tt.want)
			}
			if !tt.signer.Verify(tt.message, tt.want) {
				t.Fatal("Verify rejected its own digest")
			}
			if tt.signer.Verify(tt.message, strings.ToUpper(tt.want)) {
				t.Fatal("Verify accepted upper-case digest")
			}
		})
	}
}

func TestVerifyRejectsTampering(t *testing.T) {
	s := NewHMACSHA256("secret")
	msg := "a=1&b=2"
	sig := s.Sign(msg)

	for i := range sig {
		flipped := []byte(sig)
		if flipped[i] == '0' {
			flipped[i] = '1'
		} else {
			flipped[i] = '0'
		}
		if s.Verify(msg, string(flipped)) {
			t.Fatalf("Verify accepted digest with byte %d flipped", i)
		}
	}

	if s.Verify("a=1&b=3", sig) {
		t.Fatal("Verify accepted a different message")
	}
	if s.Verify(msg, "not-hex") {
		t.Fatal("Verify accepted non-hex digest")
	}
	if NewHMACSHA256("other").Verify(msg, sig) {
		t.Fatal("Verify accepted digest under a different secret")
	}
}

func TestCodec(t *testing.T) {
	c := NewCodec(SortedEncoded{}, NewHMACSHA512("k"))
	params := map[string]string{"b": "2", "a": "1"}
	sig := c.Sign(params)
	if c.Message(params) != "a=1&b=2" {
		t.Fatalf("message = %q", c.Message(params))
	}
	if !c.Verify(params, sig) {
		t.Fatal("codec failed to verify its own signature")
	}
}

func TestVerifyRejectsCaseFlip(t *testing.T) {
	s := NewHMACSHA256("secret")
	msg := "a=1&b=2"
	sig := s.Sign(msg)

	for i, c := range sig {
		if c < 'a' || c > 'f' {
			continue
		}
		flipped := sig[:i] + strings.ToUpper(string(c)) + sig[i+1:]
		if s.Verify(msg, flipped) {
			t.Fatalf("Verify accepted digest with letter %d upper-cased", i)
		}
	}
	if s.Verify(msg, sig+" ") {
		t.Fatal("Verify accepted digest with trailing space")
	}
}
