package gateway

import "testing"

func TestParseCorrelation(t *testing.T) {
	tests := []struct {
		in      string
		want    Correlation
		wantErr bool
	}{
		{in: "12-34", want: Correlation{OrderID: 12, PaymentID: 34}},
		{in: " 7-8 ", want: Correlation{OrderID: 7, PaymentID: 8}},
		{in: "1234", wantErr: true},
		{in: "a-1", wantErr: true},
		{in: "1-b", wantErr: true},
		{in: "0-5", wantErr: true},
		{in: "5--1", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tt := range tests {
		got, err := ParseCorrelation(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseCorrelation(%q) = %+v, want error", tt.in, got)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("ParseCorrelation(%q) = %+v, %v", tt.in, got, err)
		}
	}
}

func TestCorrelationRoundTrip(t *testing.T) {
	c := Correlation{OrderID: 1587, PaymentID: 42}
	got, err := ParseCorrelation(c.String())
	if err != nil || got != c {
		t.Fatalf("round trip = %+v, %v", got, err)
	}
}
