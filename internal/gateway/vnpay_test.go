package gateway_test

import (
	"context"
	"net/url"
	"strings"
	"testing"

	"event-ticketing/internal/data/entity"
	"event-ticketing/internal/gateway"
	"event-ticketing/pkg/signature"
	"event-ticketing/pkg/utils"

	"go.uber.org/zap"
)

const vnpSecret = "SECRETKEYVNPAYSANDBOX0123456789"

func newVNPay(h *harness) *gateway.VNPay {
	return gateway.NewVNPay(utils.VNPayConfig{
		TmnCode:    "DEMO0001",
		HashSecret: vnpSecret,
		PayURL:     "https://sandbox.vnpayment.vn/paymentv2/vpcpay.html",
		ReturnURL:  "http://localhost:8080/api/payments/vnpay/return",
		Version:    "2.1.0",
		Command:    "pay",
		Locale:     "vn",
	}, h.reconciler, zap.NewNop())
}

func vnpCodec() *signature.Codec {
	return signature.NewCodec(signature.SortedEncoded{}, signature.NewHMACSHA512(vnpSecret))
}

// vnpCallback turns the redirect query into the callback VNPay would send.
func vnpCallback(t *testing.T, payURL, responseCode, amount string) map[string]string {
	t.Helper()
	u, err := url.Parse(payURL)
	if err != nil {
		t.Fatalf("parse pay url: %v", err)
	}
	q := gateway.QueryParams(u.Query())
	params := map[string]string{
		"vnp_TmnCode":           q["vnp_TmnCode"],
		"vnp_Amount":            q["vnp_Amount"],
		"vnp_BankCode":          "NCB",
		"vnp_BankTranNo":        "VNP14422574",
		"vnp_CardType":          "ATM",
		"vnp_OrderInfo":         q["vnp_OrderInfo"],
		"vnp_PayDate":           "20260620150000",
		"vnp_ResponseCode":      responseCode,
		"vnp_TransactionNo":     "14422574",
		"vnp_TransactionStatus": responseCode,
		"vnp_TxnRef":            q["vnp_TxnRef"],
	}
	if amount != "" {
		params["vnp_Amount"] = amount
	}
	params["vnp_SecureHash"] = vnpCodec().Sign(params)
	params["vnp_SecureHashType"] = "HmacSHA512"
	return params
}

func TestVNPayInitiateSignsRedirect(t *testing.T) {
	h := newHarness(10)
	v := newVNPay(h)
	order := h.order(3)

	init, err := v.Initiate(context.Background(), order.ID, nil, "203.0.113.9")
	if err != nil {
		t.Fatalf("Initiate: %v", err)
	}
	if !strings.HasPrefix(init.PayURL, "https://sandbox.vnpayment.vn/paymentv2/vpcpay.html?") {
		t.Fatalf("pay url = %s", init.PayURL)
	}

	u, _ := url.Parse(init.PayURL)
	q := gateway.QueryParams(u.Query())
	if q["vnp_Amount"] != "30000000" {
		t.Fatalf("vnp_Amount = %s", q["vnp_Amount"])
	}
	if q["vnp_OrderInfo"] != corrOf(init) || q["vnp_TxnRef"] != init.Reference {
		t.Fatalf("correlation = %s / %s", q["vnp_OrderInfo"], q["vnp_TxnRef"])
	}
	if q["vnp_IpAddr"] != "203.0.113.9" || len(q["vnp_CreateDate"]) != 14 {
		t.Fatalf("ip/date = %s / %s", q["vnp_IpAddr"], q["vnp_CreateDate"])
	}

	hash := q["vnp_SecureHash"]
	delete(q, "vnp_SecureHash")
	if !vnpCodec().Verify(q, hash) {
		t.Fatal("redirect signature does not verify")
	}
	if h.paymentStatus(init.PaymentID) != entity.PaymentStatusPending {
		t.Fatal("payment should be PENDING")
	}
}

func TestVNPayIPN(t *testing.T) {
	h := newHarness(10)
	v := newVNPay(h)
	order := h.order(3)
	init, err := v.Initiate(context.Background(), order.ID, nil, "")
	if err != nil {
		t.Fatalf("Initiate: %v", err)
	}

	tampered := vnpCallback(t, init.PayURL, "00", "")
	tampered["vnp_BankCode"] = "VCB"
	if out := v.ProcessNotification(context.Background(), tampered); out.Ack != (gateway.VNPayAck{RspCode: "97", Message: "Invalid Checksum"}) {
		t.Fatalf("tampered ack = %+v", out.Ack)
	}

	garbled := vnpCallback(t, init.PayURL, "00", "abc")
	if out := v.ProcessNotification(context.Background(), garbled); out.Ack != (gateway.VNPayAck{RspCode: "04", Message: "Invalid amount"}) {
		t.Fatalf("garbled amount ack = %+v", out.Ack)
	}

	short := vnpCallback(t, init.PayURL, "00", "29999900")
	if out := v.ProcessNotification(context.Background(), short); out.Ack != (gateway.VNPayAck{RspCode: "04", Message: "Invalid amount"}) {
		t.Fatalf("amount ack = %+v", out.Ack)
	}
	if h.store.TicketCount() != 0 || h.paymentStatus(init.PaymentID) != entity.PaymentStatusPending {
		t.Fatal("rejected IPNs changed state")
	}

	ok := vnpCallback(t, init.PayURL, "00", "")
	for i := 0; i < 2; i++ {
		out := v.ProcessNotification(context.Background(), ok)
		if out.Ack != (gateway.VNPayAck{RspCode: "00", Message: "Confirm Success"}) {
			t.Fatalf("delivery %d ack = %+v", i, out.Ack)
		}
	}
	if h.paymentStatus(init.PaymentID) != entity.PaymentStatusSuccess {
		t.Fatal("payment not SUCCESS")
	}
	if n := len(h.store.TicketsOfOrder(order.ID)); n != 3 {
		t.Fatalf("tickets = %d, want 3", n)
	}
	if len(h.events.Issued) != 1 {
		t.Fatalf("issued events = %d", len(h.events.Issued))
	}
}

func TestVNPayAcceptsUpperCaseHash(t *testing.T) {
	h := newHarness(10)
	v := newVNPay(h)
	order := h.order(1)
	init, err := v.Initiate(context.Background(), order.ID, nil, "")
	if err != nil {
		t.Fatalf("Initiate: %v", err)
	}

	params := vnpCallback(t, init.PayURL, "00", "")
	params["vnp_SecureHash"] = strings.ToUpper(params["vnp_SecureHash"])
	if out := v.ProcessNotification(context.Background(), params); !out.Accepted {
		t.Fatalf("upper-case hash rejected: %+v", out.Ack)
	}
	if h.paymentStatus(init.PaymentID) != entity.PaymentStatusSuccess {
		t.Fatal("payment not SUCCESS")
	}
}

func TestVNPayUnknownOrder(t *testing.T) {
	h := newHarness(10)
	v := newVNPay(h)
	params := map[string]string{
		"vnp_Amount":            "10000000",
		"vnp_OrderInfo":         "777-778",
		"vnp_ResponseCode":      "00",
		"vnp_TransactionStatus": "00",
	}
	params["vnp_SecureHash"] = vnpCodec().Sign(params)

	if out := v.ProcessNotification(context.Background(), params); out.Ack != (gateway.VNPayAck{RspCode: "01", Message: "Order not found"}) {
		t.Fatalf("ack = %+v", out.Ack)
	}
}

func TestVNPayDeclined(t *testing.T) {
	h := newHarness(10)
	v := newVNPay(h)
	order := h.order(1)
	init, _ := v.Initiate(context.Background(), order.ID, nil, "")

	out := v.ProcessNotification(context.Background(), vnpCallback(t, init.PayURL, "24", ""))
	if out.Ack != (gateway.VNPayAck{RspCode: "00", Message: "Confirm Success"}) {
		t.Fatalf("ack = %+v", out.Ack)
	}
	if h.paymentStatus(init.PaymentID) != entity.PaymentStatusFailed || h.store.TicketCount() != 0 {
		t.Fatal("declined payment should be FAILED without tickets")
	}
}

func TestVNPayReturnIsReadOnly(t *testing.T) {
	h := newHarness(10)
	v := newVNPay(h)
	order := h.order(1)
	init, _ := v.Initiate(context.Background(), order.ID, nil, "")

	info := v.ProcessBrowserReturn(context.Background(), vnpCallback(t, init.PayURL, "00", ""))
	if !info.Verified || info.LedgerStatus != entity.PaymentStatusPending {
		t.Fatalf("info = %+v", info)
	}
	if info.Amount == nil || info.Amount.IntPart() != 100000 {
		t.Fatalf("amount = %v", info.Amount)
	}
	if h.paymentStatus(init.PaymentID) != entity.PaymentStatusPending {
		t.Fatal("browser return must not write")
	}
}

func TestRegistry(t *testing.T) {
	h := newHarness(1)
	reg := gateway.NewRegistry(newVNPay(h), newMoMo(h, "http://127.0.0.1:1"))

	if g, err := reg.Get("vnpay"); err != nil || g.Method() != entity.PaymentMethodBankTransfer {
		t.Fatalf("vnpay = %v, %v", g, err)
	}
	if _, err := reg.Get("paypal"); err == nil {
		t.Fatal("unknown gateway should error")
	}
	if len(reg.Names()) != 2 {
		t.Fatalf("names = %v", reg.Names())
	}
}
