package gateway

import (
	"context"
	"net/url"
	"strings"
	"time"

	"event-ticketing/internal/data/entity"
	"event-ticketing/pkg/signature"
	"event-ticketing/pkg/utils"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const VNPayName = "vnpay"

var (
	vnpAmountScale = decimal.NewFromInt(100)
	vnpZone        = time.FixedZone("ICT", 7*60*60)
)

// VNPayAck is the body VNPay expects in reply to an IPN.
type VNPayAck struct {
	RspCode string `json:"RspCode"`
	Message string `json:"Message"`
}

// VNPay is the bank-transfer adapter: HMAC-SHA512 over sorted, form-encoded
// vnp_* parameters. Initiation needs no outbound call.
type VNPay struct {
	cfg        utils.VNPayConfig
	codec      *signature.Codec
	reconciler *Reconciler
	now        func() time.Time
	log        *zap.Logger
}

func NewVNPay(cfg utils.VNPayConfig, reconciler *Reconciler, log *zap.Logger) *VNPay {
	return &VNPay{
		cfg:        cfg,
		codec:      signature.NewCodec(signature.SortedEncoded{}, signature.NewHMACSHA512(cfg.HashSecret)),
		reconciler: reconciler,
		now:        time.Now,
		log:        log.With(zap.String("gateway", VNPayName)),
	}
}

func (v *VNPay) Name() string { return VNPayName }

func (v *VNPay) Method() entity.PaymentMethod { return entity.PaymentMethodBankTransfer }

func (v *VNPay) Initiate(ctx context.Context, orderID int64, amountHint *decimal.Decimal, clientIP string) (*Initiation, error) {
	order, payment, err := v.reconciler.OpenPayment(ctx, orderID, amountHint, v.Method())
	if err != nil {
		return nil, err
	}

	if clientIP == "" {
		clientIP = "127.0.0.1"
	}
	now := v.now().In(vnpZone)

	params := map[string]string{
		"vnp_Version":    v.cfg.Version,
		"vnp_Command":    v.cfg.Command,
		"vnp_TmnCode":    v.cfg.TmnCode,
		"vnp_Amount":     payment.Amount.Mul(vnpAmountScale).StringFixed(0),
		"vnp_CurrCode":   "VND",
		"vnp_TxnRef":     payment.TransactionID,
		"vnp_OrderInfo":  Correlation{OrderID: order.ID, PaymentID: payment.ID}.String(),
		"vnp_OrderType":  "other",
		"vnp_Locale":     v.cfg.Locale,
		"vnp_ReturnUrl":  v.cfg.ReturnURL,
		"vnp_IpAddr":     clientIP,
		"vnp_CreateDate": now.Format("20060102150405"),
		"vnp_ExpireDate": now.Add(15 * time.Minute).Format("20060102150405"),
	}

	query := v.codec.Message(params)
	payURL := v.cfg.PayURL + "?" + query + "&vnp_SecureHash=" + v.codec.Sign(params)

	v.log.Info("Payment initiated",
		zap.Int64("order_id", order.ID),
		zap.Int64("payment_id", payment.ID),
		zap.String("txn_ref", payment.TransactionID),
	)

	return &Initiation{
		Gateway:   VNPayName,
		PayURL:    payURL,
		OrderID:   order.ID,
		PaymentID: payment.ID,
		Reference: payment.TransactionID,
	}, nil
}

// verify checks vnp_SecureHash over the vnp_* parameters, excluding the hash fields.
func (v *VNPay) verify(params map[string]string) bool {
	signed := make(map[string]string, len(params))
	for k, val := range params {
		if !strings.HasPrefix(k, "vnp_") || k == "vnp_SecureHash" || k == "vnp_SecureHashType" {
			continue
		}
		signed[k] = val
	}
	// VNPay may send the hash upper-case.
	return v.codec.Verify(signed, strings.ToLower(params["vnp_SecureHash"]))
}

// amount converts vnp_Amount (minor units) back to the ledger unit.
func (v *VNPay) amount(params map[string]string) (decimal.Decimal, error) {
	raw, err := parseAmount(params["vnp_Amount"])
	if err != nil {
		return decimal.Zero, err
	}
	return raw.Div(vnpAmountScale), nil
}

func (v *VNPay) ProcessNotification(ctx context.Context, params map[string]string) Outcome {
	if !v.verify(params) {
		v.log.Warn("IPN signature invalid", zap.String("correlation", params["vnp_OrderInfo"]))
		return Outcome{Reason: ReasonSignature, Ack: vnpayAck(ReasonSignature)}
	}

	out := v.reconciler.Apply(ctx, Notification{
		Gateway:       VNPayName,
		Correlation:   params["vnp_OrderInfo"],
		RawAmount:     params["vnp_Amount"],
		AmountDivisor: vnpAmountScale,
		Success:       params["vnp_ResponseCode"] == "00" && params["vnp_TransactionStatus"] == "00",
		TransactionID: params["vnp_TransactionNo"],
	})
	out.Ack = vnpayAck(out.Reason)
	return out
}

func vnpayAck(reason Reason) VNPayAck {
	switch reason {
	case ReasonAccepted:
		return VNPayAck{RspCode: "00", Message: "Confirm Success"}
	case ReasonSignature:
		return VNPayAck{RspCode: "97", Message: "Invalid Checksum"}
	case ReasonCorrelation, ReasonLookup:
		return VNPayAck{RspCode: "01", Message: "Order not found"}
	case ReasonAmount:
		return VNPayAck{RspCode: "04", Message: "Invalid amount"}
	default:
		return VNPayAck{RspCode: "99", Message: "Unknown error"}
	}
}

func (v *VNPay) ProcessBrowserReturn(ctx context.Context, params map[string]string) ReturnInfo {
	if !v.verify(params) {
		v.log.Warn("Return signature invalid", zap.String("correlation", params["vnp_OrderInfo"]))
		return ReturnInfo{Verified: false, Message: "Payment could not be verified"}
	}

	info := ReturnInfo{
		Verified:      true,
		ResultCode:    params["vnp_ResponseCode"],
		TransactionID: params["vnp_TransactionNo"],
		Message:       params["vnp_Message"],
	}
	if amount, err := v.amount(params); err == nil {
		info.Amount = &amount
	}

	if c, payment, _, reason := v.reconciler.Resolve(ctx, params["vnp_OrderInfo"]); reason == ReasonAccepted {
		info.OrderID, info.PaymentID = c.OrderID, c.PaymentID
		info.LedgerStatus = payment.Status
	} else if reason != ReasonCorrelation {
		info.OrderID, info.PaymentID = c.OrderID, c.PaymentID
	}
	return info
}

// QueryParams flattens a URL query for the adapters, keeping the first value per key.
func QueryParams(values url.Values) map[string]string {
	out := make(map[string]string, len(values))
	for k, vs := range values {
		if len(vs) > 0 {
			out[k] = vs[0]
		}
	}
	return out
}
