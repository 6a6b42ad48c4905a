package gateway

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"event-ticketing/internal/apperr"
	"event-ticketing/internal/data/entity"
	"event-ticketing/pkg/signature"
	"event-ticketing/pkg/utils"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const MoMoName = "momo"

var (
	momoCreateFields = []string{
		"accessKey", "amount", "extraData", "ipnUrl", "orderId", "orderInfo",
		"partnerCode", "redirectUrl", "requestId", "requestType",
	}
	momoResultFields = []string{
		"accessKey", "amount", "extraData", "message", "orderId", "orderInfo", "orderType",
		"partnerCode", "payType", "requestId", "responseTime", "resultCode", "transId",
	}
)

// MoMoAck is the body MoMo expects in reply to an IPN.
type MoMoAck struct {
	ResultCode int    `json:"resultCode"`
	Message    string `json:"message"`
}

type momoCreateRequest struct {
	PartnerCode string `json:"partnerCode"`
	PartnerName string `json:"partnerName"`
	StoreID     string `json:"storeId"`
	RequestID   string `json:"requestId"`
	Amount      int64  `json:"amount"`
	OrderID     string `json:"orderId"`
	OrderInfo   string `json:"orderInfo"`
	RedirectURL string `json:"redirectUrl"`
	IpnURL      string `json:"ipnUrl"`
	Lang        string `json:"lang"`
	RequestType string `json:"requestType"`
	ExtraData   string `json:"extraData"`
	Signature   string `json:"signature"`
}

type momoCreateResponse struct {
	ResultCode int    `json:"resultCode"`
	Message    string `json:"message"`
	PayURL     string `json:"payUrl"`
	Deeplink   string `json:"deeplink"`
}

// MoMo is the digital-wallet adapter: HMAC-SHA256 over a fixed field order.
type MoMo struct {
	cfg        utils.MoMoConfig
	create     *signature.Codec
	result     *signature.Codec
	reconciler *Reconciler
	client     *http.Client
	log        *zap.Logger
}

func NewMoMo(cfg utils.MoMoConfig, reconciler *Reconciler, client *http.Client, log *zap.Logger) *MoMo {
	if client == nil {
		client = &http.Client{}
	}
	signer := signature.NewHMACSHA256(cfg.SecretKey)
	return &MoMo{
		cfg:        cfg,
		create:     signature.NewCodec(signature.FixedOrder{Fields: momoCreateFields, KeepEmpty: true}, signer),
		result:     signature.NewCodec(signature.FixedOrder{Fields: momoResultFields, KeepEmpty: true}, signer),
		reconciler: reconciler,
		client:     client,
		log:        log.With(zap.String("gateway", MoMoName)),
	}
}

func (m *MoMo) Name() string { return MoMoName }

func (m *MoMo) Method() entity.PaymentMethod { return entity.PaymentMethodDigitalWallet }

func (m *MoMo) Initiate(ctx context.Context, orderID int64, amountHint *decimal.Decimal, _ string) (*Initiation, error) {
	order, payment, err := m.reconciler.OpenPayment(ctx, orderID, amountHint, m.Method())
	if err != nil {
		return nil, err
	}

	corr := Correlation{OrderID: order.ID, PaymentID: payment.ID}.String()
	extra, err := json.Marshal(map[string]int64{"orderId": order.ID, "paymentId": payment.ID})
	if err != nil {
		return nil, err
	}

	req := momoCreateRequest{
		PartnerCode: m.cfg.PartnerCode,
		PartnerName: "MoMo",
		StoreID:     "EventTicketing",
		RequestID:   payment.TransactionID,
		Amount:      payment.Amount.IntPart(),
		OrderID:     corr,
		OrderInfo:   "Payment for order " + order.OrderCode,
		RedirectURL: m.cfg.RedirectURL,
		IpnURL:      m.cfg.IPNURL,
		Lang:        m.cfg.Lang,
		RequestType: m.cfg.RequestType,
		ExtraData:   base64.StdEncoding.EncodeToString(extra),
	}
	req.Signature = m.create.Sign(map[string]string{
		"accessKey":   m.cfg.AccessKey,
		"amount":      payment.Amount.StringFixed(0),
		"extraData":   req.ExtraData,
		"ipnUrl":      req.IpnURL,
		"orderId":     req.OrderID,
		"orderInfo":   req.OrderInfo,
		"partnerCode": req.PartnerCode,
		"redirectUrl": req.RedirectURL,
		"requestId":   req.RequestID,
		"requestType": req.RequestType,
	})

	payURL, err := m.post(ctx, req)
	if err != nil {
		m.reconciler.FailPayment(ctx, payment.ID, err)
		return nil, apperr.Wrap(apperr.KindGateway, "gateway_unavailable", "Payment gateway is unavailable, please try again", err)
	}

	m.log.Info("Payment initiated",
		zap.Int64("order_id", order.ID),
		zap.Int64("payment_id", payment.ID),
		zap.String("request_id", req.RequestID),
	)

	return &Initiation{
		Gateway:   MoMoName,
		PayURL:    payURL,
		OrderID:   order.ID,
		PaymentID: payment.ID,
		Reference: payment.TransactionID,
	}, nil
}

// post calls the /create endpoint within the configured timeout.
func (m *MoMo) post(ctx context.Context, body momoCreateRequest) (string, error) {
	if m.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.cfg.Timeout)
		defer cancel()
	}

	buf, err := json.Marshal(body)
	if err != nil {
		return "", err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, m.cfg.Endpoint, bytes.NewReader(buf))
	if err != nil {
		return "", fmt.Errorf("build momo request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("momo create: %w", err)
	}
	defer resp.Body.Close()

	var out momoCreateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode momo response (status %d): %w", resp.StatusCode, err)
	}

	payURL := out.PayURL
	if payURL == "" {
		payURL = out.Deeplink
	}
	if payURL == "" {
		return "", fmt.Errorf("momo create rejected: resultCode=%d message=%q", out.ResultCode, out.Message)
	}
	return payURL, nil
}

// verify recomputes the result signature with our own access key in place
// of whatever key the caller echoed.
func (m *MoMo) verify(params map[string]string) bool {
	signed := make(map[string]string, len(momoResultFields))
	for _, k := range momoResultFields {
		signed[k] = params[k]
	}
	signed["accessKey"] = m.cfg.AccessKey
	return m.result.Verify(signed, params["signature"])
}

func (m *MoMo) ProcessNotification(ctx context.Context, params map[string]string) Outcome {
	if !m.verify(params) {
		m.log.Warn("IPN signature invalid", zap.String("correlation", params["orderId"]))
		return Outcome{Reason: ReasonSignature, Ack: momoAck(ReasonSignature, false)}
	}

	out := m.reconciler.Apply(ctx, Notification{
		Gateway:       MoMoName,
		Correlation:   params["orderId"],
		RawAmount:     params["amount"],
		Success:       strings.TrimSpace(params["resultCode"]) == "0",
		TransactionID: strings.TrimSpace(params["transId"]),
	})
	out.Ack = momoAck(out.Reason, out.Status == entity.PaymentStatusSuccess)
	return out
}

func momoAck(reason Reason, success bool) MoMoAck {
	switch reason {
	case ReasonAccepted:
		if success {
			return MoMoAck{ResultCode: 0, Message: "Success"}
		}
		return MoMoAck{ResultCode: 0, Message: "Payment failed"}
	case ReasonSignature:
		return MoMoAck{ResultCode: 97, Message: "Invalid signature"}
	case ReasonCorrelation:
		return MoMoAck{ResultCode: 98, Message: "Invalid orderId format"}
	case ReasonLookup:
		return MoMoAck{ResultCode: 96, Message: "Payment/Order mismatch"}
	case ReasonAmount:
		return MoMoAck{ResultCode: 95, Message: "Amount mismatched"}
	default:
		return MoMoAck{ResultCode: 99, Message: "Internal error"}
	}
}

func (m *MoMo) ProcessBrowserReturn(ctx context.Context, params map[string]string) ReturnInfo {
	if !m.verify(params) {
		m.log.Warn("Return signature invalid", zap.String("correlation", params["orderId"]))
		return ReturnInfo{Verified: false, Message: "Payment could not be verified"}
	}

	info := ReturnInfo{
		Verified:      true,
		ResultCode:    params["resultCode"],
		TransactionID: params["transId"],
		Message:       params["message"],
	}
	if amount, err := parseAmount(params["amount"]); err == nil {
		info.Amount = &amount
	}

	if c, payment, _, reason := m.reconciler.Resolve(ctx, params["orderId"]); reason == ReasonAccepted {
		info.OrderID, info.PaymentID = c.OrderID, c.PaymentID
		info.LedgerStatus = payment.Status
	} else if reason != ReasonCorrelation {
		info.OrderID, info.PaymentID = c.OrderID, c.PaymentID
	}
	return info
}
