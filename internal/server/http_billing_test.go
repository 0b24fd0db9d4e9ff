package server

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"testing"

	"github.com/testispark/testispark/internal/events"
	"github.com/testispark/testispark/internal/model"
	"github.com/testispark/testispark/internal/store"
)

const (
	lemonSecret  = "lemon-whsec"
	paddleSecret = "paddle-whsec"
)

func withWebhookSecrets(o *Options) {
	o.LemonSqueezySecret = lemonSecret
	o.PaddleSecret = paddleSecret
}

func sign(secret, payload string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil))
}

func postWebhook(h http.Handler, path, header, sig, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("POST", path, bytes.NewBufferString(body))
	if sig != "" {
		req.Header.Set(header, sig)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestLemonSqueezyWebhook_OrderCreated(t *testing.T) {
	_, ms, pub, h := newTestServer(withWebhookSecrets)
	ms.profiles["u1"] = &model.Profile{ID: "u1", Plan: model.PlanFree}

	body := `{"meta":{"event_name":"order_created","custom_data":{"user_id":"u1"}},"data":{"id":"9","attributes":{"customer_id":42}}}`
	rec := postWebhook(h, "/api/lemonsqueezy/webhook", "X-Signature", sign(lemonSecret, body), body)
	requireStatus(t, rec, http.StatusOK)

	var resp map[string]bool
	decodeBody(t, rec, &resp)
	if !resp["received"] {
		t.Fatalf("expected received=true, got %v", resp)
	}
	p := ms.profiles["u1"]
	if p.Plan != model.PlanPro || p.LemonCustomerID != "42" {
		t.Fatalf("profile not upgraded: %+v", p)
	}
	if !slices.Contains(pub.Topics(), events.TopicPlanChanged) {
		t.Fatalf("expected %s, got %v", events.TopicPlanChanged, pub.Topics())
	}
}

func TestLemonSqueezyWebhook_SubscriptionExpired(t *testing.T) {
	_, ms, _, h := newTestServer(withWebhookSecrets)
	ms.profiles["u1"] = &model.Profile{ID: "u1", Plan: model.PlanPro, LemonSubscriptionID: "sub_1"}
	ms.profiles["u2"] = &model.Profile{ID: "u2", Plan: model.PlanPro, LemonSubscriptionID: "sub_2"}

	body := `{"meta":{"event_name":"subscription_expired"},"data":{"id":"sub_1"}}`
	requireStatus(t, postWebhook(h, "/api/lemonsqueezy/webhook", "X-Signature", sign(lemonSecret, body), body), http.StatusOK)

	if ms.profiles["u1"].Plan != model.PlanFree {
		t.Fatal("expected u1 downgraded")
	}
	if ms.profiles["u2"].Plan != model.PlanPro {
		t.Fatal("u2 must be untouched")
	}
}

func TestPaddleWebhook_Activated(t *testing.T) {
	_, ms, _, h := newTestServer(withWebhookSecrets)
	ms.profiles["u1"] = &model.Profile{ID: "u1", Plan: model.PlanFree, PaddleCustomerID: "ctm_1"}

	body := `{"event_type":"subscription.activated","data":{"id":"sub_1","customer_id":"ctm_1"}}`
	sig := "ts=1700000000;h1=" + sign(paddleSecret, "1700000000:"+body)
	requireStatus(t, postWebhook(h, "/api/paddle/webhook", "Paddle-Signature", sig, body), http.StatusOK)

	p := ms.profiles["u1"]
	if p.Plan != model.PlanPro || p.PaddleSubscriptionID != "sub_1" {
		t.Fatalf("profile not upgraded: %+v", p)
	}
}

func TestWebhooks_UnmatchedProfileAcknowledged(t *testing.T) {
	_, _, pub, h := newTestServer(withWebhookSecrets)
	body := `{"event_type":"subscription.canceled","data":{"id":"sub_unknown"}}`
	sig := "h1=" + sign(paddleSecret, body)
	requireStatus(t, postWebhook(h, "/api/paddle/webhook", "Paddle-Signature", sig, body), http.StatusOK)
	if len(pub.Topics()) != 0 {
		t.Fatalf("unexpected events %v", pub.Topics())
	}
}

func TestWebhooks_InvalidSignature(t *testing.T) {
	body := `{"meta":{"event_name":"order_created"}}`
	for _, tc := range []struct {
		name   string
		opts   func(*Options)
		path   string
		header string
		sig    string
	}{
		{"LemonMissing", withWebhookSecrets, "/api/lemonsqueezy/webhook", "X-Signature", ""},
		{"LemonWrong", withWebhookSecrets, "/api/lemonsqueezy/webhook", "X-Signature", sign("nope", body)},
		{"LemonUnconfigured", func(*Options) {}, "/api/lemonsqueezy/webhook", "X-Signature", sign("", body)},
		{"PaddleWrong", withWebhookSecrets, "/api/paddle/webhook", "Paddle-Signature", "ts=1;h1=" + sign("nope", "1:"+body)},
		{"PaddleMalformed", withWebhookSecrets, "/api/paddle/webhook", "Paddle-Signature", "garbage"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, _, _, h := newTestServer(tc.opts)
			rec := postWebhook(h, tc.path, tc.header, tc.sig, body)
			requireError(t, rec, http.StatusUnauthorized, "Invalid signature")
		})
	}
}

func TestWebhooks_ProcessingFailure(t *testing.T) {
	_, _, _, h := newTestServer(withWebhookSecrets)
	body := `{"meta":`
	rec := postWebhook(h, "/api/lemonsqueezy/webhook", "X-Signature", sign(lemonSecret, body), body)
	requireError(t, rec, http.StatusInternalServerError, "Webhook processing failed")
}

func TestHandleCryptoPayment(t *testing.T) {
	_, ms, _, h := newTestServer()
	rec := doJSON(t, h, "POST", "/api/crypto-payment", "u1", map[string]any{
		"tx_hash":        " 0xabc ",
		"wallet_address": "TWallet",
	})
	requireStatus(t, rec, http.StatusOK)
	var resp map[string]bool
	decodeBody(t, rec, &resp)
	if !resp["success"] {
		t.Fatalf("expected success=true, got %v", resp)
	}

	p, ok := ms.payments["0xabc"]
	if !ok {
		t.Fatal("payment not stored under trimmed hash")
	}
	if p.UserID != "u1" || p.Status != model.PaymentPending {
		t.Fatalf("unexpected payment %+v", p)
	}
	if p.Chain != model.DefaultCryptoChain || p.Amount != model.DefaultCryptoAmount || p.Currency != model.DefaultCryptoCurrency {
		t.Fatalf("defaults not applied: %+v", p)
	}
}

func TestHandleCryptoPayment_Errors(t *testing.T) {
	_, ms, _, h := newTestServer()
	ms.payments["0xdup"] = &model.CryptoPayment{TxHash: "0xdup"}

	requireError(t, doJSON(t, h, "POST", "/api/crypto-payment", "u1", map[string]any{"tx_hash": "0x1"}),
		http.StatusBadRequest, "Transaction hash and wallet address are required")
	requireError(t, doJSON(t, h, "POST", "/api/crypto-payment", "u1", map[string]any{"tx_hash": "0xdup", "wallet_address": "T"}),
		http.StatusConflict, "This transaction has already been submitted")

	ms.createPaymentErr = fmt.Errorf("crypto_payments_tx_hash_key: %w", store.ErrConflict)
	requireError(t, doJSON(t, h, "POST", "/api/crypto-payment", "u1", map[string]any{"tx_hash": "0xrace", "wallet_address": "T"}),
		http.StatusConflict, "This transaction has already been submitted")
}

func TestHandleCheckout(t *testing.T) {
	_, _, _, h := newTestServer(func(o *Options) {
		o.LemonSqueezyStore = "acme"
		o.LemonSqueezyVariantID = "123"
	})
	rec := doJSON(t, h, "GET", "/api/billing/checkout", "u1", nil)
	requireStatus(t, rec, http.StatusOK)
	var resp map[string]string
	decodeBody(t, rec, &resp)
	link := resp["url"]
	if !strings.HasPrefix(link, "https://acme.lemonsqueezy.com/checkout/buy/123?") {
		t.Fatalf("unexpected url %q", link)
	}
	if !strings.Contains(link, "u1") {
		t.Fatalf("url does not carry the user id: %q", link)
	}
}

func TestHandleCheckout_NotConfigured(t *testing.T) {
	_, _, _, h := newTestServer()
	requireError(t, doJSON(t, h, "GET", "/api/billing/checkout", "u1", nil),
		http.StatusServiceUnavailable, "Checkout is not configured")
}
