package billing

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/testispark/testispark/internal/model"
)

func hexMAC(secret, payload string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil))
}

func TestVerifyLemonSqueezy(t *testing.T) {
	body := []byte(`{"meta":{"event_name":"order_created"}}`)
	good := hexMAC("whsec", string(body))

	for _, tc := range []struct {
		name   string
		sig    string
		secret string
		want   bool
	}{
		{"Valid", good, "whsec", true},
		{"UpperHex", strings.ToUpper(good), "whsec", true},
		{"WrongSecret", good, "other", false},
		{"EmptySecret", good, "", false},
		{"EmptySignature", "", "whsec", false},
		{"NotHex", "zzz", "whsec", false},
	} {
		t.Run(tc.name, func(t *testing.T) {
			if got := VerifyLemonSqueezy(body, tc.sig, tc.secret); got != tc.want {
				t.Errorf("VerifyLemonSqueezy = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestVerifyPaddle(t *testing.T) {
	body := []byte(`{"event_type":"subscription.activated"}`)

	for _, tc := range []struct {
		name   string
		header string
		want   bool
	}{
		{"TimestampedPayload", "ts=1700000000;h1=" + hexMAC("pdl", "1700000000:"+string(body)), true},
		{"BodyOnly", "h1=" + hexMAC("pdl", string(body)), true},
		{"BodyOnlyWithTimestamp", "ts=1;h1=" + hexMAC("pdl", string(body)), true},
		{"Tampered", "ts=1;h1=" + hexMAC("pdl", "other"), false},
		{"MissingH1", "ts=1700000000", false},
		{"Empty", "", false},
	} {
		t.Run(tc.name, func(t *testing.T) {
			if got := VerifyPaddle(body, tc.header, "pdl"); got != tc.want {
				t.Errorf("VerifyPaddle = %v, want %v", got, tc.want)
			}
		})
	}

	if VerifyPaddle(body, "h1="+hexMAC("", string(body)), "") {
		t.Error("empty secret must never verify")
	}
}

func TestLemonSqueezyUpdates(t *testing.T) {
	for _, tc := range []struct {
		name      string
		body      string
		wantEvent string
		want      []model.BillingUpdate
	}{
		{
			name:      "OrderCreatedLinksCustomer",
			body:      `{"meta":{"event_name":"order_created","custom_data":{"user_id":"u1"}},"data":{"id":"9","attributes":{"customer_id":42}}}`,
			wantEvent: "order_created",
			want:      []model.BillingUpdate{{Key: model.ByUserID, Value: "u1", Plan: model.PlanPro, LemonCustomerID: "42"}},
		},
		{
			name:      "OrderCreatedWithoutUser",
			body:      `{"meta":{"event_name":"order_created"},"data":{"attributes":{"customer_id":42}}}`,
			wantEvent: "order_created",
		},
		{
			name:      "SubscriptionCreatedByUser",
			body:      `{"meta":{"event_name":"subscription_created","custom_data":{"user_id":"u1"}},"data":{"id":"sub_1","attributes":{"customer_id":"42"}}}`,
			wantEvent: "subscription_created",
			want: []model.BillingUpdate{{
				Key: model.ByUserID, Value: "u1", Plan: model.PlanPro,
				LemonCustomerID: "42", LemonSubscriptionID: "sub_1",
			}},
		},
		{
			name:      "SubscriptionResumedByCustomer",
			body:      `{"meta":{"event_name":"subscription_resumed"},"data":{"id":"sub_1","attributes":{"customer_id":42}}}`,
			wantEvent: "subscription_resumed",
			want:      []model.BillingUpdate{{Key: model.ByLemonCustomerID, Value: "42", Plan: model.PlanPro, LemonSubscriptionID: "sub_1"}},
		},
		{
			name:      "SubscriptionUpdatedPaused",
			body:      `{"meta":{"event_name":"subscription_updated"},"data":{"id":"sub_1","attributes":{"status":"paused"}}}`,
			wantEvent: "subscription_updated",
			want:      []model.BillingUpdate{{Key: model.ByLemonSubscriptionID, Value: "sub_1", Plan: model.PlanFree}},
		},
		{
			name:      "SubscriptionUpdatedOtherStatus",
			body:      `{"meta":{"event_name":"subscription_updated"},"data":{"id":"sub_1","attributes":{"status":"on_trial"}}}`,
			wantEvent: "subscription_updated",
		},
		{
			name:      "SubscriptionExpired",
			body:      `{"meta":{"event_name":"subscription_expired"},"data":{"id":"sub_1"}}`,
			wantEvent: "subscription_expired",
			want:      []model.BillingUpdate{{Key: model.ByLemonSubscriptionID, Value: "sub_1", Plan: model.PlanFree}},
		},
		{
			name:      "Unhandled",
			body:      `{"meta":{"event_name":"license_key_created"}}`,
			wantEvent: "license_key_created",
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			event, got, err := LemonSqueezyUpdates([]byte(tc.body))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if event != tc.wantEvent {
				t.Errorf("event = %q, want %q", event, tc.wantEvent)
			}
			if diff := cmp.Diff(tc.want, got, cmpEmpty); diff != "" {
				t.Errorf("updates mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestPaddleUpdates(t *testing.T) {
	for _, tc := range []struct {
		name string
		body string
		want []model.BillingUpdate
	}{
		{
			name: "Activated",
			body: `{"event_type":"subscription.activated","data":{"id":"sub_1","customer_id":"ctm_1"}}`,
			want: []model.BillingUpdate{{Key: model.ByPaddleCustomerID, Value: "ctm_1", Plan: model.PlanPro, PaddleSubscriptionID: "sub_1"}},
		},
		{
			name: "PastDue",
			body: `{"event_type":"subscription.past_due","data":{"id":"sub_1"}}`,
			want: []model.BillingUpdate{{Key: model.ByPaddleSubscriptionID, Value: "sub_1", Plan: model.PlanFree}},
		},
		{
			name: "UpdatedActive",
			body: `{"event_type":"subscription.updated","data":{"id":"sub_1","status":"active"}}`,
			want: []model.BillingUpdate{{Key: model.ByPaddleSubscriptionID, Value: "sub_1", Plan: model.PlanPro}},
		},
		{
			name: "UpdatedCanceled",
			body: `{"event_type":"subscription.updated","data":{"id":"sub_1","status":"canceled"}}`,
			want: []model.BillingUpdate{{Key: model.ByPaddleSubscriptionID, Value: "sub_1", Plan: model.PlanFree}},
		},
		{
			name: "TransactionCompleted",
			body: `{"event_type":"transaction.completed","data":{"id":"txn_1","customer_id":"ctm_1","custom_data":{"user_id":"u1"}}}`,
			want: []model.BillingUpdate{{Key: model.ByUserID, Value: "u1", PaddleCustomerID: "ctm_1"}},
		},
		{
			name: "TransactionWithoutUser",
			body: `{"event_type":"transaction.completed","data":{"id":"txn_1","customer_id":"ctm_1","custom_data":null}}`,
		},
		{
			name: "ActivatedWithoutCustomer",
			body: `{"event_type":"subscription.activated","data":{"id":"sub_1"}}`,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, got, err := PaddleUpdates([]byte(tc.body))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if diff := cmp.Diff(tc.want, got, cmpEmpty); diff != "" {
				t.Errorf("updates mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestUpdates_InvalidJSON(t *testing.T) {
	if _, _, err := LemonSqueezyUpdates([]byte("{")); err == nil {
		t.Error("expected lemonsqueezy decode error")
	}
	if _, _, err := PaddleUpdates([]byte("nope")); err == nil {
		t.Error("expected paddle decode error")
	}
}

func TestLemonCheckoutURL(t *testing.T) {
	if got := LemonCheckoutURL("", "", "a@b.c", "u1"); got != "" {
		t.Errorf("without variant = %q, want empty", got)
	}
	raw := LemonCheckoutURL("", "123", "a@b.c", "u1")
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatal(err)
	}
	if u.Host != "testispark.lemonsqueezy.com" || u.Path != "/checkout/buy/123" {
		t.Errorf("url = %s", raw)
	}
	q := u.Query()
	if q.Get("checkout[email]") != "a@b.c" || q.Get("checkout[custom][user_id]") != "u1" || q.Get("embed") != "1" {
		t.Errorf("query = %v", q)
	}
}

// cmpEmpty treats nil and empty update slices as equal.
var cmpEmpty = cmp.FilterValues(func(x, y []model.BillingUpdate) bool {
	return len(x) == 0 && len(y) == 0
}, cmp.Ignore())
