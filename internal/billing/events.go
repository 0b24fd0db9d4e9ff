package billing

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/testispark/testispark/internal/model"
)

// Provider names used in logs and events.
const (
	ProviderLemonSqueezy = "lemonsqueezy"
	ProviderPaddle       = "paddle"
)

// flexString decodes a JSON string or number into its string form.
// Provider payloads are inconsistent about id types.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = flexString(n.String())
	return nil
}

type customData struct {
	UserID string `json:"user_id"`
}

type lemonPayload struct {
	Meta struct {
		EventName  string      `json:"event_name"`
		CustomData *customData `json:"custom_data"`
	} `json:"meta"`
	Data struct {
		ID         flexString `json:"id"`
		Attributes struct {
			CustomerID flexString `json:"customer_id"`
			Status     string     `json:"status"`
		} `json:"attributes"`
	} `json:"data"`
}

// LemonSqueezyUpdates decodes a Lemon Squeezy webhook body and returns the
// event name with the profile updates it implies. Unhandled events yield no
// updates.
func LemonSqueezyUpdates(body []byte) (string, []model.BillingUpdate, error) {
	var p lemonPayload
	if err := json.Unmarshal(body, &p); err != nil {
		return "", nil, fmt.Errorf("decode lemonsqueezy payload: %w", err)
	}
	event := p.Meta.EventName
	userID := ""
	if p.Meta.CustomData != nil {
		userID = p.Meta.CustomData.UserID
	}
	customerID := string(p.Data.Attributes.CustomerID)
	subscriptionID := string(p.Data.ID)

	var updates []model.BillingUpdate
	switch event {
	case "order_created":
		if userID != "" && customerID != "" {
			updates = append(updates, model.BillingUpdate{
				Key: model.ByUserID, Value: userID,
				Plan: model.PlanPro, LemonCustomerID: customerID,
			})
		}

	case "subscription_created", "subscription_resumed":
		if userID != "" {
			updates = append(updates, model.BillingUpdate{
				Key: model.ByUserID, Value: userID,
				Plan: model.PlanPro, LemonCustomerID: customerID, LemonSubscriptionID: subscriptionID,
			})
		} else if customerID != "" {
			updates = append(updates, model.BillingUpdate{
				Key: model.ByLemonCustomerID, Value: customerID,
				Plan: model.PlanPro, LemonSubscriptionID: subscriptionID,
			})
		}

	case "subscription_updated":
		switch p.Data.Attributes.Status {
		case "active":
			updates = append(updates, model.BillingUpdate{
				Key: model.ByLemonSubscriptionID, Value: subscriptionID, Plan: model.PlanPro,
			})
		case "cancelled", "expired", "paused", "unpaid":
			updates = append(updates, model.BillingUpdate{
				Key: model.ByLemonSubscriptionID, Value: subscriptionID, Plan: model.PlanFree,
			})
		}

	case "subscription_cancelled", "subscription_expired":
		updates = append(updates, model.BillingUpdate{
			Key: model.ByLemonSubscriptionID, Value: subscriptionID, Plan: model.PlanFree,
		})
	}
	return event, dropNoops(updates), nil
}

type paddlePayload struct {
	EventType string `json:"event_type"`
	Data      struct {
		ID         string      `json:"id"`
		CustomerID string      `json:"customer_id"`
		Status     string      `json:"status"`
		CustomData *customData `json:"custom_data"`
	} `json:"data"`
}

// PaddleUpdates decodes a Paddle webhook body and returns the event type
// with the profile updates it implies.
func PaddleUpdates(body []byte) (string, []model.BillingUpdate, error) {
	var p paddlePayload
	if err := json.Unmarshal(body, &p); err != nil {
		return "", nil, fmt.Errorf("decode paddle payload: %w", err)
	}
	d := p.Data

	var updates []model.BillingUpdate
	switch p.EventType {
	case "subscription.activated", "subscription.resumed":
		updates = append(updates, model.BillingUpdate{
			Key: model.ByPaddleCustomerID, Value: d.CustomerID,
			Plan: model.PlanPro, PaddleSubscriptionID: d.ID,
		})

	case "subscription.canceled", "subscription.past_due":
		updates = append(updates, model.BillingUpdate{
			Key: model.ByPaddleSubscriptionID, Value: d.ID, Plan: model.PlanFree,
		})

	case "subscription.updated":
		switch d.Status {
		case "active":
			updates = append(updates, model.BillingUpdate{
				Key: model.ByPaddleSubscriptionID, Value: d.ID, Plan: model.PlanPro,
			})
		case "canceled", "paused":
			updates = append(updates, model.BillingUpdate{
				Key: model.ByPaddleSubscriptionID, Value: d.ID, Plan: model.PlanFree,
			})
		}

	case "transaction.completed":
		if d.CustomData != nil && d.CustomData.UserID != "" {
			updates = append(updates, model.BillingUpdate{
				Key: model.ByUserID, Value: d.CustomData.UserID, PaddleCustomerID: d.CustomerID,
			})
		}
	}
	return p.EventType, dropNoops(updates), nil
}

func dropNoops(in []model.BillingUpdate) []model.BillingUpdate {
	out := in[:0]
	for _, u := range in {
		if !u.IsNoop() {
			out = append(out, u)
		}
	}
	return out
}
