package server

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/testispark/testispark/internal/billing"
	"github.com/testispark/testispark/internal/events"
	"github.com/testispark/testispark/internal/idgen"
	"github.com/testispark/testispark/internal/model"
	"github.com/testispark/testispark/internal/store"
)

// handleLemonSqueezyWebhook handles POST /api/lemonsqueezy/webhook.
func (s *Server) handleLemonSqueezyWebhook(w http.ResponseWriter, r *http.Request) {
	body, ok := readWebhook(w, r)
	if !ok {
		return
	}
	if !billing.VerifyLemonSqueezy(body, r.Header.Get("X-Signature"), s.opts.LemonSqueezySecret) {
		writeError(w, http.StatusUnauthorized, "Invalid signature")
		return
	}
	event, updates, err := billing.LemonSqueezyUpdates(body)
	s.applyBilling(w, r, billing.ProviderLemonSqueezy, event, updates, err)
}

// handlePaddleWebhook handles POST /api/paddle/webhook.
func (s *Server) handlePaddleWebhook(w http.ResponseWriter, r *http.Request) {
	body, ok := readWebhook(w, r)
	if !ok {
		return
	}
	if !billing.VerifyPaddle(body, r.Header.Get("Paddle-Signature"), s.opts.PaddleSecret) {
		writeError(w, http.StatusUnauthorized, "Invalid signature")
		return
	}
	event, updates, err := billing.PaddleUpdates(body)
	s.applyBilling(w, r, billing.ProviderPaddle, event, updates, err)
}

func readWebhook(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid body")
		return nil, false
	}
	return body, true
}

// applyBilling mirrors a verified webhook into profiles. Updates matching no
// profile are logged and acknowledged so the provider does not retry.
func (s *Server) applyBilling(w http.ResponseWriter, r *http.Request, provider, event string, updates []model.BillingUpdate, decodeErr error) {
	if decodeErr != nil {
		s.logger.Error("webhook processing failed", "provider", provider, "error", decodeErr)
		writeError(w, http.StatusInternalServerError, "Webhook processing failed")
		return
	}
	ctx := r.Context()
	for _, u := range updates {
		n, err := s.store.ApplyBillingUpdate(ctx, u)
		if err != nil {
			s.logger.Error("webhook processing failed", "provider", provider, "event", event, "error", err)
			writeError(w, http.StatusInternalServerError, "Webhook processing failed")
			return
		}
		if n == 0 {
			s.logger.Warn("webhook matched no profile", "provider", provider, "event", event, "key", u.Key, "value", u.Value)
			continue
		}
		if u.Plan != "" {
			s.publish(ctx, events.TopicPlanChanged, planChangeUser(u), events.PlanChanged{
				Provider: provider, Event: event, Key: u.Key, Value: u.Value, Plan: u.Plan,
			})
		}
	}
	s.logger.Info("webhook processed", "provider", provider, "event", event, "updates", len(updates))
	writeJSON(w, http.StatusOK, map[string]bool{"received": true})
}

// planChangeUser returns the user id for SSE routing when the update is
// keyed by it; customer-keyed updates only reach NATS subscribers.
func planChangeUser(u model.BillingUpdate) string {
	if u.Key == model.ByUserID {
		return u.Value
	}
	return ""
}

// handleCryptoPayment handles POST /api/crypto-payment. Payments are stored
// pending until verified by hand.
func (s *Server) handleCryptoPayment(w http.ResponseWriter, r *http.Request) {
	var in struct {
		TxHash        string  `json:"tx_hash"`
		Chain         string  `json:"chain"`
		Amount        float64 `json:"amount"`
		WalletAddress string  `json:"wallet_address"`
	}
	if !decodeJSON(w, r, &in) {
		return
	}
	p := &model.CryptoPayment{
		ID:            idgen.NewID(),
		UserID:        userFrom(r.Context()).ID,
		TxHash:        strings.TrimSpace(in.TxHash),
		Chain:         in.Chain,
		Amount:        in.Amount,
		Currency:      model.DefaultCryptoCurrency,
		WalletAddress: strings.TrimSpace(in.WalletAddress),
		Status:        model.PaymentPending,
		CreatedAt:     s.now().UTC(),
	}
	if p.TxHash == "" || p.WalletAddress == "" {
		writeError(w, http.StatusBadRequest, "Transaction hash and wallet address are required")
		return
	}
	if p.Chain == "" {
		p.Chain = model.DefaultCryptoChain
	}
	if p.Amount == 0 {
		p.Amount = model.DefaultCryptoAmount
	}
	if err := model.ValidateCryptoPayment(p); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx := r.Context()
	if _, err := s.store.GetCryptoPaymentByTxHash(ctx, p.TxHash); err == nil {
		writeError(w, http.StatusConflict, "This transaction has already been submitted")
		return
	} else if !isNotFound(err) {
		s.writeStoreError(w, r, err, "")
		return
	}
	if err := s.store.CreateCryptoPayment(ctx, p); err != nil {
		if errors.Is(err, store.ErrConflict) {
			writeError(w, http.StatusConflict, "This transaction has already been submitted")
			return
		}
		s.writeStoreError(w, r, err, "")
		return
	}
	s.logger.Info("crypto payment submitted", "user_id", p.UserID, "chain", p.Chain, "amount", p.Amount)
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// handleCheckout handles GET /api/billing/checkout and returns the Lemon
// Squeezy checkout link for the caller.
func (s *Server) handleCheckout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	u := userFrom(ctx)
	p, err := s.ensureProfile(ctx, u)
	if err != nil {
		s.writeStoreError(w, r, err, "")
		return
	}
	link := billing.LemonCheckoutURL(s.opts.LemonSqueezyStore, s.opts.LemonSqueezyVariantID, p.Email, p.ID)
	if link == "" {
		writeError(w, http.StatusServiceUnavailable, "Checkout is not configured")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"url": link})
}
