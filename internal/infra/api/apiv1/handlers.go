package apiv1

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"workforce-billing/internal/domain"
	"workforce-billing/internal/domain/model"
	"workforce-billing/internal/usecase"
)

type organizationJSON struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

type subscriptionJSON struct {
	ID                    string     `json:"id"`
	Status                string     `json:"status"`
	State                 string     `json:"state"`
	DaysLeft              int        `json:"daysLeft"`
	TrialExpiresAt        *time.Time `json:"trialExpiresAt,omitempty"`
	SubscriptionExpiresAt *time.Time `json:"subscriptionExpiresAt,omitempty"`
	Amount                int64      `json:"amount"`
}

type agentJSON struct {
	ID           string            `json:"id"`
	Type         string            `json:"type"`
	Name         string            `json:"name"`
	State        string            `json:"state"`
	Subscription *subscriptionJSON `json:"subscription,omitempty"`
}

type transactionJSON struct {
	ID            string    `json:"id"`
	OrderID       string    `json:"orderId,omitempty"`
	PaymentID     string    `json:"paymentId,omitempty"`
	AgentID       string    `json:"agentId"`
	Amount        int64     `json:"amount"`
	Currency      string    `json:"currency"`
	Status        string    `json:"status"`
	FailureReason string    `json:"failureReason,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}

func toOrganization(o *model.Organization) organizationJSON {
	return organizationJSON{ID: o.ID, Name: o.Name, Description: o.Description, CreatedAt: o.CreatedAt}
}

func toSubscription(s *model.Subscription, state model.SubscriptionState, daysLeft int) *subscriptionJSON {
	if s == nil {
		return nil
	}
	return &subscriptionJSON{
		ID:                    s.ID,
		Status:                string(s.Status),
		State:                 string(state),
		DaysLeft:              daysLeft,
		TrialExpiresAt:        s.TrialExpiresAt,
		SubscriptionExpiresAt: s.SubscriptionExpiresAt,
		Amount:                s.Amount,
	}
}

func toTransaction(t *model.PaymentTransaction) transactionJSON {
	out := transactionJSON{
		ID:        t.ID,
		OrderID:   t.OrderID(),
		AgentID:   t.AgentID,
		Amount:    t.Amount,
		Currency:  t.Currency,
		Status:    string(t.Status),
		CreatedAt: t.CreatedAt,
	}
	if t.GatewayPaymentID != nil {
		out.PaymentID = *t.GatewayPaymentID
	}
	if t.FailureReason != nil {
		out.FailureReason = *t.FailureReason
	}
	return out
}

// --- organizations & agents

func (s *Server) handleMyOrganization(w http.ResponseWriter, r *http.Request) {
	org, err := s.d.Workforce.MyOrganization(r.Context(), viewerFrom(r.Context()))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrganization(org))
}

func (s *Server) handleCreateOrganization(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if err := decode(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	org, err := s.d.Workforce.CreateOrganization(r.Context(), viewerFrom(r.Context()), req.Name, req.Description)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toOrganization(org))
}

func (s *Server) handleWorkforce(w http.ResponseWriter, r *http.Request) {
	views, err := s.d.Workforce.Workforce(r.Context(), viewerFrom(r.Context()), chi.URLParam(r, "orgID"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	items := make([]agentJSON, 0, len(views))
	for _, v := range views {
		items = append(items, agentJSON{
			ID:           v.Agent.ID,
			Type:         string(v.Agent.Type),
			Name:         v.Agent.Name,
			State:        string(v.State),
			Subscription: toSubscription(v.Subscription, v.State, v.DaysLeft),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (s *Server) handleCreateAgent(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Type string `json:"type"`
		Name string `json:"name"`
	}
	if err := decode(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	typ, err := model.ParseAgentType(req.Type)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	a, err := s.d.Workforce.CreateAgent(r.Context(), viewerFrom(r.Context()), chi.URLParam(r, "orgID"), typ, req.Name)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, agentJSON{ID: a.ID, Type: string(a.Type), Name: a.Name, State: string(model.StateNone)})
}

// --- subscriptions

func (s *Server) handleActivateTrial(w http.ResponseWriter, r *http.Request) {
	var req struct {
		AgentID string `json:"agentId"`
	}
	if err := decode(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	sub, err := s.d.Subscriptions.ActivateTrial(r.Context(), viewerFrom(r.Context()), req.AgentID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "subscriptionId": sub.ID})
}

func (s *Server) handleCurrentSubscription(w http.ResponseWriter, r *http.Request) {
	view, err := s.d.Subscriptions.Current(r.Context(), viewerFrom(r.Context()), chi.URLParam(r, "agentID"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toSubscription(view.Subscription, view.State, view.DaysLeft))
}

// --- payments

func (s *Server) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	var req struct {
		AgentID        string `json:"agentId"`
		SubscriptionID string `json:"subscriptionId"`
	}
	if err := decode(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	res, err := s.d.Orders.CreateOrder(r.Context(), viewerFrom(r.Context()), req.AgentID, req.SubscriptionID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"orderId":  res.OrderID,
		"amount":   res.Amount,
		"currency": res.Currency,
		"keyId":    res.KeyID,
		"receipt":  res.Receipt,
	})
}

func (s *Server) handleVerifyPayment(w http.ResponseWriter, r *http.Request) {
	var req struct {
		OrderID        string `json:"razorpay_order_id"`
		PaymentID      string `json:"razorpay_payment_id"`
		Signature      string `json:"razorpay_signature"`
		AgentID        string `json:"agentId"`
		SubscriptionID string `json:"subscriptionId"`
	}
	if err := decode(w, r, &req); err != nil {
		status, msg := statusFor(err)
		writeJSON(w, status, map[string]any{"success": false, "error": msg})
		return
	}
	_, err := s.d.Payments.Verify(r.Context(), viewerFrom(r.Context()), usecase.VerifyInput{
		OrderID:        req.OrderID,
		PaymentID:      req.PaymentID,
		Signature:      req.Signature,
		AgentID:        req.AgentID,
		SubscriptionID: req.SubscriptionID,
	})
	if err != nil {
		status, msg := statusFor(err)
		s.logFailure(r, status, err)
		writeJSON(w, status, map[string]any{"success": false, "error": msg})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Payment verified and subscription activated",
	})
}

func (s *Server) handlePaymentStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		OrderID string `json:"orderId"`
	}
	if err := decode(w, r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	if req.OrderID == "" {
		writeError(w, http.StatusBadRequest, "Missing orderId")
		return
	}
	txn, err := s.d.Payments.Status(r.Context(), viewerFrom(r.Context()), req.OrderID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	t := toTransaction(txn)
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    t.Status,
		"paymentId": t.PaymentID,
		"agentId":   t.AgentID,
	})
}

func (s *Server) handlePaymentHistory(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	txns, err := s.d.Payments.History(r.Context(), viewerFrom(r.Context()), chi.URLParam(r, "agentID"), limit)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	items := make([]transactionJSON, 0, len(txns))
	for _, t := range txns {
		items = append(items, toTransaction(t))
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

// --- gateway & scheduler callbacks

func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 1<<20))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid body")
		return
	}
	res, err := s.d.Webhooks.Handle(r.Context(), body,
		r.Header.Get("X-Razorpay-Signature"), r.Header.Get("X-Razorpay-Event-Id"))
	if err != nil {
		if errors.Is(err, domain.ErrSignatureMismatch) {
			s.logFailure(r, http.StatusBadRequest, err)
			writeError(w, http.StatusBadRequest, "Invalid signature")
			return
		}
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "event": res.Event, "outcome": res.Outcome})
}

func (s *Server) handleSweep(w http.ResponseWriter, r *http.Request) {
	sum, err := s.d.Sweeper.Run(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}
