package payment

import (
	"context"
	"fmt"
	"sync"
	"time"

	"workforce-billing/internal/domain"
	"workforce-billing/internal/domain/ports/adapter"
)

var _ adapter.PaymentGateway = (*SandboxGateway)(nil)

// SandboxGateway is an in-memory gateway for dev mode and tests. Orders start
// in "created"; tests drive them with Pay, Fail and SetStatus.
type SandboxGateway struct {
	mu       sync.Mutex
	seq      int64
	now      func() time.Time
	orders   map[string]*adapter.GatewayOrder
	receipts map[string]string // receipt -> order id
	payments map[string][]adapter.GatewayPayment

	// failCreate makes the next CreateOrder calls fail after registering the
	// order, simulating a lost response.
	failCreate    int
	dropAfterSave bool
	failFetch     error
}

func NewSandboxGateway() *SandboxGateway {
	return &SandboxGateway{
		now:      time.Now,
		orders:   make(map[string]*adapter.GatewayOrder),
		receipts: make(map[string]string),
		payments: make(map[string][]adapter.GatewayPayment),
	}
}

func (g *SandboxGateway) Name() string { return "sandbox" }

func (g *SandboxGateway) next(prefix string) string {
	g.seq++
	return fmt.Sprintf("%s_sandbox%06d", prefix, g.seq)
}

func (g *SandboxGateway) CreateOrder(_ context.Context, req adapter.OrderRequest) (*adapter.GatewayOrder, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.failCreate > 0 && !g.dropAfterSave {
		g.failCreate--
		return nil, fmt.Errorf("%w: sandbox create refused", domain.ErrGateway)
	}
	o := &adapter.GatewayOrder{
		ID:        g.next("order"),
		Amount:    req.Amount,
		Currency:  req.Currency,
		Receipt:   req.Receipt,
		Status:    adapter.OrderStatusCreated,
		CreatedAt: g.now().UTC(),
		Notes:     req.Notes,
	}
	g.orders[o.ID] = o
	g.receipts[o.Receipt] = o.ID
	if g.failCreate > 0 {
		g.failCreate--
		return nil, fmt.Errorf("%w: sandbox response lost", domain.ErrGateway)
	}
	cp := *o
	return &cp, nil
}

func (g *SandboxGateway) FetchOrder(_ context.Context, orderID string) (*adapter.GatewayOrder, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.failFetch != nil {
		return nil, g.failFetch
	}
	o, ok := g.orders[orderID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (g *SandboxGateway) FetchOrderPayments(_ context.Context, orderID string) ([]adapter.GatewayPayment, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.failFetch != nil {
		return nil, g.failFetch
	}
	if _, ok := g.orders[orderID]; !ok {
		return nil, domain.ErrNotFound
	}
	return append([]adapter.GatewayPayment(nil), g.payments[orderID]...), nil
}

func (g *SandboxGateway) FindOrderByReceipt(_ context.Context, receipt string) (*adapter.GatewayOrder, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	id, ok := g.receipts[receipt]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *g.orders[id]
	return &cp, nil
}

// Pay records a captured payment and marks the order paid. It returns the payment id.
func (g *SandboxGateway) Pay(orderID string) string {
	return g.addPayment(orderID, adapter.PaymentStatusCaptured, "", adapter.OrderStatusPaid)
}

// Fail records a failed payment attempt and marks the order attempted.
func (g *SandboxGateway) Fail(orderID, description string) string {
	return g.addPayment(orderID, adapter.PaymentStatusFailed, description, adapter.OrderStatusAttempted)
}

func (g *SandboxGateway) addPayment(orderID, status, desc, orderStatus string) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	o, ok := g.orders[orderID]
	if !ok {
		return ""
	}
	p := adapter.GatewayPayment{
		ID:               g.next("pay"),
		OrderID:          orderID,
		Status:           status,
		Amount:           o.Amount,
		ErrorDescription: desc,
	}
	g.payments[orderID] = append(g.payments[orderID], p)
	o.Status = orderStatus
	o.Attempts++
	return p.ID
}

// SetStatus overrides the order status.
func (g *SandboxGateway) SetStatus(orderID, status string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if o, ok := g.orders[orderID]; ok {
		o.Status = status
	}
}

// FailNextCreate makes the next n CreateOrder calls fail. With lostResponse the
// order still exists at the gateway, only the reply is lost.
func (g *SandboxGateway) FailNextCreate(n int, lostResponse bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.failCreate = n
	g.dropAfterSave = lostResponse
}

// FailFetches makes order lookups return err until cleared with nil.
func (g *SandboxGateway) FailFetches(err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.failFetch = err
}

// SetClock replaces the clock used for order creation times.
func (g *SandboxGateway) SetClock(now func() time.Time) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.now = now
}

// OrderCount reports how many orders were registered.
func (g *SandboxGateway) OrderCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.orders)
}
