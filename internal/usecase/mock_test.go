//go:build !integration

package usecase_test

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"workforce-billing/internal/config"
	"workforce-billing/internal/domain/model"
	"workforce-billing/internal/infra/adapters/payment"
	"workforce-billing/internal/infra/db/memory"
	"workforce-billing/internal/infra/redis"
	"workforce-billing/internal/usecase"
)

// newTestLogger creates a silent zerolog.Logger for use in tests.
func newTestLogger() *zerolog.Logger {
	logger := zerolog.New(io.Discard)
	return &logger
}

const (
	testKeySecret     = "rzp_test_secret"
	testWebhookSecret = "whsec_test"
)

// fakeClock is a settable wall clock shared by the use cases and the sandbox gateway.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

// recordingNotifier keeps every message it was asked to send.
type recordingNotifier struct {
	mu       sync.Mutex
	messages []string
}

func (n *recordingNotifier) Notify(_ context.Context, text string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, text)
	return nil
}

func (n *recordingNotifier) Messages() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.messages...)
}

// testEnv wires every use case against the memory store and the sandbox gateway.
type testEnv struct {
	store    *memory.Store
	gateway  *payment.SandboxGateway
	clock    *fakeClock
	notifier *recordingNotifier
	locker   *redis.LocalLocker
	sweepCfg config.SweeperConfig

	workforce usecase.WorkforceUseCase
	subs      usecase.SubscriptionUseCase
	access    usecase.AccessUseCase
	resolver  usecase.PaymentResolver
	orders    usecase.OrderUseCase
	payments  usecase.PaymentUseCase
	webhooks  usecase.WebhookUseCase
	sweeper   usecase.SweeperUseCase
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := newTestLogger()
	env := &testEnv{
		store:    memory.NewStore(),
		gateway:  payment.NewSandboxGateway(),
		clock:    newFakeClock(),
		notifier: &recordingNotifier{},
		locker:   redis.NewLocalLocker(),
		sweepCfg: config.SweeperConfig{
			StaleAfter:   5 * time.Minute,
			AbandonAfter: 10 * time.Minute,
			BatchSize:    50,
			LockTTL:      time.Minute,
		},
	}
	env.gateway.SetClock(env.clock.Now)
	clock := usecase.Clock(env.clock.Now)
	orgs, agents := env.store.Organizations(), env.store.Agents()
	subs, pays := env.store.Subscriptions(), env.store.Payments()
	signer := payment.NewSigner(testKeySecret, testWebhookSecret)

	env.workforce = usecase.NewWorkforceUseCase(orgs, agents, subs, clock, logger)
	env.subs = usecase.NewSubscriptionUseCase(orgs, agents, subs, env.store, clock, logger)
	env.access = usecase.NewAccessUseCase(orgs, agents, subs, clock, logger)
	env.resolver = usecase.NewPaymentResolver(pays, subs, agents, env.store, env.notifier, clock, logger)
	env.orders = usecase.NewOrderUseCase(orgs, agents, subs, pays, env.gateway, "rzp_test_key", clock, logger)
	env.payments = usecase.NewPaymentUseCase(orgs, agents, pays, signer, env.resolver, logger)
	env.webhooks = usecase.NewWebhookUseCase(pays, signer, redis.NewLocalIdempotencyStore(), env.resolver, logger)
	env.sweeper = usecase.NewSweeperUseCase(pays, env.gateway, env.resolver, env.locker, env.notifier, env.sweepCfg, clock, logger)
	return env
}

// fixture is an owner with one organization and one sales agent.
type fixture struct {
	viewer *model.Identity
	org    *model.Organization
	agent  *model.Agent
}

func (e *testEnv) newFixture(t *testing.T, userID string) fixture {
	t.Helper()
	ctx := context.Background()
	viewer := &model.Identity{UserID: userID, Email: userID + "@example.com"}
	org, err := e.workforce.CreateOrganization(ctx, viewer, "Org of "+userID, "")
	if err != nil {
		t.Fatalf("CreateOrganization: %v", err)
	}
	agent, err := e.workforce.CreateAgent(ctx, viewer, org.ID, model.AgentTypeSales, "")
	if err != nil {
		t.Fatalf("CreateAgent: %v", err)
	}
	return fixture{viewer: viewer, org: org, agent: agent}
}

// withTrial activates the agent's trial and returns the subscription.
func (e *testEnv) withTrial(t *testing.T, f fixture) *model.Subscription {
	t.Helper()
	sub, err := e.subs.ActivateTrial(context.Background(), f.viewer, f.agent.ID)
	if err != nil {
		t.Fatalf("ActivateTrial: %v", err)
	}
	return sub
}

// newOrder creates a gateway order for the fixture's current subscription.
func (e *testEnv) newOrder(t *testing.T, f fixture, sub *model.Subscription) *usecase.OrderResult {
	t.Helper()
	res, err := e.orders.CreateOrder(context.Background(), f.viewer, f.agent.ID, sub.ID)
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}
	return res
}

func (e *testEnv) txnByOrder(t *testing.T, orderID string) *model.PaymentTransaction {
	t.Helper()
	txn, err := e.store.Payments().FindByOrderID(context.Background(), nil, orderID)
	if err != nil {
		t.Fatalf("FindByOrderID(%s): %v", orderID, err)
	}
	return txn
}

func (e *testEnv) currentSub(t *testing.T, agentID string) *model.Subscription {
	t.Helper()
	sub, err := e.store.Subscriptions().FindCurrentByAgent(context.Background(), nil, agentID)
	if err != nil {
		t.Fatalf("FindCurrentByAgent: %v", err)
	}
	return sub
}

func signPayment(orderID, paymentID string) string {
	return payment.SignPayment(testKeySecret, orderID, paymentID)
}

// webhookBody renders a gateway payment event and its signature.
func webhookBody(event, orderID, paymentID, errorDescription string) ([]byte, string) {
	body := []byte(`{"entity":"event","event":"` + event + `","payload":{"payment":{"entity":{` +
		`"id":"` + paymentID + `","order_id":"` + orderID + `","amount":80000,"status":"captured",` +
		`"error_description":"` + errorDescription + `"}}}}`)
	return body, payment.SignWebhook(testWebhookSecret, body)
}
