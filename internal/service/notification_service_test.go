package service_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/notifyhub/receiver/internal/config"
	"github.com/notifyhub/receiver/internal/domain"
	"github.com/notifyhub/receiver/internal/provider"
	"github.com/notifyhub/receiver/internal/ratelimiter"
	"github.com/notifyhub/receiver/internal/repository"
	"github.com/notifyhub/receiver/internal/service"
	"github.com/notifyhub/receiver/internal/worker"
)

func newService(opts ...service.Option) (*service.NotificationService, *repository.MemorySubscriberRepository) {
	repo := repository.NewMemorySubscriberRepository()
	return newServiceWithRepo(repo, opts...), repo
}

func newServiceWithRepo(repo repository.SubscriberRepository, opts ...service.Option) *service.NotificationService {
	cfg := &config.Config{NotifyConcurrency: 4, CallbackTimeout: time.Second}
	pool := worker.NewPool(cfg, provider.NewCallbackProvider(time.Second), ratelimiter.New(0), zap.NewNop(), worker.MetricHooks{})
	return service.NewNotificationService(repo, pool, zap.NewNop(), opts...)
}

// failingListRepo is a memory repository whose List always fails.
type failingListRepo struct {
	*repository.MemorySubscriberRepository
	err error
}

func (r failingListRepo) List(context.Context, string) ([]domain.Subscriber, error) {
	return nil, r.err
}

// callbackServer answers every path with 200 except those listed in failing,
// which get 500. It records the paths it was called on.
type callbackServer struct {
	*httptest.Server
	mu    sync.Mutex
	calls []string
}

func newCallbackServer(t *testing.T, failing ...string) *callbackServer {
	cs := &callbackServer{}
	fail := make(map[string]bool, len(failing))
	for _, p := range failing {
		fail[p] = true
	}
	cs.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cs.mu.Lock()
		cs.calls = append(cs.calls, r.URL.Path)
		cs.mu.Unlock()
		if fail[r.URL.Path] {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(cs.Close)
	return cs
}

func (cs *callbackServer) Calls() []string {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	return append([]string(nil), cs.calls...)
}

func healthNote() domain.Notification {
	return domain.Notification{
		ProductType: "Health",
		ProductURL:  "http://shop/products/1",
		Status:      domain.StatusCreated,
	}
}

func TestNotificationService_Subscribe(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()

	sub, err := svc.Subscribe(ctx, domain.SubscriberRequest{URL: " http://a/cb ", ProductType: "Health"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sub.URL != "http://a/cb" || sub.ProductType != "Health" {
		t.Fatalf("unexpected subscriber: %+v", sub)
	}
}

func TestNotificationService_Subscribe_Duplicate(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()
	req := domain.SubscriberRequest{URL: "http://a/cb", ProductType: "Health"}

	if _, err := svc.Subscribe(ctx, req); err != nil {
		t.Fatalf("first call: %v", err)
	}
	_, err := svc.Subscribe(ctx, req)
	if !errors.Is(err, domain.ErrDuplicateSubscriber) {
		t.Fatalf("expected ErrDuplicateSubscriber, got %v", err)
	}
}

func TestNotificationService_Subscribe_SameURLOtherProductType(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()

	if _, err := svc.Subscribe(ctx, domain.SubscriberRequest{URL: "http://a/cb", ProductType: "Health"}); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Subscribe(ctx, domain.SubscriberRequest{URL: "http://a/cb", ProductType: "Food"}); err != nil {
		t.Fatalf("expected subscriptions to be scoped per product type, got %v", err)
	}
}

func TestNotificationService_Subscribe_Invalid(t *testing.T) {
	svc, _ := newService()

	tests := []struct {
		name string
		req  domain.SubscriberRequest
	}{
		{"empty url", domain.SubscriberRequest{ProductType: "Health"}},
		{"empty product type", domain.SubscriberRequest{URL: "http://a/cb"}},
		{"bad scheme", domain.SubscriberRequest{URL: "mailto:a@b", ProductType: "Health"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Subscribe(context.Background(), tc.req)
			if !errors.Is(err, domain.ErrInvalidRequest) {
				t.Fatalf("expected ErrInvalidRequest, got %v", err)
			}
		})
	}
}

func TestNotificationService_Unsubscribe(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()
	req := domain.SubscriberRequest{URL: "http://a/cb", ProductType: "Health"}

	if err := svc.Unsubscribe(ctx, req); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if _, err := svc.Subscribe(ctx, req); err != nil {
		t.Fatal(err)
	}
	if err := svc.Unsubscribe(ctx, req); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	subs, _ := svc.ListSubscribers(ctx, "Health")
	if len(subs) != 0 {
		t.Fatalf("expected no subscribers after unsubscribe, got %v", subs)
	}
}

func TestNotificationService_SubscriptionHook(t *testing.T) {
	var actions []string
	svc, _ := newService(service.WithSubscriptionHook(func(a string) { actions = append(actions, a) }))
	ctx := context.Background()
	req := domain.SubscriberRequest{URL: "http://a/cb", ProductType: "Health"}

	_, _ = svc.Subscribe(ctx, req)
	_, _ = svc.Subscribe(ctx, req) // duplicate: not counted
	_ = svc.Unsubscribe(ctx, req)

	if len(actions) != 2 || actions[0] != "subscribe" || actions[1] != "unsubscribe" {
		t.Fatalf("unexpected hook calls: %v", actions)
	}
}

func TestNotificationService_Notify_NoSubscribers(t *testing.T) {
	svc, _ := newService()

	report, err := svc.Notify(context.Background(), healthNote())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Delivered != 0 || report.Failed == nil || len(report.Failed) != 0 {
		t.Fatalf("expected empty report, got %+v", report)
	}
}

// TestNotificationService_Notify_PartialFailure: N subscribers, M failing
// callbacks → delivered = N-M and failed lists exactly the M URLs.
func TestNotificationService_Notify_PartialFailure(t *testing.T) {
	cs := newCallbackServer(t, "/b", "/d")
	svc, _ := newService()
	ctx := context.Background()

	for _, p := range []string{"/a", "/b", "/c", "/d", "/e"} {
		if _, err := svc.Subscribe(ctx, domain.SubscriberRequest{URL: cs.URL + p, ProductType: "Health"}); err != nil {
			t.Fatal(err)
		}
	}

	report, err := svc.Notify(ctx, healthNote())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Delivered != 3 {
		t.Fatalf("expected delivered=3, got %d", report.Delivered)
	}
	if len(report.Failed) != 2 ||
		report.Failed[0].URL != cs.URL+"/b" ||
		report.Failed[1].URL != cs.URL+"/d" {
		t.Fatalf("unexpected failed list: %+v", report.Failed)
	}
	for _, f := range report.Failed {
		if f.Reason == "" {
			t.Fatalf("expected a reason for %s", f.URL)
		}
	}
	if got := len(cs.Calls()); got != 5 {
		t.Fatalf("expected one attempt per subscriber (5), got %d", got)
	}
}

func TestNotificationService_Notify_SingleFailingCallback(t *testing.T) {
	cs := newCallbackServer(t, "/cb")
	svc, _ := newService()
	ctx := context.Background()

	if _, err := svc.Subscribe(ctx, domain.SubscriberRequest{URL: cs.URL + "/cb", ProductType: "Health"}); err != nil {
		t.Fatal(err)
	}

	report, err := svc.Notify(ctx, healthNote())
	if err != nil {
		t.Fatalf("delivery failures must not fail notify, got %v", err)
	}
	if report.Delivered != 0 || len(report.Failed) != 1 || report.Failed[0].URL != cs.URL+"/cb" {
		t.Fatalf("unexpected report: %+v", report)
	}
}

func TestNotificationService_Notify_OnlyMatchingProductType(t *testing.T) {
	cs := newCallbackServer(t)
	svc, _ := newService()
	ctx := context.Background()

	_, _ = svc.Subscribe(ctx, domain.SubscriberRequest{URL: cs.URL + "/health", ProductType: "Health"})
	_, _ = svc.Subscribe(ctx, domain.SubscriberRequest{URL: cs.URL + "/food", ProductType: "Food"})

	report, err := svc.Notify(ctx, healthNote())
	if err != nil {
		t.Fatal(err)
	}
	if report.Delivered != 1 {
		t.Fatalf("expected delivered=1, got %d", report.Delivered)
	}
	calls := cs.Calls()
	if len(calls) != 1 || calls[0] != "/health" {
		t.Fatalf("unexpected callback calls: %v", calls)
	}
}

func TestNotificationService_Subscribe_CaseVariantIsDuplicate(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()

	if _, err := svc.Subscribe(ctx, domain.SubscriberRequest{URL: "http://a/cb", ProductType: "Health"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, err := svc.Subscribe(ctx, domain.SubscriberRequest{URL: "HTTP://A/cb", ProductType: "Health"})
	if !errors.Is(err, domain.ErrDuplicateSubscriber) {
		t.Fatalf("expected ErrDuplicateSubscriber, got %v", err)
	}
	if err := svc.Unsubscribe(ctx, domain.SubscriberRequest{URL: "Http://a/cb", ProductType: "Health"}); err != nil {
		t.Fatalf("expected case variant to unsubscribe, got %v", err)
	}
}

func TestNotificationService_Notify_Invalid(t *testing.T) {
	svc, _ := newService()

	n := healthNote()
	n.ProductType = ""
	if _, err := svc.Notify(context.Background(), n); !errors.Is(err, domain.ErrInvalidRequest) {
		t.Fatalf("expected ErrInvalidRequest, got %v", err)
	}
}

func TestNotificationService_Notify_StoreError(t *testing.T) {
	storeErr := errors.New("store unavailable")
	svc := newServiceWithRepo(failingListRepo{
		MemorySubscriberRepository: repository.NewMemorySubscriberRepository(),
		err:                        storeErr,
	})

	if _, err := svc.Notify(context.Background(), healthNote()); !errors.Is(err, storeErr) {
		t.Fatalf("expected store error to fail notify, got %v", err)
	}
}

func TestNotificationService_Notify_DoesNotMutateInput(t *testing.T) {
	cs := newCallbackServer(t)
	svc, _ := newService()
	ctx := context.Background()
	_, _ = svc.Subscribe(ctx, domain.SubscriberRequest{URL: cs.URL + "/cb", ProductType: "Health"})

	n := healthNote()
	if _, err := svc.Notify(ctx, n); err != nil {
		t.Fatal(err)
	}
	if n.ID != "" {
		t.Fatalf("caller's notification was modified: %+v", n)
	}
}

// TestNotificationService_Notify_CallerCancellation verifies deliveries still
// complete when the inbound context is cancelled mid-flight.
func TestNotificationService_Notify_CallerCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cancel()
		time.Sleep(20 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	svc, _ := newService()
	if _, err := svc.Subscribe(context.Background(), domain.SubscriberRequest{URL: srv.URL + "/cb", ProductType: "Health"}); err != nil {
		t.Fatal(err)
	}

	report, err := svc.Notify(ctx, healthNote())
	if err != nil {
		t.Fatal(err)
	}
	if report.Delivered != 1 {
		t.Fatalf("expected delivery to survive caller cancellation, got %+v", report)
	}
}

func TestNotificationService_ListSubscribers_Invalid(t *testing.T) {
	svc, _ := newService()
	if _, err := svc.ListSubscribers(context.Background(), "  "); !errors.Is(err, domain.ErrInvalidRequest) {
		t.Fatalf("expected ErrInvalidRequest, got %v", err)
	}
}

func TestNotificationService_Counts(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()
	_, _ = svc.Subscribe(ctx, domain.SubscriberRequest{URL: "http://a/cb", ProductType: "Health"})
	_, _ = svc.Subscribe(ctx, domain.SubscriberRequest{URL: "http://b/cb", ProductType: "Health"})

	counts, err := svc.Counts(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if counts["Health"] != 2 {
		t.Fatalf("expected 2 Health subscribers, got %v", counts)
	}
}
