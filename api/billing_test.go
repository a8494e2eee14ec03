package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func plansServer(t *testing.T) (*httptest.Server, *atomic.Int64) {
	t.Helper()
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/api/v1/plans":
			_, _ = w.Write([]byte(`[{"id": "plan_free", "name": "Free", "price_cents": 0}, {"id": "plan_pro", "name": "Pro", "price_cents": 2900}]`))
		case "/api/v1/plans/plan_pro":
			_, _ = w.Write([]byte(`{"id": "plan_pro", "name": "Pro", "price_cents": 2900}`))
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"detail": "Plan not found"}`))
		}
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func TestListPlansCached(t *testing.T) {
	srv, hits := plansServer(t)
	client := New(srv.URL, WithPlanCache(time.Minute))

	for i := 0; i < 3; i++ {
		plans, err := client.Billing.ListPlans(context.Background())
		require.NoError(t, err)
		require.Len(t, plans, 2)
		assert.Equal(t, "plan_free", plans[0].ID)
	}
	assert.Equal(t, int64(1), hits.Load())

	client.Billing.InvalidatePlans()
	_, err := client.Billing.ListPlans(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), hits.Load())
}

func TestGetPlanCached(t *testing.T) {
	srv, hits := plansServer(t)
	client := New(srv.URL, WithPlanCache(time.Minute))

	for i := 0; i < 3; i++ {
		plan, err := client.Billing.GetPlan(context.Background(), "plan_pro")
		require.NoError(t, err)
		assert.Equal(t, int64(2900), plan.PriceCents)
	}
	assert.Equal(t, int64(1), hits.Load())
}

func TestPlansUncachedWithoutOption(t *testing.T) {
	srv, hits := plansServer(t)
	client := New(srv.URL)

	for i := 0; i < 3; i++ {
		_, err := client.Billing.ListPlans(context.Background())
		require.NoError(t, err)
	}
	assert.Equal(t, int64(3), hits.Load())
}

func TestMySubscriptionNull(t *testing.T) {
	// The backend reports "no paid subscription" as a JSON null body.
	srv, _ := recordingServer(t, 200, `null`)
	client := New(srv.URL)

	sub, err := client.Billing.MySubscription(context.Background())
	require.NoError(t, err)
	assert.Nil(t, sub)
}

func TestMySubscriptionPresent(t *testing.T) {
	srv, rec := recordingServer(t, 200, `{"id": "sub_1", "plan_id": "plan_pro", "status": "active"}`)
	client := New(srv.URL)

	sub, err := client.Billing.MySubscription(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "/api/v1/subscriptions/me", rec.path)
	require.NotNil(t, sub)
	assert.Equal(t, "plan_pro", sub.PlanID)
}

func TestCreateCheckout(t *testing.T) {
	srv, rec := recordingServer(t, 200, `{"url": "https://pay.example/c/1", "session_id": "cs_1"}`)
	client := New(srv.URL)

	cs, err := client.Billing.CreateCheckout(context.Background(), CheckoutParams{
		PlanID:     "plan_pro",
		SuccessURL: "https://app.example/ok",
		CancelURL:  "https://app.example/no",
	})
	require.NoError(t, err)
	assert.Equal(t, "POST", rec.method)
	assert.Equal(t, "/api/v1/payments/checkout", rec.path)
	assert.Equal(t, "https://pay.example/c/1", cs.URL)
}

func TestUsageAndInvoicesPaths(t *testing.T) {
	srv, rec := recordingServer(t, 200, `{"month": "2026-08", "memory_count": 2, "retrieval_count": 9}`)
	client := New(srv.URL)

	usage, err := client.Billing.Usage(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "/api/v1/usage", rec.path)
	assert.Equal(t, "2026-08", usage.Month)
	assert.Nil(t, usage.MemoryLimit)

	_, err = client.Billing.Invoices(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "/api/v1/invoices", rec.path)
}
