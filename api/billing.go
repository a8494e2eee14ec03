package api

import (
	"context"
	"net/url"
	"time"

	"github.com/dgraph-io/ristretto"
)

// PlanFeatures is free-form marketing copy attached to a plan.
type PlanFeatures struct {
	Description string   `json:"description,omitempty"`
	Features    []string `json:"features,omitempty"`
}

// Plan is a purchasable tier. Prices and limits come from the
// backend; the client never computes them.
type Plan struct {
	ID                        string        `json:"id"`
	Name                      string        `json:"name"`
	Slug                      string        `json:"slug"`
	PriceCents                int64         `json:"price_cents"`
	Interval                  string        `json:"interval"`
	StripePriceID             string        `json:"stripe_price_id,omitempty"`
	Features                  *PlanFeatures `json:"features,omitempty"`
	MaxMemories               *int          `json:"max_memories,omitempty"`
	MaxRetrievalCallsPerMonth *int          `json:"max_retrieval_calls_per_month,omitempty"`
}

// Subscription is the user's current paid tier.
type Subscription struct {
	ID                   string    `json:"id"`
	UserID               string    `json:"user_id"`
	PlanID               string    `json:"plan_id"`
	PlanName             string    `json:"plan_name"`
	Status               string    `json:"status"`
	CurrentPeriodStart   time.Time `json:"current_period_start"`
	CurrentPeriodEnd     time.Time `json:"current_period_end"`
	CancelAtPeriodEnd    bool      `json:"cancel_at_period_end"`
	StripeSubscriptionID string    `json:"stripe_subscription_id,omitempty"`
}

// CheckoutParams starts a redirect-based checkout. The returned URL
// is where the caller sends the user; the backend handles the rest.
type CheckoutParams struct {
	PlanID     string `json:"plan_id"`
	SuccessURL string `json:"success_url"`
	CancelURL  string `json:"cancel_url"`
	CouponCode string `json:"coupon_code,omitempty"`
}

// CheckoutSession is the backend's answer to a checkout request.
type CheckoutSession struct {
	URL       string `json:"url"`
	SessionID string `json:"session_id"`
}

// Usage is the current billing-month consumption. Nil limits mean
// unlimited.
type Usage struct {
	Month          string `json:"month"`
	MemoryCount    int    `json:"memory_count"`
	MemoryLimit    *int   `json:"memory_limit"`
	RetrievalCount int    `json:"retrieval_count"`
	RetrievalLimit *int   `json:"retrieval_limit"`
}

// Invoice is a read-only projection of a past charge.
type Invoice struct {
	ID               string    `json:"id"`
	AmountCents      int64     `json:"amount_cents"`
	Currency         string    `json:"currency"`
	Status           string    `json:"status"`
	HostedInvoiceURL *string   `json:"hosted_invoice_url,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

// BillingService groups the plan, subscription, and usage lookups.
type BillingService struct {
	client *Client
	cache  *planCache
}

// ListPlans returns the purchasable tiers. This is a public endpoint:
// no Authorization header is sent. Enabled via WithPlanCache, results
// are served from a TTL cache.
func (s *BillingService) ListPlans(ctx context.Context) ([]Plan, error) {
	if plans, ok := s.cache.getPlans("plans"); ok {
		return plans, nil
	}
	var plans []Plan
	if err := s.client.do(ctx, "GET", "/plans", nil, nil, true, &plans); err != nil {
		return nil, err
	}
	s.cache.set("plans", plans)
	return plans, nil
}

// GetPlan fetches one plan by id.
func (s *BillingService) GetPlan(ctx context.Context, planID string) (*Plan, error) {
	cacheKey := "plan:" + planID
	if plan, ok := s.cache.getPlan(cacheKey); ok {
		return plan, nil
	}
	var plan Plan
	if err := s.client.get(ctx, "/plans/"+url.PathEscape(planID), nil, &plan); err != nil {
		return nil, err
	}
	s.cache.set(cacheKey, &plan)
	return &plan, nil
}

// InvalidatePlans drops all cached plan data. A no-op without a
// configured cache.
func (s *BillingService) InvalidatePlans() {
	s.cache.clear()
}

// MySubscription returns the current subscription, or nil when the
// user is on the free/default tier.
func (s *BillingService) MySubscription(ctx context.Context) (*Subscription, error) {
	var sub *Subscription
	if err := s.client.get(ctx, "/subscriptions/me", nil, &sub); err != nil {
		return nil, err
	}
	return sub, nil
}

// CreateCheckout opens a hosted checkout session for a plan.
func (s *BillingService) CreateCheckout(ctx context.Context, p CheckoutParams) (*CheckoutSession, error) {
	var session CheckoutSession
	if err := s.client.post(ctx, "/payments/checkout", nil, p, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// Usage returns this month's consumption against plan limits.
func (s *BillingService) Usage(ctx context.Context) (*Usage, error) {
	var usage Usage
	if err := s.client.get(ctx, "/usage", nil, &usage); err != nil {
		return nil, err
	}
	return &usage, nil
}

// Invoices lists past charges, newest first.
func (s *BillingService) Invoices(ctx context.Context) ([]Invoice, error) {
	var invoices []Invoice
	if err := s.client.get(ctx, "/invoices", nil, &invoices); err != nil {
		return nil, err
	}
	return invoices, nil
}

// planCache is a small TTL cache over ristretto for plan lookups.
// A nil *planCache is valid and means caching is disabled.
type planCache struct {
	cache *ristretto.Cache
	ttl   time.Duration
}

func newPlanCache(ttl time.Duration) *planCache {
	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 1 << 10,
		MaxCost:     1 << 20,
		BufferItems: 64,
	})
	if err != nil {
		// Static config; only reachable if ristretto changes its
		// validation. Run uncached in that case.
		return nil
	}
	return &planCache{cache: cache, ttl: ttl}
}

func (p *planCache) getPlans(key string) ([]Plan, bool) {
	if p == nil {
		return nil, false
	}
	if v, ok := p.cache.Get(key); ok {
		if plans, ok := v.([]Plan); ok {
			return plans, true
		}
	}
	return nil, false
}

func (p *planCache) getPlan(key string) (*Plan, bool) {
	if p == nil {
		return nil, false
	}
	if v, ok := p.cache.Get(key); ok {
		if plan, ok := v.(*Plan); ok {
			return plan, true
		}
	}
	return nil, false
}

func (p *planCache) set(key string, v any) {
	if p == nil {
		return
	}
	p.cache.SetWithTTL(key, v, 1, p.ttl)
	// Ristretto applies sets asynchronously; wait so a lookup right
	// after a fetch hits the cache.
	p.cache.Wait()
}

func (p *planCache) clear() {
	if p == nil {
		return
	}
	p.cache.Clear()
}
