package memtest

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/Al-aminI/memsient-go/api"
)

func intPtr(v int) *int { return &v }

// seedPlans returns the fixed tier ladder every fresh server carries.
func seedPlans() []api.Plan {
	return []api.Plan{
		{
			ID:         "plan_free",
			Name:       "Free",
			Slug:       "free",
			PriceCents: 0,
			Interval:   "month",
			Features: &api.PlanFeatures{
				Description: "For trying things out",
				Features:    []string{"3 memories", "1,000 retrieval calls/month"},
			},
			MaxMemories:               intPtr(3),
			MaxRetrievalCallsPerMonth: intPtr(1000),
		},
		{
			ID:            "plan_pro",
			Name:          "Pro",
			Slug:          "pro",
			PriceCents:    2900,
			Interval:      "month",
			StripePriceID: "price_memtest_pro",
			Features: &api.PlanFeatures{
				Description: "For production workloads",
				Features:    []string{"25 memories", "50,000 retrieval calls/month", "Priority support"},
			},
			MaxMemories:               intPtr(25),
			MaxRetrievalCallsPerMonth: intPtr(50000),
		},
		{
			ID:            "plan_scale",
			Name:          "Scale",
			Slug:          "scale",
			PriceCents:    9900,
			Interval:      "month",
			StripePriceID: "price_memtest_scale",
			Features: &api.PlanFeatures{
				Description: "For teams that outgrew limits",
				Features:    []string{"Unlimited memories", "Unlimited retrieval calls", "SLA"},
			},
		},
	}
}

type checkoutRequest struct {
	PlanID     string `json:"plan_id" validate:"required"`
	SuccessURL string `json:"success_url" validate:"required"`
	CancelURL  string `json:"cancel_url" validate:"required"`
	CouponCode string `json:"coupon_code"`
}

func (s *Server) handleListPlans(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, s.plans)
}

func (s *Server) handleGetPlan(w http.ResponseWriter, r *http.Request) {
	planID := chi.URLParam(r, "planID")

	s.mu.Lock()
	defer s.mu.Unlock()
	plan, ok := s.planByID(planID)
	if !ok {
		detail(w, http.StatusNotFound, "Plan not found")
		return
	}
	writeJSON(w, http.StatusOK, plan)
}

func (s *Server) handleMySubscription(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	// Encodes as JSON null on the free tier.
	writeJSON(w, http.StatusOK, s.subs[userID(r)])
}

func (s *Server) handleCheckout(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if err := decodeJSON(r, &req); err != nil {
		detail(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		detail(w, http.StatusUnprocessableEntity, s.validationDetails(err))
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.planByID(req.PlanID); !ok {
		detail(w, http.StatusNotFound, "Plan not found")
		return
	}
	sessionID := "cs_" + uuid.NewString()
	s.checkouts[sessionID] = &checkoutRecord{userID: userID(r), planID: req.PlanID}
	writeJSON(w, http.StatusOK, api.CheckoutSession{
		URL:       "https://checkout.memtest.invalid/c/" + sessionID,
		SessionID: sessionID,
	})
}

// CompleteCheckout simulates the payment provider finishing a
// checkout session: the user gets an active subscription and a paid
// invoice. Tests use it to drive the post-payment state without a
// browser redirect.
func (s *Server) CompleteCheckout(sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	checkout, ok := s.checkouts[sessionID]
	if !ok {
		return errors.New("memtest: unknown checkout session")
	}
	plan, ok := s.planByID(checkout.planID)
	if !ok {
		return errors.New("memtest: checkout references unknown plan")
	}
	delete(s.checkouts, sessionID)

	now := time.Now().UTC()
	s.subs[checkout.userID] = &api.Subscription{
		ID:                   "sub_" + uuid.NewString(),
		UserID:               checkout.userID,
		PlanID:               plan.ID,
		PlanName:             plan.Name,
		Status:               "active",
		CurrentPeriodStart:   now,
		CurrentPeriodEnd:     now.AddDate(0, 1, 0),
		StripeSubscriptionID: "sub_memtest_" + sessionID,
	}
	hosted := "https://invoices.memtest.invalid/" + sessionID
	s.invoices[checkout.userID] = append([]api.Invoice{{
		ID:               "in_" + uuid.NewString(),
		AmountCents:      plan.PriceCents,
		Currency:         "usd",
		Status:           "paid",
		HostedInvoiceURL: &hosted,
		CreatedAt:        now,
	}}, s.invoices[checkout.userID]...)
	return nil
}

func (s *Server) handleUsage(w http.ResponseWriter, r *http.Request) {
	uid := userID(r)

	s.mu.Lock()
	defer s.mu.Unlock()
	plan := s.planFor(uid)
	writeJSON(w, http.StatusOK, api.Usage{
		Month:          time.Now().UTC().Format("2006-01"),
		MemoryCount:    len(s.memories[uid]),
		MemoryLimit:    plan.MaxMemories,
		RetrievalCount: s.retrievals[uid],
		RetrievalLimit: plan.MaxRetrievalCallsPerMonth,
	})
}

func (s *Server) handleInvoices(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := s.invoices[userID(r)]
	if list == nil {
		list = []api.Invoice{}
	}
	writeJSON(w, http.StatusOK, list)
}

// planByID looks up a seeded plan. Callers hold s.mu.
func (s *Server) planByID(id string) (*api.Plan, bool) {
	for i := range s.plans {
		if s.plans[i].ID == id {
			return &s.plans[i], true
		}
	}
	return nil, false
}

// planFor resolves the user's effective plan: the subscribed one, or
// the free tier. Callers hold s.mu.
func (s *Server) planFor(uid string) *api.Plan {
	if sub := s.subs[uid]; sub != nil {
		if plan, ok := s.planByID(sub.PlanID); ok {
			return plan
		}
	}
	plan, _ := s.planByID("plan_free")
	return plan
}
