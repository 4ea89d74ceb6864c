package services

import (
	"sort"
	"strings"

	"github.com/stripe/stripe-go/v72"
	"github.com/stripe/stripe-go/v72/client"
)

const defaultAppBase = "http://localhost:8000"

// checkoutSessionCreator is the slice of the Stripe client we use.
type checkoutSessionCreator interface {
	New(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
}

// CheckoutService creates hosted Stripe subscription checkouts.
type CheckoutService struct {
	sessions checkoutSessionCreator
	prices   map[string]string
	appBase  string
}

// NewCheckoutService builds the service. An empty secretKey leaves payments unconfigured.
func NewCheckoutService(secretKey string, prices map[string]string, appBase string) *CheckoutService {
	s := &CheckoutService{prices: prices, appBase: strings.TrimRight(appBase, "/")}
	if secretKey != "" {
		sc := &client.API{}
		sc.Init(secretKey, nil)
		s.sessions = sc.CheckoutSessions
	}
	return s
}

func (s *CheckoutService) Configured() bool { return s.sessions != nil }

// PricesPresent reports which plans have a usable price id.
func (s *CheckoutService) PricesPresent() map[string]bool {
	out := make(map[string]bool, len(s.prices))
	for plan, id := range s.prices {
		out[plan] = validPriceID(id)
	}
	return out
}

func (s *CheckoutService) Plans() []string {
	plans := make([]string, 0, len(s.prices))
	for plan := range s.prices {
		plans = append(plans, plan)
	}
	sort.Strings(plans)
	return plans
}

// AppBase picks APP_BASE_URL, then the request's own origin, then localhost.
func (s *CheckoutService) AppBase(requestOrigin string) string {
	if s.appBase != "" {
		return s.appBase
	}
	if requestOrigin != "" {
		return strings.TrimRight(requestOrigin, "/")
	}
	return defaultAppBase
}

// CreateSession starts a subscription checkout for plan and returns its hosted URL.
func (s *CheckoutService) CreateSession(plan, requestOrigin string) (string, error) {
	if !s.Configured() {
		return "", ErrPaymentsNotConfigured
	}

	plan = strings.ToLower(strings.TrimSpace(plan))
	priceID, ok := s.prices[plan]
	if !ok || !validPriceID(priceID) {
		return "", &ValidationError{
			Message: "Invalid plan or missing Stripe price ID for this plan.",
			Fields:  map[string]string{"plan": "must be one of " + strings.Join(s.Plans(), ", ")},
		}
	}

	base := s.AppBase(requestOrigin)
	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{Price: stripe.String(priceID), Quantity: stripe.Int64(1)},
		},
		SuccessURL: stripe.String(base + "/dashboard?checkout=success&session_id={CHECKOUT_SESSION_ID}"),
		CancelURL:  stripe.String(base + "/pricing?checkout=cancel"),
	}

	sess, err := s.sessions.New(params)
	if err != nil {
		return "", &PaymentsError{Err: err}
	}
	return sess.URL, nil
}

func validPriceID(id string) bool {
	return strings.HasPrefix(strings.TrimSpace(id), "price_")
}
