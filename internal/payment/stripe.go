package payment

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/checkout/session"
	"github.com/stripe/stripe-go/v76/webhook"
)

// Action is what a verified Stripe event asks the entitlement service to do.
type Action string

const (
	ActionGrant  Action = "grant"
	ActionRevoke Action = "revoke"
)

// StripeService handles Stripe payment operations
type StripeService struct {
	SubscriptionPriceID string
	WebhookSecret       string
}

// NewStripeService creates a new Stripe payment service
func NewStripeService() *StripeService {
	// Initialize Stripe with the API key
	stripe.Key = os.Getenv("STRIPE_API_KEY")

	return &StripeService{
		SubscriptionPriceID: os.Getenv("STRIPE_SUBSCRIPTION_PRICE_ID"),
		WebhookSecret:       os.Getenv("STRIPE_WEBHOOK_SECRET"),
	}
}

// CreateCheckoutSession creates a new Stripe checkout session for a tariff.
// The metadata carries the user id and tariff key the webhook grants from.
func (s *StripeService) CreateCheckoutSession(userID int64, tariffKey string) (string, string, error) {
	botUsername := os.Getenv("TELEGRAM_BOT_USERNAME")
	if botUsername == "" {
		return "", "", fmt.Errorf("TELEGRAM_BOT_USERNAME not set")
	}
	if s.SubscriptionPriceID == "" {
		return "", "", fmt.Errorf("STRIPE_SUBSCRIPTION_PRICE_ID not set")
	}

	successURL := fmt.Sprintf("https://t.me/%s?start=payment_success", botUsername)
	cancelURL := fmt.Sprintf("https://t.me/%s?start=payment_cancel", botUsername)

	metadata := map[string]string{
		"user_id": fmt.Sprintf("%d", userID),
		"tariff":  tariffKey,
	}

	params := &stripe.CheckoutSessionParams{
		SuccessURL: stripe.String(successURL),
		CancelURL:  stripe.String(cancelURL),
		Mode:       stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(s.SubscriptionPriceID),
				Quantity: stripe.Int64(1),
			},
		},
		Metadata: metadata,
	}

	sess, err := session.New(params)
	if err != nil {
		return "", "", err
	}

	return sess.ID, sess.URL, nil
}

// VerifyWebhookSignature verifies the signature of a Stripe webhook event
func (s *StripeService) VerifyWebhookSignature(payload []byte, signature string) (*stripe.Event, error) {
	event, err := webhook.ConstructEvent(payload, signature, s.WebhookSecret)
	return &event, err
}

// ProcessWebhookEvent maps a verified Stripe event onto an entitlement
// action. Events without a usable user id fail with ErrInvalidPayload and
// must not mutate anything.
func (s *StripeService) ProcessWebhookEvent(event *stripe.Event) (int64, string, Action, error) {
	switch event.Type {
	case "checkout.session.completed":
		var sess stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
			return 0, "", "", fmt.Errorf("failed to parse checkout session: %w", err)
		}

		userID, err := userIDFromMetadata(sess.Metadata)
		if err != nil {
			return 0, "", "", err
		}

		tariffKey := sess.Metadata["tariff"]
		if tariffKey == "" {
			return 0, "", "", fmt.Errorf("%w: tariff not found in session metadata", ErrInvalidPayload)
		}

		return userID, tariffKey, ActionGrant, nil

	case "customer.subscription.deleted":
		// Subscription was cancelled or expired on the Stripe side
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			return 0, "", "", fmt.Errorf("failed to parse subscription: %w", err)
		}

		userID, err := userIDFromMetadata(sub.Metadata)
		if err != nil {
			return 0, "", "", err
		}

		return userID, "", ActionRevoke, nil

	default:
		return 0, "", "", fmt.Errorf("unhandled event type: %s", event.Type)
	}
}

func userIDFromMetadata(metadata map[string]string) (int64, error) {
	userIDStr, ok := metadata["user_id"]
	if !ok {
		return 0, fmt.Errorf("%w: user_id not found in metadata", ErrInvalidPayload)
	}

	userID, err := strconv.ParseInt(userIDStr, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid user_id %q", ErrInvalidPayload, userIDStr)
	}

	return userID, nil
}
