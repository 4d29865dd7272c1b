package payment

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stripe/stripe-go/v76"
)

func stripeEvent(eventType string, raw string) *stripe.Event {
	return &stripe.Event{
		Type: stripe.EventType(eventType),
		Data: &stripe.EventData{Raw: json.RawMessage(raw)},
	}
}

func TestProcessWebhookEvent(t *testing.T) {
	tests := []struct {
		name       string
		event      *stripe.Event
		wantID     int64
		wantTariff string
		wantAction Action
		wantErr    bool
		invalid    bool
	}{
		{
			name:       "completed checkout grants",
			event:      stripeEvent("checkout.session.completed", `{"metadata":{"user_id":"42","tariff":"30"}}`),
			wantID:     42,
			wantTariff: "30",
			wantAction: ActionGrant,
		},
		{
			name:       "deleted subscription revokes",
			event:      stripeEvent("customer.subscription.deleted", `{"metadata":{"user_id":"42"}}`),
			wantID:     42,
			wantAction: ActionRevoke,
		},
		{
			name:    "checkout without user id",
			event:   stripeEvent("checkout.session.completed", `{"metadata":{"tariff":"30"}}`),
			wantErr: true,
			invalid: true,
		},
		{
			name:    "checkout without tariff",
			event:   stripeEvent("checkout.session.completed", `{"metadata":{"user_id":"42"}}`),
			wantErr: true,
			invalid: true,
		},
		{
			name:    "checkout with non-numeric user id",
			event:   stripeEvent("checkout.session.completed", `{"metadata":{"user_id":"abc","tariff":"30"}}`),
			wantErr: true,
			invalid: true,
		},
		{
			name:    "unhandled event type",
			event:   stripeEvent("invoice.finalized", `{}`),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			userID, tariffKey, action, err := (&StripeService{}).ProcessWebhookEvent(tt.event)
			if tt.wantErr {
				if err == nil {
					t.Fatal("ProcessWebhookEvent() error = nil, want error")
				}
				if tt.invalid && !errors.Is(err, ErrInvalidPayload) {
					t.Errorf("ProcessWebhookEvent() error = %v, want ErrInvalidPayload", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ProcessWebhookEvent() error = %v", err)
			}
			if userID != tt.wantID {
				t.Errorf("userID = %d, want %d", userID, tt.wantID)
			}
			if tariffKey != tt.wantTariff {
				t.Errorf("tariffKey = %q, want %q", tariffKey, tt.wantTariff)
			}
			if action != tt.wantAction {
				t.Errorf("action = %q, want %q", action, tt.wantAction)
			}
		})
	}
}
