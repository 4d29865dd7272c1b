package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"testing"

	"github.com/tradeplusonline/accessbot/models"
)

var testTariffs = map[string]models.Tariff{
	"30":  {Key: "30", Days: 30, AmountCents: 599},
	"365": {Key: "365", Days: 365, AmountCents: 3999},
}

func TestParseGrantPayload(t *testing.T) {
	tests := []struct {
		name     string
		payload  string
		wantID   int64
		wantDays int
		wantErr  bool
	}{
		{"monthly tariff", "42:30", 42, 30, false},
		{"yearly tariff", "123456789:365", 123456789, 365, false},
		{"missing separator", "4230", 0, 0, true},
		{"empty payload", "", 0, 0, true},
		{"non-numeric user id", "abc:30", 0, 0, true},
		{"negative user id", "-5:30", 0, 0, true},
		{"zero user id", "0:30", 0, 0, true},
		{"unknown tariff key", "42:90", 0, 0, true},
		{"empty tariff key", "42:", 0, 0, true},
		{"fractional user id", "4.2:30", 0, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			userID, tariff, err := ParseGrantPayload(tt.payload, testTariffs)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseGrantPayload(%q) error = nil, want ErrInvalidPayload", tt.payload)
				}
				if !errors.Is(err, ErrInvalidPayload) {
					t.Errorf("ParseGrantPayload(%q) error = %v, want ErrInvalidPayload", tt.payload, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseGrantPayload(%q) error = %v", tt.payload, err)
			}
			if userID != tt.wantID {
				t.Errorf("ParseGrantPayload(%q) userID = %d, want %d", tt.payload, userID, tt.wantID)
			}
			if tariff.Days != tt.wantDays {
				t.Errorf("ParseGrantPayload(%q) days = %d, want %d", tt.payload, tariff.Days, tt.wantDays)
			}
		})
	}
}

func TestGrantPayloadRoundTrip(t *testing.T) {
	payload := GrantPayload(42, "30")
	if payload != "42:30" {
		t.Fatalf("GrantPayload() = %q, want %q", payload, "42:30")
	}

	userID, tariff, err := ParseGrantPayload(payload, testTariffs)
	if err != nil {
		t.Fatalf("ParseGrantPayload() error = %v", err)
	}
	if userID != 42 || tariff.Key != "30" {
		t.Errorf("round trip = (%d, %q), want (42, %q)", userID, tariff.Key, "30")
	}
}

func TestVerifyWebhookSignature(t *testing.T) {
	svc := &CryptoPayService{Token: "test-token"}
	body := []byte(`{"update_type":"invoice_paid","payload":{"status":"paid","payload":"42:30"}}`)

	secret := sha256.Sum256([]byte("test-token"))
	mac := hmac.New(sha256.New, secret[:])
	mac.Write(body)
	signature := hex.EncodeToString(mac.Sum(nil))

	if err := svc.VerifyWebhookSignature(body, signature); err != nil {
		t.Errorf("VerifyWebhookSignature() error = %v for a valid signature", err)
	}

	if err := svc.VerifyWebhookSignature(body, "deadbeef"); err == nil {
		t.Error("VerifyWebhookSignature() accepted a forged signature")
	}

	tampered := append([]byte{}, body...)
	tampered[len(tampered)-2] = '1'
	if err := svc.VerifyWebhookSignature(tampered, signature); err == nil {
		t.Error("VerifyWebhookSignature() accepted a tampered body")
	}
}

func TestParseWebhook(t *testing.T) {
	svc := &CryptoPayService{}

	update, err := svc.ParseWebhook([]byte(`{"update_type":"invoice_paid","payload":{"invoice_id":7,"status":"paid","payload":"42:30"}}`))
	if err != nil {
		t.Fatalf("ParseWebhook() error = %v", err)
	}
	if !update.Paid() {
		t.Error("Paid() = false for an invoice_paid update")
	}
	if update.Payload.Payload != "42:30" {
		t.Errorf("payload = %q, want %q", update.Payload.Payload, "42:30")
	}

	if _, err := svc.ParseWebhook([]byte(`not json`)); err == nil {
		t.Error("ParseWebhook() accepted malformed JSON")
	}

	update, err = svc.ParseWebhook([]byte(`{"update_type":"invoice_expired","payload":{}}`))
	if err != nil {
		t.Fatalf("ParseWebhook() error = %v", err)
	}
	if update.Paid() {
		t.Error("Paid() = true for an invoice_expired update")
	}
}
