package payment

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	platformhttp "github.com/tradeplusonline/accessbot/internal/platform/http"
	"github.com/tradeplusonline/accessbot/models"
)

// ErrInvalidPayload marks a malformed grant payload: missing separator,
// non-numeric user id, or unknown tariff key. Rejected at the boundary, the
// store is never touched.
var ErrInvalidPayload = errors.New("invalid grant payload")

const cryptoPayBaseURL = "https://pay.crypt.bot/api"

// CryptoPayService creates crypt.bot invoices and verifies their webhooks.
type CryptoPayService struct {
	Token       string
	BotUsername string

	baseURL string
	client  *platformhttp.Client
	logger  zerolog.Logger
}

// NewCryptoPayService creates a CryptoPay service from the environment.
func NewCryptoPayService() *CryptoPayService {
	return &CryptoPayService{
		Token:       os.Getenv("CRYPTO_PAY_TOKEN"),
		BotUsername: os.Getenv("TELEGRAM_BOT_USERNAME"),
		baseURL:     cryptoPayBaseURL,
		client:      platformhttp.NewClient(platformhttp.ClientOptions{Timeout: 30 * time.Second}),
		logger:      log.With().Str("component", "cryptopay_client").Logger(),
	}
}

type createInvoiceRequest struct {
	Asset       string `json:"asset"`
	Amount      string `json:"amount"`
	Description string `json:"description"`
	PaidBtnName string `json:"paid_btn_name"`
	PaidBtnURL  string `json:"paid_btn_url"`
	Payload     string `json:"payload"`
}

type createInvoiceResponse struct {
	Ok     bool `json:"ok"`
	Result struct {
		InvoiceID int64  `json:"invoice_id"`
		PayURL    string `json:"pay_url"`
	} `json:"result"`
}

// Invoice is the webhook payload object for an invoice update.
type Invoice struct {
	InvoiceID int64  `json:"invoice_id"`
	Status    string `json:"status"`
	Payload   string `json:"payload"`
}

// WebhookUpdate is a crypt.bot webhook envelope.
type WebhookUpdate struct {
	UpdateType string  `json:"update_type"`
	Payload    Invoice `json:"payload"`
}

// Paid reports whether this update is a completed invoice payment.
func (u *WebhookUpdate) Paid() bool {
	return u.UpdateType == "invoice_paid"
}

// CreateInvoice creates a payment invoice for a tariff and returns the pay
// URL. The invoice payload carries "<user_id>:<tariff_key>" so the webhook
// can attribute the payment.
func (s *CryptoPayService) CreateInvoice(ctx context.Context, userID int64, tariff models.Tariff) (string, error) {
	reqBody := createInvoiceRequest{
		Asset:       "USDT",
		Amount:      fmt.Sprintf("%d.%02d", tariff.AmountCents/100, tariff.AmountCents%100),
		Description: fmt.Sprintf("%d days access", tariff.Days),
		PaidBtnName: "openBot",
		PaidBtnURL:  fmt.Sprintf("https://t.me/%s", s.BotUsername),
		Payload:     GrantPayload(userID, tariff.Key),
	}

	data, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshaling invoice request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/createInvoice", bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Crypto-Pay-API-Token", s.Token)

	resp, err := s.client.DoRequest(ctx, req)
	if err != nil {
		return "", fmt.Errorf("creating invoice: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading invoice response: %w", err)
	}

	var result createInvoiceResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("parsing invoice response: %w", err)
	}

	if !result.Ok || result.Result.PayURL == "" {
		return "", fmt.Errorf("crypt.bot rejected invoice request")
	}

	s.logger.Info().
		Int64("user_id", userID).
		Str("tariff", tariff.Key).
		Int64("invoice_id", result.Result.InvoiceID).
		Msg("Invoice created")

	return result.Result.PayURL, nil
}

// VerifyWebhookSignature checks the crypto-pay-api-signature header: an
// HMAC-SHA256 of the raw body keyed with SHA256 of the API token.
func (s *CryptoPayService) VerifyWebhookSignature(body []byte, signature string) error {
	secret := sha256.Sum256([]byte(s.Token))

	mac := hmac.New(sha256.New, secret[:])
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return fmt.Errorf("webhook signature mismatch")
	}
	return nil
}

// ParseWebhook decodes a webhook body into an update envelope.
func (s *CryptoPayService) ParseWebhook(body []byte) (*WebhookUpdate, error) {
	var update WebhookUpdate
	if err := json.Unmarshal(body, &update); err != nil {
		return nil, fmt.Errorf("parsing webhook body: %w", err)
	}
	return &update, nil
}

// GrantPayload builds the "<user_id>:<tariff_key>" invoice payload.
func GrantPayload(userID int64, tariffKey string) string {
	return fmt.Sprintf("%d:%s", userID, tariffKey)
}

// ParseGrantPayload parses an invoice payload back into a user id and a
// tariff from the configured table. Any malformed input fails with
// ErrInvalidPayload.
func ParseGrantPayload(payload string, tariffs map[string]models.Tariff) (int64, models.Tariff, error) {
	idStr, key, found := strings.Cut(payload, ":")
	if !found {
		return 0, models.Tariff{}, fmt.Errorf("%w: missing separator in %q", ErrInvalidPayload, payload)
	}

	userID, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || userID <= 0 {
		return 0, models.Tariff{}, fmt.Errorf("%w: bad user id in %q", ErrInvalidPayload, payload)
	}

	tariff, ok := tariffs[key]
	if !ok {
		return 0, models.Tariff{}, fmt.Errorf("%w: unknown tariff %q", ErrInvalidPayload, key)
	}

	return userID, tariff, nil
}
