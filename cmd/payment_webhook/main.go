package main

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"os"

	_ "github.com/lib/pq"

	"github.com/tradeplusonline/accessbot/internal/config"
	"github.com/tradeplusonline/accessbot/internal/database"
	"github.com/tradeplusonline/accessbot/internal/entitlement"
	"github.com/tradeplusonline/accessbot/internal/payment"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	dbParams := database.ConnectionParams{
		Host:     cfg.DBHost,
		Port:     cfg.DBPort,
		User:     cfg.DBUser,
		Password: cfg.DBPassword,
		DBName:   cfg.DBName,
		SSLMode:  cfg.DBSSLMode,
	}

	log.Printf("Webhook server starting with DB params: host=%s, port=%s, user=%s, dbname=%s",
		dbParams.Host, dbParams.Port, dbParams.User, dbParams.DBName)

	db, err := database.New(dbParams)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	svc := entitlement.NewService(db, cfg.OwnerID)
	cryptoPay := payment.NewCryptoPayService()
	stripeService := payment.NewStripeService()

	log.Printf("Stripe initialized. Webhook secret: %s (length: %d)",
		maskSecret(os.Getenv("STRIPE_WEBHOOK_SECRET")), len(os.Getenv("STRIPE_WEBHOOK_SECRET")))

	// crypt.bot invoice updates carry the "<user_id>:<tariff_key>" payload.
	http.HandleFunc("/cryptopay", func(w http.ResponseWriter, r *http.Request) {
		log.Printf("Received CryptoPay webhook request from %s", r.RemoteAddr)

		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			log.Printf("Error reading request body: %v", err)
			http.Error(w, "Error reading request body", http.StatusBadRequest)
			return
		}

		signature := r.Header.Get("Crypto-Pay-Api-Signature")
		if signature == "" {
			log.Printf("Crypto-Pay-Api-Signature header not found")
			http.Error(w, "Signature header required", http.StatusBadRequest)
			return
		}

		if err := cryptoPay.VerifyWebhookSignature(body, signature); err != nil {
			log.Printf("Failed to verify CryptoPay signature: %v", err)
			http.Error(w, "Invalid signature", http.StatusBadRequest)
			return
		}

		update, err := cryptoPay.ParseWebhook(body)
		if err != nil {
			log.Printf("Failed to parse CryptoPay webhook: %v", err)
			http.Error(w, "Invalid body", http.StatusBadRequest)
			return
		}

		if !update.Paid() {
			log.Printf("Ignoring CryptoPay update type %q", update.UpdateType)
			writeOK(w)
			return
		}

		userID, tariff, err := payment.ParseGrantPayload(update.Payload.Payload, cfg.Tariffs)
		if err != nil {
			// Malformed payloads are logged and dropped; the store is
			// never touched.
			log.Printf("Rejected invoice payload %q: %v", update.Payload.Payload, err)
			http.Error(w, "Invalid payload", http.StatusBadRequest)
			return
		}

		expiresAt, err := svc.Grant(userID, userID, tariff.Duration())
		if err != nil {
			log.Printf("Failed to grant access for user %d: %v", userID, err)
			http.Error(w, "Error updating entitlement", http.StatusInternalServerError)
			return
		}

		log.Printf("Granted %d days to user %d (until %s)", tariff.Days, userID, expiresAt)
		writeOK(w)
	})

	http.HandleFunc("/webhook", func(w http.ResponseWriter, r *http.Request) {
		log.Printf("Received Stripe webhook request from %s", r.RemoteAddr)

		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			log.Printf("Error reading request body: %v", err)
			http.Error(w, "Error reading request body", http.StatusBadRequest)
			return
		}

		signature := r.Header.Get("Stripe-Signature")
		if signature == "" {
			log.Printf("Stripe-Signature header not found")
			http.Error(w, "Stripe-Signature header required", http.StatusBadRequest)
			return
		}

		event, err := stripeService.VerifyWebhookSignature(body, signature)
		if err != nil {
			log.Printf("Failed to verify webhook signature: %v", err)
			http.Error(w, "Invalid signature", http.StatusBadRequest)
			return
		}

		log.Printf("Webhook event verified. Event type: %s, Event ID: %s", event.Type, event.ID)

		userID, tariffKey, action, err := stripeService.ProcessWebhookEvent(event)
		if err != nil {
			if errors.Is(err, payment.ErrInvalidPayload) {
				log.Printf("Rejected Stripe event %s: %v", event.ID, err)
				http.Error(w, "Invalid payload", http.StatusBadRequest)
				return
			}
			// Event types this bot does not care about are acknowledged
			// so Stripe stops retrying them.
			log.Printf("Ignoring Stripe event %s: %v", event.ID, err)
			writeOK(w)
			return
		}

		switch action {
		case payment.ActionGrant:
			tariff, ok := cfg.Tariffs[tariffKey]
			if !ok {
				log.Printf("Rejected Stripe event %s: unknown tariff %q", event.ID, tariffKey)
				http.Error(w, "Invalid payload", http.StatusBadRequest)
				return
			}
			expiresAt, err := svc.Grant(userID, userID, tariff.Duration())
			if err != nil {
				log.Printf("Failed to grant access for user %d: %v", userID, err)
				http.Error(w, "Error updating entitlement", http.StatusInternalServerError)
				return
			}
			log.Printf("Granted %d days to user %d (until %s)", tariff.Days, userID, expiresAt)
		case payment.ActionRevoke:
			if err := svc.Revoke(userID); err != nil {
				log.Printf("Failed to revoke access for user %d: %v", userID, err)
				http.Error(w, "Error updating entitlement", http.StatusInternalServerError)
				return
			}
			log.Printf("Revoked access for user %d", userID)
		}

		writeOK(w)
	})

	// Add a simple health check endpoint
	http.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("Webhook server is running"))
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	log.Printf("Starting webhook server on port %s", port)
	if err := http.ListenAndServe(":"+port, nil); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

func writeOK(w http.ResponseWriter) {
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": "success"})
}

// maskSecret masks a secret string for logging (shows first 3 and last 3 characters)
func maskSecret(secret string) string {
	if len(secret) < 7 {
		return "***"
	}
	return secret[:3] + "..." + secret[len(secret)-3:]
}
