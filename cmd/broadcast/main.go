package main

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	_ "github.com/lib/pq"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/tradeplusonline/accessbot/internal/config"
	"github.com/tradeplusonline/accessbot/internal/database"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatal("Usage: broadcast <message text>")
	}
	message := strings.Join(os.Args[1:], " ")

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

	db, err := database.New(dbParams)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	if cfg.TelegramBotToken == "" {
		log.Fatal("TELEGRAM_BOT_TOKEN not set in environment")
	}

	bot, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		log.Fatalf("Failed to initialize Telegram bot: %v", err)
	}

	ents, err := db.ListEntitlements()
	if err != nil {
		log.Fatalf("Failed to list entitlements: %v", err)
	}

	log.Printf("Found %d users in database", len(ents))

	successCount := 0
	errorCount := 0

	for i, ent := range ents {
		msg := tgbotapi.NewMessage(ent.ChatID, message)
		msg.ParseMode = "Markdown"

		_, err := bot.Send(msg)
		if err != nil {
			log.Printf("Failed to send message to user %d (chat_id: %d): %v",
				ent.UserID, ent.ChatID, err)
			errorCount++
		} else {
			log.Printf("✅ Message sent to user %d (chat_id: %d) [%d/%d]",
				ent.UserID, ent.ChatID, i+1, len(ents))
			successCount++
		}

		// Telegram allows 30 messages per second for bots, so we use 50ms delay
		if i < len(ents)-1 {
			time.Sleep(50 * time.Millisecond)
		}
	}

	log.Printf("=== BROADCAST COMPLETED ===")
	log.Printf("Total users: %d", len(ents))
	log.Printf("Successfully sent: %d", successCount)
	log.Printf("Failed to send: %d", errorCount)

	fmt.Printf("🎯 Broadcast completed: %d sent, %d failed out of %d total users\n",
		successCount, errorCount, len(ents))
}
