package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"github.com/tradeplusonline/accessbot/internal/api/binance"
	"github.com/tradeplusonline/accessbot/internal/api/cryptopanic"
	openaiapi "github.com/tradeplusonline/accessbot/internal/api/openai"
	"github.com/tradeplusonline/accessbot/internal/api/openweather"
	"github.com/tradeplusonline/accessbot/internal/config"
	"github.com/tradeplusonline/accessbot/internal/database"
	"github.com/tradeplusonline/accessbot/internal/entitlement"
	"github.com/tradeplusonline/accessbot/internal/notify"
	"github.com/tradeplusonline/accessbot/internal/payment"
	"github.com/tradeplusonline/accessbot/internal/session"
	"github.com/tradeplusonline/accessbot/internal/sweeper"
	"github.com/tradeplusonline/accessbot/models"
)

var defaultSymbols = []string{"BTCUSDT", "ETHUSDT"}

// Global wiring shared by the handlers
var (
	cfg           *config.Config
	db            *database.DB
	svc           *entitlement.Service
	sessions      *session.Manager
	cryptoPay     *payment.CryptoPayService
	newsClient    *cryptopanic.Client
	weatherClient *openweather.Client
	priceClient   *binance.Client
	aiClient      *openaiapi.Client
)

func init() {
	var err error
	cfg, err = config.Load()
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

	db, err = database.New(dbParams)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	svc = entitlement.NewService(db, cfg.OwnerID)
	sessions = session.NewManager()
	cryptoPay = payment.NewCryptoPayService()

	timeout := time.Duration(cfg.RequestTimeout) * time.Second
	newsClient = cryptopanic.NewClient(cryptopanic.ClientOptions{APIKey: cfg.CryptoPanicAPIKey, RequestTimeout: timeout})
	weatherClient = openweather.NewClient(openweather.ClientOptions{APIKey: cfg.OpenWeatherAPIKey, RequestTimeout: timeout})
	priceClient = binance.NewClient(timeout)
	aiClient = openaiapi.NewClient(cfg.OpenAIAPIKey)
}

func main() {
	// Setup logger
	log.SetFlags(0)
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(cfg.ZerologLevel()).With().Timestamp().Logger()

	if cfg.TelegramBotToken == "" {
		logger.Fatal().Msg("TELEGRAM_BOT_TOKEN not set in environment")
	}

	bot, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize Telegram bot")
	}

	logger.Info().Str("username", bot.Self.UserName).Msg("Authorized on Telegram")

	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := bot.GetUpdatesChan(updateConfig)

	// Hourly expiry sweep runs alongside the update loop.
	sw := sweeper.New(db, svc, notify.NewTelegram(bot), cfg.SweepInterval, cfg.NotifyTimeout)
	go sw.Run(context.Background())

	for update := range updates {
		if update.Message != nil {
			handleMessage(bot, update.Message, &logger)
		} else if update.CallbackQuery != nil {
			handleCallback(bot, update.CallbackQuery, &logger)
		}
	}
}

// handleMessage processes incoming text messages
func handleMessage(bot *tgbotapi.BotAPI, message *tgbotapi.Message, logger *zerolog.Logger) {
	userID := message.From.ID
	chatID := message.Chat.ID
	lang := sessions.Lang(userID)

	switch message.Command() {
	case "start":
		sendLanguageMenu(bot, chatID)
	case "myaccess", "status":
		sendAccessStatus(bot, chatID, userID, lang, logger)
	case "news":
		sendNews(bot, chatID, lang, logger)
	case "price":
		sendPrices(bot, chatID, lang, logger)
	case "weather":
		city := strings.TrimSpace(message.CommandArguments())
		if city == "" {
			bot.Send(tgbotapi.NewMessage(chatID, t(lang, "commands_list")))
			return
		}
		sendWeather(bot, chatID, city, lang, logger)
	case "ask":
		question := strings.TrimSpace(message.CommandArguments())
		if question == "" {
			bot.Send(tgbotapi.NewMessage(chatID, t(lang, "commands_list")))
			return
		}
		handleAsk(bot, chatID, userID, question, lang, logger)
	case "help":
		bot.Send(tgbotapi.NewMessage(chatID, t(lang, "commands_list")))
	case "grant":
		handleAdminGrant(bot, chatID, userID, message.CommandArguments(), logger)
	case "revoke":
		handleAdminRevoke(bot, chatID, userID, message.CommandArguments(), logger)
	case "users":
		handleAdminUsers(bot, chatID, userID, logger)
	default:
		sendMainMenu(bot, chatID, userID, message.From.FirstName)
	}
}

// handleCallback processes inline keyboard button presses
func handleCallback(bot *tgbotapi.BotAPI, callback *tgbotapi.CallbackQuery, logger *zerolog.Logger) {
	userID := callback.From.ID
	chatID := callback.Message.Chat.ID
	data := callback.Data

	// Acknowledge the callback query
	bot.Request(tgbotapi.NewCallback(callback.ID, ""))

	if lang, ok := strings.CutPrefix(data, "lang:"); ok {
		sessions.SetLang(userID, lang)
		// Persisted only for users that already have an entitlement row.
		if err := db.SetLanguage(userID, lang); err != nil {
			logger.Warn().Err(err).Int64("user_id", userID).Msg("Failed to persist language")
		}
		sendMainMenu(bot, chatID, userID, callback.From.FirstName)
		return
	}

	lang := sessions.Lang(userID)

	switch {
	case data == "access":
		sendAccessStatus(bot, chatID, userID, lang, logger)
	case data == "subscribe":
		sendTariffMenu(bot, chatID, lang)
	case strings.HasPrefix(data, "tariff:"):
		handleTariffChoice(bot, chatID, userID, strings.TrimPrefix(data, "tariff:"), lang, logger)
	case data == "check_sub":
		handleMembershipCheck(bot, chatID, userID, lang, logger)
	case data == "news":
		sendNews(bot, chatID, lang, logger)
	case data == "price":
		sendPrices(bot, chatID, lang, logger)
	case data == "commands":
		bot.Send(tgbotapi.NewMessage(chatID, t(lang, "commands_list")))
	case data == "main_menu":
		sendMainMenu(bot, chatID, userID, callback.From.FirstName)
	}
}

// sendAccessStatus renders the entitlement status. A storage failure is a
// "temporarily unavailable" reply, never "no subscription".
func sendAccessStatus(bot *tgbotapi.BotAPI, chatID, userID int64, lang string, logger *zerolog.Logger) {
	access, err := svc.Status(userID)
	if err != nil {
		logger.Error().Err(err).Int64("user_id", userID).Msg("Error retrieving entitlement status")
		bot.Send(tgbotapi.NewMessage(chatID, t(lang, "temporarily_unavailable")))
		return
	}

	switch access.State {
	case models.AccessActive:
		bot.Send(tgbotapi.NewMessage(chatID, fmt.Sprintf(t(lang, "access_active"), access.DaysRemaining)))
	case models.AccessExpired:
		bot.Send(tgbotapi.NewMessage(chatID, t(lang, "access_expired")))
	default:
		bot.Send(tgbotapi.NewMessage(chatID, t(lang, "no_access")))
	}
}

// handleTariffChoice creates an invoice for the selected tariff.
func handleTariffChoice(bot *tgbotapi.BotAPI, chatID, userID int64, tariffKey, lang string, logger *zerolog.Logger) {
	tariff, ok := cfg.Tariffs[tariffKey]
	if !ok {
		bot.Send(tgbotapi.NewMessage(chatID, t(lang, "try_again")))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.RequestTimeout)*time.Second)
	defer cancel()

	payURL, err := cryptoPay.CreateInvoice(ctx, userID, tariff)
	if err != nil {
		logger.Error().Err(err).Int64("user_id", userID).Str("tariff", tariffKey).Msg("Error creating invoice")
		bot.Send(tgbotapi.NewMessage(chatID, t(lang, "invoice_error")))
		return
	}

	sessions.SetPendingTariff(userID, tariffKey)

	msg := tgbotapi.NewMessage(chatID, fmt.Sprintf(t(lang, "pay_link"), payURL))
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(t(lang, "btn_check_sub"), "check_sub"),
		),
	)
	bot.Send(msg)
}

// handleMembershipCheck verifies channel membership and activates the free
// trial for members who already picked a tariff and have no active access.
// Paid access itself arrives through the payment webhook.
func handleMembershipCheck(bot *tgbotapi.BotAPI, chatID, userID int64, lang string, logger *zerolog.Logger) {
	member, err := bot.GetChatMember(tgbotapi.GetChatMemberConfig{
		ChatConfigWithUser: tgbotapi.ChatConfigWithUser{
			ChatID: cfg.ChannelChatID,
			UserID: userID,
		},
	})
	if err != nil || !isChannelMember(member.Status) {
		bot.Send(tgbotapi.NewMessage(chatID, fmt.Sprintf(t(lang, "not_subscribed"), cfg.ChannelLink)))
		return
	}

	access, err := svc.Status(userID)
	if err != nil {
		logger.Error().Err(err).Int64("user_id", userID).Msg("Error retrieving entitlement status")
		bot.Send(tgbotapi.NewMessage(chatID, t(lang, "temporarily_unavailable")))
		return
	}

	if access.HasAccess() {
		bot.Send(tgbotapi.NewMessage(chatID, fmt.Sprintf(t(lang, "access_active"), access.DaysRemaining)))
		return
	}

	// A member who never selected a tariff gets the menu, not a trial.
	if !entitlement.TrialEligible(access, sessions.PendingTariff(userID)) {
		sendTariffMenu(bot, chatID, lang)
		return
	}

	if _, err := svc.Grant(userID, chatID, cfg.TrialDuration); err != nil {
		logger.Error().Err(err).Int64("user_id", userID).Msg("Error granting trial access")
		bot.Send(tgbotapi.NewMessage(chatID, t(lang, "try_again")))
		return
	}

	sessions.ClearPendingTariff(userID)
	bot.Send(tgbotapi.NewMessage(chatID, t(lang, "trial_activated")))
}

// sendNews proxies the latest CryptoPanic posts.
func sendNews(bot *tgbotapi.BotAPI, chatID int64, lang string, logger *zerolog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.RequestTimeout)*time.Second)
	defer cancel()

	posts, err := newsClient.LatestNews(ctx, 3)
	if err != nil {
		logger.Error().Err(err).Msg("Error fetching news")
		bot.Send(tgbotapi.NewMessage(chatID, t(lang, "temporarily_unavailable")))
		return
	}

	var sb strings.Builder
	sb.WriteString("📰 *Останні новини:*\n\n")
	for i, post := range posts {
		sb.WriteString(fmt.Sprintf("%d. [%s](%s)\n", i+1, post.Title, post.URL))
	}

	msg := tgbotapi.NewMessage(chatID, sb.String())
	msg.ParseMode = "Markdown"
	bot.Send(msg)
}

// sendPrices proxies Binance spot prices for the default symbols.
func sendPrices(bot *tgbotapi.BotAPI, chatID int64, lang string, logger *zerolog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.RequestTimeout)*time.Second)
	defer cancel()

	prices, err := priceClient.TickerPrices(ctx, defaultSymbols)
	if err != nil {
		logger.Error().Err(err).Msg("Error fetching prices")
		bot.Send(tgbotapi.NewMessage(chatID, t(lang, "temporarily_unavailable")))
		return
	}

	var sb strings.Builder
	sb.WriteString("💹\n")
	for _, price := range prices {
		sb.WriteString(fmt.Sprintf("%s: %s\n", price.Symbol, price.Price))
	}
	bot.Send(tgbotapi.NewMessage(chatID, sb.String()))
}

// sendWeather proxies OpenWeather for one city.
func sendWeather(bot *tgbotapi.BotAPI, chatID int64, city, lang string, logger *zerolog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.RequestTimeout)*time.Second)
	defer cancel()

	report, err := weatherClient.CurrentWeather(ctx, city)
	if err != nil {
		logger.Error().Err(err).Str("city", city).Msg("Error fetching weather")
		bot.Send(tgbotapi.NewMessage(chatID, t(lang, "temporarily_unavailable")))
		return
	}

	description := ""
	if len(report.Weather) > 0 {
		description = report.Weather[0].Description
	}

	text := fmt.Sprintf("🌤 %s: %.1f°C (%s), 💧 %d%%",
		report.Name, report.Main.Temp, description, report.Main.Humidity)
	bot.Send(tgbotapi.NewMessage(chatID, text))
}

// handleAsk forwards a question to the AI behind the subscription gate and
// the daily question quota.
func handleAsk(bot *tgbotapi.BotAPI, chatID, userID int64, question, lang string, logger *zerolog.Logger) {
	access, err := svc.Status(userID)
	if err != nil {
		logger.Error().Err(err).Int64("user_id", userID).Msg("Error retrieving entitlement status")
		bot.Send(tgbotapi.NewMessage(chatID, t(lang, "temporarily_unavailable")))
		return
	}
	if !access.HasAccess() {
		bot.Send(tgbotapi.NewMessage(chatID, t(lang, "need_subscription")))
		return
	}

	now := time.Now().UTC()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	count, err := db.CountQuestionsToday(userID, dayStart)
	if err != nil {
		logger.Error().Err(err).Int64("user_id", userID).Msg("Error counting questions")
		bot.Send(tgbotapi.NewMessage(chatID, t(lang, "temporarily_unavailable")))
		return
	}
	if !svc.IsPrivileged(userID) && count >= cfg.GPTDailyLimit {
		bot.Send(tgbotapi.NewMessage(chatID, t(lang, "gpt_limit")))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	answer, err := aiClient.Ask(ctx, question)
	if err != nil {
		bot.Send(tgbotapi.NewMessage(chatID, t(lang, "temporarily_unavailable")))
		return
	}

	if err := db.LogQuestion(userID, question, now); err != nil {
		logger.Warn().Err(err).Int64("user_id", userID).Msg("Failed to log question")
	}

	bot.Send(tgbotapi.NewMessage(chatID, answer))
}

// handleAdminGrant processes the owner-only "/grant <user_id> <days>".
func handleAdminGrant(bot *tgbotapi.BotAPI, chatID, userID int64, args string, logger *zerolog.Logger) {
	if !svc.IsPrivileged(userID) {
		return
	}

	fields := strings.Fields(args)
	if len(fields) != 2 {
		bot.Send(tgbotapi.NewMessage(chatID, "Usage: /grant <user_id> <days>"))
		return
	}

	targetID, err1 := strconv.ParseInt(fields[0], 10, 64)
	days, err2 := strconv.Atoi(fields[1])
	if err1 != nil || err2 != nil {
		bot.Send(tgbotapi.NewMessage(chatID, "Usage: /grant <user_id> <days>"))
		return
	}

	expiresAt, err := svc.Grant(targetID, targetID, time.Duration(days)*24*time.Hour)
	if err != nil {
		logger.Error().Err(err).Int64("user_id", targetID).Msg("Manual grant failed")
		bot.Send(tgbotapi.NewMessage(chatID, "Grant failed, try again"))
		return
	}

	bot.Send(tgbotapi.NewMessage(chatID,
		fmt.Sprintf("Granted %d days to %d (until %s)", days, targetID, expiresAt.Format("2006-01-02 15:04"))))
}

// handleAdminRevoke processes the owner-only "/revoke <user_id>".
func handleAdminRevoke(bot *tgbotapi.BotAPI, chatID, userID int64, args string, logger *zerolog.Logger) {
	if !svc.IsPrivileged(userID) {
		return
	}

	targetID, err := strconv.ParseInt(strings.TrimSpace(args), 10, 64)
	if err != nil {
		bot.Send(tgbotapi.NewMessage(chatID, "Usage: /revoke <user_id>"))
		return
	}

	if err := svc.Revoke(targetID); err != nil {
		logger.Error().Err(err).Int64("user_id", targetID).Msg("Manual revoke failed")
		bot.Send(tgbotapi.NewMessage(chatID, "Revoke failed, try again"))
		return
	}

	bot.Send(tgbotapi.NewMessage(chatID, fmt.Sprintf("Revoked access for %d", targetID)))
}

// handleAdminUsers lists all entitlements for the owner.
func handleAdminUsers(bot *tgbotapi.BotAPI, chatID, userID int64, logger *zerolog.Logger) {
	if !svc.IsPrivileged(userID) {
		return
	}

	ents, err := db.ListEntitlements()
	if err != nil {
		logger.Error().Err(err).Msg("Error listing entitlements")
		bot.Send(tgbotapi.NewMessage(chatID, "Listing failed, try again"))
		return
	}

	if len(ents) == 0 {
		bot.Send(tgbotapi.NewMessage(chatID, "No active entitlements"))
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("👥 %d users:\n", len(ents)))
	for _, ent := range ents {
		sb.WriteString(fmt.Sprintf("%d — until %s\n", ent.UserID, ent.ExpiresAt.Format("2006-01-02 15:04")))
	}
	bot.Send(tgbotapi.NewMessage(chatID, sb.String()))
}

// sendLanguageMenu shows the language selection keyboard.
func sendLanguageMenu(bot *tgbotapi.BotAPI, chatID int64) {
	var keyboard [][]tgbotapi.InlineKeyboardButton
	for _, language := range languages {
		keyboard = append(keyboard, []tgbotapi.InlineKeyboardButton{
			tgbotapi.NewInlineKeyboardButtonData(language.Name, "lang:"+language.Code),
		})
	}

	msg := tgbotapi.NewMessage(chatID, t("uk", "choose_lang"))
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(keyboard...)
	bot.Send(msg)
}

// sendMainMenu shows the main inline menu.
func sendMainMenu(bot *tgbotapi.BotAPI, chatID, userID int64, name string) {
	lang := sessions.Lang(userID)

	keyboard := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(t(lang, "btn_access"), "access"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(t(lang, "btn_subscribe"), "subscribe"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(t(lang, "btn_news"), "news"),
			tgbotapi.NewInlineKeyboardButtonData(t(lang, "btn_price"), "price"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(t(lang, "btn_commands"), "commands"),
		),
	)

	msg := tgbotapi.NewMessage(chatID, fmt.Sprintf(t(lang, "main_menu"), name))
	msg.ReplyMarkup = keyboard
	bot.Send(msg)
}

// sendTariffMenu shows the tariff keyboard built from the configured table.
func sendTariffMenu(bot *tgbotapi.BotAPI, chatID int64, lang string) {
	var keyboard [][]tgbotapi.InlineKeyboardButton
	for _, key := range cfg.TariffKeys() {
		tariff := cfg.Tariffs[key]
		keyboard = append(keyboard, []tgbotapi.InlineKeyboardButton{
			tgbotapi.NewInlineKeyboardButtonData(tariffLabel(lang, tariff.Days, tariff.AmountCents), "tariff:"+key),
		})
	}
	keyboard = append(keyboard, []tgbotapi.InlineKeyboardButton{
		tgbotapi.NewInlineKeyboardButtonData("← "+t(lang, "btn_commands"), "main_menu"),
	})

	msg := tgbotapi.NewMessage(chatID, t(lang, "choose_tariff"))
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(keyboard...)
	bot.Send(msg)
}

// isChannelMember reports whether a chat-member status confers channel access.
func isChannelMember(status string) bool {
	return status == "member" || status == "administrator" || status == "creator"
}
