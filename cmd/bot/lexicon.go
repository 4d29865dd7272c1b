package main

import "fmt"

// languages supported by the menu, in display order.
var languages = []struct {
	Code string
	Name string
}{
	{"uk", "Українська"},
	{"ru", "Русский"},
	{"en", "English"},
}

var texts = map[string]map[string]string{
	"choose_lang": {
		"uk": "Оберіть мову:",
		"ru": "Выберите язык:",
		"en": "Choose your language:",
	},
	"main_menu": {
		"uk": "Вітаю, %s!\nОберіть опцію:",
		"ru": "Привет, %s!\nВыберите опцию:",
		"en": "Welcome, %s!\nChoose an option:",
	},
	"btn_access": {
		"uk": "📊 Мій доступ",
		"ru": "📊 Мой доступ",
		"en": "📊 My Access",
	},
	"btn_subscribe": {
		"uk": "🔁 Продовжити підписку",
		"ru": "🔁 Продлить подписку",
		"en": "🔁 Renew Subscription",
	},
	"btn_news": {
		"uk": "📰 Новини",
		"ru": "📰 Новости",
		"en": "📰 News",
	},
	"btn_price": {
		"uk": "💹 Курси",
		"ru": "💹 Курсы",
		"en": "💹 Prices",
	},
	"btn_commands": {
		"uk": "📌 Команди",
		"ru": "📌 Команды",
		"en": "📌 Commands",
	},
	"btn_check_sub": {
		"uk": "✅ Я підписався",
		"ru": "✅ Я подписался",
		"en": "✅ I subscribed",
	},
	"choose_tariff": {
		"uk": "Оберіть тариф:",
		"ru": "Выберите тариф:",
		"en": "Choose a tariff:",
	},
	"pay_link": {
		"uk": "🔗 Оплатіть за посиланням:\n%s",
		"ru": "🔗 Оплатите по ссылке:\n%s",
		"en": "🔗 Pay via this link:\n%s",
	},
	"invoice_error": {
		"uk": "❌ Помилка створення рахунку. Спробуйте пізніше.",
		"ru": "❌ Ошибка создания счёта. Попробуйте позже.",
		"en": "❌ Failed to create an invoice. Please try again later.",
	},
	"trial_activated": {
		"uk": "✅ Пробний доступ активовано!",
		"ru": "✅ Пробный доступ активирован!",
		"en": "✅ Trial access activated!",
	},
	"not_subscribed": {
		"uk": "❌ Ви не підписані на канал. Підпишіться: %s",
		"ru": "❌ Вы не подписаны на канал. Подпишитесь: %s",
		"en": "❌ You are not subscribed to the channel. Subscribe: %s",
	},
	"access_active": {
		"uk": "✅ Доступ активний\nЗалишилось днів: %d",
		"ru": "✅ Доступ активен\nОсталось дней: %d",
		"en": "✅ Access active\nDays left: %d",
	},
	"access_expired": {
		"uk": "❌ Ваша підписка закінчилася. Продовжіть її, щоб повернути доступ.",
		"ru": "❌ Ваша подписка истекла. Продлите её, чтобы вернуть доступ.",
		"en": "❌ Your subscription has expired. Renew it to restore access.",
	},
	"no_access": {
		"uk": "❌ У вас немає активної підписки.",
		"ru": "❌ У вас нет активной подписки.",
		"en": "❌ You have no active subscription.",
	},
	"try_again": {
		"uk": "⚠️ Сталася помилка. Спробуйте ще раз.",
		"ru": "⚠️ Произошла ошибка. Попробуйте ещё раз.",
		"en": "⚠️ Something went wrong. Please try again.",
	},
	"temporarily_unavailable": {
		"uk": "⚠️ Сервіс тимчасово недоступний. Спробуйте пізніше.",
		"ru": "⚠️ Сервис временно недоступен. Попробуйте позже.",
		"en": "⚠️ Service temporarily unavailable. Please try again later.",
	},
	"gpt_limit": {
		"uk": "⛔ Ліміт питань на сьогодні вичерпано.",
		"ru": "⛔ Лимит вопросов на сегодня исчерпан.",
		"en": "⛔ You have reached today's question limit.",
	},
	"need_subscription": {
		"uk": "⛔ Ця функція доступна лише за підпискою.",
		"ru": "⛔ Эта функция доступна только по подписке.",
		"en": "⛔ This feature requires an active subscription.",
	},
	"commands_list": {
		"uk": "📌 Команди:\n/start — стартове меню\n/myaccess — мій доступ\n/news — новини\n/price — курси\n/weather <місто> — погода\n/ask <питання> — питання до AI\n/help — допомога",
		"ru": "📌 Команды:\n/start — главное меню\n/myaccess — мой доступ\n/news — новости\n/price — курсы\n/weather <город> — погода\n/ask <вопрос> — вопрос AI\n/help — помощь",
		"en": "📌 Commands:\n/start — main menu\n/myaccess — my access\n/news — news\n/price — prices\n/weather <city> — weather\n/ask <question> — ask AI\n/help — help",
	},
}

// t returns the localized text for a key, falling back to Ukrainian.
func t(lang, key string) string {
	entry, ok := texts[key]
	if !ok {
		return key
	}
	if s, ok := entry[lang]; ok {
		return s
	}
	return entry["uk"]
}

// tariffLabel renders a tariff button caption like "30 days — $5.99".
func tariffLabel(lang string, days int, amountCents int64) string {
	price := fmt.Sprintf("$%d.%02d", amountCents/100, amountCents%100)
	switch lang {
	case "ru":
		return fmt.Sprintf("%d дней — %s", days, price)
	case "en":
		return fmt.Sprintf("%d days — %s", days, price)
	default:
		return fmt.Sprintf("%d днів — %s", days, price)
	}
}
