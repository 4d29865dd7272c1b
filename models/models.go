package models

import (
	"time"
)

// Entitlement is a single user's timed access record. There is at most one
// per user; a grant overwrites it and the sweep deletes it after expiry.
type Entitlement struct {
	UserID    int64     `json:"user_id"`
	ChatID    int64     `json:"chat_id"`
	ExpiresAt time.Time `json:"expires_at"`
	Lang      string    `json:"lang,omitempty"`
}

// AccessState classifies the result of a status check.
type AccessState string

const (
	AccessNone    AccessState = "no_access"
	AccessExpired AccessState = "expired"
	AccessActive  AccessState = "active"
)

// Access is the outcome of an entitlement status check. DaysRemaining is a
// truncating day difference and is only meaningful for AccessActive.
type Access struct {
	State         AccessState `json:"state"`
	DaysRemaining int         `json:"days_remaining"`
}

// HasAccess is the access-control predicate. An expired record that has not
// been swept yet confers no access, same as no record at all.
func (a Access) HasAccess() bool {
	return a.State == AccessActive
}

// Tariff is one purchasable access period. Keys come from configuration and
// travel inside invoice payloads as "<user_id>:<key>".
type Tariff struct {
	Key         string `json:"key"`
	Days        int    `json:"days"`
	AmountCents int64  `json:"amount_cents"`
}

// Duration returns the access period this tariff grants.
func (t Tariff) Duration() time.Duration {
	return time.Duration(t.Days) * 24 * time.Hour
}

// NewsPost is a single CryptoPanic post.
type NewsPost struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// CryptoPanicResponse represents the API response from CryptoPanic
type CryptoPanicResponse struct {
	Results []NewsPost `json:"results"`
}

// WeatherReport represents the API response from OpenWeather
type WeatherReport struct {
	Name string `json:"name"`
	Main struct {
		Temp      float64 `json:"temp"`
		FeelsLike float64 `json:"feels_like"`
		Humidity  int     `json:"humidity"`
	} `json:"main"`
	Weather []struct {
		Description string `json:"description"`
	} `json:"weather"`
}

// TickerPrice represents a Binance spot ticker response
type TickerPrice struct {
	Symbol string `json:"symbol"`
	Price  string `json:"price"`
}
