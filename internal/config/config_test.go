package config

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestDefaultTariffs(t *testing.T) {
	tariffs := defaultTariffs()

	monthly, ok := tariffs["30"]
	if !ok {
		t.Fatal("monthly tariff missing")
	}
	if monthly.Days != 30 || monthly.AmountCents != 599 {
		t.Errorf("monthly tariff = %d days / %d cents, want 30 / 599", monthly.Days, monthly.AmountCents)
	}
	if got := monthly.Duration(); got != 30*24*time.Hour {
		t.Errorf("Duration() = %v, want %v", got, 30*24*time.Hour)
	}

	if _, ok := tariffs["365"]; !ok {
		t.Fatal("yearly tariff missing")
	}
}

func TestTariffKeysSortedByDuration(t *testing.T) {
	cfg := &Config{Tariffs: defaultTariffs()}

	keys := cfg.TariffKeys()
	if len(keys) != 2 {
		t.Fatalf("TariffKeys() returned %d keys, want 2", len(keys))
	}
	if keys[0] != "30" || keys[1] != "365" {
		t.Errorf("TariffKeys() = %v, want [30 365]", keys)
	}
}

func TestZerologLevel(t *testing.T) {
	tests := []struct {
		level string
		want  zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"verbose", zerolog.InfoLevel}, // typo: fall back to info
		{"", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		cfg := &Config{LogLevel: tt.level}
		if got := cfg.ZerologLevel(); got != tt.want {
			t.Errorf("ZerologLevel(%q) = %v, want %v", tt.level, got, tt.want)
		}
	}
}
