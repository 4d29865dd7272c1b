package session

import (
	"sync"
	"testing"
)

func TestLangDefaultsAndOverride(t *testing.T) {
	m := NewManager()

	if lang := m.Lang(42); lang != DefaultLang {
		t.Errorf("Lang() = %q before any choice, want %q", lang, DefaultLang)
	}

	m.SetLang(42, "en")
	if lang := m.Lang(42); lang != "en" {
		t.Errorf("Lang() = %q, want %q", lang, "en")
	}

	// Other users are unaffected.
	if lang := m.Lang(43); lang != DefaultLang {
		t.Errorf("Lang(43) = %q, want %q", lang, DefaultLang)
	}
}

func TestPendingTariffLifecycle(t *testing.T) {
	m := NewManager()

	if key := m.PendingTariff(42); key != "" {
		t.Errorf("PendingTariff() = %q before selection, want empty", key)
	}

	m.SetPendingTariff(42, "30")
	if key := m.PendingTariff(42); key != "30" {
		t.Errorf("PendingTariff() = %q, want %q", key, "30")
	}

	m.ClearPendingTariff(42)
	if key := m.PendingTariff(42); key != "" {
		t.Errorf("PendingTariff() = %q after clear, want empty", key)
	}

	// Clearing an untouched user is a no-op.
	m.ClearPendingTariff(99)
}

func TestConcurrentAccess(t *testing.T) {
	m := NewManager()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			m.SetLang(id, "en")
			m.SetPendingTariff(id, "30")
			_ = m.Lang(id)
			_ = m.PendingTariff(id)
			m.ClearPendingTariff(id)
		}(int64(i % 10))
	}
	wg.Wait()
}
