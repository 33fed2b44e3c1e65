package storage

import (
	"testing"

	"crypto-signal-bot/models"
)

func TestMemoryStoreSubscribeAndList(t *testing.T) {
	s := NewMemoryStore()

	if err := s.Subscribe(1, "BTCUSDT", models.SignalClassAll); err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	if err := s.Subscribe(1, "ETHUSDT", models.SignalClassShort); err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	if err := s.Subscribe(2, "BTCUSDT", models.SignalClassLong); err != nil {
		t.Fatalf("Subscribe: %v", err)
	}

	subs, err := s.Subscriptions(1)
	if err != nil {
		t.Fatalf("Subscriptions: %v", err)
	}
	if len(subs) != 2 {
		t.Fatalf("chat 1 has %d subscriptions, want 2", len(subs))
	}

	watchers, err := s.Subscribers("BTCUSDT")
	if err != nil {
		t.Fatalf("Subscribers: %v", err)
	}
	if len(watchers) != 2 {
		t.Fatalf("BTCUSDT has %d subscribers, want 2", len(watchers))
	}
}

func TestMemoryStoreResubscribeUpdatesClass(t *testing.T) {
	s := NewMemoryStore()
	s.Subscribe(1, "BTCUSDT", models.SignalClassAll)
	s.Subscribe(1, "BTCUSDT", models.SignalClassShort)

	subs, _ := s.Subscriptions(1)
	if len(subs) != 1 {
		t.Fatalf("resubscribe duplicated: %d entries", len(subs))
	}
	if subs[0].SignalClass != models.SignalClassShort {
		t.Errorf("class = %s, want SHORT", subs[0].SignalClass)
	}
}

func TestMemoryStoreUnsubscribe(t *testing.T) {
	s := NewMemoryStore()
	s.Subscribe(1, "BTCUSDT", models.SignalClassAll)

	if err := s.Unsubscribe(1, "BTCUSDT"); err != nil {
		t.Fatalf("Unsubscribe: %v", err)
	}
	subs, _ := s.Subscriptions(1)
	if len(subs) != 0 {
		t.Errorf("still %d subscriptions after unsubscribe", len(subs))
	}

	// unsubscribing an unknown chat is a no-op
	if err := s.Unsubscribe(99, "BTCUSDT"); err != nil {
		t.Errorf("Unsubscribe unknown chat: %v", err)
	}
}

func TestMemoryStoreSetSignalClass(t *testing.T) {
	s := NewMemoryStore()
	s.Subscribe(1, "BTCUSDT", models.SignalClassAll)
	s.Subscribe(1, "ETHUSDT", models.SignalClassAll)
	s.Subscribe(2, "BTCUSDT", models.SignalClassAll)

	if err := s.SetSignalClass(1, models.SignalClassLong); err != nil {
		t.Fatalf("SetSignalClass: %v", err)
	}

	subs, _ := s.Subscriptions(1)
	for _, sub := range subs {
		if sub.SignalClass != models.SignalClassLong {
			t.Errorf("%s class = %s, want LONG", sub.Symbol, sub.SignalClass)
		}
	}
	other, _ := s.Subscriptions(2)
	if other[0].SignalClass != models.SignalClassAll {
		t.Errorf("chat 2 class changed to %s", other[0].SignalClass)
	}
}
