package storage

import (
	"sync"
	"time"

	"crypto-signal-bot/models"
)

// Store keeps per-chat signal subscriptions. Implementations must be safe
// for concurrent use by the dispatcher and the analysis loop.
type Store interface {
	Subscribe(chatID int64, symbol string, class models.SignalClass) error
	Unsubscribe(chatID int64, symbol string) error
	SetSignalClass(chatID int64, class models.SignalClass) error
	Subscriptions(chatID int64) ([]models.Subscription, error)
	Subscribers(symbol string) ([]models.Subscription, error)
	Close() error
}

// MemoryStore is the zero-dependency Store used when no database is
// configured. Subscriptions do not survive a restart.
type MemoryStore struct {
	mu   sync.RWMutex
	subs map[int64]map[string]models.Subscription
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		subs: make(map[int64]map[string]models.Subscription),
	}
}

func (s *MemoryStore) Subscribe(chatID int64, symbol string, class models.SignalClass) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.subs[chatID] == nil {
		s.subs[chatID] = make(map[string]models.Subscription)
	}
	s.subs[chatID][symbol] = models.Subscription{
		ChatID:      chatID,
		Symbol:      symbol,
		SignalClass: class,
		CreatedAt:   time.Now(),
	}
	return nil
}

func (s *MemoryStore) Unsubscribe(chatID int64, symbol string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.subs[chatID], symbol)
	return nil
}

// SetSignalClass changes the horizon class on every subscription the chat
// holds.
func (s *MemoryStore) SetSignalClass(chatID int64, class models.SignalClass) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for symbol, sub := range s.subs[chatID] {
		sub.SignalClass = class
		s.subs[chatID][symbol] = sub
	}
	return nil
}

func (s *MemoryStore) Subscriptions(chatID int64) ([]models.Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Subscription
	for _, sub := range s.subs[chatID] {
		out = append(out, sub)
	}
	return out, nil
}

func (s *MemoryStore) Subscribers(symbol string) ([]models.Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Subscription
	for _, chatSubs := range s.subs {
		if sub, ok := chatSubs[symbol]; ok {
			out = append(out, sub)
		}
	}
	return out, nil
}

func (s *MemoryStore) Close() error {
	return nil
}
