package bot

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"crypto-signal-bot/internal/market"
	"crypto-signal-bot/internal/notification"
	"crypto-signal-bot/internal/storage"
	"crypto-signal-bot/models"
)

const helpText = `Commands:
/coins - list tracked coins
/subscribe SYMBOL - get signals for a coin
/unsubscribe SYMBOL - stop signals for a coin
/signals SHORT|LONG|ALL - set your signal horizon
/analyze SYMBOL - run an analysis right now
/status - show your subscriptions
/help - this message`

// Bot wires the Telegram dispatcher to the analysis engine. The periodic
// loop and on-demand /analyze share per-symbol market data, serialized by
// passMu so no two passes touch the same state concurrently.
type Bot struct {
	api    *tgbotapi.BotAPI
	cfg    *models.Config
	engine *Engine
	store  storage.Store
	sender *notification.Sender
	client *market.Client
	logger zerolog.Logger

	passMu sync.Mutex
	data   map[string]*market.Data
}

func New(api *tgbotapi.BotAPI, cfg *models.Config, store storage.Store) *Bot {
	client := market.NewClient(cfg)
	b := &Bot{
		api:    api,
		cfg:    cfg,
		engine: NewEngine(cfg),
		store:  store,
		sender: notification.NewSender(api),
		client: client,
		logger: log.With().Str("component", "bot").Logger(),
		data:   make(map[string]*market.Data),
	}
	for _, symbol := range cfg.SymbolList() {
		b.data[symbol] = market.NewData(symbol, cfg, client)
	}
	return b
}

// Run starts the analysis loop and blocks on the Telegram long-polling
// loop until the context is cancelled.
func (b *Bot) Run(ctx context.Context) error {
	go b.analysisLoop(ctx)

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := b.api.GetUpdatesChan(u)

	b.logger.Info().Str("bot", b.api.Self.UserName).Msg("bot started")

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.Message != nil {
				b.handleMessage(ctx, update.Message)
			}
		}
	}
}

func (b *Bot) analysisLoop(ctx context.Context) {
	interval := time.Duration(b.cfg.UpdateInterval) * time.Second
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	b.logger.Info().Dur("interval", interval).Int("symbols", len(b.data)).Msg("analysis loop started")

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for symbol := range b.data {
				b.analyzeAndNotify(ctx, symbol)
			}
		}
	}
}

// analyzeAndNotify runs one tracked symbol's pass and delivers the signal
// to the default chat and every subscriber whose horizon class produced
// one. A failed pass is logged and skipped.
func (b *Bot) analyzeAndNotify(ctx context.Context, symbol string) {
	b.passMu.Lock()
	analysis, err := b.engine.Run(ctx, b.data[symbol], symbol, models.SignalClassAll)
	b.passMu.Unlock()
	if err != nil {
		b.logger.Warn().Err(err).Str("symbol", symbol).Msg("analysis pass failed")
		return
	}

	signals := map[models.SignalClass]*models.Signal{
		models.SignalClassAll: analysis.Signal,
	}

	if analysis.Signal != nil && b.cfg.TelegramChatID != 0 {
		if err := b.sender.Deliver(b.cfg.TelegramChatID, notification.FormatSignal(analysis.Signal)); err != nil {
			b.logger.Error().Err(err).Msg("failed to notify default chat")
		}
	}

	subs, err := b.store.Subscribers(symbol)
	if err != nil {
		b.logger.Error().Err(err).Str("symbol", symbol).Msg("failed to load subscribers")
		return
	}
	for _, sub := range subs {
		sig, ok := signals[sub.SignalClass]
		if !ok {
			sig = b.engine.Evaluate(analysis, sub.SignalClass)
			signals[sub.SignalClass] = sig
		}
		if sig == nil {
			continue
		}
		if err := b.sender.Deliver(sub.ChatID, notification.FormatSignal(sig)); err != nil {
			b.logger.Error().Err(err).Int64("chat_id", sub.ChatID).Msg("failed to notify subscriber")
		}
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if !msg.IsCommand() {
		b.reply(msg.Chat.ID, "I only understand commands. Try /help.")
		return
	}

	arg := strings.ToUpper(strings.TrimSpace(msg.CommandArguments()))

	switch msg.Command() {
	case "start":
		b.reply(msg.Chat.ID, "Crypto signal bot tracking "+strings.Join(b.cfg.SymbolList(), ", ")+".\n\n"+helpText)
	case "help":
		b.reply(msg.Chat.ID, helpText)
	case "coins":
		b.reply(msg.Chat.ID, "Tracked coins: "+strings.Join(b.cfg.SymbolList(), ", "))
	case "subscribe":
		b.handleSubscribe(msg.Chat.ID, arg)
	case "unsubscribe":
		b.handleUnsubscribe(msg.Chat.ID, arg)
	case "signals":
		b.handleSignals(msg.Chat.ID, arg)
	case "analyze":
		b.handleAnalyze(ctx, msg.Chat.ID, arg)
	case "status":
		b.handleStatus(msg.Chat.ID)
	default:
		b.reply(msg.Chat.ID, "Unknown command. Try /help.")
	}
}

func (b *Bot) handleSubscribe(chatID int64, symbol string) {
	if symbol == "" {
		b.reply(chatID, "Usage: /subscribe SYMBOL")
		return
	}
	if !b.tracked(symbol) {
		b.reply(chatID, symbol+" is not tracked. Tracked coins: "+strings.Join(b.cfg.SymbolList(), ", "))
		return
	}
	if err := b.store.Subscribe(chatID, symbol, models.SignalClassAll); err != nil {
		b.logger.Error().Err(err).Msg("subscribe failed")
		b.reply(chatID, "Could not save your subscription, try again later.")
		return
	}
	b.reply(chatID, "Subscribed to "+symbol+" signals.")
}

func (b *Bot) handleUnsubscribe(chatID int64, symbol string) {
	if symbol == "" {
		b.reply(chatID, "Usage: /unsubscribe SYMBOL")
		return
	}
	if err := b.store.Unsubscribe(chatID, symbol); err != nil {
		b.logger.Error().Err(err).Msg("unsubscribe failed")
		b.reply(chatID, "Could not remove your subscription, try again later.")
		return
	}
	b.reply(chatID, "Unsubscribed from "+symbol+".")
}

func (b *Bot) handleSignals(chatID int64, arg string) {
	if arg == "" {
		b.reply(chatID, "Usage: /signals SHORT, /signals LONG or /signals ALL")
		return
	}
	class := models.ParseSignalClass(arg)
	if err := b.store.SetSignalClass(chatID, class); err != nil {
		b.logger.Error().Err(err).Msg("set signal class failed")
		b.reply(chatID, "Could not update your preference, try again later.")
		return
	}
	b.reply(chatID, "Signal horizon set to "+string(class)+".")
}

// handleAnalyze runs an on-demand pass. Untracked symbols get a throwaway
// market data store so they never interfere with the scheduled loop.
func (b *Bot) handleAnalyze(ctx context.Context, chatID int64, symbol string) {
	if symbol == "" {
		b.reply(chatID, "Usage: /analyze SYMBOL")
		return
	}

	var analysis *Analysis
	var err error
	if b.tracked(symbol) {
		b.passMu.Lock()
		analysis, err = b.engine.Run(ctx, b.data[symbol], symbol, models.SignalClassAll)
		b.passMu.Unlock()
	} else {
		analysis, err = b.engine.Run(ctx, market.NewData(symbol, b.cfg, b.client), symbol, models.SignalClassAll)
	}
	if err != nil {
		b.logger.Warn().Err(err).Str("symbol", symbol).Msg("on-demand analysis failed")
		b.reply(chatID, "Analysis for "+symbol+" failed, check the symbol and try again.")
		return
	}

	if analysis.Signal != nil {
		b.reply(chatID, notification.FormatSignal(analysis.Signal))
		return
	}
	b.reply(chatID, fmt.Sprintf(
		"%s: no actionable signal right now.\nPrice: %.2f (24h: %+.2f%%)\nMarket phase: %s (%.0f%%)\nOverall trend: %s",
		symbol, analysis.Price, analysis.DailyChange,
		analysis.Cycle.Phase, analysis.Cycle.Confidence*100, analysis.OverallTrend))
}

func (b *Bot) handleStatus(chatID int64) {
	subs, err := b.store.Subscriptions(chatID)
	if err != nil {
		b.logger.Error().Err(err).Msg("loading subscriptions failed")
		b.reply(chatID, "Could not load your subscriptions, try again later.")
		return
	}
	if len(subs) == 0 {
		b.reply(chatID, "You have no subscriptions. Use /subscribe SYMBOL to add one.")
		return
	}
	var lines []string
	for _, sub := range subs {
		lines = append(lines, fmt.Sprintf("%s (%s)", sub.Symbol, sub.SignalClass))
	}
	b.reply(chatID, "Your subscriptions:\n"+strings.Join(lines, "\n"))
}

func (b *Bot) tracked(symbol string) bool {
	_, ok := b.data[symbol]
	return ok
}

func (b *Bot) reply(chatID int64, text string) {
	if err := b.sender.Deliver(chatID, text); err != nil {
		b.logger.Error().Err(err).Int64("chat_id", chatID).Msg("reply failed")
	}
}
