package notification

import (
	"fmt"
	"strings"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"crypto-signal-bot/models"
)

// Telegram caps message length at 4096 characters.
const maxMessageLen = 4096

// Sender delivers rendered signal narratives to Telegram chats, splitting
// overlength text into multiple messages.
type Sender struct {
	bot    *tgbotapi.BotAPI
	logger zerolog.Logger
}

func NewSender(bot *tgbotapi.BotAPI) *Sender {
	return &Sender{
		bot:    bot,
		logger: log.With().Str("component", "notification").Logger(),
	}
}

// Deliver sends text to one chat, chunked on line boundaries when it
// exceeds the Telegram message limit.
func (s *Sender) Deliver(chatID int64, text string) error {
	for _, chunk := range splitMessage(text) {
		msg := tgbotapi.NewMessage(chatID, chunk)
		if _, err := s.bot.Send(msg); err != nil {
			s.logger.Error().Err(err).Int64("chat_id", chatID).Msg("failed to send message")
			return fmt.Errorf("sending telegram message: %w", err)
		}
	}
	return nil
}

func splitMessage(text string) []string {
	if len(text) <= maxMessageLen {
		return []string{text}
	}
	var chunks []string
	var b strings.Builder
	flush := func() {
		if b.Len() > 0 {
			chunks = append(chunks, strings.TrimRight(b.String(), "\n"))
			b.Reset()
		}
	}
	for _, line := range strings.Split(text, "\n") {
		// a single line over the limit is hard-split on a rune boundary
		for len(line) > maxMessageLen {
			flush()
			cut := maxMessageLen
			for cut > 0 && !utf8.RuneStart(line[cut]) {
				cut--
			}
			chunks = append(chunks, line[:cut])
			line = line[cut:]
		}
		if b.Len()+len(line)+1 > maxMessageLen {
			flush()
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	flush()
	return chunks
}

// FormatSignal renders a full signal narrative: direction, market context,
// trade suggestions, horizon projections and the evidence that fired.
func FormatSignal(sig *models.Signal) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s %s signal for %s\n", directionEmoji(sig.Direction), strings.ToUpper(string(sig.Direction)), sig.Symbol)
	fmt.Fprintf(&b, "Price: %s (24h: %+.2f%%)\n", formatPrice(sig.Price), sig.DailyChange)
	fmt.Fprintf(&b, "Strength: %.0f%% | Confidence: %.0f%%\n", sig.Strength*100, sig.Confidence*100)

	fmt.Fprintf(&b, "\nMarket phase: %s (%.0f%%)\n", sig.Cycle.Phase, sig.Cycle.Confidence*100)
	for _, p := range sig.Cycle.Patterns {
		fmt.Fprintf(&b, "  • %s (%.0f%%)\n", p.Name, p.Confidence*100)
	}

	fmt.Fprintf(&b, "Overall trend: %s\n", sig.OverallTrend)
	var trendParts []string
	for _, tf := range models.AllTimeframes {
		if t, ok := sig.Trends[tf]; ok {
			trendParts = append(trendParts, fmt.Sprintf("%s %s", tf, t))
		}
	}
	if len(trendParts) > 0 {
		fmt.Fprintf(&b, "Trends: %s\n", strings.Join(trendParts, " | "))
	}

	if sig.Direction != models.DirectionHold {
		fmt.Fprintf(&b, "\nEntry: %s\n", formatPrice(sig.Entry))
		fmt.Fprintf(&b, "Stop loss: %s\n", formatPrice(sig.StopLoss))
		fmt.Fprintf(&b, "Take profit: %s\n", formatPrice(sig.TakeProfit))
		for i, target := range sig.Targets {
			fmt.Fprintf(&b, "Target %d: %s (strength %.0f)\n", i+1, formatPrice(target.Price), target.Strength)
		}
	}

	if len(sig.Predictions) > 0 {
		b.WriteString("\nPrice outlook:\n")
		for _, p := range sig.Predictions {
			fmt.Fprintf(&b, "  %s (%.0fh): %s – %s, expected %s (%.0f%%)\n",
				p.Horizon, p.Horizon.Hours(),
				formatPrice(p.Min), formatPrice(p.Max), formatPrice(p.Expected),
				p.Confidence*100)
		}
	}

	if len(sig.Evidence) > 0 {
		b.WriteString("\nEvidence:\n")
		for _, e := range sig.Evidence {
			fmt.Fprintf(&b, "  • %s\n", e)
		}
	}

	return strings.TrimRight(b.String(), "\n")
}

// formatPrice keeps enough precision for small-cap prices without spamming
// decimals on large ones.
func formatPrice(price float64) string {
	switch {
	case price >= 1000:
		return fmt.Sprintf("%.2f", price)
	case price >= 1:
		return fmt.Sprintf("%.4f", price)
	default:
		return fmt.Sprintf("%.8f", price)
	}
}

func directionEmoji(d models.Direction) string {
	switch d {
	case models.DirectionBuy:
		return "🟢"
	case models.DirectionSell:
		return "🔴"
	default:
		return "⚪"
	}
}
