package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"crypto-signal-bot/config"
	"crypto-signal-bot/internal/bot"
	"crypto-signal-bot/internal/market"
	"crypto-signal-bot/internal/notification"
	"crypto-signal-bot/models"
)

// One-shot console analysis of a single symbol, for local runs without
// Telegram.
func main() {
	symbolFlag := flag.String("symbol", "", "symbol to analyze (defaults to the first configured one)")
	classFlag := flag.String("class", "ALL", "signal horizon class: SHORT, LONG or ALL")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	lvl, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(lvl).With().Timestamp().Logger()

	symbol := strings.ToUpper(strings.TrimSpace(*symbolFlag))
	if symbol == "" {
		symbol = cfg.SymbolList()[0]
	}
	class := models.ParseSignalClass(strings.ToUpper(*classFlag))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	engine := bot.NewEngine(cfg)
	data := market.NewData(symbol, cfg, market.NewClient(cfg))

	analysis, err := engine.Run(ctx, data, symbol, class)
	if err != nil {
		log.Fatal().Err(err).Str("symbol", symbol).Msg("analysis failed")
	}

	fmt.Printf("=== %s ===\n", symbol)
	fmt.Printf("Price: %.2f (24h: %+.2f%%)\n", analysis.Price, analysis.DailyChange)
	fmt.Printf("Market phase: %s (%.0f%%)\n", analysis.Cycle.Phase, analysis.Cycle.Confidence*100)
	fmt.Printf("Overall trend: %s\n", analysis.OverallTrend)
	for _, tf := range models.AllTimeframes {
		fmt.Printf("  %s: %s\n", tf, analysis.Trends[tf])
	}

	fmt.Println("\nSupport levels:")
	for _, l := range analysis.Supports {
		fmt.Printf("  %.2f (strength %.0f)\n", l.Price, l.Strength)
	}
	fmt.Println("Resistance levels:")
	for _, l := range analysis.Resistances {
		fmt.Printf("  %.2f (strength %.0f)\n", l.Price, l.Strength)
	}

	fmt.Println("\nPrice outlook:")
	for _, p := range analysis.Predictions {
		fmt.Printf("  %s (%.0fh): %.2f - %.2f, expected %.2f (%.0f%%)\n",
			p.Horizon, p.Horizon.Hours(), p.Min, p.Max, p.Expected, p.Confidence*100)
	}

	if analysis.Signal == nil {
		fmt.Printf("\nNo actionable %s signal.\n", class)
		return
	}
	fmt.Println()
	fmt.Println(notification.FormatSignal(analysis.Signal))
}
