package telegram

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	tele "gopkg.in/telebot.v4"

	"quizbot/internal/config"
	"quizbot/internal/leaderboard"
	"quizbot/internal/logger"
	"quizbot/internal/session"
)

// Bot binds the session machine and leaderboard to the Telegram transport.
type Bot struct {
	cfg     *config.Config
	bot     *tele.Bot
	machine *session.Machine
	store   leaderboard.Store
}

// New builds the Telegram bot and wires its handlers.
func New(cfg *config.Config, machine *session.Machine, store leaderboard.Store) (*Bot, error) {
	if cfg == nil {
		return nil, fmt.Errorf("telegram: nil config provided")
	}

	settings := tele.Settings{
		Token:  cfg.Telegram.Token,
		Poller: BuildPoller(cfg),
		Client: BuildHTTPClient(),
	}

	start := time.Now()
	tb, err := tele.NewBot(settings)
	if err != nil {
		return nil, fmt.Errorf("telegram: bot initialization failed: %w", err)
	}
	logger.TG.Info("bot built",
		slog.String("event", "tg.build"),
		slog.String("mode", cfg.Telegram.RunMode),
		slog.Duration("duration", logger.Took(start)),
	)

	b := &Bot{cfg: cfg, bot: tb, machine: machine, store: store}
	b.wire()
	return b, nil
}

func (b *Bot) wire() {
	b.bot.Use(RecoverMiddleware, LoggerMiddleware)
	if interval := time.Duration(b.cfg.RateLimit.IntervalMS) * time.Millisecond; interval > 0 {
		b.bot.Use(RateLimitMiddleware(interval))
	}

	b.bot.Handle("/start", b.onStart)
	b.bot.Handle("/cancel", b.onCancel)
	b.bot.Handle("/top", b.onTop)
	b.bot.Handle(tele.OnText, b.onText)

	if err := b.bot.SetCommands([]tele.Command{
		{Text: "start", Description: "начать викторину"},
		{Text: "top", Description: "показать рейтинг"},
		{Text: "cancel", Description: "прервать викторину"},
	}); err != nil {
		logger.TG.Warn("set commands failed",
			slog.String("event", "tg.commands"),
			slog.String("err", err.Error()),
		)
	}
}

// Run starts the update loop until the provided context is done.
func (b *Bot) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	if b.cfg.Telegram.RunMode == config.RunModeLongpoll {
		if err := deleteWebhook(b.cfg.Telegram.Token, false); err != nil {
			logger.TG.Warn("failed to delete webhook",
				slog.String("event", "delete_webhook"),
				slog.String("err", err.Error()),
			)
		}
	}

	runDone := make(chan struct{})
	go func() {
		b.bot.Start()
		close(runDone)
	}()

	logger.TG.Info("bot started",
		slog.String("event", "tg.start"),
		slog.String("mode", b.cfg.Telegram.RunMode),
	)

	select {
	case <-ctx.Done():
		b.bot.Stop()
		<-runDone
		if errors.Is(ctx.Err(), context.Canceled) {
			return nil
		}
		return ctx.Err()
	case <-runDone:
		return nil
	}
}

func deleteWebhook(token string, dropPending bool) error {
	if strings.TrimSpace(token) == "" {
		return fmt.Errorf("empty token")
	}
	url := fmt.Sprintf("https://api.telegram.org/bot%s/deleteWebhook", token)
	body := "drop_pending_updates=false"
	if dropPending {
		body = "drop_pending_updates=true"
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, strings.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("deleteWebhook status: %s", resp.Status)
	}
	return nil
}
