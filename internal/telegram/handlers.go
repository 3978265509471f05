package telegram

import (
	"context"

	tele "gopkg.in/telebot.v4"

	"quizbot/internal/logger"
	"quizbot/internal/session"
)

const topCommandSize = 10

func (b *Bot) onStart(c tele.Context) error {
	ctx := updateContext(c, "start")
	return sendPrompts(c, b.machine.Start(ctx, c.Sender().ID))
}

func (b *Bot) onCancel(c tele.Context) error {
	ctx := updateContext(c, "cancel")
	return sendPrompts(c, b.machine.Cancel(ctx, c.Sender().ID))
}

func (b *Bot) onTop(c tele.Context) error {
	ctx := updateContext(c, "top")
	entries, err := b.store.TopK(ctx, topCommandSize)
	if err != nil {
		// Degrade to an explicit notice; never show an empty rating that
		// could pass for real standings.
		if sendErr := c.Send(session.TopUnavailableText()); sendErr != nil {
			return sendErr
		}
		return err
	}
	return c.Send(session.RenderTop(entries))
}

func (b *Bot) onText(c tele.Context) error {
	ctx := updateContext(c, "text")
	prompts, err := b.machine.Handle(ctx, c.Sender().ID, c.Text())
	if sendErr := sendPrompts(c, prompts); sendErr != nil {
		return sendErr
	}
	return err
}

func sendPrompts(c tele.Context, prompts []session.Prompt) error {
	for _, p := range prompts {
		var err error
		switch {
		case len(p.Options) > 0:
			err = c.Send(p.Text, OptionKeyboard(p.Options))
		case p.RemoveKeyboard:
			err = c.Send(p.Text, RemoveKeyboard())
		default:
			err = c.Send(p.Text)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// updateContext carries the update's correlation id, handler name, and
// identifiers into the core layers, where logging picks them up.
func updateContext(c tele.Context, handler string) context.Context {
	ctx := context.Background()
	if rid, ok := c.Get("rid").(string); ok && rid != "" {
		ctx = logger.WithRID(ctx, rid)
	}
	ctx = logger.WithHandler(ctx, handler)
	var chatID int64
	if chat := c.Chat(); chat != nil {
		chatID = chat.ID
	}
	return logger.WithUpdateMeta(ctx, c.Update().ID, chatID)
}
