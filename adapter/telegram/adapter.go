// Package telegram binds a mau FormSet to a Telegram bot. Inbound
// private text messages are routed through the formset; produced
// questions are sent back, with choices rendered as a one-time reply
// keyboard whose labels map back to choice ids on the next answer.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	tele "gopkg.in/telebot.v4"

	"github.com/forfuturellc/mau"
	"github.com/forfuturellc/mau/logger"
)

// UnhandledFunc is invoked when a text message arrives for a chat with
// no form in progress. ref is the reference the adapter would have
// passed to Process; handing it to ProcessForm keeps replies flowing to
// the same chat.
type UnhandledFunc func(ctx context.Context, chatID, text string, ref any) error

// Options configure the adapter.
type Options struct {
	// Token authenticates against the Bot API. Ignored when Bot is set.
	Token string
	// Poller overrides the default long poller. Ignored when Bot is set.
	Poller tele.Poller
	// LongPollTimeout tunes the default long poller; 0 means 10s.
	LongPollTimeout time.Duration
	// Bot reuses an existing bot instead of constructing one.
	Bot *tele.Bot
	// OnUnhandled handles messages no form claimed.
	OnUnhandled UnhandledFunc
	// ProcessTimeout bounds one process round trip; 0 leaves it
	// unbounded.
	ProcessTimeout time.Duration
	// ChoiceColumns is the number of choice buttons per keyboard row;
	// 0 means 3.
	ChoiceColumns int
}

// Adapter owns the bot wiring for one formset.
type Adapter struct {
	bot     *tele.Bot
	formset *mau.FormSet
	opts    Options
}

// New builds the bot (unless one is supplied), wires the text route and
// subscribes to the formset's query and message streams.
func New(formset *mau.FormSet, opts Options) (*Adapter, error) {
	bot := opts.Bot
	if bot == nil {
		poller := opts.Poller
		if poller == nil {
			timeout := opts.LongPollTimeout
			if timeout == 0 {
				timeout = 10 * time.Second
			}
			poller = &tele.LongPoller{Timeout: timeout}
		}
		var err error
		bot, err = tele.NewBot(tele.Settings{Token: opts.Token, Poller: poller})
		if err != nil {
			return nil, fmt.Errorf("telegram: bot initialization failed: %w", err)
		}
	}
	if opts.ChoiceColumns <= 0 {
		opts.ChoiceColumns = 3
	}

	a := &Adapter{bot: bot, formset: formset, opts: opts}
	bot.Handle(tele.OnText, a.onText)
	formset.OnQuery(a.handleQuery)
	formset.OnMessage(a.handleMessage)
	return a, nil
}

// Bot exposes the underlying bot so applications can register
// additional routes (commands, callbacks) beside the form flow.
func (a *Adapter) Bot() *tele.Bot { return a.bot }

// Start begins receiving updates; it blocks until Stop is called.
func (a *Adapter) Start() { a.bot.Start() }

// Stop ends update processing.
func (a *Adapter) Stop() { a.bot.Stop() }

func (a *Adapter) processContext() (context.Context, context.CancelFunc) {
	if a.opts.ProcessTimeout > 0 {
		return context.WithTimeout(context.Background(), a.opts.ProcessTimeout)
	}
	return context.Background(), func() {}
}

func (a *Adapter) onText(c tele.Context) error {
	msg := c.Message()
	if msg == nil || msg.Chat == nil {
		return nil
	}
	if msg.Chat.Type != tele.ChatPrivate {
		// Forms run in private chats only.
		return nil
	}
	text := msg.Text
	if text == "" {
		return nil
	}
	chatID := strconv.FormatInt(msg.Chat.ID, 10)

	ctx, cancel := a.processContext()
	defer cancel()

	answer, err := a.resolveChoice(ctx, chatID, text)
	if err != nil {
		logger.Warn(ctx, "mau.telegram", "choices.load_failed",
			slog.String("chat_id", chatID),
			slog.String("err", err.Error()),
		)
		answer = text
	}

	err = a.formset.Process(ctx, chatID, answer, msg.Chat)
	if errors.Is(err, mau.ErrFormNotFound) {
		if a.opts.OnUnhandled != nil {
			return a.opts.OnUnhandled(ctx, chatID, text, msg.Chat)
		}
		logger.Debug(ctx, "mau.telegram", "message.unhandled",
			slog.String("chat_id", chatID),
		)
		return nil
	}
	return err
}

// handleQuery delivers a produced question, remembering its choices so
// the next reply can be mapped from label back to id.
func (a *Adapter) handleQuery(prompt *mau.Prompt, ref any) {
	chat, ok := ref.(*tele.Chat)
	if !ok {
		logger.Warn(context.Background(), "mau.telegram", "query.bad_ref",
			slog.String("ref_type", fmt.Sprintf("%T", ref)),
		)
		return
	}
	chatID := strconv.FormatInt(chat.ID, 10)

	ctx, cancel := a.processContext()
	defer cancel()

	if err := a.rememberChoices(ctx, chatID, prompt.Choices); err != nil {
		logger.Error(ctx, "mau.telegram", "choices.save_failed",
			slog.String("chat_id", chatID),
			slog.String("err", err.Error()),
		)
	}

	markup := &tele.ReplyMarkup{RemoveKeyboard: true}
	if len(prompt.Choices) > 0 {
		markup = choiceKeyboard(prompt.Choices, a.opts.ChoiceColumns)
	}
	if _, err := a.bot.Send(chat, prompt.Text, markup); err != nil {
		logger.Error(ctx, "mau.telegram", "query.send_failed",
			slog.String("chat_id", chatID),
			slog.String("err", err.Error()),
		)
	}
}

// handleMessage delivers out-of-band sends issued via Controller.Send.
func (a *Adapter) handleMessage(text string, ref any) {
	chat, ok := ref.(*tele.Chat)
	if !ok {
		return
	}
	if _, err := a.bot.Send(chat, text); err != nil {
		logger.Error(context.Background(), "mau.telegram", "message.send_failed",
			slog.Int64("chat_id", chat.ID),
			slog.String("err", err.Error()),
		)
	}
}

// choiceKeyboard builds a one-time resizable reply keyboard from the
// choice labels, columns buttons per row.
func choiceKeyboard(choices []mau.PromptChoice, columns int) *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{ResizeKeyboard: true, OneTimeKeyboard: true}
	var rows []tele.Row
	for start := 0; start < len(choices); start += columns {
		end := start + columns
		if end > len(choices) {
			end = len(choices)
		}
		buttons := make([]tele.Btn, 0, end-start)
		for _, choice := range choices[start:end] {
			buttons = append(buttons, markup.Text(choice.Text))
		}
		rows = append(rows, markup.Row(buttons...))
	}
	markup.Reply(rows...)
	return markup
}
