package bot

import (
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"
)

// Telegram adapts the Bot API to the engine: it runs the long-poll update
// loop, converts updates into Events, and implements Sender for outbound
// messages.  tgbotapi's BotAPI is safe for concurrent Send calls, so the
// fulfillment dispatcher shares this same value.
type Telegram struct {
	api *tgbotapi.BotAPI
}

// NewTelegram authorizes against the Bot API with the given token.
func NewTelegram(token string) (*Telegram, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	log.Infof("bot: authorized as @%s", api.Self.UserName)
	return &Telegram{api: api}, nil
}

// Run consumes updates until ctx is cancelled.  Updates are handled
// sequentially, which preserves per-user arrival order; slow handlers delay
// the queue rather than reorder it.
func (t *Telegram) Run(ctx context.Context, engine *Engine) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := t.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			t.api.StopReceivingUpdates()
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			if ev, acceptable := t.toEvent(update); acceptable {
				engine.Handle(ctx, ev)
			}
			if update.CallbackQuery != nil {
				// Stop the client-side spinner regardless of outcome.
				if _, err := t.api.Request(tgbotapi.NewCallback(update.CallbackQuery.ID, "")); err != nil {
					log.Warnf("bot: answer callback: %v", err)
				}
			}
		}
	}
}

// toEvent maps a Bot API update onto an engine Event.  Updates without a
// usable sender (channel posts, edits, media without text) are dropped.
func (t *Telegram) toEvent(update tgbotapi.Update) (Event, bool) {
	if cq := update.CallbackQuery; cq != nil && cq.From != nil {
		ev := Event{
			UserID:    cq.From.ID,
			ChatID:    cq.From.ID,
			Username:  cq.From.UserName,
			FirstName: cq.From.FirstName,
			LastName:  cq.From.LastName,
			Callback:  cq.Data,
		}
		if cq.Message != nil && cq.Message.Chat != nil {
			ev.ChatID = cq.Message.Chat.ID
		}
		return ev, ev.Callback != ""
	}
	if msg := update.Message; msg != nil && msg.From != nil && msg.Text != "" {
		return Event{
			UserID:    msg.From.ID,
			ChatID:    msg.Chat.ID,
			Username:  msg.From.UserName,
			FirstName: msg.From.FirstName,
			LastName:  msg.From.LastName,
			Text:      strings.TrimSpace(msg.Text),
		}, true
	}
	return Event{}, false
}

// SendText delivers a plain text message.
func (t *Telegram) SendText(chatID int64, text string) error {
	_, err := t.api.Send(tgbotapi.NewMessage(chatID, text))
	return err
}

// SendMenu delivers text together with the persistent reply keyboard.
func (t *Telegram) SendMenu(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton("🎬 Movies"),
			tgbotapi.NewKeyboardButton("📺 Series"),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton("💳 My Transactions"),
			tgbotapi.NewKeyboardButton("❓ Help"),
		),
	)
	_, err := t.api.Send(msg)
	return err
}

// SendPhoto delivers a photo with caption and optional inline buttons.
// Thumbnails are stored either as Telegram file ids or as URLs; with no
// thumbnail at all the caption is sent as plain text so the flow still
// works for entries without artwork.
func (t *Telegram) SendPhoto(chatID int64, fileID, caption string, buttons ...Button) error {
	if fileID == "" {
		if len(buttons) == 0 {
			return t.SendText(chatID, caption)
		}
		msg := tgbotapi.NewMessage(chatID, caption)
		msg.ReplyMarkup = inlineKeyboard(buttons)
		_, err := t.api.Send(msg)
		return err
	}
	msg := tgbotapi.NewPhoto(chatID, photoFile(fileID))
	msg.Caption = caption
	if len(buttons) > 0 {
		msg.ReplyMarkup = inlineKeyboard(buttons)
	}
	_, err := t.api.Send(msg)
	return err
}

// SendDocument delivers a stored file by Telegram file id.
func (t *Telegram) SendDocument(chatID int64, fileID, caption string) error {
	msg := tgbotapi.NewDocument(chatID, tgbotapi.FileID(fileID))
	msg.Caption = caption
	_, err := t.api.Send(msg)
	return err
}

func photoFile(ref string) tgbotapi.RequestFileData {
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return tgbotapi.FileURL(ref)
	}
	return tgbotapi.FileID(ref)
}

func inlineKeyboard(buttons []Button) tgbotapi.InlineKeyboardMarkup {
	row := make([]tgbotapi.InlineKeyboardButton, 0, len(buttons))
	for _, b := range buttons {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(b.Label, b.Data))
	}
	return tgbotapi.NewInlineKeyboardMarkup(row)
}
