// Package bot links Telegram identities to accounts and attaches group
// invite links to hosted events.
package bot

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"github.com/mymmrac/telego"
	th "github.com/mymmrac/telego/telegohandler"
	tu "github.com/mymmrac/telego/telegoutil"

	"github.com/palparty/backend/internal/event"
	"github.com/palparty/backend/internal/user"
)

var (
	ErrGetMe          = errors.New("cannot retrieve api user")
	ErrUpdatesChannel = errors.New("cannot get updates channel")
	ErrHandlerInit    = errors.New("cannot initialize handler")
)

const linkCallbackPrefix = "link:"

// AuthService validates account credentials
type AuthService interface {
	Authenticate(ctx context.Context, email, password string) (*user.SafeUser, error)
}

// UserService resolves and links telegram identities
type UserService interface {
	GetByTelegramID(ctx context.Context, telegramID int64) (*user.SafeUser, error)
	LinkTelegram(ctx context.Context, userID, telegramID int64) error
}

// EventService exposes the event operations the bot needs
type EventService interface {
	HostedWithoutGroupLink(ctx context.Context, userID int64) ([]*event.Event, error)
	AttachGroupLink(ctx context.Context, eventID int64, link string) error
}

// Bot is the Telegram collaborator
type Bot struct {
	api    *telego.Bot
	auth   AuthService
	users  UserService
	events EventService
	selfID int64

	mu       sync.Mutex
	sessions map[int64]*linkSession
}

// linkSession tracks an in-progress account link conversation per chat
type linkSession struct {
	stage string // "email" or "password"
	email string
}

// linkCredentials is the collected outcome of a finished link conversation
type linkCredentials struct {
	email    string
	password string
}

// New creates the bot from a token
func New(token string, auth AuthService, users UserService, events EventService) (*Bot, error) {
	api, err := telego.NewBot(token)
	if err != nil {
		return nil, err
	}

	return &Bot{
		api:      api,
		auth:     auth,
		users:    users,
		events:   events,
		sessions: make(map[int64]*linkSession),
	}, nil
}

// Run starts long polling and blocks until the handler stops
func (b *Bot) Run() error {
	botUser, err := b.api.GetMe()
	if err != nil {
		slog.Error("cannot retrieve api user", "error", err)
		return ErrGetMe
	}

	b.selfID = botUser.ID
	slog.Info("running bot as", "id", botUser.ID, "username", botUser.Username)

	updates, err := b.api.UpdatesViaLongPolling(nil)
	if err != nil {
		slog.Error("cannot get update channel", "error", err)
		return ErrUpdatesChannel
	}

	bh, err := th.NewBotHandler(b.api, updates)
	if err != nil {
		slog.Error("cannot initialize bot handler", "error", err)
		return ErrHandlerInit
	}

	defer bh.Stop()
	defer b.api.StopLongPolling()

	bh.Handle(b.startHandler, th.CommandEqual("start"))
	bh.Handle(b.verifyHandler, th.CommandEqual("verify"))
	bh.Handle(b.linkCallbackHandler, th.CallbackDataPrefix(linkCallbackPrefix))
	bh.Handle(b.textHandler, th.AnyMessage())

	bh.Start()

	return nil
}

func (b *Bot) reply(chatID int64, text string) {
	if _, err := b.api.SendMessage(tu.Message(tu.ID(chatID), text)); err != nil {
		slog.Error("cannot send reply message", "error", err)
	}
}

// startHandler begins the account-link conversation in a private chat
func (b *Bot) startHandler(bot *telego.Bot, update telego.Update) {
	slog.Info("/start")

	chatID := update.Message.Chat.ID
	if update.Message.Chat.Type != telego.ChatTypePrivate {
		b.reply(chatID, "Account linking is only available in a private chat")
		return
	}

	b.beginLink(chatID)
	b.reply(chatID, "Log in to your PalParty account. Send your email:")
}

// beginLink starts (or restarts) the link conversation for a chat
func (b *Bot) beginLink(chatID int64) {
	b.mu.Lock()
	b.sessions[chatID] = &linkSession{stage: "email"}
	b.mu.Unlock()
}

// advanceLink feeds one message into the chat's link conversation. The
// whole step runs under the mutex; updates for one chat may be dispatched
// concurrently. It returns the next prompt to send, or the collected
// credentials once the conversation completes.
func (b *Bot) advanceLink(chatID int64, text string) (prompt string, creds *linkCredentials) {
	b.mu.Lock()
	defer b.mu.Unlock()

	session, ok := b.sessions[chatID]
	if !ok {
		return "", nil
	}

	switch session.stage {
	case "email":
		session.email = text
		session.stage = "password"
		return "Send your password:", nil
	case "password":
		delete(b.sessions, chatID)
		return "", &linkCredentials{email: session.email, password: text}
	}
	return "", nil
}

// textHandler advances the link conversation for chats that have one
func (b *Bot) textHandler(bot *telego.Bot, update telego.Update) {
	if update.Message == nil || update.Message.Chat.Type != telego.ChatTypePrivate {
		return
	}

	chatID := update.Message.Chat.ID

	prompt, creds := b.advanceLink(chatID, update.Message.Text)
	if prompt != "" {
		b.reply(chatID, prompt)
		return
	}
	if creds == nil {
		return
	}

	ctx := context.Background()
	u, err := b.auth.Authenticate(ctx, creds.email, creds.password)
	if err != nil {
		b.reply(chatID, "Wrong account name or password")
		return
	}

	if err := b.users.LinkTelegram(ctx, u.ID, update.Message.From.ID); err != nil {
		slog.Error("cannot link telegram account", "error", err)
		b.reply(chatID, "Could not link the telegram account, try again later")
		return
	}

	b.reply(chatID, "Telegram account is now linked to your PalParty account")
}

// verifyHandler offers the sender's hosted events so the current group can
// become one of their event chats
func (b *Bot) verifyHandler(bot *telego.Bot, update telego.Update) {
	slog.Info("/verify")

	chatID := update.Message.Chat.ID
	if update.Message.Chat.Type == telego.ChatTypePrivate {
		b.reply(chatID, "This command is only available in a group chat")
		return
	}

	members, err := bot.GetChatMemberCount(&telego.GetChatMemberCountParams{ChatID: tu.ID(chatID)})
	if err != nil {
		slog.Error("cannot count chat members", "error", err)
		return
	}
	if *members > 2 {
		b.reply(chatID, "The event group must have no members before the invitation is published")
		return
	}

	ctx := context.Background()
	admin, err := b.users.GetByTelegramID(ctx, update.Message.From.ID)
	if err != nil || admin == nil {
		b.reply(chatID, "Your telegram account is not linked to a PalParty account")
		return
	}

	events, err := b.events.HostedWithoutGroupLink(ctx, admin.ID)
	if err != nil {
		slog.Error("cannot list hosted events", "error", err)
		return
	}
	if len(events) == 0 {
		b.reply(chatID, "You are not hosting any events that need a group chat")
		return
	}

	self, err := bot.GetChatMember(&telego.GetChatMemberParams{
		ChatID: tu.ID(chatID),
		UserID: b.selfID,
	})
	if err != nil {
		slog.Error("cannot get own chat membership", "error", err)
		return
	}
	adminMember, ok := self.(*telego.ChatMemberAdministrator)
	if !ok || !adminMember.CanInviteUsers {
		b.reply(chatID, "The bot needs admin rights to create an invitation")
		return
	}

	inviteURL, err := bot.ExportChatInviteLink(&telego.ExportChatInviteLinkParams{ChatID: tu.ID(chatID)})
	if err != nil || inviteURL == nil {
		slog.Error("cannot export invite link", "error", err)
		return
	}

	rows := make([][]telego.InlineKeyboardButton, 0, len(events))
	for _, e := range events {
		data := linkCallbackPrefix + *inviteURL + ";" + strconv.FormatInt(e.ID, 10)
		rows = append(rows, tu.InlineKeyboardRow(
			tu.InlineKeyboardButton(e.Name).WithCallbackData(data),
		))
	}

	message := tu.Message(tu.ID(chatID), "Choose the event this group is meant for").
		WithReplyMarkup(&telego.InlineKeyboardMarkup{InlineKeyboard: rows})
	if _, err := bot.SendMessage(message); err != nil {
		slog.Error("cannot send event keyboard", "error", err)
	}
}

// linkCallbackHandler attaches the exported invite link to the chosen event
func (b *Bot) linkCallbackHandler(bot *telego.Bot, update telego.Update) {
	query := update.CallbackQuery
	if query == nil {
		return
	}
	slog.Info("received link answer", "data", query.Data)

	data := strings.TrimPrefix(query.Data, linkCallbackPrefix)
	sep := strings.LastIndex(data, ";")
	if sep < 0 {
		return
	}
	link := data[:sep]
	eventID, err := strconv.ParseInt(data[sep+1:], 10, 64)
	if err != nil {
		return
	}

	answer := &telego.AnswerCallbackQueryParams{CallbackQueryID: query.ID}
	if err := b.events.AttachGroupLink(context.Background(), eventID, link); err != nil {
		slog.Error("cannot attach group link", "event_id", eventID, "error", err)
		answer.Text = "Could not attach the invite link, try again later"
	} else {
		answer.Text = "Invite link is now attached to the event"
	}

	if err := bot.AnswerCallbackQuery(answer); err != nil {
		slog.Error("cannot answer callback query", "error", err)
	}
}
