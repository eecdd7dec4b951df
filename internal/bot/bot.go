package bot

import (
	"context"
	"fmt"
	"html"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"loginreg/internal/service"
)

type flow int

const (
	flowRegister flow = iota
	flowLogin
)

type conversationStage int

const (
	stageFirstName conversationStage = iota
	stageLastName
	stageEmail
	stagePassword
	stageConfirmation
)

const (
	btnCancelDialog   = "⏪ Cancel"
	menuLabelRegister = "📝 Register"
	menuLabelLogin    = "🔑 Log in"
	menuLabelStats    = "📊 Stats"
	menuLabelHelp     = "ℹ️ Help"
)

// Accounts is the account service as seen by the bot.
type Accounts interface {
	Register(ctx context.Context, form service.Form) (service.Result, error)
	Login(ctx context.Context, form service.Form) (service.Result, error)
}

// Reporter builds registration summaries.
type Reporter interface {
	Summary(ctx context.Context, now time.Time, window time.Duration) (service.Report, error)
}

// api is the subset of *tgbotapi.BotAPI the bot uses.
type api interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

type conversationState struct {
	flow  flow
	stage conversationStage
	form  service.Form
}

// Bot collects registration and login forms over Telegram chats.
type Bot struct {
	api           api
	accounts      Accounts
	reports       Reporter
	reportWindow  time.Duration
	log           logrus.FieldLogger
	conversations map[int64]*conversationState
	mu            sync.Mutex
}

func New(token string, accounts Accounts, reports Reporter, reportWindow time.Duration, log logrus.FieldLogger) (*Bot, error) {
	botAPI, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}

	log.WithField("account", botAPI.Self.UserName).Info("bot authorized")

	return newBot(botAPI, accounts, reports, reportWindow, log), nil
}

func newBot(client api, accounts Accounts, reports Reporter, reportWindow time.Duration, log logrus.FieldLogger) *Bot {
	return &Bot{
		api:           client,
		accounts:      accounts,
		reports:       reports,
		reportWindow:  reportWindow,
		log:           log,
		conversations: make(map[int64]*conversationState),
	}
}

// Start begins polling updates until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) error {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := b.api.GetUpdatesChan(updateConfig)

	b.log.Info("start polling updates")

	go func() {
		<-ctx.Done()
		b.api.StopReceivingUpdates()
	}()

	for update := range updates {
		if update.Message == nil || update.Message.Chat == nil || !update.Message.Chat.IsPrivate() {
			continue
		}
		if err := b.handleMessage(ctx, update.Message); err != nil {
			b.log.WithError(err).Error("handle message")
		}
	}

	return nil
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) error {
	if msg.From == nil {
		return nil
	}

	// A pending password stage owns the next message, whatever it looks like.
	if b.awaitingPassword(msg.From.ID) {
		if isCancelInput(msg.Text) {
			b.deleteMessage(msg)
			b.clearConversation(msg.From.ID)
			return b.sendText(msg.Chat.ID, "⏪ Cancelled.")
		}
		return b.handleConversation(ctx, msg)
	}

	if !msg.IsCommand() && strings.TrimSpace(msg.Text) == btnCancelDialog {
		b.clearConversation(msg.From.ID)
		return b.sendText(msg.Chat.ID, "⏪ Cancelled.")
	}

	if msg.IsCommand() {
		b.log.WithFields(logrus.Fields{"from": msg.From.ID, "command": msg.Command()}).Info("command")
		return b.handleCommand(ctx, msg)
	}

	if handled, err := b.handleMenuAlias(ctx, msg); handled {
		return err
	}

	if b.hasConversation(msg.From.ID) {
		return b.handleConversation(ctx, msg)
	}

	return b.sendText(msg.Chat.ID, "I did not get that. Send /register to create an account or /login to sign in.")
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) error {
	switch msg.Command() {
	case "start", "help":
		return b.handleHelp(msg)
	case "register":
		return b.startRegistration(msg)
	case "login":
		return b.startLogin(msg)
	case "stats":
		return b.handleStats(ctx, msg)
	case "cancel":
		b.clearConversation(msg.From.ID)
		return b.sendText(msg.Chat.ID, "⏪ Cancelled.")
	default:
		return b.sendText(msg.Chat.ID, "Unknown command. See /help.")
	}
}

func (b *Bot) handleHelp(msg *tgbotapi.Message) error {
	text := "ℹ️ <b>Commands</b>\n" +
		"• /register — create an account step by step\n" +
		"• /login — sign in with email and password\n" +
		"• /stats — registration summary\n" +
		"• /cancel — abort the current form"
	return b.sendText(msg.Chat.ID, text)
}

func (b *Bot) handleStats(ctx context.Context, msg *tgbotapi.Message) error {
	report, err := b.reports.Summary(ctx, time.Now(), b.reportWindow)
	if err != nil {
		return err
	}
	return b.sendText(msg.Chat.ID, "📊 "+escape(report.String()))
}

func (b *Bot) startRegistration(msg *tgbotapi.Message) error {
	b.setConversation(msg.From.ID, &conversationState{flow: flowRegister, stage: stageFirstName, form: service.Form{}})
	return b.sendWithReplyMarkup(msg.Chat.ID, "📝 New account.\n<b>Step 1:</b> your first name?", cancelKeyboard())
}

func (b *Bot) startLogin(msg *tgbotapi.Message) error {
	b.setConversation(msg.From.ID, &conversationState{flow: flowLogin, stage: stageEmail, form: service.Form{}})
	return b.sendWithReplyMarkup(msg.Chat.ID, "🔑 Log in.\nYour email?", cancelKeyboard())
}

func (b *Bot) handleConversation(ctx context.Context, msg *tgbotapi.Message) error {
	state := b.getConversation(msg.From.ID)
	if state == nil {
		return nil
	}

	// Passwords are kept verbatim; everything else is trimmed.
	text := strings.TrimSpace(msg.Text)

	switch state.stage {
	case stageFirstName:
		state.form[service.FieldFirstName] = text
		state.stage = stageLastName
		return b.sendWithReplyMarkup(msg.Chat.ID, "<b>Step 2:</b> your last name?", cancelKeyboard())
	case stageLastName:
		state.form[service.FieldLastName] = text
		state.stage = stageEmail
		return b.sendWithReplyMarkup(msg.Chat.ID, "<b>Step 3:</b> your email?", cancelKeyboard())
	case stageEmail:
		state.form[service.FieldEmail] = text
		state.stage = stagePassword
		prompt := "Your password? The message will be deleted after reading."
		if state.flow == flowRegister {
			prompt = "<b>Step 4:</b> choose a password (8+ characters). The message will be deleted after reading."
		}
		return b.sendWithReplyMarkup(msg.Chat.ID, prompt, cancelKeyboard())
	case stagePassword:
		state.form[service.FieldPassword] = msg.Text
		b.deleteMessage(msg)
		if state.flow == flowLogin {
			b.clearConversation(msg.From.ID)
			return b.finishLogin(ctx, msg.Chat.ID, state.form)
		}
		state.stage = stageConfirmation
		return b.sendWithReplyMarkup(msg.Chat.ID, "<b>Step 5:</b> repeat the password.", cancelKeyboard())
	case stageConfirmation:
		state.form[service.FieldPasswordConfirmation] = msg.Text
		b.deleteMessage(msg)
		b.clearConversation(msg.From.ID)
		return b.finishRegistration(ctx, msg.Chat.ID, state.form)
	default:
		b.clearConversation(msg.From.ID)
		return b.sendText(msg.Chat.ID, "Form reset. Start again with /register or /login.")
	}
}

func (b *Bot) finishRegistration(ctx context.Context, chatID int64, form service.Form) error {
	res, err := b.accounts.Register(ctx, form)
	if err != nil {
		_ = b.sendText(chatID, "Something went wrong, please try again later.")
		return err
	}
	if !res.Success {
		return b.sendText(chatID, formatErrors("Registration failed", res.Errors)+"\n\nTry again with /register.")
	}
	return b.sendText(chatID, fmt.Sprintf("✅ Welcome, %s! Your account is registered as %s.",
		escape(res.User.FirstName), escape(res.User.Email)))
}

func (b *Bot) finishLogin(ctx context.Context, chatID int64, form service.Form) error {
	res, err := b.accounts.Login(ctx, form)
	if err != nil {
		_ = b.sendText(chatID, "Something went wrong, please try again later.")
		return err
	}
	if !res.Success {
		return b.sendText(chatID, formatErrors("Login failed", res.Errors))
	}
	return b.sendText(chatID, fmt.Sprintf("👋 Welcome back, %s %s!", escape(res.User.FirstName), escape(res.User.LastName)))
}

func (b *Bot) handleMenuAlias(ctx context.Context, msg *tgbotapi.Message) (bool, error) {
	switch strings.TrimSpace(msg.Text) {
	case menuLabelRegister:
		return true, b.startRegistration(msg)
	case menuLabelLogin:
		return true, b.startLogin(msg)
	case menuLabelStats:
		return true, b.handleStats(ctx, msg)
	case menuLabelHelp:
		return true, b.handleHelp(msg)
	default:
		return false, nil
	}
}

// deleteMessage removes a chat message holding a password. Failure is logged only.
func (b *Bot) deleteMessage(msg *tgbotapi.Message) {
	if _, err := b.api.Request(tgbotapi.NewDeleteMessage(msg.Chat.ID, msg.MessageID)); err != nil {
		b.log.WithError(err).WithField("chat", msg.Chat.ID).Warn("delete password message")
	}
}

func (b *Bot) sendText(chatID int64, text string) error {
	return b.sendWithReplyMarkup(chatID, text, mainMenuKeyboard())
}

func (b *Bot) sendWithReplyMarkup(chatID int64, text string, markup interface{}) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = markup
	_, err := b.api.Send(msg)
	return err
}

func (b *Bot) setConversation(userID int64, state *conversationState) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.conversations[userID] = state
}

func (b *Bot) getConversation(userID int64) *conversationState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.conversations[userID]
}

func (b *Bot) hasConversation(userID int64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.conversations[userID]
	return ok
}

func (b *Bot) awaitingPassword(userID int64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	state, ok := b.conversations[userID]
	return ok && (state.stage == stagePassword || state.stage == stageConfirmation)
}

func (b *Bot) clearConversation(userID int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.conversations, userID)
}

func mainMenuKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(menuLabelRegister),
			tgbotapi.NewKeyboardButton(menuLabelLogin),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(menuLabelStats),
			tgbotapi.NewKeyboardButton(menuLabelHelp),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = false
	return kb
}

func cancelKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnCancelDialog),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}

func isCancelInput(text string) bool {
	text = strings.TrimSpace(text)
	return text == "/cancel" || text == btnCancelDialog
}

func formatErrors(title string, errs []string) string {
	var sb strings.Builder
	sb.WriteString("⚠️ <b>")
	sb.WriteString(escape(title))
	sb.WriteString("</b>")
	for _, e := range errs {
		sb.WriteString("\n• ")
		sb.WriteString(escape(e))
	}
	return sb.String()
}

func escape(s string) string {
	return html.EscapeString(s)
}
