package telegram

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/octagonbets/ppv-bot/internal/announce"
	"github.com/octagonbets/ppv-bot/internal/models"
	"github.com/octagonbets/ppv-bot/internal/repository"
	"github.com/octagonbets/ppv-bot/internal/service"
	"github.com/octagonbets/ppv-bot/internal/session"
)

const (
	flowSetOdds      = "set_odds"
	flowAnnouncement = "announcement"
)

const (
	stepAwaitingContent = iota
	stepAwaitingConfirmation
)

// Callback actions.
const (
	cbCurrentTournament = "current_tournament"
	cbLeaderboard       = "leaderboard"
	cbArchive           = "archive"

	cbNewPPV       = "admin_new_ppv"
	cbSelectPPV    = "ppv_select"
	cbConfirmPPV   = "ppv_confirm"
	cbSetOdds      = "admin_set_odds"
	cbToggleBets   = "bets_toggle"
	cbFinishPPV    = "admin_finish_ppv"
	cbCancelPPV    = "ppv_cancel"
	cbStats        = "admin_stats"
	cbAnnouncement = "admin_announcement"
	cbAnnConfirm   = "announcement_confirm"
	cbAnnCancel    = "announcement_cancel"
	cbExit         = "admin_exit"
	cbBack         = "admin_back"
)

const accessDeniedText = "❌ У вас нет доступа к этой команде."

// Sender is the part of *tgbotapi.BotAPI the bot relies on.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
}

// EventSource lists upcoming cards; *ufcapi.Client implements it.
type EventSource interface {
	ListUpcomingEvents(ctx context.Context) []models.Event
	GetEvent(ctx context.Context, id string) *models.Event
	GetEventFights(ctx context.Context, id string) []models.Fight
}

type Services struct {
	Users       service.UsersService
	Tournaments service.TournamentsService
	Broadcast   service.BroadcastService
	Sessions    *session.Store
	Events      EventSource
}

type Bot struct {
	api     Sender
	adminID int64
	svc     Services
	albums  *announce.AlbumCollector
	logger  repository.Logger
	timeNow func() time.Time
	// mu serialises update handling with the album flush job.
	mu sync.Mutex
}

func NewBot(api Sender, adminID int64, svc Services, albums *announce.AlbumCollector, logger repository.Logger) *Bot {
	if albums == nil {
		albums = announce.NewAlbumCollector(announce.DefaultAlbumQuiet)
	}
	return &Bot{
		api:     api,
		adminID: adminID,
		svc:     svc,
		albums:  albums,
		logger:  logger,
		timeNow: time.Now,
	}
}

// RegisterCommands publishes the command list shown in the Telegram menu.
func (b *Bot) RegisterCommands() error {
	cfg := tgbotapi.NewSetMyCommands(
		tgbotapi.BotCommand{Command: "start", Description: "Главное меню"},
		tgbotapi.BotCommand{Command: "admin", Description: "Админ-панель"},
		tgbotapi.BotCommand{Command: "cancel", Description: "Отменить текущее действие"},
	)
	_, err := b.api.Request(cfg)
	return err
}

func (b *Bot) Run(ctx context.Context) error {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 30
	updates := b.api.GetUpdatesChan(updateConfig)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case update := <-updates:
			if err := b.handleUpdate(ctx, update); err != nil {
				b.logger.Error(err, "handle_update", "update", strconv.Itoa(update.UpdateID), 0)
			}
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if update.Message != nil {
		return b.handleMessage(ctx, update.Message)
	}
	if update.CallbackQuery != nil {
		return b.handleCallback(ctx, update.CallbackQuery)
	}
	return nil
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) error {
	if msg.From == nil || msg.Chat == nil {
		return nil
	}
	chatID := msg.Chat.ID

	if msg.IsCommand() {
		switch msg.Command() {
		case "start":
			return b.handleStart(ctx, msg)
		case "admin":
			b.touchUser(ctx, msg.From)
			if !b.requireAdmin(chatID, msg.From) {
				return nil
			}
			if err := b.resetFlow(ctx, msg.From.ID); err != nil {
				return err
			}
			b.logger.Info("open_admin_panel", "admin", "", msg.From.ID, "ok")
			return b.sendAdminPanel(ctx, chatID)
		case "cancel":
			b.touchUser(ctx, msg.From)
			return b.handleCancel(ctx, msg)
		default:
			b.sendSimple(chatID, "Неизвестная команда. Используйте /start.")
		}
		return nil
	}

	b.touchUser(ctx, msg.From)
	if !b.isAdmin(msg.From.ID) {
		return nil
	}

	state := &wizardState{}
	stored, err := b.svc.Sessions.Load(ctx, msg.From.ID, state)
	if err != nil {
		return err
	}
	if stored == nil || state.Flow == "" {
		// Plain message without wizard – ignore.
		return nil
	}
	return b.advanceWizard(ctx, msg, state)
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) error {
	if cb.From == nil || cb.Message == nil || cb.Message.Chat == nil {
		return nil
	}
	b.touchUser(ctx, cb.From)

	payload, err := parseCallback(cb.Data)
	if err != nil {
		b.answer(cb.ID, "Некорректная кнопка")
		return nil
	}
	chatID := cb.Message.Chat.ID

	switch payload.Action {
	case cbCurrentTournament:
		err = b.showCurrentTournament(ctx, chatID)
	case cbLeaderboard:
		b.showLeaderboard(chatID)
	case cbArchive:
		err = b.showArchive(ctx, chatID)
	default:
		if !b.requireAdmin(chatID, cb.From) {
			b.answer(cb.ID, "")
			return nil
		}
		handled, err := b.handleAdminCallback(ctx, cb, payload)
		if err != nil {
			b.answer(cb.ID, "")
			return err
		}
		if handled {
			return nil
		}
		b.answer(cb.ID, "Функция в разработке")
		return nil
	}
	b.answer(cb.ID, "")
	return err
}

func (b *Bot) isAdmin(id int64) bool {
	return id == b.adminID
}

// requireAdmin gates admin-only commands and buttons; refusals are logged and answered.
func (b *Bot) requireAdmin(chatID int64, from *tgbotapi.User) bool {
	if b.isAdmin(from.ID) {
		return true
	}
	b.logger.Warn("admin_access", "admin", from.UserName, from.ID, "not an admin")
	_, _ = b.api.Send(tgbotapi.NewMessage(chatID, accessDeniedText))
	return false
}

func (b *Bot) touchUser(ctx context.Context, from *tgbotapi.User) {
	if _, err := b.svc.Users.Upsert(ctx, userFromTelegram(from, b.isAdmin(from.ID))); err != nil {
		b.logger.Error(err, "touch_user", "user", strconv.FormatInt(from.ID, 10), from.ID)
	}
}

func (b *Bot) handleCancel(ctx context.Context, msg *tgbotapi.Message) error {
	chatID := msg.Chat.ID
	if !b.isAdmin(msg.From.ID) {
		b.sendWithMarkup(chatID, "Нечего отменять.\n\nВыберите действие:", mainMenu())
		return nil
	}

	state := &wizardState{}
	stored, err := b.svc.Sessions.Load(ctx, msg.From.ID, state)
	if err != nil {
		return err
	}
	if err := b.resetFlow(ctx, msg.From.ID); err != nil {
		return err
	}
	if stored != nil && state.Flow != "" {
		b.logger.Info("cancel_flow", "session", state.Flow, msg.From.ID, "cancelled")
		b.sendSimple(chatID, "❌ Действие отменено.")
	}
	return b.sendAdminPanel(ctx, chatID)
}

// resetFlow drops any wizard state and buffered album items of the admin.
func (b *Bot) resetFlow(ctx context.Context, adminID int64) error {
	b.albums.Discard(adminID)
	return b.svc.Sessions.Clear(ctx, adminID)
}

// ----------------------------------------------------------------------------
// Wizards

type wizardState struct {
	Flow         string                 `json:"flow"`
	Step         int                    `json:"step"`
	Data         map[string]string      `json:"data,omitempty"`
	Announcement *announce.Announcement `json:"announcement,omitempty"`
}

func (b *Bot) saveSession(ctx context.Context, adminID int64, state *wizardState) error {
	return b.svc.Sessions.Save(ctx, adminID, &state.Flow, state)
}

func (b *Bot) advanceWizard(ctx context.Context, msg *tgbotapi.Message, state *wizardState) error {
	switch state.Flow {
	case flowSetOdds:
		return b.advanceOddsWizard(ctx, msg, state)
	case flowAnnouncement:
		return b.advanceAnnouncement(ctx, msg, state)
	default:
		return b.svc.Sessions.Clear(ctx, msg.From.ID)
	}
}

// ----------------------------------------------------------------------------
// Senders

func (b *Bot) sendSimple(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = "Markdown"
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Error(err, "send_message", "chat", strconv.FormatInt(chatID, 10), 0)
	}
}

func (b *Bot) sendWithMarkup(chatID int64, text string, markup tgbotapi.InlineKeyboardMarkup) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = "Markdown"
	msg.ReplyMarkup = markup
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Error(err, "send_message", "chat", strconv.FormatInt(chatID, 10), 0)
	}
}

func (b *Bot) answer(callbackID, text string) {
	_, _ = b.api.Request(tgbotapi.NewCallback(callbackID, text))
}

func (b *Bot) alert(callbackID, text string) {
	_, _ = b.api.Request(tgbotapi.NewCallbackWithAlert(callbackID, text))
}

// sendFailure reports an unexpected store error without leaking details to the chat.
func (b *Bot) sendFailure(chatID int64, err error, action string) {
	b.logger.Error(err, action, "chat", strconv.FormatInt(chatID, 10), 0)
	b.sendSimple(chatID, "⚠️ Что-то пошло не так. Попробуйте позже.")
}

// ----------------------------------------------------------------------------
// Helpers

func userFromTelegram(from *tgbotapi.User, isAdmin bool) models.User {
	return models.User{
		ID:        from.ID,
		Username:  from.UserName,
		FirstName: from.FirstName,
		LastName:  from.LastName,
		IsAdmin:   isAdmin,
	}
}

type callbackPayload struct {
	Action string
	Params map[string]string
}

func parseCallback(data string) (*callbackPayload, error) {
	if strings.TrimSpace(data) == "" {
		return nil, errors.New("empty callback")
	}
	parts := strings.Split(data, "|")
	payload := &callbackPayload{
		Action: parts[0],
		Params: map[string]string{},
	}
	for _, part := range parts[1:] {
		if part == "" {
			continue
		}
		kv := strings.SplitN(part, "=", 2)
		if len(kv) != 2 {
			continue
		}
		payload.Params[kv[0]] = kv[1]
	}
	return payload, nil
}

func escape(s string) string {
	replacer := strings.NewReplacer(
		"_", "\\_",
		"*", "\\*",
		"`", "\\`",
		"[", "\\[",
	)
	return replacer.Replace(s)
}

func truncateLabel(label string, max int) string {
	runes := []rune(label)
	if len(runes) <= max {
		return label
	}
	if max <= 3 {
		return string(runes[:max])
	}
	return string(runes[:max-3]) + "..."
}
