package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/octagonbets/ppv-bot/internal/models"
)

const eventButtonMax = 64

func (b *Bot) handleAdminCallback(ctx context.Context, cb *tgbotapi.CallbackQuery, payload *callbackPayload) (bool, error) {
	chatID := cb.Message.Chat.ID
	adminID := cb.From.ID

	switch payload.Action {
	case cbNewPPV:
		return true, b.showUpcomingEvents(ctx, cb)
	case cbSelectPPV:
		b.answer(cb.ID, "🔄 Загружаем информацию о боях...")
		return true, b.showEventCard(ctx, chatID, payload.Params["id"])
	case cbConfirmPPV:
		return true, b.confirmEvent(ctx, cb, payload.Params["id"])
	case cbSetOdds:
		return true, b.startOddsWizard(ctx, cb)
	case cbToggleBets:
		return true, b.toggleBets(ctx, cb)
	case cbFinishPPV:
		return true, b.closeTournament(ctx, cb, models.TournamentStatusFinished)
	case cbCancelPPV:
		return true, b.closeTournament(ctx, cb, models.TournamentStatusCancelled)
	case cbStats:
		b.answer(cb.ID, "")
		return true, b.showStats(ctx, chatID)
	case cbAnnouncement:
		b.answer(cb.ID, "")
		return true, b.startAnnouncement(ctx, chatID, adminID)
	case cbAnnConfirm:
		return true, b.confirmAnnouncement(ctx, cb)
	case cbAnnCancel:
		b.answer(cb.ID, "")
		return true, b.cancelAnnouncement(ctx, chatID, adminID)
	case cbExit:
		b.answer(cb.ID, "")
		if err := b.resetFlow(ctx, adminID); err != nil {
			return true, err
		}
		b.logger.Info("exit_admin_panel", "admin", "", adminID, "ok")
		name := escape(userFromTelegram(cb.From, true).DisplayName())
		b.sendWithMarkup(chatID, fmt.Sprintf("👋 Вы вышли из админ-панели, %s!\n\nВыберите действие:", name), mainMenu())
		return true, nil
	case cbBack:
		b.answer(cb.ID, "")
		return true, b.sendAdminPanel(ctx, chatID)
	default:
		return false, nil
	}
}

func (b *Bot) sendAdminPanel(ctx context.Context, chatID int64) error {
	current, err := b.svc.Tournaments.Current(ctx)
	if err != nil {
		b.sendFailure(chatID, err, "admin_panel")
		return nil
	}
	b.sendWithMarkup(chatID, adminPanelText(current), adminMenu(current))
	return nil
}

func adminPanelText(current *models.Tournament) string {
	info := "\n\nℹ️ *Нет активного PPV турнира*"
	if current.IsActive() {
		bets := "✅ Открыты"
		if !current.BetsOpen {
			bets = "❌ Закрыты"
		}
		odds := "не выставлены"
		if current.HasOdds {
			odds = "выставлены"
		}
		info = fmt.Sprintf("\n\n🏆 *Текущий PPV:*\n%s\n📅 %s\n📍 %s\n🥊 Боев: %d\n📊 Ставки: %s\n💰 Коэффициенты: %s",
			escape(current.Name), escape(current.Date), escape(current.Location), len(current.Fights), bets, odds)
	}
	return "🔧 *Админ-панель*" + info + "\n\nВыберите действие:"
}

func adminMenu(current *models.Tournament) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	if current.IsActive() {
		toggle := "🔒 Закрыть ставки"
		if !current.BetsOpen {
			toggle = "🔓 Открыть ставки"
		}
		rows = append(rows,
			tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("📊 Ввести/изменить коэффициенты", cbSetOdds)),
			tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData(toggle, cbToggleBets)),
			tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("🛑 Завершить текущий PPV", cbFinishPPV)),
			tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("🗑️ Отменить PPV", cbCancelPPV)),
		)
	} else {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("➕ Новый PPV", cbNewPPV)))
	}
	rows = append(rows,
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("📈 Статистика", cbStats)),
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("📢 Объявление", cbAnnouncement)),
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("🚪 Выход", cbExit)),
	)
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func backRow() []tgbotapi.InlineKeyboardButton {
	return tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("⬅️ Назад", cbBack))
}

// ----------------------------------------------------------------------------
// PPV selection

func (b *Bot) showUpcomingEvents(ctx context.Context, cb *tgbotapi.CallbackQuery) error {
	chatID := cb.Message.Chat.ID
	current, err := b.svc.Tournaments.Current(ctx)
	if err != nil {
		b.answer(cb.ID, "")
		b.sendFailure(chatID, err, "new_ppv")
		return nil
	}
	if current.IsActive() {
		b.alert(cb.ID, "❌ Уже есть активный PPV. Завершите или отмените его, чтобы выбрать новый.")
		return nil
	}
	b.answer(cb.ID, "🔄 Ищу предстоящие турниры...")

	events := b.svc.Events.ListUpcomingEvents(ctx)
	if len(events) == 0 {
		b.sendSimple(chatID, "❌ Не удалось найти предстоящие UFC турниры.\nПроверьте подключение к интернету или попробуйте позже.")
		return nil
	}

	var sb strings.Builder
	sb.WriteString("🏆 *Найдены турниры:*\n\n")
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(events)+1)
	for i, ev := range events {
		fmt.Fprintf(&sb, "%d. *%s*\n   📅 %s\n   📍 %s\n\n", i+1, escape(ev.Name), escape(ev.Date), escape(ev.Location))
		label := truncateLabel(fmt.Sprintf("%d. %s", i+1, ev.Name), eventButtonMax)
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label, fmt.Sprintf("%s|id=%s", cbSelectPPV, ev.ID)),
		))
	}
	sb.WriteString("👇 Выберите турнир для создания PPV:")
	rows = append(rows, backRow())

	b.sendWithMarkup(chatID, sb.String(), tgbotapi.NewInlineKeyboardMarkup(rows...))
	return nil
}

func (b *Bot) showEventCard(ctx context.Context, chatID int64, eventID string) error {
	event := b.svc.Events.GetEvent(ctx, eventID)
	if event == nil {
		b.sendSimple(chatID, "❌ Не удалось найти информацию о выбранном турнире.\nВозможно, данные устарели или турнир отменён.")
		return nil
	}
	fights := b.svc.Events.GetEventFights(ctx, eventID)

	var sb strings.Builder
	fmt.Fprintf(&sb, "🏆 *%s*\n📅 %s\n📍 %s\n\n", escape(event.Name), escape(event.Date), escape(event.Location))
	if len(fights) > 0 {
		sb.WriteString("🥊 *Кард боев (от главного к предварительным):*\n\n")
		sb.WriteString(renderFights(fights))
	} else {
		sb.WriteString("ℹ️ Информация о боях пока не доступна. Кард будет объявлен позже.\n")
	}
	sb.WriteString("\n👇 Выберите действие:")

	markup := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("✅ Выбрать турнир", fmt.Sprintf("%s|id=%s", cbConfirmPPV, event.ID))),
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("⬅️ Назад", cbNewPPV)),
	)
	b.sendWithMarkup(chatID, sb.String(), markup)
	return nil
}

func (b *Bot) confirmEvent(ctx context.Context, cb *tgbotapi.CallbackQuery, eventID string) error {
	chatID := cb.Message.Chat.ID
	event := b.svc.Events.GetEvent(ctx, eventID)
	if event == nil {
		b.alert(cb.ID, "❌ Не удалось загрузить информацию о турнире")
		return nil
	}
	fights := b.svc.Events.GetEventFights(ctx, eventID)

	t, err := b.svc.Tournaments.Confirm(ctx, *event, fights)
	if err != nil {
		b.alert(cb.ID, "❌ Не удалось сохранить турнир")
		b.logger.Error(err, "confirm_ppv", "tournament", eventID, cb.From.ID)
		return nil
	}
	if err := b.resetFlow(ctx, cb.From.ID); err != nil {
		b.logger.Error(err, "reset_flow", "session", eventID, cb.From.ID)
	}
	b.answer(cb.ID, "✅ Турнир выбран!")
	b.logger.Info("confirm_ppv", "tournament", t.ID, cb.From.ID, "active")

	b.sendSimple(chatID, fmt.Sprintf("✅ Турнир выбран: *%s*\nТеперь пользователи могут делать ставки на бои этого турнира.", escape(t.Name)))
	return b.sendAdminPanel(ctx, chatID)
}

// ----------------------------------------------------------------------------
// Tournament management

func (b *Bot) toggleBets(ctx context.Context, cb *tgbotapi.CallbackQuery) error {
	chatID := cb.Message.Chat.ID
	current, err := b.svc.Tournaments.Current(ctx)
	if err != nil {
		b.answer(cb.ID, "")
		b.sendFailure(chatID, err, "toggle_bets")
		return nil
	}
	if current == nil {
		b.alert(cb.ID, "❌ Нет активного турнира")
		return nil
	}

	updated, err := b.svc.Tournaments.SetBetsOpen(ctx, !current.BetsOpen)
	if err != nil {
		b.answer(cb.ID, "")
		b.sendFailure(chatID, err, "toggle_bets")
		return nil
	}
	status := "closed"
	text := "🔒 Приём ставок закрыт"
	if updated.BetsOpen {
		status = "open"
		text = "🔓 Приём ставок открыт"
	}
	b.answer(cb.ID, text)
	b.logger.Info("toggle_bets", "tournament", updated.ID, cb.From.ID, status)
	return b.sendAdminPanel(ctx, chatID)
}

func (b *Bot) closeTournament(ctx context.Context, cb *tgbotapi.CallbackQuery, status models.TournamentStatus) error {
	chatID := cb.Message.Chat.ID
	var (
		closed *models.Tournament
		err    error
	)
	if status == models.TournamentStatusFinished {
		closed, err = b.svc.Tournaments.Finish(ctx)
	} else {
		closed, err = b.svc.Tournaments.Cancel(ctx)
	}
	switch {
	case errors.Is(err, models.ErrNotFound):
		b.alert(cb.ID, "❌ Нет активного турнира")
		return nil
	case err != nil:
		b.answer(cb.ID, "")
		b.sendFailure(chatID, err, "close_ppv")
		return nil
	}
	if err := b.resetFlow(ctx, cb.From.ID); err != nil {
		b.logger.Error(err, "reset_flow", "session", closed.ID, cb.From.ID)
	}
	b.answer(cb.ID, "")
	b.logger.Info("close_ppv", "tournament", closed.ID, cb.From.ID, string(status))

	text := fmt.Sprintf("🏁 Турнир *%s* завершён. Приём ставок закрыт.", escape(closed.Name))
	if status == models.TournamentStatusCancelled {
		text = fmt.Sprintf("🗑️ Турнир *%s* отменён.", escape(closed.Name))
	}
	b.sendSimple(chatID, text)
	return b.sendAdminPanel(ctx, chatID)
}

func (b *Bot) showStats(ctx context.Context, chatID int64) error {
	total, err := b.svc.Users.Count(ctx)
	if err != nil {
		b.sendFailure(chatID, err, "admin_stats")
		return nil
	}
	active, err := b.svc.Users.CountActive(ctx)
	if err != nil {
		b.sendFailure(chatID, err, "admin_stats")
		return nil
	}
	finished, err := b.svc.Tournaments.Archive(ctx)
	if err != nil {
		b.sendFailure(chatID, err, "admin_stats")
		return nil
	}
	current, err := b.svc.Tournaments.Current(ctx)
	if err != nil {
		b.sendFailure(chatID, err, "admin_stats")
		return nil
	}

	var sb strings.Builder
	sb.WriteString("📈 *Статистика*\n\n")
	fmt.Fprintf(&sb, "👥 Всего пользователей: %d\n", total)
	fmt.Fprintf(&sb, "🟢 Активных за 30 дней: %d\n", active)
	fmt.Fprintf(&sb, "📚 Завершённых турниров: %d\n", len(finished))
	if current.IsActive() {
		odds := "❌ не выставлены"
		if current.HasOdds {
			odds = "✅ выставлены"
		}
		fmt.Fprintf(&sb, "\n🏆 Текущий PPV: %s\n💰 Коэффициенты: %s", escape(current.Name), odds)
	} else {
		sb.WriteString("\nℹ️ Активного PPV нет")
	}

	b.sendWithMarkup(chatID, sb.String(), tgbotapi.NewInlineKeyboardMarkup(backRow()))
	return nil
}
