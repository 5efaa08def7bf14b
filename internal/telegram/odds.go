package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/octagonbets/ppv-bot/internal/models"
	"github.com/octagonbets/ppv-bot/internal/service"
)

func (b *Bot) startOddsWizard(ctx context.Context, cb *tgbotapi.CallbackQuery) error {
	chatID := cb.Message.Chat.ID
	current, err := b.svc.Tournaments.Current(ctx)
	if err != nil {
		b.answer(cb.ID, "")
		b.sendFailure(chatID, err, "start_odds")
		return nil
	}
	if current == nil {
		b.alert(cb.ID, "❌ Нет активного турнира")
		return nil
	}
	if len(current.Fights) == 0 {
		b.alert(cb.ID, "❌ В турнире нет боёв, коэффициенты выставить нельзя")
		return nil
	}
	b.answer(cb.ID, "")

	b.albums.Discard(cb.From.ID)
	state := &wizardState{Flow: flowSetOdds, Data: map[string]string{"tournament_id": current.ID}}
	if err := b.saveSession(ctx, cb.From.ID, state); err != nil {
		return err
	}
	b.sendSimple(chatID, oddsPrompt(current))
	return nil
}

func (b *Bot) advanceOddsWizard(ctx context.Context, msg *tgbotapi.Message, state *wizardState) error {
	chatID := msg.Chat.ID
	adminID := msg.From.ID

	current, err := b.svc.Tournaments.Current(ctx)
	if err != nil {
		b.sendFailure(chatID, err, "set_odds")
		return nil
	}
	if current == nil || current.ID != state.Data["tournament_id"] {
		b.logger.Warn("set_odds", "tournament", state.Data["tournament_id"], adminID, "tournament changed")
		b.sendSimple(chatID, "❌ Турнир изменился. Ввод коэффициентов отменён.")
		if err := b.svc.Sessions.Clear(ctx, adminID); err != nil {
			return err
		}
		return b.sendAdminPanel(ctx, chatID)
	}

	updated, err := b.svc.Tournaments.SetOdds(ctx, msg.Text)
	var parseErr *service.ParseError
	switch {
	case errors.As(err, &parseErr):
		// The wizard stays open until valid input or /cancel.
		b.sendSimple(chatID, fmt.Sprintf("❌ %s\n\nФормат строки: `%s`\nОтправьте коэффициенты ещё раз или /cancel.",
			escape(parseErr.Error()), service.OddsLinePattern))
		return nil
	case errors.Is(err, models.ErrNotFound):
		b.sendSimple(chatID, "❌ Нет активного турнира. Ввод коэффициентов отменён.")
		return b.svc.Sessions.Clear(ctx, adminID)
	case errors.Is(err, models.ErrValidation):
		b.sendSimple(chatID, "❌ В турнире нет боёв. Ввод коэффициентов отменён.")
		return b.svc.Sessions.Clear(ctx, adminID)
	case err != nil:
		b.sendFailure(chatID, err, "set_odds")
		return nil
	}

	if err := b.svc.Sessions.Clear(ctx, adminID); err != nil {
		return err
	}
	b.logger.Info("set_odds", "tournament", updated.ID, adminID, "saved")
	b.sendSimple(chatID, "✅ Коэффициенты сохранены!\n\n"+renderTournament(updated))
	return b.sendAdminPanel(ctx, chatID)
}

func oddsPrompt(t *models.Tournament) string {
	var sb strings.Builder
	sb.WriteString("📊 *Ввод коэффициентов*\n\n")
	fmt.Fprintf(&sb, "Отправьте одним сообщением %d строк, по одной на бой, в формате:\n`%s`\n\n", len(t.Fights), service.OddsLinePattern)
	sb.WriteString("Бои:\n")
	for i, f := range t.Fights {
		fmt.Fprintf(&sb, "%d. %s vs %s\n", i+1, escape(f.Fighter1), escape(f.Fighter2))
	}
	sb.WriteString("\nПример:\n")
	for i := range t.Fights {
		if i == 2 {
			break
		}
		fmt.Fprintf(&sb, "%d. 1.85 2.10\n", i+1)
	}
	sb.WriteString("\nДля отмены напишите /cancel")
	return sb.String()
}
