package telegram

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/octagonbets/ppv-bot/internal/models"
	"github.com/octagonbets/ppv-bot/internal/service"
)

func mainMenu() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("Текущий турнир", cbCurrentTournament)),
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("Статистика", cbLeaderboard)),
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("История турниров", cbArchive)),
	)
}

func (b *Bot) handleStart(ctx context.Context, msg *tgbotapi.Message) error {
	user := userFromTelegram(msg.From, b.isAdmin(msg.From.ID))
	result, err := b.svc.Users.Upsert(ctx, user)
	if err != nil {
		b.sendFailure(msg.Chat.ID, err, "register_user")
		return nil
	}

	name := escape(user.DisplayName())
	var text string
	if result == service.UpsertNew {
		text = fmt.Sprintf("👋 Добро пожаловать, %s!\nЯ бот для ставок на UFC!", name)
		b.logger.Info("register_user", "user", user.Username, user.ID, "created")
	} else {
		text = fmt.Sprintf("👋 С возвращением, %s!", name)
		if stored, err := b.svc.Users.Get(ctx, user.ID); err == nil {
			text += fmt.Sprintf("\nВы с нами с %s.", stored.CreatedAt.Format("02.01.2006"))
		} else {
			b.logger.Error(err, "load_user", "user", user.Username, user.ID)
		}
	}
	b.sendWithMarkup(msg.Chat.ID, text+"\n\nВыберите действие:", mainMenu())
	return nil
}

func (b *Bot) showCurrentTournament(ctx context.Context, chatID int64) error {
	current, err := b.svc.Tournaments.Current(ctx)
	if err != nil {
		b.sendFailure(chatID, err, "show_current_tournament")
		return nil
	}
	if current == nil {
		b.sendSimple(chatID, "ℹ️ Сейчас нет активного турнира. Следите за объявлениями!")
		return nil
	}
	b.sendSimple(chatID, renderTournament(current))
	return nil
}

func (b *Bot) showLeaderboard(chatID int64) {
	b.sendSimple(chatID, "📊 *Статистика*\n\nТаблица лидеров появится после первых ставок.")
}

func (b *Bot) showArchive(ctx context.Context, chatID int64) error {
	finished, err := b.svc.Tournaments.Archive(ctx)
	if err != nil {
		b.sendFailure(chatID, err, "show_archive")
		return nil
	}
	if len(finished) == 0 {
		b.sendSimple(chatID, "📚 История турниров пока пуста.")
		return nil
	}

	var sb strings.Builder
	sb.WriteString("📚 *История турниров:*\n\n")
	for i, t := range finished {
		fmt.Fprintf(&sb, "%d. *%s*\n   📅 %s, 🥊 боёв: %d\n", i+1, escape(t.Name), escape(t.Date), len(t.Fights))
	}
	b.sendSimple(chatID, sb.String())
	return nil
}

// renderTournament formats a card with odds where they are set.
func renderTournament(t *models.Tournament) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "🏆 *%s*\n", escape(t.Name))
	fmt.Fprintf(&sb, "📅 %s\n", escape(t.Date))
	fmt.Fprintf(&sb, "📍 %s\n", escape(t.Location))
	if t.BetsOpen {
		sb.WriteString("📊 Ставки: ✅ Открыты\n\n")
	} else {
		sb.WriteString("📊 Ставки: ❌ Закрыты\n\n")
	}

	if len(t.Fights) == 0 {
		sb.WriteString("ℹ️ Информация о боях пока не доступна. Кард будет объявлен позже.")
		return sb.String()
	}
	sb.WriteString("🥊 *Кард боёв:*\n\n")
	sb.WriteString(renderFights(t.Fights))
	if !t.HasOdds {
		sb.WriteString("\nКоэффициенты ещё не выставлены.")
	}
	return sb.String()
}

func renderFights(fights []models.Fight) string {
	var sb strings.Builder
	for i, f := range fights {
		icon := "🥊"
		suffix := ""
		if f.Category == models.FightCategoryMain {
			icon = "👑"
			suffix = " (Главный кард)"
		}
		fmt.Fprintf(&sb, "%d. %s %s vs %s%s\n", i+1, icon, escape(f.Fighter1), escape(f.Fighter2), suffix)
		if f.Odds != nil {
			fmt.Fprintf(&sb, "   💰 %s / %s\n", f.Odds.Fighter1.StringFixed(2), f.Odds.Fighter2.StringFixed(2))
		}
	}
	return sb.String()
}
