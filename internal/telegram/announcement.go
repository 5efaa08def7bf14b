package telegram

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/octagonbets/ppv-bot/internal/announce"
)

const announcementIntro = "📢 *Создание объявления*\n\n" +
	"Пришлите мне сообщение, которое нужно разослать всем пользователям:\n" +
	"✅ *Поддерживается:*\n" +
	"• Текст\n" +
	"• Фото/группа фото (альбом)\n" +
	"• Видео\n" +
	"• Файл\n" +
	"• Аудио, голосовые\n" +
	"• Стикеры, GIF\n" +
	"• Опрос\n\n" +
	"❌ *Не поддерживается:*\n" +
	"• Геолокация\n" +
	"• Контакты\n" +
	"• Визитки\n\n" +
	"Для отмены напишите /cancel"

const unsupportedContentText = "❌ *Этот тип контента не поддерживается для рассылки!*\n\n" +
	"Поддерживаются: текст, фото/группы фото, видео, документы, аудио, " +
	"голосовые, видеосообщения, стикеры, GIF, опросы.\n\n" +
	"НЕ поддерживаются: геолокация, контакты, визитки.\n\n" +
	"Попробуйте отправить другой тип контента или напишите /cancel"

func (b *Bot) startAnnouncement(ctx context.Context, chatID, adminID int64) error {
	b.albums.Discard(adminID)
	state := &wizardState{Flow: flowAnnouncement, Step: stepAwaitingContent}
	if err := b.saveSession(ctx, adminID, state); err != nil {
		return err
	}
	b.logger.Info("start_announcement", "announcement", "", adminID, "awaiting_content")
	markup := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("⬅️ Назад", cbAnnCancel)),
	)
	b.sendWithMarkup(chatID, announcementIntro, markup)
	return nil
}

func (b *Bot) advanceAnnouncement(ctx context.Context, msg *tgbotapi.Message, state *wizardState) error {
	chatID := msg.Chat.ID
	adminID := msg.From.ID

	if state.Step != stepAwaitingContent {
		b.sendSimple(chatID, "Подтвердите или отмените рассылку кнопками под предпросмотром.")
		return nil
	}

	item, err := announce.FromMessage(msg)
	if errors.Is(err, announce.ErrUnsupported) {
		b.sendSimple(chatID, unsupportedContentText)
		return nil
	}
	if err != nil {
		return err
	}

	if item.MediaGroupID != "" {
		if !item.Kind.Groupable() {
			b.sendSimple(chatID, unsupportedContentText)
			return nil
		}
		if b.albums.Add(adminID, item, b.timeNow()) {
			b.sendSimple(chatID, "⏳ Собираю альбом...")
		}
		return nil
	}

	ann := announce.Single(item)
	return b.awaitConfirmation(ctx, chatID, adminID, state, ann)
}

func (b *Bot) awaitConfirmation(ctx context.Context, chatID, adminID int64, state *wizardState, ann announce.Announcement) error {
	state.Step = stepAwaitingConfirmation
	state.Announcement = &ann
	if err := b.saveSession(ctx, adminID, state); err != nil {
		return err
	}
	b.sendPreview(chatID, ann)
	return nil
}

func (b *Bot) sendPreview(chatID int64, ann announce.Announcement) {
	kind := ann.Title()
	if ann.IsAlbum() {
		kind += " (группа медиа)"
	}
	text := fmt.Sprintf("📋 *Предпросмотр объявления:*\n\n%s\n\n*Тип:* %s\n*Количество медиа:* %d\n*Отправить всем пользователям?*",
		escape(ann.Preview()), kind, len(ann.Items))
	markup := tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("✅ Разослать всем", cbAnnConfirm),
		tgbotapi.NewInlineKeyboardButtonData("❌ Отменить", cbAnnCancel),
	))
	b.sendWithMarkup(chatID, text, markup)
}

// FlushAlbums turns media groups that went quiet into announcement previews.
func (b *Bot) FlushAlbums(ctx context.Context) error {
	if b.albums.Pending() == 0 {
		return nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, album := range b.albums.Sweep(b.timeNow()) {
		state := &wizardState{}
		stored, err := b.svc.Sessions.Load(ctx, album.AdminID, state)
		if err != nil {
			return err
		}
		if stored == nil || state.Flow != flowAnnouncement || state.Step != stepAwaitingContent {
			b.logger.Warn("flush_album", "announcement", album.MediaGroupID, album.AdminID, "no announcement awaiting content")
			continue
		}
		b.logger.Info("flush_album", "announcement", album.MediaGroupID, album.AdminID, strconv.Itoa(len(album.Announcement.Items)))
		if err := b.awaitConfirmation(ctx, album.ChatID, album.AdminID, state, album.Announcement); err != nil {
			return err
		}
	}
	return nil
}

func (b *Bot) confirmAnnouncement(ctx context.Context, cb *tgbotapi.CallbackQuery) error {
	chatID := cb.Message.Chat.ID
	adminID := cb.From.ID

	state := &wizardState{}
	stored, err := b.svc.Sessions.Load(ctx, adminID, state)
	if err != nil {
		b.answer(cb.ID, "")
		return err
	}
	if stored == nil || state.Flow != flowAnnouncement || state.Step != stepAwaitingConfirmation ||
		state.Announcement == nil || state.Announcement.Empty() {
		b.alert(cb.ID, "❌ Ошибка: данные объявления не найдены")
		if err := b.resetFlow(ctx, adminID); err != nil {
			return err
		}
		return b.sendAdminPanel(ctx, chatID)
	}
	b.answer(cb.ID, "")

	ann := *state.Announcement
	// Leave the confirmation step before delivering so a second press cannot start another run.
	if err := b.svc.Sessions.Clear(ctx, adminID); err != nil {
		return err
	}
	b.sendSimple(chatID, "🔄 Рассылка объявления...")

	report, err := b.svc.Broadcast.Broadcast(ctx, adminID, func(ctx context.Context, userID int64) error {
		delivery, err := ann.Delivery(userID)
		if err != nil {
			return err
		}
		_, err = b.api.Request(delivery)
		return err
	})
	if err != nil {
		b.logger.Error(err, "broadcast", "announcement", "", adminID)
	}

	b.sendSimple(chatID, broadcastSummary(report.Total, report.Successful, report.Failed, ann.Title()))
	return b.sendAdminPanel(ctx, chatID)
}

func broadcastSummary(total, successful, failed int, kind string) string {
	var status string
	switch {
	case successful == 0:
		status = "❌ Никому не удалось отправить"
	case failed == 0:
		status = fmt.Sprintf("✅ Отправлено всем %d пользователям", successful)
	default:
		status = fmt.Sprintf("⚠️ Отправлено %d/%d", successful, total)
	}
	return fmt.Sprintf("✅ *Рассылка объявления завершена!*\n\n"+
		"📊 *Статистика:*\n"+
		"• Всего пользователей: %d\n"+
		"• Успешно отправлено: %d ✅\n"+
		"• Ошибок отправки: %d ❌\n"+
		"• Тип: %s\n\n%s", total, successful, failed, kind, status)
}

func (b *Bot) cancelAnnouncement(ctx context.Context, chatID, adminID int64) error {
	if err := b.resetFlow(ctx, adminID); err != nil {
		return err
	}
	b.logger.Info("cancel_announcement", "announcement", "", adminID, "cancelled")
	b.sendSimple(chatID, "❌ Создание объявления отменено")
	return b.sendAdminPanel(ctx, chatID)
}
