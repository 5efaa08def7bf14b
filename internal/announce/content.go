// Package announce classifies admin messages for broadcasting and rebuilds them for delivery.
package announce

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// ErrUnsupported is returned for messages that cannot be rebroadcast (location, contact, venue, ...).
var ErrUnsupported = errors.New("unsupported content")

const (
	textPreviewLimit    = 200
	captionPreviewLimit = 100
	// Telegram accepts at most ten items in one media group.
	maxAlbumItems = 10
)

type Kind string

const (
	KindText      Kind = "text"
	KindPhoto     Kind = "photo"
	KindVideo     Kind = "video"
	KindDocument  Kind = "document"
	KindAudio     Kind = "audio"
	KindVoice     Kind = "voice"
	KindVideoNote Kind = "video_note"
	KindSticker   Kind = "sticker"
	KindAnimation Kind = "animation"
	KindPoll      Kind = "poll"
)

// Title is the Russian name shown in previews and reports.
func (k Kind) Title() string {
	switch k {
	case KindText:
		return "Текст"
	case KindPhoto:
		return "Фото"
	case KindVideo:
		return "Видео"
	case KindDocument:
		return "Документ"
	case KindAudio:
		return "Аудио"
	case KindVoice:
		return "Голосовое"
	case KindVideoNote:
		return "Видеосообщение"
	case KindSticker:
		return "Стикер"
	case KindAnimation:
		return "GIF"
	case KindPoll:
		return "Опрос"
	default:
		return "Неизвестный"
	}
}

// Groupable reports whether the kind may be part of a media group.
func (k Kind) Groupable() bool {
	switch k {
	case KindPhoto, KindVideo, KindDocument, KindAudio:
		return true
	default:
		return false
	}
}

// Item is one source message of an announcement.
type Item struct {
	Kind         Kind   `json:"kind"`
	ChatID       int64  `json:"chat_id"`
	MessageID    int    `json:"message_id"`
	Text         string `json:"text,omitempty"`
	Caption      string `json:"caption,omitempty"`
	FileID       string `json:"file_id,omitempty"`
	PollQuestion string `json:"poll_question,omitempty"`
	MediaGroupID string `json:"media_group_id,omitempty"`
}

// FromMessage classifies an incoming message.
func FromMessage(msg *tgbotapi.Message) (Item, error) {
	if msg == nil || msg.Chat == nil {
		return Item{}, ErrUnsupported
	}
	item := Item{
		ChatID:       msg.Chat.ID,
		MessageID:    msg.MessageID,
		Caption:      msg.Caption,
		MediaGroupID: msg.MediaGroupID,
	}
	switch {
	case len(msg.Photo) > 0:
		item.Kind = KindPhoto
		item.FileID = msg.Photo[len(msg.Photo)-1].FileID
	case msg.Video != nil:
		item.Kind = KindVideo
		item.FileID = msg.Video.FileID
	// Telegram also fills Document for animations.
	case msg.Animation != nil:
		item.Kind = KindAnimation
		item.FileID = msg.Animation.FileID
	case msg.Document != nil:
		item.Kind = KindDocument
		item.FileID = msg.Document.FileID
	case msg.Audio != nil:
		item.Kind = KindAudio
		item.FileID = msg.Audio.FileID
	case msg.Voice != nil:
		item.Kind = KindVoice
		item.FileID = msg.Voice.FileID
	case msg.VideoNote != nil:
		item.Kind = KindVideoNote
		item.FileID = msg.VideoNote.FileID
	case msg.Sticker != nil:
		item.Kind = KindSticker
		item.FileID = msg.Sticker.FileID
	case msg.Poll != nil:
		item.Kind = KindPoll
		item.PollQuestion = msg.Poll.Question
	case msg.Location != nil, msg.Venue != nil, msg.Contact != nil, msg.Dice != nil:
		return Item{}, ErrUnsupported
	case msg.Text != "":
		item.Kind = KindText
		item.Text = msg.Text
	default:
		return Item{}, ErrUnsupported
	}
	return item, nil
}

// Announcement is either a single message or a completed album.
type Announcement struct {
	Items []Item `json:"items"`
}

func Single(item Item) Announcement {
	return Announcement{Items: []Item{item}}
}

// Album orders items by message id and keeps at most ten of them.
func Album(items []Item) Announcement {
	sorted := make([]Item, len(items))
	copy(sorted, items)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].MessageID < sorted[j].MessageID })
	if len(sorted) > maxAlbumItems {
		sorted = sorted[:maxAlbumItems]
	}
	return Announcement{Items: sorted}
}

func (a Announcement) Empty() bool {
	return len(a.Items) == 0
}

func (a Announcement) IsAlbum() bool {
	return len(a.Items) > 1
}

// Title names the announcement type for the preview and the final report.
func (a Announcement) Title() string {
	if a.IsAlbum() {
		return "Группа медиа"
	}
	if a.Empty() {
		return Kind("").Title()
	}
	return a.Items[0].Kind.Title()
}

// Preview renders plain text; callers escape it for their parse mode.
func (a Announcement) Preview() string {
	if a.Empty() {
		return ""
	}
	if a.IsAlbum() {
		return a.albumPreview()
	}

	item := a.Items[0]
	switch item.Kind {
	case KindText:
		return truncate(item.Text, textPreviewLimit)
	case KindPhoto, KindVideo:
		icon := "🖼️"
		if item.Kind == KindVideo {
			icon = "🎥"
		}
		if item.Caption == "" {
			return fmt.Sprintf("%s %s (без подписи)", icon, item.Kind.Title())
		}
		return fmt.Sprintf("%s %s\n%s", icon, item.Kind.Title(), truncate(item.Caption, captionPreviewLimit))
	case KindPoll:
		question := item.PollQuestion
		if question == "" {
			question = "Без вопроса"
		}
		return "📊 Опрос: " + question
	default:
		return "📦 " + item.Kind.Title()
	}
}

func (a Announcement) albumPreview() string {
	counts := make(map[Kind]int)
	var order []Kind
	caption := ""
	for _, item := range a.Items {
		if counts[item.Kind] == 0 {
			order = append(order, item.Kind)
		}
		counts[item.Kind]++
		if caption == "" {
			caption = item.Caption
		}
	}
	parts := make([]string, 0, len(order))
	for _, kind := range order {
		parts = append(parts, fmt.Sprintf("%s: %d", kind.Title(), counts[kind]))
	}
	out := fmt.Sprintf("📦 Группа медиа (%s)", strings.Join(parts, ", "))
	if caption != "" {
		out += "\n" + truncate(caption, captionPreviewLimit)
	}
	return out
}

// Delivery builds the request that re-sends the announcement to chatID. Singles are copied, albums are
// rebuilt from file ids with the first caption kept.
func (a Announcement) Delivery(chatID int64) (tgbotapi.Chattable, error) {
	if a.Empty() {
		return nil, errors.New("empty announcement")
	}
	if !a.IsAlbum() {
		item := a.Items[0]
		return tgbotapi.NewCopyMessage(chatID, item.ChatID, item.MessageID), nil
	}

	media := make([]interface{}, 0, len(a.Items))
	for i, item := range a.Items {
		file := tgbotapi.FileID(item.FileID)
		caption := ""
		if i == 0 {
			caption = item.Caption
		}
		switch item.Kind {
		case KindPhoto:
			m := tgbotapi.NewInputMediaPhoto(file)
			m.Caption = caption
			media = append(media, m)
		case KindVideo:
			m := tgbotapi.NewInputMediaVideo(file)
			m.Caption = caption
			media = append(media, m)
		case KindDocument:
			m := tgbotapi.NewInputMediaDocument(file)
			m.Caption = caption
			media = append(media, m)
		case KindAudio:
			m := tgbotapi.NewInputMediaAudio(file)
			m.Caption = caption
			media = append(media, m)
		default:
			return nil, fmt.Errorf("%s in album: %w", item.Kind, ErrUnsupported)
		}
	}
	return tgbotapi.NewMediaGroup(chatID, media), nil
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}
