package announce

import (
	"errors"
	"strings"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func adminMessage(id int) *tgbotapi.Message {
	return &tgbotapi.Message{MessageID: id, Chat: &tgbotapi.Chat{ID: 100}}
}

func TestFromMessageKinds(t *testing.T) {
	cases := []struct {
		name   string
		fill   func(m *tgbotapi.Message)
		kind   Kind
		fileID string
	}{
		{name: "text", fill: func(m *tgbotapi.Message) { m.Text = "UFC 300 уже в субботу" }, kind: KindText},
		{name: "photo takes largest size", fill: func(m *tgbotapi.Message) {
			m.Photo = []tgbotapi.PhotoSize{{FileID: "small"}, {FileID: "large"}}
		}, kind: KindPhoto, fileID: "large"},
		{name: "video", fill: func(m *tgbotapi.Message) { m.Video = &tgbotapi.Video{FileID: "v"} }, kind: KindVideo, fileID: "v"},
		{name: "animation wins over document", fill: func(m *tgbotapi.Message) {
			m.Animation = &tgbotapi.Animation{FileID: "gif"}
			m.Document = &tgbotapi.Document{FileID: "gif"}
		}, kind: KindAnimation, fileID: "gif"},
		{name: "document", fill: func(m *tgbotapi.Message) { m.Document = &tgbotapi.Document{FileID: "d"} }, kind: KindDocument, fileID: "d"},
		{name: "audio", fill: func(m *tgbotapi.Message) { m.Audio = &tgbotapi.Audio{FileID: "a"} }, kind: KindAudio, fileID: "a"},
		{name: "voice", fill: func(m *tgbotapi.Message) { m.Voice = &tgbotapi.Voice{FileID: "vc"} }, kind: KindVoice, fileID: "vc"},
		{name: "video note", fill: func(m *tgbotapi.Message) { m.VideoNote = &tgbotapi.VideoNote{FileID: "vn"} }, kind: KindVideoNote, fileID: "vn"},
		{name: "sticker", fill: func(m *tgbotapi.Message) { m.Sticker = &tgbotapi.Sticker{FileID: "s"} }, kind: KindSticker, fileID: "s"},
		{name: "poll", fill: func(m *tgbotapi.Message) { m.Poll = &tgbotapi.Poll{Question: "Кто победит?"} }, kind: KindPoll},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			msg := adminMessage(1)
			tc.fill(msg)
			item, err := FromMessage(msg)
			require.NoError(t, err)
			assert.Equal(t, tc.kind, item.Kind)
			assert.Equal(t, tc.fileID, item.FileID)
			assert.Equal(t, int64(100), item.ChatID)
		})
	}
}

func TestFromMessageUnsupported(t *testing.T) {
	cases := map[string]func(m *tgbotapi.Message){
		"location": func(m *tgbotapi.Message) { m.Location = &tgbotapi.Location{Latitude: 36.1, Longitude: -115.1} },
		"contact":  func(m *tgbotapi.Message) { m.Contact = &tgbotapi.Contact{PhoneNumber: "+100"} },
		"venue":    func(m *tgbotapi.Message) { m.Venue = &tgbotapi.Venue{Title: "T-Mobile Arena"} },
		"dice":     func(m *tgbotapi.Message) { m.Dice = &tgbotapi.Dice{Emoji: "🎲", Value: 3} },
		"empty":    func(*tgbotapi.Message) {},
	}
	for name, fill := range cases {
		t.Run(name, func(t *testing.T) {
			msg := adminMessage(1)
			fill(msg)
			_, err := FromMessage(msg)
			assert.True(t, errors.Is(err, ErrUnsupported))
		})
	}
}

func TestPreviewTruncation(t *testing.T) {
	long := strings.Repeat("б", 250)
	preview := Single(Item{Kind: KindText, Text: long}).Preview()
	assert.Equal(t, strings.Repeat("б", 200)+"...", preview)

	short := Single(Item{Kind: KindText, Text: "Коротко"}).Preview()
	assert.Equal(t, "Коротко", short)

	photo := Single(Item{Kind: KindPhoto, Caption: strings.Repeat("x", 150)}).Preview()
	assert.Equal(t, "🖼️ Фото\n"+strings.Repeat("x", 100)+"...", photo)

	bare := Single(Item{Kind: KindVideo}).Preview()
	assert.Equal(t, "🎥 Видео (без подписи)", bare)

	poll := Single(Item{Kind: KindPoll, PollQuestion: "Кто победит?"}).Preview()
	assert.Equal(t, "📊 Опрос: Кто победит?", poll)

	sticker := Single(Item{Kind: KindSticker}).Preview()
	assert.Equal(t, "📦 Стикер", sticker)
}

func TestAlbumPreviewAndOrder(t *testing.T) {
	album := Album([]Item{
		{Kind: KindVideo, MessageID: 12, FileID: "v"},
		{Kind: KindPhoto, MessageID: 10, FileID: "p1", Caption: "Взвешивание"},
		{Kind: KindPhoto, MessageID: 11, FileID: "p2"},
	})
	require.True(t, album.IsAlbum())
	assert.Equal(t, []int{10, 11, 12}, []int{album.Items[0].MessageID, album.Items[1].MessageID, album.Items[2].MessageID})
	assert.Equal(t, "📦 Группа медиа (Фото: 2, Видео: 1)\nВзвешивание", album.Preview())
	assert.Equal(t, "Группа медиа", album.Title())
}

func TestAlbumCapsAtTen(t *testing.T) {
	items := make([]Item, 0, 12)
	for i := 0; i < 12; i++ {
		items = append(items, Item{Kind: KindPhoto, MessageID: i, FileID: "p"})
	}
	assert.Len(t, Album(items).Items, 10)
}

func TestDelivery(t *testing.T) {
	single := Single(Item{Kind: KindText, ChatID: 100, MessageID: 5, Text: "hi"})
	c, err := single.Delivery(200)
	require.NoError(t, err)
	copyCfg, ok := c.(tgbotapi.CopyMessageConfig)
	require.True(t, ok)
	assert.Equal(t, int64(200), copyCfg.ChatID)
	assert.Equal(t, int64(100), copyCfg.FromChatID)
	assert.Equal(t, 5, copyCfg.MessageID)

	album := Album([]Item{
		{Kind: KindPhoto, MessageID: 1, FileID: "p1", Caption: "Face-off"},
		{Kind: KindVideo, MessageID: 2, FileID: "v1"},
	})
	c, err = album.Delivery(200)
	require.NoError(t, err)
	group, ok := c.(tgbotapi.MediaGroupConfig)
	require.True(t, ok)
	require.Len(t, group.Media, 2)
	photo, ok := group.Media[0].(tgbotapi.InputMediaPhoto)
	require.True(t, ok)
	assert.Equal(t, "Face-off", photo.Caption)

	_, err = Announcement{}.Delivery(200)
	assert.Error(t, err)
}

func TestAlbumCollectorSweep(t *testing.T) {
	collector := NewAlbumCollector(2 * time.Second)
	start := time.Date(2024, 4, 1, 10, 0, 0, 0, time.UTC)

	assert.True(t, collector.Add(1, Item{Kind: KindPhoto, ChatID: 1, MessageID: 1, MediaGroupID: "g1"}, start))
	assert.False(t, collector.Add(1, Item{Kind: KindPhoto, ChatID: 1, MessageID: 2, MediaGroupID: "g1"}, start.Add(time.Second)))

	assert.Empty(t, collector.Sweep(start.Add(2*time.Second)))

	done := collector.Sweep(start.Add(3 * time.Second))
	require.Len(t, done, 1)
	assert.Equal(t, int64(1), done[0].AdminID)
	assert.Equal(t, "g1", done[0].MediaGroupID)
	assert.Len(t, done[0].Announcement.Items, 2)
	assert.Zero(t, collector.Pending())
}

func TestAlbumCollectorDiscard(t *testing.T) {
	collector := NewAlbumCollector(0)
	now := time.Now()
	collector.Add(1, Item{Kind: KindPhoto, MediaGroupID: "a"}, now)
	collector.Add(2, Item{Kind: KindPhoto, MediaGroupID: "b"}, now)

	collector.Discard(1)
	assert.Equal(t, 1, collector.Pending())

	done := collector.Sweep(now.Add(DefaultAlbumQuiet))
	require.Len(t, done, 1)
	assert.Equal(t, int64(2), done[0].AdminID)
}
