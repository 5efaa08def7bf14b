package announce

import (
	"sort"
	"sync"
	"time"
)

// DefaultAlbumQuiet is how long an album must stay silent before it counts as complete.
const DefaultAlbumQuiet = 2 * time.Second

// CompletedAlbum is a media group that stopped receiving items.
type CompletedAlbum struct {
	AdminID      int64
	ChatID       int64
	MediaGroupID string
	Announcement Announcement
}

type pendingAlbum struct {
	adminID  int64
	chatID   int64
	items    []Item
	lastSeen time.Time
}

// AlbumCollector accumulates media group items, which Telegram delivers as separate messages.
type AlbumCollector struct {
	mu     sync.Mutex
	quiet  time.Duration
	groups map[string]*pendingAlbum
}

func NewAlbumCollector(quiet time.Duration) *AlbumCollector {
	if quiet <= 0 {
		quiet = DefaultAlbumQuiet
	}
	return &AlbumCollector{
		quiet:  quiet,
		groups: make(map[string]*pendingAlbum),
	}
}

// Add buffers an item and reports whether it opened a new group.
func (c *AlbumCollector) Add(adminID int64, item Item, now time.Time) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	group, ok := c.groups[item.MediaGroupID]
	if !ok {
		group = &pendingAlbum{adminID: adminID, chatID: item.ChatID}
		c.groups[item.MediaGroupID] = group
	}
	group.items = append(group.items, item)
	group.lastSeen = now
	return !ok
}

// Sweep removes and returns every group idle for at least the quiet window.
func (c *AlbumCollector) Sweep(now time.Time) []CompletedAlbum {
	c.mu.Lock()
	defer c.mu.Unlock()

	var done []CompletedAlbum
	for id, group := range c.groups {
		if now.Sub(group.lastSeen) < c.quiet {
			continue
		}
		done = append(done, CompletedAlbum{
			AdminID:      group.adminID,
			ChatID:       group.chatID,
			MediaGroupID: id,
			Announcement: Album(group.items),
		})
		delete(c.groups, id)
	}
	sort.Slice(done, func(i, j int) bool { return done[i].MediaGroupID < done[j].MediaGroupID })
	return done
}

// Discard drops all pending groups of one admin.
func (c *AlbumCollector) Discard(adminID int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for id, group := range c.groups {
		if group.adminID == adminID {
			delete(c.groups, id)
		}
	}
}

func (c *AlbumCollector) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.groups)
}
