package service

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/octagonbets/ppv-bot/internal/repository"
	"github.com/octagonbets/ppv-bot/internal/repository/sqlite"
	"github.com/octagonbets/ppv-bot/internal/snapshot"
)

type recordingLogger struct {
	mu     sync.Mutex
	errors []string
}

func (l *recordingLogger) Info(string, string, string, int64, string) {}

func (l *recordingLogger) Warn(string, string, string, int64, string) {}

func (l *recordingLogger) Error(_ error, action string, _ string, _ string, _ int64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errors = append(l.errors, action)
}

func (l *recordingLogger) errorCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.errors)
}

type storeFixture struct {
	tournaments repository.TournamentsRepository
	users       repository.UsersRepository
	docs        *snapshot.FileStore
	docPath     string
}

func newStoreFixture(t *testing.T) storeFixture {
	t.Helper()
	dir := t.TempDir()

	db, err := sqlite.Open(context.Background(), filepath.Join(dir, "ufc_bot_test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	docPath := filepath.Join(dir, "current_tournament.json")
	docs, err := snapshot.NewFileStore(docPath)
	require.NoError(t, err)

	return storeFixture{
		tournaments: sqlite.NewTournamentsRepo(db),
		users:       sqlite.NewUsersRepo(db),
		docs:        docs,
		docPath:     docPath,
	}
}
