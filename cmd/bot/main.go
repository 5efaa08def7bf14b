package main

import (
	"context"
	"errors"
	"log"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/octagonbets/ppv-bot/internal/announce"
	"github.com/octagonbets/ppv-bot/internal/config"
	"github.com/octagonbets/ppv-bot/internal/repository"
	"github.com/octagonbets/ppv-bot/internal/repository/pg"
	"github.com/octagonbets/ppv-bot/internal/repository/sqlite"
	"github.com/octagonbets/ppv-bot/internal/scheduler"
	"github.com/octagonbets/ppv-bot/internal/service"
	"github.com/octagonbets/ppv-bot/internal/session"
	"github.com/octagonbets/ppv-bot/internal/snapshot"
	"github.com/octagonbets/ppv-bot/internal/telegram"
	"github.com/octagonbets/ppv-bot/internal/ufcapi"
)

const (
	expiryInterval     = time.Hour
	albumFlushInterval = 500 * time.Millisecond
)

type repositories struct {
	users       repository.UsersRepository
	tournaments repository.TournamentsRepository
	sessions    repository.SessionsRepository
	close       func()
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	settings, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := config.NewLogger(settings.LogLevel)

	repos, err := openRepositories(ctx, settings)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer repos.close()

	docs, err := openSnapshotStore(ctx, settings)
	if err != nil {
		log.Fatalf("snapshot: %v", err)
	}

	usersSvc := service.NewUsersService(repos.users)
	tournamentsSvc := service.NewTournamentsService(repos.tournaments, docs, logger)
	broadcastSvc := service.NewBroadcastService(usersSvc, logger, service.BroadcastOptions{
		Workers: settings.BroadcastWorkers,
		Rate:    settings.BroadcastRate,
	})
	sessionSvc := service.NewSessionService(repos.sessions)
	sessionStore := session.NewStore(sessionSvc)

	botAPI, err := tgbotapi.NewBotAPI(settings.BotToken)
	if err != nil {
		log.Fatalf("telegram: %v", err)
	}
	botAPI.Debug = settings.Debug

	albums := announce.NewAlbumCollector(announce.DefaultAlbumQuiet)
	bot := telegram.NewBot(botAPI, settings.AdminID, telegram.Services{
		Users:       usersSvc,
		Tournaments: tournamentsSvc,
		Broadcast:   broadcastSvc,
		Sessions:    sessionStore,
		Events:      ufcapi.NewClient(settings.ESPNBaseURL, logger),
	}, albums, logger)

	if err := bot.RegisterCommands(); err != nil {
		logger.Error(err, "register_commands", "bot", botAPI.Self.UserName, 0)
	}

	jobs, err := scheduler.New(logger)
	if err != nil {
		log.Fatalf("scheduler: %v", err)
	}
	if err := jobs.Every(ctx, "expire_snapshot", expiryInterval, func(ctx context.Context) error {
		_, err := tournamentsSvc.ExpireStale(ctx)
		return err
	}); err != nil {
		log.Fatalf("scheduler: %v", err)
	}
	if err := jobs.Every(ctx, "flush_albums", albumFlushInterval, bot.FlushAlbums); err != nil {
		log.Fatalf("scheduler: %v", err)
	}
	jobs.Start()
	defer func() {
		if err := jobs.Shutdown(); err != nil {
			logger.Error(err, "shutdown", "scheduler", "", 0)
		}
	}()

	logger.Info("start", "bot", botAPI.Self.UserName, settings.AdminID, "running")
	if err := bot.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error(err, "run", "bot", botAPI.Self.UserName, 0)
	}
	botAPI.StopReceivingUpdates()
	logger.Info("stop", "bot", botAPI.Self.UserName, settings.AdminID, "stopped")
}

func openRepositories(ctx context.Context, settings *config.Settings) (*repositories, error) {
	if settings.DBDSN != "" {
		pool, err := pg.Connect(ctx, settings.DBDSN)
		if err != nil {
			return nil, err
		}
		return &repositories{
			users:       pg.NewUsersRepo(pool),
			tournaments: pg.NewTournamentsRepo(pool),
			sessions:    pg.NewSessionsRepo(pool),
			close:       pool.Close,
		}, nil
	}

	db, err := sqlite.Open(ctx, settings.SQLitePath())
	if err != nil {
		return nil, err
	}
	return &repositories{
		users:       sqlite.NewUsersRepo(db),
		tournaments: sqlite.NewTournamentsRepo(db),
		sessions:    sqlite.NewSessionsRepo(db),
		close:       func() { _ = db.Close() },
	}, nil
}

func openSnapshotStore(ctx context.Context, settings *config.Settings) (snapshot.Store, error) {
	if settings.Snapshot.UseS3() {
		s := settings.Snapshot
		return snapshot.NewS3Store(ctx, snapshot.S3Config{
			Bucket:    s.Bucket,
			Key:       s.Key,
			Region:    s.Region,
			Endpoint:  s.Endpoint,
			AccessKey: s.AccessKey,
			SecretKey: s.SecretKey,
		})
	}
	return snapshot.NewFileStore(settings.SnapshotPath())
}
