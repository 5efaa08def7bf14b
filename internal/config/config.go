package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	defaultDataDir      = "data"
	defaultESPNBaseURL  = "http://site.api.espn.com/apis/site/v2/sports/mma/ufc"
	defaultSnapshotKey  = "current_tournament.json"
	defaultBroadcastCap = 4
	defaultBroadcastRPS = 25
)

type Settings struct {
	BotToken string
	AdminID  int64
	Debug    bool
	LogLevel string

	DataDir string
	// DBDSN selects Postgres when set; otherwise SQLite under DataDir is used.
	DBDSN string

	ESPNBaseURL string

	BroadcastWorkers int
	BroadcastRate    float64

	Snapshot SnapshotSettings
}

type SnapshotSettings struct {
	Bucket    string
	Key       string
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
}

func (s SnapshotSettings) UseS3() bool {
	return s.Bucket != ""
}

// SQLitePath is the database file used when no DSN is configured.
func (s *Settings) SQLitePath() string {
	name := "ufc_bot.db"
	if s.Debug {
		name = "ufc_bot_test.db"
	}
	return filepath.Join(s.DataDir, name)
}

func (s *Settings) SnapshotPath() string {
	return filepath.Join(s.DataDir, "current_tournament.json")
}

func Load() (*Settings, error) {
	_ = godotenv.Load()

	set := &Settings{}
	set.BotToken = strings.TrimSpace(os.Getenv("BOT_TOKEN"))
	if set.BotToken == "" {
		return nil, fmt.Errorf("BOT_TOKEN is required")
	}

	adminRaw := strings.TrimSpace(os.Getenv("ADMIN_ID"))
	if adminRaw == "" {
		return nil, fmt.Errorf("ADMIN_ID is required")
	}
	adminID, err := strconv.ParseInt(adminRaw, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid ADMIN_ID %q: %w", adminRaw, err)
	}
	set.AdminID = adminID

	set.Debug = parseBool(os.Getenv("DEBUG"))
	set.LogLevel = envOrDefault("LOG_LEVEL", "info")
	set.DataDir = envOrDefault("DATA_DIR", defaultDataDir)
	set.DBDSN = strings.TrimSpace(os.Getenv("DB_DSN"))
	set.ESPNBaseURL = strings.TrimRight(envOrDefault("ESPN_BASE_URL", defaultESPNBaseURL), "/")

	set.BroadcastWorkers = defaultBroadcastCap
	if raw := strings.TrimSpace(os.Getenv("BROADCAST_WORKERS")); raw != "" {
		workers, err := strconv.Atoi(raw)
		if err != nil || workers <= 0 {
			return nil, fmt.Errorf("invalid BROADCAST_WORKERS %q", raw)
		}
		set.BroadcastWorkers = workers
	}

	set.BroadcastRate = defaultBroadcastRPS
	if raw := strings.TrimSpace(os.Getenv("BROADCAST_RATE")); raw != "" {
		rps, err := strconv.ParseFloat(raw, 64)
		if err != nil || rps <= 0 {
			return nil, fmt.Errorf("invalid BROADCAST_RATE %q", raw)
		}
		set.BroadcastRate = rps
	}

	set.Snapshot = SnapshotSettings{
		Bucket:    strings.TrimSpace(os.Getenv("SNAPSHOT_BUCKET")),
		Key:       envOrDefault("SNAPSHOT_KEY", defaultSnapshotKey),
		Region:    envOrDefault("SNAPSHOT_REGION", "auto"),
		Endpoint:  strings.TrimSpace(os.Getenv("SNAPSHOT_ENDPOINT")),
		AccessKey: strings.TrimSpace(os.Getenv("SNAPSHOT_ACCESS_KEY")),
		SecretKey: strings.TrimSpace(os.Getenv("SNAPSHOT_SECRET_KEY")),
	}
	if (set.Snapshot.AccessKey == "") != (set.Snapshot.SecretKey == "") {
		return nil, fmt.Errorf("SNAPSHOT_ACCESS_KEY and SNAPSHOT_SECRET_KEY must be set together")
	}

	return set, nil
}

func envOrDefault(key, def string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return def
}

func parseBool(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}
