package config

import (
	"log"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	LogLevel      string `env:"LOG_LEVEL"`
	Postgres      Postgres
	Telegram      Telegram
	Redis         Redis
	API           API
	Cache         Cache
	Jobs          Jobs
	GoogleDrive   GoogleDrive
	Notifications Notifications
}

type Postgres struct {
	Host            string `env:"PG_HOST"`
	Port            int    `env:"PG_PORT"`
	DbName          string `env:"PG_DB_NAME"`
	Password        string `env:"PG_PASSWORD"`
	User            string `env:"PG_USER"`
	MaxOpenConns    int    `env:"PG_MAX_OPEN_CONNS"`
	ConnMaxLifetime int    `env:"PG_CONN_MAX_LIFETIME"`
	MaxIdleConns    int    `env:"PG_MAX_IDLE_CONNS"`
	ConnMaxIdleTime int    `env:"PG_CONN_MAX_IDLE_TIME"`
	MigrationDir    string `env:"PG_MIGRATION_DIR" envDefault:"migrations"`
	SSLMode         string `env:"PG_SSL_MODE" envDefault:"disable"`
}

type Telegram struct {
	Token            string        `env:"TELEGRAM_TOKEN"`
	UpdTimeout       time.Duration `env:"TELEGRAM_UPD_TIMEOUT"`
	FileLimitInBytes int           `env:"TELEGRAM_FILE_LIMIT_IN_BYTES" envDefault:"1048576"`
}

type Redis struct {
	Host     string `env:"REDIS_HOST"`
	Port     int    `env:"REDIS_PORT"`
	Password string `env:"REDIS_PASSWORD" envDefault:""`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
}

type API struct {
	Debug    bool          `env:"API_DEBUG" envDefault:"false"`
	Timeout  time.Duration `env:"API_TIMEOUT"`
	QuoteApi QuoteApi
}

type QuoteApi struct {
	Url    string `env:"QUOTE_API_URL"`
	Ticker string `env:"QUOTE_TICKER"`
}

type Cache struct {
	EventsExpiration  time.Duration `env:"CACHE_EVENTS_EXPIRATION" envDefault:"48h"`
	SessionExpiration time.Duration `env:"SESSION_EXPIRATION" envDefault:"1h"`
}

type Jobs struct {
	RefreshPriceInterval time.Duration `env:"REFRESH_PRICE_JOB_INTERVAL" envDefault:"1h"`
	NotifyCrontab        string        `env:"NOTIFY_JOB_CRONTAB" envDefault:"0 0 9 * * *"`
}

type GoogleDrive struct {
	ClientID       string        `env:"GOOGLE_CLIENT_ID"`
	ClientSecret   string        `env:"GOOGLE_CLIENT_SECRET"`
	FileName       string        `env:"GOOGLE_DRIVE_FILE_NAME" envDefault:"stock-tracker-v1.json"`
	SaveDebounce   time.Duration `env:"DRIVE_SAVE_DEBOUNCE" envDefault:"1s"`
	RequestTimeout time.Duration `env:"DRIVE_REQUEST_TIMEOUT" envDefault:"15s"`
}

type Notifications struct {
	SessionWindowDays  int    `env:"NOTIFY_SESSION_WINDOW_DAYS" envDefault:"30"`
	SnapshotWindowDays int    `env:"NOTIFY_SNAPSHOT_WINDOW_DAYS" envDefault:"60"`
	Location           string `env:"NOTIFY_LOCATION" envDefault:"UTC"`
}

func MustLoad() *Config {
	_ = godotenv.Load(".env")

	cfg := &Config{}

	opts := env.Options{RequiredIfNoDef: true}

	if err := env.ParseWithOptions(cfg, opts); err != nil {
		log.Fatalf("parse config error: %s", err)
	}

	return cfg
}

// MustLocation resolves the time zone notifications fire in.
func (n Notifications) MustLocation() *time.Location {
	loc, err := time.LoadLocation(n.Location)
	if err != nil {
		log.Fatalf("load notifications location error: %s", err)
	}
	return loc
}
