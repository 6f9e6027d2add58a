package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port      string `env:"PORT,      default=8080"`
	Env       string `env:"ENV,       default=development"`
	JWTSecret string `env:"JWT_SECRET"`
	LogLevel  string `env:"LOG_LEVEL, default=info"`

	Mongo    MongoConfig
	Redis    RedisConfig
	Hub      HubConfig
	Dispatch DispatchConfig
	Routing  RoutingConfig
	Tracker  TrackerConfig
}

type MongoConfig struct {
	URI         string `env:"MONGO_URI,           default=mongodb://localhost:27017"`
	Database    string `env:"MONGO_DB,            default=live_tracking"`
	MaxPoolSize uint64 `env:"MONGO_MAX_POOL_SIZE, default=0"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR,     default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,       default=0"`
}

type HubConfig struct {
	WriteTimeout time.Duration `env:"HUB_WRITE_TIMEOUT, default=10s"`
	PongTimeout  time.Duration `env:"HUB_PONG_TIMEOUT,  default=60s"`
	SendBuffer   int           `env:"HUB_SEND_BUFFER,   default=64"`
}

type DispatchConfig struct {
	Workers int `env:"DISPATCH_WORKERS, default=8"`
}

type RoutingConfig struct {
	MapboxToken   string  `env:"MAPBOX_TOKEN"`
	MapboxBaseURL string  `env:"MAPBOX_BASE_URL,     default=https://api.mapbox.com"`
	AvgSpeedKmh   float64 `env:"ROUTE_AVG_SPEED_KMH, default=25"`
}

// TrackerConfig holds the settings of the tracker CLI.
type TrackerConfig struct {
	APIBaseURL     string        `env:"API_BASE_URL,    default=http://localhost:8080/api"`
	HubURL         string        `env:"HUB_URL,         default=ws://localhost:8080/ws"`
	Token          string        `env:"API_TOKEN"`
	DataSource     string        `env:"DATA_SOURCE,     default=mock"`
	PositionSource string        `env:"POSITION_SOURCE, default=simulated"`
	ReplayFile     string        `env:"REPLAY_FILE"`
	SimStartLat    float64       `env:"SIM_START_LAT,   default=37.7749"`
	SimStartLng    float64       `env:"SIM_START_LNG,   default=-122.4194"`
	SimInterval    time.Duration `env:"SIM_INTERVAL,    default=3s"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load() *Config {
	cfg, err := LoadWith(context.Background(), nil)
	if err != nil {
		panic(err)
	}
	return cfg
}

// LoadWith reads configuration through l and checks the enumerated settings.
// A nil l reads the process environment.
func LoadWith(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	if l == nil {
		l = envconfig.OsLookuper()
	}
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return nil, fmt.Errorf("config: failed to load configuration: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Tracker.DataSource {
	case "mock", "backend":
	default:
		return fmt.Errorf("config: DATA_SOURCE must be mock or backend, got %q", c.Tracker.DataSource)
	}
	switch c.Tracker.PositionSource {
	case "simulated":
	case "replay":
		if c.Tracker.ReplayFile == "" {
			return fmt.Errorf("config: REPLAY_FILE is required when POSITION_SOURCE=replay")
		}
	default:
		return fmt.Errorf("config: POSITION_SOURCE must be simulated or replay, got %q", c.Tracker.PositionSource)
	}
	if c.Dispatch.Workers <= 0 {
		return fmt.Errorf("config: DISPATCH_WORKERS must be positive")
	}
	return nil
}
