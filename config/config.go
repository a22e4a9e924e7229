package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type LogCfg struct {
	Level       string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Development bool   `mapstructure:"development"`
}

type RoomCfg struct {
	Capacity int `mapstructure:"capacity" validate:"min=1"`
}

type ColorCfg struct {
	ReservedHue int `mapstructure:"reserved_hue" validate:"min=0,max=359"`
	Tolerance   int `mapstructure:"tolerance" validate:"min=0,max=179"`
}

type RelayCfg struct {
	Encoding  string  `mapstructure:"encoding" validate:"oneof=json msgpack"`
	RateLimit float64 `mapstructure:"rate_limit" validate:"min=0"`
	RateBurst int     `mapstructure:"rate_burst" validate:"min=0"`
}

type WSCfg struct {
	SendBuffer     int           `mapstructure:"send_buffer" validate:"min=1"`
	MaxMessageSize int64         `mapstructure:"max_message_size" validate:"min=1"`
	WriteWait      time.Duration `mapstructure:"write_wait" validate:"gt=0"`
	PongWait       time.Duration `mapstructure:"pong_wait" validate:"gt=0"`
}

type CORSCfg struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type Config struct {
	Port            int           `mapstructure:"port" validate:"min=1,max=65535"`
	Log             LogCfg        `mapstructure:"log"`
	Room            RoomCfg       `mapstructure:"room"`
	Color           ColorCfg      `mapstructure:"color"`
	Relay           RelayCfg      `mapstructure:"relay"`
	WS              WSCfg         `mapstructure:"ws"`
	CORS            CORSCfg       `mapstructure:"cors"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gt=0"`
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)
	v.SetDefault("room.capacity", 50)
	v.SetDefault("color.reserved_hue", 220)
	v.SetDefault("color.tolerance", 20)
	v.SetDefault("relay.encoding", "json")
	v.SetDefault("relay.rate_limit", 200)
	v.SetDefault("relay.rate_burst", 400)
	v.SetDefault("ws.send_buffer", 256)
	v.SetDefault("ws.max_message_size", 4096)
	v.SetDefault("ws.write_wait", 10*time.Second)
	v.SetDefault("ws.pong_wait", 60*time.Second)
	v.SetDefault("cors.allowed_origins", []string{})
	v.SetDefault("shutdown_timeout", 10*time.Second)
}

// Load reads .env if present, then the optional YAML file named by
// CONFIG_FILE, then environment variables. Nested keys map to upper-case
// names with underscores, so room.capacity is ROOM_CAPACITY.
func Load() (*Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.CORS.AllowedOrigins = splitOrigins(cfg.CORS.AllowedOrigins)

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if cfg.Relay.RateLimit > 0 && cfg.Relay.RateBurst < 1 {
		return nil, errors.New("invalid config: relay.rate_burst must be at least 1 when relay.rate_limit is set")
	}
	return &cfg, nil
}

// splitOrigins accepts both a YAML list and a comma separated env value.
func splitOrigins(in []string) []string {
	out := make([]string, 0, len(in))
	for _, item := range in {
		for _, o := range strings.Split(item, ",") {
			if o = strings.TrimSpace(o); o != "" {
				out = append(out, o)
			}
		}
	}
	return out
}
