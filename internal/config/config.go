package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config хранит параметры запуска сервера.
type Config struct {
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"`

	Port string `env:"ASC_PORT" envDefault:"8080"`

	// ContentDir - папка с YAML каталогом. Пусто - встроенный каталог.
	ContentDir string `env:"ASC_CONTENT_DIR"`

	DBPath    string `env:"ASC_DB_PATH" envDefault:"ascension.db"`
	ReplayDir string `env:"ASC_REPLAY_DIR" envDefault:"replays"`

	// TickInterval - темп проигрывания боя по websocket. К ядру отношения не имеет.
	TickInterval time.Duration `env:"ASC_TICK_INTERVAL" envDefault:"400ms"`

	// Seed - мастер-зерно для новых ранов (0 - случайное).
	Seed uint32 `env:"ASC_SEED" envDefault:"0"`
}

// Load читает конфиг из окружения.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env config: %w", err)
	}
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = 400 * time.Millisecond
	}
	return cfg, nil
}
