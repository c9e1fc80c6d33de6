package engine

import (
	"ascension-server/internal/domain"
	"time"
)

// Config хранит параметры запуска сессии
type Config struct {
	// Seed - сид рана, если клиент не прислал свой.
	// Сид боя этажа выводится из него, а не из времени.
	Seed   uint32
	Policy domain.SkillPolicy
}

// NewConfig создает конфиг по умолчанию (случайный сид)
func NewConfig() Config {
	return Config{
		Seed:   uint32(time.Now().UnixNano()),
		Policy: domain.PolicyAuto,
	}
}
